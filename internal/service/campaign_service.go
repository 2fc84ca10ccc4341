package service

import (
	"context"
	"strings"

	"campfire/internal/models"
	"campfire/internal/repository"
	"campfire/internal/validation"
)

// CampaignService provides campaign business logic. Campaign metadata is
// immutable after creation; the only mutations are member additions and
// deletion by the creator.
type CampaignService struct {
	campaignRepo repository.CampaignRepository
	userRepo     repository.UserRepository
	isAdmin      func(ctx context.Context, userID uint) (bool, error)
	// cleanupImage removes uploaded blobs left behind by a cascade delete.
	cleanupImage func(ctx context.Context, imageURL string)
}

type CreateCampaignInput struct {
	CreatorID   uint
	Title       string
	Description string
	Category    string
}

type AddMemberInput struct {
	CampaignID  uint
	ActorUserID uint
	Username    string
}

func NewCampaignService(
	campaignRepo repository.CampaignRepository,
	userRepo repository.UserRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
	cleanupImage func(ctx context.Context, imageURL string),
) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		userRepo:     userRepo,
		isAdmin:      isAdmin,
		cleanupImage: cleanupImage,
	}
}

// CreateCampaign creates a campaign and enrolls the creator as its first member.
func (s *CampaignService) CreateCampaign(ctx context.Context, in CreateCampaignInput) (*models.Campaign, error) {
	title := strings.TrimSpace(in.Title)
	if err := validation.ValidateCampaignTitle(title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateCampaignDescription(in.Description); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateCampaignCategory(in.Category); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	campaign := &models.Campaign{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		CreatorID:   in.CreatorID,
	}
	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, err
	}

	return s.campaignRepo.GetByID(ctx, campaign.ID)
}

func (s *CampaignService) GetCampaign(ctx context.Context, id uint) (*models.Campaign, error) {
	return s.campaignRepo.GetByID(ctx, id)
}

func (s *CampaignService) ListCampaigns(ctx context.Context, limit, offset int) ([]*models.Campaign, error) {
	return s.campaignRepo.List(ctx, limit, offset)
}

func (s *CampaignService) ListJoinedCampaigns(ctx context.Context, userID uint) ([]*models.Campaign, error) {
	campaigns, err := s.campaignRepo.ListByMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	if campaigns == nil {
		campaigns = []*models.Campaign{}
	}
	return campaigns, nil
}

// AddMemberByUsername enrolls the named user into the campaign. Only the
// creator may add members; adding an existing member is a no-op.
func (s *CampaignService) AddMemberByUsername(ctx context.Context, in AddMemberInput) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, in.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign.CreatorID != in.ActorUserID {
		return nil, models.NewUnauthorizedError("Only the campaign creator can add members")
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, models.NewValidationError("Username is required")
	}
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", 0)
	}

	if err := s.campaignRepo.AddMember(ctx, in.CampaignID, user.ID); err != nil {
		return nil, err
	}

	return s.campaignRepo.GetByID(ctx, in.CampaignID)
}

// GetMembers returns the campaign's members, oldest first.
func (s *CampaignService) GetMembers(ctx context.Context, campaignID uint) ([]models.User, error) {
	if _, err := s.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.campaignRepo.GetMembers(ctx, campaignID)
}

// DeleteCampaign removes the campaign, its posts, chat and memberships in a
// single transaction, then cleans up post image blobs best-effort.
func (s *CampaignService) DeleteCampaign(ctx context.Context, campaignID, actorUserID uint) error {
	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}

	if campaign.CreatorID != actorUserID {
		if s.isAdmin == nil {
			return models.NewUnauthorizedError("Only the campaign creator can delete the campaign")
		}
		admin, err := s.isAdmin(ctx, actorUserID)
		if err != nil {
			return err
		}
		if !admin {
			return models.NewUnauthorizedError("Only the campaign creator can delete the campaign")
		}
	}

	imageURLs, err := s.campaignRepo.DeleteCascade(ctx, campaignID)
	if err != nil {
		return err
	}

	if s.cleanupImage != nil {
		for _, url := range imageURLs {
			s.cleanupImage(ctx, url)
		}
	}
	return nil
}
