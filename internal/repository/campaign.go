package repository

import (
	"context"
	"errors"

	"campfire/internal/cache"
	"campfire/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CampaignRepository defines the interface for campaign data operations.
type CampaignRepository interface {
	// Create persists the campaign and enrolls the creator as a member in
	// the same transaction.
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id uint) (*models.Campaign, error)
	List(ctx context.Context, limit, offset int) ([]*models.Campaign, error)
	ListByMember(ctx context.Context, userID uint) ([]*models.Campaign, error)
	IsMember(ctx context.Context, campaignID, userID uint) (bool, error)
	AddMember(ctx context.Context, campaignID, userID uint) error
	GetMembers(ctx context.Context, campaignID uint) ([]models.User, error)
	// DeleteCascade removes the campaign and everything under it in one
	// transaction and returns the image URLs of the deleted posts so the
	// caller can clean up blobs afterwards.
	DeleteCascade(ctx context.Context, campaignID uint) ([]string, error)
}

type campaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(campaign).Error; err != nil {
			return err
		}
		member := models.CampaignMember{CampaignID: campaign.ID, UserID: campaign.CreatorID}
		return tx.Create(&member).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// applyCampaignDetails adds the derived member count to the select list.
func (r *campaignRepository) applyCampaignDetails(db *gorm.DB) *gorm.DB {
	return db.Select("campaigns.*, " +
		"(SELECT COUNT(*) FROM campaign_members WHERE campaign_members.campaign_id = campaigns.id) as members_count")
}

func (r *campaignRepository) GetByID(ctx context.Context, id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.applyCampaignDetails(readDB(r.db).WithContext(ctx)).
		Preload("Creator").
		Preload("Members.User").
		First(&campaign, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Campaign", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &campaign, nil
}

func (r *campaignRepository) List(ctx context.Context, limit, offset int) ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	err := r.applyCampaignDetails(readDB(r.db).WithContext(ctx)).
		Preload("Creator").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&campaigns).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return campaigns, nil
}

func (r *campaignRepository) ListByMember(ctx context.Context, userID uint) ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	err := r.applyCampaignDetails(readDB(r.db).WithContext(ctx)).
		Joins("JOIN campaign_members cm ON cm.campaign_id = campaigns.id").
		Where("cm.user_id = ?", userID).
		Order("campaigns.created_at DESC").
		Find(&campaigns).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return campaigns, nil
}

func (r *campaignRepository) IsMember(ctx context.Context, campaignID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CampaignMember{}).
		Where("campaign_id = ? AND user_id = ?", campaignID, userID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *campaignRepository) AddMember(ctx context.Context, campaignID, userID uint) error {
	member := models.CampaignMember{CampaignID: campaignID, UserID: userID}
	// Adding an existing member is a no-op.
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&member).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateCampaign(ctx, campaignID)
	return nil
}

func (r *campaignRepository) GetMembers(ctx context.Context, campaignID uint) ([]models.User, error) {
	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Table("users").
		Joins("JOIN campaign_members cm ON users.id = cm.user_id").
		Where("cm.campaign_id = ?", campaignID).
		Order("cm.created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *campaignRepository) DeleteCascade(ctx context.Context, campaignID uint) ([]string, error) {
	var imageURLs []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("campaign_id = ? AND image_url <> ''", campaignID).
			Pluck("image_url", &imageURLs).Error; err != nil {
			return err
		}

		if err := tx.Where("campaign_id = ?", campaignID).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id IN (?)",
			tx.Session(&gorm.Session{NewDB: true}).Model(&models.Post{}).Select("id").Where("campaign_id = ?", campaignID),
		).Unscoped().Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id IN (?)",
			tx.Session(&gorm.Session{NewDB: true}).Model(&models.Post{}).Select("id").Where("campaign_id = ?", campaignID),
		).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", campaignID).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", campaignID).Delete(&models.CampaignMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Campaign{}, campaignID).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidateCampaign(ctx, campaignID)
	return imageURLs, nil
}
