package service

import (
	"context"

	"campfire/internal/middleware"
	"campfire/internal/models"
	"campfire/internal/repository"
)

// FollowService provides follow graph business logic.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

// NewFollowService returns a new FollowService.
func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// ToggleFollow flips the follow edge from userID to targetUserID and returns
// whether the user now follows the target. The direction is decided by the
// stored state, not by anything the client claims.
func (s *FollowService) ToggleFollow(ctx context.Context, userID, targetUserID uint) (bool, error) {
	if userID == targetUserID {
		return false, models.NewValidationError("Cannot follow yourself")
	}

	if _, err := s.userRepo.GetByID(ctx, targetUserID); err != nil {
		return false, err
	}

	following, err := s.followRepo.Toggle(ctx, userID, targetUserID)
	if err != nil {
		return false, err
	}

	if following {
		middleware.FollowToggles.WithLabelValues("follow").Inc()
	} else {
		middleware.FollowToggles.WithLabelValues("unfollow").Inc()
	}
	return following, nil
}

// IsFollowing reports whether userID follows targetUserID.
func (s *FollowService) IsFollowing(ctx context.Context, userID, targetUserID uint) (bool, error) {
	if _, err := s.userRepo.GetByID(ctx, targetUserID); err != nil {
		return false, err
	}
	return s.followRepo.IsFollowing(ctx, userID, targetUserID)
}

// GetFollowers returns the users following the given user.
func (s *FollowService) GetFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	followers, err := s.followRepo.GetFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	if followers == nil {
		followers = []models.User{}
	}
	return followers, nil
}

// GetFollowing returns the users the given user follows. A user following
// nobody gets an empty list, not an error.
func (s *FollowService) GetFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	following, err := s.followRepo.GetFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	if following == nil {
		following = []models.User{}
	}
	return following, nil
}
