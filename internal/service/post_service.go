package service

import (
	"context"
	"strings"

	"campfire/internal/cache"
	"campfire/internal/middleware"
	"campfire/internal/models"
	"campfire/internal/repository"
)

type PostService struct {
	postRepo     repository.PostRepository
	campaignRepo repository.CampaignRepository
	isAdmin      func(ctx context.Context, userID uint) (bool, error)
	// cleanupImage removes an uploaded blob. Used to compensate when a post
	// insert fails after its image was already stored, and best-effort when
	// a post with an image is deleted.
	cleanupImage func(ctx context.Context, imageURL string)
}

type CreatePostInput struct {
	UserID     uint
	Content    string
	ImageURL   string
	CampaignID *uint
}

type ListPostsInput struct {
	Limit         int
	Offset        int
	CurrentUserID uint
	Sort          string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewPostService(
	postRepo repository.PostRepository,
	campaignRepo repository.CampaignRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
	cleanupImage func(ctx context.Context, imageURL string),
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		campaignRepo: campaignRepo,
		isAdmin:      isAdmin,
		cleanupImage: cleanupImage,
	}
}

const maxContentLen = 50000

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	imageURL := strings.TrimSpace(in.ImageURL)

	if content == "" && imageURL == "" {
		return nil, models.NewValidationError("Post needs text or an image")
	}
	if len(content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}

	if in.CampaignID != nil {
		member, err := s.campaignRepo.IsMember(ctx, *in.CampaignID, in.UserID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, models.NewUnauthorizedError("Only campaign members can post to a campaign")
		}
	}

	post := &models.Post{
		Content:    content,
		ImageURL:   imageURL,
		UserID:     in.UserID,
		CampaignID: in.CampaignID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		// The blob was stored before this write; compensate so a failed
		// post never leaves an orphaned upload behind.
		if imageURL != "" && s.cleanupImage != nil {
			s.cleanupImage(ctx, imageURL)
		}
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	var posts []*models.Post
	var err error

	// The anonymous popular feed is hot and identical for everyone, so it
	// gets a short-lived cache entry. Liked flags are stitched in per user.
	if in.Sort == "popular" && in.Offset == 0 && in.CurrentUserID == 0 && in.Limit <= 20 {
		err = cache.Aside(ctx, cache.PopularFeedKey, &posts, cache.PopularFeedTTL, func() error {
			var fetchErr error
			posts, fetchErr = s.postRepo.List(ctx, in.Limit, in.Offset, 0, in.Sort)
			return fetchErr
		})
	} else {
		posts, err = s.postRepo.List(ctx, in.Limit, in.Offset, in.CurrentUserID, in.Sort)
	}

	if err != nil {
		return nil, err
	}
	return posts, nil
}

// GetFollowingFeed returns posts authored by users the given user follows.
func (s *PostService) GetFollowingFeed(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	posts, err := s.postRepo.ListByFollowed(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

// GetLikedPosts returns the posts a user has liked, most recently liked first.
func (s *PostService) GetLikedPosts(ctx context.Context, likerID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.postRepo.ListLikedBy(ctx, likerID, limit, offset, currentUserID)
}

func (s *PostService) GetPost(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id, currentUserID)
}

func (s *PostService) GetUserPosts(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.postRepo.GetByUserID(ctx, userID, limit, offset, currentUserID)
}

func (s *PostService) GetCampaignPosts(ctx context.Context, campaignID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	if _, err := s.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.postRepo.GetByCampaignID(ctx, campaignID, limit, offset, currentUserID)
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return err
	}

	if post.UserID != in.UserID {
		if s.isAdmin == nil {
			return models.NewUnauthorizedError("You can only delete your own posts")
		}
		admin, err := s.isAdmin(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !admin {
			return models.NewUnauthorizedError("You can only delete your own posts")
		}
	}

	if err := s.postRepo.Delete(ctx, in.PostID); err != nil {
		return err
	}

	// Blob cleanup is best-effort: the post row is authoritative and is
	// already gone, an orphaned file only wastes disk.
	if post.ImageURL != "" && s.cleanupImage != nil {
		s.cleanupImage(ctx, post.ImageURL)
	}
	return nil
}

// ToggleLike flips the caller's like on a post and returns the refreshed
// post. The direction is derived from stored state; like counts are always
// the number of like rows.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*models.Post, error) {
	isLiked, err := s.postRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	if isLiked {
		if err := s.postRepo.Unlike(ctx, userID, postID); err != nil {
			return nil, err
		}
		middleware.LikeToggles.WithLabelValues("unlike").Inc()
	} else {
		if err := s.postRepo.Like(ctx, userID, postID); err != nil {
			return nil, err
		}
		middleware.LikeToggles.WithLabelValues("like").Inc()
	}

	return s.postRepo.GetByID(ctx, postID, userID)
}
