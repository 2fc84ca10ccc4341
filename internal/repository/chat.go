package repository

import (
	"context"

	"campfire/internal/cache"
	"campfire/internal/models"

	"gorm.io/gorm"
)

// ChatRepository defines the interface for campaign chat data operations.
// Chat is append-only: messages are created and listed, never edited.
type ChatRepository interface {
	CreateMessage(ctx context.Context, msg *models.ChatMessage) error
	GetMessages(ctx context.Context, campaignID uint, limit, offset int) ([]*models.ChatMessage, error)
}

// chatRepository implements ChatRepository
type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.ChatHistoryKey(msg.CampaignID))
	return nil
}

func (r *chatRepository) GetMessages(ctx context.Context, campaignID uint, limit, offset int) ([]*models.ChatMessage, error) {
	var messages []*models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Preload("Sender").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse messages to return them in chronological order (oldest -> newest)
	// We fetched DESC to get the *latest* messages, but clients expect ASC
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
