// Package service provides application business logic (posts, users, campaigns, chat).
package service

import (
	"context"
	"strings"

	"campfire/internal/cache"
	"campfire/internal/models"
	"campfire/internal/repository"
)

// ChatService provides campaign chat business logic. Messages are append-only
// and scoped to a single campaign.
type ChatService struct {
	chatRepo     repository.ChatRepository
	campaignRepo repository.CampaignRepository
	userRepo     repository.UserRepository
}

// SendMessageInput is the input for sending a campaign chat message.
type SendMessageInput struct {
	UserID     uint
	CampaignID uint
	Body       string
}

// NewChatService returns a new ChatService.
func NewChatService(
	chatRepo repository.ChatRepository,
	campaignRepo repository.CampaignRepository,
	userRepo repository.UserRepository,
) *ChatService {
	return &ChatService{
		chatRepo:     chatRepo,
		campaignRepo: campaignRepo,
		userRepo:     userRepo,
	}
}

const maxMessageBodyLen = 10000 // 10K characters

// SendMessage appends a message to a campaign's chat. Only members may post.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.ChatMessage, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, models.NewValidationError("Message body is required")
	}
	if len(body) > maxMessageBodyLen {
		return nil, models.NewValidationError("Message too long (max 10000 characters)")
	}

	if _, err := s.campaignRepo.GetByID(ctx, in.CampaignID); err != nil {
		return nil, err
	}
	member, err := s.campaignRepo.IsMember(ctx, in.CampaignID, in.UserID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, models.NewUnauthorizedError("Only campaign members can chat")
	}

	message := &models.ChatMessage{
		CampaignID: in.CampaignID,
		SenderID:   in.UserID,
		Body:       body,
	}
	if err := s.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	if sender, err := s.userRepo.GetByID(ctx, in.UserID); err == nil {
		message.Sender = *sender
	}

	return message, nil
}

// GetMessages returns the chat history for a campaign, oldest first. Only
// members may read. The most recent page is served cache-aside.
func (s *ChatService) GetMessages(ctx context.Context, campaignID, userID uint, limit, offset int) ([]*models.ChatMessage, error) {
	if _, err := s.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	member, err := s.campaignRepo.IsMember(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, models.NewUnauthorizedError("Only campaign members can read the chat")
	}

	var messages []*models.ChatMessage
	if offset == 0 && limit <= 50 {
		err = cache.Aside(ctx, cache.ChatHistoryKey(campaignID), &messages, cache.ChatHistoryTTL, func() error {
			var fetchErr error
			messages, fetchErr = s.chatRepo.GetMessages(ctx, campaignID, limit, offset)
			return fetchErr
		})
	} else {
		messages, err = s.chatRepo.GetMessages(ctx, campaignID, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	return messages, nil
}
