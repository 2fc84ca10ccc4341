package server

import (
	"context"
	"encoding/json"
	"log"

	"campfire/internal/models"
	"campfire/internal/notifications"
)

// Event type constants prevent typos in event names.
const (
	EventPostCreated         = "post_created"
	EventPostReactionUpdated = "post_reaction_updated"
	EventCommentCreated      = "comment_created"
	EventMessageReceived     = "message_received"
	EventFollowerAdded       = "follower_added"
	EventFollowerRemoved     = "follower_removed"
	EventCampaignCreated     = "campaign_created"
	EventCampaignMemberAdded = "campaign_member_added"
	EventUserPresenceChanged = "user_presence_changed"
)

func (s *Server) publishUserEvent(userID uint, eventType string, payload map[string]interface{}) {
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}
	message := string(eventJSON)
	if s.hub != nil {
		s.hub.Broadcast(userID, message)
	}
	if s.notifier != nil {
		if err := s.notifier.PublishUser(context.Background(), userID, message); err != nil {
			log.Printf("failed to publish %s event to user %d: %v", eventType, userID, err)
		}
	}
}

func (s *Server) publishBroadcastEvent(eventType string, payload map[string]interface{}) {
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}
	message := string(eventJSON)
	if s.hub != nil {
		s.hub.BroadcastAll(message)
	}
	if s.notifier != nil {
		if err := s.notifier.PublishBroadcast(context.Background(), message); err != nil {
			log.Printf("failed to publish %s broadcast event: %v", eventType, err)
		}
	}
}

// publishChatMessage fans a campaign chat message out to the campaign's room,
// via Redis when available so other instances deliver it too.
func (s *Server) publishChatMessage(campaignID uint, message *models.ChatMessage) {
	event := notifications.ChatEvent{
		Type:       "message",
		CampaignID: campaignID,
		UserID:     message.SenderID,
		Username:   message.Sender.Username,
		Payload:    message,
	}

	if s.notifier != nil {
		eventJSON, err := json.Marshal(event)
		if err != nil {
			log.Printf("failed to marshal chat event: %v", err)
			return
		}
		if err := s.notifier.PublishChatMessage(context.Background(), campaignID, string(eventJSON)); err != nil {
			log.Printf("failed to publish chat message to campaign %d: %v", campaignID, err)
		}
		return
	}
	// Without Redis, deliver to local clients directly.
	if s.chatHub != nil {
		s.chatHub.BroadcastToRoom(campaignID, event)
	}
}

func userSummary(user models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
		"avatar":   user.Avatar,
	}
}
