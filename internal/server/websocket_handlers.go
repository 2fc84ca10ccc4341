// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"campfire/internal/middleware"
	"campfire/internal/models"
	"campfire/internal/notifications"
	"campfire/internal/observability"
	"campfire/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// wsTicketTTL is the window between issuing a ticket and opening the socket.
const wsTicketTTL = 30 * time.Second

// chatWSLog records incoming chat frames before they are dispatched.
var chatWSLog = observability.NewWSLogger("chat handler")

// IssueWSTicket handles POST /api/ws/ticket. It mints a short-lived single-use
// ticket the client passes as a query parameter when opening a websocket,
// since browser websocket clients cannot set an Authorization header.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(fmt.Errorf("websocket ticket store unavailable")))
	}

	ticket := uuid.NewString()
	key := fmt.Sprintf("ws_ticket:%s", ticket)
	value := strconv.FormatUint(uint64(userID), 10)
	if err := s.redis.Set(c.Context(), key, value, wsTicketTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// WebsocketHandler handles WebSocket connections for general notifications
// (new posts, reactions, follower changes, campaign events).
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			if cerr := conn.Close(); cerr != nil {
				log.Printf("websocket close error: %v", cerr)
			}
			return
		}
		uid, ok := userIDVal.(uint)
		if !ok {
			if cerr := conn.Close(); cerr != nil {
				log.Printf("websocket close error: %v", cerr)
			}
			return
		}

		if s.hub == nil {
			_ = conn.Close()
			return
		}

		// Register connection with scaling guardrails
		client, err := s.hub.Register(uid, conn)
		if err != nil {
			log.Printf("WebSocket Notification: Failed to register user %d: %v", uid, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		defer s.hub.UnregisterClient(client)

		// Handshake is complete; retire the single-use ticket.
		s.consumeWSTicket(context.Background(), conn.Locals("wsTicket"))

		// Presence logic
		s.notifyFollowersPresence(uid, "online")
		s.sendFollowingOnlineSnapshot(conn, uid)

		// Start pumps
		go client.WritePump()
		client.ReadPump()

		// After ReadPump returns, client is disconnected
		if !s.hub.IsOnline(uid) {
			s.notifyFollowersPresence(uid, "offline")
		}
	})
}

// notifyFollowersPresence tells a user's followers that they went on/offline.
func (s *Server) notifyFollowersPresence(userID uint, status string) {
	if s.followService == nil {
		return
	}
	ctx := context.Background()
	followers, err := s.followService.GetFollowers(ctx, userID)
	if err != nil {
		log.Printf("failed to load followers for presence event: %v", err)
		return
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Printf("failed to load user for presence event: %v", err)
		return
	}
	for _, follower := range followers {
		s.publishUserEvent(follower.ID, EventUserPresenceChanged, map[string]interface{}{
			"user_id":    user.ID,
			"username":   user.Username,
			"avatar":     user.Avatar,
			"status":     status,
			"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// sendFollowingOnlineSnapshot sends a newly connected client the set of users
// they follow who are currently online.
func (s *Server) sendFollowingOnlineSnapshot(conn *websocket.Conn, userID uint) {
	if s.followService == nil || s.hub == nil {
		return
	}
	following, err := s.followService.GetFollowing(context.Background(), userID)
	if err != nil {
		log.Printf("failed to load following for online snapshot: %v", err)
		return
	}

	onlineIDs := make([]uint, 0, len(following))
	for _, u := range following {
		if s.hub.IsOnline(u.ID) {
			onlineIDs = append(onlineIDs, u.ID)
		}
	}

	snapshot := map[string]interface{}{
		"type": "online_snapshot",
		"payload": map[string]interface{}{
			"user_ids": onlineIDs,
		},
	}
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if werr := conn.WriteMessage(websocket.TextMessage, snapshotJSON); werr != nil {
		log.Printf("failed to send online snapshot to user %d: %v", userID, werr)
	}
}

// WebSocketChatHandler handles WebSocket connections for real-time campaign chat
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		ctx := context.Background()

		// Get userID from context locals (set by AuthRequired middleware)
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			log.Printf("WebSocket Chat: Unauthenticated connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			log.Printf("WebSocket Chat: Failed to get user %d: %v", userID, err)
			_ = conn.Close()
			return
		}
		username := user.Username

		if s.chatHub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.chatHub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket Chat: Failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		defer s.chatHub.UnregisterClient(client)

		s.consumeWSTicket(ctx, conn.Locals("wsTicket"))

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			var incoming map[string]interface{}
			if err := json.Unmarshal(message, &incoming); err != nil {
				log.Printf("WebSocket: Invalid message format from user %d", userID)
				return
			}

			msgType, ok := incoming["type"].(string)
			if !ok {
				return
			}
			campaignIDFloat, _ := incoming["campaign_id"].(float64)
			campaignID := uint(campaignIDFloat)
			chatWSLog.LogMessage(ctx, userID, strconv.FormatUint(uint64(campaignID), 10), msgType)

			switch msgType {
			case "join":
				// Subscribe to a campaign room; members only
				if campaignID == 0 || !s.isCampaignMember(ctx, userID, campaignID) {
					return
				}
				s.chatHub.JoinRoom(userID, campaignID)

				response := notifications.ChatEvent{
					Type:       "joined",
					CampaignID: campaignID,
					Payload:    map[string]interface{}{"campaign_id": campaignID},
				}
				if respJSON, merr := json.Marshal(response); merr == nil {
					c.TrySend(respJSON)
				}

			case "leave":
				if campaignID == 0 {
					return
				}
				s.chatHub.LeaveRoom(userID, campaignID)

			case "typing":
				// Typing indicator - limit to 10 per 10 seconds to prevent spam
				isTyping, _ := incoming["is_typing"].(bool)
				if s.notifier == nil || campaignID == 0 || !s.isCampaignMember(ctx, userID, campaignID) {
					return
				}
				id := fmt.Sprintf("user:%d", userID)
				allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "typing", id, 10, 10*time.Second)
				if !allowed {
					return // Silently drop spammy typing indicators
				}
				if perr := s.notifier.PublishTypingIndicator(ctx, campaignID, userID, username, isTyping); perr != nil {
					log.Printf("publish typing indicator error: %v", perr)
				}

			case "message":
				// Send a message (alternative to HTTP endpoint)
				body, _ := incoming["body"].(string)
				if body == "" || campaignID == 0 {
					return
				}

				// Rate limit messages - same as HTTP (15 per minute)
				id := fmt.Sprintf("user:%d", userID)
				allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "send_chat", id, 15, time.Minute)
				if !allowed {
					response := notifications.ChatEvent{
						Type: "error",
						Payload: map[string]string{
							"message": "Rate limit exceeded. Please wait a moment.",
						},
					}
					if respJSON, merr := json.Marshal(response); merr == nil {
						c.TrySend(respJSON)
					}
					return
				}

				sent, serr := s.chatService.SendMessage(ctx, service.SendMessageInput{
					UserID:     userID,
					CampaignID: campaignID,
					Body:       body,
				})
				if serr != nil {
					response := notifications.ChatEvent{
						Type:    "error",
						Payload: map[string]string{"message": serr.Error()},
					}
					if respJSON, merr := json.Marshal(response); merr == nil {
						c.TrySend(respJSON)
					}
					return
				}

				s.publishChatMessage(campaignID, sent)
			}
		}

		// Send welcome message
		welcome := notifications.ChatEvent{
			Type:    "connected",
			Payload: map[string]interface{}{"user_id": userID, "username": username},
		}
		if welcomeJSON, merr := json.Marshal(welcome); merr == nil {
			client.TrySend(welcomeJSON)
		}

		// Start write pump in a goroutine
		go client.WritePump()

		// Read pump runs in the main handler goroutine (blocking)
		client.ReadPump()
	})
}

// isCampaignMember checks campaign membership for websocket room access.
func (s *Server) isCampaignMember(ctx context.Context, userID, campaignID uint) bool {
	member, err := s.campaignRepo.IsMember(ctx, campaignID, userID)
	return err == nil && member
}
