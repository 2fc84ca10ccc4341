// Package notifications provides real-time notification delivery and management.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"

	"campfire/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
)

const (
	chatPresenceOnlineSetKey = "chat:online_users"
	chatPresenceLastSeenNS   = "chat:last_seen:"
)

// ChatHub manages WebSocket connections for campaign chat rooms.
// Unlike Hub (which is user-centric), ChatHub is campaign-centric: a client
// joins one or more campaign rooms and receives messages scoped to them.
// Presence (online/offline with a grace window) is delegated to a
// ConnectionManager so rapid reconnects don't flap status events.
type ChatHub struct {
	mu sync.RWMutex

	// campaignID -> set of userIDs viewing the room
	rooms map[uint]map[uint]struct{}

	// userID -> set of campaignIDs they're actively viewing
	userRooms map[uint]map[uint]struct{}

	// userID -> set of active clients (multi-device support)
	userConns map[uint]map[*Client]bool

	presence *ConnectionManager
	wsLog    *observability.WSLogger
}

// Name returns a human-readable identifier for this hub.
func (h *ChatHub) Name() string { return "chat hub" }

// ChatEvent is the envelope broadcast to campaign chat clients.
type ChatEvent struct {
	Type       string      `json:"type"` // "message", "typing", "presence", "user_status", "connected_users"
	CampaignID uint        `json:"campaign_id,omitempty"`
	UserID     uint        `json:"user_id,omitempty"`
	Username   string      `json:"username,omitempty"`
	Payload    interface{} `json:"payload"`
}

// NewChatHub creates a new ChatHub. An optional Redis client enables
// cross-process presence.
func NewChatHub(redisClients ...*redis.Client) *ChatHub {
	var redisClient *redis.Client
	if len(redisClients) > 0 {
		redisClient = redisClients[0]
	}

	hub := &ChatHub{
		rooms:     make(map[uint]map[uint]struct{}),
		userRooms: make(map[uint]map[uint]struct{}),
		userConns: make(map[uint]map[*Client]bool),
		wsLog:     observability.NewWSLogger("chat hub"),
	}
	hub.presence = NewConnectionManager(redisClient, ConnectionManagerConfig{
		OnlineSetKey:      chatPresenceOnlineSetKey,
		LastSeenKeyPrefix: chatPresenceLastSeenNS,
		OnUserOnline: func(userID uint) {
			hub.BroadcastGlobalStatus(userID, "online")
		},
		OnUserOffline: func(userID uint) {
			hub.BroadcastGlobalStatus(userID, "offline")
		},
	})
	return hub
}

// Register wraps a websocket connection in a Client and registers it.
// Returns an error if the per-user connection limit is exceeded.
func (h *ChatHub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	if len(h.userConns[userID]) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, fmt.Errorf("user connection limit reached")
	}
	h.mu.Unlock()

	client := NewClient(h, conn, userID)
	client.OnActivity = func(uid uint) {
		h.presence.Touch(context.Background(), uid)
	}
	h.RegisterUser(client)
	return client, nil
}

// RegisterUser registers an already-constructed client and sends it a snapshot
// of currently connected users.
func (h *ChatHub) RegisterUser(client *Client) {
	h.mu.Lock()
	if h.userConns[client.UserID] == nil {
		h.userConns[client.UserID] = make(map[*Client]bool)
	}
	h.userConns[client.UserID][client] = true

	onlineIDs := make([]uint, 0, len(h.userConns))
	for id := range h.userConns {
		if id != client.UserID {
			onlineIDs = append(onlineIDs, id)
		}
	}
	h.mu.Unlock()

	h.wsLog.LogConnect(context.Background(), client.UserID, "")

	if len(onlineIDs) > 0 {
		snapshot := ChatEvent{
			Type:    "connected_users",
			Payload: map[string]interface{}{"user_ids": onlineIDs},
		}
		if jsonMsg, err := json.Marshal(snapshot); err == nil {
			client.TrySend(jsonMsg)
		}
	}

	h.presence.Register(context.Background(), client.UserID)
}

// UnregisterUser removes a client. Kept as the counterpart of RegisterUser.
func (h *ChatHub) UnregisterUser(client *Client) {
	h.UnregisterClient(client)
}

// UnregisterClient removes a user's websocket connection and, when their last
// connection closes, cleans up all their room subscriptions. The offline
// status event is deferred to the presence grace window.
func (h *ChatHub) UnregisterClient(client *Client) {
	h.mu.Lock()

	clients, ok := h.userConns[client.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(clients, client)
	if len(clients) > 0 {
		h.mu.Unlock()
		h.presence.Unregister(context.Background(), client.UserID)
		return
	}
	delete(h.userConns, client.UserID)

	// All connections for this user are gone. Remove from all rooms.
	if joined, ok := h.userRooms[client.UserID]; ok {
		for campaignID := range joined {
			if users, ok := h.rooms[campaignID]; ok {
				delete(users, client.UserID)
				if len(users) == 0 {
					delete(h.rooms, campaignID)
				}
			}
		}
		delete(h.userRooms, client.UserID)
	}

	h.mu.Unlock()

	h.wsLog.LogDisconnect(context.Background(), client.UserID, "", "all connections closed")

	h.presence.Unregister(context.Background(), client.UserID)
}

// IsUserOnline reports presence, including the offline grace window.
func (h *ChatHub) IsUserOnline(userID uint) bool {
	return h.presence.IsOnline(context.Background(), userID)
}

// JoinRoom subscribes a connected user to a campaign's chat messages.
func (h *ChatHub) JoinRoom(userID, campaignID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.userConns[userID]; !ok {
		log.Printf("ChatHub: User %d not connected, cannot join campaign %d", userID, campaignID)
		return
	}

	if h.rooms[campaignID] == nil {
		h.rooms[campaignID] = make(map[uint]struct{})
	}
	h.rooms[campaignID][userID] = struct{}{}

	if h.userRooms[userID] == nil {
		h.userRooms[userID] = make(map[uint]struct{})
	}
	h.userRooms[userID][campaignID] = struct{}{}
}

// LeaveRoom unsubscribes a user from a campaign's chat.
func (h *ChatHub) LeaveRoom(userID, campaignID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if users, ok := h.rooms[campaignID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(h.rooms, campaignID)
		}
	}

	if joined, ok := h.userRooms[userID]; ok {
		delete(joined, campaignID)
	}
}

// BroadcastToRoom sends an event to every connected client of every user
// currently viewing the campaign's chat.
func (h *ChatHub) BroadcastToRoom(campaignID uint, event ChatEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users, ok := h.rooms[campaignID]
	if !ok {
		return
	}

	messageJSON, err := json.Marshal(event)
	if err != nil {
		h.wsLog.LogError(context.Background(), 0, strconv.FormatUint(uint64(campaignID), 10), err, "broadcast")
		return
	}

	for userID := range users {
		if clients, ok := h.userConns[userID]; ok {
			for client := range clients {
				client.TrySend(messageJSON)
			}
		}
	}
}

// BroadcastToAllUsers sends an event to every connected websocket client.
func (h *ChatHub) BroadcastToAllUsers(event ChatEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	messageJSON, err := json.Marshal(event)
	if err != nil {
		h.wsLog.LogError(context.Background(), 0, "", err, "broadcast_all")
		return
	}

	for _, clients := range h.userConns {
		for client := range clients {
			client.TrySend(messageJSON)
		}
	}
}

// GetActiveUsers returns the list of userIDs currently viewing a campaign's chat.
func (h *ChatHub) GetActiveUsers(campaignID uint) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users, ok := h.rooms[campaignID]
	if !ok {
		return []uint{}
	}

	result := make([]uint, 0, len(users))
	for userID := range users {
		result = append(result, userID)
	}
	return result
}

// IsUserActive checks if a user is currently viewing a campaign's chat.
func (h *ChatHub) IsUserActive(userID, campaignID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if joined, ok := h.userRooms[userID]; ok {
		_, active := joined[campaignID]
		return active
	}
	return false
}

// StartWiring connects the ChatHub to Redis pub/sub for campaign chat messages.
func (h *ChatHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartChatSubscriber(ctx, func(channel, payload string) {
		// channel format: chat:campaign:<id>, typing:campaign:<id> or presence:campaign:<id>
		var campaignID uint
		var msgType string

		if _, err := fmt.Sscanf(channel, "chat:campaign:%d", &campaignID); err == nil {
			msgType = "message"
		} else if _, err := fmt.Sscanf(channel, "typing:campaign:%d", &campaignID); err == nil {
			msgType = "typing"
		} else if _, err := fmt.Sscanf(channel, "presence:campaign:%d", &campaignID); err == nil {
			msgType = "presence"
		} else {
			log.Printf("ChatHub: Invalid channel format: %s", channel)
			return
		}

		var event ChatEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			log.Printf("ChatHub: Failed to parse event from channel %s: %v", channel, err)
			return
		}

		if event.Type == "" {
			event.Type = msgType
		}
		event.CampaignID = campaignID

		h.BroadcastToRoom(campaignID, event)
	})
}

// BroadcastGlobalStatus sends a "user_status" event (online/offline) to all
// connected users except the one who triggered it.
func (h *ChatHub) BroadcastGlobalStatus(userID uint, status string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event := ChatEvent{
		Type:    "user_status",
		UserID:  userID,
		Payload: map[string]interface{}{"status": status, "user_id": userID},
	}

	jsonMsg, err := json.Marshal(event)
	if err != nil {
		log.Printf("ChatHub: Failed to marshal status event: %v", err)
		return
	}

	for id, clients := range h.userConns {
		if id == userID {
			continue
		}
		for client := range clients {
			client.TrySend(jsonMsg)
		}
	}
}

// Shutdown gracefully closes all websocket connections
func (h *ChatHub) Shutdown(_ context.Context) error {
	h.presence.Stop()

	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.userConns {
		for client := range clients {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage,
				[]byte(`{"type":"server_shutdown","message":"Server is shutting down"}`)); err != nil {
				log.Printf("failed to write shutdown message for user %d: %v", userID, err)
			}
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close websocket for user %d: %v", userID, err)
			}
		}
	}

	h.rooms = make(map[uint]map[uint]struct{})
	h.userRooms = make(map[uint]map[uint]struct{})
	h.userConns = make(map[uint]map[*Client]bool)

	return nil
}
