package socket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Marga-Ghale/ora-projects-backend/pkg/logger"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Membership messages
	MessageMemberAdded            MessageType = "member_added"
	MessageMemberRemoved          MessageType = "member_removed"
	MessageMemberRoleUpdated      MessageType = "member_role_updated"
	MessageRolePermissionsUpdated MessageType = "role_permissions_updated"

	// Task messages
	MessageTaskAssigned MessageType = "task_assigned"
	MessageTaskUpdated  MessageType = "task_updated"
	MessageTaskDueSoon  MessageType = "task_due_soon"

	MessageCommentAdded MessageType = "comment_added"

	// System messages
	MessagePing  MessageType = "ping"
	MessagePong  MessageType = "pong"
	MessageAck   MessageType = "ack"
	MessageError MessageType = "error"
)

const (
	userRoomPrefix    = "user:"
	projectRoomPrefix = "project:"
)

func UserRoom(userID string) string       { return userRoomPrefix + userID }
func ProjectRoom(projectID string) string { return projectRoomPrefix + projectID }

// Message represents a WebSocket message
type Message struct {
	Type      MessageType            `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// RoomAuthorizer decides whether a user may subscribe to a project room.
type RoomAuthorizer func(ctx context.Context, userID, projectID string) bool

// Client represents a connected WebSocket client
type Client struct {
	ID       string
	UserID   string
	Conn     *websocket.Conn
	Hub      *Hub
	Send     chan []byte
	Rooms    map[string]bool
	mu       sync.Mutex
	closed   bool // guarded by mu; Send is closed once set
	lastPing time.Time
}

// shutdown closes Send exactly once.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Hub maintains the set of active clients and routes messages to rooms.
type Hub struct {
	clients     map[*Client]bool
	userClients map[string]map[*Client]bool
	roomClients map[string]map[*Client]bool

	register      chan *Client
	unregister    chan *Client
	roomBroadcast chan *RoomMessage
	directMessage chan *DirectMessage

	authorize RoomAuthorizer
	done      chan struct{}

	mu sync.RWMutex
}

// RoomMessage represents a message to be sent to a specific room
type RoomMessage struct {
	Room    string
	Message []byte
	Exclude string // user ID to skip
}

// DirectMessage represents a message to be sent to a specific user
type DirectMessage struct {
	UserID  string
	Message []byte
}

// NewHub creates a hub. A nil authorizer rejects every project room join.
func NewHub(authorize RoomAuthorizer) *Hub {
	if authorize == nil {
		authorize = func(context.Context, string, string) bool { return false }
	}
	return &Hub{
		clients:       make(map[*Client]bool),
		userClients:   make(map[string]map[*Client]bool),
		roomClients:   make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		roomBroadcast: make(chan *RoomMessage, 256),
		directMessage: make(chan *DirectMessage, 256),
		authorize:     authorize,
		done:          make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	logger.Info().Msg("[Hub] WebSocket hub started")

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			logger.Info().Msg("[Hub] WebSocket hub stopped")
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case rm := <-h.roomBroadcast:
			h.broadcastToRoom(rm)

		case dm := <-h.directMessage:
			h.sendToUser(dm)

		case <-pingTicker.C:
			h.pingClients()
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if h.userClients[client.UserID] == nil {
		h.userClients[client.UserID] = make(map[*Client]bool)
	}
	h.userClients[client.UserID][client] = true

	h.joinLocked(client, UserRoom(client.UserID))

	logger.Debug().
		Str("userId", client.UserID).
		Str("clientId", client.ID).
		Int("clients", len(h.clients)).
		Msg("[Hub] client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	if clients, ok := h.userClients[client.UserID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	client.mu.Lock()
	for room := range client.Rooms {
		h.removeFromRoomLocked(client, room)
	}
	client.mu.Unlock()

	client.shutdown()
	logger.Debug().
		Str("userId", client.UserID).
		Str("clientId", client.ID).
		Int("clients", len(h.clients)).
		Msg("[Hub] client disconnected")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.shutdown()
	}
	h.clients = make(map[*Client]bool)
	h.userClients = make(map[string]map[*Client]bool)
	h.roomClients = make(map[string]map[*Client]bool)
}

// leave queues client for unregistration unless the hub has stopped.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) deliver(client *Client, message []byte) bool {
	select {
	case client.Send <- message:
		return true
	default:
		go h.leave(client)
		return false
	}
}

func (h *Hub) broadcastToRoom(rm *RoomMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.roomClients[rm.Room] {
		if rm.Exclude != "" && client.UserID == rm.Exclude {
			continue
		}
		if h.deliver(client, rm.Message) {
			sent++
		}
	}
	logger.Debug().Str("room", rm.Room).Int("sent", sent).Msg("[Hub] room broadcast")
}

func (h *Hub) sendToUser(dm *DirectMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.userClients[dm.UserID] {
		h.deliver(client, dm.Message)
	}
}

func (h *Hub) pingClients() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, _ := json.Marshal(Message{Type: MessagePing, Timestamp: time.Now()})
	for client := range h.clients {
		h.deliver(client, data)
	}
}

// ============================================
// Room Management
// ============================================

// JoinRoom subscribes a client to a room. Users may only join their own user
// room and rooms of projects they are members of.
func (h *Hub) JoinRoom(ctx context.Context, client *Client, room string) bool {
	switch {
	case strings.HasPrefix(room, userRoomPrefix):
		if room != UserRoom(client.UserID) {
			return false
		}
	case strings.HasPrefix(room, projectRoomPrefix):
		projectID := strings.TrimPrefix(room, projectRoomPrefix)
		if projectID == "" || !h.authorize(ctx, client.UserID, projectID) {
			logger.Warn().Str("userId", client.UserID).Str("room", room).Msg("[Hub] DENIED room join")
			return false
		}
	default:
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinLocked(client, room)
	return true
}

func (h *Hub) joinLocked(client *Client, room string) {
	client.mu.Lock()
	client.Rooms[room] = true
	client.mu.Unlock()

	if h.roomClients[room] == nil {
		h.roomClients[room] = make(map[*Client]bool)
	}
	h.roomClients[room][client] = true
}

// LeaveRoom removes a client from a room
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	delete(client.Rooms, room)
	client.mu.Unlock()

	h.removeFromRoomLocked(client, room)
}

func (h *Hub) removeFromRoomLocked(client *Client, room string) {
	if clients, ok := h.roomClients[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.roomClients, room)
		}
	}
}

// EvictFromProject drops every connection of userID from the project room.
// Called when the user loses membership.
func (h *Hub) EvictFromProject(userID, projectID string) {
	room := ProjectRoom(projectID)

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.userClients[userID] {
		client.mu.Lock()
		delete(client.Rooms, room)
		client.mu.Unlock()
		h.removeFromRoomLocked(client, room)
	}
}

// ============================================
// Sending
// ============================================

func encode(msgType MessageType, payload map[string]interface{}) ([]byte, bool) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		logger.Error().Err(err).Str("type", string(msgType)).Msg("[Hub] marshal message")
		return nil, false
	}
	return data, true
}

// SendToUser sends a message to every connection of a user
func (h *Hub) SendToUser(userID string, msgType MessageType, payload map[string]interface{}) {
	if data, ok := encode(msgType, payload); ok {
		h.directMessage <- &DirectMessage{UserID: userID, Message: data}
	}
}

// SendToRoom broadcasts a message to all clients in a room
func (h *Hub) SendToRoom(room string, msgType MessageType, payload map[string]interface{}, excludeUserID string) {
	if data, ok := encode(msgType, payload); ok {
		h.roomBroadcast <- &RoomMessage{Room: room, Message: data, Exclude: excludeUserID}
	}
}

// ============================================
// Queries
// ============================================

func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.userClients[userID]
	return ok
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.roomClients[room])
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
