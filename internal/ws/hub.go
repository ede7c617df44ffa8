package ws

import (
	"sync"

	"messenger-service/internal/models"
)

// Hub is the connection registry and room manager. Every connection sits in
// its owner's personal room; connections additionally join chat rooms while
// the user has that chat open.
type Hub struct {
	mu        sync.RWMutex
	users     map[int64]map[*Client]struct{}
	chatRooms map[int64]map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		users:     make(map[int64]map[*Client]struct{}),
		chatRooms: make(map[int64]map[*Client]struct{}),
	}
}

// Register adds the connection to its user's personal room. Reports whether
// it is the user's first live connection.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.users[c.userID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.users[c.userID] = conns
	}
	conns[c] = struct{}{}
	return len(conns) == 1
}

// Unregister removes the connection from every room. Reports whether it was
// the user's last live connection.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for chatID := range c.joined {
		h.removeFromChatLocked(c, chatID)
	}

	conns, ok := h.users[c.userID]
	if !ok {
		return false
	}
	if _, present := conns[c]; !present {
		return false
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.users, c.userID)
		return true
	}
	return false
}

// JoinChat adds the connection to a chat room. Joining twice is a no-op.
func (h *Hub) JoinChat(c *Client, chatID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.chatRooms[chatID]
	if !ok {
		room = make(map[*Client]struct{})
		h.chatRooms[chatID] = room
	}
	room[c] = struct{}{}
	c.joined[chatID] = struct{}{}
}

// LeaveChat removes the connection from a chat room. Leaving a room the
// connection never joined is a no-op.
func (h *Hub) LeaveChat(c *Client, chatID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromChatLocked(c, chatID)
}

func (h *Hub) removeFromChatLocked(c *Client, chatID int64) {
	delete(c.joined, chatID)
	room, ok := h.chatRooms[chatID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.chatRooms, chatID)
	}
}

// EmitToUser queues the event on every connection in the user's personal room.
func (h *Hub) EmitToUser(userID int64, event models.Event) {
	h.mu.RLock()
	targets := clientsOf(h.users[userID])
	h.mu.RUnlock()

	for _, c := range targets {
		c.queue(event)
	}
}

// EmitToChat queues the event on every connection currently joined to the
// chat room, skipping connections owned by skipUserID (0 skips no one).
func (h *Hub) EmitToChat(chatID int64, event models.Event, skipUserID int64) {
	h.mu.RLock()
	targets := clientsOf(h.chatRooms[chatID])
	h.mu.RUnlock()

	for _, c := range targets {
		if skipUserID != 0 && c.userID == skipUserID {
			continue
		}
		c.queue(event)
	}
}

// Broadcast queues the event on every live connection except those owned by
// skipUserID.
func (h *Hub) Broadcast(event models.Event, skipUserID int64) {
	h.mu.RLock()
	var targets []*Client
	for userID, conns := range h.users {
		if skipUserID != 0 && userID == skipUserID {
			continue
		}
		targets = append(targets, clientsOf(conns)...)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.queue(event)
	}
}

// ConnectionCount reports the number of live connections for a user.
func (h *Hub) ConnectionCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// InChat reports whether the connection is currently joined to the chat room.
func (h *Hub) InChat(c *Client, chatID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.chatRooms[chatID]
	if !ok {
		return false
	}
	_, present := room[c]
	return present
}

func clientsOf(set map[*Client]struct{}) []*Client {
	if len(set) == 0 {
		return nil
	}
	targets := make([]*Client, 0, len(set))
	for c := range set {
		targets = append(targets, c)
	}
	return targets
}
