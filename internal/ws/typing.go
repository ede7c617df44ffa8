package ws

import (
	"sync"
	"time"

	"messenger-service/internal/models"
)

// TypingExpiry is how long a typing indicator survives without renewal.
const TypingExpiry = 3 * time.Second

type typingKey struct {
	chatID int64
	userID int64
}

// TypingCoordinator tracks transient per-chat, per-user typing state.
// Rapid renewals coalesce into a single timer; expiry emits the stop event
// without any client action.
type TypingCoordinator struct {
	hub    *Hub
	expiry time.Duration

	mu     sync.Mutex
	timers map[typingKey]*time.Timer
}

// NewTypingCoordinator builds a TypingCoordinator with the default expiry.
func NewTypingCoordinator(hub *Hub) *TypingCoordinator {
	return &TypingCoordinator{
		hub:    hub,
		expiry: TypingExpiry,
		timers: make(map[typingKey]*time.Timer),
	}
}

// SetTyping marks the user as typing in the chat and (re)arms the expiry
// timer. The event goes to the chat room, skipping the typist's own
// connections.
func (t *TypingCoordinator) SetTyping(chatID, userID int64) {
	t.hub.EmitToChat(chatID, models.Event{
		Type:    models.EventUserTyping,
		Payload: models.TypingPayload{UserID: userID, ChatID: chatID},
	}, userID)

	key := typingKey{chatID: chatID, userID: userID}
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[key]; ok {
		timer.Reset(t.expiry)
		return
	}
	t.timers[key] = time.AfterFunc(t.expiry, func() { t.expire(key) })
}

// ClearTyping emits the stop event immediately and cancels a pending timer.
func (t *TypingCoordinator) ClearTyping(chatID, userID int64) {
	key := typingKey{chatID: chatID, userID: userID}
	t.mu.Lock()
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
	t.mu.Unlock()

	t.emitStopped(key)
}

// Typing reports whether the user currently has an active typing indicator.
func (t *TypingCoordinator) Typing(chatID, userID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.timers[typingKey{chatID: chatID, userID: userID}]
	return ok
}

// Stop cancels every pending timer. Used at shutdown.
func (t *TypingCoordinator) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, timer := range t.timers {
		timer.Stop()
		delete(t.timers, key)
	}
}

func (t *TypingCoordinator) expire(key typingKey) {
	t.mu.Lock()
	delete(t.timers, key)
	t.mu.Unlock()

	t.emitStopped(key)
}

func (t *TypingCoordinator) emitStopped(key typingKey) {
	t.hub.EmitToChat(key.chatID, models.Event{
		Type:    models.EventUserStoppedTyping,
		Payload: models.TypingPayload{UserID: key.userID, ChatID: key.chatID},
	}, key.userID)
}
