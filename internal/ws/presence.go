package ws

import (
	"context"
	"log/slog"
	"time"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

// PresenceTracker maintains each user's online/offline state. Transitions
// fire only on the first connection and the loss of the last one; the flag
// and last-active timestamp are persisted and the change is broadcast to
// every other connected user.
type PresenceTracker struct {
	users repositories.UserRepository
	hub   *Hub
	log   *slog.Logger
}

// NewPresenceTracker builds a PresenceTracker.
func NewPresenceTracker(users repositories.UserRepository, hub *Hub, log *slog.Logger) *PresenceTracker {
	return &PresenceTracker{users: users, hub: hub, log: log}
}

// Online handles the Offline→Online edge for a user's first connection.
func (p *PresenceTracker) Online(ctx context.Context, userID int64) {
	if err := p.users.SetPresence(ctx, userID, true, time.Now().UTC()); err != nil {
		p.log.Warn("persist online presence failed", "user_id", userID, "err", err)
	}
	p.hub.Broadcast(models.Event{
		Type:    models.EventUserOnline,
		Payload: models.PresencePayload{UserID: userID},
	}, userID)
}

// Offline handles the Online→Offline edge once the last connection closes.
func (p *PresenceTracker) Offline(ctx context.Context, userID int64) {
	lastActive := time.Now().UTC()
	if err := p.users.SetPresence(ctx, userID, false, lastActive); err != nil {
		p.log.Warn("persist offline presence failed", "user_id", userID, "err", err)
	}
	p.hub.Broadcast(models.Event{
		Type:    models.EventUserOffline,
		Payload: models.PresencePayload{UserID: userID, LastActive: &lastActive},
	}, userID)
}
