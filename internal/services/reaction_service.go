package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

// ReactionService enforces at-most-one-reaction-per-user-per-message and
// fans out add/remove events to all chat participants.
type ReactionService struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	emitter  Emitter
	log      *slog.Logger
}

// NewReactionService builds a ReactionService.
func NewReactionService(chats repositories.ChatRepository, messages repositories.MessageRepository, emitter Emitter, log *slog.Logger) *ReactionService {
	return &ReactionService{chats: chats, messages: messages, emitter: emitter, log: log}
}

// Add replaces-or-inserts the user's reaction on the message.
func (s *ReactionService) Add(ctx context.Context, messageID, userID int64, emoji string) (models.Reaction, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return models.Reaction{}, fmt.Errorf("%w: emoji is required", ErrInvalidInput)
	}

	msg, err := s.requireMessage(ctx, messageID, userID)
	if err != nil {
		return models.Reaction{}, err
	}

	reaction, err := s.messages.AddReaction(ctx, messageID, userID, emoji, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return models.Reaction{}, fmt.Errorf("%w: message %d", ErrNotFound, messageID)
		}
		return models.Reaction{}, err
	}

	if ids, err := s.participantIDs(ctx, msg.ChatID); err == nil {
		s.emitter.ReactionAdded(ids, models.ReactionPayload{MessageID: messageID, Reaction: reaction})
	} else {
		s.log.Warn("reaction fan-out skipped", "message_id", messageID, "err", err)
	}
	return reaction, nil
}

// Remove strips the user's reaction. Removing an absent reaction is a no-op.
func (s *ReactionService) Remove(ctx context.Context, messageID, userID int64) error {
	msg, err := s.requireMessage(ctx, messageID, userID)
	if err != nil {
		return err
	}

	removed, err := s.messages.RemoveReaction(ctx, messageID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}

	if ids, err := s.participantIDs(ctx, msg.ChatID); err == nil {
		s.emitter.ReactionRemoved(ids, models.ReactionRemovedPayload{MessageID: messageID, UserID: userID})
	} else {
		s.log.Warn("reaction fan-out skipped", "message_id", messageID, "err", err)
	}
	return nil
}

func (s *ReactionService) requireMessage(ctx context.Context, messageID, userID int64) (models.Message, error) {
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return models.Message{}, fmt.Errorf("%w: message %d", ErrNotFound, messageID)
		}
		return models.Message{}, err
	}
	if msg.Deleted {
		return models.Message{}, fmt.Errorf("%w: message %d", ErrNotFound, messageID)
	}

	member, err := s.chats.IsParticipant(ctx, msg.ChatID, userID)
	if err != nil {
		return models.Message{}, err
	}
	if !member {
		return models.Message{}, fmt.Errorf("%w: not a chat participant", ErrForbidden)
	}
	return msg, nil
}

func (s *ReactionService) participantIDs(ctx context.Context, chatID int64) ([]int64, error) {
	participants, err := s.chats.Participants(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return lo.Map(participants, func(p models.Participant, _ int) int64 { return p.UserID }), nil
}
