package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

// ReceiptService records delivered/read marks and computes unread counts.
// The repository layer guarantees the appends are idempotent and atomic.
type ReceiptService struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	emitter  Emitter
	log      *slog.Logger
}

// NewReceiptService builds a ReceiptService.
func NewReceiptService(chats repositories.ChatRepository, messages repositories.MessageRepository, emitter Emitter, log *slog.Logger) *ReceiptService {
	return &ReceiptService{chats: chats, messages: messages, emitter: emitter, log: log}
}

// MarkDelivered records a delivery receipt and confirms it to the sender.
func (s *ReceiptService) MarkDelivered(ctx context.Context, messageID, userID int64) error {
	return s.mark(ctx, messageID, userID, models.EventMessageDelivered, s.messages.MarkDelivered)
}

// MarkRead records a read receipt and confirms it to the sender.
func (s *ReceiptService) MarkRead(ctx context.Context, messageID, userID int64) error {
	return s.mark(ctx, messageID, userID, models.EventMessageRead, s.messages.MarkRead)
}

func (s *ReceiptService) mark(ctx context.Context, messageID, userID int64, event string,
	apply func(context.Context, int64, int64, time.Time) (bool, error)) error {

	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return fmt.Errorf("%w: message %d", ErrNotFound, messageID)
		}
		return err
	}
	if msg.SenderID == userID {
		return fmt.Errorf("%w: cannot acknowledge your own message", ErrForbidden)
	}

	member, err := s.chats.IsParticipant(ctx, msg.ChatID, userID)
	if err != nil {
		return err
	}
	if !member {
		return fmt.Errorf("%w: not a chat participant", ErrForbidden)
	}

	at := time.Now().UTC()
	applied, err := apply(ctx, messageID, userID, at)
	if err != nil {
		return err
	}
	if applied {
		s.emitter.ReceiptConfirmed(msg.SenderID, event, models.ReceiptPayload{
			MessageID: messageID,
			UserID:    userID,
			At:        at,
		})
	}
	return nil
}

// MarkAllRead appends a read receipt to every unread message in the chat not
// authored by the user, dropping the user's unread count to zero.
func (s *ReceiptService) MarkAllRead(ctx context.Context, chatID, userID int64) (int64, error) {
	if err := s.requireMembership(ctx, chatID, userID); err != nil {
		return 0, err
	}
	marked, err := s.messages.MarkAllRead(ctx, chatID, userID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if marked > 0 {
		s.log.Debug("marked chat read", "chat_id", chatID, "user_id", userID, "messages", marked)
	}
	return marked, nil
}

// UnreadCount computes the user's unread count for one chat on demand.
func (s *ReceiptService) UnreadCount(ctx context.Context, chatID, userID int64) (int, error) {
	if err := s.requireMembership(ctx, chatID, userID); err != nil {
		return 0, err
	}
	return s.messages.UnreadCount(ctx, chatID, userID)
}

// UnreadCounts computes unread totals across all of the user's chats.
func (s *ReceiptService) UnreadCounts(ctx context.Context, userID int64) (map[int64]int, error) {
	return s.messages.UnreadCounts(ctx, userID)
}

func (s *ReceiptService) requireMembership(ctx context.Context, chatID, userID int64) error {
	_, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			return fmt.Errorf("%w: chat %d", ErrNotFound, chatID)
		}
		return err
	}
	member, err := s.chats.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !member {
		return fmt.Errorf("%w: not a chat participant", ErrForbidden)
	}
	return nil
}
