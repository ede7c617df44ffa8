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

const (
	// DefaultPageSize is the history page size when the client does not ask
	// for one.
	DefaultPageSize = 50
	maxPageSize     = 200
	searchLimit     = 100
)

// SendPayload is the validated input for MessageService.Send.
type SendPayload struct {
	Type       models.MessageType `json:"type"`
	Content    string             `json:"content"`
	Attachment *models.Attachment `json:"attachment,omitempty"`
	ReplyToID  *int64             `json:"reply_to_id,omitempty"`
}

// MessageService is the transactional core: it validates, persists, updates
// the parent chat, and hands the committed message to the fan-out.
type MessageService struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	emitter  Emitter
	log      *slog.Logger
}

// NewMessageService builds a MessageService.
func NewMessageService(chats repositories.ChatRepository, messages repositories.MessageRepository, emitter Emitter, log *slog.Logger) *MessageService {
	return &MessageService{chats: chats, messages: messages, emitter: emitter, log: log}
}

// Send validates and persists a message, then fans it out. Validation
// failures happen before any write; a storage failure after persistence
// (chat pointer update, fan-out) never revokes the committed message.
func (s *MessageService) Send(ctx context.Context, senderID, chatID int64, payload SendPayload) (models.Message, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			return models.Message{}, fmt.Errorf("%w: chat %d", ErrNotFound, chatID)
		}
		return models.Message{}, err
	}
	if !chat.Active {
		return models.Message{}, fmt.Errorf("%w: chat %d", ErrNotFound, chatID)
	}

	member, err := s.chats.IsParticipant(ctx, chatID, senderID)
	if err != nil {
		return models.Message{}, err
	}
	if !member {
		return models.Message{}, fmt.Errorf("%w: not a chat participant", ErrForbidden)
	}

	msg, err := s.buildMessage(ctx, senderID, chatID, payload)
	if err != nil {
		return models.Message{}, err
	}

	stored, err := s.messages.Create(ctx, msg)
	if err != nil {
		return models.Message{}, fmt.Errorf("persist message: %w", err)
	}

	// A crash between the insert and this pointer update leaves an orphaned
	// lastMessage, which self-heals on the next send.
	if err := s.chats.SetLastMessage(ctx, chatID, stored.ID); err != nil {
		s.log.Warn("update chat last message failed", "chat_id", chatID, "message_id", stored.ID, "err", err)
	}

	s.fanOutNew(ctx, stored, chat)
	return stored, nil
}

func (s *MessageService) buildMessage(ctx context.Context, senderID, chatID int64, payload SendPayload) (models.Message, error) {
	msg := models.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Type:     payload.Type,
		// Self-delivery: the sender's client never acknowledges its own message.
		DeliveredTo: models.ReceiptList{{UserID: senderID, At: time.Now().UTC()}},
	}

	switch payload.Type {
	case models.MessageTypeText, models.MessageTypeSystem:
		content := strings.TrimSpace(payload.Content)
		if content == "" {
			return models.Message{}, fmt.Errorf("%w: content is required for %s messages", ErrInvalidInput, payload.Type)
		}
		if payload.Attachment != nil {
			return models.Message{}, fmt.Errorf("%w: %s messages cannot carry an attachment", ErrInvalidInput, payload.Type)
		}
		msg.Content = content
	case models.MessageTypeImage, models.MessageTypeFile, models.MessageTypeVoice:
		if !payload.Attachment.Complete() {
			return models.Message{}, fmt.Errorf("%w: %s messages require a complete attachment", ErrInvalidInput, payload.Type)
		}
		msg.Attachment = models.AttachmentField{Attachment: payload.Attachment}
	default:
		return models.Message{}, fmt.Errorf("%w: unknown message type %q", ErrInvalidInput, payload.Type)
	}

	if payload.ReplyToID != nil {
		parent, err := s.messages.Get(ctx, *payload.ReplyToID)
		if err != nil {
			if errors.Is(err, repositories.ErrMessageNotFound) {
				return models.Message{}, fmt.Errorf("%w: reply-to message %d", ErrInvalidInput, *payload.ReplyToID)
			}
			return models.Message{}, err
		}
		if parent.ChatID != chatID {
			return models.Message{}, fmt.Errorf("%w: reply-to message belongs to another chat", ErrInvalidInput)
		}
		msg.ReplyToID = payload.ReplyToID
	}

	return msg, nil
}

func (s *MessageService) fanOutNew(ctx context.Context, msg models.Message, chat models.Chat) {
	ids, err := s.participantIDs(ctx, msg.ChatID)
	if err != nil {
		s.log.Warn("fan-out skipped, participant lookup failed", "chat_id", msg.ChatID, "err", err)
		return
	}
	s.emitter.NewMessage(msg, chat, ids)
}

// Edit replaces the content of a text message. Only the sender may edit, and
// the previous content is kept in the audit trail.
func (s *MessageService) Edit(ctx context.Context, userID, messageID int64, newContent string) (models.Message, error) {
	newContent = strings.TrimSpace(newContent)
	if newContent == "" {
		return models.Message{}, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

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
	if msg.SenderID != userID {
		return models.Message{}, fmt.Errorf("%w: only the sender can edit", ErrForbidden)
	}
	if msg.Type != models.MessageTypeText {
		return models.Message{}, fmt.Errorf("%w: only text messages can be edited", ErrInvalidInput)
	}

	editedAt := time.Now().UTC()
	updated, err := s.messages.Edit(ctx, messageID, userID, newContent, editedAt)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return models.Message{}, fmt.Errorf("%w: message %d", ErrNotFound, messageID)
		}
		return models.Message{}, err
	}

	if ids, err := s.participantIDs(ctx, msg.ChatID); err == nil {
		s.emitter.MessageEdited(ids, models.MessageEditedPayload{
			MessageID:  messageID,
			NewContent: newContent,
			EditedAt:   editedAt,
		})
	} else {
		s.log.Warn("edit fan-out skipped", "message_id", messageID, "err", err)
	}
	return updated, nil
}

// Delete tombstones a message. The sender may always delete; in group chats
// an admin may as well.
func (s *MessageService) Delete(ctx context.Context, userID, messageID int64) error {
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return fmt.Errorf("%w: message %d", ErrNotFound, messageID)
		}
		return err
	}
	if msg.Deleted {
		return fmt.Errorf("%w: message %d", ErrNotFound, messageID)
	}

	if msg.SenderID != userID {
		chat, err := s.chats.GetChat(ctx, msg.ChatID)
		if err != nil {
			return err
		}
		if chat.Type != models.ChatTypeGroup {
			return fmt.Errorf("%w: only the sender can delete", ErrForbidden)
		}
		admin, err := s.chats.IsAdmin(ctx, msg.ChatID, userID)
		if err != nil {
			return err
		}
		if !admin {
			return fmt.Errorf("%w: only the sender or a chat admin can delete", ErrForbidden)
		}
	}

	deletedAt := time.Now().UTC()
	if err := s.messages.SoftDelete(ctx, messageID, userID, deletedAt); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return fmt.Errorf("%w: message %d", ErrNotFound, messageID)
		}
		return err
	}

	if ids, err := s.participantIDs(ctx, msg.ChatID); err == nil {
		s.emitter.MessageDeleted(ids, models.MessageDeletedPayload{
			MessageID: messageID,
			DeletedBy: userID,
			DeletedAt: deletedAt,
		})
	} else {
		s.log.Warn("delete fan-out skipped", "message_id", messageID, "err", err)
	}
	return nil
}

// History returns one page of chat messages, oldest first. Pages are fetched
// newest-first from storage and reversed; a full page signals more history.
func (s *MessageService) History(ctx context.Context, userID, chatID int64, page, limit int) ([]models.Message, bool, error) {
	if err := s.requireMembership(ctx, chatID, userID); err != nil {
		return nil, false, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxPageSize {
		limit = DefaultPageSize
	}

	msgs, err := s.messages.Page(ctx, chatID, limit, (page-1)*limit)
	if err != nil {
		return nil, false, err
	}
	hasMore := len(msgs) == limit
	return lo.Reverse(msgs), hasMore, nil
}

// Search finds messages in a chat by content substring.
func (s *MessageService) Search(ctx context.Context, userID, chatID int64, query string) ([]models.Message, error) {
	if err := s.requireMembership(ctx, chatID, userID); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", ErrInvalidInput)
	}
	return s.messages.Search(ctx, chatID, query, searchLimit)
}

func (s *MessageService) requireMembership(ctx context.Context, chatID, userID int64) error {
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

func (s *MessageService) participantIDs(ctx context.Context, chatID int64) ([]int64, error) {
	participants, err := s.chats.Participants(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return lo.Map(participants, func(p models.Participant, _ int) int64 { return p.UserID }), nil
}
