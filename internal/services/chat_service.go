package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

// ChatService manages chat lifecycle: direct get-or-create, group creation,
// membership changes and soft deletion.
type ChatService struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	users    repositories.UserRepository
	log      *slog.Logger
}

// NewChatService builds a ChatService.
func NewChatService(chats repositories.ChatRepository, messages repositories.MessageRepository, users repositories.UserRepository, log *slog.Logger) *ChatService {
	return &ChatService{chats: chats, messages: messages, users: users, log: log}
}

// StartDirect returns the direct chat between the two users, creating it if
// needed. Requesting it twice, even concurrently, yields the same chat.
func (s *ChatService) StartDirect(ctx context.Context, userID, otherID int64) (models.Chat, error) {
	if userID == otherID {
		return models.Chat{}, fmt.Errorf("%w: cannot chat with yourself", ErrInvalidInput)
	}
	if _, err := s.users.Get(ctx, otherID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.Chat{}, fmt.Errorf("%w: user %d", ErrNotFound, otherID)
		}
		return models.Chat{}, err
	}
	return s.chats.CreateDirectChat(ctx, userID, otherID)
}

// CreateGroup creates a group chat with the caller as admin.
func (s *ChatService) CreateGroup(ctx context.Context, ownerID int64, name string, memberIDs []int64) (models.Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Chat{}, fmt.Errorf("%w: group name is required", ErrInvalidInput)
	}
	return s.chats.CreateGroupChat(ctx, ownerID, name, memberIDs)
}

// ListChats returns the caller's active chats with participants and unread
// counts attached.
func (s *ChatService) ListChats(ctx context.Context, userID int64) ([]models.ChatSummary, error) {
	chats, err := s.chats.ListChats(ctx, userID)
	if err != nil {
		return nil, err
	}
	unread, err := s.messages.UnreadCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		participants, err := s.chats.Participants(ctx, chat.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, models.ChatSummary{
			Chat:         chat,
			Participants: participants,
			UnreadCount:  unread[chat.ID],
		})
	}
	return summaries, nil
}

// AddParticipant adds a member to a group chat. Only admins may add.
func (s *ChatService) AddParticipant(ctx context.Context, actorID, chatID, userID int64) error {
	chat, err := s.requireActiveChat(ctx, chatID)
	if err != nil {
		return err
	}
	if chat.Type != models.ChatTypeGroup {
		return fmt.Errorf("%w: direct chats have a fixed pair of participants", ErrInvalidInput)
	}
	admin, err := s.chats.IsAdmin(ctx, chatID, actorID)
	if err != nil {
		return err
	}
	if !admin {
		return fmt.Errorf("%w: only admins can add participants", ErrForbidden)
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return err
	}
	return s.chats.AddParticipant(ctx, chatID, userID, false)
}

// RemoveParticipant removes a member. Members may leave on their own; anyone
// else needs admin rights. When the last member leaves the chat is
// deactivated.
func (s *ChatService) RemoveParticipant(ctx context.Context, actorID, chatID, userID int64) error {
	chat, err := s.requireActiveChat(ctx, chatID)
	if err != nil {
		return err
	}
	if chat.Type != models.ChatTypeGroup {
		return fmt.Errorf("%w: direct chats have a fixed pair of participants", ErrInvalidInput)
	}

	if actorID != userID {
		admin, err := s.chats.IsAdmin(ctx, chatID, actorID)
		if err != nil {
			return err
		}
		if !admin {
			return fmt.Errorf("%w: only admins can remove participants", ErrForbidden)
		}
	}

	if err := s.chats.RemoveParticipant(ctx, chatID, userID); err != nil {
		return err
	}

	remaining, err := s.chats.ParticipantCount(ctx, chatID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		s.log.Info("chat empty, deactivating", "chat_id", chatID)
		return s.chats.Deactivate(ctx, chatID)
	}
	return nil
}

// Deactivate soft-deletes a chat on request. Group chats require admin
// rights; either side may deactivate a direct chat.
func (s *ChatService) Deactivate(ctx context.Context, actorID, chatID int64) error {
	chat, err := s.requireActiveChat(ctx, chatID)
	if err != nil {
		return err
	}

	member, err := s.chats.IsParticipant(ctx, chatID, actorID)
	if err != nil {
		return err
	}
	if !member {
		return fmt.Errorf("%w: not a chat participant", ErrForbidden)
	}
	if chat.Type == models.ChatTypeGroup {
		admin, err := s.chats.IsAdmin(ctx, chatID, actorID)
		if err != nil {
			return err
		}
		if !admin {
			return fmt.Errorf("%w: only admins can delete a group chat", ErrForbidden)
		}
	}
	return s.chats.Deactivate(ctx, chatID)
}

func (s *ChatService) requireActiveChat(ctx context.Context, chatID int64) (models.Chat, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			return models.Chat{}, fmt.Errorf("%w: chat %d", ErrNotFound, chatID)
		}
		return models.Chat{}, err
	}
	if !chat.Active {
		return models.Chat{}, fmt.Errorf("%w: chat %d", ErrNotFound, chatID)
	}
	return chat, nil
}
