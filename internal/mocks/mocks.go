package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"messenger-service/internal/models"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateDirectChat(ctx context.Context, userID, otherID int64) (models.Chat, error) {
	args := m.Called(ctx, userID, otherID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) CreateGroupChat(ctx context.Context, ownerID int64, name string, memberIDs []int64) (models.Chat, error) {
	args := m.Called(ctx, ownerID, name, memberIDs)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int64) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) ListChats(ctx context.Context, userID int64) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	var list []models.Chat
	if val := args.Get(0); val != nil {
		list = val.([]models.Chat)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) Participants(ctx context.Context, chatID int64) ([]models.Participant, error) {
	args := m.Called(ctx, chatID)
	var list []models.Participant
	if val := args.Get(0); val != nil {
		list = val.([]models.Participant)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) IsParticipant(ctx context.Context, chatID, userID int64) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) AddParticipant(ctx context.Context, chatID, userID int64, isAdmin bool) error {
	args := m.Called(ctx, chatID, userID, isAdmin)
	return args.Error(0)
}

func (m *ChatRepositoryMock) RemoveParticipant(ctx context.Context, chatID, userID int64) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) ParticipantCount(ctx context.Context, chatID int64) (int, error) {
	args := m.Called(ctx, chatID)
	return args.Int(0), args.Error(1)
}

func (m *ChatRepositoryMock) SetLastMessage(ctx context.Context, chatID, messageID int64) error {
	args := m.Called(ctx, chatID, messageID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) Deactivate(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) Get(ctx context.Context, messageID int64) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) Page(ctx context.Context, chatID int64, limit, offset int) ([]models.Message, error) {
	args := m.Called(ctx, chatID, limit, offset)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) Search(ctx context.Context, chatID int64, query string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, chatID, query, limit)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) Edit(ctx context.Context, messageID, senderID int64, newContent string, at time.Time) (models.Message, error) {
	args := m.Called(ctx, messageID, senderID, newContent, at)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) SoftDelete(ctx context.Context, messageID, actorID int64, at time.Time) error {
	args := m.Called(ctx, messageID, actorID, at)
	return args.Error(0)
}

func (m *MessageRepositoryMock) MarkDelivered(ctx context.Context, messageID, userID int64, at time.Time) (bool, error) {
	args := m.Called(ctx, messageID, userID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, messageID, userID int64, at time.Time) (bool, error) {
	args := m.Called(ctx, messageID, userID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MessageRepositoryMock) MarkAllRead(ctx context.Context, chatID, userID int64, at time.Time) (int64, error) {
	args := m.Called(ctx, chatID, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) AddReaction(ctx context.Context, messageID, userID int64, emoji string, at time.Time) (models.Reaction, error) {
	args := m.Called(ctx, messageID, userID, emoji, at)
	var out models.Reaction
	if val := args.Get(0); val != nil {
		out = val.(models.Reaction)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) RemoveReaction(ctx context.Context, messageID, userID int64) (bool, error) {
	args := m.Called(ctx, messageID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MessageRepositoryMock) UnreadCount(ctx context.Context, chatID, userID int64) (int, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) UnreadCounts(ctx context.Context, userID int64) (map[int64]int, error) {
	args := m.Called(ctx, userID)
	var counts map[int64]int
	if val := args.Get(0); val != nil {
		counts = val.(map[int64]int)
	}
	return counts, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Get(ctx context.Context, userID int64) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) SetPresence(ctx context.Context, userID int64, online bool, lastActive time.Time) error {
	args := m.Called(ctx, userID, online, lastActive)
	return args.Error(0)
}

type EmitterMock struct {
	mock.Mock
}

func (m *EmitterMock) NewMessage(msg models.Message, chat models.Chat, participantIDs []int64) {
	m.Called(msg, chat, participantIDs)
}

func (m *EmitterMock) MessageEdited(participantIDs []int64, payload models.MessageEditedPayload) {
	m.Called(participantIDs, payload)
}

func (m *EmitterMock) MessageDeleted(participantIDs []int64, payload models.MessageDeletedPayload) {
	m.Called(participantIDs, payload)
}

func (m *EmitterMock) ReactionAdded(participantIDs []int64, payload models.ReactionPayload) {
	m.Called(participantIDs, payload)
}

func (m *EmitterMock) ReactionRemoved(participantIDs []int64, payload models.ReactionRemovedPayload) {
	m.Called(participantIDs, payload)
}

func (m *EmitterMock) ReceiptConfirmed(senderID int64, event string, payload models.ReceiptPayload) {
	m.Called(senderID, event, payload)
}

type AuthenticatorMock struct {
	mock.Mock
}

func (m *AuthenticatorMock) VerifyToken(ctx context.Context, token string) (int64, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(int64), args.Error(1)
}
