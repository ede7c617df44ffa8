package services_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/services"
)

func newReactionService(chats *mocks.ChatRepositoryMock, messages *mocks.MessageRepositoryMock, emitter *mocks.EmitterMock) *services.ReactionService {
	return services.NewReactionService(chats, messages, emitter, slog.Default())
}

func TestAddReactionFansOut(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	emitter := new(mocks.EmitterMock)
	svc := newReactionService(chats, messages, emitter)

	messages.On("Get", mock.Anything, int64(42)).Return(models.Message{ID: 42, ChatID: 5, SenderID: 1}, nil).Once()
	chats.On("IsParticipant", mock.Anything, int64(5), int64(2)).Return(true, nil).Once()
	messages.On("AddReaction", mock.Anything, int64(42), int64(2), "👍", mock.Anything).
		Return(models.Reaction{UserID: 2, Emoji: "👍"}, nil).Once()
	chats.On("Participants", mock.Anything, int64(5)).Return([]models.Participant{
		{ChatID: 5, UserID: 1}, {ChatID: 5, UserID: 2},
	}, nil).Once()
	emitter.On("ReactionAdded", []int64{1, 2}, mock.MatchedBy(func(p models.ReactionPayload) bool {
		return p.MessageID == 42 && p.Reaction.Emoji == "👍"
	})).Once()

	reaction, err := svc.Add(context.Background(), 42, 2, "👍")

	require.NoError(t, err)
	assert.Equal(t, "👍", reaction.Emoji)
	emitter.AssertExpectations(t)
}

func TestAddReactionEmptyEmoji(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	svc := newReactionService(new(mocks.ChatRepositoryMock), messages, new(mocks.EmitterMock))

	_, err := svc.Add(context.Background(), 42, 2, "  ")

	require.ErrorIs(t, err, services.ErrInvalidInput)
	messages.AssertNotCalled(t, "AddReaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddReactionToDeletedMessage(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	svc := newReactionService(new(mocks.ChatRepositoryMock), messages, new(mocks.EmitterMock))

	messages.On("Get", mock.Anything, int64(42)).Return(models.Message{ID: 42, Deleted: true}, nil).Once()

	_, err := svc.Add(context.Background(), 42, 2, "👍")

	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestAddReactionNonParticipant(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	svc := newReactionService(chats, messages, new(mocks.EmitterMock))

	messages.On("Get", mock.Anything, int64(42)).Return(models.Message{ID: 42, ChatID: 5}, nil).Once()
	chats.On("IsParticipant", mock.Anything, int64(5), int64(9)).Return(false, nil).Once()

	_, err := svc.Add(context.Background(), 42, 9, "👍")

	require.ErrorIs(t, err, services.ErrForbidden)
	messages.AssertNotCalled(t, "AddReaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveReactionAbsentIsQuiet(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	emitter := new(mocks.EmitterMock)
	svc := newReactionService(chats, messages, emitter)

	messages.On("Get", mock.Anything, int64(42)).Return(models.Message{ID: 42, ChatID: 5}, nil).Once()
	chats.On("IsParticipant", mock.Anything, int64(5), int64(2)).Return(true, nil).Once()
	messages.On("RemoveReaction", mock.Anything, int64(42), int64(2)).Return(false, nil).Once()

	require.NoError(t, svc.Remove(context.Background(), 42, 2))
	emitter.AssertNotCalled(t, "ReactionRemoved", mock.Anything, mock.Anything)
}

func TestRemoveReactionFansOut(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	emitter := new(mocks.EmitterMock)
	svc := newReactionService(chats, messages, emitter)

	messages.On("Get", mock.Anything, int64(42)).Return(models.Message{ID: 42, ChatID: 5}, nil).Once()
	chats.On("IsParticipant", mock.Anything, int64(5), int64(2)).Return(true, nil).Once()
	messages.On("RemoveReaction", mock.Anything, int64(42), int64(2)).Return(true, nil).Once()
	chats.On("Participants", mock.Anything, int64(5)).Return([]models.Participant{{ChatID: 5, UserID: 1}}, nil).Once()
	emitter.On("ReactionRemoved", []int64{1}, models.ReactionRemovedPayload{MessageID: 42, UserID: 2}).Once()

	require.NoError(t, svc.Remove(context.Background(), 42, 2))
	emitter.AssertExpectations(t)
}
