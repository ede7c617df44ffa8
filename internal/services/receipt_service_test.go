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

func newReceiptService(chats *mocks.ChatRepositoryMock, messages *mocks.MessageRepositoryMock, emitter *mocks.EmitterMock) *services.ReceiptService {
	return services.NewReceiptService(chats, messages, emitter, slog.Default())
}

func TestMarkDeliveredConfirmsToSender(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	emitter := new(mocks.EmitterMock)
	svc := newReceiptService(chats, messages, emitter)

	messages.On("Get", mock.Anything, int64(42)).Return(models.Message{ID: 42, ChatID: 5, SenderID: 1}, nil).Once()
	chats.On("IsParticipant", mock.Anything, int64(5), int64(2)).Return(true, nil).Once()
	messages.On("MarkDelivered", mock.Anything, int64(42), int64(2), mock.Anything).Return(true, nil).Once()
	emitter.On("ReceiptConfirmed", int64(1), models.EventMessageDelivered, mock.MatchedBy(func(p models.ReceiptPayload) bool {
		return p.MessageID == 42 && p.UserID == 2
	})).Once()

	require.NoError(t, svc.MarkDelivered(context.Background(), 42, 2))
	emitter.AssertExpectations(t)
}

func TestMarkReadRepeatDoesNotReConfirm(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	emitter := new(mocks.EmitterMock)
	svc := newReceiptService(chats, messages, emitter)

	messages.On("Get", mock.Anything, int64(42)).Return(models.Message{ID: 42, ChatID: 5, SenderID: 1}, nil).Once()
	chats.On("IsParticipant", mock.Anything, int64(5), int64(2)).Return(true, nil).Once()
	// Guarded append found an existing receipt and applied nothing.
	messages.On("MarkRead", mock.Anything, int64(42), int64(2), mock.Anything).Return(false, nil).Once()

	require.NoError(t, svc.MarkRead(context.Background(), 42, 2))
	emitter.AssertNotCalled(t, "ReceiptConfirmed", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkReadOwnMessageForbidden(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	svc := newReceiptService(new(mocks.ChatRepositoryMock), messages, new(mocks.EmitterMock))

	messages.On("Get", mock.Anything, int64(42)).Return(models.Message{ID: 42, ChatID: 5, SenderID: 2}, nil).Once()

	err := svc.MarkRead(context.Background(), 42, 2)

	require.ErrorIs(t, err, services.ErrForbidden)
	messages.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkReadNonParticipantForbidden(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	svc := newReceiptService(chats, messages, new(mocks.EmitterMock))

	messages.On("Get", mock.Anything, int64(42)).Return(models.Message{ID: 42, ChatID: 5, SenderID: 1}, nil).Once()
	chats.On("IsParticipant", mock.Anything, int64(5), int64(9)).Return(false, nil).Once()

	err := svc.MarkRead(context.Background(), 42, 9)

	require.ErrorIs(t, err, services.ErrForbidden)
	messages.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkAllRead(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	svc := newReceiptService(chats, messages, new(mocks.EmitterMock))

	chats.On("GetChat", mock.Anything, int64(5)).Return(models.Chat{ID: 5, Active: true}, nil).Once()
	chats.On("IsParticipant", mock.Anything, int64(5), int64(2)).Return(true, nil).Once()
	messages.On("MarkAllRead", mock.Anything, int64(5), int64(2), mock.Anything).Return(int64(3), nil).Once()

	marked, err := svc.MarkAllRead(context.Background(), 5, 2)

	require.NoError(t, err)
	assert.Equal(t, int64(3), marked)
}

func TestUnreadCountRequiresMembership(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	svc := newReceiptService(chats, messages, new(mocks.EmitterMock))

	chats.On("GetChat", mock.Anything, int64(5)).Return(models.Chat{ID: 5, Active: true}, nil).Once()
	chats.On("IsParticipant", mock.Anything, int64(5), int64(9)).Return(false, nil).Once()

	_, err := svc.UnreadCount(context.Background(), 5, 9)

	require.ErrorIs(t, err, services.ErrForbidden)
	messages.AssertNotCalled(t, "UnreadCount", mock.Anything, mock.Anything, mock.Anything)
}

func TestUnreadCounts(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	svc := newReceiptService(new(mocks.ChatRepositoryMock), messages, new(mocks.EmitterMock))

	messages.On("UnreadCounts", mock.Anything, int64(2)).Return(map[int64]int{5: 2, 7: 1}, nil).Once()

	counts, err := svc.UnreadCounts(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, map[int64]int{5: 2, 7: 1}, counts)
}
