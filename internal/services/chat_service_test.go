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
	"messenger-service/internal/repositories"
	"messenger-service/internal/services"
)

func newChatService(chats *mocks.ChatRepositoryMock, messages *mocks.MessageRepositoryMock, users *mocks.UserRepositoryMock) *services.ChatService {
	return services.NewChatService(chats, messages, users, slog.Default())
}

func TestStartDirectSelfChatRejected(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	svc := newChatService(chats, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))

	_, err := svc.StartDirect(context.Background(), 1, 1)

	require.ErrorIs(t, err, services.ErrInvalidInput)
	chats.AssertNotCalled(t, "CreateDirectChat", mock.Anything, mock.Anything, mock.Anything)
}

func TestStartDirectUnknownUser(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	svc := newChatService(new(mocks.ChatRepositoryMock), new(mocks.MessageRepositoryMock), users)

	users.On("Get", mock.Anything, int64(404)).Return(models.User{}, repositories.ErrUserNotFound).Once()

	_, err := svc.StartDirect(context.Background(), 1, 404)

	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestStartDirectIdempotent(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	svc := newChatService(chats, new(mocks.MessageRepositoryMock), users)

	chat := models.Chat{ID: 5, Type: models.ChatTypeDirect, Active: true}
	users.On("Get", mock.Anything, int64(2)).Return(models.User{ID: 2}, nil).Twice()
	chats.On("CreateDirectChat", mock.Anything, int64(1), int64(2)).Return(chat, nil).Twice()

	first, err := svc.StartDirect(context.Background(), 1, 2)
	require.NoError(t, err)
	second, err := svc.StartDirect(context.Background(), 1, 2)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestCreateGroupRequiresName(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	svc := newChatService(chats, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))

	_, err := svc.CreateGroup(context.Background(), 1, "   ", []int64{2, 3})

	require.ErrorIs(t, err, services.ErrInvalidInput)
	chats.AssertNotCalled(t, "CreateGroupChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListChatsAttachesUnreadCounts(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	svc := newChatService(chats, messages, new(mocks.UserRepositoryMock))

	chats.On("ListChats", mock.Anything, int64(1)).Return([]models.Chat{
		{ID: 5, Active: true}, {ID: 7, Active: true},
	}, nil).Once()
	messages.On("UnreadCounts", mock.Anything, int64(1)).Return(map[int64]int{5: 2}, nil).Once()
	chats.On("Participants", mock.Anything, int64(5)).Return([]models.Participant{{ChatID: 5, UserID: 1}}, nil).Once()
	chats.On("Participants", mock.Anything, int64(7)).Return([]models.Participant{{ChatID: 7, UserID: 1}}, nil).Once()

	summaries, err := svc.ListChats(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 2, summaries[0].UnreadCount)
	assert.Equal(t, 0, summaries[1].UnreadCount)
}

func TestAddParticipantAdminOnly(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	svc := newChatService(chats, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))

	chats.On("GetChat", mock.Anything, int64(5)).Return(models.Chat{ID: 5, Type: models.ChatTypeGroup, Active: true}, nil).Once()
	chats.On("IsAdmin", mock.Anything, int64(5), int64(2)).Return(false, nil).Once()

	err := svc.AddParticipant(context.Background(), 2, 5, 3)

	require.ErrorIs(t, err, services.ErrForbidden)
	chats.AssertNotCalled(t, "AddParticipant", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddParticipantDirectChatRejected(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	svc := newChatService(chats, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))

	chats.On("GetChat", mock.Anything, int64(5)).Return(models.Chat{ID: 5, Type: models.ChatTypeDirect, Active: true}, nil).Once()

	err := svc.AddParticipant(context.Background(), 1, 5, 3)

	require.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestRemoveParticipantSelfLeave(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	svc := newChatService(chats, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))

	chats.On("GetChat", mock.Anything, int64(5)).Return(models.Chat{ID: 5, Type: models.ChatTypeGroup, Active: true}, nil).Once()
	chats.On("RemoveParticipant", mock.Anything, int64(5), int64(2)).Return(nil).Once()
	chats.On("ParticipantCount", mock.Anything, int64(5)).Return(3, nil).Once()

	require.NoError(t, svc.RemoveParticipant(context.Background(), 2, 5, 2))
	chats.AssertNotCalled(t, "IsAdmin", mock.Anything, mock.Anything, mock.Anything)
	chats.AssertNotCalled(t, "Deactivate", mock.Anything, mock.Anything)
}

func TestRemoveLastParticipantDeactivatesChat(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	svc := newChatService(chats, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))

	chats.On("GetChat", mock.Anything, int64(5)).Return(models.Chat{ID: 5, Type: models.ChatTypeGroup, Active: true}, nil).Once()
	chats.On("RemoveParticipant", mock.Anything, int64(5), int64(2)).Return(nil).Once()
	chats.On("ParticipantCount", mock.Anything, int64(5)).Return(0, nil).Once()
	chats.On("Deactivate", mock.Anything, int64(5)).Return(nil).Once()

	require.NoError(t, svc.RemoveParticipant(context.Background(), 2, 5, 2))
	chats.AssertExpectations(t)
}

func TestDeactivateGroupNeedsAdmin(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	svc := newChatService(chats, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))

	chats.On("GetChat", mock.Anything, int64(5)).Return(models.Chat{ID: 5, Type: models.ChatTypeGroup, Active: true}, nil).Once()
	chats.On("IsParticipant", mock.Anything, int64(5), int64(2)).Return(true, nil).Once()
	chats.On("IsAdmin", mock.Anything, int64(5), int64(2)).Return(false, nil).Once()

	err := svc.Deactivate(context.Background(), 2, 5)

	require.ErrorIs(t, err, services.ErrForbidden)
	chats.AssertNotCalled(t, "Deactivate", mock.Anything, mock.Anything)
}

func TestDeactivateInactiveChatIsNotFound(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	svc := newChatService(chats, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock))

	chats.On("GetChat", mock.Anything, int64(5)).Return(models.Chat{ID: 5, Active: false}, nil).Once()

	err := svc.Deactivate(context.Background(), 1, 5)

	require.ErrorIs(t, err, services.ErrNotFound)
}
