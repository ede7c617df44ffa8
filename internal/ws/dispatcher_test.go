package ws

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

type dispatcherFixture struct {
	hub      *Hub
	chats    *mocks.ChatRepositoryMock
	messages *mocks.MessageRepositoryMock
	typing   *TypingCoordinator
	d        *Dispatcher
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()
	hub := NewHub()
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	log := slog.Default()
	fanout := NewFanout(hub, log)
	typing := NewTypingCoordinator(hub)
	t.Cleanup(typing.Stop)

	d := NewDispatcher(
		services.NewMessageService(chats, messages, fanout, log),
		services.NewReceiptService(chats, messages, fanout, log),
		services.NewReactionService(chats, messages, fanout, log),
		chats,
		typing,
		hub,
		log,
	)
	return &dispatcherFixture{hub: hub, chats: chats, messages: messages, typing: typing, d: d}
}

func TestDispatchJoinChatVerifiesMembership(t *testing.T) {
	f := newDispatcherFixture(t)
	c := testClient(f.hub, 1)
	f.hub.Register(c)

	f.chats.On("IsParticipant", mock.Anything, int64(5), int64(1)).Return(false, nil).Once()

	f.d.Dispatch(context.Background(), c, models.ClientEvent{Type: models.ClientEventJoinChat, ChatID: 5})

	assert.False(t, f.hub.InChat(c, 5))
	event := drainOne(t, c)
	require.Equal(t, models.EventError, event.Type)
}

func TestDispatchJoinChatMember(t *testing.T) {
	f := newDispatcherFixture(t)
	c := testClient(f.hub, 1)
	f.hub.Register(c)

	f.chats.On("IsParticipant", mock.Anything, int64(5), int64(1)).Return(true, nil).Once()

	f.d.Dispatch(context.Background(), c, models.ClientEvent{Type: models.ClientEventJoinChat, ChatID: 5})

	assert.True(t, f.hub.InChat(c, 5))
	assertEmpty(t, c)
}

func TestDispatchLeaveChatClearsTyping(t *testing.T) {
	f := newDispatcherFixture(t)
	c := testClient(f.hub, 1)
	f.hub.Register(c)

	f.chats.On("IsParticipant", mock.Anything, int64(5), int64(1)).Return(true, nil)
	f.d.Dispatch(context.Background(), c, models.ClientEvent{Type: models.ClientEventJoinChat, ChatID: 5})
	f.d.Dispatch(context.Background(), c, models.ClientEvent{Type: models.ClientEventTyping, ChatID: 5})
	require.True(t, f.typing.Typing(5, 1))

	f.d.Dispatch(context.Background(), c, models.ClientEvent{Type: models.ClientEventLeaveChat, ChatID: 5})

	assert.False(t, f.hub.InChat(c, 5))
	assert.False(t, f.typing.Typing(5, 1))
}

func TestDispatchUnknownEventType(t *testing.T) {
	f := newDispatcherFixture(t)
	c := testClient(f.hub, 1)
	f.hub.Register(c)

	f.d.Dispatch(context.Background(), c, models.ClientEvent{Type: "teleport"})

	event := drainOne(t, c)
	require.Equal(t, models.EventError, event.Type)
}

func TestDispatchErrorGoesOnlyToOrigin(t *testing.T) {
	f := newDispatcherFixture(t)
	origin := testClient(f.hub, 1)
	other := testClient(f.hub, 2)
	f.hub.Register(origin)
	f.hub.Register(other)

	f.chats.On("GetChat", mock.Anything, int64(5)).Return(models.Chat{ID: 5, Active: true}, nil).Once()
	f.chats.On("IsParticipant", mock.Anything, int64(5), int64(1)).Return(false, nil).Once()

	f.d.Dispatch(context.Background(), origin, models.ClientEvent{
		Type:    models.ClientEventSendMessage,
		ChatID:  5,
		Content: "hi",
	})

	event := drainOne(t, origin)
	require.Equal(t, models.EventError, event.Type)
	payload := event.Payload.(models.ErrorPayload)
	assert.Contains(t, payload.Message, "participant")
	assertEmpty(t, other)
}

func TestDispatchInternalErrorIsOpaque(t *testing.T) {
	f := newDispatcherFixture(t)
	c := testClient(f.hub, 1)
	f.hub.Register(c)

	f.chats.On("GetChat", mock.Anything, int64(5)).Return(models.Chat{}, assert.AnError).Once()

	f.d.Dispatch(context.Background(), c, models.ClientEvent{
		Type:    models.ClientEventSendMessage,
		ChatID:  5,
		Content: "hi",
	})

	event := drainOne(t, c)
	payload := event.Payload.(models.ErrorPayload)
	assert.Equal(t, "internal error", payload.Message)
}

func TestDispatchSendMessageDefaultsToText(t *testing.T) {
	f := newDispatcherFixture(t)
	sender := testClient(f.hub, 1)
	recipient := testClient(f.hub, 2)
	f.hub.Register(sender)
	f.hub.Register(recipient)

	chat := models.Chat{ID: 5, Type: models.ChatTypeDirect, Active: true}
	f.chats.On("GetChat", mock.Anything, int64(5)).Return(chat, nil).Once()
	f.chats.On("IsParticipant", mock.Anything, int64(5), int64(1)).Return(true, nil).Once()
	f.messages.On("Create", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.Type == models.MessageTypeText && m.Content == "hi"
	})).Return(models.Message{ID: 9, ChatID: 5, SenderID: 1, Content: "hi"}, nil).Once()
	f.chats.On("SetLastMessage", mock.Anything, int64(5), int64(9)).Return(nil).Once()
	f.chats.On("Participants", mock.Anything, int64(5)).Return([]models.Participant{
		{ChatID: 5, UserID: 1}, {ChatID: 5, UserID: 2},
	}, nil).Once()

	f.d.Dispatch(context.Background(), sender, models.ClientEvent{
		Type:    models.ClientEventSendMessage,
		ChatID:  5,
		Content: "hi",
	})

	event := drainOne(t, recipient)
	require.Equal(t, models.EventNewMessage, event.Type)
	assertEmpty(t, sender)
}
