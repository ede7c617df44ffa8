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
)

func TestOnlinePersistsAndBroadcasts(t *testing.T) {
	hub := NewHub()
	users := new(mocks.UserRepositoryMock)
	tracker := NewPresenceTracker(users, hub, slog.Default())

	self := testClient(hub, 1)
	other := testClient(hub, 2)
	hub.Register(self)
	hub.Register(other)

	users.On("SetPresence", mock.Anything, int64(1), true, mock.Anything).Return(nil).Once()

	tracker.Online(context.Background(), 1)

	event := drainOne(t, other)
	require.Equal(t, models.EventUserOnline, event.Type)
	payload := event.Payload.(models.PresencePayload)
	assert.Equal(t, int64(1), payload.UserID)
	assert.Nil(t, payload.LastActive)
	assertEmpty(t, self)
	users.AssertExpectations(t)
}

func TestOfflineCarriesLastActive(t *testing.T) {
	hub := NewHub()
	users := new(mocks.UserRepositoryMock)
	tracker := NewPresenceTracker(users, hub, slog.Default())

	other := testClient(hub, 2)
	hub.Register(other)

	users.On("SetPresence", mock.Anything, int64(1), false, mock.Anything).Return(nil).Once()

	tracker.Offline(context.Background(), 1)

	event := drainOne(t, other)
	require.Equal(t, models.EventUserOffline, event.Type)
	payload := event.Payload.(models.PresencePayload)
	assert.Equal(t, int64(1), payload.UserID)
	require.NotNil(t, payload.LastActive)
	users.AssertExpectations(t)
}

func TestOfflineBroadcastsEvenWhenPersistenceFails(t *testing.T) {
	hub := NewHub()
	users := new(mocks.UserRepositoryMock)
	tracker := NewPresenceTracker(users, hub, slog.Default())

	other := testClient(hub, 2)
	hub.Register(other)

	users.On("SetPresence", mock.Anything, int64(1), false, mock.Anything).Return(assert.AnError).Once()

	tracker.Offline(context.Background(), 1)

	require.Equal(t, models.EventUserOffline, drainOne(t, other).Type)
}
