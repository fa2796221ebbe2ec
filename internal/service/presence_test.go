package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sairamarava/CodeTogether/internal/domain"
	"github.com/sairamarava/CodeTogether/internal/repository"
	"github.com/sairamarava/CodeTogether/internal/repository/mocks"
	"github.com/sairamarava/CodeTogether/internal/service"
)

func TestPresenceManager_Join_Success(t *testing.T) {
	// Arrange
	roomRepo := new(mocks.RoomRepository)
	presenceRepo := new(mocks.PresenceRepository)
	manager := service.NewPresenceManager(roomRepo, presenceRepo)
	ctx := context.Background()

	room := &domain.Room{ID: 1, RoomID: "ABCD1234", MaxMembers: 10}
	roomRepo.On("FindByRoomID", ctx, "ABCD1234").Return(room, nil).Once()

	var inserted domain.Presence
	presenceRepo.On("AddActiveUser", ctx, "ABCD1234", mock.AnythingOfType("domain.Presence"), 10).
		Run(func(args mock.Arguments) {
			inserted = args.Get(2).(domain.Presence)
		}).
		Return(nil).Once()
	presenceRepo.On("ListActiveUsers", ctx, "ABCD1234").
		Return([]domain.Presence{{ConnectionID: "conn-1"}}, nil).Once()

	// Act
	me, snapshot, err := manager.Join(ctx, "ABCD1234", 7, "ana", "conn-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "conn-1", me.ConnectionID)
	assert.Equal(t, uint(7), me.UserID)
	assert.NotEmpty(t, me.Color, "every participant gets a color")
	assert.Equal(t, me.Color, inserted.Color)
	assert.False(t, me.LastActivity.IsZero())
	assert.Len(t, snapshot, 1)
	roomRepo.AssertExpectations(t)
	presenceRepo.AssertExpectations(t)
}

func TestPresenceManager_Join_RoomNotFound(t *testing.T) {
	roomRepo := new(mocks.RoomRepository)
	presenceRepo := new(mocks.PresenceRepository)
	manager := service.NewPresenceManager(roomRepo, presenceRepo)
	ctx := context.Background()

	roomRepo.On("FindByRoomID", ctx, "NOPE").Return(nil, repository.ErrNotFound).Once()

	_, _, err := manager.Join(ctx, "NOPE", 7, "ana", "conn-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrRoomNotFound))
	presenceRepo.AssertNotCalled(t, "AddActiveUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPresenceManager_Join_RoomFull(t *testing.T) {
	roomRepo := new(mocks.RoomRepository)
	presenceRepo := new(mocks.PresenceRepository)
	manager := service.NewPresenceManager(roomRepo, presenceRepo)
	ctx := context.Background()

	room := &domain.Room{ID: 1, RoomID: "TIGHT000", MaxMembers: 2}
	roomRepo.On("FindByRoomID", ctx, "TIGHT000").Return(room, nil).Once()
	presenceRepo.On("AddActiveUser", ctx, "TIGHT000", mock.AnythingOfType("domain.Presence"), 2).
		Return(repository.ErrCapacityExceeded).Once()

	_, _, err := manager.Join(ctx, "TIGHT000", 7, "ana", "conn-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrRoomFull))
	presenceRepo.AssertNotCalled(t, "ListActiveUsers", mock.Anything, mock.Anything)
}

func TestPresenceManager_Join_SnapshotFailureFallsBack(t *testing.T) {
	roomRepo := new(mocks.RoomRepository)
	presenceRepo := new(mocks.PresenceRepository)
	manager := service.NewPresenceManager(roomRepo, presenceRepo)
	ctx := context.Background()

	room := &domain.Room{ID: 1, RoomID: "ABCD1234", MaxMembers: 10}
	roomRepo.On("FindByRoomID", ctx, "ABCD1234").Return(room, nil).Once()
	presenceRepo.On("AddActiveUser", ctx, "ABCD1234", mock.AnythingOfType("domain.Presence"), 10).
		Return(nil).Once()
	presenceRepo.On("ListActiveUsers", ctx, "ABCD1234").
		Return(nil, errors.New("redis down")).Once()

	me, snapshot, err := manager.Join(ctx, "ABCD1234", 7, "ana", "conn-1")

	require.NoError(t, err, "the join itself succeeded")
	require.Len(t, snapshot, 1, "fallback snapshot contains at least the joiner")
	assert.Equal(t, me.ConnectionID, snapshot[0].ConnectionID)
}

func TestPresenceManager_Leave_SwallowsErrors(t *testing.T) {
	roomRepo := new(mocks.RoomRepository)
	presenceRepo := new(mocks.PresenceRepository)
	manager := service.NewPresenceManager(roomRepo, presenceRepo)
	ctx := context.Background()

	presenceRepo.On("RemoveActiveUser", ctx, "ABCD1234", "conn-1").
		Return(errors.New("redis down")).Once()

	// Leave has no error return: disconnect cleanup must not be blocked.
	manager.Leave(ctx, "ABCD1234", "conn-1")
	presenceRepo.AssertExpectations(t)
}

func TestPresenceManager_UpdateCursor_MissingEntryIsNoOp(t *testing.T) {
	roomRepo := new(mocks.RoomRepository)
	presenceRepo := new(mocks.PresenceRepository)
	manager := service.NewPresenceManager(roomRepo, presenceRepo)
	ctx := context.Background()

	presenceRepo.On("UpdateCursor", ctx, "ABCD1234", "conn-1",
		domain.CursorPosition{Line: 3, Column: 9}, mock.AnythingOfType("time.Time")).
		Return(repository.ErrNotFound).Once()

	manager.UpdateCursor(ctx, "ABCD1234", "conn-1", domain.CursorPosition{Line: 3, Column: 9})
	presenceRepo.AssertExpectations(t)
}
