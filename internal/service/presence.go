package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sairamarava/CodeTogether/internal/domain"
	"github.com/sairamarava/CodeTogether/internal/repository"
)

// userColors is the palette a joining participant's color is drawn from.
// The pick is uniform random and uncoordinated: two users in the same room
// may share a color.
var userColors = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
	"#F8C471", "#82E0AA", "#F1948A", "#85C1E9", "#F7DC6F",
}

// PresenceManager owns the join/leave lifecycle of room participants and is
// the only mutator of presence entries.
type PresenceManager struct {
	rooms    repository.RoomRepository
	presence repository.PresenceRepository
}

func NewPresenceManager(rooms repository.RoomRepository, presence repository.PresenceRepository) *PresenceManager {
	if rooms == nil || presence == nil {
		panic("all repositories must be non-nil for PresenceManager")
	}
	return &PresenceManager{rooms: rooms, presence: presence}
}

// Join validates the room, inserts a presence entry and returns it together
// with a snapshot of every active user in the room (the new entry included).
// Fails with ErrRoomNotFound or ErrRoomFull; on ErrRoomFull nothing is
// mutated, the capacity check is atomic against concurrent joins.
func (m *PresenceManager) Join(ctx context.Context, roomID string, userID uint, username, connectionID string) (domain.Presence, []domain.Presence, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"room_id": roomID,
		"user_id": userID,
		"conn_id": connectionID,
	})

	room, err := m.rooms.FindByRoomID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Presence{}, nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Failed to look up room for join")
		return domain.Presence{}, nil, ErrInternalServer
	}

	p := domain.Presence{
		UserID:       userID,
		Username:     username,
		ConnectionID: connectionID,
		Color:        userColors[rand.Intn(len(userColors))],
		Cursor:       domain.CursorPosition{Line: 0, Column: 0},
		LastActivity: time.Now().UTC(),
	}
	if err := m.presence.AddActiveUser(ctx, roomID, p, room.MaxMembers); err != nil {
		if errors.Is(err, repository.ErrCapacityExceeded) {
			return domain.Presence{}, nil, ErrRoomFull
		}
		logCtx.WithError(err).Error("Failed to add active user")
		return domain.Presence{}, nil, ErrInternalServer
	}

	snapshot, err := m.presence.ListActiveUsers(ctx, roomID)
	if err != nil {
		// The join itself succeeded; an empty snapshot beats rejecting it.
		logCtx.WithError(err).Warn("Failed to read active-user snapshot after join")
		snapshot = []domain.Presence{p}
	}
	logCtx.WithField("color", p.Color).Info("User joined room")
	return p, snapshot, nil
}

// Leave removes the connection's presence entry. Idempotent and never
// returns an error: disconnect cleanup must not be blocked.
func (m *PresenceManager) Leave(ctx context.Context, roomID, connectionID string) {
	if err := m.presence.RemoveActiveUser(ctx, roomID, connectionID); err != nil {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "conn_id": connectionID}).
			WithError(err).Warn("Failed to remove active user on leave")
	}
}

// UpdateCursor moves the participant's caret and refreshes last activity.
// A missing entry means the connection raced with its own disconnect; that
// is a no-op, not an error.
func (m *PresenceManager) UpdateCursor(ctx context.Context, roomID, connectionID string, cursor domain.CursorPosition) {
	err := m.presence.UpdateCursor(ctx, roomID, connectionID, cursor, time.Now().UTC())
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "conn_id": connectionID}).
			WithError(err).Warn("Failed to update cursor")
	}
}

// ActiveUsers returns the current presence snapshot for a room.
func (m *PresenceManager) ActiveUsers(ctx context.Context, roomID string) ([]domain.Presence, error) {
	return m.presence.ListActiveUsers(ctx, roomID)
}
