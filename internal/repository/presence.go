package repository

import (
	"context"
	"time"

	"github.com/sairamarava/CodeTogether/internal/domain"
)

// PresenceRepository is the ephemeral store of per-room active users,
// typically backed by Redis. Entries are keyed by (roomID, connectionID).
type PresenceRepository interface {
	// AddActiveUser inserts the presence entry if the room's active-user
	// count is below maxMembers. The capacity check and insert are atomic
	// with respect to concurrent joins. Returns ErrCapacityExceeded when
	// the room is full, in which case nothing is mutated.
	AddActiveUser(ctx context.Context, roomID string, p domain.Presence, maxMembers int) error

	// RemoveActiveUser deletes the entry for the connection. Removing a
	// missing entry is not an error.
	RemoveActiveUser(ctx context.Context, roomID, connectionID string) error

	// UpdateCursor updates the entry's cursor and last-activity time.
	// Returns ErrNotFound if the entry no longer exists (the connection
	// raced with its own disconnect).
	UpdateCursor(ctx context.Context, roomID, connectionID string, cursor domain.CursorPosition, at time.Time) error

	// ListActiveUsers returns a snapshot of the room's presence entries.
	ListActiveUsers(ctx context.Context, roomID string) ([]domain.Presence, error)

	// SweepStale removes entries whose last activity is older than
	// maxIdle, across all rooms, and returns how many were removed.
	// Defensive cleanup for connections that died without a disconnect.
	SweepStale(ctx context.Context, maxIdle time.Duration) (int, error)
}
