package repository

import (
	"context"

	"github.com/sairamarava/CodeTogether/internal/domain"
)

// Room stat counter names accepted by IncrementStat.
const (
	StatTotalConnections = "total_connections"
	StatTotalMessages    = "total_messages"
	StatTotalFileChanges = "total_file_changes"
)

// RoomRepository is the durable store of rooms and memberships.
type RoomRepository interface {
	// FindByRoomID looks a room up by its public identifier.
	// Returns ErrRoomNotFound if no such room exists.
	FindByRoomID(ctx context.Context, roomID string) (*domain.Room, error)

	// Save creates the room or updates it by primary key.
	Save(ctx context.Context, room *domain.Room) error

	// ListPublic returns all publicly joinable rooms.
	ListPublic(ctx context.Context) ([]domain.Room, error)

	// AddMember records a durable membership. Adding an existing member is
	// not an error.
	AddMember(ctx context.Context, roomPK uint, userID uint, role string) error

	// MemberRole returns the member's role, or ErrNotFound if the user is
	// not a member of the room.
	MemberRole(ctx context.Context, roomPK uint, userID uint) (string, error)

	// IncrementStat bumps one of the room's usage counters. Best-effort:
	// callers treat failures as log-and-continue.
	IncrementStat(ctx context.Context, roomID string, stat string) error
}
