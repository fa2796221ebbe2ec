package repository

import (
	"context"

	"github.com/sairamarava/CodeTogether/internal/domain"
)

// MessageRepository is the durable chat store.
type MessageRepository interface {
	// Append persists the message and fills in its server-assigned ID and
	// CreatedAt timestamp.
	Append(ctx context.Context, msg *domain.Message) error

	// ListRecent returns up to limit most recent messages for a room,
	// oldest first.
	ListRecent(ctx context.Context, roomID string, limit int) ([]domain.Message, error)
}
