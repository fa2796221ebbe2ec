package repository

import (
	"context"

	"github.com/sairamarava/CodeTogether/internal/domain"
)

// UserRepository is the durable account store.
type UserRepository interface {
	// FindByID returns the user, or ErrUserNotFound.
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// FindByUsername returns the user, or ErrUserNotFound.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// Save creates the user or updates it by primary key. Returns
	// ErrDuplicateEntry on username/email collisions.
	Save(ctx context.Context, user *domain.User) error
}
