package repository

import (
	"context"

	"github.com/sairamarava/CodeTogether/internal/domain"
)

// FileRepository is the durable store of room file trees.
type FileRepository interface {
	// FindByID returns the file, or ErrFileNotFound.
	FindByID(ctx context.Context, id uint) (*domain.File, error)

	// ListByRoom returns every file and folder belonging to a room.
	ListByRoom(ctx context.Context, roomID string) ([]domain.File, error)

	// Save creates the file or updates it by primary key.
	Save(ctx context.Context, file *domain.File) error

	// SaveContent replaces a file's content (last write wins) and records
	// who modified it. Called on every debounced code-change fire.
	SaveContent(ctx context.Context, fileID uint, content string, modifiedBy uint) error

	// Rename updates a file's name and path.
	Rename(ctx context.Context, fileID uint, newName, newPath string) error

	// Delete removes the file. Deleting a missing file is not an error.
	Delete(ctx context.Context, fileID uint) error
}
