package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sairamarava/CodeTogether/internal/domain"
	"github.com/sairamarava/CodeTogether/internal/repository"
)

// GormFileRepository is the GORM implementation of FileRepository.
type GormFileRepository struct {
	db *gorm.DB
}

func NewGormFileRepository(db *gorm.DB) *GormFileRepository {
	if db == nil {
		panic("database connection cannot be nil for GormFileRepository")
	}
	return &GormFileRepository{db: db}
}

func (r *GormFileRepository) FindByID(ctx context.Context, id uint) (*domain.File, error) {
	var file domain.File
	err := r.db.WithContext(ctx).First(&file, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrFileNotFound
		}
		return nil, fmt.Errorf("gorm: find file %d: %w", id, err)
	}
	return &file, nil
}

func (r *GormFileRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.File, error) {
	var files []domain.File
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("is_folder DESC, path ASC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list files for room %q: %w", roomID, err)
	}
	return files, nil
}

func (r *GormFileRepository) Save(ctx context.Context, file *domain.File) error {
	if err := r.db.WithContext(ctx).Save(file).Error; err != nil {
		return fmt.Errorf("gorm: save file %q in room %q: %w", file.Path, file.RoomID, err)
	}
	return nil
}

// SaveContent overwrites unconditionally: the editor is last-write-wins and
// the caller saves on every debounce fire without a dirty check.
func (r *GormFileRepository) SaveContent(ctx context.Context, fileID uint, content string, modifiedBy uint) error {
	result := r.db.WithContext(ctx).Model(&domain.File{}).
		Where("id = ?", fileID).
		Updates(map[string]interface{}{
			"content":          content,
			"size":             len(content),
			"last_modified_by": modifiedBy,
		})
	if result.Error != nil {
		return fmt.Errorf("gorm: save content of file %d: %w", fileID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrFileNotFound
	}
	return nil
}

func (r *GormFileRepository) Rename(ctx context.Context, fileID uint, newName, newPath string) error {
	result := r.db.WithContext(ctx).Model(&domain.File{}).
		Where("id = ?", fileID).
		Updates(map[string]interface{}{"name": newName, "path": newPath})
	if result.Error != nil {
		return fmt.Errorf("gorm: rename file %d: %w", fileID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrFileNotFound
	}
	return nil
}

func (r *GormFileRepository) Delete(ctx context.Context, fileID uint) error {
	if err := r.db.WithContext(ctx).Delete(&domain.File{}, fileID).Error; err != nil {
		return fmt.Errorf("gorm: delete file %d: %w", fileID, err)
	}
	return nil
}
