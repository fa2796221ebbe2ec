package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/sairamarava/CodeTogether/internal/domain"
	"github.com/sairamarava/CodeTogether/internal/repository"
)

// GormRoomRepository is the GORM implementation of RoomRepository.
type GormRoomRepository struct {
	db *gorm.DB
}

func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

// Column names accepted by IncrementStat. Anything else is rejected rather
// than interpolated into SQL.
var statColumns = map[string]string{
	repository.StatTotalConnections: "stat_total_connections",
	repository.StatTotalMessages:    "stat_total_messages",
	repository.StatTotalFileChanges: "stat_total_file_changes",
}

func (r *GormRoomRepository) FindByRoomID(ctx context.Context, roomID string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).Where("room_id = ?", roomID).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room %q: %w", roomID, err)
	}
	return &room, nil
}

func (r *GormRoomRepository) Save(ctx context.Context, room *domain.Room) error {
	if err := r.db.WithContext(ctx).Save(room).Error; err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save room %q: %w", room.RoomID, err)
	}
	return nil
}

func (r *GormRoomRepository) ListPublic(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.WithContext(ctx).Where("is_public = ?", true).Order("updated_at DESC").Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list public rooms: %w", err)
	}
	return rooms, nil
}

func (r *GormRoomRepository) AddMember(ctx context.Context, roomPK uint, userID uint, role string) error {
	member := domain.RoomMember{RoomID: roomPK, UserID: userID, Role: role}
	if err := r.db.WithContext(ctx).Create(&member).Error; err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return nil // already a member
		}
		return fmt.Errorf("gorm: add member %d to room %d: %w", userID, roomPK, err)
	}
	return nil
}

func (r *GormRoomRepository) MemberRole(ctx context.Context, roomPK uint, userID uint) (string, error) {
	var member domain.RoomMember
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomPK, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("gorm: member role for user %d in room %d: %w", userID, roomPK, err)
	}
	return member.Role, nil
}

func (r *GormRoomRepository) IncrementStat(ctx context.Context, roomID string, stat string) error {
	column, ok := statColumns[stat]
	if !ok {
		return fmt.Errorf("gorm: unknown room stat %q", stat)
	}
	result := r.db.WithContext(ctx).Model(&domain.Room{}).
		Where("room_id = ?", roomID).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if result.Error != nil {
		return fmt.Errorf("gorm: increment %s for room %q: %w", stat, roomID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrRoomNotFound
	}
	return nil
}
