package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sairamarava/CodeTogether/internal/domain"
	"github.com/sairamarava/CodeTogether/internal/repository"
)

// RoomService handles durable room management: creation, lookup, membership.
type RoomService struct {
	rooms repository.RoomRepository
}

func NewRoomService(rooms repository.RoomRepository) *RoomService {
	if rooms == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	return &RoomService{rooms: rooms}
}

// generateRoomID produces an 8-character uppercase identifier.
func generateRoomID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:8])
}

// CreateRoom creates a room owned by ownerID, with the owner as its first
// member. maxMembers outside 1..50 falls back to the default of 10.
func (s *RoomService) CreateRoom(ctx context.Context, ownerID uint, name, description string, maxMembers int, isPublic bool) (*domain.Room, error) {
	logCtx := logrus.WithField("user_id", ownerID)
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, ErrValidation
	}
	if maxMembers < 1 || maxMembers > domain.MaxMembersLimit {
		maxMembers = domain.DefaultMaxMembers
	}

	room := &domain.Room{
		RoomID:      generateRoomID(),
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		IsPublic:    isPublic,
		MaxMembers:  maxMembers,
		Settings: domain.RoomSettings{
			AllowFileUpload:    true,
			AllowCodeExecution: true,
			AllowChat:          true,
			AllowDrawing:       true,
		},
	}
	if err := s.rooms.Save(ctx, room); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// Collided with an existing public id; one retry with a fresh id.
			room.RoomID = generateRoomID()
			err = s.rooms.Save(ctx, room)
		}
		if err != nil {
			logCtx.WithError(err).Error("Failed to create room")
			return nil, ErrInternalServer
		}
	}
	if err := s.rooms.AddMember(ctx, room.ID, ownerID, domain.RoleOwner); err != nil {
		logCtx.WithError(err).Error("Failed to add owner membership")
		return nil, ErrInternalServer
	}
	logCtx.WithField("room_id", room.RoomID).Info("Room created")
	return room, nil
}

// GetRoom returns a room by its public identifier.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	room, err := s.rooms.FindByRoomID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, ErrInternalServer
	}
	return room, nil
}

// ListPublicRooms returns all publicly joinable rooms.
func (s *RoomService) ListPublicRooms(ctx context.Context) ([]domain.Room, error) {
	rooms, err := s.rooms.ListPublic(ctx)
	if err != nil {
		return nil, ErrInternalServer
	}
	return rooms, nil
}

// JoinRoom records a durable editor membership for the user.
func (s *RoomService) JoinRoom(ctx context.Context, roomID string, userID uint) (*domain.Room, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := s.rooms.AddMember(ctx, room.ID, userID, domain.RoleEditor); err != nil {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).
			WithError(err).Error("Failed to add member")
		return nil, ErrInternalServer
	}
	return room, nil
}

// MemberRole returns the user's role in the room, or ErrUnauthorized if the
// user is not a member.
func (s *RoomService) MemberRole(ctx context.Context, room *domain.Room, userID uint) (string, error) {
	role, err := s.rooms.MemberRole(ctx, room.ID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUnauthorized
		}
		return "", ErrInternalServer
	}
	return role, nil
}
