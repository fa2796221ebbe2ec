package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sairamarava/CodeTogether/internal/domain"
	"github.com/sairamarava/CodeTogether/internal/repository"
)

// ChatService persists chat messages and hands back the server-assigned
// identity used in broadcasts.
type ChatService struct {
	messages repository.MessageRepository
}

func NewChatService(messages repository.MessageRepository) *ChatService {
	if messages == nil {
		panic("MessageRepository cannot be nil for ChatService")
	}
	return &ChatService{messages: messages}
}

// Append validates and stores a message. The returned message carries the
// store-assigned ID and CreatedAt.
func (s *ChatService) Append(ctx context.Context, roomID string, senderID uint, content, kind string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > domain.MaxMessageLength {
		return nil, ErrValidation
	}
	if kind == "" {
		kind = domain.MessageText
	}
	if !domain.ValidMessageKind(kind) {
		return nil, ErrValidation
	}
	msg := &domain.Message{
		RoomID:   roomID,
		SenderID: senderID,
		Content:  content,
		Kind:     kind,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "sender_id": senderID}).
			WithError(err).Error("Failed to persist chat message")
		return nil, ErrInternalServer
	}
	return msg, nil
}

// History returns up to limit recent messages, oldest first.
func (s *ChatService) History(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	msgs, err := s.messages.ListRecent(ctx, roomID, limit)
	if err != nil {
		return nil, ErrInternalServer
	}
	return msgs, nil
}
