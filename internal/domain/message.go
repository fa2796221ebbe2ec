package domain

import "time"

// Chat message kinds.
const (
	MessageText   = "text"
	MessageSystem = "system"
	MessageCode   = "code"
	MessageFile   = "file"
)

// MaxMessageLength caps chat message content.
const MaxMessageLength = 1000

// Message is a persisted chat entry. ID and CreatedAt are assigned by the
// store and echoed back to the room so every client, including the sender,
// renders the server's view of the message.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    string    `gorm:"index;size:32;not null" json:"roomId"`
	SenderID  uint      `gorm:"index;not null" json:"senderId"`
	Content   string    `gorm:"size:1000;not null" json:"content"`
	Kind      string    `gorm:"size:16;not null;default:text" json:"kind"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

// ValidMessageKind reports whether kind is one of the chat message kinds.
func ValidMessageKind(kind string) bool {
	switch kind {
	case MessageText, MessageSystem, MessageCode, MessageFile:
		return true
	}
	return false
}
