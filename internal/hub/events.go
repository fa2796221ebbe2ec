package hub

import (
	"encoding/json"
	"time"

	"github.com/sairamarava/CodeTogether/internal/domain"
)

// Client→server event kinds. These names are the wire contract.
const (
	EventJoinRoom       = "join-room"
	EventLeaveRoom      = "leave-room"
	EventCodeChange     = "code-change"
	EventCursorPosition = "cursor-position"
	EventUserTyping     = "user-typing"
	EventChatMessage    = "chat-message"
	EventFileCreated    = "file-created"
	EventFileDeleted    = "file-deleted"
	EventFileRenamed    = "file-renamed"
	EventDrawingChange  = "drawing-change"
)

// Server→client event kinds.
const (
	EventUserJoined = "user-joined"
	EventUserLeft   = "user-left"
	EventRoomJoined = "room-joined"
	EventError      = "error"
)

// Debounce windows per event kind. Chat, file-tree and drawing events are
// never coalesced: they are discrete user-visible actions where loss or
// merging would be surprising.
const (
	CodeChangeWindow = 1000 * time.Millisecond
	CursorWindow     = 300 * time.Millisecond
	TypingWindow     = 300 * time.Millisecond
)

// Envelope is the framing of every websocket message in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// encodeEvent frames a payload for the wire. A payload that cannot be
// marshalled is a programming error; callers treat nil as "skip send".
func encodeEvent(kind string, payload interface{}) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	data, err := json.Marshal(Envelope{Type: kind, Payload: raw})
	if err != nil {
		return nil
	}
	return data
}

// Inbound payloads.

type JoinRoomPayload struct {
	RoomID   string `json:"roomId"`
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
}

type LeaveRoomPayload struct {
	RoomID string `json:"roomId"`
}

type CodeChangePayload struct {
	RoomID  string          `json:"roomId"`
	FileID  uint            `json:"fileId"`
	Content string          `json:"content"`
	Changes json.RawMessage `json:"changes,omitempty"`
	Version int             `json:"version"`
}

type CursorPositionPayload struct {
	RoomID string `json:"roomId"`
	FileID uint   `json:"fileId"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

type UserTypingPayload struct {
	RoomID   string `json:"roomId"`
	FileID   uint   `json:"fileId"`
	IsTyping bool   `json:"isTyping"`
}

type ChatMessagePayload struct {
	RoomID  string `json:"roomId"`
	Content string `json:"content"`
	Kind    string `json:"kind,omitempty"`
}

type FileCreatedPayload struct {
	RoomID string          `json:"roomId"`
	File   json.RawMessage `json:"file"`
}

type FileDeletedPayload struct {
	RoomID   string `json:"roomId"`
	FileID   uint   `json:"fileId"`
	FileName string `json:"fileName"`
}

type FileRenamedPayload struct {
	RoomID  string `json:"roomId"`
	FileID  uint   `json:"fileId"`
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

type DrawingChangePayload struct {
	RoomID      string          `json:"roomId"`
	DrawingData json.RawMessage `json:"drawingData"`
}

// Outbound payloads.

type UserJoinedPayload struct {
	UserID       uint   `json:"userId"`
	Username     string `json:"username"`
	Color        string `json:"color"`
	ConnectionID string `json:"connectionId"`
}

type UserLeftPayload struct {
	UserID       uint   `json:"userId"`
	Username     string `json:"username"`
	ConnectionID string `json:"connectionId"`
}

type RoomJoinedPayload struct {
	RoomID      string            `json:"roomId"`
	ActiveUsers []domain.Presence `json:"activeUsers"`
	Message     string            `json:"message"`
}

type CodeChangeBroadcast struct {
	FileID   uint            `json:"fileId"`
	Content  string          `json:"content"`
	Changes  json.RawMessage `json:"changes,omitempty"`
	Version  int             `json:"version"`
	UserID   uint            `json:"userId"`
	Username string          `json:"username"`
}

type CursorPositionBroadcast struct {
	UserID       uint   `json:"userId"`
	ConnectionID string `json:"connectionId"`
	FileID       uint   `json:"fileId"`
	Line         int    `json:"line"`
	Column       int    `json:"column"`
}

type UserTypingBroadcast struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	FileID   uint   `json:"fileId"`
	IsTyping bool   `json:"isTyping"`
}

type ChatMessageBroadcast struct {
	ID        uint      `json:"id"`
	RoomID    string    `json:"roomId"`
	Content   string    `json:"content"`
	Kind      string    `json:"kind"`
	SenderID  uint      `json:"senderId"`
	Sender    string    `json:"sender"`
	CreatedAt time.Time `json:"createdAt"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
