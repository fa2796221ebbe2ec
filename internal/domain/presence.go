package domain

import "time"

// CursorPosition is a caret location inside the currently-open file.
type CursorPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Presence is the ephemeral, per-connection state of a participant inside a
// room: one entry per (room, connection), created at join and removed at
// disconnect. It is mutated only by the presence manager.
type Presence struct {
	UserID       uint           `json:"userId"`
	Username     string         `json:"username"`
	ConnectionID string         `json:"connectionId"`
	Color        string         `json:"color"`
	Cursor       CursorPosition `json:"cursor"`
	LastActivity time.Time      `json:"lastActivity"`
}
