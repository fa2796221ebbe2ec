package hub

import (
	"sync"
	"time"
)

// Session is the registry's view of one live connection. RoomID is empty
// until the connection has joined a room.
type Session struct {
	ConnectionID string
	UserID       uint
	Username     string
	Color        string
	RoomID       string
	JoinedAt     time.Time
	// Outbox carries framed messages to the connection's write pump. Sends
	// are non-blocking: a full outbox drops the message for that connection.
	Outbox chan []byte
}

// Registry tracks every live connection and the room each one claims.
// It is the single source of truth for "who is connected where"; all other
// components answer room questions through it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	rooms    map[string]map[string]struct{} // roomID -> set of connection ids
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		rooms:    make(map[string]map[string]struct{}),
	}
}

// Register adds a new connection. The session starts roomless.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ConnectionID] = s
	if s.RoomID != "" {
		r.index(s.RoomID, s.ConnectionID)
	}
}

// Lookup returns a copy of the session, so callers never observe a
// concurrent room move half-applied. ok is false for unknown connections.
func (r *Registry) Lookup(connectionID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[connectionID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// SetRoom moves the connection into roomID, updating the room index. The
// previous room id is returned so the caller can run leave-side effects.
// ok is false if the connection is not registered.
func (r *Registry) SetRoom(connectionID, roomID string, userID uint, username, color string) (previous string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, exists := r.sessions[connectionID]
	if !exists {
		return "", false
	}
	previous = s.RoomID
	if previous != "" {
		r.unindex(previous, connectionID)
	}
	s.RoomID = roomID
	s.UserID = userID
	s.Username = username
	s.Color = color
	s.JoinedAt = time.Now().UTC()
	if roomID != "" {
		r.index(roomID, connectionID)
	}
	return previous, true
}

// ClearRoom detaches the connection from its room without removing it.
// Returns the room it was in, empty if it had none.
func (r *Registry) ClearRoom(connectionID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, exists := r.sessions[connectionID]
	if !exists || s.RoomID == "" {
		return ""
	}
	roomID := s.RoomID
	r.unindex(roomID, connectionID)
	s.RoomID = ""
	return roomID
}

// Remove deletes the connection and its room index entry. Idempotent:
// removing an unknown connection is a no-op, so racing cleanup paths
// (read-pump exit vs. explicit close) are safe.
func (r *Registry) Remove(connectionID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, exists := r.sessions[connectionID]
	if !exists {
		return Session{}, false
	}
	if s.RoomID != "" {
		r.unindex(s.RoomID, connectionID)
	}
	delete(r.sessions, connectionID)
	return *s, true
}

// InRoom returns copies of every session currently claiming roomID.
func (r *Registry) InRoom(roomID string) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]Session, 0, len(conns))
	for id := range conns {
		if s, exists := r.sessions[id]; exists {
			out = append(out, *s)
		}
	}
	return out
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) index(roomID, connectionID string) {
	set, ok := r.rooms[roomID]
	if !ok {
		set = make(map[string]struct{})
		r.rooms[roomID] = set
	}
	set[connectionID] = struct{}{}
}

func (r *Registry) unindex(roomID, connectionID string) {
	if set, ok := r.rooms[roomID]; ok {
		delete(set, connectionID)
		if len(set) == 0 {
			delete(r.rooms, roomID)
		}
	}
}
