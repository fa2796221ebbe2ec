package hub

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sairamarava/CodeTogether/internal/domain"
	"github.com/sairamarava/CodeTogether/internal/repository"
	"github.com/sairamarava/CodeTogether/internal/service"
)

// fireTimeout bounds the work done when a debounce window elapses; the
// originating request context is long gone by then.
const fireTimeout = 5 * time.Second

// Presence is the slice of the presence manager the multiplexer needs.
type Presence interface {
	Join(ctx context.Context, roomID string, userID uint, username, connectionID string) (domain.Presence, []domain.Presence, error)
	Leave(ctx context.Context, roomID, connectionID string)
	UpdateCursor(ctx context.Context, roomID, connectionID string, cursor domain.CursorPosition)
}

// FileStore persists debounced code edits, last write wins.
type FileStore interface {
	SaveContent(ctx context.Context, fileID uint, content string, modifiedBy uint) error
}

// ChatStore persists chat messages before they are fanned out.
type ChatStore interface {
	Append(ctx context.Context, roomID string, senderID uint, content, kind string) (*domain.Message, error)
}

// StatReporter records room counters off the hot path. Implementations must
// not block; the asynq-backed reporter enqueues and returns.
type StatReporter interface {
	RoomStat(roomID, stat string)
}

// NopStatReporter discards stats; used when no worker queue is configured.
type NopStatReporter struct{}

func (NopStatReporter) RoomStat(string, string) {}

// Multiplexer routes every inbound socket event: it validates the room
// claim, coalesces high-frequency events, fans out to room members and runs
// persistence side effects. One instance serves all rooms.
type Multiplexer struct {
	registry  *Registry
	router    *Router
	coalescer *Coalescer
	presence  Presence
	files     FileStore
	chat      ChatStore
	stats     StatReporter
}

func NewMultiplexer(registry *Registry, presence Presence, files FileStore, chat ChatStore, stats StatReporter) *Multiplexer {
	if registry == nil || presence == nil || files == nil || chat == nil {
		panic("all dependencies must be non-nil for Multiplexer")
	}
	if stats == nil {
		stats = NopStatReporter{}
	}
	return &Multiplexer{
		registry:  registry,
		router:    NewRouter(registry),
		coalescer: NewCoalescer(),
		presence:  presence,
		files:     files,
		chat:      chat,
		stats:     stats,
	}
}

// Registry exposes the connection registry for transport wiring.
func (m *Multiplexer) Registry() *Registry { return m.registry }

// Router exposes the fan-out router, mainly for tests and diagnostics.
func (m *Multiplexer) Router() *Router { return m.router }

// HandleEvent dispatches one inbound frame from a connection.
func (m *Multiplexer) HandleEvent(ctx context.Context, connectionID string, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		m.sendError(connectionID, "malformed event")
		return
	}

	switch env.Type {
	case EventJoinRoom:
		m.handleJoin(ctx, connectionID, env.Payload)
	case EventLeaveRoom:
		m.handleLeave(ctx, connectionID)
	case EventCodeChange:
		m.handleCodeChange(connectionID, env.Payload)
	case EventCursorPosition:
		m.handleCursorPosition(connectionID, env.Payload)
	case EventUserTyping:
		m.handleUserTyping(connectionID, env.Payload)
	case EventChatMessage:
		m.handleChatMessage(ctx, connectionID, env.Payload)
	case EventFileCreated, EventFileDeleted, EventFileRenamed:
		m.handleFileTree(connectionID, env.Type, env.Payload)
	case EventDrawingChange:
		m.handleDrawing(connectionID, env.Payload)
	default:
		logrus.WithFields(logrus.Fields{"conn_id": connectionID, "type": env.Type}).
			Warn("Dropping unknown event type")
	}
}

// handleJoin moves the connection into a room. A connection already in a
// room leaves it implicitly, but only after the new join is admitted: on
// RoomNotFound or RoomFull the client gets an error event and keeps
// whatever room it had.
func (m *Multiplexer) handleJoin(ctx context.Context, connectionID string, payload json.RawMessage) {
	var p JoinRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.RoomID == "" || p.Username == "" {
		m.sendError(connectionID, "invalid join-room payload")
		return
	}

	me, joined, err := m.presence.Join(ctx, p.RoomID, p.UserID, p.Username, connectionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			m.sendError(connectionID, "room not found")
		case errors.Is(err, service.ErrRoomFull):
			m.sendError(connectionID, "room is full")
		default:
			m.sendError(connectionID, "failed to join room")
		}
		return
	}

	previous, ok := m.registry.SetRoom(connectionID, p.RoomID, p.UserID, p.Username, me.Color)
	if !ok {
		// Connection vanished between upgrade and join; roll the entry back.
		m.presence.Leave(ctx, p.RoomID, connectionID)
		return
	}
	if previous != "" && previous != p.RoomID {
		m.coalescer.CancelAll(connectionID)
		m.presence.Leave(ctx, previous, connectionID)
		m.router.Broadcast(previous, encodeEvent(EventUserLeft, UserLeftPayload{
			UserID:       p.UserID,
			Username:     p.Username,
			ConnectionID: connectionID,
		}), connectionID)
	}

	m.router.SendTo(connectionID, encodeEvent(EventRoomJoined, RoomJoinedPayload{
		RoomID:      p.RoomID,
		ActiveUsers: joined,
		Message:     "Successfully joined room",
	}))
	m.router.Broadcast(p.RoomID, encodeEvent(EventUserJoined, UserJoinedPayload{
		UserID:       p.UserID,
		Username:     p.Username,
		Color:        me.Color,
		ConnectionID: connectionID,
	}), connectionID)
	m.stats.RoomStat(p.RoomID, repository.StatTotalConnections)
}

// handleLeave runs explicit leave-room. The connection stays open and may
// join another room afterwards.
func (m *Multiplexer) handleLeave(ctx context.Context, connectionID string) {
	s, ok := m.registry.Lookup(connectionID)
	if !ok || s.RoomID == "" {
		return
	}
	m.coalescer.CancelAll(connectionID)
	roomID := m.registry.ClearRoom(connectionID)
	if roomID == "" {
		return
	}
	m.presence.Leave(ctx, roomID, connectionID)
	m.router.Broadcast(roomID, encodeEvent(EventUserLeft, UserLeftPayload{
		UserID:       s.UserID,
		Username:     s.Username,
		ConnectionID: connectionID,
	}), connectionID)
}

// handleCodeChange debounces edits per connection: only the last edit in a
// quiet window is broadcast and persisted. Broadcast comes first; the save
// is best effort and a failure never interrupts the room.
func (m *Multiplexer) handleCodeChange(connectionID string, payload json.RawMessage) {
	var p CodeChangePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		m.sendError(connectionID, "invalid code-change payload")
		return
	}
	if !m.router.Authorize(connectionID, p.RoomID) {
		return
	}
	m.coalescer.Schedule(connectionID, EventCodeChange, CodeChangeWindow, func() {
		s, ok := m.registry.Lookup(connectionID)
		if !ok || s.RoomID != p.RoomID {
			return
		}
		m.router.Broadcast(p.RoomID, encodeEvent(EventCodeChange, CodeChangeBroadcast{
			FileID:   p.FileID,
			Content:  p.Content,
			Changes:  p.Changes,
			Version:  p.Version,
			UserID:   s.UserID,
			Username: s.Username,
		}), connectionID)

		ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
		defer cancel()
		if err := m.files.SaveContent(ctx, p.FileID, p.Content, s.UserID); err != nil {
			logrus.WithFields(logrus.Fields{
				"room_id": p.RoomID,
				"file_id": p.FileID,
				"conn_id": connectionID,
			}).WithError(err).Warn("Best-effort save of coalesced edit failed")
		}
	})
}

// handleCursorPosition debounces caret moves; the trailing position is
// written to presence and broadcast.
func (m *Multiplexer) handleCursorPosition(connectionID string, payload json.RawMessage) {
	var p CursorPositionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}
	if !m.router.Authorize(connectionID, p.RoomID) {
		return
	}
	m.coalescer.Schedule(connectionID, EventCursorPosition, CursorWindow, func() {
		s, ok := m.registry.Lookup(connectionID)
		if !ok || s.RoomID != p.RoomID {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
		defer cancel()
		m.presence.UpdateCursor(ctx, p.RoomID, connectionID, domain.CursorPosition{Line: p.Line, Column: p.Column})
		m.router.Broadcast(p.RoomID, encodeEvent(EventCursorPosition, CursorPositionBroadcast{
			UserID:       s.UserID,
			ConnectionID: connectionID,
			FileID:       p.FileID,
			Line:         p.Line,
			Column:       p.Column,
		}), connectionID)
	})
}

// handleUserTyping debounces the typing indicator.
func (m *Multiplexer) handleUserTyping(connectionID string, payload json.RawMessage) {
	var p UserTypingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}
	if !m.router.Authorize(connectionID, p.RoomID) {
		return
	}
	m.coalescer.Schedule(connectionID, EventUserTyping, TypingWindow, func() {
		s, ok := m.registry.Lookup(connectionID)
		if !ok || s.RoomID != p.RoomID {
			return
		}
		m.router.Broadcast(p.RoomID, encodeEvent(EventUserTyping, UserTypingBroadcast{
			UserID:   s.UserID,
			Username: s.Username,
			FileID:   p.FileID,
			IsTyping: p.IsTyping,
		}), connectionID)
	})
}

// handleChatMessage persists and broadcasts immediately, never coalesced.
// Chat goes to the whole room, sender included, so every client renders the
// same ordered stream. If the store is down the message is broadcast
// ephemeral rather than lost.
func (m *Multiplexer) handleChatMessage(ctx context.Context, connectionID string, payload json.RawMessage) {
	var p ChatMessagePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		m.sendError(connectionID, "invalid chat-message payload")
		return
	}
	if !m.router.Authorize(connectionID, p.RoomID) {
		return
	}
	s, ok := m.registry.Lookup(connectionID)
	if !ok {
		return
	}

	broadcast := ChatMessageBroadcast{
		RoomID:   p.RoomID,
		Content:  p.Content,
		Kind:     p.Kind,
		SenderID: s.UserID,
		Sender:   s.Username,
	}
	msg, err := m.chat.Append(ctx, p.RoomID, s.UserID, p.Content, p.Kind)
	switch {
	case err == nil:
		broadcast.ID = msg.ID
		broadcast.Content = msg.Content
		broadcast.Kind = msg.Kind
		broadcast.CreatedAt = msg.CreatedAt
	case errors.Is(err, service.ErrValidation):
		m.sendError(connectionID, "invalid chat message")
		return
	default:
		broadcast.CreatedAt = time.Now().UTC()
		if broadcast.Kind == "" {
			broadcast.Kind = domain.MessageText
		}
		logrus.WithField("room_id", p.RoomID).WithError(err).
			Warn("Broadcasting chat message without persistence")
	}

	m.router.Broadcast(p.RoomID, encodeEvent(EventChatMessage, broadcast), "")
	m.stats.RoomStat(p.RoomID, repository.StatTotalMessages)
}

// handleFileTree relays file mutations to the rest of the room. The durable
// mutation itself happens over the HTTP API; the socket only announces it.
func (m *Multiplexer) handleFileTree(connectionID, kind string, payload json.RawMessage) {
	roomID, ok := m.authorizedRoom(connectionID, payload)
	if !ok {
		return
	}
	m.router.Broadcast(roomID, encodeEvent(kind, payload), connectionID)
	m.stats.RoomStat(roomID, repository.StatTotalFileChanges)
}

// handleDrawing relays whiteboard strokes to the rest of the room.
func (m *Multiplexer) handleDrawing(connectionID string, payload json.RawMessage) {
	roomID, ok := m.authorizedRoom(connectionID, payload)
	if !ok {
		return
	}
	m.router.Broadcast(roomID, encodeEvent(EventDrawingChange, payload), connectionID)
}

// authorizedRoom extracts the room claim from a relay payload and checks it
// against the registry. Unauthorized relays are dropped silently.
func (m *Multiplexer) authorizedRoom(connectionID string, payload json.RawMessage) (string, bool) {
	var claim struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(payload, &claim); err != nil || claim.RoomID == "" {
		return "", false
	}
	if !m.router.Authorize(connectionID, claim.RoomID) {
		return "", false
	}
	return claim.RoomID, true
}

// Connect registers a fresh connection with the multiplexer.
func (m *Multiplexer) Connect(s *Session) {
	m.registry.Register(s)
	logrus.WithFields(logrus.Fields{"conn_id": s.ConnectionID, "total": m.registry.Count()}).
		Info("Connection registered")
}

// Disconnect tears a connection down: pending coalesced events are
// cancelled first so no timer fires for a dead connection, then presence is
// released and the room is told. Every step is best effort; cleanup always
// runs to completion.
func (m *Multiplexer) Disconnect(ctx context.Context, connectionID string) {
	m.coalescer.CancelAll(connectionID)
	s, ok := m.registry.Remove(connectionID)
	if !ok {
		return
	}
	if s.RoomID != "" {
		m.presence.Leave(ctx, s.RoomID, connectionID)
		m.router.Broadcast(s.RoomID, encodeEvent(EventUserLeft, UserLeftPayload{
			UserID:       s.UserID,
			Username:     s.Username,
			ConnectionID: connectionID,
		}), connectionID)
	}
	logrus.WithFields(logrus.Fields{"conn_id": connectionID, "total": m.registry.Count()}).
		Info("Connection closed")
}

func (m *Multiplexer) sendError(connectionID, message string) {
	m.router.SendTo(connectionID, encodeEvent(EventError, ErrorPayload{Message: message}))
}
