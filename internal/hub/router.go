package hub

import (
	"github.com/sirupsen/logrus"
)

// Router fans messages out to room members. It never blocks on a slow
// client: a full outbox means that client loses the message and the rest of
// the room is unaffected.
type Router struct {
	registry *Registry
}

func NewRouter(registry *Registry) *Router {
	if registry == nil {
		panic("Registry cannot be nil for Router")
	}
	return &Router{registry: registry}
}

// Authorize reports whether the connection may emit into roomID: it must be
// registered and its joined room must match the claimed one. Callers drop
// unauthorized events silently, matching the treatment of any other stale
// frame from a connection that already moved rooms.
func (r *Router) Authorize(connectionID, roomID string) bool {
	s, ok := r.registry.Lookup(connectionID)
	return ok && s.RoomID != "" && s.RoomID == roomID
}

// Broadcast sends data to every member of roomID except excludeConnID.
// Pass an empty excludeConnID to reach the whole room. Returns the number
// of outboxes the message was handed to.
func (r *Router) Broadcast(roomID string, data []byte, excludeConnID string) int {
	if data == nil {
		return 0
	}
	delivered := 0
	for _, member := range r.registry.InRoom(roomID) {
		if member.ConnectionID == excludeConnID {
			continue
		}
		if r.deliver(member, data) {
			delivered++
		}
	}
	return delivered
}

// SendTo sends data to a single connection, if it is still registered.
func (r *Router) SendTo(connectionID string, data []byte) bool {
	if data == nil {
		return false
	}
	s, ok := r.registry.Lookup(connectionID)
	if !ok {
		return false
	}
	return r.deliver(s, data)
}

func (r *Router) deliver(s Session, data []byte) bool {
	select {
	case s.Outbox <- data:
		return true
	default:
		logrus.WithFields(logrus.Fields{
			"conn_id": s.ConnectionID,
			"room_id": s.RoomID,
		}).Warn("Dropping message for slow client")
		return false
	}
}
