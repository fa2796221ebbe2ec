package hub_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sairamarava/CodeTogether/internal/hub"
)

func TestRouter_BroadcastExcludesSender(t *testing.T) {
	r := hub.NewRegistry()
	router := hub.NewRouter(r)
	sender := newSession("sender")
	peer := newSession("peer")
	r.Register(sender)
	r.Register(peer)
	r.SetRoom("sender", "ROOM1", 1, "s", "")
	r.SetRoom("peer", "ROOM1", 2, "p", "")

	delivered := router.Broadcast("ROOM1", []byte(`{"type":"x"}`), "sender")

	assert.Equal(t, 1, delivered)
	assert.Len(t, peer.Outbox, 1)
	assert.Empty(t, sender.Outbox, "sender must not receive its own broadcast")
}

func TestRouter_BroadcastWholeRoom(t *testing.T) {
	r := hub.NewRegistry()
	router := hub.NewRouter(r)
	a, b := newSession("a"), newSession("b")
	r.Register(a)
	r.Register(b)
	r.SetRoom("a", "ROOM1", 1, "a", "")
	r.SetRoom("b", "ROOM1", 2, "b", "")

	delivered := router.Broadcast("ROOM1", []byte("msg"), "")

	assert.Equal(t, 2, delivered)
	assert.Len(t, a.Outbox, 1)
	assert.Len(t, b.Outbox, 1)
}

func TestRouter_RoomIsolation(t *testing.T) {
	r := hub.NewRegistry()
	router := hub.NewRouter(r)
	inRoom := newSession("in")
	elsewhere := newSession("out")
	r.Register(inRoom)
	r.Register(elsewhere)
	r.SetRoom("in", "ROOM1", 1, "in", "")
	r.SetRoom("out", "ROOM2", 2, "out", "")

	router.Broadcast("ROOM1", []byte("msg"), "")

	assert.Len(t, inRoom.Outbox, 1)
	assert.Empty(t, elsewhere.Outbox, "events never cross room boundaries")
}

func TestRouter_SlowClientDropsMessage(t *testing.T) {
	r := hub.NewRegistry()
	router := hub.NewRouter(r)
	slow := &hub.Session{ConnectionID: "slow", Outbox: make(chan []byte, 1)}
	r.Register(slow)
	r.SetRoom("slow", "ROOM1", 1, "slow", "")
	slow.Outbox <- []byte("fills the buffer")

	delivered := router.Broadcast("ROOM1", []byte("dropped"), "")

	assert.Equal(t, 0, delivered, "a full outbox drops instead of blocking")
}

func TestRouter_Authorize(t *testing.T) {
	r := hub.NewRegistry()
	router := hub.NewRouter(r)
	r.Register(newSession("c1"))

	assert.False(t, router.Authorize("c1", "ROOM1"), "roomless connection may not emit")

	r.SetRoom("c1", "ROOM1", 1, "ana", "")
	assert.True(t, router.Authorize("c1", "ROOM1"))
	assert.False(t, router.Authorize("c1", "ROOM2"), "claimed room must match joined room")
	assert.False(t, router.Authorize("ghost", "ROOM1"))
}

func TestRouter_SendTo(t *testing.T) {
	r := hub.NewRegistry()
	router := hub.NewRouter(r)
	s := newSession("c1")
	r.Register(s)

	assert.True(t, router.SendTo("c1", []byte("hello")))
	assert.Len(t, s.Outbox, 1)
	assert.False(t, router.SendTo("ghost", []byte("hello")))
}
