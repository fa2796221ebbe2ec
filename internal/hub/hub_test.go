package hub_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sairamarava/CodeTogether/internal/domain"
	"github.com/sairamarava/CodeTogether/internal/hub"
	"github.com/sairamarava/CodeTogether/internal/service"
)

// fakePresence is an in-memory stand-in for the presence manager.
type fakePresence struct {
	mu       sync.Mutex
	capacity map[string]int // roomID -> max members; absent room = not found
	members  map[string]map[string]domain.Presence
	leaves   []string // "roomID/connID" in call order
}

func newFakePresence(capacity map[string]int) *fakePresence {
	return &fakePresence{
		capacity: capacity,
		members:  make(map[string]map[string]domain.Presence),
	}
}

func (f *fakePresence) Join(_ context.Context, roomID string, userID uint, username, connectionID string) (domain.Presence, []domain.Presence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max, ok := f.capacity[roomID]
	if !ok {
		return domain.Presence{}, nil, service.ErrRoomNotFound
	}
	if len(f.members[roomID]) >= max {
		return domain.Presence{}, nil, service.ErrRoomFull
	}
	p := domain.Presence{
		UserID:       userID,
		Username:     username,
		ConnectionID: connectionID,
		Color:        "#FF6B6B",
		LastActivity: time.Now().UTC(),
	}
	if f.members[roomID] == nil {
		f.members[roomID] = make(map[string]domain.Presence)
	}
	f.members[roomID][connectionID] = p
	snapshot := make([]domain.Presence, 0, len(f.members[roomID]))
	for _, m := range f.members[roomID] {
		snapshot = append(snapshot, m)
	}
	return p, snapshot, nil
}

func (f *fakePresence) Leave(_ context.Context, roomID, connectionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members[roomID], connectionID)
	f.leaves = append(f.leaves, roomID+"/"+connectionID)
}

func (f *fakePresence) UpdateCursor(_ context.Context, roomID, connectionID string, cursor domain.CursorPosition) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.members[roomID][connectionID]; ok {
		p.Cursor = cursor
		f.members[roomID][connectionID] = p
	}
}

func (f *fakePresence) leaveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.leaves)
}

type savedContent struct {
	fileID  uint
	content string
	userID  uint
}

type fakeFiles struct {
	mu    sync.Mutex
	saves []savedContent
	fail  bool
}

func (f *fakeFiles) SaveContent(_ context.Context, fileID uint, content string, modifiedBy uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return service.ErrInternalServer
	}
	f.saves = append(f.saves, savedContent{fileID, content, modifiedBy})
	return nil
}

func (f *fakeFiles) saved() []savedContent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]savedContent(nil), f.saves...)
}

type fakeChat struct {
	mu     sync.Mutex
	nextID uint
	fail   bool
}

func (f *fakeChat) Append(_ context.Context, roomID string, senderID uint, content, kind string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if content == "" {
		return nil, service.ErrValidation
	}
	if f.fail {
		return nil, service.ErrInternalServer
	}
	f.nextID++
	if kind == "" {
		kind = domain.MessageText
	}
	return &domain.Message{
		ID:        f.nextID,
		RoomID:    roomID,
		SenderID:  senderID,
		Content:   content,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type fakeStats struct {
	mu     sync.Mutex
	counts map[string]int
}

func (f *fakeStats) RoomStat(roomID, stat string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.counts[roomID+"|"+stat]++
}

type fixture struct {
	mux      *hub.Multiplexer
	presence *fakePresence
	files    *fakeFiles
	chat     *fakeChat
	stats    *fakeStats
}

func newFixture(capacity map[string]int) *fixture {
	presence := newFakePresence(capacity)
	files := &fakeFiles{}
	chat := &fakeChat{}
	stats := &fakeStats{}
	mux := hub.NewMultiplexer(hub.NewRegistry(), presence, files, chat, stats)
	return &fixture{mux: mux, presence: presence, files: files, chat: chat, stats: stats}
}

func (f *fixture) connect(connID string) *hub.Session {
	s := &hub.Session{ConnectionID: connID, Outbox: make(chan []byte, 64)}
	f.mux.Connect(s)
	return s
}

func (f *fixture) send(t *testing.T, connID, kind string, payload interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	frame, err := json.Marshal(hub.Envelope{Type: kind, Payload: raw})
	require.NoError(t, err)
	f.mux.HandleEvent(context.Background(), connID, frame)
}

func (f *fixture) join(t *testing.T, connID, roomID string, userID uint, username string) {
	t.Helper()
	f.send(t, connID, hub.EventJoinRoom, hub.JoinRoomPayload{RoomID: roomID, UserID: userID, Username: username})
}

// drain empties the session outbox and decodes each frame.
func drain(t *testing.T, s *hub.Session) []hub.Envelope {
	t.Helper()
	var out []hub.Envelope
	for {
		select {
		case raw := <-s.Outbox:
			var env hub.Envelope
			require.NoError(t, json.Unmarshal(raw, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func eventsOfType(events []hub.Envelope, kind string) []hub.Envelope {
	var out []hub.Envelope
	for _, e := range events {
		if e.Type == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestJoinRoom_SnapshotAndAnnouncement(t *testing.T) {
	f := newFixture(map[string]int{"ROOM1": 10})
	first := f.connect("c1")
	second := f.connect("c2")

	f.join(t, "c1", "ROOM1", 1, "ana")
	drain(t, first)

	f.join(t, "c2", "ROOM1", 2, "ben")

	// The joiner gets room-joined with the full snapshot, not user-joined.
	joinerEvents := drain(t, second)
	require.Len(t, eventsOfType(joinerEvents, hub.EventRoomJoined), 1)
	assert.Empty(t, eventsOfType(joinerEvents, hub.EventUserJoined))

	var snapshot hub.RoomJoinedPayload
	require.NoError(t, json.Unmarshal(eventsOfType(joinerEvents, hub.EventRoomJoined)[0].Payload, &snapshot))
	assert.Equal(t, "ROOM1", snapshot.RoomID)
	assert.Len(t, snapshot.ActiveUsers, 2, "snapshot includes the joiner itself")

	// The peer already in the room hears user-joined.
	peerEvents := drain(t, first)
	joins := eventsOfType(peerEvents, hub.EventUserJoined)
	require.Len(t, joins, 1)
	var announced hub.UserJoinedPayload
	require.NoError(t, json.Unmarshal(joins[0].Payload, &announced))
	assert.Equal(t, "ben", announced.Username)
	assert.Equal(t, "c2", announced.ConnectionID)
}

func TestJoinRoom_RoomNotFound(t *testing.T) {
	f := newFixture(map[string]int{})
	s := f.connect("c1")

	f.join(t, "c1", "NOPE", 1, "ana")

	events := drain(t, s)
	require.Len(t, eventsOfType(events, hub.EventError), 1)
	sess, _ := f.mux.Registry().Lookup("c1")
	assert.Empty(t, sess.RoomID, "failed join leaves the connection roomless")
}

func TestJoinRoom_RoomFullKeepsPreviousRoom(t *testing.T) {
	f := newFixture(map[string]int{"SMALL": 1, "HOME": 10})
	f.connect("c1")
	f.connect("c2")
	f.join(t, "c1", "SMALL", 1, "ana")

	f.join(t, "c2", "HOME", 2, "ben")
	f.send(t, "c2", hub.EventJoinRoom, hub.JoinRoomPayload{RoomID: "SMALL", UserID: 2, Username: "ben"})

	sess, _ := f.mux.Registry().Lookup("c2")
	assert.Equal(t, "HOME", sess.RoomID, "rejected join must not disturb the current room")
	assert.Equal(t, 0, f.presence.leaveCount(), "no implicit leave on a rejected join")
}

func TestJoinRoom_ImplicitLeaveOnRejoin(t *testing.T) {
	f := newFixture(map[string]int{"ROOM1": 10, "ROOM2": 10})
	mover := f.connect("mover")
	oldPeer := f.connect("old-peer")
	f.join(t, "old-peer", "ROOM1", 1, "olga")
	f.join(t, "mover", "ROOM1", 2, "mia")
	drain(t, mover)
	drain(t, oldPeer)

	f.join(t, "mover", "ROOM2", 2, "mia")

	peerEvents := drain(t, oldPeer)
	lefts := eventsOfType(peerEvents, hub.EventUserLeft)
	require.Len(t, lefts, 1, "old room is told the mover left")
	var left hub.UserLeftPayload
	require.NoError(t, json.Unmarshal(lefts[0].Payload, &left))
	assert.Equal(t, "mover", left.ConnectionID)

	sess, _ := f.mux.Registry().Lookup("mover")
	assert.Equal(t, "ROOM2", sess.RoomID)
	assert.Len(t, f.mux.Registry().InRoom("ROOM1"), 1, "only the remaining peer is indexed in the old room")
}

func TestCursorBurst_SingleBroadcast(t *testing.T) {
	f := newFixture(map[string]int{"ROOM1": 10})
	sender := f.connect("sender")
	peer := f.connect("peer")
	f.join(t, "sender", "ROOM1", 1, "ana")
	f.join(t, "peer", "ROOM1", 2, "ben")
	drain(t, sender)
	drain(t, peer)

	for i := 1; i <= 5; i++ {
		f.send(t, "sender", hub.EventCursorPosition, hub.CursorPositionPayload{
			RoomID: "ROOM1", FileID: 9, Line: i, Column: i * 2,
		})
	}
	time.Sleep(hub.CursorWindow + 150*time.Millisecond)

	peerEvents := eventsOfType(drain(t, peer), hub.EventCursorPosition)
	require.Len(t, peerEvents, 1, "a burst inside one window coalesces to one broadcast")
	var got hub.CursorPositionBroadcast
	require.NoError(t, json.Unmarshal(peerEvents[0].Payload, &got))
	assert.Equal(t, 5, got.Line, "the trailing position wins")
	assert.Equal(t, 10, got.Column)

	assert.Empty(t, eventsOfType(drain(t, sender), hub.EventCursorPosition), "sender is excluded")
}

func TestCodeChange_BroadcastThenPersist(t *testing.T) {
	f := newFixture(map[string]int{"ROOM1": 10})
	sender := f.connect("sender")
	peer := f.connect("peer")
	f.join(t, "sender", "ROOM1", 1, "ana")
	f.join(t, "peer", "ROOM1", 2, "ben")
	drain(t, sender)
	drain(t, peer)

	f.send(t, "sender", hub.EventCodeChange, hub.CodeChangePayload{RoomID: "ROOM1", FileID: 3, Content: "v1"})
	f.send(t, "sender", hub.EventCodeChange, hub.CodeChangePayload{RoomID: "ROOM1", FileID: 3, Content: "v2"})
	time.Sleep(hub.CodeChangeWindow + 200*time.Millisecond)

	peerEvents := eventsOfType(drain(t, peer), hub.EventCodeChange)
	require.Len(t, peerEvents, 1)
	var got hub.CodeChangeBroadcast
	require.NoError(t, json.Unmarshal(peerEvents[0].Payload, &got))
	assert.Equal(t, "v2", got.Content)
	assert.Equal(t, "ana", got.Username)

	saves := f.files.saved()
	require.Len(t, saves, 1, "only the coalesced edit is persisted")
	assert.Equal(t, savedContent{fileID: 3, content: "v2", userID: 1}, saves[0])
}

func TestCodeChange_PersistFailureStillBroadcasts(t *testing.T) {
	f := newFixture(map[string]int{"ROOM1": 10})
	f.connect("sender")
	peer := f.connect("peer")
	f.join(t, "sender", "ROOM1", 1, "ana")
	f.join(t, "peer", "ROOM1", 2, "ben")
	drain(t, peer)
	f.files.fail = true

	f.send(t, "sender", hub.EventCodeChange, hub.CodeChangePayload{RoomID: "ROOM1", FileID: 3, Content: "v1"})
	time.Sleep(hub.CodeChangeWindow + 200*time.Millisecond)

	assert.Len(t, eventsOfType(drain(t, peer), hub.EventCodeChange), 1,
		"a failing store never blocks the live broadcast")
}

func TestConcurrentEditsLastWriteWins(t *testing.T) {
	// Two editors change the same file; no merge happens. Both broadcasts go
	// out and the store ends up with whichever save landed last.
	f := newFixture(map[string]int{"ROOM1": 10})
	f.connect("a")
	f.connect("b")
	f.join(t, "a", "ROOM1", 1, "ana")
	f.join(t, "b", "ROOM1", 2, "ben")

	f.send(t, "a", hub.EventCodeChange, hub.CodeChangePayload{RoomID: "ROOM1", FileID: 3, Content: "from-ana"})
	time.Sleep(200 * time.Millisecond)
	f.send(t, "b", hub.EventCodeChange, hub.CodeChangePayload{RoomID: "ROOM1", FileID: 3, Content: "from-ben"})
	time.Sleep(hub.CodeChangeWindow + 300*time.Millisecond)

	saves := f.files.saved()
	require.Len(t, saves, 2)
	assert.Equal(t, "from-ben", saves[len(saves)-1].content)
}

func TestChatMessage_ReachesWholeRoomIncludingSender(t *testing.T) {
	f := newFixture(map[string]int{"ROOM1": 10})
	sender := f.connect("sender")
	peer := f.connect("peer")
	f.join(t, "sender", "ROOM1", 1, "ana")
	f.join(t, "peer", "ROOM1", 2, "ben")
	drain(t, sender)
	drain(t, peer)

	f.send(t, "sender", hub.EventChatMessage, hub.ChatMessagePayload{RoomID: "ROOM1", Content: "hello"})

	senderChats := eventsOfType(drain(t, sender), hub.EventChatMessage)
	peerChats := eventsOfType(drain(t, peer), hub.EventChatMessage)
	require.Len(t, senderChats, 1, "chat echoes back to the sender")
	require.Len(t, peerChats, 1)

	var msg hub.ChatMessageBroadcast
	require.NoError(t, json.Unmarshal(peerChats[0].Payload, &msg))
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, uint(1), msg.ID, "broadcast carries the store-assigned id")
	assert.Equal(t, "ana", msg.Sender)
}

func TestChatMessage_StoreDownBroadcastsEphemeral(t *testing.T) {
	f := newFixture(map[string]int{"ROOM1": 10})
	sender := f.connect("sender")
	f.join(t, "sender", "ROOM1", 1, "ana")
	drain(t, sender)
	f.chat.fail = true

	f.send(t, "sender", hub.EventChatMessage, hub.ChatMessagePayload{RoomID: "ROOM1", Content: "still here"})

	chats := eventsOfType(drain(t, sender), hub.EventChatMessage)
	require.Len(t, chats, 1)
	var msg hub.ChatMessageBroadcast
	require.NoError(t, json.Unmarshal(chats[0].Payload, &msg))
	assert.Zero(t, msg.ID, "unpersisted message has no store id")
	assert.Equal(t, "still here", msg.Content)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestFileCreated_RelayExcludesSenderAndCountsStat(t *testing.T) {
	f := newFixture(map[string]int{"ROOM1": 10})
	sender := f.connect("sender")
	peer := f.connect("peer")
	f.join(t, "sender", "ROOM1", 1, "ana")
	f.join(t, "peer", "ROOM1", 2, "ben")
	drain(t, sender)
	drain(t, peer)

	f.send(t, "sender", hub.EventFileCreated, hub.FileCreatedPayload{
		RoomID: "ROOM1",
		File:   json.RawMessage(`{"id":7,"name":"main.go"}`),
	})

	assert.Len(t, eventsOfType(drain(t, peer), hub.EventFileCreated), 1)
	assert.Empty(t, eventsOfType(drain(t, sender), hub.EventFileCreated))
	assert.Equal(t, 1, f.stats.counts["ROOM1|total_file_changes"])
}

func TestUnauthorizedRoomClaim_SilentDrop(t *testing.T) {
	f := newFixture(map[string]int{"ROOM1": 10, "ROOM2": 10})
	intruder := f.connect("intruder")
	victim := f.connect("victim")
	f.join(t, "intruder", "ROOM1", 1, "eve")
	f.join(t, "victim", "ROOM2", 2, "vic")
	drain(t, intruder)
	drain(t, victim)

	// intruder claims ROOM2 without having joined it
	f.send(t, "intruder", hub.EventChatMessage, hub.ChatMessagePayload{RoomID: "ROOM2", Content: "spoofed"})
	f.send(t, "intruder", hub.EventDrawingChange, hub.DrawingChangePayload{RoomID: "ROOM2", DrawingData: json.RawMessage(`{}`)})

	assert.Empty(t, drain(t, victim), "spoofed room claims never reach the room")
	assert.Empty(t, drain(t, intruder), "the drop is silent: no error event either")
}

func TestDisconnect_CleansUpAndCancelsPendingTimers(t *testing.T) {
	f := newFixture(map[string]int{"ROOM1": 10})
	f.connect("leaver")
	peer := f.connect("peer")
	f.join(t, "leaver", "ROOM1", 1, "lea")
	f.join(t, "peer", "ROOM1", 2, "ben")
	drain(t, peer)

	// A pending edit is in flight when the connection dies.
	f.send(t, "leaver", hub.EventCodeChange, hub.CodeChangePayload{RoomID: "ROOM1", FileID: 3, Content: "doomed"})
	f.mux.Disconnect(context.Background(), "leaver")
	time.Sleep(hub.CodeChangeWindow + 200*time.Millisecond)

	assert.Empty(t, f.files.saved(), "no write may happen on behalf of a dead connection")
	peerEvents := drain(t, peer)
	assert.Empty(t, eventsOfType(peerEvents, hub.EventCodeChange))

	lefts := eventsOfType(peerEvents, hub.EventUserLeft)
	require.Len(t, lefts, 1)
	_, ok := f.mux.Registry().Lookup("leaver")
	assert.False(t, ok, "registry entry is gone")
	assert.Equal(t, 1, f.presence.leaveCount(), "presence entry released exactly once")

	// Second disconnect (racing cleanup paths) is a no-op.
	f.mux.Disconnect(context.Background(), "leaver")
	assert.Equal(t, 1, f.presence.leaveCount())
}

func TestExplicitLeave_ConnectionStaysUsable(t *testing.T) {
	f := newFixture(map[string]int{"ROOM1": 10, "ROOM2": 10})
	s := f.connect("c1")
	f.join(t, "c1", "ROOM1", 1, "ana")
	drain(t, s)

	f.send(t, "c1", hub.EventLeaveRoom, hub.LeaveRoomPayload{RoomID: "ROOM1"})

	sess, ok := f.mux.Registry().Lookup("c1")
	require.True(t, ok, "leave-room keeps the connection open")
	assert.Empty(t, sess.RoomID)

	f.join(t, "c1", "ROOM2", 1, "ana")
	events := drain(t, s)
	assert.Len(t, eventsOfType(events, hub.EventRoomJoined), 1, "a left connection can join again")
}

func TestMalformedFrame_ErrorEvent(t *testing.T) {
	f := newFixture(map[string]int{})
	s := f.connect("c1")

	f.mux.HandleEvent(context.Background(), "c1", []byte("{not json"))

	events := drain(t, s)
	require.Len(t, eventsOfType(events, hub.EventError), 1)
}

func TestUnknownEventType_Dropped(t *testing.T) {
	f := newFixture(map[string]int{})
	s := f.connect("c1")

	f.send(t, "c1", "time-travel", map[string]string{"roomId": "ROOM1"})

	assert.Empty(t, drain(t, s), "unknown event types are dropped without an error")
}

func TestRoomCapacity_EnforcedUnderConcurrentJoins(t *testing.T) {
	const capacity = 3
	f := newFixture(map[string]int{"TIGHT": capacity})
	const joiners = 10

	var wg sync.WaitGroup
	for i := 0; i < joiners; i++ {
		connID := fmt.Sprintf("c%d", i)
		f.connect(connID)
		wg.Add(1)
		go func(id string, n int) {
			defer wg.Done()
			f.join(t, id, "TIGHT", uint(n), fmt.Sprintf("user%d", n))
		}(connID, i)
	}
	wg.Wait()

	assert.Len(t, f.mux.Registry().InRoom("TIGHT"), capacity,
		"admissions never exceed the room's capacity")
}
