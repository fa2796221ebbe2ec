package hub

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// FireFunc runs when a debounce window elapses with no newer event.
type FireFunc func()

type pendingEntry struct {
	gen   uint64
	timer *time.Timer
}

// Coalescer implements trailing-edge debounce per (connection, event kind)
// key. Schedule replaces any pending event under the same key and restarts
// the window, so only the latest payload fires. Keys are independent: a
// cursor burst never delays a code-change flush.
type Coalescer struct {
	mu      sync.Mutex
	pending map[string]*pendingEntry
}

func NewCoalescer() *Coalescer {
	return &Coalescer{pending: make(map[string]*pendingEntry)}
}

func coalesceKey(connectionID, kind string) string {
	return connectionID + "|" + kind
}

// Schedule registers fire to run after window, replacing any pending event
// for the same connection and kind. The superseded payload is silently
// discarded, its timer stopped.
func (c *Coalescer) Schedule(connectionID, kind string, window time.Duration, fire FireFunc) {
	key := coalesceKey(connectionID, kind)

	c.mu.Lock()
	entry := &pendingEntry{}
	if prev, ok := c.pending[key]; ok {
		prev.timer.Stop()
		entry.gen = prev.gen + 1
	}
	c.pending[key] = entry
	gen := entry.gen
	entry.timer = time.AfterFunc(window, func() {
		c.fire(key, gen, fire)
	})
	c.mu.Unlock()
}

// fire runs the callback unless a newer Schedule or a Cancel superseded
// this timer. The generation check closes the race where Stop loses to a
// timer that already fired into the runtime's queue.
func (c *Coalescer) fire(key string, gen uint64, fn FireFunc) {
	c.mu.Lock()
	entry, ok := c.pending[key]
	if !ok || entry.gen != gen {
		c.mu.Unlock()
		return
	}
	delete(c.pending, key)
	c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{"key": key, "panic": r}).
				Error("Recovered from panic in coalesced event handler")
		}
	}()
	fn()
}

// Cancel drops the pending event for one connection and kind, if any.
func (c *Coalescer) Cancel(connectionID, kind string) {
	key := coalesceKey(connectionID, kind)
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.pending[key]; ok {
		entry.timer.Stop()
		delete(c.pending, key)
	}
}

// CancelAll drops every pending event for the connection. Called on
// disconnect so no timer fires on behalf of a connection that is gone.
func (c *Coalescer) CancelAll(connectionID string) {
	prefix := connectionID + "|"
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.pending {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			entry.timer.Stop()
			delete(c.pending, key)
		}
	}
}

// PendingCount reports the number of pending events, for stats reporting.
func (c *Coalescer) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
