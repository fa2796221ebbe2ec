package reconnect_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sairamarava/CodeTogether/internal/reconnect"
)

// fakeSession dies when its lifetime elapses or Close is called.
type fakeSession struct {
	done chan struct{}
	once sync.Once
}

func newFakeSession(lifetime time.Duration) *fakeSession {
	s := &fakeSession{done: make(chan struct{})}
	if lifetime > 0 {
		time.AfterFunc(lifetime, func() { s.once.Do(func() { close(s.done) }) })
	}
	return s
}

func (s *fakeSession) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return errors.New("connection lost")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *fakeSession) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func TestSupervisor_ResyncsAfterEachDrop(t *testing.T) {
	var dials, resyncs int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup := &reconnect.Supervisor{
		Dial: func(ctx context.Context) (reconnect.Session, error) {
			n := atomic.AddInt32(&dials, 1)
			if n >= 3 {
				cancel()
			}
			return newFakeSession(10 * time.Millisecond), nil
		},
		Resync: func(ctx context.Context, s reconnect.Session) error {
			atomic.AddInt32(&resyncs, 1)
			return nil
		},
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}

	err := sup.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&dials), int32(3))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&resyncs), int32(3),
		"every successful dial is followed by a full resync")
}

func TestSupervisor_GivesUpAfterMaxAttempts(t *testing.T) {
	var dials int32
	sup := &reconnect.Supervisor{
		Dial: func(ctx context.Context) (reconnect.Session, error) {
			atomic.AddInt32(&dials, 1)
			return nil, errors.New("refused")
		},
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		MaxAttempts:  4,
	}

	err := sup.Run(context.Background())

	require.ErrorIs(t, err, reconnect.ErrGaveUp)
	assert.Equal(t, int32(4), atomic.LoadInt32(&dials))
}

func TestSupervisor_FailedResyncCountsAsFailure(t *testing.T) {
	var closes int32
	sup := &reconnect.Supervisor{
		Dial: func(ctx context.Context) (reconnect.Session, error) {
			s := newFakeSession(0)
			go func() {
				<-s.done
				atomic.AddInt32(&closes, 1)
			}()
			return s, nil
		},
		Resync: func(ctx context.Context, s reconnect.Session) error {
			return errors.New("room vanished")
		},
		InitialDelay: time.Millisecond,
		MaxAttempts:  2,
	}

	err := sup.Run(context.Background())

	require.ErrorIs(t, err, reconnect.ErrGaveUp)
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&closes) == 2
	}, time.Second, 5*time.Millisecond, "a session whose resync fails must be closed")
}

func TestSupervisor_CancelledContextStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sup := &reconnect.Supervisor{
		Dial: func(ctx context.Context) (reconnect.Session, error) {
			t.Fatal("dial must not run with a cancelled context")
			return nil, nil
		},
	}

	err := sup.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSupervisor_RequiresDial(t *testing.T) {
	err := (&reconnect.Supervisor{}).Run(context.Background())
	assert.Error(t, err)
}
