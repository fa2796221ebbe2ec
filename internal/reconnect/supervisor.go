// Package reconnect implements the client side of session recovery: when a
// connection drops, dial again with exponential backoff and re-enter the
// room from scratch. The server keeps no per-connection state across drops,
// so resync is always a full join plus snapshot.
package reconnect

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// Defaults for the backoff schedule.
const (
	DefaultInitialDelay = 500 * time.Millisecond
	DefaultMaxDelay     = 30 * time.Second
	DefaultMultiplier   = 2.0
	DefaultJitter       = 0.2
)

// ErrGaveUp is returned when MaxAttempts consecutive dials failed.
var ErrGaveUp = errors.New("reconnect: attempt limit reached")

// Session is one live connection produced by a dial. Wait blocks until the
// connection dies; Close tears it down early.
type Session interface {
	Wait(ctx context.Context) error
	Close() error
}

// DialFunc establishes a fresh connection. Called once per attempt.
type DialFunc func(ctx context.Context) (Session, error)

// ResyncFunc re-establishes application state after a successful dial:
// re-join the room, accept the fresh presence snapshot, re-send local state.
type ResyncFunc func(ctx context.Context, s Session) error

// Supervisor keeps one logical connection alive across transport failures.
type Supervisor struct {
	Dial   DialFunc
	Resync ResyncFunc

	// InitialDelay through Jitter control the backoff schedule. Zero values
	// take the package defaults. MaxAttempts 0 means retry forever.
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64
	MaxAttempts  int
}

func (s *Supervisor) defaults() {
	if s.InitialDelay <= 0 {
		s.InitialDelay = DefaultInitialDelay
	}
	if s.MaxDelay <= 0 {
		s.MaxDelay = DefaultMaxDelay
	}
	if s.Multiplier < 1 {
		s.Multiplier = DefaultMultiplier
	}
	if s.Jitter < 0 || s.Jitter > 1 {
		s.Jitter = DefaultJitter
	}
}

// Run dials, resyncs and babysits the connection until ctx is cancelled.
// A successful resync resets the backoff; consecutive failures back off
// exponentially with jitter. Returns ErrGaveUp if MaxAttempts is set and
// exhausted, or ctx.Err() on cancellation.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.Dial == nil {
		return errors.New("reconnect: Dial is required")
	}
	s.defaults()

	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		session, err := s.Dial(ctx)
		if err == nil {
			if s.Resync != nil {
				err = s.Resync(ctx, session)
				if err != nil {
					session.Close()
				}
			}
			if err == nil {
				failures = 0
				err = session.Wait(ctx)
				if ctx.Err() != nil {
					session.Close()
					return ctx.Err()
				}
				logrus.WithError(err).Info("Connection lost, reconnecting")
			}
		}
		if err != nil {
			failures++
			logrus.WithFields(logrus.Fields{"failures": failures}).
				WithError(err).Warn("Reconnect attempt failed")
			if s.MaxAttempts > 0 && failures >= s.MaxAttempts {
				return ErrGaveUp
			}
		}

		select {
		case <-time.After(s.delay(failures)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// delay computes the backoff for the given consecutive failure count, with
// jitter so a herd of dropped clients does not redial in lockstep.
func (s *Supervisor) delay(failures int) time.Duration {
	d := float64(s.InitialDelay)
	for i := 0; i < failures; i++ {
		d *= s.Multiplier
		if d >= float64(s.MaxDelay) {
			d = float64(s.MaxDelay)
			break
		}
	}
	if s.Jitter > 0 {
		spread := d * s.Jitter
		d = d - spread + rand.Float64()*2*spread
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
