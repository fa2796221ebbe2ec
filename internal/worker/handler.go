package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/sairamarava/CodeTogether/internal/repository"
	"github.com/sairamarava/CodeTogether/internal/tasks"
)

// RoomStatHandler applies queued room counter bumps to MySQL.
type RoomStatHandler struct {
	rooms repository.RoomRepository
}

func NewRoomStatHandler(rooms repository.RoomRepository) *RoomStatHandler {
	return &RoomStatHandler{rooms: rooms}
}

// ProcessTask implements asynq.Handler.
func (h *RoomStatHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.RoomStatIncrementPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	logCtx := logrus.WithFields(logrus.Fields{
		"room_id": payload.RoomID,
		"stat":    payload.Stat,
	})
	if err := h.rooms.IncrementStat(ctx, payload.RoomID, payload.Stat); err != nil {
		// The room may have been deleted since the bump was enqueued.
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("Dropping stat bump for missing room")
			return nil
		}
		logCtx.WithError(err).Error("Failed to increment room stat")
		return err
	}
	return nil
}

// stalePresenceMaxIdle is how long a presence entry may sit without
// activity before the sweep evicts it. Generous on purpose: heartbeats keep
// healthy connections far below this.
const stalePresenceMaxIdle = 30 * time.Minute

// StalePresenceHandler evicts presence entries whose connection died
// without running disconnect cleanup (server crash, network partition).
type StalePresenceHandler struct {
	presence repository.PresenceRepository
}

func NewStalePresenceHandler(presence repository.PresenceRepository) *StalePresenceHandler {
	return &StalePresenceHandler{presence: presence}
}

// ProcessTask implements asynq.Handler.
func (h *StalePresenceHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	removed, err := h.presence.SweepStale(ctx, stalePresenceMaxIdle)
	if err != nil {
		logrus.WithError(err).Error("Stale presence sweep failed")
		return err
	}
	if removed > 0 {
		logrus.WithField("removed", removed).Info("Swept stale presence entries")
	}
	return nil
}
