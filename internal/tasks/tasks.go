package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Task type names shared by the enqueuing side and the worker.
const (
	TypeRoomStatIncrement  = "room:stat_increment"
	TypeStalePresenceSweep = "presence:sweep_stale"
)

// RoomStatIncrementPayload bumps one counter on a room.
type RoomStatIncrementPayload struct {
	RoomID string `json:"room_id"`
	Stat   string `json:"stat"`
}

// NewRoomStatIncrementTask builds the task for one counter bump.
func NewRoomStatIncrementTask(roomID, stat string) (*asynq.Task, error) {
	payload, err := json.Marshal(RoomStatIncrementPayload{RoomID: roomID, Stat: stat})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRoomStatIncrement, payload, asynq.MaxRetry(3)), nil
}

// NewStalePresenceSweepTask builds the periodic sweep task; it carries no
// payload.
func NewStalePresenceSweepTask() *asynq.Task {
	return asynq.NewTask(TypeStalePresenceSweep, nil, asynq.MaxRetry(1))
}

// StatReporter enqueues room counter bumps so fan-out never waits on MySQL.
// Implements the hub's StatReporter.
type StatReporter struct {
	client *asynq.Client
}

func NewStatReporter(client *asynq.Client) *StatReporter {
	if client == nil {
		panic("asynq client cannot be nil for StatReporter")
	}
	return &StatReporter{client: client}
}

// RoomStat enqueues one counter bump. Failures are logged and dropped:
// stats are advisory.
func (r *StatReporter) RoomStat(roomID, stat string) {
	task, err := NewRoomStatIncrementTask(roomID, stat)
	if err != nil {
		logrus.WithError(err).Error("Failed to build room stat task")
		return
	}
	if _, err := r.client.Enqueue(task); err != nil {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "stat": stat}).
			WithError(err).Warn("Failed to enqueue room stat task")
	}
}
