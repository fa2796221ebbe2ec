package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/sairamarava/CodeTogether/internal/repository"
	"github.com/sairamarava/CodeTogether/internal/tasks"
)

// Server wraps the asynq worker and its periodic scheduler.
type Server struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	log       *logrus.Entry
}

// NewServer builds a worker handling room stat bumps and the periodic
// stale-presence sweep.
func NewServer(redisOpt asynq.RedisClientOpt, rooms repository.RoomRepository, presence repository.PresenceRepository, logger *logrus.Logger) *Server {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeRoomStatIncrement, NewRoomStatHandler(rooms))
	mux.Handle(tasks.TypeStalePresenceSweep, NewStalePresenceHandler(presence))

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})

	return &Server{server: server, scheduler: scheduler, mux: mux, log: logEntry}
}

// Start launches the worker and registers the periodic sweep. Both run
// until Shutdown.
func (s *Server) Start() error {
	if _, err := s.scheduler.Register("@every 5m", tasks.NewStalePresenceSweepTask(), asynq.Queue("low")); err != nil {
		return err
	}
	if err := s.scheduler.Start(); err != nil {
		return err
	}
	s.log.Info("Worker server starting")
	return s.server.Start(s.mux)
}

// Shutdown stops the scheduler first so no new periodic tasks enter the
// queue, then drains the worker.
func (s *Server) Shutdown() {
	s.scheduler.Shutdown()
	s.server.Shutdown()
	s.log.Info("Worker server stopped")
}
