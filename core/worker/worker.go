package worker

import (
	"hangout-api/core/config"
	"hangout-api/core/logger"

	"github.com/hibiken/asynq"
)

// Worker owns the asynq server, scheduler and client for background work.
// Sweep handlers are registered by the modules through the mux.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	client    *asynq.Client
	mux       *asynq.ServeMux
}

func New(cfg *config.Config) *Worker {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	// The "ai" queue is produce-only here: the analysis worker is a separate
	// process consuming it from the same Redis.
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Queues: map[string]int{
			"default": 5,
			"sweeps":  3,
		},
	})

	scheduler := asynq.NewScheduler(redisOpt, nil)
	client := asynq.NewClient(redisOpt)

	return &Worker{
		server:    server,
		scheduler: scheduler,
		client:    client,
		mux:       asynq.NewServeMux(),
	}
}

// Mux exposes the handler mux for task registration.
func (w *Worker) Mux() *asynq.ServeMux {
	return w.mux
}

// Client exposes the asynq client for task enqueueing.
func (w *Worker) Client() *asynq.Client {
	return w.client
}

// RegisterPeriodic schedules a recurring task with a cron spec.
func (w *Worker) RegisterPeriodic(spec string, taskType string, opts ...asynq.Option) error {
	task := asynq.NewTask(taskType, nil, opts...)
	entryID, err := w.scheduler.Register(spec, task)
	if err != nil {
		logger.Error("Worker:RegisterPeriodic", "error", err, "task", taskType, "spec", spec)
		return err
	}
	logger.Info("Worker:RegisterPeriodic", "task", taskType, "spec", spec, "entry_id", entryID)
	return nil
}

// Start runs the task server and the scheduler in background goroutines.
func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	go func() {
		if err := w.scheduler.Run(); err != nil {
			logger.Error("Worker:Scheduler", "error", err)
		}
	}()
	return nil
}

// Shutdown stops accepting new tasks and waits for in-flight handlers.
func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
	_ = w.client.Close()
}
