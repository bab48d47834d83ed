package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hangout-api/core/config"
	"hangout-api/core/constants"
	"hangout-api/core/database"
	"hangout-api/core/logger"
	coreMiddleware "hangout-api/core/middleware"
	"hangout-api/core/redis"
	"hangout-api/core/worker"
	"hangout-api/modules/event"
	"hangout-api/modules/notification"
	"hangout-api/modules/recurring"
	recurringService "hangout-api/modules/recurring/service"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// Run boots the HTTP server and the background worker and blocks until a
// shutdown signal arrives.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFormat := "text"
	if cfg.Server.LogJSON {
		logFormat = "json"
	}
	logger.Init(cfg.Server.LogLevel, logFormat)

	db, err := database.InitDB(database.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return err
	}

	redisClient, err := redis.Init(redis.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	locker := redis.NewLocker(redisClient)

	w := worker.New(cfg)

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.CORS())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	mw := coreMiddleware.NewMiddleware()

	dispatcher := notification.Init(e, &db, mw)
	eventServices := event.Init(e, &db, mw, locker, w.Client(), dispatcher)
	recurringSvc := recurring.Init(e, &db, mw, locker)

	registerSweeps(w, eventServices, recurringSvc)

	if err := w.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server:Start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	w.Shutdown()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}

// registerSweeps wires the periodic sweep tasks to their handlers. Every
// sweep is idempotent, so overlapping or repeated runs are harmless.
func registerSweeps(w *worker.Worker, events *event.Services, recurringSvc *recurringService.RecurringService) {
	mux := w.Mux()
	cfg := config.Get()

	mux.HandleFunc(constants.TaskSweepVotingDeadlines, func(ctx context.Context, t *asynq.Task) error {
		return events.Votes.SweepVotingDeadlines(ctx, time.Now())
	})
	mux.HandleFunc(constants.TaskSweepReminders, func(ctx context.Context, t *asynq.Task) error {
		now := time.Now()
		// Timed-out analyses ride along on the reminder cadence.
		if err := events.Ai.CheckTimeouts(ctx, now); err != nil {
			logger.Error("Sweep:AiTimeouts", "error", err)
		}
		return events.Reminders.SweepReminders(ctx, now)
	})
	mux.HandleFunc(constants.TaskSweepRecurring, func(ctx context.Context, t *asynq.Task) error {
		return recurringSvc.SweepRecurringMaterialization(ctx, time.Now())
	})
	mux.HandleFunc(constants.TaskSweepWaitlistExpiry, func(ctx context.Context, t *asynq.Task) error {
		return events.Participants.SweepWaitlistExpiry(ctx, time.Now())
	})
	mux.HandleFunc(constants.TaskSweepCompletion, func(ctx context.Context, t *asynq.Task) error {
		return events.Events.SweepCompletion(ctx, time.Now())
	})

	type periodic struct {
		spec string
		task string
	}
	for _, p := range []periodic{
		{cfg.Worker.VotingDeadlineSpec, constants.TaskSweepVotingDeadlines},
		{cfg.Worker.ReminderSpec, constants.TaskSweepReminders},
		{cfg.Worker.RecurringSpec, constants.TaskSweepRecurring},
		{cfg.Worker.WaitlistExpirySpec, constants.TaskSweepWaitlistExpiry},
		{cfg.Worker.CompletionSpec, constants.TaskSweepCompletion},
	} {
		if err := w.RegisterPeriodic(p.spec, p.task, asynq.Queue("sweeps")); err != nil {
			logger.Error("Server:RegisterPeriodic", "error", err, "task", p.task)
		}
	}
}
