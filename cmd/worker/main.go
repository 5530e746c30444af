package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/karimhaddad/clubcore/internal/alerts"
	"github.com/karimhaddad/clubcore/internal/audit"
	"github.com/karimhaddad/clubcore/internal/config"
	"github.com/karimhaddad/clubcore/internal/database"
	"github.com/karimhaddad/clubcore/internal/queue"
	"github.com/karimhaddad/clubcore/internal/queue/workers"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPool(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
	})

	auditSvc := audit.NewService(db)
	alertStore := alerts.NewPostgresStore(db)

	registry := queue.NewHandlersRegistry()
	registry.Register(queue.TypeAlertNotify, asynq.HandlerFunc(workers.NewAlertWorker(alertStore).ProcessTask))
	registry.Register(queue.TypeAuditPurge, asynq.HandlerFunc(workers.NewAuditWorker(auditSvc).ProcessTask))

	// The retention purge self-schedules daily; task payloads carry the
	// configured retention so a config change takes effect next run.
	scheduler := asynq.NewScheduler(redisOpt, nil)
	payload, _ := json.Marshal(queue.AuditPurgePayload{RetentionDays: cfg.Audit.RetentionDays})
	if _, err := scheduler.Register("@daily", asynq.NewTask(queue.TypeAuditPurge, payload)); err != nil {
		slog.Error("failed to register purge schedule", "error", err)
		os.Exit(1)
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			slog.Error("scheduler error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("starting worker", "concurrency", 10, "audit_retention_days", cfg.Audit.RetentionDays)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
