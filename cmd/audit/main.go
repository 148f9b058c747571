package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-order-catalog/internal/audit"
	"github.com/ariefcatur/go-order-catalog/internal/config"
	kafkax "github.com/ariefcatur/go-order-catalog/internal/kafka"
	"github.com/ariefcatur/go-order-catalog/internal/logger"
	"github.com/ariefcatur/go-order-catalog/internal/orders"
	"github.com/ariefcatur/go-order-catalog/internal/postgres"
	"github.com/ariefcatur/go-order-catalog/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.AppEnv, cfg.LogLevel).With("component", "audit")
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("audit consumer exit", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	svc := audit.NewService(&audit.Repo{DB: db}, nil, log)
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			log.Warn("redis unavailable, relying on event_id uniqueness", "err", err)
		} else {
			svc.Dedup = redisx.NewDedup(rdb, cfg.ServiceName+"-audit")
		}
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.AuditGroup, orders.LifecycleTopics, cfg.AuditWorkers, log)
	log.Info("audit consumer started", "group", cfg.AuditGroup, "topics", orders.LifecycleTopics, "workers", cfg.AuditWorkers)
	return cons.Start(ctx, svc.HandleEvent)
}
