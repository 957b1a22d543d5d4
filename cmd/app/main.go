package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/toannhu96/gia-vang-365/internal/app"
	"github.com/toannhu96/gia-vang-365/internal/config"
	"github.com/toannhu96/gia-vang-365/internal/infra/db"
	"github.com/toannhu96/gia-vang-365/internal/infra/redisconn"
	"github.com/toannhu96/gia-vang-365/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(&cfg.Logger)

	pool, err := db.NewPool(&cfg.Postgres)
	if err != nil {
		log.Error("postgres init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := redisconn.NewClient(&cfg.Redis, log)

	application, err := app.New(*cfg, log, pool, rdb)
	if err != nil {
		log.Error("app init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		log.Error("application stopped with error", slog.String("error", err.Error()))
	}

	log.Info("gia-vang-365 stopped")
}
