package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"SportDigest/internal/app"
	"SportDigest/internal/config"
	"SportDigest/internal/logging"
)

func main() {
	envLoaded := godotenv.Load() == nil

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)
	if cfg.Logging.Format == "json" {
		logger = logging.NewJSON(cfg.Logging.Level)
	}
	if !envLoaded {
		logger.Info("no .env file found, using environment as-is")
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
