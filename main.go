package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg, os.Stderr)
	service := NewService(cfg, logger, NewMetrics())
	if err := service.Run(ctx, cfg.Addr); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
