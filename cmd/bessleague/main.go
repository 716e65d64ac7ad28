package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bessleague/bessleague/pkg/assets"
	"github.com/bessleague/bessleague/pkg/leaderboard"
	"github.com/bessleague/bessleague/pkg/log"
	"github.com/bessleague/bessleague/pkg/metrics"
	"github.com/bessleague/bessleague/pkg/server"
	"github.com/bessleague/bessleague/pkg/source"
	"github.com/bessleague/bessleague/pkg/storage"

	"github.com/joho/godotenv"
	"github.com/levenlabs/go-lflag"
)

func main() {
	// API keys may come from a local .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", slog.Any("error", err))
	}

	// init packages
	src := source.Configured()
	s := storage.Configured()
	l := assets.Configured()
	svc := leaderboard.Configured(src, l, s)

	// init server
	srv := server.Configured(svc)

	// parse flags
	lflag.Configure()

	level, err := log.SyncLevel()
	if err != nil {
		panic(err)
	}
	slog.Debug("logger configured", slog.String("level", level.String()))

	metrics.Init()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := src.Validate(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid upstream configuration", slog.Any("error", err))
		os.Exit(1)
	}

	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", slog.Any("error", err))
		}
	}()

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
