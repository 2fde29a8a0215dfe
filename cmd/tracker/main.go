package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"seat_tracker/internal/api"
	"seat_tracker/internal/bot"
	"seat_tracker/internal/config"
	"seat_tracker/internal/fetcher"
	"seat_tracker/internal/notify"
	"seat_tracker/internal/registry"
	"seat_tracker/internal/scheduler"
	"seat_tracker/internal/status"
	"seat_tracker/internal/storage"
)

const fetchTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	seen, err := openSeenStore(cfg.DatabasePath)
	if err != nil {
		log.Error("open seen store", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = seen.Close() }()

	reg := registry.New()
	st := status.New()

	b, err := bot.New(cfg, reg, st, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	f := fetcher.New(&http.Client{Timeout: fetchTimeout}, cfg.SourceURL)
	d := notify.New(reg, b, st, cfg.BookingURL, cfg.SendInterval, log)
	sched := scheduler.New(f, seen, reg, d, st, log)
	sched.SetInterval(cfg.CheckInterval)

	srv := api.New(cfg.HTTPAddr, reg, st, b, cfg, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting tracker", "source", cfg.SourceURL, "interval", cfg.CheckInterval)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx); err != nil {
			log.Error("admin server", "error", err)
			cancel()
		}
	}()

	b.Run(ctx)
	wg.Wait()

	log.Info("tracker stopped")
}

// openSeenStore keeps seen slots in memory unless a database path is set.
func openSeenStore(path string) (storage.SeenStore, error) {
	if path == "" {
		return storage.NewMemory(), nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	return storage.NewSQLite(path)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
