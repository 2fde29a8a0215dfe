// Package scheduler runs the poll loop: fetch the calendar, diff it against
// the slots already seen, and hand new slots to the dispatcher.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"seat_tracker/internal/model"
	"seat_tracker/internal/registry"
	"seat_tracker/internal/status"
	"seat_tracker/internal/storage"
)

// SlotFetcher returns the slots currently open on the source page.
type SlotFetcher interface {
	Fetch(ctx context.Context) ([]model.Slot, error)
}

// Notifier alerts subscribers about one new slot.
type Notifier interface {
	Dispatch(ctx context.Context, slot model.Slot) int
}

// Scheduler periodically checks the calendar and sends notifications.
type Scheduler struct {
	fetcher  SlotFetcher
	seen     storage.SeenStore
	registry *registry.Registry
	notifier Notifier
	status   *status.Tracker
	log      *slog.Logger
	interval time.Duration
}

// New creates a Scheduler with the default 1-minute check interval.
// The scheduler must be the only writer of seen.
func New(f SlotFetcher, seen storage.SeenStore, reg *registry.Registry, n Notifier, st *status.Tracker, log *slog.Logger) *Scheduler {
	return &Scheduler{
		fetcher:  f,
		seen:     seen,
		registry: reg,
		notifier: n,
		status:   st,
		log:      log,
		interval: 1 * time.Minute,
	}
}

// SetInterval overrides the default 1-minute pause between checks.
func (s *Scheduler) SetInterval(d time.Duration) {
	s.interval = d
}

// Run checks immediately, then again after each interval, blocking until ctx
// is cancelled. The interval is measured from the end of the previous check.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("poll loop started", "interval", s.interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.check(ctx)
			timer.Reset(s.interval)
		}
	}
}

func (s *Scheduler) check(ctx context.Context) {
	n := s.status.BeginCheck(time.Now().UTC())
	log := s.log.With("check", n, "cycle_id", uuid.NewString())
	log.Info("checking availability", "users", s.registry.Count())

	slots, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.status.CheckFailed()
		log.Error("check failed", "error", err)
		return
	}
	s.status.CheckSucceeded(slots)
	log.Info("found available slots", "count", len(slots))

	for _, slot := range slots {
		if ctx.Err() != nil {
			return
		}
		fresh, err := s.seen.MarkSeen(ctx, slot.Key)
		if err != nil {
			log.Error("mark seen", "key", slot.Key, "error", err)
			continue
		}
		if !fresh {
			continue
		}
		if s.registry.Count() == 0 {
			log.Info("new slot, no subscribers", "key", slot.Key)
			continue
		}
		s.notifier.Dispatch(ctx, slot)
	}

	seen, err := s.seen.CountSeen(ctx)
	if err != nil {
		log.Error("count seen", "error", err)
		return
	}
	s.status.SetSeenKeys(seen)
}
