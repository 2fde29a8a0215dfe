// Package status tracks the run-time counters of the poll loop.
package status

import (
	"sync"
	"time"

	"seat_tracker/internal/model"
)

// Tracker holds RunMetrics behind a mutex. The poll loop and the dispatcher
// write; the bot and the admin API read copies via Snapshot.
type Tracker struct {
	mu         sync.Mutex
	checks     int
	lastCheck  time.Time
	available  []model.Slot
	alertsSent int
	status     model.RunStatus
	seenKeys   int
}

// New returns a Tracker in the starting state.
func New() *Tracker {
	return &Tracker{status: model.StatusStarting}
}

// BeginCheck counts a new poll cycle started at now.
func (t *Tracker) BeginCheck(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.checks++
	t.lastCheck = now
	t.status = model.StatusChecking
	return t.checks
}

// CheckSucceeded stores the latest slot snapshot and marks the run healthy.
func (t *Tracker) CheckSucceeded(slots []model.Slot) {
	cp := make([]model.Slot, len(slots))
	copy(cp, slots)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.available = cp
	t.status = model.StatusOK
}

// CheckFailed marks the run as degraded. The previous snapshot is kept.
func (t *Tracker) CheckFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = model.StatusError
}

// AddAlert counts one send attempt.
func (t *Tracker) AddAlert() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.alertsSent++
}

// SetSeenKeys records the size of the dedup set.
func (t *Tracker) SetSeenKeys(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seenKeys = n
}

// Snapshot returns a consistent copy of the metrics.
func (t *Tracker) Snapshot() model.RunMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	available := make([]model.Slot, len(t.available))
	copy(available, t.available)
	return model.RunMetrics{
		Checks:     t.checks,
		LastCheck:  t.lastCheck,
		Available:  available,
		AlertsSent: t.alertsSent,
		Status:     t.status,
		SeenKeys:   t.seenKeys,
	}
}
