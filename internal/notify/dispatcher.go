// Package notify fans a new slot out to the subscribers that want it.
package notify

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"seat_tracker/internal/bot"
	"seat_tracker/internal/filter"
	"seat_tracker/internal/model"
	"seat_tracker/internal/registry"
	"seat_tracker/internal/status"
)

// Sender is the interface for delivering a message to one chat.
type Sender interface {
	SendMessage(chatID, text string) error
}

// Dispatcher sends alerts one at a time, spaced by a fixed interval to stay
// under Telegram's rate limits. Sends must stay sequential.
type Dispatcher struct {
	registry   *registry.Registry
	sender     Sender
	status     *status.Tracker
	limiter    *rate.Limiter
	bookingURL string
	log        *slog.Logger
}

// New creates a Dispatcher. A non-positive interval disables throttling.
func New(reg *registry.Registry, sender Sender, st *status.Tracker, bookingURL string, interval time.Duration, log *slog.Logger) *Dispatcher {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Dispatcher{
		registry:   reg,
		sender:     sender,
		status:     st,
		limiter:    rate.NewLimiter(limit, 1),
		bookingURL: bookingURL,
		log:        log,
	}
}

// Dispatch alerts every matching subscriber about slot and returns the number
// of send attempts. A failed send is logged and does not stop the fan-out.
func (d *Dispatcher) Dispatch(ctx context.Context, slot model.Slot) int {
	subs := filter.Subscribers(d.registry.Snapshot(), slot)
	if len(subs) == 0 {
		return 0
	}

	msg := bot.FormatAlert(slot, d.bookingURL)
	attempts := 0
	for _, sub := range subs {
		if err := d.limiter.Wait(ctx); err != nil {
			d.log.Warn("dispatch interrupted", "key", slot.Key, "remaining", len(subs)-attempts, "error", err)
			break
		}
		if err := d.sender.SendMessage(sub.ID, msg); err != nil {
			d.log.Error("send alert", "chat_id", sub.ID, "key", slot.Key, "error", err)
		}
		d.status.AddAlert()
		attempts++
	}

	d.log.Info("notified subscribers", "institution", slot.Institution, "key", slot.Key, "count", attempts)
	return attempts
}
