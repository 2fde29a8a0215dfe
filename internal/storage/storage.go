// Package storage defines the dedup store interface and its implementations.
package storage

import "context"

// SeenStore records the slot keys that have already been alerted on.
// Keys are never removed.
type SeenStore interface {
	// MarkSeen records key and reports whether it was not seen before.
	MarkSeen(ctx context.Context, key string) (bool, error)
	CountSeen(ctx context.Context) (int, error)
	Close() error
}
