// Package store persists emitted feature vectors and application transitions
// in a local SQLite time-series database.
package store

import (
	"context"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/feature"
	"github.com/Bhuvan-2005/SecLyzer/internal/usage"
)

// Store is the persistence surface used by the daemon and the query command.
type Store interface {
	RecordVector(ctx context.Context, v feature.Vector) error
	RecordTransition(ctx context.Context, t usage.Transition) error
	QueryRange(ctx context.Context, stream feature.StreamType, start, end time.Time) ([]feature.Vector, error)
	QueryTransitions(ctx context.Context, start, end time.Time) ([]usage.Transition, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
	Close() error
	Enabled() bool
}
