package extractor

import (
	"context"

	"github.com/Bhuvan-2005/SecLyzer/internal/feature"
)

// Calculator is a pure window-to-features function. It reports false when
// the window holds too little data to produce a vector.
type Calculator[T any] interface {
	Extract(events []T, now float64) (feature.Set, bool)
}

// Recorder persists emitted vectors. Implementations may buffer.
type Recorder interface {
	RecordVector(ctx context.Context, v feature.Vector) error
}

// StatsProvider is implemented by every periodic emitter.
type StatsProvider interface {
	Stats() Stats
}
