package ingest

import (
	"context"

	"github.com/Bhuvan-2005/SecLyzer/internal/events"
	"github.com/Bhuvan-2005/SecLyzer/internal/usage"
)

// Handler consumes one raw wire payload.
type Handler func(ctx context.Context, payload []byte)

// Source delivers raw payloads to a Handler, in arrival order, until ctx is
// done or the source is exhausted.
type Source interface {
	Run(ctx context.Context, handle Handler) error
}

// KeystrokeSink receives decoded key events.
type KeystrokeSink interface {
	Add(events.KeystrokeEvent)
}

// PointerSink receives decoded pointer events.
type PointerSink interface {
	Add(events.PointerEvent)
}

// TransitionRecorder persists closed application sessions.
type TransitionRecorder interface {
	RecordTransition(ctx context.Context, t usage.Transition) error
}
