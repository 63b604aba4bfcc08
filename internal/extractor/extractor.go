// Package extractor drives the feature calculators: it owns each stream's
// event buffer, runs extraction and cleanup on their own tickers, and emits
// the resulting vectors.
package extractor

import (
	"context"
	"sync"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/buffer"
	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/Bhuvan-2005/SecLyzer/internal/events"
	"github.com/Bhuvan-2005/SecLyzer/internal/feature"
	"github.com/Bhuvan-2005/SecLyzer/internal/publish"
)

// Extractor couples one event buffer with its calculator.
//
// Add may be called from any goroutine. Ticks are serialised: a tick that
// fires while another is still running waits for it instead of overlapping.
type Extractor[T buffer.Timestamped] struct {
	cfg  Config
	buf  *buffer.Buffer[T]
	calc Calculator[T]
	pub  publish.Publisher
	opts options

	tickMu   sync.Mutex
	counters counters
}

// New validates cfg and returns an idle Extractor.
func New[T buffer.Timestamped](cfg Config, calc Calculator[T], pub publish.Publisher, opts ...Option) (*Extractor[T], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Channel == "" {
		cfg.Channel = cfg.Stream.Channel()
	}

	return &Extractor[T]{
		cfg:  cfg,
		buf:  buffer.New[T](cfg.Capacity),
		calc: calc,
		pub:  pub,
		opts: buildOptions(opts),
	}, nil
}

// Add buffers one event.
func (e *Extractor[T]) Add(ev T) {
	if e.buf.Add(ev) {
		e.counters.overflowed.Add(1)
	}
}

// Len returns the number of buffered events.
func (e *Extractor[T]) Len() int {
	return e.buf.Len()
}

// Run drives the extract and cleanup ticks until ctx is done.
func (e *Extractor[T]) Run(ctx context.Context) error {
	extractTicker := time.NewTicker(e.cfg.Interval)
	defer extractTicker.Stop()
	cleanupTicker := time.NewTicker(e.cfg.CleanupInterval)
	defer cleanupTicker.Stop()

	e.opts.log.Info().
		Str("stream", string(e.cfg.Stream)).
		Str("channel", e.cfg.Channel).
		Dur("window", e.cfg.Window).
		Dur("interval", e.cfg.Interval).
		Msg("Extractor started")

	for {
		select {
		case <-ctx.Done():
			e.opts.log.Info().Msg("Extractor stopped")
			return nil
		case <-extractTicker.C:
			e.ExtractOnce(ctx)
		case <-cleanupTicker.C:
			e.CleanupOnce()
		}
	}
}

// ExtractOnce runs one extraction tick against the wall clock.
func (e *Extractor[T]) ExtractOnce(ctx context.Context) (feature.Vector, bool) {
	return e.ExtractAt(ctx, e.opts.now())
}

// ExtractAt snapshots the buffer, computes features as of now and emits the
// vector if one was produced. Emission failures are logged and counted; they
// never abort the tick.
func (e *Extractor[T]) ExtractAt(ctx context.Context, now time.Time) (feature.Vector, bool) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	e.counters.ticks.Add(1)

	set, ok := e.calc.Extract(e.buf.Snapshot(), events.Seconds(now))
	if !ok {
		e.counters.insufficient.Add(1)
		return feature.Vector{}, false
	}

	v := feature.Vector{Timestamp: now, Stream: e.cfg.Stream, Features: set}
	e.emit(ctx, v)

	return v, true
}

func (e *Extractor[T]) emit(ctx context.Context, v feature.Vector) {
	pubCtx := ctx
	if e.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		pubCtx, cancel = context.WithTimeout(ctx, e.cfg.PublishTimeout)
		defer cancel()
	}

	if err := e.pub.Publish(pubCtx, e.cfg.Channel, v); err != nil {
		e.counters.publishFailures.Add(1)
		e.opts.log.Warn().
			Err(err).
			Str("error_code", string(errors.CodeOf(err))).
			Str("channel", e.cfg.Channel).
			Msg("Failed to publish features")
	} else {
		e.counters.emitted.Add(1)
		e.counters.lastEmission.Store(v.Timestamp.UnixNano())
		e.opts.log.Debug().
			Int("features", len(v.Features)).
			Str("channel", e.cfg.Channel).
			Msg("Published features")
	}

	if e.opts.recorder == nil {
		return
	}
	if err := e.opts.recorder.RecordVector(ctx, v); err != nil {
		e.counters.recordFailures.Add(1)
		e.opts.log.Warn().Err(err).Msg("Failed to record features")
	}
}

// CleanupOnce runs one age-eviction tick against the wall clock.
func (e *Extractor[T]) CleanupOnce() int {
	return e.CleanupAt(e.opts.now())
}

// CleanupAt evicts events older than twice the window as of now.
func (e *Extractor[T]) CleanupAt(now time.Time) int {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	removed := e.buf.Cleanup(events.Seconds(now), e.cfg.Window.Seconds())
	if removed > 0 {
		e.counters.expired.Add(uint64(removed))
		e.opts.log.Debug().Int("removed", removed).Int("remaining", e.buf.Len()).Msg("Evicted expired events")
	}

	return removed
}

// Stats implements StatsProvider.
func (e *Extractor[T]) Stats() Stats {
	s := Stats{
		Name:      e.cfg.Name,
		Stream:    string(e.cfg.Stream),
		BufferLen: e.buf.Len(),
		BufferCap: e.buf.Cap(),
	}
	e.counters.fill(&s)

	return s
}
