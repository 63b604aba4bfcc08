package extractor

import (
	"context"
	"sync"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/Bhuvan-2005/SecLyzer/internal/feature"
	"github.com/Bhuvan-2005/SecLyzer/internal/publish"
	"github.com/Bhuvan-2005/SecLyzer/internal/usage"
)

// AppReporter periodically publishes the usage tracker's State on the app
// channel. The tracker itself is fed by ingestion.
type AppReporter struct {
	tracker        *usage.Tracker
	pub            publish.Publisher
	channel        string
	interval       time.Duration
	publishTimeout time.Duration
	opts           options

	tickMu   sync.Mutex
	counters counters
}

// NewAppReporter returns a reporter publishing every interval on channel.
func NewAppReporter(
	tracker *usage.Tracker, pub publish.Publisher, channel string, interval, publishTimeout time.Duration, opts ...Option,
) (*AppReporter, error) {
	if interval <= 0 {
		return nil, errors.New().WithData(errors.ErrInvalidInterval, struct {
			Field string
			Value time.Duration
		}{"app_interval", interval})
	}
	if channel == "" {
		channel = feature.ChannelApp
	}

	return &AppReporter{
		tracker:        tracker,
		pub:            pub,
		channel:        channel,
		interval:       interval,
		publishTimeout: publishTimeout,
		opts:           buildOptions(opts),
	}, nil
}

// Run publishes on every tick until ctx is done.
func (r *AppReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.opts.log.Info().Str("channel", r.channel).Dur("interval", r.interval).Msg("App reporter started")

	for {
		select {
		case <-ctx.Done():
			r.opts.log.Info().Msg("App reporter stopped")
			return nil
		case <-ticker.C:
			r.ReportOnce(ctx)
		}
	}
}

// ReportOnce publishes the current tracker state. It reports false when
// publishing failed.
func (r *AppReporter) ReportOnce(ctx context.Context) bool {
	r.tickMu.Lock()
	defer r.tickMu.Unlock()

	r.counters.ticks.Add(1)
	state := r.tracker.State()

	pubCtx := ctx
	if r.publishTimeout > 0 {
		var cancel context.CancelFunc
		pubCtx, cancel = context.WithTimeout(ctx, r.publishTimeout)
		defer cancel()
	}

	if err := r.pub.Publish(pubCtx, r.channel, state); err != nil {
		r.counters.publishFailures.Add(1)
		r.opts.log.Warn().
			Err(err).
			Str("error_code", string(errors.CodeOf(err))).
			Str("channel", r.channel).
			Msg("Failed to publish app state")
		return false
	}

	r.counters.emitted.Add(1)
	r.counters.lastEmission.Store(r.opts.now().UnixNano())
	r.opts.log.Debug().Int("transitions", state.TransitionCount).Msg("Published app state")

	return true
}

// Stats implements StatsProvider. Buffer fields report the recent history.
func (r *AppReporter) Stats() Stats {
	s := Stats{
		Name:      "app",
		Stream:    string(feature.StreamApp),
		BufferLen: len(r.tracker.RecentEvents()),
		BufferCap: usage.RecentCapacity,
	}
	r.counters.fill(&s)

	return s
}
