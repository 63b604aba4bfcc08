package engine

import (
	"context"
	"sync"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/Bhuvan-2005/SecLyzer/internal/events"
	"github.com/Bhuvan-2005/SecLyzer/internal/ingest"
	"github.com/Bhuvan-2005/SecLyzer/internal/publish"
)

// EventClock is a settable clock for replays. The zero value reads as the
// zero time.
type EventClock struct {
	mu  sync.RWMutex
	now time.Time
}

func (c *EventClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.now
}

// Set moves the clock forward to t. Earlier times are ignored.
func (c *EventClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.After(c.now) {
		c.now = t
	}
}

// schedule tracks the next due time of one periodic tick in event time.
type schedule struct {
	every time.Duration
	next  time.Time
	last  time.Time // when it last fired
	fire  func(ctx context.Context, at time.Time)
}

// fireFinal runs s at t unless it already fired there.
func (s *schedule) fireFinal(ctx context.Context, t time.Time) {
	if s.last.Equal(t) {
		return
	}
	s.fire(ctx, t)
}

// replayer advances event time tick by tick as payloads arrive.
type replayer struct {
	e         *Engine
	clock     *EventClock
	schedules []*schedule
	started   bool
}

// NewReplay builds an engine driven by event time. Clock and the decoder's
// clock-skew check in opts are overridden.
func NewReplay(opts Options, pub publish.Publisher) (*Engine, error) {
	clock := &EventClock{}
	opts.Clock = clock.Now
	opts.Decoder.Now = clock.Now
	opts.Decoder.MaxClockSkew = 0

	e, err := New(opts, pub)
	if err != nil {
		return nil, err
	}
	e.replayClock = clock

	return e, nil
}

// Replay feeds src through an engine built by NewReplay. Ticks due at or
// before an event's timestamp fire before that event is routed; once the
// source is exhausted one final extraction and report run at the last event
// time, unless those ticks already fired exactly then.
func (e *Engine) Replay(ctx context.Context, src ingest.Source) error {
	if e.replayClock == nil {
		return errors.New().WithMessage(errors.ErrInvalidArgument, "engine was not built for replay")
	}

	clock := e.replayClock
	r := &replayer{
		e:     e,
		clock: clock,
		schedules: []*schedule{
			{every: e.opts.Interval, fire: e.extract},
			{every: e.opts.CleanupInterval, fire: e.cleanup},
			{every: e.opts.AppInterval, fire: e.report},
		},
	}

	e.log.Info().Msg("Replay started")

	if err := src.Run(ctx, r.handle); err != nil {
		return err
	}

	if r.started {
		last := clock.Now()
		extract, report := r.schedules[0], r.schedules[2]
		extract.fireFinal(ctx, last)
		report.fireFinal(ctx, last)
	}

	c := e.Dispatcher.Counters()
	e.log.Info().
		Uint64("keystroke", c.Keystroke).
		Uint64("pointer", c.Pointer).
		Uint64("app", c.App).
		Uint64("rejected", c.Rejected).
		Msg("Replay finished")

	return nil
}

func (r *replayer) handle(ctx context.Context, payload []byte) {
	env, err := r.e.Dispatcher.Decode(payload)
	if err != nil {
		return
	}

	r.advance(ctx, events.Time(env.Timestamp()))
	r.e.Dispatcher.Route(ctx, env)
}

func (r *replayer) advance(ctx context.Context, ts time.Time) {
	if !r.started {
		r.started = true
		r.clock.Set(ts)
		for _, s := range r.schedules {
			s.next = ts.Add(s.every)
		}
		return
	}

	for {
		var due *schedule
		for _, s := range r.schedules {
			if !s.next.After(ts) && (due == nil || s.next.Before(due.next)) {
				due = s
			}
		}
		if due == nil {
			break
		}

		r.clock.Set(due.next)
		due.fire(ctx, due.next)
		due.last = due.next
		due.next = due.next.Add(due.every)
	}

	r.clock.Set(ts)
}

func (e *Engine) extract(ctx context.Context, at time.Time) {
	e.Keystroke.ExtractAt(ctx, at)
	e.Pointer.ExtractAt(ctx, at)
}

func (e *Engine) cleanup(_ context.Context, at time.Time) {
	e.Keystroke.CleanupAt(at)
	e.Pointer.CleanupAt(at)
}

func (e *Engine) report(ctx context.Context, _ time.Time) {
	e.App.ReportOnce(ctx)
}
