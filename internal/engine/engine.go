// Package engine assembles ingestion, the per-stream extractors and the app
// reporter into one pipeline that can run live or over a recorded capture.
package engine

import (
	"context"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/Bhuvan-2005/SecLyzer/internal/events"
	"github.com/Bhuvan-2005/SecLyzer/internal/extractor"
	"github.com/Bhuvan-2005/SecLyzer/internal/feature"
	"github.com/Bhuvan-2005/SecLyzer/internal/ingest"
	"github.com/Bhuvan-2005/SecLyzer/internal/keystroke"
	"github.com/Bhuvan-2005/SecLyzer/internal/logger"
	"github.com/Bhuvan-2005/SecLyzer/internal/pointer"
	"github.com/Bhuvan-2005/SecLyzer/internal/publish"
	"github.com/Bhuvan-2005/SecLyzer/internal/usage"
	"golang.org/x/sync/errgroup"
)

// Recorder persists what the pipeline produces. store.Store satisfies it.
type Recorder interface {
	extractor.Recorder
	ingest.TransitionRecorder
}

type Options struct {
	Window          time.Duration
	Interval        time.Duration
	CleanupInterval time.Duration
	AppInterval     time.Duration
	PublishTimeout  time.Duration
	ChannelPrefix   string
	Decoder         events.DecoderOptions

	Recorder Recorder         // optional
	Clock    func() time.Time // nil means time.Now
	Log      logger.Logger    // nil means a component logger per stage
}

func (o Options) logFor(component string) logger.Logger {
	if o.Log != nil {
		return o.Log
	}

	return logger.With(component)
}

type Engine struct {
	Tracker    *usage.Tracker
	Dispatcher *ingest.Dispatcher
	Keystroke  *extractor.Extractor[events.KeystrokeEvent]
	Pointer    *extractor.Extractor[events.PointerEvent]
	App        *extractor.AppReporter

	opts        Options
	log         logger.Logger
	replayClock *EventClock
}

func New(opts Options, pub publish.Publisher) (*Engine, error) {
	errFactory := errors.New()

	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Decoder.Now == nil {
		opts.Decoder.Now = opts.Clock
	}

	decoder, err := events.NewDecoder(opts.Decoder)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInitFailed, err)
	}

	tracker := usage.New(usage.WithClock(opts.Clock))

	stageOpts := func(component string) []extractor.Option {
		o := []extractor.Option{extractor.WithClock(opts.Clock), extractor.WithLogger(opts.logFor(component))}
		if opts.Recorder != nil {
			o = append(o, extractor.WithRecorder(opts.Recorder))
		}
		return o
	}

	ks, err := extractor.New[events.KeystrokeEvent](
		extractor.Config{
			Name:            "keystroke",
			Stream:          feature.StreamKeystroke,
			Channel:         opts.ChannelPrefix + feature.ChannelKeystroke,
			Capacity:        keystroke.BufferCapacity,
			Window:          opts.Window,
			Interval:        opts.Interval,
			CleanupInterval: opts.CleanupInterval,
			PublishTimeout:  opts.PublishTimeout,
		},
		keystroke.NewCalculator(opts.Window),
		pub,
		stageOpts("keystroke")...,
	)
	if err != nil {
		return nil, err
	}

	pt, err := extractor.New[events.PointerEvent](
		extractor.Config{
			Name:            "pointer",
			Stream:          feature.StreamPointer,
			Channel:         opts.ChannelPrefix + feature.ChannelPointer,
			Capacity:        pointer.BufferCapacity,
			Window:          opts.Window,
			Interval:        opts.Interval,
			CleanupInterval: opts.CleanupInterval,
			PublishTimeout:  opts.PublishTimeout,
		},
		pointer.NewCalculator(opts.Window),
		pub,
		stageOpts("pointer")...,
	)
	if err != nil {
		return nil, err
	}

	app, err := extractor.NewAppReporter(
		tracker, pub, opts.ChannelPrefix+feature.ChannelApp, opts.AppInterval, opts.PublishTimeout,
		extractor.WithClock(opts.Clock), extractor.WithLogger(opts.logFor("app")),
	)
	if err != nil {
		return nil, err
	}

	sinks := ingest.Sinks{Keystroke: ks, Pointer: pt, Tracker: tracker}
	if opts.Recorder != nil {
		sinks.Transitions = opts.Recorder
	}

	return &Engine{
		Tracker:    tracker,
		Dispatcher: ingest.NewDispatcher(decoder, sinks, opts.logFor("ingest")),
		Keystroke:  ks,
		Pointer:    pt,
		App:        app,
		opts:       opts,
		log:        opts.logFor("engine"),
	}, nil
}

// StatsProviders lists the emitters in a stable order.
func (e *Engine) StatsProviders() []extractor.StatsProvider {
	return []extractor.StatsProvider{e.Keystroke, e.Pointer, e.App}
}

// Run feeds src into the pipeline and drives the wall-clock ticks until ctx
// is done or the source fails.
func (e *Engine) Run(ctx context.Context, src ingest.Source) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return e.Keystroke.Run(ctx) })
	g.Go(func() error { return e.Pointer.Run(ctx) })
	g.Go(func() error { return e.App.Run(ctx) })
	g.Go(func() error {
		err := src.Run(ctx, e.Dispatcher.Handle)
		if err != nil && ctx.Err() == nil {
			return errors.New().Wrap(errors.ErrMainLoop, err)
		}
		return err
	})

	err := g.Wait()
	if err != nil && errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
