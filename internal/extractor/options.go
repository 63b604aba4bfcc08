package extractor

import (
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/logger"
)

type options struct {
	recorder Recorder
	log      logger.Logger
	now      func() time.Time
}

// Option configures an Extractor or AppReporter.
type Option func(*options)

// WithRecorder persists every emitted vector.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithLogger sets the component logger. The default discards.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{
		log: logger.Nop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}
