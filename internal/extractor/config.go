package extractor

import (
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/Bhuvan-2005/SecLyzer/internal/feature"
)

// DefaultCleanupInterval is the age-eviction period.
const DefaultCleanupInterval = 60 * time.Second

// Config is the immutable configuration of one extractor.
type Config struct {
	Name            string
	Stream          feature.StreamType
	Channel         string // full emission channel, prefix included
	Capacity        int
	Window          time.Duration
	Interval        time.Duration
	CleanupInterval time.Duration
	PublishTimeout  time.Duration
}

func (c Config) validate() error {
	errFactory := errors.New()

	if c.Window <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, struct {
			Field string
			Value time.Duration
		}{"window", c.Window})
	}
	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, struct {
			Field string
			Value time.Duration
		}{"interval", c.Interval})
	}
	if c.CleanupInterval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, struct {
			Field string
			Value time.Duration
		}{"cleanup_interval", c.CleanupInterval})
	}

	return nil
}
