package store

import (
	"context"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/Bhuvan-2005/SecLyzer/internal/feature"
	"github.com/Bhuvan-2005/SecLyzer/internal/logger"
	"github.com/Bhuvan-2005/SecLyzer/internal/usage"
)

// No-op implementation
type noopStore struct{}

// New validates cfg and opens the store. A disabled store is a no-op that
// accepts and discards every record.
func New(cfg Config, log logger.Logger) (Store, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		log.Debug().Msg("Feature store disabled, using no-op store")
		return noopStore{}, nil
	}

	return NewRepository(cfg, log)
}

func (noopStore) RecordVector(context.Context, feature.Vector) error {
	return nil
}

func (noopStore) RecordTransition(context.Context, usage.Transition) error {
	return nil
}

func (noopStore) QueryRange(context.Context, feature.StreamType, time.Time, time.Time) ([]feature.Vector, error) {
	return nil, nil
}

func (noopStore) QueryTransitions(context.Context, time.Time, time.Time) ([]usage.Transition, error) {
	return nil, nil
}

func (noopStore) Prune(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (noopStore) Close() error {
	return nil
}

func (noopStore) Enabled() bool {
	return false
}
