package publish

import (
	"context"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
)

// Fanout publishes every payload to each of its publishers. A failure of one
// does not prevent delivery to the others; the failures are joined.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, channel string, payload any) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, channel, payload); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
