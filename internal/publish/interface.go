package publish

import "context"

// Publisher delivers an emitted payload to a named channel. Implementations
// must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
	Close() error
}
