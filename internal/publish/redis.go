// Package publish implements the sinks feature vectors are emitted to.
package publish

import (
	"context"
	"encoding/json"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/redis/go-redis/v9"
)

// RedisPublisher JSON-encodes payloads and sends them with PUBLISH.
type RedisPublisher struct {
	client redis.UniversalClient
	owned  bool
}

// NewRedis wraps an existing client. Close does not close a borrowed client.
func NewRedis(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, opts *redis.Options) (*RedisPublisher, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.New().Wrap(errors.ErrUnavailable, err)
	}

	return &RedisPublisher{client: client, owned: true}, nil
}

// Client returns the underlying client so other components can share the
// connection pool.
func (p *RedisPublisher) Client() redis.UniversalClient {
	return p.client
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload any) error {
	errFactory := errors.New()

	data, err := json.Marshal(payload)
	if err != nil {
		return errFactory.Wrap(errors.ErrEncodePayload, err)
	}

	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		if ctx.Err() != nil {
			return errFactory.Wrap(errors.ErrTimeout, err)
		}
		return errFactory.Wrap(errors.ErrPublish, err)
	}

	return nil
}

func (p *RedisPublisher) Close() error {
	if !p.owned {
		return nil
	}

	return p.client.Close()
}
