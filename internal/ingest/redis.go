package ingest

import (
	"context"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/redis/go-redis/v9"
)

// RedisSource subscribes to a pub/sub channel carrying raw events.
type RedisSource struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisSource(client redis.UniversalClient, channel string) *RedisSource {
	return &RedisSource{client: client, channel: channel}
}

// Run subscribes and delivers messages until ctx is done. A closed
// subscription is reported as ErrSourceFailed.
func (s *RedisSource) Run(ctx context.Context, handle Handler) error {
	errFactory := errors.New()

	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errFactory.Wrap(errors.ErrSubscribe, err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errFactory.WithData(errors.ErrSourceFailed, s.channel)
			}
			handle(ctx, []byte(msg.Payload))
		}
	}
}
