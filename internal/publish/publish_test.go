package publish_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/Bhuvan-2005/SecLyzer/internal/feature"
	"github.com/Bhuvan-2005/SecLyzer/internal/publish"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisherDeliversJSON(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx := context.Background()

	p, err := publish.DialRedis(ctx, &redis.Options{Addr: srv.Addr()})
	require.NoError(t, err)
	defer p.Close()

	sub := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer sub.Close()
	ps := sub.Subscribe(ctx, "seclyzer:features:keystroke")
	defer ps.Close()
	_, err = ps.Receive(ctx)
	require.NoError(t, err)

	v := feature.Vector{
		Timestamp: time.Unix(1_700_000_000, 0),
		Stream:    feature.StreamKeystroke,
		Features:  map[string]float64{"total_keys": 12},
	}
	require.NoError(t, p.Publish(ctx, "seclyzer:features:keystroke", v))

	select {
	case msg := <-ps.Channel():
		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "keystroke", got["event_type"])
		assert.Equal(t, 12.0, got["total_keys"])
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestDialRedisUnavailable(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	_, err := publish.DialRedis(context.Background(), &redis.Options{Addr: addr, MaxRetries: -1})
	require.Error(t, err)
	assert.Equal(t, errors.ErrUnavailable, errors.CodeOf(err))
}

func TestRedisPublisherFailure(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr(), MaxRetries: -1})
	defer client.Close()

	p := publish.NewRedis(client)
	srv.Close()

	err := p.Publish(context.Background(), "c", map[string]int{"a": 1})
	require.Error(t, err)
	assert.Equal(t, errors.ErrPublish, errors.CodeOf(err))
	assert.NoError(t, p.Close())
}

func TestRedisPublisherEncodeFailure(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	err := publish.NewRedis(client).Publish(context.Background(), "c", make(chan int))
	require.Error(t, err)
	assert.Equal(t, errors.ErrEncodePayload, errors.CodeOf(err))
}

func TestWriterPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := publish.NewWriter(&buf)

	require.NoError(t, p.Publish(context.Background(), "a", map[string]float64{"x": 1}))
	require.NoError(t, p.Publish(context.Background(), "b", []int{1, 2}))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var msg publish.Message
	require.NoError(t, json.Unmarshal(lines[0], &msg))
	assert.Equal(t, "a", msg.Channel)
	assert.Equal(t, map[string]any{"x": 1.0}, msg.Payload)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Publish(ctx, "c", 1)
	assert.Equal(t, errors.ErrTimeout, errors.CodeOf(err))
}

type failing struct{ closed bool }

func (f *failing) Publish(context.Context, string, any) error {
	return errors.New().New(errors.ErrPublish)
}

func (f *failing) Close() error {
	f.closed = true
	return nil
}

func TestFanoutDeliversDespiteFailures(t *testing.T) {
	var buf bytes.Buffer
	bad := &failing{}
	f := publish.Fanout{bad, publish.NewWriter(&buf)}

	err := f.Publish(context.Background(), "ch", 1)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrPublish))
	assert.Contains(t, buf.String(), `"channel":"ch"`)

	require.NoError(t, f.Close())
	assert.True(t, bad.closed)
}
