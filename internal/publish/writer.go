package publish

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
)

// Message is the JSON line written by WriterPublisher.
type Message struct {
	Channel string `json:"channel"`
	Payload any    `json:"payload"`
}

// WriterPublisher writes one JSON object per payload to an io.Writer.
type WriterPublisher struct {
	mu  sync.Mutex
	enc *json.Encoder
	w   io.Writer
}

func NewWriter(w io.Writer) *WriterPublisher {
	return &WriterPublisher{enc: json.NewEncoder(w), w: w}
}

func (p *WriterPublisher) Publish(ctx context.Context, channel string, payload any) error {
	if err := ctx.Err(); err != nil {
		return errors.New().Wrap(errors.ErrTimeout, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.enc.Encode(Message{Channel: channel, Payload: payload}); err != nil {
		return errors.New().Wrap(errors.ErrPublish, err)
	}

	return nil
}

// Close closes the underlying writer when it is an io.Closer.
func (p *WriterPublisher) Close() error {
	if c, ok := p.w.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
