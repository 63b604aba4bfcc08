// Package ingest moves raw events from a transport into the extractors.
package ingest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/Bhuvan-2005/SecLyzer/internal/events"
	"github.com/Bhuvan-2005/SecLyzer/internal/logger"
	"github.com/Bhuvan-2005/SecLyzer/internal/usage"
)

// rejectWarnEvery controls how often a summary warning is logged for
// rejected payloads; individual rejects are logged at debug.
const rejectWarnEvery = 1000

// Sinks are the destinations of decoded events. Nil sinks drop their events.
type Sinks struct {
	Keystroke   KeystrokeSink
	Pointer     PointerSink
	Tracker     *usage.Tracker
	Transitions TransitionRecorder
}

// Counters is a snapshot of dispatcher activity.
type Counters struct {
	Keystroke   uint64            `json:"keystroke"`
	Pointer     uint64            `json:"pointer"`
	App         uint64            `json:"app"`
	Transitions uint64            `json:"transitions"`
	Rejected    uint64            `json:"rejected"`
	RejectedBy  map[string]uint64 `json:"rejected_by_code"`
}

// Dispatcher decodes payloads and routes them to the sinks.
type Dispatcher struct {
	decoder *events.Decoder
	sinks   Sinks
	log     logger.Logger

	keystroke   atomic.Uint64
	pointer     atomic.Uint64
	app         atomic.Uint64
	transitions atomic.Uint64
	rejected    atomic.Uint64

	mu         sync.Mutex
	rejectedBy map[errors.ErrorCode]uint64
}

func NewDispatcher(decoder *events.Decoder, sinks Sinks, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}

	return &Dispatcher{
		decoder:    decoder,
		sinks:      sinks,
		log:        log,
		rejectedBy: make(map[errors.ErrorCode]uint64),
	}
}

// Handle implements Handler. Rejected payloads are counted and logged.
func (d *Dispatcher) Handle(ctx context.Context, payload []byte) {
	_, _ = d.Dispatch(ctx, payload)
}

// Dispatch decodes and routes one payload, returning the decoded envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, payload []byte) (events.Envelope, error) {
	env, err := d.Decode(payload)
	if err != nil {
		return events.Envelope{}, err
	}
	d.Route(ctx, env)

	return env, nil
}

// Decode decodes one payload without routing it. Failures are counted as
// rejects.
func (d *Dispatcher) Decode(payload []byte) (events.Envelope, error) {
	env, err := d.decoder.Decode(payload)
	if err != nil {
		d.reject(err)
		return events.Envelope{}, err
	}

	return env, nil
}

// Route delivers a decoded envelope to its sink.
func (d *Dispatcher) Route(ctx context.Context, env events.Envelope) {
	switch env.Kind {
	case events.KindKeystroke:
		d.keystroke.Add(1)
		if d.sinks.Keystroke != nil {
			d.sinks.Keystroke.Add(env.Keystroke)
		}
	case events.KindPointer:
		d.pointer.Add(1)
		if d.sinks.Pointer != nil {
			d.sinks.Pointer.Add(env.Pointer)
		}
	case events.KindApp:
		d.app.Add(1)
		d.handleSwitch(ctx, env.App)
	}
}

func (d *Dispatcher) handleSwitch(ctx context.Context, ev events.AppSwitchEvent) {
	if d.sinks.Tracker == nil {
		return
	}

	t, closed := d.sinks.Tracker.HandleSwitch(ev.App, ev.Timestamp)
	if !closed {
		return
	}

	d.transitions.Add(1)
	d.log.Debug().
		Str("from", t.From).
		Str("to", t.To).
		Float64("duration", t.Duration).
		Msg("App switch")

	if d.sinks.Transitions == nil {
		return
	}
	if err := d.sinks.Transitions.RecordTransition(ctx, t); err != nil {
		d.log.Warn().Err(err).Msg("Failed to record app transition")
	}
}

func (d *Dispatcher) reject(err error) {
	code := errors.CodeOf(err)
	n := d.rejected.Add(1)

	d.mu.Lock()
	d.rejectedBy[code]++
	d.mu.Unlock()

	d.log.Debug().Err(err).Str("error_code", string(code)).Msg("Rejected raw event")
	if n == 1 || n%rejectWarnEvery == 0 {
		d.log.Warn().Uint64("rejected", n).Msg("Raw events are being rejected")
	}
}

// Counters returns a snapshot of the dispatcher's counters.
func (d *Dispatcher) Counters() Counters {
	c := Counters{
		Keystroke:   d.keystroke.Load(),
		Pointer:     d.pointer.Load(),
		App:         d.app.Load(),
		Transitions: d.transitions.Load(),
		Rejected:    d.rejected.Load(),
	}

	d.mu.Lock()
	c.RejectedBy = make(map[string]uint64, len(d.rejectedBy))
	for code, n := range d.rejectedBy {
		c.RejectedBy[string(code)] = n
	}
	d.mu.Unlock()

	return c
}
