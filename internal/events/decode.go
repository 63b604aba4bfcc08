package events

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/raw_event.json
var rawEventSchema string

const schemaURL = "seclyzer://schema/raw_event.json"

// Bounds on pointer payloads, shared with the embedded schema.
const (
	MaxCoordinate  = 10000.0
	MaxScrollDelta = 1000.0
)

// Wire values of the "type" field.
const (
	TypeKeystroke = "keystroke"
	TypePointer   = "mouse"
	TypeApp       = "app"
)

// Kind identifies which payload an Envelope carries.
type Kind uint8

const (
	KindKeystroke Kind = iota + 1
	KindPointer
	KindApp
)

func (k Kind) String() string {
	switch k {
	case KindKeystroke:
		return TypeKeystroke
	case KindPointer:
		return TypePointer
	case KindApp:
		return TypeApp
	default:
		return "unknown"
	}
}

// Envelope is a decoded raw event. Only the field matching Kind is set.
type Envelope struct {
	Kind      Kind
	Keystroke KeystrokeEvent
	Pointer   PointerEvent
	App       AppSwitchEvent
}

// Timestamp returns the timestamp of the carried event in seconds.
func (e Envelope) Timestamp() float64 {
	switch e.Kind {
	case KindKeystroke:
		return e.Keystroke.Timestamp
	case KindPointer:
		return e.Pointer.Timestamp
	case KindApp:
		return e.App.Timestamp
	default:
		return 0
	}
}

type wireEvent struct {
	Type        string   `json:"type"`
	TS          float64  `json:"ts"`
	Event       string   `json:"event"`
	Key         string   `json:"key"`
	X           *float64 `json:"x"`
	Y           *float64 `json:"y"`
	Button      *string  `json:"button"`
	ScrollDelta *float64 `json:"scroll_delta"`
	AppName     string   `json:"app_name"`
}

// DecoderOptions configures a Decoder.
type DecoderOptions struct {
	// Validate checks each payload against the embedded JSON schema before
	// structural decoding.
	Validate bool
	// MaxClockSkew rejects events whose timestamp is further than this from
	// the wall clock. Zero disables the check (used for replays).
	MaxClockSkew time.Duration
	// Now overrides the wall clock; nil means time.Now.
	Now func() time.Time
}

// Decoder turns wire payloads into Envelopes. It is safe for concurrent use.
type Decoder struct {
	schema  *jsonschema.Schema
	maxSkew float64
	now     func() time.Time
}

// NewDecoder compiles the schema when validation is requested.
func NewDecoder(opts DecoderOptions) (*Decoder, error) {
	errFactory := errors.New()

	d := &Decoder{
		maxSkew: opts.MaxClockSkew.Seconds(),
		now:     opts.Now,
	}
	if d.now == nil {
		d.now = time.Now
	}

	if opts.Validate {
		schema, err := jsonschema.CompileString(schemaURL, rawEventSchema)
		if err != nil {
			return nil, errFactory.Wrap(errors.ErrSchemaCompile, err)
		}
		d.schema = schema
	}

	return d, nil
}

// Decode parses one wire payload.
func (d *Decoder) Decode(data []byte) (Envelope, error) {
	errFactory := errors.New()

	if d.schema != nil {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var doc any
		if err := dec.Decode(&doc); err != nil {
			return Envelope{}, errFactory.Wrap(errors.ErrDecodeEvent, err)
		}
		if err := d.schema.Validate(doc); err != nil {
			return Envelope{}, errFactory.Wrap(errors.ErrSchemaValidate, err)
		}
	}

	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Envelope{}, errFactory.Wrap(errors.ErrDecodeEvent, err)
	}

	if w.TS <= 0 {
		return Envelope{}, errFactory.WithData(errors.ErrInvalidEvent, "ts must be positive")
	}
	ts := w.TS / 1e6

	if d.maxSkew > 0 {
		if skew := math.Abs(ts - Seconds(d.now())); skew > d.maxSkew {
			return Envelope{}, errFactory.WithData(errors.ErrClockSkew, struct {
				SkewSeconds float64
			}{skew})
		}
	}

	switch w.Type {
	case TypeKeystroke:
		return decodeKeystroke(w, ts)
	case TypePointer:
		return decodePointer(w, ts)
	case TypeApp:
		return decodeApp(w, ts)
	default:
		return Envelope{}, errFactory.WithData(errors.ErrUnknownEvent, w.Type)
	}
}

func decodeKeystroke(w wireEvent, ts float64) (Envelope, error) {
	errFactory := errors.New()

	if w.Key == "" {
		return Envelope{}, errFactory.WithData(errors.ErrInvalidEvent, "keystroke without key")
	}

	switch w.Event {
	case "press":
		return Envelope{Kind: KindKeystroke, Keystroke: Press(ts, w.Key)}, nil
	case "release":
		return Envelope{Kind: KindKeystroke, Keystroke: Release(ts, w.Key)}, nil
	default:
		return Envelope{}, errFactory.WithData(errors.ErrInvalidEvent, "keystroke event "+w.Event)
	}
}

func decodePointer(w wireEvent, ts float64) (Envelope, error) {
	errFactory := errors.New()

	var ev PointerEvent
	switch w.Event {
	case "move":
		if w.X == nil || w.Y == nil {
			return Envelope{}, errFactory.WithData(errors.ErrInvalidEvent, "move without position")
		}
		if !inRange(*w.X, 0, MaxCoordinate) || !inRange(*w.Y, 0, MaxCoordinate) {
			return Envelope{}, errFactory.WithData(errors.ErrInvalidEvent, "move position out of range")
		}
		ev = Move(ts, *w.X, *w.Y)
	case "press", "click", "release":
		if w.Button == nil || *w.Button == "" {
			return Envelope{}, errFactory.WithData(errors.ErrInvalidEvent, w.Event+" without button")
		}
		if w.Event == "release" {
			ev = ButtonRelease(ts, *w.Button)
		} else {
			ev = ButtonPress(ts, *w.Button)
		}
	case "scroll":
		if w.ScrollDelta == nil {
			return Envelope{}, errFactory.WithData(errors.ErrInvalidEvent, "scroll without delta")
		}
		if !inRange(*w.ScrollDelta, -MaxScrollDelta, MaxScrollDelta) {
			return Envelope{}, errFactory.WithData(errors.ErrInvalidEvent, "scroll delta out of range")
		}
		ev = Scroll(ts, *w.ScrollDelta)
	default:
		return Envelope{}, errFactory.WithData(errors.ErrInvalidEvent, "mouse event "+w.Event)
	}

	return Envelope{Kind: KindPointer, Pointer: ev}, nil
}

// inRange also rejects NaN.
func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func decodeApp(w wireEvent, ts float64) (Envelope, error) {
	name := SanitizeAppName(w.AppName)
	if name == "" {
		return Envelope{}, errors.New().WithData(errors.ErrInvalidEvent, "empty app name")
	}

	return Envelope{Kind: KindApp, App: AppSwitchEvent{Timestamp: ts, App: name}}, nil
}

var appNameReplacer = strings.NewReplacer(
	"<", "", ">", "", "&", "", `"`, "", "'", "", `\`, "", "/", "", "\x00", "",
)

// SanitizeAppName strips markup and path characters from an application
// name and trims surrounding whitespace.
func SanitizeAppName(name string) string {
	return strings.TrimSpace(appNameReplacer.Replace(name))
}
