// Package feature defines the fixed-shape feature vectors emitted by the
// extractors and the logical channels they are published on.
package feature

import (
	"encoding/json"
	"sort"
	"time"
)

// StreamType tags the input stream a vector was computed from. The values are
// the wire "event_type" strings.
type StreamType string

const (
	StreamKeystroke StreamType = "keystroke"
	StreamPointer   StreamType = "mouse"
	StreamApp       StreamType = "app"
)

// Logical emission channels, before the configured prefix is applied.
const (
	ChannelKeystroke = "features:keystroke"
	ChannelPointer   = "features:pointer"
	ChannelApp       = "features:app"
)

// Channel returns the logical channel for a stream.
func (s StreamType) Channel() string {
	switch s {
	case StreamKeystroke:
		return ChannelKeystroke
	case StreamPointer:
		return ChannelPointer
	default:
		return ChannelApp
	}
}

// ParseStream maps a stream name to its StreamType. "pointer" is accepted as a
// synonym of the wire name "mouse".
func ParseStream(name string) (StreamType, bool) {
	switch name {
	case string(StreamKeystroke):
		return StreamKeystroke, true
	case string(StreamPointer), "pointer":
		return StreamPointer, true
	case string(StreamApp):
		return StreamApp, true
	default:
		return "", false
	}
}

// Vector is one computed feature set.
type Vector struct {
	Timestamp time.Time
	Stream    StreamType
	Features  map[string]float64
}

// Names returns the feature names in sorted order.
func (v Vector) Names() []string {
	names := make([]string, 0, len(v.Features))
	for name := range v.Features {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// MarshalJSON renders the vector as a flat object: the timestamp and stream tag
// followed by every feature as a top-level number.
func (v Vector) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(v.Features)+2)
	for name, value := range v.Features {
		flat[name] = value
	}
	flat["timestamp"] = v.Timestamp.UTC().Format(time.RFC3339Nano)
	flat["event_type"] = string(v.Stream)

	return json.Marshal(flat)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	out := Vector{Features: make(map[string]float64, len(flat))}
	for key, raw := range flat {
		switch key {
		case "timestamp":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return err
			}
			ts, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return err
			}
			out.Timestamp = ts
		case "event_type":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return err
			}
			out.Stream = StreamType(s)
		default:
			var f float64
			if err := json.Unmarshal(raw, &f); err != nil {
				return err
			}
			out.Features[key] = f
		}
	}

	*v = out
	return nil
}

// Set is a builder used by calculators to fill a feature map.
type Set map[string]float64

// Zero sets every name to 0.
func (s Set) Zero(names ...string) {
	for _, name := range names {
		s[name] = 0
	}
}
