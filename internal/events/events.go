// Package events defines the raw human-input events consumed by the
// extractors and decodes them from their JSON wire form.
package events

import "time"

// KeyAction distinguishes key presses from releases.
type KeyAction uint8

const (
	KeyPress KeyAction = iota + 1
	KeyRelease
)

func (a KeyAction) String() string {
	switch a {
	case KeyPress:
		return "press"
	case KeyRelease:
		return "release"
	default:
		return "unknown"
	}
}

// KeystrokeEvent is a single key transition. Timestamp is in seconds.
type KeystrokeEvent struct {
	Timestamp float64
	Key       string
	Action    KeyAction
}

// EventTime implements buffer.Timestamped.
func (e KeystrokeEvent) EventTime() float64 { return e.Timestamp }

// Press returns a key press event.
func Press(ts float64, key string) KeystrokeEvent {
	return KeystrokeEvent{Timestamp: ts, Key: key, Action: KeyPress}
}

// Release returns a key release event.
func Release(ts float64, key string) KeystrokeEvent {
	return KeystrokeEvent{Timestamp: ts, Key: key, Action: KeyRelease}
}

// PointerKind tags which payload of a PointerEvent is populated.
type PointerKind uint8

const (
	PointerMove PointerKind = iota + 1
	PointerPress
	PointerRelease
	PointerScroll
)

func (k PointerKind) String() string {
	switch k {
	case PointerMove:
		return "move"
	case PointerPress:
		return "press"
	case PointerRelease:
		return "release"
	case PointerScroll:
		return "scroll"
	default:
		return "unknown"
	}
}

// PointerEvent is a tagged union over pointer activity. Exactly one payload
// is meaningful per Kind: X/Y for moves, Button for presses and releases,
// ScrollDelta for scrolls. Build values with the constructors below.
type PointerEvent struct {
	Timestamp   float64
	Kind        PointerKind
	X, Y        float64
	Button      string
	ScrollDelta float64
}

// EventTime implements buffer.Timestamped.
func (e PointerEvent) EventTime() float64 { return e.Timestamp }

// Move returns a pointer movement sample.
func Move(ts, x, y float64) PointerEvent {
	return PointerEvent{Timestamp: ts, Kind: PointerMove, X: x, Y: y}
}

// ButtonPress returns a button press.
func ButtonPress(ts float64, button string) PointerEvent {
	return PointerEvent{Timestamp: ts, Kind: PointerPress, Button: button}
}

// ButtonRelease returns a button release.
func ButtonRelease(ts float64, button string) PointerEvent {
	return PointerEvent{Timestamp: ts, Kind: PointerRelease, Button: button}
}

// Scroll returns a wheel event; positive deltas scroll up.
func Scroll(ts, delta float64) PointerEvent {
	return PointerEvent{Timestamp: ts, Kind: PointerScroll, ScrollDelta: delta}
}

// AppSwitchEvent records the foreground application changing.
type AppSwitchEvent struct {
	Timestamp float64
	App       string
}

// Seconds converts t to fractional seconds since the Unix epoch, the clock
// used by every event timestamp.
func Seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// Time converts fractional epoch seconds back to a time.Time.
func Time(seconds float64) time.Time {
	return time.Unix(0, int64(seconds*1e9))
}
