package events

import "encoding/json"

// Marshal renders an Envelope in wire form. Timestamps are written as
// integer microseconds.
func Marshal(e Envelope) ([]byte, error) {
	w := map[string]any{"ts": int64(e.Timestamp()*1e6 + 0.5)}

	switch e.Kind {
	case KindKeystroke:
		w["type"] = TypeKeystroke
		w["key"] = e.Keystroke.Key
		w["event"] = e.Keystroke.Action.String()
	case KindPointer:
		w["type"] = TypePointer
		p := e.Pointer
		w["event"] = p.Kind.String()
		switch p.Kind {
		case PointerMove:
			w["x"], w["y"] = p.X, p.Y
		case PointerPress, PointerRelease:
			w["button"] = p.Button
		case PointerScroll:
			w["scroll_delta"] = p.ScrollDelta
		}
	case KindApp:
		w["type"] = TypeApp
		w["app_name"] = e.App.App
	}

	return json.Marshal(w)
}
