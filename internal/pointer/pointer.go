// Package pointer computes pointer-dynamics features (movement kinematics,
// click and scroll patterns) over a trailing window of pointer events.
package pointer

import (
	"fmt"
	"math"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/events"
	"github.com/Bhuvan-2005/SecLyzer/internal/feature"
	"github.com/Bhuvan-2005/SecLyzer/internal/stats"
)

const (
	// MinEvents is the number of in-window events below which no vector is
	// produced.
	MinEvents = 50
	// BufferCapacity bounds the pointer event buffer.
	BufferCapacity = 50000

	moveFields   = 20
	clickFields  = 10
	scrollFields = 8

	minMoves = 3

	minDelta        = 0.001
	idleDelta       = 0.1
	maxVelocity     = 10000.0
	maxAcceleration = 100000.0
	maxJerk         = 1000000.0
	maxClickMs      = 5000.0
	doubleClickGap  = 0.5
)

// Button labels that are classified separately.
const (
	ButtonLeft   = "Left"
	ButtonRight  = "Right"
	ButtonMiddle = "Middle"
)

// Calculator turns pointer windows into feature vectors. It is safe for
// concurrent use.
type Calculator struct {
	window float64
}

// NewCalculator returns a Calculator for the given window length.
func NewCalculator(window time.Duration) *Calculator {
	return &Calculator{window: window.Seconds()}
}

// Names lists every feature a vector carries.
func Names() []string {
	names := make([]string, 0, moveFields+clickFields+scrollFields)
	names = append(names, indexed("move", moveFields)...)
	names = append(names, indexed("click", clickFields)...)
	names = append(names, indexed("scroll", scrollFields)...)

	return names
}

// Extract computes the feature set for events newer than now-window. The bool
// is false when fewer than MinEvents events fall in the window.
func (c *Calculator) Extract(evs []events.PointerEvent, now float64) (feature.Set, bool) {
	cutoff := now - c.window

	var moves, buttons, scrolls []events.PointerEvent
	total := 0
	for _, e := range evs {
		if e.Timestamp <= cutoff {
			continue
		}
		total++
		switch e.Kind {
		case events.PointerMove:
			moves = append(moves, e)
		case events.PointerPress, events.PointerRelease:
			buttons = append(buttons, e)
		case events.PointerScroll:
			scrolls = append(scrolls, e)
		}
	}
	if total < MinEvents {
		return nil, false
	}

	out := make(feature.Set, moveFields+clickFields+scrollFields)

	if len(moves) >= minMoves {
		c.putMovement(out, moves)
	} else {
		out.Zero(indexed("move", moveFields)...)
	}

	if len(buttons) > 0 {
		c.putClicks(out, buttons)
	} else {
		out.Zero(indexed("click", clickFields)...)
	}

	if len(scrolls) > 0 {
		c.putScrolls(out, scrolls)
	} else {
		out.Zero(indexed("scroll", scrollFields)...)
	}

	return out, true
}

// sample is a derivative value together with the time step it was taken over.
type sample struct {
	value float64
	dt    float64
}

func values(samples []sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.value
	}
	return out
}

// derive differentiates successive samples, dividing by the earlier sample's
// time step and dropping results whose magnitude reaches limit.
func derive(in []sample, limit float64) []sample {
	var out []sample
	for i := 1; i < len(in); i++ {
		d := (in[i].value - in[i-1].value) / in[i-1].dt
		if math.Abs(d) < limit {
			out = append(out, sample{value: d, dt: in[i-1].dt})
		}
	}
	return out
}

func (c *Calculator) putMovement(out feature.Set, moves []events.PointerEvent) {
	n := len(moves) - 1
	distances := make([]float64, n)
	deltas := make([]float64, n)
	var velocities []sample
	var angles []float64

	for i := 0; i < n; i++ {
		a, b := moves[i], moves[i+1]
		dx, dy := b.X-a.X, b.Y-a.Y
		distances[i] = math.Hypot(dx, dy)
		deltas[i] = math.Max(b.Timestamp-a.Timestamp, minDelta)

		if v := distances[i] / deltas[i]; v < maxVelocity {
			velocities = append(velocities, sample{value: v, dt: deltas[i]})
		}

		if i > 0 {
			prev := moves[i-1]
			before := math.Atan2(a.Y-prev.Y, a.X-prev.X)
			angles = append(angles, math.Abs(math.Atan2(dy, dx)-before))
		}
	}

	accel := derive(velocities, maxAcceleration)
	jerk := derive(accel, maxJerk)

	first, last := moves[0], moves[len(moves)-1]
	total := stats.Sum(distances)
	straight := math.Hypot(last.X-first.X, last.Y-first.Y)

	idle := 0
	for _, d := range deltas {
		if d > idleDelta {
			idle++
		}
	}

	v := values(velocities)
	a := values(accel)
	j := values(jerk)

	out["move_0"] = stats.Mean(v)
	out["move_1"] = stats.StdDev(v)
	out["move_2"] = stats.Max(v)
	out["move_3"] = stats.Median(v)
	out["move_4"] = stats.Mean(stats.Abs(a))
	out["move_5"] = stats.StdDev(a)
	out["move_6"] = stats.Max(stats.Abs(a))
	out["move_7"] = 1 - stats.Ratio(straight, total, 1)
	out["move_8"] = stats.Mean(angles)
	out["move_9"] = stats.StdDev(angles)
	out["move_10"] = stats.Mean(stats.Abs(j))
	out["move_11"] = stats.StdDev(j)
	out["move_12"] = total
	out["move_13"] = straight
	out["move_14"] = total / float64(len(moves))
	out["move_15"] = float64(idle) / float64(n)
	out["move_16"] = stats.Mean(deltas)
	out["move_17"] = stats.StdDev(deltas)
	out["move_18"] = stats.Ratio(straight, total, 1)
	out["move_19"] = float64(len(moves)) / c.window
}

func (c *Calculator) putClicks(out feature.Set, buttons []events.PointerEvent) {
	var durations, presses []float64
	var left, right, middle int
	pending := make(map[string]float64)

	for _, e := range buttons {
		switch e.Kind {
		case events.PointerPress:
			pending[e.Button] = e.Timestamp
			presses = append(presses, e.Timestamp)
			switch e.Button {
			case ButtonLeft:
				left++
			case ButtonRight:
				right++
			case ButtonMiddle:
				middle++
			}
		case events.PointerRelease:
			pressed, ok := pending[e.Button]
			if !ok {
				continue
			}
			delete(pending, e.Button)
			if ms := (e.Timestamp - pressed) * 1000; ms > 0 && ms < maxClickMs {
				durations = append(durations, ms)
			}
		}
	}

	doubles := 0
	sorted := stats.Sorted(presses)
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] < doubleClickGap {
			doubles++
		}
	}

	out["click_0"] = stats.Mean(durations)
	out["click_1"] = stats.StdDev(durations)
	out["click_2"] = float64(left)
	out["click_3"] = float64(right)
	out["click_4"] = float64(middle)
	out["click_5"] = stats.Ratio(float64(left), float64(left+right+middle), 1)
	out["click_6"] = float64(doubles)
	out["click_7"] = stats.Ratio(float64(doubles), float64(len(presses)), 1)
	out["click_8"] = float64(len(presses)) / c.window
	out["click_9"] = stats.Median(durations)
}

func (c *Calculator) putScrolls(out feature.Set, scrolls []events.PointerEvent) {
	deltas := make([]float64, len(scrolls))
	var up, down int
	var gaps []float64

	for i, e := range scrolls {
		deltas[i] = e.ScrollDelta
		switch {
		case e.ScrollDelta > 0:
			up++
		case e.ScrollDelta < 0:
			down++
		}
		if i > 0 {
			gaps = append(gaps, e.Timestamp-scrolls[i-1].Timestamp)
		}
	}

	out["scroll_0"] = stats.Mean(stats.Abs(deltas))
	out["scroll_1"] = stats.StdDev(deltas)
	out["scroll_2"] = float64(up)
	out["scroll_3"] = float64(down)
	out["scroll_4"] = float64(up) / float64(len(deltas))
	out["scroll_5"] = float64(len(scrolls)) / c.window
	out["scroll_6"] = stats.Mean(gaps)
	out["scroll_7"] = stats.StdDev(gaps)
}

func indexed(prefix string, n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%s_%d", prefix, i)
	}
	return names
}
