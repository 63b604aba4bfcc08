// Package keystroke computes typing-dynamics features over a trailing window
// of key events.
package keystroke

import (
	"fmt"
	"strings"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/events"
	"github.com/Bhuvan-2005/SecLyzer/internal/feature"
	"github.com/Bhuvan-2005/SecLyzer/internal/stats"
)

const (
	// MinEvents is the number of in-window events below which no vector is
	// produced.
	MinEvents = 10
	// BufferCapacity bounds the keystroke event buffer.
	BufferCapacity = 10000

	digraphCount = 20

	maxDwellMs    = 1000.0
	maxFlightMs   = 2000.0
	maxIntervalMs = 5000.0
)

var backspaceMarkers = []string{"Backspace", "BackSpace", "Delete"}

var rhythmNames = []string{
	"rhythm_consistency",
	"burst_frequency",
	"pause_frequency",
	"avg_burst_speed",
	"avg_pause_duration",
	"rhythm_variation",
	"typing_speed_wpm",
	"rhythm_stability",
}

var errorNames = []string{
	"backspace_frequency",
	"backspace_count",
	"correction_rate",
	"clean_typing_ratio",
}

// Calculator turns keystroke windows into feature vectors. It holds no state
// besides the window length and is safe for concurrent use.
type Calculator struct {
	window float64
}

// NewCalculator returns a Calculator for the given window length.
func NewCalculator(window time.Duration) *Calculator {
	return &Calculator{window: window.Seconds()}
}

// Names lists every feature a vector carries, in a stable order.
func Names() []string {
	names := make([]string, 0, 49)
	names = append(names, summaryNames("dwell")...)
	names = append(names, summaryNames("flight")...)
	for i := 0; i < digraphCount; i++ {
		names = append(names, digraphName(i))
	}
	names = append(names, errorNames...)
	names = append(names, rhythmNames...)
	names = append(names, "total_keys")

	return names
}

// Extract computes the feature set for events newer than now-window. The bool
// is false when fewer than MinEvents events fall in the window.
func (c *Calculator) Extract(evs []events.KeystrokeEvent, now float64) (feature.Set, bool) {
	cutoff := now - c.window
	recent := make([]events.KeystrokeEvent, 0, len(evs))
	for _, e := range evs {
		if e.Timestamp > cutoff {
			recent = append(recent, e)
		}
	}
	if len(recent) < MinEvents {
		return nil, false
	}

	presses := pressTimes(recent)
	out := make(feature.Set, 49)

	putSummary(out, "dwell", dwellTimes(recent))
	putSummary(out, "flight", pressGaps(presses, maxFlightMs))

	digraphs := stats.Sorted(pressGaps(presses, maxFlightMs))
	for i := 0; i < digraphCount; i++ {
		if i < len(digraphs) {
			out[digraphName(i)] = digraphs[i]
		} else {
			out[digraphName(i)] = 0
		}
	}

	putErrorPatterns(out, recent, len(presses))
	putRhythm(out, pressGaps(presses, maxIntervalMs))
	out["total_keys"] = float64(len(presses))

	return out, true
}

// dwellTimes pairs each release with the pending press of the same key. A
// repeated press before release replaces the pending timestamp.
func dwellTimes(evs []events.KeystrokeEvent) []float64 {
	var out []float64
	pending := make(map[string]float64)

	for _, e := range evs {
		switch e.Action {
		case events.KeyPress:
			pending[e.Key] = e.Timestamp
		case events.KeyRelease:
			pressed, ok := pending[e.Key]
			if !ok {
				continue
			}
			delete(pending, e.Key)
			if dwell := (e.Timestamp - pressed) * 1000; dwell > 0 && dwell < maxDwellMs {
				out = append(out, dwell)
			}
		}
	}

	return out
}

func pressTimes(evs []events.KeystrokeEvent) []float64 {
	var out []float64
	for _, e := range evs {
		if e.Action == events.KeyPress {
			out = append(out, e.Timestamp)
		}
	}

	return out
}

// pressGaps returns successive press deltas in ms within (0, limit).
func pressGaps(presses []float64, limit float64) []float64 {
	var out []float64
	for i := 1; i < len(presses); i++ {
		if gap := (presses[i] - presses[i-1]) * 1000; gap > 0 && gap < limit {
			out = append(out, gap)
		}
	}

	return out
}

func putErrorPatterns(out feature.Set, evs []events.KeystrokeEvent, total int) {
	backspaces := 0
	for _, e := range evs {
		if e.Action == events.KeyPress && isBackspace(e.Key) {
			backspaces++
		}
	}

	clean := float64(total - backspaces)
	out["backspace_frequency"] = stats.Ratio(float64(backspaces), float64(total), 1)
	out["backspace_count"] = float64(backspaces)
	out["correction_rate"] = stats.Ratio(float64(backspaces), clean, 1)
	out["clean_typing_ratio"] = stats.Ratio(clean, float64(total), 1)
}

func isBackspace(key string) bool {
	for _, marker := range backspaceMarkers {
		if strings.Contains(key, marker) {
			return true
		}
	}

	return false
}

func putRhythm(out feature.Set, intervals []float64) {
	if len(intervals) == 0 {
		out.Zero(rhythmNames...)
		return
	}

	threshold := stats.Median(intervals)
	var bursts, pauses []float64
	for _, v := range intervals {
		if v < threshold {
			bursts = append(bursts, v)
		} else {
			pauses = append(pauses, v)
		}
	}

	n := float64(len(intervals))
	mean := stats.Mean(intervals)
	std := stats.StdDev(intervals)

	out["rhythm_consistency"] = 1 - stats.Ratio(std, mean, 1)
	out["burst_frequency"] = float64(len(bursts)) / n
	out["pause_frequency"] = float64(len(pauses)) / n
	out["avg_burst_speed"] = stats.Mean(bursts)
	out["avg_pause_duration"] = stats.Mean(pauses)
	out["rhythm_variation"] = std
	out["typing_speed_wpm"] = stats.Ratio(60000, mean, 1) / 5
	out["rhythm_stability"] = 1 / (1 + stats.Variance(intervals))
}

func putSummary(out feature.Set, prefix string, values []float64) {
	s := stats.Summarize(values)
	out[prefix+"_mean"] = s.Mean
	out[prefix+"_std"] = s.StdDev
	out[prefix+"_min"] = s.Min
	out[prefix+"_max"] = s.Max
	out[prefix+"_median"] = s.Median
	out[prefix+"_q25"] = s.Q25
	out[prefix+"_q75"] = s.Q75
	out[prefix+"_range"] = s.Range
}

func summaryNames(prefix string) []string {
	suffixes := []string{"mean", "std", "min", "max", "median", "q25", "q75", "range"}
	names := make([]string, len(suffixes))
	for i, s := range suffixes {
		names[i] = prefix + "_" + s
	}

	return names
}

func digraphName(i int) string {
	return fmt.Sprintf("digraph_%d", i)
}
