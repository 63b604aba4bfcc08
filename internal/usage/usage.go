// Package usage tracks foreground-application switches and derives transition
// probabilities, time-of-day preferences and session statistics.
//
// The transition, duration and hour maps are never pruned. They are keyed by
// application name, whose universe on a single host is small, so their growth
// is bounded in practice.
package usage

import (
	"sync"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/buffer"
	"github.com/Bhuvan-2005/SecLyzer/internal/stats"
)

// RecentCapacity bounds the recent switch history.
const RecentCapacity = 1000

// Event is one observed switch.
type Event struct {
	Timestamp float64 `json:"timestamp"`
	App       string  `json:"app_name"`
}

// EventTime implements buffer.Timestamped.
func (e Event) EventTime() float64 { return e.Timestamp }

// Pair is an ordered (from, to) application transition.
type Pair struct {
	From string
	To   string
}

func (p Pair) String() string {
	return p.From + "->" + p.To
}

// Transition describes a session closed by a switch.
type Transition struct {
	From      string
	To        string
	Duration  float64 // seconds spent in From
	Timestamp float64 // switch time
}

// AppUsage summarises the closed sessions of one application.
type AppUsage struct {
	TotalTime    float64 `json:"total_time_seconds"`
	AvgSession   float64 `json:"avg_session_seconds"`
	SessionCount int     `json:"session_count"`
}

// State is the aggregated report published on the app channel.
type State struct {
	CurrentApp       *string                    `json:"current_app"`
	TransitionMatrix map[string]float64         `json:"transition_matrix"`
	TimePreferences  map[string]map[int]float64 `json:"time_preferences"`
	UsageStats       map[string]AppUsage        `json:"usage_stats"`
	TransitionCount  int                        `json:"transition_count"`
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the wall clock used for hour-of-day bucketing.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// Tracker is the single-slot "current app" state machine. All methods are safe
// for concurrent use.
type Tracker struct {
	mu  sync.RWMutex
	now func() time.Time

	current      string
	currentStart float64
	active       bool

	transitions map[Pair]int
	durations   map[string][]float64
	hourly      map[string]map[int]int

	recent *buffer.Buffer[Event]
}

// New returns an empty Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		now:         time.Now,
		transitions: make(map[Pair]int),
		durations:   make(map[string][]float64),
		hourly:      make(map[string]map[int]int),
		recent:      buffer.New[Event](RecentCapacity),
	}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// HandleSwitch records app becoming the foreground application at ts. When a
// different application was active, the closed session is returned. Switching
// to the already active application restarts its session clock.
//
// The hour bucket comes from the tracker's clock at call time, not from ts.
func (t *Tracker) HandleSwitch(app string, ts float64) (Transition, bool) {
	hour := t.now().Hour()

	t.mu.Lock()
	defer t.mu.Unlock()

	var closed Transition
	recorded := false
	if t.active && t.current != app {
		closed = Transition{
			From:      t.current,
			To:        app,
			Duration:  ts - t.currentStart,
			Timestamp: ts,
		}
		t.transitions[Pair{From: t.current, To: app}]++
		t.durations[t.current] = append(t.durations[t.current], closed.Duration)
		recorded = true
	}

	t.current = app
	t.currentStart = ts
	t.active = true

	hours, ok := t.hourly[app]
	if !ok {
		hours = make(map[int]int)
		t.hourly[app] = hours
	}
	hours[hour]++

	t.recent.Add(Event{Timestamp: ts, App: app})

	return closed, recorded
}

// CurrentApp returns the active application, if any.
func (t *Tracker) CurrentApp() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.current, t.active
}

// Transitions returns a copy of the raw transition counts.
func (t *Tracker) Transitions() map[Pair]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[Pair]int, len(t.transitions))
	for k, v := range t.transitions {
		out[k] = v
	}

	return out
}

// TransitionMatrix returns P(to | from) keyed "from->to".
func (t *Tracker) TransitionMatrix() map[string]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.transitionMatrix()
}

func (t *Tracker) transitionMatrix() map[string]float64 {
	totals := make(map[string]int)
	for p, n := range t.transitions {
		totals[p.From] += n
	}

	out := make(map[string]float64, len(t.transitions))
	for p, n := range t.transitions {
		out[p.String()] = float64(n) / float64(totals[p.From])
	}

	return out
}

// TransitionProbability returns P(to | from), or 0 when from has never been
// left.
func (t *Tracker) TransitionProbability(from, to string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	total := 0
	for p, n := range t.transitions {
		if p.From == from {
			total += n
		}
	}
	if total == 0 {
		return 0
	}

	return float64(t.transitions[Pair{From: from, To: to}]) / float64(total)
}

// TimePreferences returns, per app, the share of its switches in each hour.
func (t *Tracker) TimePreferences() map[string]map[int]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.timePreferences()
}

func (t *Tracker) timePreferences() map[string]map[int]float64 {
	out := make(map[string]map[int]float64, len(t.hourly))
	for app, hours := range t.hourly {
		total := 0
		for _, n := range hours {
			total += n
		}
		prefs := make(map[int]float64, len(hours))
		for h, n := range hours {
			prefs[h] = float64(n) / float64(total)
		}
		out[app] = prefs
	}

	return out
}

// TimeProbability returns the share of app's switches that happened in hour.
func (t *Tracker) TimeProbability(app string, hour int) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	hours := t.hourly[app]
	total := 0
	for _, n := range hours {
		total += n
	}
	if total == 0 {
		return 0
	}

	return float64(hours[hour]) / float64(total)
}

// UsageStats summarises closed sessions per app. Apps with no closed session
// are absent.
func (t *Tracker) UsageStats() map[string]AppUsage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.usageStats()
}

func (t *Tracker) usageStats() map[string]AppUsage {
	out := make(map[string]AppUsage, len(t.durations))
	for app, d := range t.durations {
		if len(d) == 0 {
			continue
		}
		out[app] = AppUsage{
			TotalTime:    stats.Sum(d),
			AvgSession:   stats.Mean(d),
			SessionCount: len(d),
		}
	}

	return out
}

// State aggregates the tracker into a single report taken under one read lock.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := State{
		TransitionMatrix: t.transitionMatrix(),
		TimePreferences:  t.timePreferences(),
		UsageStats:       t.usageStats(),
		TransitionCount:  len(t.transitions),
	}
	if t.active {
		app := t.current
		s.CurrentApp = &app
	}

	return s
}

// RecentEvents returns the bounded switch history, oldest first.
func (t *Tracker) RecentEvents() []Event {
	return t.recent.Snapshot()
}
