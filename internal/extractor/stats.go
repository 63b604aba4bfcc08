package extractor

import (
	"sync/atomic"
	"time"
)

// Stats is a point-in-time view of an emitter's counters.
type Stats struct {
	Name            string     `json:"name"`
	Stream          string     `json:"stream"`
	BufferLen       int        `json:"buffer_len"`
	BufferCap       int        `json:"buffer_cap"`
	Ticks           uint64     `json:"ticks"`
	Emitted         uint64     `json:"emitted"`
	Insufficient    uint64     `json:"insufficient"`
	PublishFailures uint64     `json:"publish_failures"`
	RecordFailures  uint64     `json:"record_failures"`
	Overflowed      uint64     `json:"overflowed"`
	Expired         uint64     `json:"expired"`
	LastEmission    *time.Time `json:"last_emission,omitempty"`
}

type counters struct {
	ticks           atomic.Uint64
	emitted         atomic.Uint64
	insufficient    atomic.Uint64
	publishFailures atomic.Uint64
	recordFailures  atomic.Uint64
	overflowed      atomic.Uint64
	expired         atomic.Uint64
	lastEmission    atomic.Int64
}

func (c *counters) fill(s *Stats) {
	s.Ticks = c.ticks.Load()
	s.Emitted = c.emitted.Load()
	s.Insufficient = c.insufficient.Load()
	s.PublishFailures = c.publishFailures.Load()
	s.RecordFailures = c.recordFailures.Load()
	s.Overflowed = c.overflowed.Load()
	s.Expired = c.expired.Load()
	if ns := c.lastEmission.Load(); ns != 0 {
		t := time.Unix(0, ns)
		s.LastEmission = &t
	}
}
