// Package buffer implements the bounded, time-ordered event queues that back
// each feature extractor.
package buffer

import "sync"

const minGrow = 64

// Timestamped is implemented by events that can be held in a Buffer.
// EventTime reports the event timestamp in seconds.
type Timestamped interface {
	EventTime() float64
}

// Buffer is a FIFO ring of events with a hard capacity. Appends past the
// capacity evict the oldest element; Cleanup trims an age-based prefix.
//
// All operations take the buffer's mutex only for the duration of the
// append, evict or copy, so feature computation over a Snapshot never blocks
// ingestion.
type Buffer[T Timestamped] struct {
	mu       sync.Mutex
	items    []T
	head     int
	size     int
	capacity int
}

// New returns an empty buffer holding at most capacity events. A
// non-positive capacity is treated as 1.
func New[T Timestamped](capacity int) *Buffer[T] {
	if capacity <= 0 {
		capacity = 1
	}

	return &Buffer[T]{capacity: capacity}
}

// Add appends e. It reports whether the oldest element was evicted to make
// room.
func (b *Buffer[T]) Add(e T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == b.capacity {
		b.items[b.head] = e
		b.head = (b.head + 1) % b.capacity
		return true
	}

	if b.size == len(b.items) {
		b.grow()
	}

	b.items[(b.head+b.size)%len(b.items)] = e
	b.size++

	return false
}

// Cleanup evicts events older than now - 2*windowSeconds, scanning from the
// oldest end and stopping at the first event still in range. It returns the
// number of events removed.
func (b *Buffer[T]) Cleanup(now, windowSeconds float64) int {
	cutoff := now - 2*windowSeconds

	b.mu.Lock()
	defer b.mu.Unlock()

	var zero T
	removed := 0
	for b.size > 0 && b.items[b.head].EventTime() < cutoff {
		b.items[b.head] = zero
		b.head = (b.head + 1) % len(b.items)
		b.size--
		removed++
	}

	if b.size == 0 {
		b.head = 0
	}

	return removed
}

// Snapshot returns an independent copy of the current contents, oldest first.
func (b *Buffer[T]) Snapshot() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.linear(b.size)
}

// Len returns the number of buffered events.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.size
}

// Cap returns the buffer capacity.
func (b *Buffer[T]) Cap() int {
	return b.capacity
}

// grow enlarges the backing ring, never beyond capacity. Caller holds mu.
func (b *Buffer[T]) grow() {
	n := len(b.items) * 2
	if n < minGrow {
		n = minGrow
	}
	if n > b.capacity {
		n = b.capacity
	}

	b.items = b.linear(n)[:n]
	b.head = 0
}

// linear copies the ring into a fresh slice of length size and capacity at
// least c. Caller holds mu.
func (b *Buffer[T]) linear(c int) []T {
	if c < b.size {
		c = b.size
	}

	out := make([]T, b.size, c)
	if b.size == 0 {
		return out
	}

	n := copy(out, b.items[b.head:min(b.head+b.size, len(b.items))])
	copy(out[n:], b.items[:b.size-n])

	return out
}
