package buffer_test

import (
	"sync"
	"testing"

	"github.com/Bhuvan-2005/SecLyzer/internal/buffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stamp float64

func (s stamp) EventTime() float64 { return float64(s) }

func times(events []stamp) []float64 {
	out := make([]float64, len(events))
	for i, e := range events {
		out[i] = float64(e)
	}
	return out
}

func TestAddNeverExceedsCapacity(t *testing.T) {
	b := buffer.New[stamp](100)

	for i := 0; i < 1000; i++ {
		b.Add(stamp(i))
		require.LessOrEqual(t, b.Len(), 100)
	}

	snap := b.Snapshot()
	require.Len(t, snap, 100)
	assert.Equal(t, 900.0, float64(snap[0]), "oldest elements are evicted first")
	assert.Equal(t, 999.0, float64(snap[99]))
}

func TestAddReportsEviction(t *testing.T) {
	b := buffer.New[stamp](2)

	assert.False(t, b.Add(1))
	assert.False(t, b.Add(2))
	assert.True(t, b.Add(3))
	assert.Equal(t, []float64{2, 3}, times(b.Snapshot()))
}

func TestCleanupTrimsAgedPrefix(t *testing.T) {
	b := buffer.New[stamp](10_000)
	for i := 0; i < 200; i++ {
		b.Add(stamp(i))
	}

	// window 30s -> cutoff = 150 - 60 = 90
	removed := b.Cleanup(150, 30)

	assert.Equal(t, 90, removed)
	snap := b.Snapshot()
	require.NotEmpty(t, snap)
	assert.Equal(t, 90.0, float64(snap[0]), "elements at the cutoff are kept")
	for _, e := range snap {
		assert.GreaterOrEqual(t, float64(e), 90.0)
	}
}

func TestCleanupStopsAtFirstInRangeElement(t *testing.T) {
	b := buffer.New[stamp](10)
	for _, ts := range []float64{1, 2, 100, 3} {
		b.Add(stamp(ts))
	}

	removed := b.Cleanup(100, 10) // cutoff 80

	assert.Equal(t, 2, removed)
	assert.Equal(t, []float64{100, 3}, times(b.Snapshot()))
}

func TestCleanupAfterWrap(t *testing.T) {
	b := buffer.New[stamp](4)
	for i := 1; i <= 6; i++ {
		b.Add(stamp(i))
	}
	require.Equal(t, []float64{3, 4, 5, 6}, times(b.Snapshot()))

	removed := b.Cleanup(7, 1) // cutoff 5
	assert.Equal(t, 2, removed)
	assert.Equal(t, []float64{5, 6}, times(b.Snapshot()))

	b.Add(7)
	b.Add(8)
	b.Add(9)
	assert.Equal(t, []float64{6, 7, 8, 9}, times(b.Snapshot()))
}

func TestCleanupEmptiesBuffer(t *testing.T) {
	b := buffer.New[stamp](8)
	b.Add(1)
	b.Add(2)

	assert.Equal(t, 2, b.Cleanup(1000, 1))
	assert.Zero(t, b.Len())
	assert.Empty(t, b.Snapshot())

	b.Add(1001)
	assert.Equal(t, []float64{1001}, times(b.Snapshot()))
}

func TestSnapshotIsIndependent(t *testing.T) {
	b := buffer.New[stamp](4)
	b.Add(1)
	snap := b.Snapshot()
	snap[0] = 42

	assert.Equal(t, []float64{1}, times(b.Snapshot()))
}

func TestNonPositiveCapacity(t *testing.T) {
	b := buffer.New[stamp](0)
	b.Add(1)
	b.Add(2)

	assert.Equal(t, 1, b.Cap())
	assert.Equal(t, []float64{2}, times(b.Snapshot()))
}

func TestConcurrentAccess(t *testing.T) {
	b := buffer.New[stamp](500)
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 5000; i++ {
			b.Add(stamp(i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			b.Cleanup(float64(i*10), 5)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			snap := b.Snapshot()
			assert.LessOrEqual(t, len(snap), 500)
		}
	}()
	wg.Wait()

	assert.LessOrEqual(t, b.Len(), 500)
}
