package feature_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorMarshalsFlat(t *testing.T) {
	v := feature.Vector{
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC),
		Stream:    feature.StreamKeystroke,
		Features:  map[string]float64{"dwell_mean": 50, "total_keys": 12},
	}

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "keystroke", flat["event_type"])
	assert.Equal(t, "2024-03-01T12:00:00.0000005Z", flat["timestamp"])
	assert.Equal(t, 50.0, flat["dwell_mean"])
	assert.Len(t, flat, 4)

	var back feature.Vector
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, v.Timestamp.Equal(back.Timestamp))
	assert.Equal(t, v.Stream, back.Stream)
	assert.Equal(t, v.Features, back.Features)
}

func TestStreamChannels(t *testing.T) {
	assert.Equal(t, "features:keystroke", feature.StreamKeystroke.Channel())
	assert.Equal(t, "features:pointer", feature.StreamPointer.Channel())
	assert.Equal(t, "features:app", feature.StreamApp.Channel())

	s, ok := feature.ParseStream("pointer")
	assert.True(t, ok)
	assert.Equal(t, feature.StreamPointer, s)

	_, ok = feature.ParseStream("gpu")
	assert.False(t, ok)
}

func TestNamesSorted(t *testing.T) {
	v := feature.Vector{Features: map[string]float64{"b": 1, "a": 2, "c": 3}}
	assert.Equal(t, []string{"a", "b", "c"}, v.Names())
}
