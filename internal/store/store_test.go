package store_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/Bhuvan-2005/SecLyzer/internal/feature"
	"github.com/Bhuvan-2005/SecLyzer/internal/logger"
	"github.com/Bhuvan-2005/SecLyzer/internal/store"
	"github.com/Bhuvan-2005/SecLyzer/internal/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) store.Config {
	t.Helper()
	cfg := store.DefaultConfig()
	cfg.Enabled = true
	cfg.Path = filepath.Join(t.TempDir(), "features.db")
	cfg.BatchTimeout = time.Hour
	cfg.Retention = 0
	return cfg
}

func open(t *testing.T, cfg store.Config) store.Store {
	t.Helper()
	s, err := store.New(cfg, logger.Nop())
	require.NoError(t, err)
	require.True(t, s.Enabled())
	return s
}

func vector(ts time.Time, stream feature.StreamType, features map[string]float64) feature.Vector {
	return feature.Vector{Timestamp: ts, Stream: stream, Features: features}
}

func TestDisabledStoreIsNoop(t *testing.T) {
	s, err := store.New(store.DefaultConfig(), logger.Nop())
	require.NoError(t, err)

	assert.False(t, s.Enabled())
	assert.NoError(t, s.RecordVector(context.Background(), feature.Vector{}))
	got, err := s.QueryRange(context.Background(), feature.StreamKeystroke, time.Time{}, time.Now())
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, s.Close())
}

func TestInvalidConfig(t *testing.T) {
	cfg := store.DefaultConfig()
	cfg.Enabled = true
	cfg.Path = ""

	_, err := store.New(cfg, logger.Nop())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, store.ErrInvalidDBPath))
}

func TestRecordAndQueryRange(t *testing.T) {
	s := open(t, testConfig(t))
	defer s.Close()
	ctx := context.Background()

	t0 := time.Unix(1_700_000_000, 0)
	require.NoError(t, s.RecordVector(ctx, vector(t0, feature.StreamKeystroke, map[string]float64{"dwell_mean": 50, "total_keys": 12})))
	require.NoError(t, s.RecordVector(ctx, vector(t0.Add(5*time.Second), feature.StreamKeystroke, map[string]float64{"dwell_mean": 55, "total_keys": 14})))
	require.NoError(t, s.RecordVector(ctx, vector(t0.Add(5*time.Second), feature.StreamPointer, map[string]float64{"move_0": 120})))

	// pending records are flushed before reading
	got, err := s.QueryRange(ctx, feature.StreamKeystroke, t0, t0.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, t0.Equal(got[0].Timestamp))
	assert.Equal(t, map[string]float64{"dwell_mean": 50, "total_keys": 12}, got[0].Features)
	assert.Equal(t, feature.StreamKeystroke, got[1].Stream)
	assert.Equal(t, 55.0, got[1].Features["dwell_mean"])

	got, err = s.QueryRange(ctx, feature.StreamKeystroke, t0.Add(time.Second), t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.QueryRange(ctx, feature.StreamPointer, t0, t0.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 120.0, got[0].Features["move_0"])
}

func TestRecordRejectsEmptyVector(t *testing.T) {
	s := open(t, testConfig(t))
	defer s.Close()

	err := s.RecordVector(context.Background(), feature.Vector{Stream: feature.StreamKeystroke})
	assert.Equal(t, store.ErrInvalidRecord, errors.CodeOf(err))
}

func TestTransitions(t *testing.T) {
	s := open(t, testConfig(t))
	defer s.Close()
	ctx := context.Background()

	base := 1_700_000_000.0
	require.NoError(t, s.RecordTransition(ctx, usage.Transition{From: "editor", To: "browser", Duration: 12.5, Timestamp: base}))
	require.NoError(t, s.RecordTransition(ctx, usage.Transition{From: "browser", To: "editor", Duration: 3, Timestamp: base + 3}))

	got, err := s.QueryTransitions(ctx, time.Unix(1_700_000_000, 0), time.Unix(1_700_000_100, 0))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "editor", got[0].From)
	assert.Equal(t, "browser", got[0].To)
	assert.InDelta(t, 12.5, got[0].Duration, 1e-9)
	assert.InDelta(t, base+3, got[1].Timestamp, 1e-3)
}

func TestBatchFlushesWhenFull(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 2
	s := open(t, cfg)
	ctx := context.Background()

	t0 := time.Unix(1_700_000_000, 0)
	require.NoError(t, s.RecordVector(ctx, vector(t0, feature.StreamKeystroke, map[string]float64{"a": 1})))
	require.NoError(t, s.RecordVector(ctx, vector(t0.Add(time.Second), feature.StreamKeystroke, map[string]float64{"a": 2})))

	// read through a second connection, bypassing the store's own flush
	db, err := sql.Open("sqlite3", cfg.Path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM feature_values`).Scan(&n))
	assert.Equal(t, 2, n)

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.Equal(t, store.ErrClosed, errors.CodeOf(s.RecordVector(ctx, vector(t0, feature.StreamKeystroke, map[string]float64{"a": 1}))))
}

func TestCloseFlushesPending(t *testing.T) {
	cfg := testConfig(t)
	s := open(t, cfg)

	t0 := time.Unix(1_700_000_000, 0)
	require.NoError(t, s.RecordVector(context.Background(), vector(t0, feature.StreamPointer, map[string]float64{"move_0": 1})))
	require.NoError(t, s.Close())

	reopened := open(t, cfg)
	defer reopened.Close()

	got, err := reopened.QueryRange(context.Background(), feature.StreamPointer, t0, t0.Add(time.Second))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPrune(t *testing.T) {
	s := open(t, testConfig(t))
	defer s.Close()
	ctx := context.Background()

	t0 := time.Unix(1_700_000_000, 0)
	require.NoError(t, s.RecordVector(ctx, vector(t0, feature.StreamKeystroke, map[string]float64{"a": 1, "b": 2})))
	require.NoError(t, s.RecordVector(ctx, vector(t0.Add(time.Hour), feature.StreamKeystroke, map[string]float64{"a": 3})))
	require.NoError(t, s.RecordTransition(ctx, usage.Transition{From: "x", To: "y", Timestamp: 1_700_000_000}))

	// flush through a read
	_, err := s.QueryRange(ctx, feature.StreamKeystroke, t0, t0)
	require.NoError(t, err)

	n, err := s.Prune(ctx, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	got, err := s.QueryRange(ctx, feature.StreamKeystroke, t0, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3.0, got[0].Features["a"])
}

func TestSchemaVersionMismatchBacksUp(t *testing.T) {
	cfg := testConfig(t)
	cfg.BackupDir = filepath.Join(t.TempDir(), "backups")

	db, err := sql.Open("sqlite3", cfg.Path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE schema_versions (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL);
		INSERT INTO schema_versions VALUES (99, datetime('now'));
		CREATE TABLE feature_values (legacy TEXT);`)
	require.NoError(t, err)

	version, err := store.GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, 99, version)
	require.NoError(t, db.Close())

	s := open(t, cfg)
	defer s.Close()

	backups, err := os.ReadDir(cfg.BackupDir)
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	t0 := time.Unix(1_700_000_000, 0)
	require.NoError(t, s.RecordVector(context.Background(), vector(t0, feature.StreamKeystroke, map[string]float64{"a": 1})))
	got, err := s.QueryRange(context.Background(), feature.StreamKeystroke, t0, t0.Add(time.Second))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
