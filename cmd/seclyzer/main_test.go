package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/feature"
	"github.com/Bhuvan-2005/SecLyzer/internal/logger"
	"github.com/Bhuvan-2005/SecLyzer/internal/status"
	"github.com/Bhuvan-2005/SecLyzer/internal/store"
	"github.com/Bhuvan-2005/SecLyzer/internal/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SECLYZER_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	configPath = ""

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "seclyzer dev\n", out)
}

func TestReplayCommand(t *testing.T) {
	var b strings.Builder
	base := int64(1_700_000_000_000_000)
	for i := int64(0); i < 15; i++ {
		fmt.Fprintf(&b, `{"type":"keystroke","ts":%d,"key":"KeyA","event":"press"}`+"\n", base+i*100_000)
		fmt.Fprintf(&b, `{"type":"keystroke","ts":%d,"key":"KeyA","event":"release"}`+"\n", base+i*100_000+40_000)
	}
	path := filepath.Join(t.TempDir(), "capture.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))

	out, err := execute(t, "replay", path, "--interval", "1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], `"channel":"seclyzer:features:keystroke"`)
	assert.Contains(t, lines[0], `"event_type":"keystroke"`)
}

func TestReplayRequiresFile(t *testing.T) {
	_, err := execute(t, "replay")
	assert.Error(t, err)
}

func TestQueryUnknownStream(t *testing.T) {
	_, err := execute(t, "query", "--stream", "gpu")
	assert.ErrorContains(t, err, "unknown stream")
}

func TestQueryYAML(t *testing.T) {
	cfg := store.DefaultConfig()
	cfg.Enabled = true
	cfg.Path = filepath.Join(t.TempDir(), "features.db")
	cfg.BatchSize = 0
	cfg.Retention = 0

	st, err := store.New(cfg, logger.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	now := time.Now()
	require.NoError(t, st.RecordVector(ctx, feature.Vector{
		Timestamp: now.Add(-time.Minute),
		Stream:    feature.StreamKeystroke,
		Features:  map[string]float64{"dwell_mean": 80, "total_keys": 12},
	}))
	require.NoError(t, st.RecordTransition(ctx, usage.Transition{
		From: "editor", To: "browser", Duration: 42, Timestamp: float64(now.Add(-time.Minute).Unix()),
	}))
	require.NoError(t, st.Close())

	out, err := execute(t, "query", "--db", cfg.Path, "--stream", "keystroke", "--since", "5m")
	require.NoError(t, err)

	var res struct {
		Vectors []struct {
			Stream   string             `yaml:"stream"`
			Features map[string]float64 `yaml:"features"`
		} `yaml:"vectors"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))
	require.Len(t, res.Vectors, 1)
	assert.Equal(t, "keystroke", res.Vectors[0].Stream)
	assert.Equal(t, 80.0, res.Vectors[0].Features["dwell_mean"])

	out, err = execute(t, "query", "--db", cfg.Path, "--stream", "app", "--since", "5m")
	require.NoError(t, err)
	assert.Contains(t, out, "from: editor")
	assert.Contains(t, out, "to: browser")
	assert.Contains(t, out, "duration_seconds: 42")
}

func TestQueryMissingDatabase(t *testing.T) {
	_, err := execute(t, "query", "--db", filepath.Join(t.TempDir(), "missing.db"))
	assert.ErrorContains(t, err, "no feature database")
}

func TestStateCommand(t *testing.T) {
	tracker := usage.New()
	tracker.HandleSwitch("editor", 100)
	tracker.HandleSwitch("browser", 130)

	srv := httptest.NewServer(status.NewHandler(tracker, nil).Router())
	t.Cleanup(srv.Close)

	out, err := execute(t, "state", "--listen", strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)

	var got struct {
		CurrentApp       string             `yaml:"current_app"`
		TransitionCount  int                `yaml:"transition_count"`
		TransitionMatrix map[string]float64 `yaml:"transition_matrix"`
		UsageStats       map[string]struct {
			TotalTime float64 `yaml:"total_time_seconds"`
		} `yaml:"usage_stats"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "browser", got.CurrentApp)
	assert.Equal(t, 1, got.TransitionCount)
	assert.Equal(t, 1.0, got.TransitionMatrix["editor->browser"])
	assert.Equal(t, 30.0, got.UsageStats["editor"].TotalTime)
}

func TestStateDisabled(t *testing.T) {
	_, err := execute(t, "state", "--listen", "")
	assert.ErrorContains(t, err, "disabled")
}
