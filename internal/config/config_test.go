package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/config"
	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps the host's config files and SECLYZER_* variables out of a test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("SECLYZER_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seclyzer.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	isolate(t)

	configPath := writeConfig(t, `
window = 45
interval = 3
publish_timeout = "500ms"
channel_prefix = "test:"
log_level = "warning"

[redis]
addr = "redis:6380"
events_channel = "raw"

[ingest]
source = "file"
file = "/tmp/capture.jsonl"
validate = false
max_clock_skew = 0

[store]
enabled = true
path = "/tmp/features.db"
batch_size = 5
retention_days = 7

[status]
listen = ""
`)
	t.Setenv("SECLYZER_CONFIG", configPath)

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.WindowDuration())
	assert.Equal(t, 3*time.Second, cfg.IntervalDuration())
	assert.Equal(t, 60*time.Second, cfg.CleanupDuration(), "Expected default cleanup interval")
	assert.Equal(t, 500*time.Millisecond, cfg.PublishTimeout)
	assert.Equal(t, "test:", cfg.ChannelPrefix)
	assert.Equal(t, "warning", cfg.LogLevel)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "raw", cfg.Redis.EventsChannel)
	assert.Equal(t, config.SourceFile, cfg.Ingest.Source)
	assert.False(t, cfg.Ingest.Validate)
	assert.Zero(t, cfg.ClockSkew())
	assert.Empty(t, cfg.Status.Listen)

	sc := cfg.StoreConfig()
	assert.True(t, sc.Enabled)
	assert.Equal(t, "/tmp/features.db", sc.Path)
	assert.Equal(t, 5, sc.BatchSize)
	assert.Equal(t, 10*time.Second, sc.BatchTimeout)
	assert.Equal(t, 7*24*time.Hour, sc.Retention)
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load(nil)
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, 30, cfg.Window)
	assert.Equal(t, 5, cfg.Interval)
	assert.Equal(t, 60, cfg.CleanupInterval)
	assert.Equal(t, 60, cfg.AppInterval)
	assert.Equal(t, 2*time.Second, cfg.PublishTimeout)
	assert.Equal(t, "seclyzer:", cfg.ChannelPrefix)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "seclyzer:events", cfg.Redis.EventsChannel)
	assert.Equal(t, config.SourceRedis, cfg.Ingest.Source)
	assert.True(t, cfg.Ingest.Validate)
	assert.Equal(t, time.Hour, cfg.ClockSkew())
	assert.False(t, cfg.Store.Enabled)
	assert.Equal(t, "127.0.0.1:8765", cfg.Status.Listen)
	assert.Equal(t, filepath.Join(os.TempDir(), "seclyzer.pid"), cfg.PIDPath())
}

func TestLoadXDGConfig(t *testing.T) {
	isolate(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	dir := filepath.Join(xdg, "seclyzer")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seclyzer.toml"), []byte("interval = 9\n"), 0o600))

	cfg, err := config.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Interval)
}

func TestPrecedence(t *testing.T) {
	isolate(t)

	configPath := writeConfig(t, "window = 40\ninterval = 4\n")
	t.Setenv("SECLYZER_INTERVAL", "7")
	t.Setenv("SECLYZER_REDIS_ADDR", "envhost:6379")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--window", "50"}))

	cfg, err := config.Load(fs, config.WithConfigFile(configPath))
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Window, "flag beats file")
	assert.Equal(t, 7, cfg.Interval, "env beats file")
	assert.Equal(t, "envhost:6379", cfg.Redis.Addr, "env reaches nested keys")
	assert.Equal(t, 60, cfg.CleanupInterval, "unset flag keeps default")
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	isolate(t)
	t.Setenv("SECLYZER_CONFIG", writeConfig(t, "\nThis is not a valid TOML file\n"))

	_, err := config.Load(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.ErrorCode
	}{
		{"invalid log level", `log_level = "invalid"`, errors.ErrInvalidLogLevel},
		{"zero window", `window = 0`, errors.ErrInvalidInterval},
		{"negative interval", `interval = -1`, errors.ErrInvalidInterval},
		{"zero app interval", `app_interval = 0`, errors.ErrInvalidInterval},
		{"unknown source", "[ingest]\nsource = \"kafka\"", errors.ErrInvalidSource},
		{"file source without file", "[ingest]\nsource = \"file\"", errors.ErrInvalidSource},
		{"negative skew", "[ingest]\nmax_clock_skew = -5", errors.ErrInvalidConfig},
		{"store without path", "[store]\nenabled = true\npath = \"\"", errors.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv("SECLYZER_CONFIG", writeConfig(t, tt.content))

			_, err := config.Load(nil)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestLogLevelFlags(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--log-level", "debug"}, "debug"},
		{[]string{"--log-level", "error", "--verbose"}, "info"},
		{[]string{"--log-level", "error", "--debug"}, "debug"},
		{[]string{"--log-level", "warn"}, "warning"},
	}

	for _, tt := range tests {
		isolate(t)
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		config.RegisterFlags(fs)
		require.NoError(t, fs.Parse(tt.args))

		cfg, err := config.Load(fs)
		require.NoError(t, err)
		assert.Equal(t, tt.want, cfg.LogLevel, "args %v", tt.args)
	}
}
