package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/Bhuvan-2005/SecLyzer/internal/store"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultEnvPrefix = "SECLYZER"
	DefaultLogLevel  = "info"

	configName = "seclyzer"
	configType = "toml"
	pidName    = "seclyzer.pid"
)

type Config struct {
	Window          int           `mapstructure:"window"`
	Interval        int           `mapstructure:"interval"`
	CleanupInterval int           `mapstructure:"cleanup_interval"`
	AppInterval     int           `mapstructure:"app_interval"`
	PublishTimeout  time.Duration `mapstructure:"publish_timeout"`
	ChannelPrefix   string        `mapstructure:"channel_prefix"`
	LogLevel        string        `mapstructure:"log_level"`
	Debug           bool          `mapstructure:"debug"`
	Verbose         bool          `mapstructure:"verbose"`
	PIDFile         string        `mapstructure:"pid_file"`

	Redis  RedisConfig  `mapstructure:"redis"`
	Ingest IngestConfig `mapstructure:"ingest"`
	Store  StoreConfig  `mapstructure:"store"`
	Status StatusConfig `mapstructure:"status"`
}

type RedisConfig struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	EventsChannel string `mapstructure:"events_channel"`
}

type IngestConfig struct {
	Source       IngestSource `mapstructure:"source"`
	File         string       `mapstructure:"file"`
	Validate     bool         `mapstructure:"validate"`
	MaxClockSkew int          `mapstructure:"max_clock_skew"` // seconds, 0 disables
}

type StoreConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	BatchSize     int    `mapstructure:"batch_size"`
	BatchTimeout  int    `mapstructure:"batch_timeout"` // seconds
	RetentionDays int    `mapstructure:"retention_days"`
}

type StatusConfig struct {
	Listen string `mapstructure:"listen"` // empty disables
}

var defaults = map[string]any{
	"window":                30,
	"interval":              5,
	"cleanup_interval":      60,
	"app_interval":          60,
	"publish_timeout":       "2s",
	"channel_prefix":        "seclyzer:",
	"log_level":             DefaultLogLevel,
	"debug":                 false,
	"verbose":               false,
	"pid_file":              "",
	"redis.addr":            "localhost:6379",
	"redis.password":        "",
	"redis.db":              0,
	"redis.events_channel":  "seclyzer:events",
	"ingest.source":         string(SourceRedis),
	"ingest.file":           "",
	"ingest.validate":       true,
	"ingest.max_clock_skew": 3600,
	"store.enabled":         false,
	"store.path":            "/var/lib/seclyzer/features.db",
	"store.batch_size":      20,
	"store.batch_timeout":   10,
	"store.retention_days":  30,
	"status.listen":         "127.0.0.1:8765",
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"window":           "window",
	"interval":         "interval",
	"cleanup-interval": "cleanup_interval",
	"app-interval":     "app_interval",
	"log-level":        "log_level",
	"debug":            "debug",
	"verbose":          "verbose",
	"pid-file":         "pid_file",
	"redis-addr":       "redis.addr",
	"events-channel":   "redis.events_channel",
	"source":           "ingest.source",
	"file":             "ingest.file",
	"store":            "store.enabled",
	"db":               "store.path",
	"listen":           "status.listen",
}

// RegisterFlags defines the flags Load understands on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("window", 30, "Feature window in seconds")
	fs.Int("interval", 5, "Extraction interval in seconds")
	fs.Int("cleanup-interval", 60, "Buffer cleanup interval in seconds")
	fs.Int("app-interval", 60, "App usage report interval in seconds")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")
	fs.String("pid-file", "", "PID file path")
	fs.String("redis-addr", "localhost:6379", "Redis address")
	fs.String("events-channel", "seclyzer:events", "Redis channel carrying raw events")
	fs.String("source", string(SourceRedis), "Raw event source (redis, file)")
	fs.String("file", "", "JSONL file for the file source")
	fs.Bool("store", false, "Persist feature vectors to SQLite")
	fs.String("db", "/var/lib/seclyzer/features.db", "SQLite database path")
	fs.String("listen", "127.0.0.1:8765", "Status server address (empty disables)")
}

// Load reads configuration from defaults, the config file, the environment
// and flags, in increasing order of precedence. flags may be nil.
func Load(flags *pflag.FlagSet, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, o); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errFactory.Wrap(errors.ErrBindFlags, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	cfg.applyLogFlags()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func readConfigFile(v *viper.Viper, o options) error {
	errFactory := errors.New()

	path := o.configPath
	if path == "" {
		path = os.Getenv(o.envPrefix + "_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(configType)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, configName))
		}
		v.AddConfigPath(filepath.Join("/etc", configName))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return nil
}

func (c *Config) applyLogFlags() {
	switch {
	case c.Debug:
		c.LogLevel = LogLevelDebug.String()
	case c.Verbose && c.LogLevel != LogLevelDebug.String():
		c.LogLevel = LogLevelInfo.String()
	}
	if c.LogLevel == "warn" {
		c.LogLevel = LogLevelWarning.String()
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	errFactory := errors.New()

	intervals := []struct {
		field string
		value int
	}{
		{"window", c.Window},
		{"interval", c.Interval},
		{"cleanup_interval", c.CleanupInterval},
		{"app_interval", c.AppInterval},
	}
	for _, iv := range intervals {
		if iv.value <= 0 {
			return errFactory.WithData(errors.ErrInvalidInterval, struct {
				Field string
				Value int
			}{iv.field, iv.value})
		}
	}

	if c.PublishTimeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, struct {
			Field string
			Value time.Duration
		}{"publish_timeout", c.PublishTimeout})
	}

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	switch c.Ingest.Source {
	case SourceRedis:
	case SourceFile:
		if c.Ingest.File == "" {
			return errFactory.WithMessage(errors.ErrInvalidSource, "file source requires ingest.file")
		}
	default:
		return errFactory.WithData(errors.ErrInvalidSource, c.Ingest.Source)
	}

	if c.Ingest.MaxClockSkew < 0 || c.Redis.DB < 0 {
		return errFactory.New(errors.ErrInvalidConfig)
	}

	if err := c.StoreConfig().Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	return nil
}

func (c *Config) WindowDuration() time.Duration {
	return time.Duration(c.Window) * time.Second
}

func (c *Config) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

func (c *Config) CleanupDuration() time.Duration {
	return time.Duration(c.CleanupInterval) * time.Second
}

func (c *Config) AppDuration() time.Duration {
	return time.Duration(c.AppInterval) * time.Second
}

func (c *Config) ClockSkew() time.Duration {
	return time.Duration(c.Ingest.MaxClockSkew) * time.Second
}

// PIDPath returns the configured PID file or one in the temp directory.
func (c *Config) PIDPath() string {
	if c.PIDFile != "" {
		return c.PIDFile
	}

	return filepath.Join(os.TempDir(), pidName)
}

// StoreConfig converts the store section into a store.Config.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Path:         c.Store.Path,
		BatchSize:    c.Store.BatchSize,
		BatchTimeout: time.Duration(c.Store.BatchTimeout) * time.Second,
		Retention:    time.Duration(c.Store.RetentionDays) * 24 * time.Hour,
		Enabled:      c.Store.Enabled,
	}
}
