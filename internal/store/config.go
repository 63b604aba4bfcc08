package store

import (
	"path/filepath"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
)

const (
	// File system permissions and paths
	defaultDirPerm = 0o755
	defaultDBPath  = "/var/lib/seclyzer/features.db"

	defaultBatchSize    = 20
	defaultBatchTimeout = 10 * time.Second
	defaultRetention    = 30 * 24 * time.Hour

	// pruneEvery bounds how often the flusher deletes expired rows.
	pruneEvery = time.Hour
)

type Config struct {
	Path         string
	BackupDir    string // defaults to <dir of Path>/backups
	BatchSize    int
	BatchTimeout time.Duration
	Retention    time.Duration // zero keeps everything
	Enabled      bool
}

func DefaultConfig() Config {
	return Config{
		Path:         defaultDBPath,
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
		Retention:    defaultRetention,
		Enabled:      false, // Disabled by default
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate the path if the store is enabled
	if c.Enabled && c.Path == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize < 0 || c.BatchTimeout < 0 || c.Retention < 0 {
		return errFactory.WithData(ErrInvalidConfig, struct {
			BatchSize    int
			BatchTimeout time.Duration
			Retention    time.Duration
		}{c.BatchSize, c.BatchTimeout, c.Retention})
	}

	return nil
}

func (c Config) backupDir() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}

	return filepath.Join(filepath.Dir(c.Path), "backups")
}
