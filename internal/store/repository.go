package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/Bhuvan-2005/SecLyzer/internal/events"
	"github.com/Bhuvan-2005/SecLyzer/internal/feature"
	"github.com/Bhuvan-2005/SecLyzer/internal/logger"
	"github.com/Bhuvan-2005/SecLyzer/internal/usage"
	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db     *sql.DB
	logger logger.Logger
	cfg    Config

	mu          sync.Mutex
	vectors     []feature.Vector
	transitions []usage.Transition
	closed      bool
	lastPrune   time.Time

	flushTicker   *time.Ticker
	shutdownChan  chan struct{}
	flushDoneChan chan struct{}
}

// NewRepository opens (creating if needed) the database at cfg.Path and
// starts the background flusher when batching is configured.
func NewRepository(cfg Config, log logger.Logger) (Store, error) {
	errFactory := errors.New()

	if cfg.Path == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.Path,
			Error: err.Error(),
		})
	}

	dsn := cfg.Path + "?_journal=WAL&_auto_vacuum=2&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if err := ValidateAndUpdateSchema(db, cfg.backupDir(), log); err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "schema_version",
			Error: err.Error(),
		})
	}

	log.Info().
		Str("path", cfg.Path).
		Int("schema_version", SchemaVersion).
		Int("batch_size", cfg.BatchSize).
		Dur("batch_timeout", cfg.BatchTimeout).
		Dur("retention", cfg.Retention).
		Msg("Feature store initialized")

	repo := &repository{
		db:            db,
		logger:        log,
		cfg:           cfg,
		shutdownChan:  make(chan struct{}),
		flushDoneChan: make(chan struct{}),
	}

	if cfg.BatchSize > 0 && cfg.BatchTimeout > 0 {
		repo.flushTicker = time.NewTicker(cfg.BatchTimeout)
		go repo.flusher()
	} else {
		close(repo.flushDoneChan)
	}

	return repo, nil
}

func (*repository) Enabled() bool {
	return true
}

func (r *repository) RecordVector(ctx context.Context, v feature.Vector) error {
	errFactory := errors.New()

	if len(v.Features) == 0 || v.Stream == "" {
		return errFactory.New(ErrInvalidRecord)
	}
	if err := ctx.Err(); err != nil {
		return errFactory.Wrap(ErrOperationTimeout, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errFactory.New(ErrClosed)
	}

	r.vectors = append(r.vectors, v)

	return r.flushIfFull()
}

func (r *repository) RecordTransition(ctx context.Context, t usage.Transition) error {
	errFactory := errors.New()

	if t.From == "" || t.To == "" {
		return errFactory.New(ErrInvalidRecord)
	}
	if err := ctx.Err(); err != nil {
		return errFactory.Wrap(ErrOperationTimeout, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errFactory.New(ErrClosed)
	}

	r.transitions = append(r.transitions, t)

	return r.flushIfFull()
}

// flushIfFull writes the buffer once it reaches the batch size. Caller holds mu.
func (r *repository) flushIfFull() error {
	if len(r.vectors)+len(r.transitions) >= r.cfg.BatchSize {
		return r.flush()
	}

	return nil
}

func (r *repository) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	close(r.shutdownChan)
	if r.flushTicker != nil {
		r.flushTicker.Stop()
	}

	// Wait for the flusher to finish its final flush
	<-r.flushDoneChan

	r.mu.Lock()
	err := r.flush()
	r.mu.Unlock()
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to flush on close")
	}

	// Checkpoint WAL and cleanup on close
	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "checkpoint_wal",
			Error: err.Error(),
		})
	}

	if err := r.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	r.logger.Info().Msg("Feature store closed gracefully")

	return nil
}

func (r *repository) flusher() {
	defer close(r.flushDoneChan)

	for {
		select {
		case <-r.flushTicker.C:
			r.mu.Lock()
			if err := r.flush(); err != nil {
				r.logger.Warn().Err(err).Msg("Periodic flush failed")
			}
			r.mu.Unlock()
			r.maybePrune()
		case <-r.shutdownChan:
			return
		}
	}
}

// maybePrune deletes rows past the retention horizon, at most once per
// pruneEvery.
func (r *repository) maybePrune() {
	if r.cfg.Retention <= 0 {
		return
	}

	now := time.Now()
	if now.Sub(r.lastPrune) < pruneEvery {
		return
	}
	r.lastPrune = now

	n, err := r.Prune(context.Background(), now.Add(-r.cfg.Retention))
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to prune expired rows")
		return
	}
	if n > 0 {
		r.logger.Debug().Int64("rows", n).Msg("Pruned expired rows")
	}
}

// flush writes all buffered records in one transaction. Caller holds mu.
func (r *repository) flush() error {
	if len(r.vectors) == 0 && len(r.transitions) == 0 {
		return nil
	}

	errFactory := errors.New()

	tx, err := r.db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	if err := r.writeBatch(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error().Err(rbErr).Msg("Failed to roll back transaction")
		}
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	r.logger.Debug().
		Int("vectors", len(r.vectors)).
		Int("transitions", len(r.transitions)).
		Msg("Flushed records to database")
	r.vectors = r.vectors[:0]
	r.transitions = r.transitions[:0]

	return nil
}

func (r *repository) writeBatch(tx *sql.Tx) error {
	featureStmt, err := tx.Prepare(insertFeatureSQL)
	if err != nil {
		return err
	}
	defer featureStmt.Close()

	for _, v := range r.vectors {
		ts := v.Timestamp.UnixNano()
		for name, value := range v.Features {
			if _, err := featureStmt.Exec(ts, string(v.Stream), name, value); err != nil {
				return err
			}
		}
	}

	transitionStmt, err := tx.Prepare(insertTransitionSQL)
	if err != nil {
		return err
	}
	defer transitionStmt.Close()

	for _, t := range r.transitions {
		ts := events.Time(t.Timestamp).UnixNano()
		if _, err := transitionStmt.Exec(ts, t.From, t.To, t.Duration*1000); err != nil {
			return err
		}
	}

	return nil
}

// sync flushes pending records so that reads observe them.
func (r *repository) sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New().New(ErrClosed)
	}

	return r.flush()
}

func (r *repository) QueryRange(ctx context.Context, stream feature.StreamType, start, end time.Time) ([]feature.Vector, error) {
	errFactory := errors.New()

	if err := r.sync(); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, selectFeaturesSQL, string(stream), start.UnixNano(), end.UnixNano())
	if err != nil {
		return nil, errFactory.Wrap(ErrQueryFailed, err)
	}
	defer rows.Close()

	var out []feature.Vector
	for rows.Next() {
		var (
			ts    int64
			name  string
			value float64
		)
		if err := rows.Scan(&ts, &name, &value); err != nil {
			return nil, errFactory.Wrap(ErrQueryFailed, err)
		}

		if n := len(out); n == 0 || out[n-1].Timestamp.UnixNano() != ts {
			out = append(out, feature.Vector{
				Timestamp: time.Unix(0, ts),
				Stream:    stream,
				Features:  make(map[string]float64),
			})
		}
		out[len(out)-1].Features[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrQueryFailed, err)
	}

	return out, nil
}

func (r *repository) QueryTransitions(ctx context.Context, start, end time.Time) ([]usage.Transition, error) {
	errFactory := errors.New()

	if err := r.sync(); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, selectTransitionsSQL, start.UnixNano(), end.UnixNano())
	if err != nil {
		return nil, errFactory.Wrap(ErrQueryFailed, err)
	}
	defer rows.Close()

	var out []usage.Transition
	for rows.Next() {
		var (
			ts         int64
			from, to   string
			durationMs float64
		)
		if err := rows.Scan(&ts, &from, &to, &durationMs); err != nil {
			return nil, errFactory.Wrap(ErrQueryFailed, err)
		}
		out = append(out, usage.Transition{
			From:      from,
			To:        to,
			Duration:  durationMs / 1000,
			Timestamp: events.Seconds(time.Unix(0, ts)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrQueryFailed, err)
	}

	return out, nil
}

// Prune deletes feature values and transitions recorded before the cutoff and
// returns the number of rows removed.
func (r *repository) Prune(ctx context.Context, before time.Time) (int64, error) {
	errFactory := errors.New()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errFactory.Wrap(ErrPruneFailed, err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			r.logger.Debug().Err(err).Msg("Failed to rollback prune")
		}
	}()

	var total int64
	for _, stmt := range []string{deleteFeaturesBeforeSQL, deleteTransitionsBeforeSQL} {
		res, err := tx.ExecContext(ctx, stmt, before.UnixNano())
		if err != nil {
			return 0, errFactory.Wrap(ErrPruneFailed, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, errFactory.Wrap(ErrPruneFailed, err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, errFactory.Wrap(ErrPruneFailed, err)
	}

	return total, nil
}
