package store

import (
	"database/sql"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/Bhuvan-2005/SecLyzer/internal/logger"
)

const (
	SchemaVersion = 1

	// SQL statements derived from schema
	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS feature_values (
	       timestamp_ns INTEGER NOT NULL CHECK (typeof(timestamp_ns) = 'integer'),
	       stream       TEXT NOT NULL CHECK (stream IN ('keystroke', 'mouse', 'app')),
	       name         TEXT NOT NULL,
	       value        REAL NOT NULL,
	       PRIMARY KEY (stream, timestamp_ns, name)
	   );
	   CREATE TABLE IF NOT EXISTS app_transitions (
	       timestamp_ns INTEGER NOT NULL CHECK (typeof(timestamp_ns) = 'integer'),
	       from_app     TEXT NOT NULL,
	       to_app       TEXT NOT NULL,
	       duration_ms  REAL NOT NULL
	   );
	   CREATE INDEX IF NOT EXISTS idx_app_transitions_ts ON app_transitions (timestamp_ns);`

	insertFeatureSQL = `
    INSERT OR REPLACE INTO feature_values (timestamp_ns, stream, name, value)
    VALUES (?, ?, ?, ?)`

	insertTransitionSQL = `
    INSERT INTO app_transitions (timestamp_ns, from_app, to_app, duration_ms)
    VALUES (?, ?, ?, ?)`

	selectFeaturesSQL = `
    SELECT timestamp_ns, name, value
    FROM feature_values
    WHERE stream = ? AND timestamp_ns >= ? AND timestamp_ns < ?
    ORDER BY timestamp_ns, name`

	selectTransitionsSQL = `
    SELECT timestamp_ns, from_app, to_app, duration_ms
    FROM app_transitions
    WHERE timestamp_ns >= ? AND timestamp_ns < ?
    ORDER BY timestamp_ns`

	deleteFeaturesBeforeSQL    = `DELETE FROM feature_values WHERE timestamp_ns < ?`
	deleteTransitionsBeforeSQL = `DELETE FROM app_transitions WHERE timestamp_ns < ?`
)

// dataTables are dropped when the schema is recreated.
var dataTables = []string{"feature_values", "app_transitions", "schema_versions"}

// InitSchema creates a new database schema with the current version
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	log.Debug().Msg("Creating database...")

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	// Track transaction state
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				if !errors.Is(err, sql.ErrTxDone) {
					log.Debug().Err(err).Msg("Failed to rollback transaction")
				}
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			SQL   string
		}{
			Error: err.Error(),
			SQL:   createTablesSQL,
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "record_version",
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().
		Int("version", SchemaVersion).
		Msg("Schema initialized successfully")

	return nil
}

// GetSchemaVersion returns the current schema version, or 0 for an empty
// database.
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Error string
		}{
			Phase: "get_version",
			Error: err.Error(),
		})
	}

	return version, nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, tableName string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errors.New().WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Table string
			Error string
		}{
			Phase: "check_table_exists",
			Table: tableName,
			Error: err.Error(),
		})
	}

	return exists, nil
}
