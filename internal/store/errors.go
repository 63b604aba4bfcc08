package store

import "github.com/Bhuvan-2005/SecLyzer/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("store_invalid_db_path")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("store_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("store_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("store_schema_migration_failed")
	ErrTransactionFailed      = errors.ErrorCode("store_transaction_failed")

	// Storage Errors
	ErrStorageInit  = errors.ErrInitFailed
	ErrStorageClose = errors.ErrShutdownFailed
	ErrQueryFailed  = errors.ErrorCode("store_query_failed")
	ErrPruneFailed  = errors.ErrorCode("store_prune_failed")
	ErrClosed       = errors.ErrorCode("store_closed")

	// Record Errors
	ErrInvalidRecord = errors.ErrorCode("store_invalid_record")

	// Operation Errors
	ErrOperationTimeout = errors.ErrTimeout
)
