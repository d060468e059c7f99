package tablecycle

import "errors"

// Common errors used throughout the tablecycle package
var (
	// Configuration errors

	// ErrConfigurationMissing is returned when a required configuration field is
	// absent. Operations abort before any connection is opened.
	ErrConfigurationMissing = errors.New("required configuration is missing")
	// ErrConfigValidation is returned when configuration validation fails.
	ErrConfigValidation = errors.New("configuration validation failed")
	// ErrUnsupportedDialect indicates an unknown database dialect name.
	ErrUnsupportedDialect = errors.New("unsupported dialect")

	// Connection errors

	// ErrConnectionFailed indicates a database server could not be reached.
	ErrConnectionFailed = errors.New("failed to connect to database")

	// Structural precondition errors

	// ErrTableNotFound indicates a referenced table does not exist.
	ErrTableNotFound = errors.New("table not found")
	// ErrColumnNotFound indicates a referenced column does not exist in the table.
	ErrColumnNotFound = errors.New("column not found in table")
	// ErrNoInsertableColumns is returned when every column of a table is computed,
	// leaving nothing that can appear in an INSERT column list.
	ErrNoInsertableColumns = errors.New("table has no insertable columns")

	// Rotation errors

	// ErrOriginalTableMissing indicates the source table vanished mid-rotation.
	// This implies concurrent interference and is fatal, never retried.
	ErrOriginalTableMissing = errors.New("original table missing during rotation")
	// ErrShadowTableMissing indicates the shadow table vanished mid-rotation.
	ErrShadowTableMissing = errors.New("shadow table missing during rotation")
	// ErrInvalidRetention indicates a negative retention-day count.
	ErrInvalidRetention = errors.New("retention days must be non-negative")
	// ErrStatementFailed indicates a DDL/DML step failed. The surrounding
	// transaction is rolled back and the error re-raised to the caller.
	ErrStatementFailed = errors.New("statement execution failed")

	// Comparison errors

	// ErrPrimaryKeyMissing indicates a row record lacks the correlation column.
	ErrPrimaryKeyMissing = errors.New("primary key column missing from record")
	// ErrEmptyColumnSet indicates a row set was fetched with no columns.
	ErrEmptyColumnSet = errors.New("row set has no columns")
)
