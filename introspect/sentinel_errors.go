package introspect

import "errors"

// Connection errors
var (
	ErrEmptyDatabaseURL    = errors.New("database URL cannot be empty")
	ErrInvalidDatabaseURL  = errors.New("invalid database URL")
	ErrUnsupportedDatabase = errors.New("unsupported database type")
	ErrConnectionFailed    = errors.New("failed to connect to database")
)

// Introspection errors
var (
	ErrInvalidConnectionInfo = errors.New("invalid connection info")
	ErrScanFailed            = errors.New("result scan failed")
	ErrNoGeneratedFormula    = errors.New("generated column has no formula")
)
