package main

import (
	"errors"
	"fmt"

	tablecycle "github.com/chipslam-maker/tablecycle"
)

// Error definitions
var (
	ErrNoDatabasesConfigured = errors.New("no databases configured")
	ErrEnvironmentNotFound   = errors.New("environment not found")
	ErrEmptyConnectionString = errors.New("database connection string is empty")
	ErrInvalidOutputFormat   = errors.New("invalid output format")

	// Required settings resolvable from flag or config; both absent aborts
	// before any connection is opened.
	ErrDateColumnRequired = fmt.Errorf("%w: date column (--date-column or rotation.date_column)", tablecycle.ErrConfigurationMissing)
	ErrPrimaryKeyRequired = fmt.Errorf("%w: primary key (--primary-key or compare.primary_key)", tablecycle.ErrConfigurationMissing)
)
