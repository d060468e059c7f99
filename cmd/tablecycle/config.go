package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	tablecycle "github.com/chipslam-maker/tablecycle"
	"github.com/chipslam-maker/tablecycle/introspect"
)

// LoadConfig loads the tablecycle configuration file
func LoadConfig(configPath string) (*tablecycle.Config, error) {
	return tablecycle.LoadConfig(configPath)
}

// resolveDatabase looks up the named environment in the configuration
func resolveDatabase(config *tablecycle.Config, env string) (tablecycle.Database, error) {
	if len(config.Databases) == 0 {
		return tablecycle.Database{}, ErrNoDatabasesConfigured
	}

	db, exists := config.Databases[env]
	if !exists {
		return tablecycle.Database{}, fmt.Errorf("%w: '%s'", ErrEnvironmentNotFound, env)
	}

	if db.Connection == "" {
		return tablecycle.Database{}, fmt.Errorf("%w: environment '%s'", ErrEmptyConnectionString, env)
	}

	return db, nil
}

// openEnvironment connects to the named environment and returns the handle,
// the resolved dialect, and the configured default schema.
func openEnvironment(ctx context.Context, config *tablecycle.Config, env string) (*sql.DB, tablecycle.Dialect, string, error) {
	dbConfig, err := resolveDatabase(config, env)
	if err != nil {
		return nil, "", "", err
	}

	// Driver in the environment wins, then the global dialect, then whatever
	// the connection URL scheme says.
	var dialect tablecycle.Dialect

	switch {
	case dbConfig.Driver != "":
		dialect, err = tablecycle.ParseDialect(dbConfig.Driver)
	case config.Dialect != "":
		dialect, err = tablecycle.ParseDialect(config.Dialect)
	}

	if err != nil {
		return nil, "", "", err
	}

	connector := introspect.NewConnector()

	if strings.Contains(dbConfig.Connection, "://") {
		db, urlDialect, connErr := connector.Connect(dbConfig.Connection)
		if connErr != nil {
			return nil, "", "", connErr
		}

		if dialect == "" {
			dialect = urlDialect
		}

		return db, dialect, dbConfig.Schema, nil
	}

	if dialect == "" {
		return nil, "", "", fmt.Errorf("%w: environment '%s' needs a driver for non-URL connections", tablecycle.ErrUnsupportedDialect, env)
	}

	db, err := introspect.OpenDatabase(ctx, dialect.DriverName(), dbConfig.Connection)
	if err != nil {
		return nil, "", "", err
	}

	return db, dialect, dbConfig.Schema, nil
}
