package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	tablecycle "github.com/chipslam-maker/tablecycle"
	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

// Connector handles database connections. Each operation opens and later
// disposes its own connection; no pooling discipline beyond database/sql's.
type Connector struct {
	poolSettings PoolSettings
}

// PoolSettings defines database connection pool configuration
type PoolSettings struct {
	MaxOpenConns    int // Maximum number of open connections
	MaxIdleConns    int // Maximum number of idle connections
	ConnMaxLifetime int // Maximum lifetime of connections in seconds
}

// ConnectionInfo contains parsed database connection information
type ConnectionInfo struct {
	Dialect  tablecycle.Dialect
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Options  map[string]string
}

// NewConnector creates a new connector with default pool settings
func NewConnector() *Connector {
	return &Connector{
		poolSettings: PoolSettings{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
	}
}

// SetPoolSettings configures connection pool settings
func (c *Connector) SetPoolSettings(settings PoolSettings) {
	c.poolSettings = settings
}

// ParseDatabaseURL extracts the dialect from a connection URL
func (c *Connector) ParseDatabaseURL(databaseURL string) (tablecycle.Dialect, error) {
	if databaseURL == "" {
		return "", ErrEmptyDatabaseURL
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", ErrInvalidDatabaseURL
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		return tablecycle.DialectPostgres, nil
	case "mysql":
		return tablecycle.DialectMySQL, nil
	case "sqlite", "sqlite3":
		return tablecycle.DialectSQLite, nil
	default:
		return "", ErrUnsupportedDatabase
	}
}

// ValidateConnectionString validates the format of a database connection URL
func (c *Connector) ValidateConnectionString(databaseURL string) error {
	if databaseURL == "" {
		return ErrEmptyDatabaseURL
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		return ErrInvalidDatabaseURL
	}

	switch u.Scheme {
	case "postgres", "postgresql", "mysql":
		if u.Host == "" || strings.TrimPrefix(u.Path, "/") == "" {
			return ErrInvalidDatabaseURL
		}

		return nil
	case "sqlite", "sqlite3":
		if u.Path == "" && u.Host == "" && u.Opaque == "" {
			return ErrInvalidDatabaseURL
		}

		return nil
	default:
		return ErrUnsupportedDatabase
	}
}

// Connect establishes a database connection from a URL
func (c *Connector) Connect(databaseURL string) (*sql.DB, tablecycle.Dialect, error) {
	if err := c.ValidateConnectionString(databaseURL); err != nil {
		return nil, "", err
	}

	dialect, err := c.ParseDatabaseURL(databaseURL)
	if err != nil {
		return nil, "", err
	}

	connStr, err := c.convertToDriverString(databaseURL, dialect)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(dialect.DriverName(), connStr)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	db.SetMaxOpenConns(c.poolSettings.MaxOpenConns)
	db.SetMaxIdleConns(c.poolSettings.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(c.poolSettings.ConnMaxLifetime) * time.Second)

	return db, dialect, nil
}

// OpenDatabase opens a database connection from an explicit driver name and
// DSN, as configured in the databases section, and verifies it with a ping.
func OpenDatabase(ctx context.Context, driver, connectionString string) (*sql.DB, error) {
	db, err := sql.Open(driver, connectionString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	return db, nil
}

// ParseConnectionInfo parses a database URL into connection information
func (c *Connector) ParseConnectionInfo(databaseURL string) (ConnectionInfo, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return ConnectionInfo{}, ErrInvalidDatabaseURL
	}

	info := ConnectionInfo{
		Options: make(map[string]string),
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		info.Dialect = tablecycle.DialectPostgres
		info.Host = u.Hostname()
		info.Port = u.Port()

		if info.Port == "" {
			info.Port = "5432"
		}
	case "mysql":
		info.Dialect = tablecycle.DialectMySQL
		info.Host = u.Hostname()
		info.Port = u.Port()

		if info.Port == "" {
			info.Port = "3306"
		}
	case "sqlite", "sqlite3":
		info.Dialect = tablecycle.DialectSQLite
		if u.Host == "" {
			// sqlite:///path/to/db.db format
			info.Database = u.Path
		} else {
			// sqlite://./db.db format
			info.Database = u.Host + u.Path
		}
	default:
		return ConnectionInfo{}, ErrUnsupportedDatabase
	}

	if info.Dialect != tablecycle.DialectSQLite {
		info.Database = strings.TrimPrefix(u.Path, "/")

		if u.User != nil {
			info.Username = u.User.Username()
			if password, ok := u.User.Password(); ok {
				info.Password = password
			}
		}
	}

	for key, values := range u.Query() {
		if len(values) > 0 {
			info.Options[key] = values[0]
		}
	}

	return info, nil
}

func (c *Connector) convertToDriverString(databaseURL string, dialect tablecycle.Dialect) (string, error) {
	info, err := c.ParseConnectionInfo(databaseURL)
	if err != nil {
		return "", err
	}

	switch dialect {
	case tablecycle.DialectPostgres:
		// pgx accepts standard PostgreSQL connection URLs
		if info.Host == "" || info.Database == "" {
			return "", ErrInvalidConnectionInfo
		}

		connStr := "postgres://"
		if info.Username != "" {
			connStr += info.Username
			if info.Password != "" {
				connStr += ":" + info.Password
			}

			connStr += "@"
		}

		connStr += net.JoinHostPort(info.Host, info.Port) + "/" + info.Database
		if len(info.Options) > 0 {
			values := url.Values{}
			for k, v := range info.Options {
				values.Set(k, v)
			}

			connStr += "?" + values.Encode()
		}

		return connStr, nil

	case tablecycle.DialectMySQL:
		// Convert to go-sql-driver/mysql DSN format
		connStr := ""
		if info.Username != "" {
			connStr += info.Username
			if info.Password != "" {
				connStr += ":" + info.Password
			}

			connStr += "@"
		}

		if info.Host != "" {
			connStr += "tcp(" + net.JoinHostPort(info.Host, info.Port) + ")"
		}

		connStr += "/" + info.Database

		return connStr, nil

	case tablecycle.DialectSQLite:
		// SQLite uses the file path directly
		return info.Database, nil

	default:
		return "", ErrUnsupportedDatabase
	}
}
