package tablecycle

import (
	"fmt"
	"strings"
)

// Dialect represents supported database dialects
// This type is shared across all packages
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect normalizes a dialect name, accepting common aliases
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, name)
	}
}

// DriverName returns the database/sql driver name registered for the dialect
func (d Dialect) DriverName() string {
	switch d {
	case DialectPostgres:
		return "pgx"
	case DialectMySQL:
		return "mysql"
	case DialectSQLite:
		return "sqlite3"
	default:
		return ""
	}
}

// QuoteIdent quotes an identifier so it is always treated as a name, never as
// SQL. Embedded quote characters are doubled.
func (d Dialect) QuoteIdent(name string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}

	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Placeholder returns the parameter placeholder for the n-th (1-based) bound
// argument of a statement.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}

	return "?"
}

// SupportsTransactionalDDL reports whether DDL statements participate in the
// surrounding transaction. MySQL commits implicitly on DDL, so rollback alone
// cannot undo partially-created objects there.
func (d Dialect) SupportsTransactionalDDL() bool {
	return d != DialectMySQL
}

// HasSchemas reports whether the dialect has a schema namespace between the
// database and its tables. SQLite does not.
func (d Dialect) HasSchemas() bool {
	return d != DialectSQLite
}

// QualifyTable renders a schema-qualified, quoted table reference. The schema
// part is omitted when empty or when the dialect has no schema namespace.
func (d Dialect) QualifyTable(schema, table string) string {
	if schema == "" || !d.HasSchemas() {
		return d.QuoteIdent(table)
	}

	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}
