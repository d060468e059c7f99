package introspect

import (
	"context"
	"database/sql"
	"fmt"

	tablecycle "github.com/chipslam-maker/tablecycle"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Inspectors accept it so structural checks can run inside the same
// transaction as the statements they guard.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Inspector provides dialect-specific structural reflection over live
// database objects: descriptor fetching, DDL scripting and object renaming.
type Inspector interface {
	// FetchTable returns an immutable descriptor of the table, including
	// columns (with computed-column flags and formulas) and indexes.
	// Fails with tablecycle.ErrTableNotFound when the table does not exist.
	FetchTable(ctx context.Context, q Querier, schema, table string) (*tablecycle.TableDescriptor, error)

	// TableExists reports whether the table currently exists.
	TableExists(ctx context.Context, q Querier, schema, table string) (bool, error)

	// ScriptShadowTable returns the statements that create an equivalent table
	// under a new name on the same server, including indexes, constraints and
	// computed-column formulas.
	ScriptShadowTable(ctx context.Context, q Querier, table *tablecycle.TableDescriptor, shadowName string) ([]string, error)

	// RenameStatement returns the statement renaming a table within its schema.
	RenameStatement(schema, oldName, newName string) string

	// DropStatement returns the statement dropping a table if it exists.
	DropStatement(schema, name string) string

	// Dialect returns the dialect this inspector targets.
	Dialect() tablecycle.Dialect
}

// NewInspector creates an inspector for the given dialect
func NewInspector(dialect tablecycle.Dialect) (Inspector, error) {
	switch dialect {
	case tablecycle.DialectPostgres:
		return &PostgresInspector{dialect: dialect}, nil
	case tablecycle.DialectMySQL:
		return &MySQLInspector{dialect: dialect}, nil
	case tablecycle.DialectSQLite:
		return &SQLiteInspector{dialect: dialect}, nil
	default:
		return nil, fmt.Errorf("%w: %q", tablecycle.ErrUnsupportedDialect, dialect)
	}
}
