package introspect

import (
	"context"
	"fmt"
	"strings"

	tablecycle "github.com/chipslam-maker/tablecycle"
)

// MySQLInspector handles MySQL-specific structural reflection. MySQL treats
// the current database as the schema namespace; an empty schema falls back to
// DATABASE().
type MySQLInspector struct {
	dialect tablecycle.Dialect
}

// Dialect returns the dialect this inspector targets
func (i *MySQLInspector) Dialect() tablecycle.Dialect {
	return i.dialect
}

// FetchTable returns the table descriptor from information_schema
func (i *MySQLInspector) FetchTable(ctx context.Context, q Querier, schema, table string) (*tablecycle.TableDescriptor, error) {
	exists, err := i.TableExists(ctx, q, schema, table)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, fmt.Errorf("%w: %s", tablecycle.ErrTableNotFound, table)
	}

	desc := &tablecycle.TableDescriptor{Schema: schema, Name: table}

	query := `
		SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT,
		       COLUMN_KEY, EXTRA, COALESCE(GENERATION_EXPRESSION, '')
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE()) AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	rows, err := q.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, dataType, nullable, columnKey, extra, formula string
			defaultValue                                        *string
		)

		if err := rows.Scan(&name, &dataType, &nullable, &defaultValue, &columnKey, &extra, &formula); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
		}

		col := tablecycle.ColumnDescriptor{
			Name:         name,
			DataType:     dataType,
			Nullable:     nullable == "YES",
			IsPrimaryKey: columnKey == "PRI",
			IsComputed:   strings.Contains(extra, "GENERATED"),
			IsPersisted:  strings.Contains(extra, "STORED GENERATED"),
			Formula:      formula,
		}

		if defaultValue != nil {
			col.DefaultValue = *defaultValue
		}

		desc.Columns = append(desc.Columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	indexes, err := i.fetchIndexes(ctx, q, schema, table)
	if err != nil {
		return nil, err
	}

	desc.Indexes = indexes

	return desc, nil
}

func (i *MySQLInspector) fetchIndexes(ctx context.Context, q Querier, schema, table string) ([]tablecycle.IndexDescriptor, error) {
	query := `
		SELECT INDEX_NAME, NON_UNIQUE, COLUMN_NAME, COLLATION
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE()) AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX`

	rows, err := q.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		indexes []tablecycle.IndexDescriptor
		current *tablecycle.IndexDescriptor
	)

	for rows.Next() {
		var (
			name, column string
			nonUnique    int
			collation    *string
		)

		if err := rows.Scan(&name, &nonUnique, &column, &collation); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
		}

		if current == nil || current.Name != name {
			indexes = append(indexes, tablecycle.IndexDescriptor{Name: name, IsUnique: nonUnique == 0})
			current = &indexes[len(indexes)-1]
		}

		current.Columns = append(current.Columns, tablecycle.IndexColumn{
			Name:       column,
			Descending: collation != nil && *collation == "D",
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return indexes, nil
}

// TableExists reports whether the table currently exists
func (i *MySQLInspector) TableExists(ctx context.Context, q Querier, schema, table string) (bool, error) {
	var count int

	query := `
		SELECT COUNT(*) FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE()) AND TABLE_NAME = ?`

	if err := q.QueryRowContext(ctx, query, schema, table).Scan(&count); err != nil {
		return false, err
	}

	return count > 0, nil
}

// ScriptShadowTable scripts an equivalent table under a new name.
// CREATE TABLE ... LIKE carries column definitions, indexes and generated
// columns, but runs outside the transaction due to MySQL's implicit commit.
func (i *MySQLInspector) ScriptShadowTable(ctx context.Context, q Querier, table *tablecycle.TableDescriptor, shadowName string) ([]string, error) {
	stmt := fmt.Sprintf("CREATE TABLE %s LIKE %s",
		i.dialect.QualifyTable(table.Schema, shadowName),
		i.dialect.QualifyTable(table.Schema, table.Name))

	return []string{stmt}, nil
}

// RenameStatement returns the statement renaming a table within its schema
func (i *MySQLInspector) RenameStatement(schema, oldName, newName string) string {
	return fmt.Sprintf("RENAME TABLE %s TO %s",
		i.dialect.QualifyTable(schema, oldName),
		i.dialect.QualifyTable(schema, newName))
}

// DropStatement returns the statement dropping a table if it exists
func (i *MySQLInspector) DropStatement(schema, name string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", i.dialect.QualifyTable(schema, name))
}
