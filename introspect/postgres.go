package introspect

import (
	"context"
	"fmt"

	tablecycle "github.com/chipslam-maker/tablecycle"
)

// PostgresInspector handles PostgreSQL-specific structural reflection
type PostgresInspector struct {
	dialect tablecycle.Dialect
}

// Dialect returns the dialect this inspector targets
func (i *PostgresInspector) Dialect() tablecycle.Dialect {
	return i.dialect
}

// FetchTable returns the table descriptor from information_schema
func (i *PostgresInspector) FetchTable(ctx context.Context, q Querier, schema, table string) (*tablecycle.TableDescriptor, error) {
	if schema == "" {
		schema = "public"
	}

	exists, err := i.TableExists(ctx, q, schema, table)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, fmt.Errorf("%w: %s.%s", tablecycle.ErrTableNotFound, schema, table)
	}

	desc := &tablecycle.TableDescriptor{Schema: schema, Name: table}

	// PostgreSQL generated columns are always stored, never virtual.
	query := `
		SELECT column_name, data_type, is_nullable, column_default,
		       is_generated, COALESCE(generation_expression, '')
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	rows, err := q.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, dataType, nullable, generated, formula string
			defaultValue                                 *string
		)

		if err := rows.Scan(&name, &dataType, &nullable, &defaultValue, &generated, &formula); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
		}

		col := tablecycle.ColumnDescriptor{
			Name:       name,
			DataType:   dataType,
			Nullable:   nullable == "YES",
			IsComputed: generated == "ALWAYS",
			Formula:    formula,
		}

		if col.IsComputed {
			col.IsPersisted = true
		}

		if defaultValue != nil {
			col.DefaultValue = *defaultValue
		}

		desc.Columns = append(desc.Columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := i.markPrimaryKeys(ctx, q, desc); err != nil {
		return nil, err
	}

	indexes, err := i.fetchIndexes(ctx, q, schema, table)
	if err != nil {
		return nil, err
	}

	desc.Indexes = indexes

	return desc, nil
}

func (i *PostgresInspector) markPrimaryKeys(ctx context.Context, q Querier, desc *tablecycle.TableDescriptor) error {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = $1 AND tc.table_name = $2`

	rows, err := q.QueryContext(ctx, query, desc.Schema, desc.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	pk := map[string]bool{}

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("%w: %v", ErrScanFailed, err)
		}

		pk[name] = true
	}

	if err := rows.Err(); err != nil {
		return err
	}

	for idx := range desc.Columns {
		if pk[desc.Columns[idx].Name] {
			desc.Columns[idx].IsPrimaryKey = true
		}
	}

	return nil
}

func (i *PostgresInspector) fetchIndexes(ctx context.Context, q Querier, schema, table string) ([]tablecycle.IndexDescriptor, error) {
	query := `
		SELECT ic.relname, ix.indisunique, a.attname, k.ord
		FROM pg_class c
		JOIN pg_namespace n ON c.relnamespace = n.oid
		JOIN pg_index ix ON c.oid = ix.indrelid
		JOIN pg_class ic ON ix.indexrelid = ic.oid
		JOIN unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = k.attnum
		WHERE n.nspname = $1 AND c.relname = $2
		ORDER BY ic.relname, k.ord`

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
			unique       bool
			ord          int
		)

		if err := rows.Scan(&name, &unique, &column, &ord); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
		}

		if current == nil || current.Name != name {
			indexes = append(indexes, tablecycle.IndexDescriptor{Name: name, IsUnique: unique})
			current = &indexes[len(indexes)-1]
		}

		current.Columns = append(current.Columns, tablecycle.IndexColumn{Name: column})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return indexes, nil
}

// TableExists reports whether the table currently exists
func (i *PostgresInspector) TableExists(ctx context.Context, q Querier, schema, table string) (bool, error) {
	if schema == "" {
		schema = "public"
	}

	var exists bool

	query := `SELECT EXISTS (
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = $1 AND table_name = $2)`

	if err := q.QueryRowContext(ctx, query, schema, table).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

// ScriptShadowTable scripts an equivalent table under a new name.
// INCLUDING ALL carries defaults, constraints, indexes and generated columns.
func (i *PostgresInspector) ScriptShadowTable(ctx context.Context, q Querier, table *tablecycle.TableDescriptor, shadowName string) ([]string, error) {
	stmt := fmt.Sprintf("CREATE TABLE %s (LIKE %s INCLUDING ALL)",
		i.dialect.QualifyTable(table.Schema, shadowName),
		i.dialect.QualifyTable(table.Schema, table.Name))

	return []string{stmt}, nil
}

// RenameStatement returns the statement renaming a table within its schema
func (i *PostgresInspector) RenameStatement(schema, oldName, newName string) string {
	// RENAME TO takes an unqualified new name; the table stays in its schema.
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
		i.dialect.QualifyTable(schema, oldName), i.dialect.QuoteIdent(newName))
}

// DropStatement returns the statement dropping a table if it exists
func (i *PostgresInspector) DropStatement(schema, name string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", i.dialect.QualifyTable(schema, name))
}
