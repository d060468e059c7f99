// Package rowset materializes query results into comparable row records.
package rowset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	tablecycle "github.com/chipslam-maker/tablecycle"
	"github.com/chipslam-maker/tablecycle/diff"
)

// Set is a fully materialized row set from one source
type Set struct {
	Columns []string
	Records []diff.RowRecord
}

// FetchTable materializes the named columns of a table. An empty column list
// selects every column. Any fetch error aborts before diffing begins.
func FetchTable(ctx context.Context, db *sql.DB, dialect tablecycle.Dialect, schema, table string, columns []string) (*Set, error) {
	projection := "*"

	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, c := range columns {
			quoted[i] = dialect.QuoteIdent(c)
		}

		projection = strings.Join(quoted, ", ")
	}

	query := fmt.Sprintf("SELECT %s FROM %s", projection, dialect.QualifyTable(schema, table))

	return FetchQuery(ctx, db, query)
}

// FetchQuery materializes the result of an arbitrary query
func FetchQuery(ctx context.Context, db *sql.DB, query string, args ...any) (*Set, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tablecycle.ErrStatementFailed, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get column names: %w", err)
	}

	if len(columns) == 0 {
		return nil, tablecycle.ErrEmptyColumnSet
	}

	set := &Set{Columns: columns}

	values := make([]any, len(columns))
	scanArgs := make([]any, len(columns))

	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		record := make(diff.RowRecord, len(columns))
		for i, col := range columns {
			record[col] = convertValue(values[i])
		}

		set.Records = append(set.Records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return set, nil
}

// convertValue converts driver values to comparable Go types
func convertValue(v any) any {
	if v == nil {
		return nil
	}

	if b, ok := v.([]byte); ok {
		return string(b)
	}

	return v
}
