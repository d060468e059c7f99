// Package transfer copies one table between two independently-connected
// servers: structure first, then rows in parameterized batches. The two sides
// are separate single-server operations reconciled client-side; there is no
// distributed transaction.
package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	tablecycle "github.com/chipslam-maker/tablecycle"
	"github.com/chipslam-maker/tablecycle/diff"
	"github.com/chipslam-maker/tablecycle/introspect"
)

// DefaultBatchSize is used when a spec does not set one
const DefaultBatchSize = 500

// Spec describes one copy operation
type Spec struct {
	Schema     string
	Table      string
	DestSchema string

	// DropIfExists recreates the destination table from the source structure.
	// When false and the destination exists, its structure is compared to the
	// source and differences are reported as warnings before appending rows.
	DropIfExists bool
	BatchSize    int
}

// Result reports the outcome of one copy
type Result struct {
	Table      string        `json:"table" yaml:"table"`
	RowsCopied int64         `json:"rows_copied" yaml:"rows_copied"`
	Created    bool          `json:"created" yaml:"created"`
	Warnings   []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// Copier moves a table from a source server to a destination server
type Copier struct {
	src        *sql.DB
	dst        *sql.DB
	srcInspect introspect.Inspector
	dstInspect introspect.Inspector
	srcDialect tablecycle.Dialect
	dstDialect tablecycle.Dialect
}

// New creates a copier between two connections
func New(src, dst *sql.DB, srcDialect, dstDialect tablecycle.Dialect) (*Copier, error) {
	srcInspect, err := introspect.NewInspector(srcDialect)
	if err != nil {
		return nil, err
	}

	dstInspect, err := introspect.NewInspector(dstDialect)
	if err != nil {
		return nil, err
	}

	return &Copier{
		src:        src,
		dst:        dst,
		srcInspect: srcInspect,
		dstInspect: dstInspect,
		srcDialect: srcDialect,
		dstDialect: dstDialect,
	}, nil
}

// Copy performs one table copy. All destination writes happen in a single
// transaction; any failure rolls the destination back untouched.
func (c *Copier) Copy(ctx context.Context, spec Spec) (*Result, error) {
	started := time.Now()

	if spec.BatchSize <= 0 {
		spec.BatchSize = DefaultBatchSize
	}

	destSchema := spec.DestSchema
	if destSchema == "" {
		destSchema = spec.Schema
	}

	source, err := c.srcInspect.FetchTable(ctx, c.src, spec.Schema, spec.Table)
	if err != nil {
		return nil, err
	}

	dataColumns := source.DataColumns()
	if len(dataColumns) == 0 {
		return nil, fmt.Errorf("%w: %s", tablecycle.ErrNoInsertableColumns, source.QualifiedName())
	}

	result := &Result{Table: spec.Table}

	tx, err := c.dst.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin destination transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	exists, err := c.dstInspect.TableExists(ctx, tx, destSchema, spec.Table)
	if err != nil {
		return nil, err
	}

	switch {
	case exists && spec.DropIfExists:
		if _, err = tx.ExecContext(ctx, c.dstInspect.DropStatement(destSchema, spec.Table)); err != nil {
			return nil, fmt.Errorf("%w: dropping destination table: %v", tablecycle.ErrStatementFailed, err)
		}

		exists = false
	case exists:
		dest, fetchErr := c.dstInspect.FetchTable(ctx, tx, destSchema, spec.Table)
		if fetchErr != nil {
			err = fetchErr
			return nil, err
		}

		for _, finding := range diff.CompareStructure(source, dest) {
			result.Warnings = append(result.Warnings, finding.String())
		}
	}

	if !exists {
		target := &tablecycle.TableDescriptor{
			Schema:  destSchema,
			Name:    spec.Table,
			Columns: source.Columns,
			Indexes: source.Indexes,
		}

		stmts := append(
			[]string{introspect.BuildCreateStatement(c.dstDialect, target, spec.Table)},
			introspect.BuildIndexStatements(c.dstDialect, target, spec.Table)...)

		for _, stmt := range stmts {
			if _, err = tx.ExecContext(ctx, stmt); err != nil {
				return nil, fmt.Errorf("%w: creating destination table: %v", tablecycle.ErrStatementFailed, err)
			}
		}

		result.Created = true
	}

	copied, err := c.streamRows(ctx, tx, source, destSchema, dataColumns, spec.BatchSize)
	if err != nil {
		return nil, err
	}

	result.RowsCopied = copied

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit copy: %w", err)
	}

	result.Duration = time.Since(started)

	return result, nil
}

// streamRows reads the source in one pass and flushes multi-row INSERT
// batches to the destination transaction.
func (c *Copier) streamRows(ctx context.Context, tx *sql.Tx, source *tablecycle.TableDescriptor, destSchema string, columns []string, batchSize int) (int64, error) {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = c.srcDialect.QuoteIdent(col)
	}

	query := fmt.Sprintf("SELECT %s FROM %s",
		strings.Join(quoted, ", "),
		c.srcDialect.QualifyTable(source.Schema, source.Name))

	rows, err := c.src.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%w: reading source rows: %v", tablecycle.ErrStatementFailed, err)
	}
	defer rows.Close()

	var (
		total int64
		batch []any
		count int
	)

	values := make([]any, len(columns))
	scanArgs := make([]any, len(columns))

	for i := range values {
		scanArgs[i] = &values[i]
	}

	flush := func() error {
		if count == 0 {
			return nil
		}

		stmt := buildInsertStatement(c.dstDialect, destSchema, source.Name, columns, count)
		if _, err := tx.ExecContext(ctx, stmt, batch...); err != nil {
			return fmt.Errorf("%w: inserting batch: %v", tablecycle.ErrStatementFailed, err)
		}

		total += int64(count)
		batch = batch[:0]
		count = 0

		return nil
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return 0, fmt.Errorf("failed to scan source row: %w", err)
		}

		for _, v := range values {
			batch = append(batch, v)
		}

		count++

		if count >= batchSize {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}

	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error during source iteration: %w", err)
	}

	if err := flush(); err != nil {
		return 0, err
	}

	return total, nil
}

// buildInsertStatement renders a multi-row parameterized INSERT
func buildInsertStatement(d tablecycle.Dialect, schema, table string, columns []string, rowCount int) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = d.QuoteIdent(col)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ",
		d.QualifyTable(schema, table), strings.Join(quoted, ", "))

	arg := 1

	for row := 0; row < rowCount; row++ {
		if row > 0 {
			b.WriteString(", ")
		}

		b.WriteString("(")

		for col := range columns {
			if col > 0 {
				b.WriteString(", ")
			}

			b.WriteString(d.Placeholder(arg))
			arg++
		}

		b.WriteString(")")
	}

	return b.String()
}
