package rotate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	tablecycle "github.com/chipslam-maker/tablecycle"
	"github.com/chipslam-maker/tablecycle/introspect"
)

// Engine executes rotation plans against one database. Invocations are
// single-threaded and blocking; concurrent rotations against the same table
// are not safe and rely on the database's own locking for protection.
type Engine struct {
	db        *sql.DB
	inspector introspect.Inspector
	dialect   tablecycle.Dialect
}

// New creates a rotation engine
func New(db *sql.DB, inspector introspect.Inspector, dialect tablecycle.Dialect) *Engine {
	return &Engine{db: db, inspector: inspector, dialect: dialect}
}

// Result reports the outcome of one rotation
type Result struct {
	TableName  string        `json:"table" yaml:"table"`
	BackupName string        `json:"backup" yaml:"backup"`
	RowsCopied int64         `json:"rows_copied" yaml:"rows_copied"`
	State      State         `json:"state" yaml:"state"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// Rotate executes the plan as a single atomic unit: all steps succeed or the
// source table is left byte-for-byte unchanged with no shadow or backup
// artifacts remaining. Errors are never retried; retry is a caller concern.
func (e *Engine) Rotate(ctx context.Context, plan *Plan) (result *Result, err error) {
	started := time.Now()
	schema := plan.Table.Schema
	result = &Result{TableName: plan.Table.Name, BackupName: plan.BackupName, State: StateStable}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
			e.compensate(ctx, plan)
		}
	}()

	// A shadow table left behind by an interrupted run is dropped first,
	// unless the plan asks to treat it as a failure.
	if plan.DropStaleShadow {
		if err = e.exec(ctx, tx, e.inspector.DropStatement(schema, plan.ShadowName)); err != nil {
			return result, err
		}
	} else {
		exists, existsErr := e.inspector.TableExists(ctx, tx, schema, plan.ShadowName)
		if existsErr != nil {
			err = existsErr
			return result, err
		}

		if exists {
			err = fmt.Errorf("%w: leftover shadow table %s already exists", tablecycle.ErrStatementFailed, plan.ShadowName)
			return result, err
		}
	}

	stmts, err := e.inspector.ScriptShadowTable(ctx, tx, plan.Table, plan.ShadowName)
	if err != nil {
		return result, err
	}

	for _, stmt := range stmts {
		if err = e.exec(ctx, tx, stmt); err != nil {
			return result, err
		}
	}

	result.State = StateShadowCreated

	// Computed columns are never named here; the engine rederives them from
	// the base columns on insert.
	res, execErr := tx.ExecContext(ctx, buildCopyStatement(e.dialect, plan), plan.Cutoff)
	if execErr != nil {
		err = fmt.Errorf("%w: copying retained rows: %v", tablecycle.ErrStatementFailed, execErr)
		return result, err
	}

	if copied, raErr := res.RowsAffected(); raErr == nil {
		result.RowsCopied = copied
	}

	result.State = StateDataCopied

	// Existence re-checks immediately before the renames. A missing table at
	// this point implies concurrent interference and is fatal.
	exists, err := e.inspector.TableExists(ctx, tx, schema, plan.Table.Name)
	if err != nil {
		return result, err
	}

	if !exists {
		err = fmt.Errorf("%w: %s", tablecycle.ErrOriginalTableMissing, plan.Table.QualifiedName())
		return result, err
	}

	exists, err = e.inspector.TableExists(ctx, tx, schema, plan.ShadowName)
	if err != nil {
		return result, err
	}

	if !exists {
		err = fmt.Errorf("%w: %s", tablecycle.ErrShadowTableMissing, plan.ShadowName)
		return result, err
	}

	// A backup from a previous rotation would collide with the archive rename.
	if err = e.exec(ctx, tx, e.inspector.DropStatement(schema, plan.BackupName)); err != nil {
		return result, err
	}

	if err = e.exec(ctx, tx, e.inspector.RenameStatement(schema, plan.Table.Name, plan.SwapName)); err != nil {
		return result, err
	}

	result.State = StateOriginalRenamed

	if err = e.exec(ctx, tx, e.inspector.RenameStatement(schema, plan.SwapName, plan.BackupName)); err != nil {
		return result, err
	}

	result.State = StateBackupNamed

	if err = e.exec(ctx, tx, e.inspector.RenameStatement(schema, plan.ShadowName, plan.Table.Name)); err != nil {
		return result, err
	}

	result.State = StateShadowPromoted

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("failed to commit rotation: %w", err)
		return result, err
	}

	result.State = StateStable
	result.Duration = time.Since(started)

	return result, nil
}

func (e *Engine) exec(ctx context.Context, tx *sql.Tx, stmt string) error {
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%w: %s: %v", tablecycle.ErrStatementFailed, firstKeywords(stmt), err)
	}

	return nil
}

// compensate drops a stray shadow table after rollback. Engines with
// transactional DDL undo the shadow through the rollback itself; MySQL
// commits DDL implicitly, so the artifact must be removed explicitly.
func (e *Engine) compensate(ctx context.Context, plan *Plan) {
	if e.dialect.SupportsTransactionalDDL() {
		return
	}

	cleanupCtx := context.WithoutCancel(ctx)
	_, _ = e.db.ExecContext(cleanupCtx, e.inspector.DropStatement(plan.Table.Schema, plan.ShadowName))
}

// buildCopyStatement renders the retained-row copy. Identifiers are quoted
// and the cutoff is a bound parameter, never interpolated text.
func buildCopyStatement(d tablecycle.Dialect, plan *Plan) string {
	cols := make([]string, len(plan.DataColumns))
	for i, c := range plan.DataColumns {
		cols[i] = d.QuoteIdent(c)
	}

	columnList := strings.Join(cols, ", ")

	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s WHERE %s >= %s",
		d.QualifyTable(plan.Table.Schema, plan.ShadowName),
		columnList,
		columnList,
		d.QualifyTable(plan.Table.Schema, plan.Table.Name),
		d.QuoteIdent(plan.DateColumn),
		d.Placeholder(1))
}

func firstKeywords(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) > 3 {
		fields = fields[:3]
	}

	return strings.Join(fields, " ")
}
