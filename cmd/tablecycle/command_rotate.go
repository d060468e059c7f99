package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/chipslam-maker/tablecycle/introspect"
	"github.com/chipslam-maker/tablecycle/rotate"
)

// RotateCmd represents the rotate command
type RotateCmd struct {
	Env        string `help:"Environment name from configuration" default:"development"`
	Schema     string `help:"Schema of the table (defaults to the environment schema)"`
	Table      string `help:"Table to rotate" required:""`
	DateColumn string `help:"Date column driving retention (overrides rotation.date_column)"`
	Days       int    `help:"Retention window in days (overrides rotation.retention_days)" default:"-1"`
	Verify     bool   `help:"Verify structure and retention window after rotation"`
	DryRun     bool   `help:"Show the rotation plan without executing it"`
}

func (r *RotateCmd) Run(ctx *Context) error {
	config, err := LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dateColumn := r.DateColumn
	if dateColumn == "" {
		dateColumn = config.Rotation.DateColumn
	}

	if dateColumn == "" {
		return ErrDateColumnRequired
	}

	days := r.Days
	if days < 0 {
		days = config.Rotation.RetentionDays
	}

	runCtx := context.Background()

	db, dialect, defaultSchema, err := openEnvironment(runCtx, config, r.Env)
	if err != nil {
		return fmt.Errorf("failed to connect to environment '%s': %w", r.Env, err)
	}
	defer db.Close()

	schema := r.Schema
	if schema == "" {
		schema = defaultSchema
	}

	inspector, err := introspect.NewInspector(dialect)
	if err != nil {
		return err
	}

	table, err := inspector.FetchTable(runCtx, db, schema, r.Table)
	if err != nil {
		return err
	}

	plan, err := rotate.NewPlan(table, dateColumn, days, time.Now())
	if err != nil {
		return err
	}

	plan.DropStaleShadow = config.Rotation.DropTempIfExists

	if ctx.Verbose {
		color.Blue("Rotating %s: keeping rows with %s >= %s",
			table.QualifiedName(), plan.DateColumn, plan.Cutoff.Format(time.RFC3339))
	}

	if r.DryRun {
		fmt.Printf("plan for %s:\n", table.QualifiedName())
		fmt.Printf("  cutoff:  %s (%d days)\n", plan.Cutoff.Format(time.RFC3339), days)
		fmt.Printf("  shadow:  %s\n", plan.ShadowName)
		fmt.Printf("  backup:  %s\n", plan.BackupName)
		fmt.Printf("  columns: %d copied, %d computed\n",
			len(plan.DataColumns), len(table.Columns)-len(plan.DataColumns))

		return nil
	}

	engine := rotate.New(db, inspector, dialect)

	result, err := engine.Rotate(runCtx, plan)
	if err != nil {
		if !ctx.Quiet {
			color.Red("Rotation of %s failed, no changes were made", table.QualifiedName())
		}

		return err
	}

	if !ctx.Quiet {
		color.Green("Rotated %s in %s", table.QualifiedName(), result.Duration.Round(time.Millisecond))
		fmt.Printf("  retained rows: %d\n", result.RowsCopied)
		fmt.Printf("  backup table:  %s\n", result.BackupName)
	}

	if r.Verify || config.Rotation.Verify {
		report, err := engine.Verify(runCtx, plan)
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}

		for _, warning := range report.Warnings {
			color.Yellow("warning: %s", warning)
		}

		if !ctx.Quiet && len(report.Warnings) == 0 {
			color.Green("Verification passed")
		}
	}

	return nil
}
