package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	tablecycle "github.com/chipslam-maker/tablecycle"
	"github.com/chipslam-maker/tablecycle/diff"
	"github.com/chipslam-maker/tablecycle/introspect"
	"github.com/chipslam-maker/tablecycle/report"
	"github.com/chipslam-maker/tablecycle/rowset"
)

// CompareCmd represents the compare command
type CompareCmd struct {
	SourceEnv string `help:"Environment holding the left row set" default:"development"`
	DestEnv   string `help:"Environment holding the right row set (defaults to the source environment)"`

	Schema     string `help:"Schema of the left table"`
	Table      string `help:"Table to compare" required:""`
	DestSchema string `help:"Schema of the right table (defaults to the left schema)"`
	DestTable  string `help:"Right table name (defaults to the left table name)"`

	PrimaryKey    string   `help:"Column correlating rows between the two sides (overrides compare.primary_key)"`
	Columns       []string `help:"Columns to compare (default: all)"`
	Bidirectional bool     `help:"Also report keys present only on the right side"`

	Format string `help:"Output format (table, json, csv, yaml, markdown)"`
	Output string `short:"o" help:"Write the report to a file instead of stdout" type:"path"`
}

func (c *CompareCmd) Run(ctx *Context) error {
	config, err := LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	primaryKey := c.PrimaryKey
	if primaryKey == "" {
		primaryKey = config.Compare.PrimaryKey
	}

	if primaryKey == "" {
		return ErrPrimaryKeyRequired
	}

	format := c.Format
	if format == "" {
		format = config.Compare.Format
	}

	if format == "" {
		format = string(report.FormatTable)
	}

	if !report.IsValidFormat(format) {
		return fmt.Errorf("%w: '%s'", ErrInvalidOutputFormat, format)
	}

	destEnv := c.DestEnv
	if destEnv == "" {
		destEnv = c.SourceEnv
	}

	runCtx := context.Background()

	srcDB, srcDialect, srcSchema, err := openEnvironment(runCtx, config, c.SourceEnv)
	if err != nil {
		return fmt.Errorf("failed to connect to environment '%s': %w", c.SourceEnv, err)
	}
	defer srcDB.Close()

	dstDB, dstDialect, dstSchema, err := openEnvironment(runCtx, config, destEnv)
	if err != nil {
		return fmt.Errorf("failed to connect to environment '%s': %w", destEnv, err)
	}
	defer dstDB.Close()

	leftSchema := c.Schema
	if leftSchema == "" {
		leftSchema = srcSchema
	}

	rightSchema := c.DestSchema
	if rightSchema == "" {
		rightSchema = leftSchema
		if destEnv != c.SourceEnv && dstSchema != "" {
			rightSchema = dstSchema
		}
	}

	rightTable := c.DestTable
	if rightTable == "" {
		rightTable = c.Table
	}

	if ctx.Verbose {
		color.Blue("Comparing %s against %s by %s", c.Table, rightTable, primaryKey)
	}

	started := time.Now()

	warnings, err := structureWarnings(runCtx, srcDB, dstDB, srcDialect, dstDialect, leftSchema, rightSchema, c.Table, rightTable)
	if err != nil {
		return err
	}

	left, err := rowset.FetchTable(runCtx, srcDB, srcDialect, leftSchema, c.Table, c.Columns)
	if err != nil {
		return fmt.Errorf("failed to fetch left row set: %w", err)
	}

	right, err := rowset.FetchTable(runCtx, dstDB, dstDialect, rightSchema, rightTable, c.Columns)
	if err != nil {
		return fmt.Errorf("failed to fetch right row set: %w", err)
	}

	bidirectional := c.Bidirectional || config.Compare.Bidirectional

	entries, err := diff.Compare(left.Records, right.Records, diff.Options{
		PrimaryKey:    primaryKey,
		Bidirectional: bidirectional,
	})
	if err != nil {
		return err
	}

	diffReport := &report.DiffReport{
		Table:      c.Table,
		PrimaryKey: primaryKey,
		Entries:    entries,
		Warnings:   warnings,
		Duration:   time.Since(started),
	}

	output := c.Output
	if output == "" {
		output = config.Compare.Output
	}

	var w io.Writer = os.Stdout

	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()

		w = file
	}

	if err := diffReport.Write(w, report.Format(format)); err != nil {
		return err
	}

	if !ctx.Quiet && output != "" {
		if len(entries) == 0 {
			color.Green("No differences found, report written to %s", output)
		} else {
			color.Yellow("%d difference(s) found, report written to %s", len(entries), output)
		}
	}

	return nil
}

// structureWarnings compares the two table structures before the row diff so
// column mismatches surface even when every shared value matches.
func structureWarnings(ctx context.Context, srcDB, dstDB *sql.DB, srcDialect, dstDialect tablecycle.Dialect, leftSchema, rightSchema, leftTable, rightTable string) ([]string, error) {
	srcInspect, err := introspect.NewInspector(srcDialect)
	if err != nil {
		return nil, err
	}

	dstInspect, err := introspect.NewInspector(dstDialect)
	if err != nil {
		return nil, err
	}

	left, err := srcInspect.FetchTable(ctx, srcDB, leftSchema, leftTable)
	if err != nil {
		return nil, err
	}

	right, err := dstInspect.FetchTable(ctx, dstDB, rightSchema, rightTable)
	if err != nil {
		return nil, err
	}

	var warnings []string

	for _, finding := range diff.CompareStructure(left, right) {
		warnings = append(warnings, finding.String())
	}

	return warnings, nil
}
