package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/chipslam-maker/tablecycle/transfer"
)

// CopyCmd represents the copy command
type CopyCmd struct {
	SourceEnv string `help:"Environment to copy from" required:""`
	DestEnv   string `help:"Environment to copy to" required:""`

	Schema     string `help:"Schema of the source table"`
	Table      string `help:"Table to copy" required:""`
	DestSchema string `help:"Destination schema (defaults to the source schema)"`

	DropIfExists bool `help:"Drop and recreate the destination table if it exists"`
	BatchSize    int  `help:"Rows per INSERT batch (overrides copy.batch_size)" default:"0"`
}

func (c *CopyCmd) Run(ctx *Context) error {
	config, err := LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	runCtx := context.Background()

	srcDB, srcDialect, srcSchema, err := openEnvironment(runCtx, config, c.SourceEnv)
	if err != nil {
		return fmt.Errorf("failed to connect to environment '%s': %w", c.SourceEnv, err)
	}
	defer srcDB.Close()

	dstDB, dstDialect, dstSchema, err := openEnvironment(runCtx, config, c.DestEnv)
	if err != nil {
		return fmt.Errorf("failed to connect to environment '%s': %w", c.DestEnv, err)
	}
	defer dstDB.Close()

	schema := c.Schema
	if schema == "" {
		schema = srcSchema
	}

	destSchema := c.DestSchema
	if destSchema == "" {
		destSchema = dstSchema
	}

	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = config.Copy.BatchSize
	}

	copier, err := transfer.New(srcDB, dstDB, srcDialect, dstDialect)
	if err != nil {
		return err
	}

	if ctx.Verbose {
		color.Blue("Copying %s from '%s' to '%s'", c.Table, c.SourceEnv, c.DestEnv)
	}

	result, err := copier.Copy(runCtx, transfer.Spec{
		Schema:       schema,
		Table:        c.Table,
		DestSchema:   destSchema,
		DropIfExists: c.DropIfExists || config.Copy.DropIfExists,
		BatchSize:    batchSize,
	})
	if err != nil {
		if !ctx.Quiet {
			color.Red("Copy of %s failed, destination unchanged", c.Table)
		}

		return err
	}

	if !ctx.Quiet {
		if result.Created {
			color.Green("Created %s and copied %d row(s) in %s",
				c.Table, result.RowsCopied, result.Duration.Round(time.Millisecond))
		} else {
			color.Green("Copied %d row(s) into existing %s in %s",
				result.RowsCopied, c.Table, result.Duration.Round(time.Millisecond))
		}

		for _, warning := range result.Warnings {
			color.Yellow("warning: %s", warning)
		}
	}

	return nil
}
