package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// Context represents the global context for commands
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool
}

var CLI struct {
	Config  string     `help:"Configuration file path" default:"tablecycle.yaml"`
	Verbose bool       `help:"Enable verbose output" short:"v"`
	Quiet   bool       `help:"Suppress output" short:"q"`
	Rotate  RotateCmd  `cmd:"" help:"Rotate a table: archive it and keep only recent rows"`
	Compare CompareCmd `cmd:"" help:"Compare two tables row by row"`
	Copy    CopyCmd    `cmd:"" help:"Copy a table between two servers"`
	Init    InitCmd    `cmd:"" help:"Initialize a tablecycle project"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run() error {
	fmt.Println("tablecycle v0.1.0")
	return nil
}

func main() {
	ctx := kong.Parse(&CLI)

	appCtx := &Context{
		Config:  CLI.Config,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
