// Package report renders diff and rotation results for CLI consumption.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/chipslam-maker/tablecycle/diff"
)

// Format identifies an output rendering
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ValidFormats lists the accepted output format names
var ValidFormats = []Format{FormatTable, FormatJSON, FormatCSV, FormatYAML, FormatMarkdown}

// IsValidFormat reports whether name is a supported output format
func IsValidFormat(name string) bool {
	for _, f := range ValidFormats {
		if string(f) == name {
			return true
		}
	}

	return false
}

// DiffReport is the renderable result of one table comparison
type DiffReport struct {
	Table      string        `json:"table" yaml:"table"`
	PrimaryKey string        `json:"primary_key" yaml:"primary_key"`
	Entries    []diff.Entry  `json:"entries" yaml:"entries"`
	Warnings   []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// Write renders the report to w in the requested format
func (r *DiffReport) Write(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		return r.writeJSON(w)
	case FormatCSV:
		return r.writeCSV(w)
	case FormatYAML:
		return r.writeYAML(w)
	case FormatMarkdown:
		return r.writeMarkdown(w)
	case FormatTable, "":
		return r.writeTable(w)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func (r *DiffReport) writeJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(r)
}

func (r *DiffReport) writeYAML(w io.Writer) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = w.Write(data)

	return err
}

// writeCSV emits one line per finding: missing entries carry empty column
// cells, mismatches one line per differing column.
func (r *DiffReport) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"kind", "key", "side", "column", "left", "right"}); err != nil {
		return err
	}

	for _, entry := range r.Entries {
		if entry.Kind == diff.KindMissing {
			if err := cw.Write([]string{string(entry.Kind), entry.Key, string(entry.Side), "", "", ""}); err != nil {
				return err
			}

			continue
		}

		for _, col := range entry.Columns {
			record := []string{string(entry.Kind), entry.Key, "", col.Name, col.Left, col.Right}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()

	return cw.Error()
}

func (r *DiffReport) writeTable(w io.Writer) error {
	if len(r.Warnings) > 0 {
		for _, warning := range r.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}

		fmt.Fprintln(w)
	}

	if len(r.Entries) == 0 {
		fmt.Fprintf(w, "%s: no differences\n", r.Table)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tKEY\tCOLUMN\tLEFT\tRIGHT")

	for _, entry := range r.Entries {
		if entry.Kind == diff.KindMissing {
			fmt.Fprintf(tw, "%s (%s)\t%s\t\t\t\n", entry.Kind, entry.Side, entry.Key)
			continue
		}

		for _, col := range entry.Columns {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				entry.Kind, entry.Key, col.Name, col.Left, col.Right)
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d difference(s) on %s (key: %s)\n", len(r.Entries), r.Table, r.PrimaryKey)

	return nil
}

func (r *DiffReport) writeMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "## Differences: %s\n\n", r.Table)

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "> %s\n", warning)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w)
	}

	if len(r.Entries) == 0 {
		fmt.Fprintln(w, "No differences found.")
		return nil
	}

	fmt.Fprintln(w, "| Kind | Key | Column | Left | Right |")
	fmt.Fprintln(w, "|------|-----|--------|------|-------|")

	for _, entry := range r.Entries {
		if entry.Kind == diff.KindMissing {
			fmt.Fprintf(w, "| %s (%s) | %s | | | |\n", entry.Kind, entry.Side, escapeMarkdown(entry.Key))
			continue
		}

		for _, col := range entry.Columns {
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
				entry.Kind,
				escapeMarkdown(entry.Key),
				col.Name,
				escapeMarkdown(col.Left),
				escapeMarkdown(col.Right))
		}
	}

	return nil
}

func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
