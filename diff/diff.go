// Package diff implements the row-level and structural table comparators.
//
// Row comparison correlates two equally-shaped row sets by a primary-key
// column: keys present on the left but not on the right are reported as
// missing, keys present on both sides are compared column by column.
package diff

import (
	"fmt"
	"sort"
	"strings"

	tablecycle "github.com/chipslam-maker/tablecycle"
)

// RowRecord maps column names to nullable scalar values fetched from one
// source. Records are never mutated after creation.
type RowRecord map[string]any

// nullSentinel stands in for SQL NULL during comparison. The leading NUL byte
// keeps it distinct from any string value a database can return.
const nullSentinel = "\x00null"

// Kind discriminates diff entry variants
type Kind string

const (
	KindMissing       Kind = "missing"
	KindValueMismatch Kind = "value_mismatch"
)

// Side names the row set a missing key was absent from
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// ColumnDiff is one differing column of a value mismatch
type ColumnDiff struct {
	Name  string `json:"name" yaml:"name"`
	Left  string `json:"left" yaml:"left"`
	Right string `json:"right" yaml:"right"`
}

// Entry is a single finding of a row comparison: either a key present on one
// side only, or a key present on both sides with differing column values.
type Entry struct {
	Kind    Kind         `json:"kind" yaml:"kind"`
	Key     string       `json:"key" yaml:"key"`
	Side    Side         `json:"side,omitempty" yaml:"side,omitempty"`
	Columns []ColumnDiff `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// Options controls a row comparison
type Options struct {
	// PrimaryKey is the column used to correlate rows between the two sets.
	// Uniqueness is assumed, not enforced.
	PrimaryKey string

	// Bidirectional additionally reports keys present only on the right side.
	// The default matches the historical one-directional behavior: right-only
	// keys are not reported.
	Bidirectional bool
}

// Compare correlates the left row set against the right one and returns the
// differences. The right side is indexed by normalized key (first occurrence
// wins on duplicates) and the left side is scanned against it, so the cost is
// linear in the two set sizes. Source data is never mutated.
func Compare(left, right []RowRecord, opts Options) ([]Entry, error) {
	if opts.PrimaryKey == "" {
		return nil, fmt.Errorf("%w: primary key not specified", tablecycle.ErrPrimaryKeyMissing)
	}

	index := make(map[string]RowRecord, len(right))
	rightKeys := make([]string, 0, len(right))

	for _, rec := range right {
		key, err := recordKey(rec, opts.PrimaryKey)
		if err != nil {
			return nil, err
		}

		if _, seen := index[key]; seen {
			// Duplicate keys on the right are ignored beyond the first
			// occurrence. Known limitation, kept for parity.
			continue
		}

		index[key] = rec
		rightKeys = append(rightKeys, key)
	}

	var entries []Entry

	matched := make(map[string]bool, len(left))

	for _, rec := range left {
		key, err := recordKey(rec, opts.PrimaryKey)
		if err != nil {
			return nil, err
		}

		counterpart, ok := index[key]
		if !ok {
			entries = append(entries, Entry{Kind: KindMissing, Key: key, Side: SideRight})
			continue
		}

		matched[key] = true

		if cols := compareColumns(rec, counterpart, opts.PrimaryKey); len(cols) > 0 {
			entries = append(entries, Entry{Kind: KindValueMismatch, Key: key, Columns: cols})
		}
	}

	if opts.Bidirectional {
		for _, key := range rightKeys {
			if !matched[key] {
				entries = append(entries, Entry{Kind: KindMissing, Key: key, Side: SideLeft})
			}
		}
	}

	return entries, nil
}

// compareColumns collects every shared column whose normalized values differ,
// in column-name order for deterministic reports.
func compareColumns(left, right RowRecord, primaryKey string) []ColumnDiff {
	names := make([]string, 0, len(left))

	for name := range left {
		if name == primaryKey {
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)

	var diffs []ColumnDiff

	for _, name := range names {
		rightValue, ok := right[name]
		if !ok {
			continue
		}

		lv := Normalize(left[name])
		rv := Normalize(rightValue)

		if lv != rv {
			diffs = append(diffs, ColumnDiff{Name: name, Left: Display(left[name]), Right: Display(rightValue)})
		}
	}

	return diffs
}

func recordKey(rec RowRecord, primaryKey string) (string, error) {
	value, ok := rec[primaryKey]
	if !ok {
		return "", fmt.Errorf("%w: %q", tablecycle.ErrPrimaryKeyMissing, primaryKey)
	}

	return Normalize(value), nil
}

// Normalize renders a value into its comparable form: NULL becomes a sentinel
// distinct from any string, everything else its trimmed string representation.
func Normalize(v any) string {
	if v == nil {
		return nullSentinel
	}

	if b, ok := v.([]byte); ok {
		return strings.TrimSpace(string(b))
	}

	return strings.TrimSpace(fmt.Sprint(v))
}

// Display renders a value for reports, with NULL spelled out
func Display(v any) string {
	if v == nil {
		return "NULL"
	}

	if b, ok := v.([]byte); ok {
		return string(b)
	}

	return fmt.Sprint(v)
}
