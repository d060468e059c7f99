package rotate

import (
	"context"
	"fmt"
	"time"

	"github.com/chipslam-maker/tablecycle/diff"
)

// VerifyToleranceDays is the slack allowed between the observed minimum date
// and the retention cutoff before a warning is raised.
const VerifyToleranceDays = 2

// VerifyReport collects post-rotation findings. Everything here is a warning;
// verification never fails a completed rotation.
type VerifyReport struct {
	Warnings []string  `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	MinDate  time.Time `json:"min_date,omitempty" yaml:"min_date,omitempty"`
	Empty    bool      `json:"empty" yaml:"empty"`
}

// Verify compares the column structure of the rotated table against its
// backup (both derive from the same original, so they must match) and checks
// that the oldest retained row sits within the tolerance band of the cutoff.
func (e *Engine) Verify(ctx context.Context, plan *Plan) (*VerifyReport, error) {
	schema := plan.Table.Schema

	rotated, err := e.inspector.FetchTable(ctx, e.db, schema, plan.Table.Name)
	if err != nil {
		return nil, err
	}

	backup, err := e.inspector.FetchTable(ctx, e.db, schema, plan.BackupName)
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{}

	// Index names intentionally differ after promotion, so only columns are
	// compared here.
	for _, finding := range diff.CompareStructure(rotated, backup) {
		report.Warnings = append(report.Warnings, finding.String())
	}

	query := fmt.Sprintf("SELECT MIN(%s) FROM %s",
		e.dialect.QuoteIdent(plan.DateColumn),
		e.dialect.QualifyTable(schema, plan.Table.Name))

	var raw any
	if err := e.db.QueryRowContext(ctx, query).Scan(&raw); err != nil {
		return nil, err
	}

	minDate, ok := parseTimeValue(raw)
	if !ok {
		// No rows retained. Expected for short retention windows.
		report.Empty = true
		return report, nil
	}

	report.MinDate = minDate

	tolerance := time.Duration(VerifyToleranceDays) * 24 * time.Hour
	if delta := minDate.Sub(plan.Cutoff); delta < -tolerance || delta > tolerance {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("oldest retained %s is %s, outside ±%dd of cutoff %s",
				plan.DateColumn,
				minDate.Format(time.RFC3339),
				VerifyToleranceDays,
				plan.Cutoff.Format(time.RFC3339)))
	}

	return report, nil
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02",
}

// parseTimeValue interprets a MIN() scan result, which arrives as a time.Time
// or as text depending on driver and column type. NULL means the table is
// empty.
func parseTimeValue(v any) (time.Time, bool) {
	switch value := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return value, true
	case []byte:
		return parseTimeString(string(value))
	case string:
		return parseTimeString(value)
	default:
		return time.Time{}, false
	}
}

func parseTimeString(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
