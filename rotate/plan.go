// Package rotate implements the retention rotation engine: shadow table
// creation, filtered copy of recent rows, and an atomic double-rename that
// archives the original table and promotes the shadow in its place.
package rotate

import (
	"fmt"
	"strings"
	"time"

	tablecycle "github.com/chipslam-maker/tablecycle"
	"github.com/google/uuid"
)

// Derived table name suffixes
const (
	ShadowSuffix = "_TEMP"
	BackupSuffix = "_OLD"
)

// Plan is the fully derived input of one rotation. It is constructed per
// invocation and never persisted.
type Plan struct {
	Table         *tablecycle.TableDescriptor
	DateColumn    string
	RetentionDays int

	// Cutoff is the retention boundary: rows with DateColumn >= Cutoff are kept.
	Cutoff time.Time

	// ShadowName holds the retained subset before promotion.
	ShadowName string
	// BackupName is the archive name the original table ends up under.
	BackupName string
	// SwapName is the transitional name used during the rename dance. A random
	// suffix keeps it collision-free against leftovers of earlier runs.
	SwapName string

	// DropStaleShadow drops a leftover shadow table from an interrupted run
	// before creating the new one. When false, a leftover shadow fails the
	// rotation instead.
	DropStaleShadow bool

	// DataColumns are the non-computed columns copied into the shadow table.
	DataColumns []string
}

// NewPlan validates the rotation preconditions and derives the plan.
// retentionDays = 0 is allowed and typically yields an empty retained table.
func NewPlan(table *tablecycle.TableDescriptor, dateColumn string, retentionDays int, now time.Time) (*Plan, error) {
	if retentionDays < 0 {
		return nil, fmt.Errorf("%w: got %d", tablecycle.ErrInvalidRetention, retentionDays)
	}

	if _, ok := table.Column(dateColumn); !ok {
		return nil, fmt.Errorf("%w: %q in table %s", tablecycle.ErrColumnNotFound, dateColumn, table.QualifiedName())
	}

	dataColumns := table.DataColumns()
	if len(dataColumns) == 0 {
		return nil, fmt.Errorf("%w: %s", tablecycle.ErrNoInsertableColumns, table.QualifiedName())
	}

	return &Plan{
		Table:         table,
		DateColumn:    dateColumn,
		RetentionDays: retentionDays,
		Cutoff:        now.AddDate(0, 0, -retentionDays),
		ShadowName:    table.Name + ShadowSuffix,
		BackupName:    table.Name + BackupSuffix,
		SwapName:      table.Name + "_SWAP_" + swapToken(),
		DataColumns:   dataColumns,
	}, nil
}

func swapToken() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}

// State tracks how far a rotation progressed. Every transition before commit
// is reversible by rollback.
type State string

const (
	StateStable          State = "stable"
	StateShadowCreated   State = "shadow_created"
	StateDataCopied      State = "data_copied"
	StateOriginalRenamed State = "original_renamed"
	StateBackupNamed     State = "backup_named"
	StateShadowPromoted  State = "shadow_promoted"
)
