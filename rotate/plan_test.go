package rotate

import (
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	tablecycle "github.com/chipslam-maker/tablecycle"
)

func planTable() *tablecycle.TableDescriptor {
	return &tablecycle.TableDescriptor{
		Schema: "public",
		Name:   "orders",
		Columns: []tablecycle.ColumnDescriptor{
			{Name: "id", DataType: "integer", IsPrimaryKey: true},
			{Name: "created_at", DataType: "timestamp"},
			{Name: "qty", DataType: "integer"},
			{Name: "total", DataType: "integer", IsComputed: true, Formula: "qty * 2"},
		},
	}
}

func TestNewPlan(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	plan, err := NewPlan(planTable(), "created_at", 30, now)
	assert.NoError(t, err)

	assert.Equal(t, "orders_TEMP", plan.ShadowName)
	assert.Equal(t, "orders_OLD", plan.BackupName)
	assert.Equal(t, time.Date(2026, 7, 25, 12, 0, 0, 0, time.UTC), plan.Cutoff)
	assert.Equal(t, []string{"id", "created_at", "qty"}, plan.DataColumns)

	assert.True(t, strings.HasPrefix(plan.SwapName, "orders_SWAP_"))
	assert.Equal(t, len("orders_SWAP_")+8, len(plan.SwapName))
}

func TestNewPlanSwapNamesAreUnique(t *testing.T) {
	now := time.Now()

	first, err := NewPlan(planTable(), "created_at", 30, now)
	assert.NoError(t, err)

	second, err := NewPlan(planTable(), "created_at", 30, now)
	assert.NoError(t, err)

	assert.NotEqual(t, first.SwapName, second.SwapName)
}

func TestNewPlanZeroRetention(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	plan, err := NewPlan(planTable(), "created_at", 0, now)
	assert.NoError(t, err)
	assert.Equal(t, now, plan.Cutoff)
}

func TestNewPlanPreconditions(t *testing.T) {
	now := time.Now()

	t.Run("negative retention", func(t *testing.T) {
		_, err := NewPlan(planTable(), "created_at", -1, now)
		assert.IsError(t, err, tablecycle.ErrInvalidRetention)
	})

	t.Run("unknown date column", func(t *testing.T) {
		_, err := NewPlan(planTable(), "updated_at", 30, now)
		assert.IsError(t, err, tablecycle.ErrColumnNotFound)
	})

	t.Run("no insertable columns", func(t *testing.T) {
		table := &tablecycle.TableDescriptor{
			Name: "derived",
			Columns: []tablecycle.ColumnDescriptor{
				{Name: "total", DataType: "integer", IsComputed: true, Formula: "1"},
			},
		}

		_, err := NewPlan(table, "total", 30, now)
		assert.IsError(t, err, tablecycle.ErrNoInsertableColumns)
	})
}

func TestBuildCopyStatement(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	plan, err := NewPlan(planTable(), "created_at", 30, now)
	assert.NoError(t, err)

	t.Run("postgres", func(t *testing.T) {
		stmt := buildCopyStatement(tablecycle.DialectPostgres, plan)
		assert.Equal(t,
			`INSERT INTO "public"."orders_TEMP" ("id", "created_at", "qty") SELECT "id", "created_at", "qty" FROM "public"."orders" WHERE "created_at" >= $1`,
			stmt)
	})

	t.Run("sqlite", func(t *testing.T) {
		stmt := buildCopyStatement(tablecycle.DialectSQLite, plan)
		assert.Equal(t,
			`INSERT INTO "orders_TEMP" ("id", "created_at", "qty") SELECT "id", "created_at", "qty" FROM "orders" WHERE "created_at" >= ?`,
			stmt)
	})
}
