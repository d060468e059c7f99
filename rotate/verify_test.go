package rotate

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestVerifyCleanRotation(t *testing.T) {
	db := openTestDB(t)

	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	cutoffAge := now.AddDate(0, 0, -30)

	// The oldest retained row sits one day inside the window
	seedOrders(t, db,
		now.AddDate(0, 0, -60),
		cutoffAge.AddDate(0, 0, 1),
		now,
	)

	engine, inspector := newTestEngine(t, db)
	ctx := context.Background()

	table, err := inspector.FetchTable(ctx, db, "", "orders")
	assert.NoError(t, err)

	plan, err := NewPlan(table, "created_at", 30, now)
	assert.NoError(t, err)

	_, err = engine.Rotate(ctx, plan)
	assert.NoError(t, err)

	report, err := engine.Verify(ctx, plan)
	assert.NoError(t, err)
	assert.False(t, report.Empty)
	assert.Equal(t, 0, len(report.Warnings))
	assert.True(t, report.MinDate.Equal(cutoffAge.AddDate(0, 0, 1)))
}

func TestVerifyWarnsWhenMinDateOutsideTolerance(t *testing.T) {
	db := openTestDB(t)

	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	// The oldest retained row is 20 days newer than the cutoff, which suggests
	// the window was wider than the data.
	seedOrders(t, db,
		now.AddDate(0, 0, -60),
		now.AddDate(0, 0, -10),
		now,
	)

	engine, inspector := newTestEngine(t, db)
	ctx := context.Background()

	table, err := inspector.FetchTable(ctx, db, "", "orders")
	assert.NoError(t, err)

	plan, err := NewPlan(table, "created_at", 30, now)
	assert.NoError(t, err)

	_, err = engine.Rotate(ctx, plan)
	assert.NoError(t, err)

	report, err := engine.Verify(ctx, plan)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(report.Warnings))
}

func TestVerifyEmptyRetainedTable(t *testing.T) {
	db := openTestDB(t)

	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	seedOrders(t, db, now.AddDate(0, 0, -60))

	engine, inspector := newTestEngine(t, db)
	ctx := context.Background()

	table, err := inspector.FetchTable(ctx, db, "", "orders")
	assert.NoError(t, err)

	plan, err := NewPlan(table, "created_at", 30, now)
	assert.NoError(t, err)

	_, err = engine.Rotate(ctx, plan)
	assert.NoError(t, err)

	report, err := engine.Verify(ctx, plan)
	assert.NoError(t, err)
	assert.True(t, report.Empty)
	assert.Equal(t, 0, len(report.Warnings))
}

func TestParseTimeValue(t *testing.T) {
	t.Run("nil means empty", func(t *testing.T) {
		_, ok := parseTimeValue(nil)
		assert.False(t, ok)
	})

	t.Run("time passes through", func(t *testing.T) {
		stamp := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
		got, ok := parseTimeValue(stamp)
		assert.True(t, ok)
		assert.True(t, got.Equal(stamp))
	})

	t.Run("text with offset", func(t *testing.T) {
		got, ok := parseTimeValue([]byte("2026-08-24 12:00:00+00:00"))
		assert.True(t, ok)
		assert.True(t, got.Equal(time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)))
	})

	t.Run("bare date", func(t *testing.T) {
		got, ok := parseTimeValue("2026-08-24")
		assert.True(t, ok)
		assert.Equal(t, 2026, got.Year())
	})

	t.Run("unparseable", func(t *testing.T) {
		_, ok := parseTimeValue("not a date")
		assert.False(t, ok)
	})
}
