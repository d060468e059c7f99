package introspect

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alecthomas/assert/v2"

	tablecycle "github.com/chipslam-maker/tablecycle"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	assert.NoError(t, err)

	// In-memory databases vanish when their connection closes
	db.SetMaxOpenConns(1)

	t.Cleanup(func() { db.Close() })

	return db
}

func createOrdersTable(t *testing.T, db *sql.DB) {
	t.Helper()

	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			qty INTEGER NOT NULL,
			price INTEGER NOT NULL DEFAULT 0,
			note TEXT,
			total INTEGER GENERATED ALWAYS AS (qty * price) STORED
		)`)
	assert.NoError(t, err)

	_, err = db.ExecContext(ctx, `CREATE INDEX idx_orders_created ON orders (created_at DESC)`)
	assert.NoError(t, err)

	_, err = db.ExecContext(ctx, `CREATE UNIQUE INDEX idx_orders_note ON orders (note)`)
	assert.NoError(t, err)
}

func TestSQLiteFetchTable(t *testing.T) {
	db := openTestDB(t)
	createOrdersTable(t, db)

	inspector, err := NewInspector(tablecycle.DialectSQLite)
	assert.NoError(t, err)

	table, err := inspector.FetchTable(context.Background(), db, "", "orders")
	assert.NoError(t, err)
	assert.Equal(t, "orders", table.Name)
	assert.Equal(t, 6, len(table.Columns))

	id, ok := table.Column("id")
	assert.True(t, ok)
	assert.True(t, id.IsPrimaryKey)
	assert.False(t, id.IsComputed)

	createdAt, ok := table.Column("created_at")
	assert.True(t, ok)
	assert.False(t, createdAt.Nullable)

	note, ok := table.Column("note")
	assert.True(t, ok)
	assert.True(t, note.Nullable)

	price, ok := table.Column("price")
	assert.True(t, ok)
	assert.Equal(t, "0", price.DefaultValue)

	total, ok := table.Column("total")
	assert.True(t, ok)
	assert.True(t, total.IsComputed)
	assert.True(t, total.IsPersisted)
	assert.Equal(t, "qty * price", total.Formula)

	assert.Equal(t, []string{"id", "created_at", "qty", "price", "note"}, table.DataColumns())

	assert.Equal(t, 2, len(table.Indexes))

	byName := map[string]tablecycle.IndexDescriptor{}
	for _, idx := range table.Indexes {
		byName[idx.Name] = idx
	}

	created := byName["idx_orders_created"]
	assert.False(t, created.IsUnique)
	assert.Equal(t, 1, len(created.Columns))
	assert.Equal(t, "created_at", created.Columns[0].Name)
	assert.True(t, created.Columns[0].Descending)

	unique := byName["idx_orders_note"]
	assert.True(t, unique.IsUnique)
}

func TestSQLiteFetchTableNotFound(t *testing.T) {
	db := openTestDB(t)

	inspector, err := NewInspector(tablecycle.DialectSQLite)
	assert.NoError(t, err)

	_, err = inspector.FetchTable(context.Background(), db, "", "nope")
	assert.IsError(t, err, tablecycle.ErrTableNotFound)
}

func TestSQLiteTableExists(t *testing.T) {
	db := openTestDB(t)
	createOrdersTable(t, db)

	inspector, err := NewInspector(tablecycle.DialectSQLite)
	assert.NoError(t, err)

	ctx := context.Background()

	exists, err := inspector.TableExists(ctx, db, "", "orders")
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = inspector.TableExists(ctx, db, "", "orders_TEMP")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestSQLiteScriptShadowTable(t *testing.T) {
	db := openTestDB(t)
	createOrdersTable(t, db)

	inspector, err := NewInspector(tablecycle.DialectSQLite)
	assert.NoError(t, err)

	ctx := context.Background()

	table, err := inspector.FetchTable(ctx, db, "", "orders")
	assert.NoError(t, err)

	stmts, err := inspector.ScriptShadowTable(ctx, db, table, "orders_TEMP")
	assert.NoError(t, err)
	// One CREATE TABLE plus one statement per index
	assert.Equal(t, 3, len(stmts))

	for _, stmt := range stmts {
		_, err := db.ExecContext(ctx, stmt)
		assert.NoError(t, err)
	}

	shadow, err := inspector.FetchTable(ctx, db, "", "orders_TEMP")
	assert.NoError(t, err)
	assert.Equal(t, table.Columns, shadow.Columns)

	// Index names are database-global, so the shadow gets prefixed ones
	names := map[string]bool{}
	for _, idx := range shadow.Indexes {
		names[idx.Name] = true
	}

	assert.True(t, names["orders_TEMP_idx_orders_created"])
	assert.True(t, names["orders_TEMP_idx_orders_note"])

	// The shadow accepts rows and rederives the computed column
	_, err = db.ExecContext(ctx, `INSERT INTO orders_TEMP (id, created_at, qty, price) VALUES (1, '2026-01-01 00:00:00', 3, 5)`)
	assert.NoError(t, err)

	var total int

	err = db.QueryRowContext(ctx, `SELECT total FROM orders_TEMP WHERE id = 1`).Scan(&total)
	assert.NoError(t, err)
	assert.Equal(t, 15, total)
}

func TestReplaceCreateTableName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain",
			input:    "CREATE TABLE orders (id INTEGER)",
			expected: `CREATE TABLE "orders_TEMP" (id INTEGER)`,
		},
		{
			name:     "quoted name",
			input:    `CREATE TABLE "orders" (id INTEGER)`,
			expected: `CREATE TABLE "orders_TEMP" (id INTEGER)`,
		},
		{
			name:     "if not exists",
			input:    "CREATE TABLE IF NOT EXISTS orders (id INTEGER)",
			expected: `CREATE TABLE "orders_TEMP" (id INTEGER)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := replaceCreateTableName(tt.input, `"orders_TEMP"`)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("not a create table", func(t *testing.T) {
		_, err := replaceCreateTableName("SELECT 1", `"x"`)
		assert.Error(t, err)
	})
}

func TestExtractGeneratedFormulas(t *testing.T) {
	createSQL := `CREATE TABLE t (
		id INTEGER PRIMARY KEY,
		qty INTEGER,
		price INTEGER,
		total INTEGER GENERATED ALWAYS AS (qty * price) STORED,
		half REAL AS (price / 2.0),
		label TEXT DEFAULT 'as (is)',
		CHECK (qty >= 0)
	)`

	formulas := extractGeneratedFormulas(createSQL)
	assert.Equal(t, "qty * price", formulas["total"])
	assert.Equal(t, "price / 2.0", formulas["half"])
	_, hasLabel := formulas["label"]
	assert.False(t, hasLabel)
	assert.Equal(t, 2, len(formulas))
}

func TestSplitTopLevel(t *testing.T) {
	parts := splitTopLevel("a, b(c, d), 'e, f', g", ',')
	assert.Equal(t, []string{"a", " b(c, d)", " 'e, f'", " g"}, parts)
}

func TestFirstIdentifier(t *testing.T) {
	assert.Equal(t, "qty", firstIdentifier("qty INTEGER"))
	assert.Equal(t, "my col", firstIdentifier(`"my col" TEXT`))
	assert.Equal(t, "bracketed", firstIdentifier("[bracketed] TEXT"))
	assert.Equal(t, "ticked", firstIdentifier("`ticked` TEXT"))
	assert.Equal(t, "lone", firstIdentifier("lone"))
}
