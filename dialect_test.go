package tablecycle

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Dialect
		wantErr  bool
	}{
		{name: "postgres", input: "postgres", expected: DialectPostgres},
		{name: "postgresql alias", input: "postgresql", expected: DialectPostgres},
		{name: "pgx alias", input: "pgx", expected: DialectPostgres},
		{name: "mysql", input: "mysql", expected: DialectMySQL},
		{name: "mariadb alias", input: "mariadb", expected: DialectMySQL},
		{name: "sqlite", input: "sqlite", expected: DialectSQLite},
		{name: "sqlite3 alias", input: "sqlite3", expected: DialectSQLite},
		{name: "case insensitive", input: "PostgreSQL", expected: DialectPostgres},
		{name: "unknown dialect", input: "oracle", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialect, err := ParseDialect(tt.input)
			if tt.wantErr {
				assert.IsError(t, err, ErrUnsupportedDialect)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, dialect)
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		input    string
		expected string
	}{
		{name: "postgres plain", dialect: DialectPostgres, input: "orders", expected: `"orders"`},
		{name: "postgres embedded quote", dialect: DialectPostgres, input: `or"ders`, expected: `"or""ders"`},
		{name: "mysql plain", dialect: DialectMySQL, input: "orders", expected: "`orders`"},
		{name: "mysql embedded backtick", dialect: DialectMySQL, input: "or`ders", expected: "`or``ders`"},
		{name: "sqlite plain", dialect: DialectSQLite, input: "orders", expected: `"orders"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.dialect.QuoteIdent(tt.input))
		})
	}
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$1", DialectPostgres.Placeholder(1))
	assert.Equal(t, "$12", DialectPostgres.Placeholder(12))
	assert.Equal(t, "?", DialectMySQL.Placeholder(3))
	assert.Equal(t, "?", DialectSQLite.Placeholder(1))
}

func TestQualifyTable(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		schema   string
		table    string
		expected string
	}{
		{name: "postgres with schema", dialect: DialectPostgres, schema: "public", table: "orders", expected: `"public"."orders"`},
		{name: "postgres without schema", dialect: DialectPostgres, schema: "", table: "orders", expected: `"orders"`},
		{name: "mysql with schema", dialect: DialectMySQL, schema: "app", table: "orders", expected: "`app`.`orders`"},
		{name: "sqlite ignores schema", dialect: DialectSQLite, schema: "main", table: "orders", expected: `"orders"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.dialect.QualifyTable(tt.schema, tt.table))
		})
	}
}

func TestSupportsTransactionalDDL(t *testing.T) {
	assert.True(t, DialectPostgres.SupportsTransactionalDDL())
	assert.True(t, DialectSQLite.SupportsTransactionalDDL())
	assert.False(t, DialectMySQL.SupportsTransactionalDDL())
}

func TestDriverName(t *testing.T) {
	assert.Equal(t, "pgx", DialectPostgres.DriverName())
	assert.Equal(t, "mysql", DialectMySQL.DriverName())
	assert.Equal(t, "sqlite3", DialectSQLite.DriverName())
}
