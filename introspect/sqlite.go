package introspect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	tablecycle "github.com/chipslam-maker/tablecycle"
)

// SQLite hidden-column markers from PRAGMA table_xinfo
const (
	sqliteHiddenVirtualGenerated = 2
	sqliteHiddenStoredGenerated  = 3
)

// SQLiteInspector handles SQLite-specific structural reflection. SQLite has
// no schema namespace, so the schema argument is ignored everywhere.
type SQLiteInspector struct {
	dialect tablecycle.Dialect
}

// Dialect returns the dialect this inspector targets
func (i *SQLiteInspector) Dialect() tablecycle.Dialect {
	return i.dialect
}

// FetchTable returns the table descriptor. Generated-column formulas are not
// exposed by any pragma, so they are recovered from the stored CREATE TABLE
// text in sqlite_master.
func (i *SQLiteInspector) FetchTable(ctx context.Context, q Querier, schema, table string) (*tablecycle.TableDescriptor, error) {
	createSQL, err := i.tableSQL(ctx, q, table)
	if err != nil {
		return nil, err
	}

	desc := &tablecycle.TableDescriptor{Name: table}
	formulas := extractGeneratedFormulas(createSQL)

	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_xinfo(%s)", i.dialect.QuoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notNull, pk, hidden int
			name, dataType           string
			defaultValue             *string
		)

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk, &hidden); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
		}

		col := tablecycle.ColumnDescriptor{
			Name:         name,
			DataType:     dataType,
			Nullable:     notNull == 0,
			IsPrimaryKey: pk > 0,
			IsComputed:   hidden == sqliteHiddenVirtualGenerated || hidden == sqliteHiddenStoredGenerated,
			IsPersisted:  hidden == sqliteHiddenStoredGenerated,
		}

		if col.IsComputed {
			col.Formula = formulas[strings.ToLower(name)]
		}

		if defaultValue != nil {
			col.DefaultValue = *defaultValue
		}

		desc.Columns = append(desc.Columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	indexes, err := i.fetchIndexes(ctx, q, table)
	if err != nil {
		return nil, err
	}

	desc.Indexes = indexes

	return desc, nil
}

func (i *SQLiteInspector) tableSQL(ctx context.Context, q Querier, table string) (string, error) {
	var createSQL string

	query := `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`

	err := q.QueryRowContext(ctx, query, table).Scan(&createSQL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", tablecycle.ErrTableNotFound, table)
		}

		return "", err
	}

	return createSQL, nil
}

func (i *SQLiteInspector) fetchIndexes(ctx context.Context, q Querier, table string) ([]tablecycle.IndexDescriptor, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", i.dialect.QuoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type indexMeta struct {
		name   string
		unique bool
	}

	var metas []indexMeta

	for rows.Next() {
		var (
			seq, unique, partial int
			name, origin         string
		)

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
		}

		// Auto-created indexes back primary keys and UNIQUE constraints; the
		// table definition already carries them.
		if strings.HasPrefix(name, "sqlite_autoindex_") {
			continue
		}

		metas = append(metas, indexMeta{name: name, unique: unique == 1})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var indexes []tablecycle.IndexDescriptor

	for _, meta := range metas {
		columns, err := i.fetchIndexColumns(ctx, q, meta.name)
		if err != nil {
			return nil, err
		}

		indexes = append(indexes, tablecycle.IndexDescriptor{
			Name:     meta.name,
			IsUnique: meta.unique,
			Columns:  columns,
		})
	}

	return indexes, nil
}

func (i *SQLiteInspector) fetchIndexColumns(ctx context.Context, q Querier, index string) ([]tablecycle.IndexColumn, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA index_xinfo(%s)", i.dialect.QuoteIdent(index)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []tablecycle.IndexColumn

	for rows.Next() {
		var (
			seqno, cid, desc, key int
			name                  *string
			coll                  string
		)

		if err := rows.Scan(&seqno, &cid, &name, &desc, &coll, &key); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScanFailed, err)
		}

		// key = 0 marks trailing rowid/expression entries, not key columns
		if key == 0 || name == nil {
			continue
		}

		columns = append(columns, tablecycle.IndexColumn{Name: *name, Descending: desc == 1})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return columns, nil
}

// TableExists reports whether the table currently exists
func (i *SQLiteInspector) TableExists(ctx context.Context, q Querier, schema, table string) (bool, error) {
	var count int

	query := `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`

	if err := q.QueryRowContext(ctx, query, table).Scan(&count); err != nil {
		return false, err
	}

	return count > 0, nil
}

// ScriptShadowTable scripts an equivalent table under a new name. SQLite has
// no CREATE TABLE ... LIKE, so the stored DDL text is reused with the name in
// identifier position replaced, and indexes are recreated with shadow-prefixed
// names (index names are database-global in SQLite).
func (i *SQLiteInspector) ScriptShadowTable(ctx context.Context, q Querier, table *tablecycle.TableDescriptor, shadowName string) ([]string, error) {
	createSQL, err := i.tableSQL(ctx, q, table.Name)
	if err != nil {
		return nil, err
	}

	renamed, err := replaceCreateTableName(createSQL, i.dialect.QuoteIdent(shadowName))
	if err != nil {
		return nil, err
	}

	stmts := []string{renamed}

	for _, idx := range table.Indexes {
		unique := ""
		if idx.IsUnique {
			unique = "UNIQUE "
		}

		cols := make([]string, 0, len(idx.Columns))

		for _, c := range idx.Columns {
			col := i.dialect.QuoteIdent(c.Name)
			if c.Descending {
				col += " DESC"
			}

			cols = append(cols, col)
		}

		stmts = append(stmts, fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
			unique,
			i.dialect.QuoteIdent(shadowName+"_"+idx.Name),
			i.dialect.QuoteIdent(shadowName),
			strings.Join(cols, ", ")))
	}

	return stmts, nil
}

// RenameStatement returns the statement renaming a table
func (i *SQLiteInspector) RenameStatement(schema, oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
		i.dialect.QuoteIdent(oldName), i.dialect.QuoteIdent(newName))
}

// DropStatement returns the statement dropping a table if it exists
func (i *SQLiteInspector) DropStatement(schema, name string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", i.dialect.QuoteIdent(name))
}

// replaceCreateTableName rewrites the table name in identifier position of a
// CREATE TABLE statement. Only the name token between "CREATE TABLE" and the
// column list is touched.
func replaceCreateTableName(createSQL, quotedName string) (string, error) {
	upper := strings.ToUpper(createSQL)

	pos := strings.Index(upper, "TABLE")
	if pos < 0 {
		return "", fmt.Errorf("%w: not a CREATE TABLE statement", tablecycle.ErrStatementFailed)
	}

	rest := createSQL[pos+len("TABLE"):]

	// Skip IF NOT EXISTS when present
	trimmed := strings.TrimLeft(rest, " \t\r\n")
	if strings.HasPrefix(strings.ToUpper(trimmed), "IF NOT EXISTS") {
		rest = trimmed[len("IF NOT EXISTS"):]
	}

	// The name ends at the opening parenthesis of the column list
	open := strings.Index(rest, "(")
	if open < 0 {
		return "", fmt.Errorf("%w: CREATE TABLE has no column list", tablecycle.ErrStatementFailed)
	}

	head := createSQL[:pos+len("TABLE")]
	body := rest[open:]

	return head + " " + quotedName + " " + body, nil
}

// extractGeneratedFormulas parses the column definitions of a CREATE TABLE
// statement and returns the generation expression per lower-cased column name.
func extractGeneratedFormulas(createSQL string) map[string]string {
	formulas := map[string]string{}

	open := strings.Index(createSQL, "(")
	closing := strings.LastIndex(createSQL, ")")

	if open < 0 || closing <= open {
		return formulas
	}

	for _, def := range splitTopLevel(createSQL[open+1:closing], ',') {
		def = strings.TrimSpace(def)
		if def == "" {
			continue
		}

		name := firstIdentifier(def)
		if name == "" || isConstraintKeyword(name) {
			continue
		}

		formula, ok := generationExpression(def)
		if ok {
			formulas[strings.ToLower(name)] = formula
		}
	}

	return formulas
}

// splitTopLevel splits s on sep occurrences at parenthesis depth zero,
// ignoring separators inside quoted strings.
func splitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		depth int
		start int
		quote byte
	)

	for idx := 0; idx < len(s); idx++ {
		ch := s[idx]

		if quote != 0 {
			if ch == quote {
				quote = 0
			}

			continue
		}

		switch ch {
		case '\'', '"', '`':
			quote = ch
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:idx])
				start = idx + 1
			}
		}
	}

	parts = append(parts, s[start:])

	return parts
}

// firstIdentifier returns the leading identifier of a column definition,
// unwrapping "", ``, or [] quoting.
func firstIdentifier(def string) string {
	def = strings.TrimSpace(def)
	if def == "" {
		return ""
	}

	switch def[0] {
	case '"', '`':
		end := strings.IndexByte(def[1:], def[0])
		if end < 0 {
			return ""
		}

		return def[1 : end+1]
	case '[':
		end := strings.IndexByte(def, ']')
		if end < 0 {
			return ""
		}

		return def[1:end]
	default:
		end := strings.IndexAny(def, " \t\r\n(")
		if end < 0 {
			return def
		}

		return def[:end]
	}
}

func isConstraintKeyword(word string) bool {
	switch strings.ToUpper(word) {
	case "PRIMARY", "UNIQUE", "CHECK", "FOREIGN", "CONSTRAINT":
		return true
	default:
		return false
	}
}

// generationExpression extracts the balanced parenthesized expression that
// follows the AS keyword of a generated column definition.
func generationExpression(def string) (string, bool) {
	upper := strings.ToUpper(def)

	pos := strings.Index(upper, "GENERATED ALWAYS AS")

	switch {
	case pos >= 0:
		pos += len("GENERATED ALWAYS AS")
	default:
		// Short form: <name> <type> AS (expr)
		pos = strings.Index(upper, " AS ")
		if pos < 0 {
			pos = strings.Index(upper, " AS(")
		}

		if pos < 0 {
			return "", false
		}

		pos += len(" AS")
	}

	rest := def[pos:]

	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return "", false
	}

	depth := 0

	for idx := open; idx < len(rest); idx++ {
		switch rest[idx] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return strings.TrimSpace(rest[open+1 : idx]), true
			}
		}
	}

	return "", false
}
