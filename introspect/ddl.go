package introspect

import (
	"fmt"
	"strings"

	tablecycle "github.com/chipslam-maker/tablecycle"
)

// BuildCreateStatement renders a CREATE TABLE statement from a descriptor.
// It is used for cross-server copies, where LIKE-style scripting cannot
// reference the source table. Data types are emitted verbatim from the
// descriptor; translating types between engines is the caller's concern.
func BuildCreateStatement(d tablecycle.Dialect, table *tablecycle.TableDescriptor, name string) string {
	var defs []string

	for _, col := range table.Columns {
		defs = append(defs, buildColumnDef(d, col))
	}

	if pk := table.PrimaryKeyColumns(); len(pk) > 0 {
		quoted := make([]string, len(pk))
		for i, c := range pk {
			quoted[i] = d.QuoteIdent(c)
		}

		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)",
		d.QualifyTable(table.Schema, name), strings.Join(defs, ",\n  "))
}

func buildColumnDef(d tablecycle.Dialect, col tablecycle.ColumnDescriptor) string {
	var b strings.Builder

	b.WriteString(d.QuoteIdent(col.Name))
	b.WriteString(" ")
	b.WriteString(col.DataType)

	if col.IsComputed && col.Formula != "" {
		b.WriteString(" GENERATED ALWAYS AS (")
		b.WriteString(col.Formula)
		b.WriteString(")")

		if col.IsPersisted {
			b.WriteString(" STORED")
		} else {
			b.WriteString(" VIRTUAL")
		}

		return b.String()
	}

	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}

	if col.DefaultValue != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(col.DefaultValue)
	}

	return b.String()
}

// BuildIndexStatements renders CREATE INDEX statements for a descriptor's
// indexes against a (possibly renamed) target table.
func BuildIndexStatements(d tablecycle.Dialect, table *tablecycle.TableDescriptor, name string) []string {
	var stmts []string

	for _, idx := range table.Indexes {
		unique := ""
		if idx.IsUnique {
			unique = "UNIQUE "
		}

		cols := make([]string, 0, len(idx.Columns))

		for _, c := range idx.Columns {
			col := d.QuoteIdent(c.Name)
			if c.Descending {
				col += " DESC"
			}

			cols = append(cols, col)
		}

		stmts = append(stmts, fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
			unique,
			d.QuoteIdent(name+"_"+idx.Name),
			d.QualifyTable(table.Schema, name),
			strings.Join(cols, ", ")))
	}

	return stmts
}
