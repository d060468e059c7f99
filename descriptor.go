package tablecycle

import "fmt"

// TableDescriptor is an immutable snapshot of a table's structure, fetched
// once per operation.
type TableDescriptor struct {
	Schema  string             `yaml:"schema,omitempty" json:"schema,omitempty"`
	Name    string             `yaml:"name" json:"name"`
	Columns []ColumnDescriptor `yaml:"columns,flow" json:"columns"`
	Indexes []IndexDescriptor  `yaml:"indexes,omitempty,flow" json:"indexes,omitempty"`
}

// ColumnDescriptor describes a single column. A column is either a stored
// data column (included in INSERT column lists) or a computed column whose
// value the engine derives on write.
type ColumnDescriptor struct {
	Name         string `yaml:"name" json:"name"`
	DataType     string `yaml:"type" json:"type"`
	Nullable     bool   `yaml:"nullable" json:"nullable"`
	DefaultValue string `yaml:"default_value,omitempty" json:"default_value,omitempty"`
	IsPrimaryKey bool   `yaml:"is_primary_key,omitempty" json:"is_primary_key,omitempty"`
	IsComputed   bool   `yaml:"is_computed,omitempty" json:"is_computed,omitempty"`
	// IsPersisted is meaningful only for computed columns: true when the engine
	// stores the derived value instead of evaluating it on read.
	IsPersisted bool   `yaml:"is_persisted,omitempty" json:"is_persisted,omitempty"`
	Formula     string `yaml:"formula,omitempty" json:"formula,omitempty"`
}

// IndexDescriptor describes an index for structural comparison. It is never
// reproduced as DDL by the diff engine.
type IndexDescriptor struct {
	Name     string        `yaml:"name" json:"name"`
	IsUnique bool          `yaml:"is_unique" json:"is_unique"`
	Columns  []IndexColumn `yaml:"columns,flow" json:"columns"`
}

// IndexColumn is one ordered member of an index key.
type IndexColumn struct {
	Name       string `yaml:"name" json:"name"`
	Descending bool   `yaml:"descending,omitempty" json:"descending,omitempty"`
}

// QualifiedName returns the schema-qualified display name of the table.
func (t *TableDescriptor) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}

	return fmt.Sprintf("%s.%s", t.Schema, t.Name)
}

// Column returns the descriptor of the named column.
func (t *TableDescriptor) Column(name string) (ColumnDescriptor, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}

	return ColumnDescriptor{}, false
}

// DataColumns returns the names of all non-computed columns in declaration
// order. These are the only columns that may appear in an INSERT column list;
// computed values are rederived by the database on write.
func (t *TableDescriptor) DataColumns() []string {
	var names []string

	for _, c := range t.Columns {
		if !c.IsComputed {
			names = append(names, c.Name)
		}
	}

	return names
}

// PrimaryKeyColumns returns the names of the primary key columns in
// declaration order.
func (t *TableDescriptor) PrimaryKeyColumns() []string {
	var names []string

	for _, c := range t.Columns {
		if c.IsPrimaryKey {
			names = append(names, c.Name)
		}
	}

	return names
}
