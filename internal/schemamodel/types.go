// Package schemamodel holds the structural metadata snapshot of a
// database: tables, columns, and the relationships between them. A Schema
// is built once per run by pgdriver.Extractor and is immutable afterward —
// every downstream package (ownership, rowset, nested, rowdiff, sqlemit)
// treats it as a read-only reference.
package schemamodel

// ReferentialAction is one of the SQL-standard FK actions a constraint can
// declare for ON DELETE / ON UPDATE.
type ReferentialAction string

const (
	ActionCascade    ReferentialAction = "CASCADE"
	ActionSetNull    ReferentialAction = "SET NULL"
	ActionSetDefault ReferentialAction = "SET DEFAULT"
	ActionRestrict   ReferentialAction = "RESTRICT"
	ActionNoAction   ReferentialAction = "NO ACTION"
)

// Column describes one column of a table.
type Column struct {
	Name        string
	Type        string // database-native canonical type name
	IsNullable  bool
	HasDefault  bool // server supplies a value when the column is omitted
	IsGenerated bool // server always computes the value; must never be written
}

// Table describes one base table.
type Table struct {
	Name       string
	Columns    []Column
	PrimaryKey []string // ordered PK column names; may be empty
}

// ColumnByName returns the column named name, or nil if the table has none.
func (t *Table) ColumnByName(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// HasPrimaryKey reports whether the table has at least one PK column.
func (t *Table) HasPrimaryKey() bool {
	return len(t.PrimaryKey) > 0
}

// Relationship is one foreign key constraint, from the child's point of
// view: FromTable/FromColumns name the constrained (child) side,
// ToTable/ToColumns name the referenced (parent) side. |FromColumns| =
// |ToColumns| >= 1.
type Relationship struct {
	ID          string // constraint name, unique within the schema
	FromTable   string
	FromColumns []string
	ToTable     string
	ToColumns   []string
	OnDelete    ReferentialAction
	OnUpdate    ReferentialAction
}

// Arity is the number of columns the relationship's FK spans.
func (r *Relationship) Arity() int { return len(r.FromColumns) }

// Schema is an immutable snapshot of a database's structural metadata.
type Schema struct {
	Tables        map[string]Table
	Relationships []Relationship
}

// TableNames returns the schema's table names sorted alphabetically, a
// deterministic iteration order used wherever output ordering otherwise
// has no other tie-break.
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sortStrings(names)
	return names
}

// RelationshipsFrom returns the relationships whose child side is table,
// in schema extraction order.
func (s *Schema) RelationshipsFrom(table string) []Relationship {
	var out []Relationship
	for _, r := range s.Relationships {
		if r.FromTable == table {
			out = append(out, r)
		}
	}
	return out
}

// RelationshipsTo returns the relationships whose parent side is table.
func (s *Schema) RelationshipsTo(table string) []Relationship {
	var out []Relationship
	for _, r := range s.Relationships {
		if r.ToTable == table {
			out = append(out, r)
		}
	}
	return out
}

func sortStrings(s []string) {
	// insertion sort is fine here: table counts are small, and it keeps
	// this package free of imports for one call site used from a handful
	// of places.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
