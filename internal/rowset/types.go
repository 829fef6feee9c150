// Package rowset holds the flat, per-table row representation that
// everything else in the pipeline is keyed on: the fetcher produces it,
// the nester/flattener convert it to and from tree form, and the diff
// engine compares two of them.
package rowset

import (
	"fmt"

	"github.com/hediet/database-editor/internal/schemamodel"
)

// Value is one scalar cell. The in-memory domain is wider than the
// file-serialized one (e.g. time.Time rather than an ISO-8601 string,
// []byte rather than base64) — fileio narrows it down on the way out and
// widens it back on the way in.
type Value = any

// Row maps column name to scalar value.
type Row map[string]Value

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset maps table name to its rows, insertion order preserved.
type Dataset struct {
	Tables map[string][]Row
}

// NewDataset returns an empty dataset with every table in schema present
// (as a nil slice), so diff and flatten always see a complete key set.
func NewDataset(schema *schemamodel.Schema) *Dataset {
	d := &Dataset{Tables: make(map[string][]Row, len(schema.Tables))}
	for name := range schema.Tables {
		d.Tables[name] = nil
	}
	return d
}

// Append adds row to table's sequence.
func (d *Dataset) Append(table string, row Row) {
	d.Tables[table] = append(d.Tables[table], row)
}

// PrimaryKeyOf extracts table's PK columns from row as an ordered slice,
// in table.PrimaryKey order.
func PrimaryKeyOf(table *schemamodel.Table, row Row) []Value {
	pk := make([]Value, len(table.PrimaryKey))
	for i, col := range table.PrimaryKey {
		pk[i] = row[col]
	}
	return pk
}

// PrimaryKeyString renders a PK tuple as a stable string key, suitable
// for indexing rows by primary key. It never round-trips into SQL: it
// exists purely as a map key, so the encoding only needs to be injective
// over the value domain, not reversible or escaping-safe.
func PrimaryKeyString(pk []Value) string {
	parts := make([]string, len(pk))
	for i, v := range pk {
		parts[i] = fmt.Sprintf("%T:%v", v, canonicalize(v))
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\x1f"
		}
		out += p
	}
	return out
}

// canonicalize normalizes a value for use inside a PK string key: byte
// slices are rendered as strings so two equal-content []byte values with
// different backing arrays produce the same key.
func canonicalize(v Value) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// IndexByPrimaryKey builds a lookup from PK string to row for one table.
func IndexByPrimaryKey(table *schemamodel.Table, rows []Row) map[string]Row {
	idx := make(map[string]Row, len(rows))
	for _, row := range rows {
		idx[PrimaryKeyString(PrimaryKeyOf(table, row))] = row
	}
	return idx
}
