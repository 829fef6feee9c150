// Package rowdiff computes the minimum row-level change set between two
// flat datasets, keyed by primary key. The map-by-key / compare-fields /
// emit-delta shape is grounded directly on lockplane's schema-level
// DiffSchemas (internal/schema/diff.go), applied here to row data instead
// of table structure.
package rowdiff

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/hediet/database-editor/internal/rowset"
	"github.com/hediet/database-editor/internal/schemamodel"
)

// Kind tags what a Change does.
type Kind int

const (
	Insert Kind = iota
	Update
	Delete
)

// Change is one row-level mutation. OldValues/NewValues are populated only
// for Update (exactly the changed non-PK columns); Insert carries Row;
// Delete carries OldRow.
type Change struct {
	Kind       Kind
	Table      string
	PrimaryKey rowset.Row // PK columns only

	Row       rowset.Row // Insert: full row to write
	OldRow    rowset.Row // Delete: full pre-image
	OldValues rowset.Row // Update: changed columns, old values
	NewValues rowset.Row // Update: changed columns, new values
}

// ChangeSet is an unordered sequence of Changes; the orderer in
// internal/sqlemit imposes FK-safe ordering on it.
type ChangeSet []Change

// Diff compares base against modified for every table present in schema,
// keyed by primary key. Tables without a primary key are skipped (spec
// §4.1: nothing to key on).
func Diff(schema *schemamodel.Schema, base, modified *rowset.Dataset) ChangeSet {
	var out ChangeSet

	for _, name := range schema.TableNames() {
		table := schema.Tables[name]
		if !table.HasPrimaryKey() {
			continue
		}

		baseIdx := rowset.IndexByPrimaryKey(&table, base.Tables[name])
		modIdx := rowset.IndexByPrimaryKey(&table, modified.Tables[name])

		// Iterate in sorted PK-key order, not Go's randomized map
		// iteration order, so Diff produces byte-identical output across
		// runs for the same inputs (spec §8's determinism requirement).
		for _, key := range sortedKeys(modIdx) {
			modRow := modIdx[key]
			baseRow, existed := baseIdx[key]
			if !existed {
				out = append(out, Change{Kind: Insert, Table: name, PrimaryKey: pkRow(&table, modRow), Row: modRow})
				continue
			}
			if upd, changed := diffRow(&table, baseRow, modRow); changed {
				out = append(out, upd)
			}
		}

		for _, key := range sortedKeys(baseIdx) {
			if _, existed := modIdx[key]; !existed {
				out = append(out, Change{Kind: Delete, Table: name, PrimaryKey: pkRow(&table, baseIdx[key]), OldRow: baseIdx[key]})
			}
		}
	}

	return out
}

// sortedKeys returns idx's keys (PrimaryKeyString values) in ascending
// order, giving Diff a deterministic iteration order over a map.
func sortedKeys(idx map[string]rowset.Row) []string {
	keys := make([]string, 0, len(idx))
	for k := range idx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func pkRow(table *schemamodel.Table, row rowset.Row) rowset.Row {
	pk := make(rowset.Row, len(table.PrimaryKey))
	for _, col := range table.PrimaryKey {
		pk[col] = row[col]
	}
	return pk
}

func isPK(table *schemamodel.Table, col string) bool {
	for _, pkCol := range table.PrimaryKey {
		if pkCol == col {
			return true
		}
	}
	return false
}

// diffRow compares every non-PK column appearing in either row.
func diffRow(table *schemamodel.Table, base, modified rowset.Row) (Change, bool) {
	oldValues := rowset.Row{}
	newValues := rowset.Row{}

	seen := make(map[string]bool, len(base)+len(modified))
	for col := range base {
		seen[col] = true
	}
	for col := range modified {
		seen[col] = true
	}

	for col := range seen {
		if isPK(table, col) {
			continue
		}
		if !valuesEqual(base[col], modified[col]) {
			oldValues[col] = base[col]
			newValues[col] = modified[col]
		}
	}

	if len(oldValues) == 0 {
		return Change{}, false
	}
	return Change{
		Kind:       Update,
		Table:      table.Name,
		PrimaryKey: pkRow(table, modified),
		OldValues:  oldValues,
		NewValues:  newValues,
	}, true
}

// valuesEqual implements spec §4.5's value-equality rule: nulls equal
// nulls; date/timestamp values equal when they represent the same
// instant; JSON-structured values equal by structural equality after
// canonicalizing key order; everything else by strict equality.
func valuesEqual(a, b rowset.Value) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	if at, ok := asTime(a); ok {
		if bt, ok := asTime(b); ok {
			return at.Equal(bt)
		}
	}

	if am, ok := asJSONObject(a); ok {
		if bm, ok := asJSONObject(b); ok {
			return canonicalJSON(am) == canonicalJSON(bm)
		}
	}

	if ab, ok := a.([]byte); ok {
		if bb, ok := b.([]byte); ok {
			return bytes.Equal(ab, bb)
		}
	}

	return a == b
}

func asTime(v rowset.Value) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339, x); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func asJSONObject(v rowset.Value) (any, bool) {
	switch x := v.(type) {
	case map[string]any, []any:
		return x, true
	case string:
		var parsed any
		if err := json.Unmarshal([]byte(x), &parsed); err == nil {
			if _, isMap := parsed.(map[string]any); isMap {
				return parsed, true
			}
			if _, isSlice := parsed.([]any); isSlice {
				return parsed, true
			}
		}
	case []byte:
		var parsed any
		if err := json.Unmarshal(x, &parsed); err == nil {
			if _, isMap := parsed.(map[string]any); isMap {
				return parsed, true
			}
			if _, isSlice := parsed.([]any); isSlice {
				return parsed, true
			}
		}
	}
	return nil, false
}

// canonicalJSON re-marshals v with map keys sorted (encoding/json already
// sorts map[string]any keys), giving a comparable canonical form.
func canonicalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
