// Package nested converts a flat, per-table rowset into the tree-shaped
// document users actually edit, and back. This is the relational ↔
// hierarchical bridge the whole system exists for.
package nested

import "github.com/hediet/database-editor/internal/rowset"

// Node is one element of a child sequence: exactly one of Row, Ref, or
// Partial is non-nil.
type Node struct {
	Row     *RowNode
	Ref     *RefMarker
	Partial *PartialMarker
}

// RowNode is a materialized row: its own scalar columns plus, for every
// dominant child edge, the nested sequence of that child's nodes.
type RowNode struct {
	Columns  rowset.Row
	Children map[string][]Node // keyed by child table name
}

// RefMarker stands in for a collapsed composition subtree: just enough
// (the child's primary key) to reconstruct the link without the full
// nested tree.
type RefMarker struct {
	Table string
	PK    rowset.Row // PK columns only
}

// PartialMarker signals a truncated sequence.
type PartialMarker struct {
	Skipped int
}

// Dataset is the tree-shaped document: one sequence per root table, plus
// which root sequences (by table name) were truncated and by how much.
// Truncation of deeper sequences shows only as their $partial markers.
type Dataset struct {
	Roots     map[string][]Node // keyed by root table name
	Truncated map[string]int
}
