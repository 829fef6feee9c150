package nested

import (
	"github.com/hediet/database-editor/internal/ownership"
	"github.com/hediet/database-editor/internal/rowset"
	"github.com/hediet/database-editor/internal/schemamodel"
)

// Nester builds a tree-shaped Dataset out of a flat rowset.Dataset.
type Nester struct {
	Schema *schemamodel.Schema
	Tree   *ownership.Tree
}

func NewNester(schema *schemamodel.Schema, tree *ownership.Tree) *Nester {
	return &Nester{Schema: schema, Tree: tree}
}

// Options bounds how many rows are materialized per sequence: Limit
// applies to root sequences, NestedLimit to every deeper one. <= 0 means
// unlimited.
type Options struct {
	Limit       int
	NestedLimit int
}

// childIndex maps an edge's key (parent-table, child-table) to a lookup
// from the parent's to_columns tuple to the matching child rows, in the
// order they appear in the flat dataset.
type childIndex map[string]map[string][]rowset.Row

func edgeKey(e ownership.Edge) string { return e.ParentTable + "\x1f" + e.ChildTable }

func buildChildIndex(dataset *rowset.Dataset, tree *ownership.Tree) childIndex {
	idx := make(childIndex)
	for _, edges := range tree.Children {
		for _, e := range edges {
			byKey := make(map[string][]rowset.Row)
			for _, childRow := range dataset.Tables[e.ChildTable] {
				values := make([]rowset.Value, len(e.ChildColumns))
				for i, col := range e.ChildColumns {
					values[i] = childRow[col]
				}
				key := rowset.PrimaryKeyString(values)
				byKey[key] = append(byKey[key], childRow)
			}
			idx[edgeKey(e)] = byKey
		}
	}
	return idx
}

// Nest converts dataset into a tree rooted at the ownership tree's root
// tables.
func (n *Nester) Nest(dataset *rowset.Dataset, opts Options) *Dataset {
	idx := buildChildIndex(dataset, n.Tree)
	out := &Dataset{Roots: make(map[string][]Node), Truncated: make(map[string]int)}

	for _, rootTable := range n.Tree.Roots(n.Schema) {
		rows := dataset.Tables[rootTable]
		nodes, skipped := n.nestSequence(rootTable, rows, nil, idx, opts.Limit, opts.NestedLimit)
		out.Roots[rootTable] = nodes
		if skipped > 0 {
			out.Truncated[rootTable] = skipped
		}
	}
	return out
}

// nestSequence materializes rows (already known to belong to table) into
// Nodes, applying limit to this sequence and nestedLimit to every
// sequence nested inside it. omitColumns names the FK columns implicit
// from the parent edge (nil for root sequences).
func (n *Nester) nestSequence(table string, rows []rowset.Row, omitColumns []string, idx childIndex, limit, nestedLimit int) ([]Node, int) {
	total := len(rows)
	emit := rows
	skipped := 0
	if limit > 0 && total > limit {
		emit = rows[:limit]
		skipped = total - limit
	}

	nodes := make([]Node, 0, len(emit)+1)
	for _, row := range emit {
		nodes = append(nodes, Node{Row: n.nestRow(table, row, omitColumns, idx, nestedLimit)})
	}
	if skipped > 0 {
		nodes = append(nodes, Node{Partial: &PartialMarker{Skipped: skipped}})
	}
	return nodes, skipped
}

func (n *Nester) nestRow(table string, row rowset.Row, omitColumns []string, idx childIndex, nestedLimit int) *RowNode {
	cols := row.Clone()
	for _, c := range omitColumns {
		delete(cols, c)
	}

	node := &RowNode{Columns: cols}

	edges := n.Tree.Children[table]
	if len(edges) == 0 {
		return node
	}
	node.Children = make(map[string][]Node, len(edges))

	for _, e := range edges {
		values := make([]rowset.Value, len(e.Relationship.ToColumns))
		for i, col := range e.Relationship.ToColumns {
			values[i] = row[col]
		}
		key := rowset.PrimaryKeyString(values)
		children := idx[edgeKey(e)][key]
		childNodes, _ := n.nestSequence(e.ChildTable, children, e.ChildColumns, idx, nestedLimit, nestedLimit)
		node.Children[e.ChildTable] = childNodes
	}
	return node
}
