package nested

import (
	"github.com/hediet/database-editor/internal/dberrors"
	"github.com/hediet/database-editor/internal/ownership"
	"github.com/hediet/database-editor/internal/rowset"
	"github.com/hediet/database-editor/internal/schemamodel"
)

// Flattener converts a tree-shaped Dataset back into a flat rowset.Dataset.
type Flattener struct {
	tree *ownership.Tree
}

func NewFlattener(tree *ownership.Tree) *Flattener { return &Flattener{tree: tree} }

// parentContext carries the inherited FK values from the row that
// introduced the current sequence, so children can fill in their
// dominant-edge FK columns.
type parentContext struct {
	edge ownership.Edge
	row  rowset.Row
}

// PendingRef records a RefMarker the in-file pass couldn't resolve
// against a row flattened from its owning position. Flatten resolves
// what it can from the document alone; callers with a live connection
// (the orchestrator) should check whatever's left against the database
// and raise dberrors.UnresolvedRef themselves for anything still missing.
type PendingRef struct {
	Table string
	PK    rowset.Row
}

// Flatten walks every root sequence of n and produces a flat dataset with
// every table in schema present, even if empty, plus any $ref markers
// that didn't resolve to a row flattened from its owning position
// in-file. It fails with TruncatedInput if any PartialMarker is found
// anywhere in the tree. A $ref never contributes a row to the flat
// dataset itself — only the row from its owning position does — so a
// reference to a row that's missing columns can't masquerade as an
// update that nulls them out.
func (f *Flattener) Flatten(n *Dataset, schema *schemamodel.Schema) (*rowset.Dataset, []PendingRef, error) {
	flat := rowset.NewDataset(schema)
	var pending []PendingRef
	for root, nodes := range n.Roots {
		if err := f.flattenSequence(root, nodes, nil, flat, &pending); err != nil {
			return nil, nil, err
		}
	}

	unresolved := pending[:0]
	for _, ref := range pending {
		table := schema.Tables[ref.Table]
		idx := rowset.IndexByPrimaryKey(&table, flat.Tables[ref.Table])
		key := rowset.PrimaryKeyString(rowset.PrimaryKeyOf(&table, ref.PK))
		if _, ok := idx[key]; !ok {
			unresolved = append(unresolved, ref)
		}
	}

	return flat, unresolved, nil
}

func (f *Flattener) flattenSequence(table string, nodes []Node, parent *parentContext, flat *rowset.Dataset, pending *[]PendingRef) error {
	for _, node := range nodes {
		switch {
		case node.Partial != nil:
			return &dberrors.TruncatedInput{Table: table}

		case node.Ref != nil:
			// A $ref declares that this row is fully represented
			// elsewhere in the document (its owning position); resolve
			// that once every full row has been flattened, and never
			// append a partial row here.
			*pending = append(*pending, PendingRef{Table: table, PK: node.Ref.PK.Clone()})

		case node.Row != nil:
			row := make(rowset.Row, len(node.Row.Columns))
			for k, v := range node.Row.Columns {
				row[k] = v
			}
			applyParentColumns(row, parent)
			flat.Append(table, row)

			for _, e := range f.tree.Children[table] {
				children := node.Row.Children[e.ChildTable]
				childCtx := &parentContext{edge: e, row: row}
				if err := f.flattenSequence(e.ChildTable, children, childCtx, flat, pending); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// applyParentColumns writes the FK columns of parent.edge into row,
// copying from the paired parent-side column of parent.row.
func applyParentColumns(row rowset.Row, parent *parentContext) {
	if parent == nil {
		return
	}
	for i, childCol := range parent.edge.Relationship.FromColumns {
		parentCol := parent.edge.Relationship.ToColumns[i]
		row[childCol] = parent.row[parentCol]
	}
}
