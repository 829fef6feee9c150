package ownership

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hediet/database-editor/internal/dberrors"
	"github.com/hediet/database-editor/internal/schemamodel"
)

func schemaWith(rels ...schemamodel.Relationship) *schemamodel.Schema {
	tables := map[string]schemamodel.Table{}
	for _, r := range rels {
		tables[r.FromTable] = schemamodel.Table{Name: r.FromTable}
		tables[r.ToTable] = schemamodel.Table{Name: r.ToTable}
	}
	return &schemamodel.Schema{Tables: tables, Relationships: rels}
}

func TestBuild_SimpleComposition(t *testing.T) {
	schema := schemaWith(schemamodel.Relationship{
		ID: "fk_items_order", FromTable: "Item", FromColumns: []string{"order_id"},
		ToTable: "Order", ToColumns: []string{"id"}, OnDelete: schemamodel.ActionCascade,
	})

	tree, err := Build(schema)
	require.NoError(t, err)
	require.True(t, tree.IsRoot("Order"))
	require.False(t, tree.IsRoot("Item"))
	require.Equal(t, "Order", tree.DominantEdge["Item"].ParentTable)
	require.Equal(t, []string{"Order"}, tree.Roots(schema))
}

func TestBuild_SelfReferenceStaysReference(t *testing.T) {
	schema := schemaWith(schemamodel.Relationship{
		ID: "fk_category_parent", FromTable: "Category", FromColumns: []string{"parent_id"},
		ToTable: "Category", ToColumns: []string{"id"}, OnDelete: schemamodel.ActionCascade,
	})

	tree, err := Build(schema)
	require.NoError(t, err)
	require.True(t, tree.IsRoot("Category"))
	require.Len(t, tree.References, 1)
	require.Empty(t, tree.Compositions)
}

func TestBuild_DominanceTieBreakByArityThenName(t *testing.T) {
	schema := schemaWith(
		schemamodel.Relationship{
			ID: "fk_a", FromTable: "Child", FromColumns: []string{"a1", "a2"},
			ToTable: "AlphaParent", ToColumns: []string{"id1", "id2"}, OnDelete: schemamodel.ActionCascade,
		},
		schemamodel.Relationship{
			ID: "fk_b", FromTable: "Child", FromColumns: []string{"b1"},
			ToTable: "BetaParent", ToColumns: []string{"id"}, OnDelete: schemamodel.ActionCascade,
		},
	)

	tree, err := Build(schema)
	require.NoError(t, err)
	// BetaParent wins: single-column FK beats the two-column one regardless of name.
	require.Equal(t, "BetaParent", tree.DominantEdge["Child"].ParentTable)
}

func TestBuild_DominanceTieBreakAlphabetical(t *testing.T) {
	schema := schemaWith(
		schemamodel.Relationship{
			ID: "fk_a", FromTable: "Child", FromColumns: []string{"a"},
			ToTable: "Zeta", ToColumns: []string{"id"}, OnDelete: schemamodel.ActionCascade,
		},
		schemamodel.Relationship{
			ID: "fk_b", FromTable: "Child", FromColumns: []string{"b"},
			ToTable: "Alpha", ToColumns: []string{"id"}, OnDelete: schemamodel.ActionCascade,
		},
	)

	tree, err := Build(schema)
	require.NoError(t, err)
	require.Equal(t, "Alpha", tree.DominantEdge["Child"].ParentTable)
}

func TestBuild_MutualCompositionCycleFails(t *testing.T) {
	schema := schemaWith(
		schemamodel.Relationship{
			ID: "fk_a_to_b", FromTable: "A", FromColumns: []string{"b_id"},
			ToTable: "B", ToColumns: []string{"id"}, OnDelete: schemamodel.ActionCascade,
		},
		schemamodel.Relationship{
			ID: "fk_b_to_a", FromTable: "B", FromColumns: []string{"a_id"},
			ToTable: "A", ToColumns: []string{"id"}, OnDelete: schemamodel.ActionCascade,
		},
	)

	_, err := Build(schema)
	require.Error(t, err)
	var cyclic *dberrors.CyclicOwnership
	require.ErrorAs(t, err, &cyclic)
}

func TestBuild_ChildrenSortedByName(t *testing.T) {
	schema := schemaWith(
		schemamodel.Relationship{
			ID: "fk_z", FromTable: "Zebra", FromColumns: []string{"p"},
			ToTable: "Parent", ToColumns: []string{"id"}, OnDelete: schemamodel.ActionCascade,
		},
		schemamodel.Relationship{
			ID: "fk_a", FromTable: "Aardvark", FromColumns: []string{"p"},
			ToTable: "Parent", ToColumns: []string{"id"}, OnDelete: schemamodel.ActionCascade,
		},
	)

	tree, err := Build(schema)
	require.NoError(t, err)
	children := tree.Children["Parent"]
	require.Len(t, children, 2)
	require.Equal(t, "Aardvark", children[0].ChildTable)
	require.Equal(t, "Zebra", children[1].ChildTable)
}
