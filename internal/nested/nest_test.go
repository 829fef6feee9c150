package nested

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hediet/database-editor/internal/ownership"
	"github.com/hediet/database-editor/internal/rowset"
	"github.com/hediet/database-editor/internal/schemamodel"
)

func orderItemsSchema() *schemamodel.Schema {
	return &schemamodel.Schema{
		Tables: map[string]schemamodel.Table{
			"orders":     {Name: "orders", PrimaryKey: []string{"id"}},
			"line_items": {Name: "line_items", PrimaryKey: []string{"id"}},
		},
		Relationships: []schemamodel.Relationship{
			{
				ID: "fk_line_items_order", FromTable: "line_items", FromColumns: []string{"order_id"},
				ToTable: "orders", ToColumns: []string{"id"}, OnDelete: schemamodel.ActionCascade,
			},
		},
	}
}

func TestNestThenFlatten_RoundTrip(t *testing.T) {
	schema := orderItemsSchema()
	tree, err := ownership.Build(schema)
	require.NoError(t, err)

	flat := rowset.NewDataset(schema)
	flat.Append("orders", rowset.Row{"id": int64(1), "customer": "Ada"})
	flat.Append("line_items", rowset.Row{"id": int64(10), "order_id": int64(1), "qty": int64(2)})
	flat.Append("line_items", rowset.Row{"id": int64(11), "order_id": int64(1), "qty": int64(5)})

	nester := NewNester(schema, tree)
	nestedDS := nester.Nest(flat, Options{})

	orders := nestedDS.Roots["orders"]
	require.Len(t, orders, 1)
	require.Nil(t, orders[0].Row.Columns["order_id"]) // no such column on orders
	items := orders[0].Row.Children["line_items"]
	require.Len(t, items, 2)
	// FK column implicit from nesting context must be omitted.
	_, hasOrderID := items[0].Row.Columns["order_id"]
	require.False(t, hasOrderID)

	flattener := NewFlattener(tree)
	roundTripped, pending, err := flattener.Flatten(nestedDS, schema)
	require.NoError(t, err)
	require.Empty(t, pending)

	require.Len(t, roundTripped.Tables["orders"], 1)
	require.Len(t, roundTripped.Tables["line_items"], 2)
	require.Equal(t, int64(1), roundTripped.Tables["line_items"][0]["order_id"])
	require.Equal(t, int64(2), roundTripped.Tables["line_items"][0]["qty"])
}

func TestFlatten_PartialMarkerFails(t *testing.T) {
	schema := orderItemsSchema()
	tree, err := ownership.Build(schema)
	require.NoError(t, err)

	nestedDS := &Dataset{Roots: map[string][]Node{
		"orders": {{Partial: &PartialMarker{Skipped: 3}}},
	}}

	_, _, err = NewFlattener(tree).Flatten(nestedDS, schema)
	require.Error(t, err)
}

func TestFlatten_RefMarkerDoesNotRecurse(t *testing.T) {
	schema := orderItemsSchema()
	tree, err := ownership.Build(schema)
	require.NoError(t, err)

	nestedDS := &Dataset{Roots: map[string][]Node{
		"orders": {{Ref: &RefMarker{Table: "orders", PK: rowset.Row{"id": int64(42)}}}},
	}}

	flat, pending, err := NewFlattener(tree).Flatten(nestedDS, schema)
	require.NoError(t, err)
	// A $ref never contributes a row itself; its owning position must
	// provide the real row, so it shows up as unresolved within this file.
	require.Empty(t, flat.Tables["orders"])
	require.Empty(t, flat.Tables["line_items"])
	require.Len(t, pending, 1)
	require.Equal(t, "orders", pending[0].Table)
	require.Equal(t, int64(42), pending[0].PK["id"])
}

func TestFlatten_RefMarkerResolvesAgainstOwningRowInFile(t *testing.T) {
	schema := orderItemsSchema()
	tree, err := ownership.Build(schema)
	require.NoError(t, err)

	nestedDS := &Dataset{Roots: map[string][]Node{
		"orders": {
			{Row: &RowNode{Columns: rowset.Row{"id": int64(1), "customer": "Ada"}}},
			{Ref: &RefMarker{Table: "orders", PK: rowset.Row{"id": int64(1)}}},
		},
	}}

	flat, pending, err := NewFlattener(tree).Flatten(nestedDS, schema)
	require.NoError(t, err)
	require.Empty(t, pending)
	require.Len(t, flat.Tables["orders"], 1)
}
