package sqlemit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hediet/database-editor/internal/rowdiff"
	"github.com/hediet/database-editor/internal/schemamodel"
)

func ordersSchema() *schemamodel.Schema {
	return &schemamodel.Schema{
		Tables: map[string]schemamodel.Table{
			"orders":     {Name: "orders", PrimaryKey: []string{"id"}},
			"line_items": {Name: "line_items", PrimaryKey: []string{"id"}},
			"customers": {
				Name: "customers",
				Columns: []schemamodel.Column{
					{Name: "id", Type: "integer"},
					{Name: "name", Type: "text"},
					{Name: "email", Type: "text"},
				},
				PrimaryKey: []string{"id"},
			},
		},
		Relationships: []schemamodel.Relationship{
			{
				ID: "fk_line_items_order", FromTable: "line_items", FromColumns: []string{"order_id"},
				ToTable: "orders", ToColumns: []string{"id"}, OnDelete: schemamodel.ActionCascade,
			},
		},
	}
}

func TestOrder_DeletesChildFirstInsertsParentFirst(t *testing.T) {
	schema := ordersSchema()
	changes := rowdiff.ChangeSet{
		{Kind: rowdiff.Insert, Table: "line_items", Row: map[string]any{"id": int64(1)}},
		{Kind: rowdiff.Insert, Table: "orders", Row: map[string]any{"id": int64(1)}},
		{Kind: rowdiff.Delete, Table: "orders", PrimaryKey: map[string]any{"id": int64(2)}},
		{Kind: rowdiff.Delete, Table: "line_items", PrimaryKey: map[string]any{"id": int64(2)}},
	}

	ordered := Order(schema, changes)
	require.Len(t, ordered, 4)

	// Deletes first, child-first: line_items before orders.
	require.Equal(t, rowdiff.Delete, ordered[0].Kind)
	require.Equal(t, "line_items", ordered[0].Table)
	require.Equal(t, rowdiff.Delete, ordered[1].Kind)
	require.Equal(t, "orders", ordered[1].Table)

	// Inserts last, parent-first: orders before line_items.
	require.Equal(t, rowdiff.Insert, ordered[2].Kind)
	require.Equal(t, "orders", ordered[2].Table)
	require.Equal(t, rowdiff.Insert, ordered[3].Kind)
	require.Equal(t, "line_items", ordered[3].Table)
}

func TestEmit_InsertUpdateDelete(t *testing.T) {
	schema := ordersSchema()
	changes := rowdiff.ChangeSet{
		{Kind: rowdiff.Insert, Table: "orders", Row: map[string]any{"id": int64(1), "customer": "Ada"}},
		{
			Kind: rowdiff.Update, Table: "orders",
			PrimaryKey: map[string]any{"id": int64(1)},
			OldValues:  map[string]any{"customer": "Ada"},
			NewValues:  map[string]any{"customer": "Ada Lovelace"},
		},
		{Kind: rowdiff.Delete, Table: "orders", PrimaryKey: map[string]any{"id": int64(1)}},
	}

	stmts, err := Emit(schema, changes)
	require.NoError(t, err)
	require.Len(t, stmts, 3)

	require.Contains(t, stmts[0].SQL, `INSERT INTO "orders"`)
	require.Contains(t, stmts[0].SQL, "$1")
	require.ElementsMatch(t, []any{int64(1), "Ada"}, stmts[0].Params)

	require.Contains(t, stmts[1].SQL, `UPDATE "orders" SET`)
	require.Contains(t, stmts[1].SQL, `WHERE "id" = $2`)

	require.Contains(t, stmts[2].SQL, `DELETE FROM "orders" WHERE "id" = $1`)
}

func TestEmit_ColumnsRenderInSchemaDeclaredOrderNotAlphabetical(t *testing.T) {
	schema := ordersSchema()
	changes := rowdiff.ChangeSet{
		{
			Kind: rowdiff.Update, Table: "customers",
			PrimaryKey: map[string]any{"id": int64(1)},
			OldValues:  map[string]any{"email": "ada@example.com", "name": "Ada"},
			NewValues:  map[string]any{"email": "ada@newmail.com", "name": "Ada Lovelace"},
		},
	}

	stmts, err := Emit(schema, changes)
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	// customers declares name before email; SET must follow that order
	// regardless of Go's randomized map iteration over NewValues.
	require.Contains(t, stmts[0].SQL, `SET "name" = $1, "email" = $2`)
	require.Equal(t, []any{"Ada Lovelace", "ada@newmail.com", int64(1)}, stmts[0].Params)
}
