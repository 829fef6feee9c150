package rowdiff

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hediet/database-editor/internal/rowset"
	"github.com/hediet/database-editor/internal/schemamodel"
)

func usersSchema() *schemamodel.Schema {
	return &schemamodel.Schema{
		Tables: map[string]schemamodel.Table{
			"users": {Name: "users", PrimaryKey: []string{"id"}},
		},
	}
}

func TestDiff_InsertUpdateDelete(t *testing.T) {
	schema := usersSchema()

	base := rowset.NewDataset(schema)
	base.Append("users", rowset.Row{"id": int64(1), "name": "Ada"})
	base.Append("users", rowset.Row{"id": int64(2), "name": "Bob"})

	modified := rowset.NewDataset(schema)
	modified.Append("users", rowset.Row{"id": int64(1), "name": "Ada Lovelace"})
	modified.Append("users", rowset.Row{"id": int64(3), "name": "Cleo"})

	changes := Diff(schema, base, modified)
	require.Len(t, changes, 3)

	var inserts, updates, deletes int
	for _, c := range changes {
		switch c.Kind {
		case Insert:
			inserts++
			require.Equal(t, "Cleo", c.Row["name"])
		case Update:
			updates++
			require.Equal(t, "Ada", c.OldValues["name"])
			require.Equal(t, "Ada Lovelace", c.NewValues["name"])
		case Delete:
			deletes++
			require.Equal(t, "Bob", c.OldRow["name"])
		}
	}
	require.Equal(t, 1, inserts)
	require.Equal(t, 1, updates)
	require.Equal(t, 1, deletes)
}

func TestDiff_NoChangesWhenIdentical(t *testing.T) {
	schema := usersSchema()
	base := rowset.NewDataset(schema)
	base.Append("users", rowset.Row{"id": int64(1), "name": "Ada"})
	modified := rowset.NewDataset(schema)
	modified.Append("users", rowset.Row{"id": int64(1), "name": "Ada"})

	require.Empty(t, Diff(schema, base, modified))
}

func TestDiff_TimestampsCompareAsInstants(t *testing.T) {
	schema := &schemamodel.Schema{Tables: map[string]schemamodel.Table{
		"events": {Name: "events", PrimaryKey: []string{"id"}},
	}}
	base := rowset.NewDataset(schema)
	base.Append("events", rowset.Row{"id": int64(1), "at": "2024-01-01T00:00:00Z"})
	modified := rowset.NewDataset(schema)
	modified.Append("events", rowset.Row{"id": int64(1), "at": "2024-01-01T00:00:00.000Z"})

	require.Empty(t, Diff(schema, base, modified))
}

func TestDiff_SkipsTableWithoutPrimaryKey(t *testing.T) {
	schema := &schemamodel.Schema{Tables: map[string]schemamodel.Table{
		"logs": {Name: "logs"},
	}}
	base := rowset.NewDataset(schema)
	base.Append("logs", rowset.Row{"msg": "a"})
	modified := rowset.NewDataset(schema)
	modified.Append("logs", rowset.Row{"msg": "b"})

	require.Empty(t, Diff(schema, base, modified))
}
