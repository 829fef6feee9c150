package autocomplete

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hediet/database-editor/internal/fileio"
	"github.com/hediet/database-editor/internal/rowset"
	"github.com/hediet/database-editor/internal/schemamodel"
)

func TestGenerateFlat_DumpValidatesAgainstItsOwnSchema(t *testing.T) {
	schema := &schemamodel.Schema{
		Tables: map[string]schemamodel.Table{
			"users": {
				Name: "users",
				Columns: []schemamodel.Column{
					{Name: "id", Type: "integer"},
					{Name: "email", Type: "text"},
				},
				PrimaryKey: []string{"id"},
			},
		},
	}

	ds := rowset.NewDataset(schema)
	ds.Append("users", rowset.Row{"id": int64(1), "email": "a@example.com"})

	dumpJSON, err := fileio.MarshalFlat(schema, ds, fileio.Metadata{})
	require.NoError(t, err)

	schemaDoc := GenerateFlat(schema)
	require.NoError(t, Validate(schemaDoc, dumpJSON))
}
