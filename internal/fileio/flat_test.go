package fileio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hediet/database-editor/internal/rowset"
	"github.com/hediet/database-editor/internal/schemamodel"
)

func eventsSchema() *schemamodel.Schema {
	return &schemamodel.Schema{
		Tables: map[string]schemamodel.Table{
			"events": {
				Name: "events",
				Columns: []schemamodel.Column{
					{Name: "id", Type: "integer"},
					{Name: "payload", Type: "jsonb"},
					{Name: "seen_at", Type: "timestamp with time zone"},
					{Name: "blob", Type: "bytea"},
				},
				PrimaryKey: []string{"id"},
			},
		},
	}
}

func TestMarshalUnmarshalFlat_RoundTrip(t *testing.T) {
	schema := eventsSchema()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	ds := rowset.NewDataset(schema)
	ds.Append("events", rowset.Row{
		"id":      int64(1),
		"payload": []byte(`{"k":"v"}`),
		"seen_at": at,
		"blob":    []byte{0x01, 0x02, 0x03},
	})

	data, err := MarshalFlat(schema, ds, Metadata{SchemaRef: "./events.schema.json"})
	require.NoError(t, err)
	require.Contains(t, string(data), `"$schema"`)

	roundTripped, meta, err := UnmarshalFlat(schema, data)
	require.NoError(t, err)
	require.Equal(t, "./events.schema.json", meta.SchemaRef)

	row := roundTripped.Tables["events"][0]
	require.Equal(t, int64(1), row["id"]) // normalized from float64 to the column's integer type
	require.Equal(t, at, row["seen_at"])
	require.Equal(t, []byte{0x01, 0x02, 0x03}, row["blob"])
	require.JSONEq(t, `{"k":"v"}`, string(row["payload"].([]byte)))
}
