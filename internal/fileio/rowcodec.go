// Package fileio reads and writes the two user-facing JSON layouts (flat
// and nested) and the always-flat base snapshot, converting between the
// wire scalar domain (ISO-8601 strings, base64 bytes) and the richer
// in-memory rowset.Value domain (time.Time, []byte) along the way.
package fileio

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hediet/database-editor/internal/rowset"
	"github.com/hediet/database-editor/internal/schemamodel"
)

// EncodeRow converts an in-memory row to its JSON-safe form: time.Time to
// RFC3339 UTC, raw JSON-column bytes to parsed values, everything else
// passed through unchanged (json.Marshal handles the rest).
func EncodeRow(table *schemamodel.Table, row rowset.Row) map[string]any {
	out := make(map[string]any, len(row))
	for col, val := range row {
		out[col] = encodeValue(table, col, val)
	}
	return out
}

func encodeValue(table *schemamodel.Table, col string, val rowset.Value) any {
	switch v := val.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case []byte:
		if isJSONColumn(table, col) {
			var parsed any
			if err := json.Unmarshal(v, &parsed); err == nil {
				return parsed
			}
		}
		return base64.StdEncoding.EncodeToString(v)
	default:
		return v
	}
}

// DecodeRow converts a parsed-JSON row back to the in-memory domain:
// base64 strings to []byte for byte columns, ISO-8601 strings to
// time.Time for date/timestamp columns, JSON values back to raw bytes for
// json/jsonb columns (so they round-trip through the driver the way they
// were read). Columns not found in table pass through unchanged.
func DecodeRow(table *schemamodel.Table, raw map[string]any) (rowset.Row, error) {
	out := make(rowset.Row, len(raw))
	for col, val := range raw {
		decoded, err := decodeValue(table, col, val)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		out[col] = decoded
	}
	return out, nil
}

func decodeValue(table *schemamodel.Table, col string, val any) (rowset.Value, error) {
	c := table.ColumnByName(col)
	if c == nil || val == nil {
		return val, nil
	}

	switch {
	case isBytesType(c.Type):
		s, ok := val.(string)
		if !ok {
			return val, nil
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid base64: %w", err)
		}
		return b, nil

	case isIntegerType(c.Type):
		// encoding/json decodes every JSON number as float64; the live
		// driver returns int64 for integer columns (lib/pq), so without
		// this conversion a file-sourced row and a database-sourced row
		// for the same integer value carry different Go types and
		// compare unequal (rowdiff.valuesEqual, rowset.PrimaryKeyString).
		f, ok := val.(float64)
		if !ok {
			return val, nil
		}
		if f != float64(int64(f)) {
			return nil, fmt.Errorf("value %v is not a whole number for integer column", val)
		}
		return int64(f), nil

	case isTimeType(c.Type):
		s, ok := val.(string)
		if !ok {
			return val, nil
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			t, err = time.Parse(time.RFC3339, s)
			if err != nil {
				return nil, fmt.Errorf("invalid timestamp %q: %w", s, err)
			}
		}
		return t, nil

	case isJSONColumn(table, col):
		b, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("re-marshal json column: %w", err)
		}
		return b, nil

	default:
		return val, nil
	}
}

func isBytesType(dbType string) bool {
	t := strings.ToLower(dbType)
	return t == "bytea"
}

// isIntegerType reports whether dbType is one of PostgreSQL's fixed-width
// whole-number types, i.e. the types information_schema.columns.data_type
// reports as smallint/integer/bigint (and their serial-backed aliases,
// which introspect to the same data_type).
func isIntegerType(dbType string) bool {
	switch strings.ToLower(dbType) {
	case "smallint", "integer", "bigint":
		return true
	default:
		return false
	}
}

func isTimeType(dbType string) bool {
	t := strings.ToLower(dbType)
	return strings.Contains(t, "timestamp") || t == "date" || t == "time" || strings.HasPrefix(t, "time ")
}

func isJSONColumn(table *schemamodel.Table, col string) bool {
	c := table.ColumnByName(col)
	if c == nil {
		return false
	}
	t := strings.ToLower(c.Type)
	return t == "json" || t == "jsonb"
}
