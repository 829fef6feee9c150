package fileio

import (
	"encoding/json"
	"fmt"

	"github.com/hediet/database-editor/internal/dberrors"
	"github.com/hediet/database-editor/internal/rowset"
	"github.com/hediet/database-editor/internal/schemamodel"
)

// Metadata holds the optional $schema/$base keys every user-facing file
// (and the base snapshot, minus $base on itself) carries.
type Metadata struct {
	SchemaRef string // sibling JSON-schema companion path, for editor autocomplete
	Base      string // sibling base-snapshot path, for three-way merge
}

// MarshalFlat renders dataset in the flat layout: one JSON key per table,
// plus the metadata keys.
func MarshalFlat(schema *schemamodel.Schema, dataset *rowset.Dataset, meta Metadata) ([]byte, error) {
	obj := make(map[string]any, len(dataset.Tables)+2)
	if meta.SchemaRef != "" {
		obj["$schema"] = meta.SchemaRef
	}
	if meta.Base != "" {
		obj["$base"] = meta.Base
	}
	for name, rows := range dataset.Tables {
		table := schema.Tables[name]
		encoded := make([]map[string]any, len(rows))
		for i, row := range rows {
			encoded[i] = EncodeRow(&table, row)
		}
		obj[name] = encoded
	}
	return json.MarshalIndent(obj, "", "  ")
}

// UnmarshalFlat parses a flat-layout document against schema.
func UnmarshalFlat(schema *schemamodel.Schema, data []byte) (*rowset.Dataset, Metadata, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, Metadata{}, fmt.Errorf("decode top-level object: %w", err)
	}

	meta := extractMetadata(raw)
	dataset := rowset.NewDataset(schema)

	for name := range schema.Tables {
		msg, ok := raw[name]
		if !ok {
			continue
		}
		var rows []map[string]any
		if err := json.Unmarshal(msg, &rows); err != nil {
			return nil, Metadata{}, fmt.Errorf("table %q: not a row array: %w", name, err)
		}
		table := schema.Tables[name]
		for _, raw := range rows {
			if partial, _ := raw["$partial"].(bool); partial {
				return nil, Metadata{}, &dberrors.TruncatedInput{Table: name}
			}
			row, err := DecodeRow(&table, raw)
			if err != nil {
				return nil, Metadata{}, fmt.Errorf("table %q: %w", name, err)
			}
			dataset.Append(name, row)
		}
	}

	return dataset, meta, nil
}

func extractMetadata(raw map[string]json.RawMessage) Metadata {
	var meta Metadata
	if msg, ok := raw["$schema"]; ok {
		_ = json.Unmarshal(msg, &meta.SchemaRef)
	}
	if msg, ok := raw["$base"]; ok {
		_ = json.Unmarshal(msg, &meta.Base)
	}
	return meta
}

// IsLikelyNested reports whether a parsed top-level object looks like the
// nested layout rather than flat: it has no key naming a non-root table
// by its native name (only the flat layout has those), and at least one
// key matching a root table's camelCase name rather than its native
// snake_case name, or a root whose camelCase and native names coincide.
func IsLikelyNested(schema *schemamodel.Schema, roots []string, raw map[string]json.RawMessage) bool {
	isRoot := make(map[string]bool, len(roots))
	for _, root := range roots {
		isRoot[root] = true
	}
	for name := range schema.Tables {
		if _, ok := raw[name]; ok && !isRoot[name] {
			return false
		}
	}
	for _, root := range roots {
		if _, ok := raw[camelCase(root)]; ok {
			if _, alsoFlat := raw[root]; !alsoFlat || root == camelCase(root) {
				return true
			}
		}
	}
	return false
}
