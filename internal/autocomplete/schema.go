// Package autocomplete produces the JSON-schema companion file described
// in spec §6: an external-collaborator contract the core only needs to
// guarantee its own dump output validates against. The draft-07 document
// is built as plain maps; Validate uses xeipuuv/gojsonschema to check a
// dump against it.
package autocomplete

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/hediet/database-editor/internal/ownership"
	"github.com/hediet/database-editor/internal/schemamodel"
)

// GenerateFlat builds a JSON-schema document describing the flat file
// layout: one property per table, each an array of row objects typed
// from the table's columns.
func GenerateFlat(schema *schemamodel.Schema) map[string]any {
	props := map[string]any{
		"$schema": map[string]any{"type": "string"},
		"$base":   map[string]any{"type": "string"},
	}
	for _, name := range schema.TableNames() {
		table := schema.Tables[name]
		props[name] = map[string]any{
			"type":  "array",
			"items": rowSchema(&table, nil),
		}
	}
	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

// GenerateNested builds a JSON-schema document describing the nested file
// layout: one property per root table (camelCase), each an array whose
// items are a row, a $ref marker, or a $partial marker.
func GenerateNested(schema *schemamodel.Schema, tree *ownership.Tree) map[string]any {
	props := map[string]any{
		"$schema": map[string]any{"type": "string"},
		"$base":   map[string]any{"type": "string"},
	}
	for _, root := range tree.Roots(schema) {
		props[camelCase(root)] = map[string]any{
			"type":  "array",
			"items": nodeSchema(schema, tree, root),
		}
	}
	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

func nodeSchema(schema *schemamodel.Schema, tree *ownership.Tree, table string) map[string]any {
	tableMeta := schema.Tables[table]
	if edge, ok := tree.DominantEdge[table]; ok {
		// Nested rows omit the FK columns implied by their dominant parent.
		omit := make(map[string]bool, len(edge.ChildColumns))
		for _, c := range edge.ChildColumns {
			omit[c] = true
		}
		var cols []schemamodel.Column
		for _, c := range tableMeta.Columns {
			if !omit[c.Name] {
				cols = append(cols, c)
			}
		}
		tableMeta.Columns = cols
	}
	return map[string]any{
		"oneOf": []any{
			rowSchema(&tableMeta, childProperties(schema, tree, table)),
			map[string]any{
				"type":     "object",
				"required": []string{"$ref"},
				"properties": map[string]any{
					"$ref": map[string]any{"const": true},
				},
			},
			map[string]any{
				"type":     "object",
				"required": []string{"$partial", "skipped"},
				"properties": map[string]any{
					"$partial": map[string]any{"const": true},
					"skipped":  map[string]any{"type": "integer", "minimum": 0},
				},
			},
		},
	}
}

func childProperties(schema *schemamodel.Schema, tree *ownership.Tree, table string) map[string]any {
	children := map[string]any{}
	for _, e := range tree.Children[table] {
		children[camelCase(e.ChildTable)] = map[string]any{
			"type":  "array",
			"items": nodeSchema(schema, tree, e.ChildTable),
		}
	}
	return children
}

// rowSchema describes one table row: its own columns, plus any extra
// (nested-only) properties such as child sequences.
func rowSchema(table *schemamodel.Table, extra map[string]any) map[string]any {
	props := map[string]any{}
	var required []string
	for _, col := range table.Columns {
		props[col.Name] = columnSchema(col)
		if !col.IsNullable && !col.HasDefault && !col.IsGenerated {
			required = append(required, col.Name)
		}
	}
	for k, v := range extra {
		props[k] = v
	}
	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func columnSchema(col schemamodel.Column) map[string]any {
	if t := strings.ToLower(col.Type); t == "json" || t == "jsonb" {
		return map[string]any{} // written as parsed JSON, so any JSON value
	}
	jsonType := jsonTypeFor(col.Type)
	if col.IsNullable {
		return map[string]any{"type": []string{jsonType, "null"}}
	}
	return map[string]any{"type": jsonType}
}

func jsonTypeFor(dbType string) string {
	t := strings.ToLower(dbType)
	switch {
	case strings.Contains(t, "int"):
		return "integer"
	case strings.Contains(t, "float"), strings.Contains(t, "double"), strings.Contains(t, "numeric"), strings.Contains(t, "decimal"), strings.Contains(t, "real"):
		return "number"
	case t == "boolean":
		return "boolean"
	default:
		return "string"
	}
}

func camelCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
	for i, p := range parts {
		if i == 0 {
			parts[i] = strings.ToLower(p)
		} else if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
		}
	}
	return strings.Join(parts, "")
}

// Validate confirms dumpJSON validates against the generated schemaDoc,
// the only contract §6 places on the core's relationship with the
// external autocomplete collaborator.
func Validate(schemaDoc map[string]any, dumpJSON []byte) error {
	schemaBytes, err := json.Marshal(schemaDoc)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)
	docLoader := gojsonschema.NewBytesLoader(dumpJSON)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("dump output does not validate against its own schema: %s", strings.Join(msgs, "; "))
	}
	return nil
}
