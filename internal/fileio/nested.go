package fileio

import (
	"encoding/json"
	"fmt"

	"github.com/hediet/database-editor/internal/nested"
	"github.com/hediet/database-editor/internal/ownership"
	"github.com/hediet/database-editor/internal/schemamodel"
)

// MarshalNested renders n in the nested layout: one JSON key (camelCase)
// per root table, plus the metadata keys.
func MarshalNested(schema *schemamodel.Schema, tree *ownership.Tree, n *nested.Dataset, meta Metadata) ([]byte, error) {
	obj := make(map[string]any, len(n.Roots)+2)
	if meta.SchemaRef != "" {
		obj["$schema"] = meta.SchemaRef
	}
	if meta.Base != "" {
		obj["$base"] = meta.Base
	}
	for table, nodes := range n.Roots {
		table := table
		encoded, err := encodeNodes(schema, tree, table, nodes)
		if err != nil {
			return nil, err
		}
		obj[camelCase(table)] = encoded
	}
	return json.MarshalIndent(obj, "", "  ")
}

func encodeNodes(schema *schemamodel.Schema, tree *ownership.Tree, table string, nodes []nested.Node) ([]map[string]any, error) {
	out := make([]map[string]any, len(nodes))
	tableMeta := schema.Tables[table]
	for i, n := range nodes {
		switch {
		case n.Partial != nil:
			out[i] = map[string]any{"$partial": true, "skipped": n.Partial.Skipped}
		case n.Ref != nil:
			m := EncodeRow(&tableMeta, n.Ref.PK)
			m["$ref"] = true
			out[i] = m
		case n.Row != nil:
			m := EncodeRow(&tableMeta, n.Row.Columns)
			for _, e := range tree.Children[table] {
				children, err := encodeNodes(schema, tree, e.ChildTable, n.Row.Children[e.ChildTable])
				if err != nil {
					return nil, err
				}
				m[camelCase(e.ChildTable)] = children
			}
			out[i] = m
		default:
			return nil, fmt.Errorf("node for table %q has neither row, ref, nor partial", table)
		}
	}
	return out, nil
}

// UnmarshalNested parses a nested-layout document against schema and tree.
func UnmarshalNested(schema *schemamodel.Schema, tree *ownership.Tree, data []byte) (*nested.Dataset, Metadata, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, Metadata{}, fmt.Errorf("decode top-level object: %w", err)
	}
	meta := extractMetadata(raw)

	result := &nested.Dataset{Roots: make(map[string][]nested.Node), Truncated: make(map[string]int)}
	for _, root := range tree.Roots(schema) {
		msg, ok := raw[camelCase(root)]
		if !ok {
			continue
		}
		var rawNodes []map[string]json.RawMessage
		if err := json.Unmarshal(msg, &rawNodes); err != nil {
			return nil, Metadata{}, fmt.Errorf("root %q: %w", root, err)
		}
		nodes, err := decodeNodes(schema, tree, root, rawNodes)
		if err != nil {
			return nil, Metadata{}, err
		}
		result.Roots[root] = nodes
	}
	return result, meta, nil
}

func decodeNodes(schema *schemamodel.Schema, tree *ownership.Tree, table string, rawNodes []map[string]json.RawMessage) ([]nested.Node, error) {
	tableMeta := schema.Tables[table]
	childKeyToTable := make(map[string]string, len(tree.Children[table]))
	for _, e := range tree.Children[table] {
		childKeyToTable[camelCase(e.ChildTable)] = e.ChildTable
	}

	nodes := make([]nested.Node, 0, len(rawNodes))
	for _, raw := range rawNodes {
		if isTag(raw, "$partial") {
			var skipped int
			if msg, ok := raw["skipped"]; ok {
				_ = json.Unmarshal(msg, &skipped)
			}
			nodes = append(nodes, nested.Node{Partial: &nested.PartialMarker{Skipped: skipped}})
			continue
		}

		if isTag(raw, "$ref") {
			pkRaw := map[string]any{}
			for _, col := range tableMeta.PrimaryKey {
				if msg, ok := raw[col]; ok {
					var v any
					_ = json.Unmarshal(msg, &v)
					pkRaw[col] = v
				}
			}
			pk, err := DecodeRow(&tableMeta, pkRaw)
			if err != nil {
				return nil, fmt.Errorf("table %q $ref: %w", table, err)
			}
			nodes = append(nodes, nested.Node{Ref: &nested.RefMarker{Table: table, PK: pk}})
			continue
		}

		colsRaw := map[string]any{}
		children := make(map[string][]nested.Node, len(childKeyToTable))
		for key, msg := range raw {
			if childTable, isChild := childKeyToTable[key]; isChild {
				var rawChildNodes []map[string]json.RawMessage
				if err := json.Unmarshal(msg, &rawChildNodes); err != nil {
					return nil, fmt.Errorf("table %q child %q: %w", table, key, err)
				}
				childNodes, err := decodeNodes(schema, tree, childTable, rawChildNodes)
				if err != nil {
					return nil, err
				}
				children[childTable] = childNodes
				continue
			}
			if tableMeta.ColumnByName(key) == nil {
				continue // unknown key: ignore rather than reject, the schema is authoritative
			}
			var v any
			_ = json.Unmarshal(msg, &v)
			colsRaw[key] = v
		}

		cols, err := DecodeRow(&tableMeta, colsRaw)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", table, err)
		}
		nodes = append(nodes, nested.Node{Row: &nested.RowNode{Columns: cols, Children: children}})
	}
	return nodes, nil
}

func isTag(raw map[string]json.RawMessage, tag string) bool {
	msg, ok := raw[tag]
	if !ok {
		return false
	}
	var b bool
	_ = json.Unmarshal(msg, &b)
	return b
}
