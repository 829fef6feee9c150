package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/hediet/database-editor/internal/autocomplete"
	"github.com/hediet/database-editor/internal/fileio"
	"github.com/hediet/database-editor/internal/nested"
	"github.com/hediet/database-editor/internal/rowset"
)

// DumpOptions configures Dump. Limit/NestedLimit of 0 means unlimited.
type DumpOptions struct {
	Limit       int
	NestedLimit int
	Nested      bool
	SkipBase    bool
}

// DumpResult reports where Dump wrote its companion files and how much
// of the live data it had to truncate, per table, in the user-facing file.
type DumpResult struct {
	OutputPath       string
	BasePath         string
	SchemaPath       string
	TruncationReport rowset.TruncationReport
}

// Dump fetches the full dataset, writes the user-facing file in the
// requested layout, and — unless opts.SkipBase — also writes an
// always-complete flat base snapshot and a sibling JSON-schema file for
// editor autocomplete, both referenced from the user-facing file by
// relative path. opts.Limit bounds the fetch per table for the flat
// layout; the nested layout fetches every row and applies opts.Limit
// while nesting, so truncated root sequences end in a $partial marker.
func (o *Orchestrator) Dump(ctx context.Context, outputPath string, opts DumpOptions) (*DumpResult, error) {
	fetchLimit := opts.Limit
	if opts.Nested {
		fetchLimit = 0
	}
	dataset, truncation, err := o.fetcher.Fetch(ctx, o.DB, o.Schema, fetchLimit)
	if err != nil {
		return nil, err
	}

	result := &DumpResult{OutputPath: outputPath, TruncationReport: truncation}

	schemaPath := ""
	meta := fileio.Metadata{}

	if !opts.SkipBase {
		schemaPath = schemaSiblingPath(outputPath)
		result.SchemaPath = schemaPath
		meta.SchemaRef = relTo(outputPath, schemaPath)

		basePath := fileio.BasePath(outputPath)
		result.BasePath = basePath
		meta.Base = relTo(outputPath, basePath)

		baseDataset := dataset
		if fetchLimit > 0 {
			// The base snapshot must never be truncated, even when the
			// user-facing file is: fetch it separately, in full.
			baseDataset, _, err = o.fetcher.Fetch(ctx, o.DB, o.Schema, 0)
			if err != nil {
				return nil, err
			}
		}
		baseBytes, err := fileio.MarshalFlat(o.Schema, baseDataset, fileio.Metadata{})
		if err != nil {
			return nil, fmt.Errorf("marshal base snapshot: %w", err)
		}
		if err := fileio.WriteAtomic(basePath, baseBytes, 0o644); err != nil {
			return nil, fmt.Errorf("write base snapshot: %w", err)
		}
	}

	var (
		out       []byte
		schemaDoc map[string]any
	)
	if opts.Nested {
		n := o.nester.Nest(dataset, nested.Options{Limit: opts.Limit, NestedLimit: opts.NestedLimit})
		result.TruncationReport = rowset.TruncationReport(n.Truncated)
		out, err = fileio.MarshalNested(o.Schema, o.Tree, n, meta)
		schemaDoc = autocomplete.GenerateNested(o.Schema, o.Tree)
	} else {
		out, err = fileio.MarshalFlat(o.Schema, dataset, meta)
		schemaDoc = autocomplete.GenerateFlat(o.Schema)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal dump: %w", err)
	}

	if !opts.SkipBase {
		schemaBytes, err := json.MarshalIndent(schemaDoc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal schema document: %w", err)
		}
		if err := fileio.WriteAtomic(schemaPath, schemaBytes, 0o644); err != nil {
			return nil, fmt.Errorf("write schema document: %w", err)
		}
	}

	if err := fileio.WriteAtomic(outputPath, out, 0o644); err != nil {
		return nil, fmt.Errorf("write dump: %w", err)
	}

	return result, nil
}

func schemaSiblingPath(outputPath string) string {
	dir := filepath.Dir(outputPath)
	stem := trimExt(filepath.Base(outputPath))
	return filepath.Join(dir, stem+".schema.json")
}

func trimExt(name string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)]
}

// relTo returns path relative to the directory containing from, falling
// back to the absolute path if no relative path can be computed.
func relTo(from, path string) string {
	rel, err := filepath.Rel(filepath.Dir(from), path)
	if err != nil {
		return path
	}
	return rel
}
