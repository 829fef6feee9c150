package fileio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/hediet/database-editor/internal/dberrors"
	"github.com/hediet/database-editor/internal/nested"
	"github.com/hediet/database-editor/internal/ownership"
	"github.com/hediet/database-editor/internal/rowset"
	"github.com/hediet/database-editor/internal/schemamodel"
)

// Document is what LoadUserFile returns: the parsed dataset, normalized
// to flat form, plus the metadata the file carried and whether it was
// written in nested layout (so callers can round-trip the same layout).
// PendingRefs lists $ref markers (nested layout only) that didn't
// resolve to a row flattened from its owning position in this same
// file — callers with a live connection should check these against the
// database and treat any still missing as dberrors.UnresolvedRef.
type Document struct {
	Flat        *rowset.Dataset
	Meta        Metadata
	WasFlat     bool
	PendingRefs []nested.PendingRef
}

// LoadUserFile reads path, detects flat vs. nested layout, and returns a
// flat dataset either way (flattening nested documents through flattener).
func LoadUserFile(path string, schema *schemamodel.Schema, tree *ownership.Tree, flattener *nested.Flattener) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &dberrors.ParseError{Path: path, Err: err}
	}

	if IsLikelyNested(schema, tree.Roots(schema), raw) {
		nestedDS, meta, err := UnmarshalNested(schema, tree, data)
		if err != nil {
			return nil, &dberrors.ParseError{Path: path, Err: err}
		}
		flat, pending, err := flattener.Flatten(nestedDS, schema)
		if err != nil {
			return nil, err
		}
		return &Document{Flat: flat, Meta: meta, WasFlat: false, PendingRefs: pending}, nil
	}

	flat, meta, err := UnmarshalFlat(schema, data)
	if err != nil {
		return nil, &dberrors.ParseError{Path: path, Err: err}
	}
	return &Document{Flat: flat, Meta: meta, WasFlat: true}, nil
}

// LoadBase reads the always-flat base snapshot at path. Callers should
// treat a missing file as dberrors.MissingBase, not as this function's
// concern — it just reports os.ErrNotExist as-is.
func LoadBase(path string, schema *schemamodel.Schema) (*rowset.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	flat, _, err := UnmarshalFlat(schema, data)
	if err != nil {
		return nil, &dberrors.ParseError{Path: path, Err: err}
	}
	return flat, nil
}

// WriteAtomic writes data to path by writing to a sibling temp file and
// renaming over the destination, so a crash mid-write never leaves a
// half-written base snapshot. The temp name is suffixed with a random
// UUID to avoid collisions between concurrent invocations targeting the
// same path.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

// BasePath returns the sibling base-snapshot path for a user-facing file
// at path: ⟨dir⟩/.db-editor/⟨stem⟩.base.json, per spec §6.
func BasePath(userFilePath string) string {
	dir := filepath.Dir(userFilePath)
	stem := trimExt(filepath.Base(userFilePath))
	return filepath.Join(dir, ".db-editor", stem+".base.json")
}

func trimExt(name string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)]
}
