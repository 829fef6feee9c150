package orchestrator

import (
	"context"
	"fmt"

	"github.com/hediet/database-editor/internal/fileio"
	"github.com/hediet/database-editor/internal/rowdiff"
	"github.com/hediet/database-editor/internal/sqlemit"
)

// Sync computes the same three-way change set Preview does, applies it
// inside a single transaction, and — on success — rewrites the base
// snapshot with the edited file's contents, so the next Preview/Sync
// diffs only the edits made after this one.
func (o *Orchestrator) Sync(ctx context.Context, path string) (rowdiff.ChangeSet, error) {
	doc, err := o.loadEdited(ctx, path)
	if err != nil {
		return nil, err
	}

	base, err := o.loadBaseOrLive(ctx, path, doc)
	if err != nil {
		return nil, err
	}

	changes := orderedChanges(o.Schema, base, doc.Flat)

	stmts, err := sqlemit.Emit(o.Schema, changes)
	if err != nil {
		return nil, err
	}

	if err := o.applyInTransaction(ctx, stmts); err != nil {
		return nil, err
	}

	if doc.Meta.Base != "" {
		basePath := resolveSibling(path, doc.Meta.Base)
		baseBytes, err := fileio.MarshalFlat(o.Schema, doc.Flat, fileio.Metadata{})
		if err != nil {
			return nil, fmt.Errorf("marshal updated base snapshot: %w", err)
		}
		if err := fileio.WriteAtomic(basePath, baseBytes, 0o644); err != nil {
			return nil, fmt.Errorf("rewrite base snapshot: %w", err)
		}
	}

	return changes, nil
}
