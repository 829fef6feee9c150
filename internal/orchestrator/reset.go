package orchestrator

import (
	"context"

	"github.com/hediet/database-editor/internal/rowdiff"
	"github.com/hediet/database-editor/internal/sqlemit"
)

// Reset always diffs the live database against the edited file and
// applies the resulting change set — the two-way escape hatch for when
// there's no base snapshot to three-way merge against, or the caller
// wants to discard concurrent database changes outright. Rows present in
// the database but absent from the file are deleted.
func (o *Orchestrator) Reset(ctx context.Context, path string) (rowdiff.ChangeSet, error) {
	doc, err := o.loadEdited(ctx, path)
	if err != nil {
		return nil, err
	}

	live, err := o.liveDataset(ctx)
	if err != nil {
		return nil, err
	}

	changes := orderedChanges(o.Schema, live, doc.Flat)

	stmts, err := sqlemit.Emit(o.Schema, changes)
	if err != nil {
		return nil, err
	}

	if err := o.applyInTransaction(ctx, stmts); err != nil {
		return nil, err
	}

	return changes, nil
}
