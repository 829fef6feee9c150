package orchestrator

import (
	"context"

	"github.com/hediet/database-editor/internal/rowdiff"
)

// Preview computes the change set a Sync of path would apply, without
// touching the database. It performs the same three-way resolution Sync
// does: diff the stored base against the edited file when the file
// references one, otherwise diff the live database against the edited
// file. Returns dberrors.TruncatedInput if the file carries a $partial
// marker, and dberrors.MissingBase if it references a base that's gone.
func (o *Orchestrator) Preview(ctx context.Context, path string) (rowdiff.ChangeSet, error) {
	doc, err := o.loadEdited(ctx, path)
	if err != nil {
		return nil, err
	}

	base, err := o.loadBaseOrLive(ctx, path, doc)
	if err != nil {
		return nil, err
	}

	return orderedChanges(o.Schema, base, doc.Flat), nil
}
