// Package orchestrator wires the core packages (schema extraction,
// ownership tree, nesting/flattening, row diff, SQL emission) into the
// four entry points spec.md §4.7 describes: Dump, Preview, Sync, Reset.
//
// Transaction discipline mirrors lockplane's executor.ApplyPlan: begin,
// execute statements in order, commit; rollback deferred on any failure
// short of commit. The orchestrator is the only layer that performs that
// kind of recovery — every package beneath it just returns errors.
package orchestrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hediet/database-editor/internal/dbconn"
	"github.com/hediet/database-editor/internal/dberrors"
	"github.com/hediet/database-editor/internal/fileio"
	"github.com/hediet/database-editor/internal/nested"
	"github.com/hediet/database-editor/internal/ownership"
	"github.com/hediet/database-editor/internal/pgdriver"
	"github.com/hediet/database-editor/internal/rowdiff"
	"github.com/hediet/database-editor/internal/rowset"
	"github.com/hediet/database-editor/internal/schemamodel"
	"github.com/hediet/database-editor/internal/sqlemit"
)

// Orchestrator bundles a live connection with the schema metadata and
// derived ownership tree needed by every entry point. Callers build one
// per invocation with Open, which introspects the schema once.
type Orchestrator struct {
	DB     *sql.DB
	Schema *schemamodel.Schema
	Tree   *ownership.Tree

	fetcher   *rowset.Fetcher
	nester    *nested.Nester
	flattener *nested.Flattener
}

// Open connects to connStr, introspects the schema, and builds the
// ownership tree, failing fast if either step fails — every other entry
// point assumes both already succeeded.
func Open(ctx context.Context, connStr string) (*Orchestrator, error) {
	db, err := dbconn.Open(ctx, connStr)
	if err != nil {
		return nil, err
	}

	schema, err := pgdriver.NewExtractor().Extract(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	tree, err := ownership.Build(schema)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Orchestrator{
		DB:        db,
		Schema:    schema,
		Tree:      tree,
		fetcher:   rowset.NewFetcher(),
		nester:    nested.NewNester(schema, tree),
		flattener: nested.NewFlattener(tree),
	}, nil
}

// Close releases the underlying connection.
func (o *Orchestrator) Close() error {
	return o.DB.Close()
}

// loadEdited reads the user-facing file at path and normalizes it to a
// flat dataset, regardless of whether it was written flat or nested. Any
// $ref the in-file pass couldn't resolve is checked against the live
// database; one still missing there fails with dberrors.UnresolvedRef.
func (o *Orchestrator) loadEdited(ctx context.Context, path string) (*fileio.Document, error) {
	doc, err := fileio.LoadUserFile(path, o.Schema, o.Tree, o.flattener)
	if err != nil {
		return nil, err
	}
	for _, ref := range doc.PendingRefs {
		table := o.Schema.Tables[ref.Table]
		exists, err := rowExistsLive(ctx, o.DB, &table, ref.PK)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, &dberrors.UnresolvedRef{Table: ref.Table, PK: ref.PK}
		}
	}
	return doc, nil
}

// loadBaseOrLive resolves the "other side" of the diff per §4.7: the
// stored base snapshot if the edited file references one (fatal via
// dberrors.MissingBase if it's missing), otherwise a full live fetch.
// editedPath is the user-facing file's own path, needed to resolve
// doc.Meta.Base (stored relative to it) to an actual filesystem path.
func (o *Orchestrator) loadBaseOrLive(ctx context.Context, editedPath string, doc *fileio.Document) (*rowset.Dataset, error) {
	if doc.Meta.Base != "" {
		basePath := resolveSibling(editedPath, doc.Meta.Base)
		base, err := fileio.LoadBase(basePath, o.Schema)
		if errors.Is(err, os.ErrNotExist) {
			return nil, &dberrors.MissingBase{Path: basePath}
		}
		if err != nil {
			return nil, err
		}
		return base, nil
	}
	live, _, err := o.fetcher.Fetch(ctx, o.DB, o.Schema, 0)
	if err != nil {
		return nil, err
	}
	return live, nil
}

// resolveSibling resolves ref (as stored in a file's $schema/$base field,
// relative to that file) against the directory of from.
func resolveSibling(from, ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(filepath.Dir(from), ref)
}

func (o *Orchestrator) liveDataset(ctx context.Context) (*rowset.Dataset, error) {
	live, _, err := o.fetcher.Fetch(ctx, o.DB, o.Schema, 0)
	if err != nil {
		return nil, err
	}
	return live, nil
}

// applyInTransaction runs stmts against o.DB inside a single transaction,
// rolling back on the first failure.
func (o *Orchestrator) applyInTransaction(ctx context.Context, stmts []sqlemit.Statement) (err error) {
	tx, err := o.DB.BeginTx(ctx, nil)
	if err != nil {
		return &dberrors.DriverError{Op: "begin transaction", Err: err}
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range stmts {
		if _, execErr := tx.ExecContext(ctx, stmt.SQL, stmt.Params...); execErr != nil {
			return &dberrors.DriverError{Op: fmt.Sprintf("statement %d/%d", i+1, len(stmts)), Err: execErr}
		}
	}

	if err := tx.Commit(); err != nil {
		return &dberrors.DriverError{Op: "commit transaction", Err: err}
	}
	committed = true
	return nil
}

// orderedChanges diffs base against modified and returns the changes in
// the FK-safe execution order §4.6 specifies.
func orderedChanges(schema *schemamodel.Schema, base, modified *rowset.Dataset) rowdiff.ChangeSet {
	changes := rowdiff.Diff(schema, base, modified)
	return sqlemit.Order(schema, changes)
}

// rowExistsLive reports whether a row with the given primary key exists
// in table, per spec §9's resolved Open Question on $ref expansion.
func rowExistsLive(ctx context.Context, db dbconn.Queryer, table *schemamodel.Table, pk rowset.Row) (bool, error) {
	if len(table.PrimaryKey) == 0 {
		return false, fmt.Errorf("table %q has no primary key, cannot resolve $ref", table.Name)
	}
	conds := make([]string, len(table.PrimaryKey))
	args := make([]any, len(table.PrimaryKey))
	for i, col := range table.PrimaryKey {
		conds[i] = fmt.Sprintf("%s = %s", dbconn.QuoteIdent(col), dbconn.Placeholder(i+1))
		args[i] = pk[col]
	}
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s", dbconn.QualifiedTable(table.Name), joinAnd(conds))

	var found int
	err := db.QueryRowContext(ctx, query, args...).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, &dberrors.DriverError{Op: "check $ref existence", Err: err}
	}
	return true, nil
}

func joinAnd(conds []string) string {
	out := ""
	for i, c := range conds {
		if i > 0 {
			out += " AND "
		}
		out += c
	}
	return out
}
