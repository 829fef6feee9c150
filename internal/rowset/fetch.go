package rowset

import (
	"context"
	"fmt"

	"github.com/hediet/database-editor/internal/dbconn"
	"github.com/hediet/database-editor/internal/dberrors"
	"github.com/hediet/database-editor/internal/schemamodel"
)

// Fetcher reads every table of a schema into a Dataset, in primary-key
// order when the table has one.
type Fetcher struct{}

func NewFetcher() *Fetcher { return &Fetcher{} }

// TruncationReport maps table name to the number of rows skipped by a
// limit, for tables where the limit actually truncated the result.
type TruncationReport map[string]int

// Fetch reads every table named in schema. limit, if > 0, caps the rows
// read per table and reports how many were skipped in the returned
// TruncationReport. limit <= 0 means unlimited.
func (f *Fetcher) Fetch(ctx context.Context, db dbconn.Queryer, schema *schemamodel.Schema, limit int) (*Dataset, TruncationReport, error) {
	dataset := NewDataset(schema)
	truncated := TruncationReport{}

	for _, name := range schema.TableNames() {
		table := schema.Tables[name]
		rows, skipped, err := f.fetchTable(ctx, db, &table, limit)
		if err != nil {
			return nil, nil, &dberrors.ExtractFailed{Table: name, Err: err}
		}
		dataset.Tables[name] = rows
		if skipped > 0 {
			truncated[name] = skipped
		}
	}

	return dataset, truncated, nil
}

func (f *Fetcher) fetchTable(ctx context.Context, db dbconn.Queryer, table *schemamodel.Table, limit int) ([]Row, int, error) {
	query := buildSelect(table, limit)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("query %q: %w", table.Name, err)
	}
	defer func() { _ = rows.Close() }()

	colNames := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		colNames[i] = c.Name
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(colNames))
		ptrs := make([]any, len(colNames))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, 0, fmt.Errorf("scan %q: %w", table.Name, err)
		}
		row := make(Row, len(colNames))
		for i, name := range colNames {
			row[name] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate %q: %w", table.Name, err)
	}

	if limit <= 0 || len(out) <= limit {
		return out, 0, nil
	}

	// A full count is needed to report how many rows were skipped; the
	// LIMIT clause itself only bounds what we fetched, one row over.
	total, err := countRows(ctx, db, table.Name)
	if err != nil {
		return nil, 0, err
	}
	return out[:limit], total - limit, nil
}

func countRows(ctx context.Context, db dbconn.Queryer, table string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT count(*) FROM %s", dbconn.QualifiedTable(table))).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", table, err)
	}
	return count, nil
}

func buildSelect(table *schemamodel.Table, limit int) string {
	cols := ""
	for i, c := range table.Columns {
		if i > 0 {
			cols += ", "
		}
		cols += dbconn.QuoteIdent(c.Name)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", cols, dbconn.QualifiedTable(table.Name))
	query += orderByClause(table)
	if limit > 0 {
		// Fetch one extra row so fetchTable can tell "exactly limit rows"
		// apart from "more than limit rows" without a second round trip
		// in the common case.
		query += fmt.Sprintf(" LIMIT %d", limit+1)
	}
	return query
}

func orderByClause(table *schemamodel.Table) string {
	if len(table.PrimaryKey) == 0 {
		return ""
	}
	clause := " ORDER BY "
	for i, col := range table.PrimaryKey {
		if i > 0 {
			clause += ", "
		}
		clause += dbconn.QuoteIdent(col)
	}
	return clause
}
