// Package pgdriver extracts a schemamodel.Schema from a live PostgreSQL
// connection using information_schema and pg_catalog, the way the
// lockplane's database/postgres introspector does it, extended with the
// pg_constraint-based FK ordering used by the pack's fkanalyzer.
package pgdriver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hediet/database-editor/internal/dberrors"
	"github.com/hediet/database-editor/internal/schemamodel"
)

// Extractor reads schema metadata from the current_schema() of a
// connection. It holds no state and is safe for concurrent use.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// Extract builds a full Schema: every base table, its columns, its
// primary key, and every foreign key constraint in the schema.
func (e *Extractor) Extract(ctx context.Context, db *sql.DB) (*schemamodel.Schema, error) {
	tableNames, err := e.tableNames(ctx, db)
	if err != nil {
		return nil, &dberrors.ExtractFailed{Err: err}
	}

	tables := make(map[string]schemamodel.Table, len(tableNames))
	for _, name := range tableNames {
		cols, err := e.columns(ctx, db, name)
		if err != nil {
			return nil, &dberrors.ExtractFailed{Table: name, Err: err}
		}
		pk, err := e.primaryKey(ctx, db, name)
		if err != nil {
			return nil, &dberrors.ExtractFailed{Table: name, Err: err}
		}
		tables[name] = schemamodel.Table{Name: name, Columns: cols, PrimaryKey: pk}
	}

	rels, err := e.relationships(ctx, db)
	if err != nil {
		return nil, &dberrors.ExtractFailed{Err: err}
	}

	return &schemamodel.Schema{Tables: tables, Relationships: rels}, nil
}

func (e *Extractor) tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (e *Extractor) columns(ctx context.Context, db *sql.DB, table string) ([]schemamodel.Column, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, column_default, is_generated
		FROM information_schema.columns
		WHERE table_schema = current_schema()
		  AND table_name = $1
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns for %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []schemamodel.Column
	for rows.Next() {
		var name, dataType, nullable, isGenerated string
		var defaultVal sql.NullString
		if err := rows.Scan(&name, &dataType, &nullable, &defaultVal, &isGenerated); err != nil {
			return nil, fmt.Errorf("scan column for %q: %w", table, err)
		}
		cols = append(cols, schemamodel.Column{
			Name:        name,
			Type:        strings.TrimSpace(dataType),
			IsNullable:  nullable == "YES",
			HasDefault:  defaultVal.Valid,
			IsGenerated: isGenerated == "ALWAYS",
		})
	}
	return cols, rows.Err()
}

func (e *Extractor) primaryKey(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = current_schema()
		  AND tc.table_name = $1
		  AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position
	`, table)
	if err != nil {
		return nil, fmt.Errorf("query primary key for %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var pk []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("scan primary key column for %q: %w", table, err)
		}
		pk = append(pk, col)
	}
	return pk, rows.Err()
}

// relationships returns every foreign key in the schema via pg_constraint,
// which (unlike the information_schema join used for single-table lookups)
// lets us fetch every table's FKs in one round trip and preserves each
// constraint's declared column order through conkey/confkey's array
// positions rather than a join that needs its own ORDER BY trick.
func (e *Extractor) relationships(ctx context.Context, db *sql.DB) ([]schemamodel.Relationship, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT
			con.conname,
			cl.relname AS from_table,
			array_agg(att.attname ORDER BY ord.n) AS from_columns,
			fcl.relname AS to_table,
			array_agg(fatt.attname ORDER BY ord.n) AS to_columns,
			con.confupdtype,
			con.confdeltype
		FROM pg_constraint con
		JOIN pg_class cl ON cl.oid = con.conrelid
		JOIN pg_namespace ns ON ns.oid = cl.relnamespace
		JOIN pg_class fcl ON fcl.oid = con.confrelid
		JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS ord(ckey, fkey, n) ON true
		JOIN pg_attribute att ON att.attrelid = con.conrelid AND att.attnum = ord.ckey
		JOIN pg_attribute fatt ON fatt.attrelid = con.confrelid AND fatt.attnum = ord.fkey
		WHERE con.contype = 'f'
		  AND ns.nspname = current_schema()
		GROUP BY con.conname, cl.relname, fcl.relname, con.confupdtype, con.confdeltype
		ORDER BY con.conname
	`)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rels []schemamodel.Relationship
	for rows.Next() {
		var name, fromTable, toTable string
		var fromCols, toCols pq.StringArray
		var updateRule, deleteRule string
		if err := rows.Scan(&name, &fromTable, &fromCols, &toTable, &toCols, &updateRule, &deleteRule); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		rels = append(rels, schemamodel.Relationship{
			ID:          name,
			FromTable:   fromTable,
			FromColumns: []string(fromCols),
			ToTable:     toTable,
			ToColumns:   []string(toCols),
			OnDelete:    decodeConAction(deleteRule),
			OnUpdate:    decodeConAction(updateRule),
		})
	}
	return rels, rows.Err()
}

func decodeConAction(code string) schemamodel.ReferentialAction {
	switch code {
	case "c":
		return schemamodel.ActionCascade
	case "n":
		return schemamodel.ActionSetNull
	case "d":
		return schemamodel.ActionSetDefault
	case "r":
		return schemamodel.ActionRestrict
	default:
		return schemamodel.ActionNoAction
	}
}
