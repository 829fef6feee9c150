package sqlemit

import (
	"fmt"

	pgquery "github.com/pganalyze/pg_query_go/v6"

	"github.com/hediet/database-editor/internal/dbconn"
	"github.com/hediet/database-editor/internal/rowdiff"
	"github.com/hediet/database-editor/internal/schemamodel"
)

// Statement is one rendered SQL statement plus its positional parameters,
// ready to pass straight to database/sql's ExecContext.
type Statement struct {
	SQL    string
	Params []any
}

// Emit renders an ordered ChangeSet as a sequence of Statements. Values
// are always passed as positional parameters; identifiers are quoted via
// dbconn.QuoteIdent, the sole escaping mechanism for table/column names.
func Emit(schema *schemamodel.Schema, changes rowdiff.ChangeSet) ([]Statement, error) {
	stmts := make([]Statement, 0, len(changes))
	for _, c := range changes {
		table := schema.Tables[c.Table]
		var stmt Statement
		switch c.Kind {
		case rowdiff.Insert:
			stmt = emitInsert(&table, c)
		case rowdiff.Update:
			stmt = emitUpdate(&table, c)
		case rowdiff.Delete:
			stmt = emitDelete(&table, c)
		}
		if err := validate(stmt.SQL); err != nil {
			return nil, fmt.Errorf("emit %v for %q: %w", c.Kind, c.Table, err)
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func emitInsert(table *schemamodel.Table, c rowdiff.Change) Statement {
	cols := tableOrderedKeys(table, c.Row)
	sql := "INSERT INTO " + dbconn.QualifiedTable(table.Name) + " ("
	placeholders := ""
	params := make([]any, 0, len(cols))
	for i, col := range cols {
		if i > 0 {
			sql += ", "
			placeholders += ", "
		}
		sql += dbconn.QuoteIdent(col)
		placeholders += dbconn.Placeholder(i + 1)
		params = append(params, c.Row[col])
	}
	sql += ") VALUES (" + placeholders + ")"
	return Statement{SQL: sql, Params: params}
}

func emitUpdate(table *schemamodel.Table, c rowdiff.Change) Statement {
	setCols := tableOrderedKeys(table, c.NewValues)
	sql := "UPDATE " + dbconn.QualifiedTable(table.Name) + " SET "
	params := make([]any, 0, len(setCols)+len(table.PrimaryKey))
	n := 1
	for i, col := range setCols {
		if i > 0 {
			sql += ", "
		}
		sql += dbconn.QuoteIdent(col) + " = " + dbconn.Placeholder(n)
		params = append(params, c.NewValues[col])
		n++
	}

	sql += " WHERE "
	for i, col := range table.PrimaryKey {
		if i > 0 {
			sql += " AND "
		}
		sql += dbconn.QuoteIdent(col) + " = " + dbconn.Placeholder(n)
		params = append(params, c.PrimaryKey[col])
		n++
	}
	return Statement{SQL: sql, Params: params}
}

func emitDelete(table *schemamodel.Table, c rowdiff.Change) Statement {
	sql := "DELETE FROM " + dbconn.QualifiedTable(table.Name) + " WHERE "
	params := make([]any, 0, len(table.PrimaryKey))
	for i, col := range table.PrimaryKey {
		if i > 0 {
			sql += " AND "
		}
		sql += dbconn.QuoteIdent(col) + " = " + dbconn.Placeholder(i + 1)
		params = append(params, c.PrimaryKey[col])
	}
	return Statement{SQL: sql, Params: params}
}

// tableOrderedKeys returns the keys of row present in table's
// schema-declared column order, rather than alphabetical, so emitted
// INSERT/UPDATE statements render columns the way the table declares
// them. Generated columns are left out: the server computes them and
// they are never written. Any key in row that isn't one of table's
// columns (shouldn't happen for schema-derived data) is appended
// afterward, alphabetically, so it's never silently dropped.
func tableOrderedKeys(table *schemamodel.Table, row map[string]any) []string {
	keys := make([]string, 0, len(row))
	seen := make(map[string]bool, len(row))
	for _, col := range table.Columns {
		if _, ok := row[col.Name]; ok {
			seen[col.Name] = true
			if !col.IsGenerated {
				keys = append(keys, col.Name)
			}
		}
	}
	if len(seen) == len(row) {
		return keys
	}

	var extra []string
	for k := range row {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	for i := 1; i < len(extra); i++ {
		for j := i; j > 0 && extra[j-1] > extra[j]; j-- {
			extra[j-1], extra[j] = extra[j], extra[j-1]
		}
	}
	return append(keys, extra...)
}

// validate parses sql with pg_query_go to catch malformed statements
// before they ever reach the driver — a self-check, not user input
// validation: every statement here is built from schema metadata and
// diffed row data, never from unescaped user text.
func validate(sql string) error {
	_, err := pgquery.Parse(sql)
	return err
}
