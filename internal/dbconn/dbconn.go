// Package dbconn opens the PostgreSQL connection used by every core
// package and provides the small set of identifier-quoting helpers the
// rest of the codebase needs to build safe, dynamic SQL.
package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/hediet/database-editor/internal/dberrors"
)

// Open connects to connStr (a postgres:// or postgresql:// URL) and pings
// it before returning, so callers get a connection error up front instead
// of on the first query.
func Open(ctx context.Context, connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, &dberrors.DriverError{Op: "open connection", Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &dberrors.DriverError{Op: "ping database", Err: err}
	}
	return db, nil
}

// Queryer is the narrow capability every package here needs from a
// connection or transaction: plain queries plus statement execution.
// database/sql's *sql.DB and *sql.Tx both satisfy it, so the orchestrator
// can pass either without the lower layers caring which.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var _ Queryer = (*sql.DB)(nil)
var _ Queryer = (*sql.Tx)(nil)

// QuoteIdent double-quotes a PostgreSQL identifier, doubling any embedded
// quote characters per the standard escaping rule.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifiedTable returns table, quoted as a single identifier. Tables are
// always referenced unqualified, resolved through the connection's
// search_path; cross-schema references aren't supported.
func QualifiedTable(table string) string {
	return QuoteIdent(table)
}

// Placeholder returns the positional parameter placeholder lib/pq expects
// for the given 1-based position, e.g. Placeholder(1) == "$1".
func Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}
