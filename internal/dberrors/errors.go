// Package dberrors defines the error taxonomy shared by every core package.
//
// Each kind is a distinct, wrappable type so callers can use errors.As to
// branch on what went wrong instead of matching error strings. The
// orchestrator is the only layer that performs recovery (transaction
// rollback); everywhere else just returns one of these, wrapped with
// fmt.Errorf("...: %w", err) the way lockplane's introspector does.
package dberrors

import "fmt"

// ExtractFailed wraps a driver error encountered while reading schema metadata.
type ExtractFailed struct {
	Table string // may be empty when the failure isn't table-specific
	Err   error
}

func (e *ExtractFailed) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("extract schema: %v", e.Err)
	}
	return fmt.Sprintf("extract schema for table %q: %v", e.Table, e.Err)
}

func (e *ExtractFailed) Unwrap() error { return e.Err }

// CyclicOwnership is raised by the ownership-tree builder when no acyclic
// dominant-edge assignment exists for a child table.
type CyclicOwnership struct {
	Table string
}

func (e *CyclicOwnership) Error() string {
	return fmt.Sprintf("cyclic ownership: no acyclic dominant parent could be chosen for table %q", e.Table)
}

// TruncatedInput is raised when a PartialMarker is found where a complete
// dataset is required (flattening, or any sync/reset entry point).
type TruncatedInput struct {
	Table string
}

func (e *TruncatedInput) Error() string {
	return fmt.Sprintf("input for table %q is truncated ($partial marker present); re-dump without a limit", e.Table)
}

// UnknownTable describes a nested/flat document key that names a table the
// schema doesn't know about. The file loaders skip such keys instead of
// returning this error.
type UnknownTable struct {
	Table string
}

func (e *UnknownTable) Error() string {
	return fmt.Sprintf("unknown table %q", e.Table)
}

// UnresolvedRef is raised when a RefMarker's primary key cannot be found
// either in the in-progress flat dataset or on the live database (see
// spec.md §9's open question; resolved here per its recommendation).
type UnresolvedRef struct {
	Table string
	PK    map[string]any
}

func (e *UnresolvedRef) Error() string {
	return fmt.Sprintf("$ref into table %q (pk %v) does not resolve to an existing row", e.Table, e.PK)
}

// MissingBase is raised by three-way Preview/Sync when the edited file
// references a base snapshot that doesn't exist on disk.
type MissingBase struct {
	Path string
}

func (e *MissingBase) Error() string {
	return fmt.Sprintf("base snapshot %q not found; use reset for a two-way apply, or dump again to create one", e.Path)
}

// DriverError wraps a database/sql error encountered during fetch or apply.
type DriverError struct {
	Op  string
	Err error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }

// ParseError is raised by the file loader when a user-facing file isn't
// well-formed JSON, or doesn't match either the flat or nested layout.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
