package import_feature

import (
	"fmt"
	"strings"
)

// ParseError wraps a spreadsheet parsing failure. The session is not
// created, nothing to clean up.
type ParseError struct {
	FileName string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.FileName, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MappingIncompleteError blocks advancing past column mapping while any
// required field has no mapped column. Missing is in field definition order.
type MappingIncompleteError struct {
	Missing []string
}

func (e *MappingIncompleteError) Error() string {
	return fmt.Sprintf("required fields have no mapped column: %s", strings.Join(e.Missing, ", "))
}

// DuplicateMappingError rejects two columns targeting the same field.
type DuplicateMappingError struct {
	Field  string
	Column string
}

func (e *DuplicateMappingError) Error() string {
	return fmt.Sprintf("field %s is already mapped to column %q", e.Field, e.Column)
}

// InvalidSelectionError rejects a MapExisting resolution whose selected id
// is not among the conflict's existing options.
type InvalidSelectionError struct {
	RowIndex   int
	Field      string
	SelectedID string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("row %d field %s: selected id %q is not an existing option", e.RowIndex, e.Field, e.SelectedID)
}

// SessionNotFoundError signals an unknown or already discarded session id.
type SessionNotFoundError struct {
	ID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("import session not found: %s", e.ID)
}

// ConflictNotFoundError signals a resolution aimed at a row/field pair
// that has no conflict.
type ConflictNotFoundError struct {
	RowIndex int
	Field    string
}

func (e *ConflictNotFoundError) Error() string {
	return fmt.Sprintf("no conflict recorded for row %d field %s", e.RowIndex, e.Field)
}

// ActiveSessionError enforces one active import session per master type.
type ActiveSessionError struct {
	Master    string
	SessionID string
}

func (e *ActiveSessionError) Error() string {
	return fmt.Sprintf("master %s already has an active import session (%s)", e.Master, e.SessionID)
}

// StageError rejects an operation not allowed in the session's stage.
type StageError struct {
	Stage Stage
	Op    string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("cannot %s while session is in stage %s", e.Op, e.Stage)
}

// UnresolvedConflictsError blocks advancing past conflict resolution.
type UnresolvedConflictsError struct {
	Remaining int
}

func (e *UnresolvedConflictsError) Error() string {
	return fmt.Sprintf("%d conflicts still unresolved", e.Remaining)
}
