package import_feature

import (
	"time"

	"go-erp/internal/features/master"
)

// Stage is the import pipeline state. Stages only move forward; any stage
// before a successful publish may be abandoned via cancel.
type Stage string

const (
	StageMapColumns       Stage = "map_columns"
	StageValidate         Stage = "validate"
	StageFixIssues        Stage = "fix_issues"
	StageResolveConflicts Stage = "resolve_conflicts"
	StageReview           Stage = "review"
	StageCompleted        Stage = "completed"
	StageFailed           Stage = "failed"
)

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ColumnMapping ties one uploaded column to a canonical field. An empty
// TargetField means the column is ignored.
type ColumnMapping struct {
	SourceColumn string `json:"source_column"`
	TargetField  string `json:"target_field,omitempty"`
	AutoMapped   bool   `json:"auto_mapped"`
}

type ValidationIssue struct {
	RowIndex int      `json:"row_index"`
	Column   string   `json:"column"`
	Value    string   `json:"value"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

type ResolutionAction string

const (
	ResolutionUnset       ResolutionAction = ""
	ResolutionMapExisting ResolutionAction = "map_existing"
	ResolutionCreateNew   ResolutionAction = "create_new"
	ResolutionSkip        ResolutionAction = "skip"
)

// ConflictItem records one incoming reference value that matched no
// existing record. Created by detection, mutated only by user resolution,
// read-only at publish.
type ConflictItem struct {
	RowIndex           int                   `json:"row_index"`
	Field              string                `json:"field"`
	IncomingValue      string                `json:"incoming_value"`
	ExistingOptions    []master.RecordOption `json:"existing_options"`
	SuggestedMatchID   string                `json:"suggested_match_id,omitempty"`
	Resolution         ResolutionAction      `json:"resolution,omitempty"`
	SelectedExistingID string                `json:"selected_existing_id,omitempty"`
}

// ReviewSummary is shown at the final checkpoint before publish.
type ReviewSummary struct {
	RowCount        int `json:"row_count"`
	IssueCount      int `json:"issue_count"`
	ConflictCount   int `json:"conflict_count"`
	SkippedRowCount int `json:"skipped_row_count"`
}

// ImportSession ties one upload attempt to its master type and the state
// accumulated across pipeline stages. It lives in memory only; the durable
// outcome of a session is the master state plus the audit entry.
type ImportSession struct {
	ID        string              `json:"id"`
	Master    string              `json:"master"`
	Stage     Stage               `json:"stage"`
	FileName  string              `json:"file_name"`
	Headers   []string            `json:"headers"`
	Rows      []map[string]string `json:"rows"`
	Mappings  []ColumnMapping     `json:"mappings"`
	Issues    []ValidationIssue   `json:"issues"`
	Conflicts []ConflictItem      `json:"conflicts"`
	LastError string              `json:"last_error,omitempty"`
	CreatedBy string              `json:"created_by"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// PublishResult is returned once the commit succeeded.
type PublishResult struct {
	SessionID    string `json:"session_id"`
	Master       string `json:"master"`
	Status       string `json:"status"` // success | partial
	SuccessCount int    `json:"success_count"`
	SkippedCount int    `json:"skipped_count"`
	CreatedRefs  int    `json:"created_refs"`
	RecordCount  int    `json:"record_count"` // master total after commit
}

// MappingFor returns the mapping whose source column is col.
func (s *ImportSession) MappingFor(col string) *ColumnMapping {
	for i := range s.Mappings {
		if s.Mappings[i].SourceColumn == col {
			return &s.Mappings[i]
		}
	}
	return nil
}

// ColumnFor returns the source column mapped to a canonical field, or "".
func (s *ImportSession) ColumnFor(field string) string {
	for _, m := range s.Mappings {
		if m.TargetField == field {
			return m.SourceColumn
		}
	}
	return ""
}

// CellValue reads the cell of row idx backing a canonical field, going
// through the column mapping rather than assuming header names.
func (s *ImportSession) CellValue(rowIdx int, field string) string {
	col := s.ColumnFor(field)
	if col == "" {
		return ""
	}
	return s.Rows[rowIdx][col]
}
