package import_feature

import (
	"go-erp/internal/features/master"
)

// DetectConflicts compares incoming reference-field values against the
// existing records of the referenced master. A non-blank value with no
// exact (normalized) label match becomes a ConflictItem carrying every
// existing option and a deterministic suggestion.
//
// options must hold the existing records per referenced master, sorted by
// label, as returned by the record store.
func DetectConflicts(t master.MasterType, rows []map[string]string, mappings []ColumnMapping, options map[string][]master.RecordOption) []ConflictItem {
	var conflicts []ConflictItem

	for _, field := range t.ReferenceFields() {
		col := ""
		for _, m := range mappings {
			if m.TargetField == field.Field {
				col = m.SourceColumn
				break
			}
		}
		if col == "" {
			continue
		}

		existing := options[field.Reference]
		labels := make(map[string]bool, len(existing))
		for _, opt := range existing {
			labels[master.NormalizeValue(opt.Label)] = true
		}

		for i, row := range rows {
			value := row[col]
			normalized := master.NormalizeValue(value)
			if normalized == "" || labels[normalized] {
				continue
			}
			conflicts = append(conflicts, ConflictItem{
				RowIndex:         i,
				Field:            field.Field,
				IncomingValue:    value,
				ExistingOptions:  existing,
				SuggestedMatchID: suggestMatch(value, existing),
			})
		}
	}

	return conflicts
}

// suggestMatch picks the best existing candidate for an unmatched value:
// normalized equality first, otherwise the longest common prefix of the
// normalized strings. Ties keep the first option in store order, so the
// suggestion is stable across runs for the same input.
func suggestMatch(value string, options []master.RecordOption) string {
	normalized := master.NormalizeValue(value)
	if normalized == "" {
		return ""
	}

	bestID := ""
	bestLen := 0
	for _, opt := range options {
		candidate := master.NormalizeValue(opt.Label)
		if candidate == normalized {
			return opt.ID
		}
		if l := commonPrefixLen(normalized, candidate); l > bestLen {
			bestLen = l
			bestID = opt.ID
		}
	}
	return bestID
}

func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// Resolve records a user decision for the conflict at (rowIndex, field).
// Resolutions stay mutable until publish; setting one again overwrites.
func (s *ImportSession) Resolve(rowIndex int, field string, action ResolutionAction, selectedID string) error {
	for i := range s.Conflicts {
		c := &s.Conflicts[i]
		if c.RowIndex != rowIndex || c.Field != field {
			continue
		}

		if action == ResolutionMapExisting {
			valid := false
			for _, opt := range c.ExistingOptions {
				if opt.ID == selectedID {
					valid = true
					break
				}
			}
			if !valid {
				return &InvalidSelectionError{RowIndex: rowIndex, Field: field, SelectedID: selectedID}
			}
			c.SelectedExistingID = selectedID
		} else {
			c.SelectedExistingID = ""
		}

		c.Resolution = action
		return nil
	}

	return &ConflictNotFoundError{RowIndex: rowIndex, Field: field}
}

// AllResolved reports whether every conflict has a resolution.
func (s *ImportSession) AllResolved() bool {
	for _, c := range s.Conflicts {
		if c.Resolution == ResolutionUnset {
			return false
		}
	}
	return true
}

// UnresolvedCount returns how many conflicts still lack a resolution.
func (s *ImportSession) UnresolvedCount() int {
	n := 0
	for _, c := range s.Conflicts {
		if c.Resolution == ResolutionUnset {
			n++
		}
	}
	return n
}
