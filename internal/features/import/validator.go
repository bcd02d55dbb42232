package import_feature

import (
	"fmt"
	"strings"

	"go-erp/internal/features/master"
)

// MissingRequiredFields returns the required fields of the master type that
// no mapping targets, in definition order. Checked at the mapping stage;
// a non-empty result blocks advance.
func MissingRequiredFields(t master.MasterType, mappings []ColumnMapping) []string {
	mapped := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		if m.TargetField != "" {
			mapped[m.TargetField] = true
		}
	}

	var missing []string
	for _, key := range t.RequiredFields() {
		if !mapped[key] {
			missing = append(missing, key)
		}
	}
	return missing
}

// ValidateRows emits one warning per blank required cell. Warnings do not
// block: blank values are recoverable, either through the field's declared
// default at publish or by a later manual fix.
func ValidateRows(t master.MasterType, rows []map[string]string, mappings []ColumnMapping) []ValidationIssue {
	var issues []ValidationIssue

	for _, m := range mappings {
		if m.TargetField == "" {
			continue
		}
		field, ok := t.FieldByKey(m.TargetField)
		if !ok || !field.Required {
			continue
		}

		for i, row := range rows {
			value := row[m.SourceColumn]
			if strings.TrimSpace(value) != "" {
				continue
			}
			msg := fmt.Sprintf("required field %q is blank", field.Label)
			if field.Default != "" {
				msg = fmt.Sprintf("required field %q is blank; %q will be used", field.Label, field.Default)
			}
			issues = append(issues, ValidationIssue{
				RowIndex: i,
				Column:   m.SourceColumn,
				Value:    value,
				Message:  msg,
				Severity: SeverityWarning,
			})
		}
	}

	return issues
}
