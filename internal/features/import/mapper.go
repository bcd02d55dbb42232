package import_feature

import (
	"strings"

	"go-erp/internal/features/master"
)

// AutoMap proposes one ColumnMapping per uploaded header. Pure and
// deterministic: identical headers and schema always give identical output.
//
// Match order per header, fields tried in definition order (first match
// wins, which is also the documented tie-break for ambiguous headers):
//  1. normalized label equality
//  2. label substring containment, either direction
//  3. synonym equality or substring containment, either direction
func AutoMap(headers []string, fields []master.FieldDefinition) []ColumnMapping {
	mappings := make([]ColumnMapping, 0, len(headers))
	taken := make(map[string]bool, len(fields))

	for _, header := range headers {
		normalized := master.NormalizeValue(header)

		target := ""
		for _, field := range fields {
			if taken[field.Field] {
				continue
			}
			if matchesField(normalized, field) {
				target = field.Field
				break
			}
		}

		if target != "" {
			taken[target] = true
		}
		mappings = append(mappings, ColumnMapping{
			SourceColumn: header,
			TargetField:  target,
			AutoMapped:   target != "",
		})
	}

	return mappings
}

func matchesField(normalizedHeader string, field master.FieldDefinition) bool {
	if normalizedHeader == "" {
		return false
	}

	label := master.NormalizeValue(field.Label)
	if normalizedHeader == label {
		return true
	}
	if contains(label, normalizedHeader) || contains(normalizedHeader, label) {
		return true
	}

	for _, syn := range field.Synonyms {
		s := master.NormalizeValue(syn)
		if normalizedHeader == s || contains(s, normalizedHeader) || contains(normalizedHeader, s) {
			return true
		}
	}
	return false
}

func contains(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(haystack, needle)
}
