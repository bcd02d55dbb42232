package master

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NormalizeValue is the canonical comparison form for labels and headers:
// trimmed and lowercased. Matching anywhere in the pipeline goes through
// this so that results stay deterministic.
func NormalizeValue(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// FieldDefinition describes one canonical field of a master type. The set is
// immutable at runtime; it is defined once in the catalog.
type FieldDefinition struct {
	Field    string   `json:"field"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Synonyms []string `json:"synonyms,omitempty"` // case-insensitive alternate header spellings
	// Default is substituted for blank cells at publish time. Blank-value
	// validation issues are warnings precisely because this substitution
	// is declared here, per field, instead of happening silently.
	Default string `json:"default,omitempty"`
	// Reference names the master type whose records this field points at.
	// Non-empty Reference makes this a conflict-checked field during import.
	Reference string `json:"reference,omitempty"`
}

// MasterType is one category of reference data imported and tracked
// independently. Dependencies gate import order: a type may not be imported
// until every dependency has Completed status.
type MasterType struct {
	Key          string            `json:"key"`
	Label        string            `json:"label"`
	IsMandatory  bool              `json:"is_mandatory"`
	Dependencies []string          `json:"dependencies,omitempty"`
	LabelField   string            `json:"label_field"` // field whose value becomes the record's display label
	Fields       []FieldDefinition `json:"fields"`
}

// ReferenceFields returns the fields carrying a Reference, in definition order.
func (m MasterType) ReferenceFields() []FieldDefinition {
	var refs []FieldDefinition
	for _, f := range m.Fields {
		if f.Reference != "" {
			refs = append(refs, f)
		}
	}
	return refs
}

// FieldByKey returns the definition for a canonical field key.
func (m MasterType) FieldByKey(key string) (FieldDefinition, bool) {
	for _, f := range m.Fields {
		if f.Field == key {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// RequiredFields returns the keys of all required fields, in definition order.
func (m MasterType) RequiredFields() []string {
	var keys []string
	for _, f := range m.Fields {
		if f.Required {
			keys = append(keys, f.Field)
		}
	}
	return keys
}

// State is the persisted per-master completion status. Status only moves
// through a successful publish.
type State struct {
	Master      string    `bson:"master" json:"master"`
	Status      Status    `bson:"status" json:"status"`
	RecordCount int       `bson:"record_count" json:"record_count"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// Record is one persisted master record.
type Record struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Master    string             `bson:"master" json:"master"`
	Label     string             `bson:"label" json:"label"`
	Fields    map[string]string  `bson:"fields" json:"fields"`
	CreatedBy string             `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// RecordOption is the {id, label} projection offered as a conflict
// resolution candidate.
type RecordOption struct {
	ID    string `bson:"id" json:"id"`
	Label string `bson:"label" json:"label"`
}

// Overview is the catalog entry returned to the UI: the static type
// definition joined with its current state.
type Overview struct {
	MasterType
	Status      Status `json:"status"`
	RecordCount int    `json:"record_count"`
	CanImport   bool   `json:"can_import"`
}

// GoLiveStatus reports whether every mandatory master has completed.
type GoLiveStatus struct {
	Ready   bool     `json:"ready"`
	Missing []string `json:"missing,omitempty"` // mandatory masters not yet completed
}
