package import_feature

import (
	"errors"
	"testing"

	"go-erp/internal/features/master"
)

func supplierOptions() []master.RecordOption {
	// Store order: sorted by label, as ListExisting returns them.
	return []master.RecordOption{
		{ID: "s1", Label: "Acme Textiles"},
		{ID: "s2", Label: "Fabric Mills Ltd"},
	}
}

func TestDetectConflicts(t *testing.T) {
	fabric := fabricType(t)
	mappings := []ColumnMapping{
		{SourceColumn: "Supplier", TargetField: "supplier"},
	}
	options := map[string][]master.RecordOption{
		"supplier": supplierOptions(),
	}
	rows := []map[string]string{
		{"Supplier": "Fabric Mils Ltd"},  // misspelled, conflicts
		{"Supplier": "fabric mills ltd"}, // normalized match, no conflict
		{"Supplier": ""},                 // blank, no conflict
		{"Supplier": "Acme Textiles"},    // exact match
	}

	conflicts := DetectConflicts(fabric, rows, mappings, options)

	if len(conflicts) != 1 {
		t.Fatalf("got %d conflicts, want 1: %v", len(conflicts), conflicts)
	}
	c := conflicts[0]
	if c.RowIndex != 0 || c.Field != "supplier" {
		t.Errorf("conflict at row %d field %s, want row 0 field supplier", c.RowIndex, c.Field)
	}
	if c.IncomingValue != "Fabric Mils Ltd" {
		t.Errorf("incoming value = %q", c.IncomingValue)
	}
	if c.SuggestedMatchID != "s2" {
		t.Errorf("suggested match = %q, want s2", c.SuggestedMatchID)
	}
	if len(c.ExistingOptions) != 2 {
		t.Errorf("conflict should carry all existing options, got %d", len(c.ExistingOptions))
	}
}

func TestDetectConflictsUnmappedReferenceIgnored(t *testing.T) {
	fabric := fabricType(t)
	rows := []map[string]string{{"Supplier": "Nobody"}}

	// supplier has no mapped column, so its values are never inspected.
	conflicts := DetectConflicts(fabric, rows, []ColumnMapping{{SourceColumn: "Supplier"}}, map[string][]master.RecordOption{
		"supplier": supplierOptions(),
	})
	if len(conflicts) != 0 {
		t.Fatalf("got %d conflicts, want none", len(conflicts))
	}
}

func TestSuggestMatchPrefixTieKeepsFirstOption(t *testing.T) {
	options := []master.RecordOption{
		{ID: "a", Label: "Alpha One"},
		{ID: "b", Label: "Alpha Two"},
	}

	// "alpha x" shares the prefix "alpha " with both; the first option in
	// store order wins so the suggestion is stable.
	if got := suggestMatch("Alpha X", options); got != "a" {
		t.Errorf("suggestion = %q, want a", got)
	}
}

func TestSuggestMatchNoOverlap(t *testing.T) {
	if got := suggestMatch("Zed", supplierOptions()); got != "" {
		t.Errorf("suggestion = %q, want none", got)
	}
}

func TestResolve(t *testing.T) {
	session := &ImportSession{
		Conflicts: []ConflictItem{
			{RowIndex: 0, Field: "supplier", IncomingValue: "Fabric Mils Ltd", ExistingOptions: supplierOptions()},
			{RowIndex: 3, Field: "shade", IncomingValue: "Off White"},
		},
	}

	if session.AllResolved() {
		t.Fatal("fresh conflicts must not count as resolved")
	}
	if n := session.UnresolvedCount(); n != 2 {
		t.Fatalf("unresolved = %d, want 2", n)
	}

	// MapExisting validates the selected id against the options.
	err := session.Resolve(0, "supplier", ResolutionMapExisting, "bogus")
	var invalid *InvalidSelectionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidSelectionError, got %v", err)
	}

	if err := session.Resolve(0, "supplier", ResolutionMapExisting, "s2"); err != nil {
		t.Fatal(err)
	}
	if session.Conflicts[0].SelectedExistingID != "s2" {
		t.Errorf("selected id = %q, want s2", session.Conflicts[0].SelectedExistingID)
	}

	// Resolutions stay mutable until publish.
	if err := session.Resolve(0, "supplier", ResolutionCreateNew, ""); err != nil {
		t.Fatal(err)
	}
	if session.Conflicts[0].Resolution != ResolutionCreateNew {
		t.Errorf("resolution = %q, want create_new", session.Conflicts[0].Resolution)
	}
	if session.Conflicts[0].SelectedExistingID != "" {
		t.Error("switching away from map_existing must clear the selected id")
	}

	if err := session.Resolve(3, "shade", ResolutionSkip, ""); err != nil {
		t.Fatal(err)
	}
	if !session.AllResolved() {
		t.Error("all conflicts carry a resolution now")
	}

	// Unknown row/field pair.
	err = session.Resolve(9, "supplier", ResolutionSkip, "")
	var missing *ConflictNotFoundError
	if !errors.As(err, &missing) {
		t.Fatalf("expected ConflictNotFoundError, got %v", err)
	}
}
