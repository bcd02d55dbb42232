package import_feature

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"go-erp/internal/config"
	"go-erp/internal/features/audit"
	"go-erp/internal/features/master"

	"go.uber.org/zap"
)

// fakeMasterRepo keeps states and existing records in memory and records
// every BulkApply input so tests can assert on the commit set.
type fakeMasterRepo struct {
	states   map[string]master.State
	existing map[string][]master.RecordOption
	bulkErr  error
	applied  []master.BulkApplyInput
}

func newFakeMasterRepo() *fakeMasterRepo {
	return &fakeMasterRepo{
		states:   make(map[string]master.State),
		existing: make(map[string][]master.RecordOption),
	}
}

func (f *fakeMasterRepo) complete(keys ...string) {
	for _, k := range keys {
		f.states[k] = master.State{Master: k, Status: master.StatusCompleted, RecordCount: 1}
	}
}

func (f *fakeMasterRepo) ListExisting(_ context.Context, masterKey string) ([]master.RecordOption, error) {
	return f.existing[masterKey], nil
}

func (f *fakeMasterRepo) States(_ context.Context) (map[string]master.State, error) {
	out := make(map[string]master.State, len(f.states))
	for k, v := range f.states {
		out[k] = v
	}
	return out, nil
}

func (f *fakeMasterRepo) CountRecords(_ context.Context, masterKey string) (int64, error) {
	return int64(f.states[masterKey].RecordCount), nil
}

func (f *fakeMasterRepo) SetRecordCount(_ context.Context, masterKey string, count int64) error {
	s := f.states[masterKey]
	s.RecordCount = int(count)
	f.states[masterKey] = s
	return nil
}

func (f *fakeMasterRepo) BulkApply(_ context.Context, input master.BulkApplyInput) (master.BulkApplyResult, error) {
	if f.bulkErr != nil {
		return master.BulkApplyResult{}, f.bulkErr
	}
	f.applied = append(f.applied, input)
	next := master.ApplyCompletion(f.states[input.Master], input.Master, len(input.Records), time.Now())
	f.states[input.Master] = next
	return master.BulkApplyResult{
		Inserted:    len(input.Records),
		CreatedRefs: len(input.Creates),
		State:       next,
	}, nil
}

func (f *fakeMasterRepo) EnsureIndexes(_ context.Context) error { return nil }

// fakeParser ignores the file content and returns canned rows.
type fakeParser struct {
	headers []string
	rows    []map[string]string
	err     error
}

func (p *fakeParser) Parse(string, io.Reader) ([]string, []map[string]string, error) {
	if p.err != nil {
		return nil, nil, p.err
	}
	return p.headers, p.rows, nil
}

func newTestService(t *testing.T, repo *fakeMasterRepo, parser Parser) ImportService {
	t.Helper()
	registry, err := master.NewDefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{MaxUploadRows: 1000, PublishTimeout: 5}
	return NewImportService(registry, repo, parser, NewSessionStore(), NewEventHub(), cfg, zap.NewNop())
}

func upload(t *testing.T, svc ImportService, masterKey string) ImportSession {
	t.Helper()
	session, err := svc.StartImport(context.Background(), masterKey, "upload.csv", strings.NewReader(""), "tester")
	if err != nil {
		t.Fatal(err)
	}
	return session
}

func advance(t *testing.T, svc ImportService, id string) ImportSession {
	t.Helper()
	session, err := svc.Advance(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return session
}

func TestStartImportBlockedByDependencies(t *testing.T) {
	repo := newFakeMasterRepo()
	svc := newTestService(t, repo, &fakeParser{})

	_, err := svc.StartImport(context.Background(), "fabric", "fabric.csv", strings.NewReader(""), "tester")
	var blocked *master.DependencyBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected DependencyBlockedError, got %v", err)
	}
	want := []string{"uom", "shade", "category"}
	if len(blocked.Missing) != len(want) {
		t.Fatalf("missing = %v, want %v", blocked.Missing, want)
	}
	for i := range want {
		if blocked.Missing[i] != want[i] {
			t.Fatalf("missing = %v, want %v", blocked.Missing, want)
		}
	}
}

func TestStartImportUnknownMaster(t *testing.T) {
	svc := newTestService(t, newFakeMasterRepo(), &fakeParser{})

	_, err := svc.StartImport(context.Background(), "ghost", "x.csv", strings.NewReader(""), "tester")
	var notFound *master.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestOneActiveSessionPerMaster(t *testing.T) {
	parser := &fakeParser{headers: []string{"UOM Name"}, rows: []map[string]string{{"UOM Name": "Kg"}}}
	svc := newTestService(t, newFakeMasterRepo(), parser)

	first := upload(t, svc, "uom")

	_, err := svc.StartImport(context.Background(), "uom", "again.csv", strings.NewReader(""), "tester")
	var active *ActiveSessionError
	if !errors.As(err, &active) {
		t.Fatalf("expected ActiveSessionError, got %v", err)
	}
	if active.SessionID != first.ID {
		t.Errorf("error names session %s, want %s", active.SessionID, first.ID)
	}

	// Cancelling frees the master.
	if err := svc.Cancel(first.ID); err != nil {
		t.Fatal(err)
	}
	upload(t, svc, "uom")
}

func TestPipelineHappyPathWithoutConflicts(t *testing.T) {
	parser := &fakeParser{
		headers: []string{"UOM Name", "Symbol"},
		rows: []map[string]string{
			{"UOM Name": "Kilogram", "Symbol": "Kg"},
			{"UOM Name": "Meter", "Symbol": "m"},
			{"UOM Name": "Piece", "Symbol": "pc"},
		},
	}
	repo := newFakeMasterRepo()
	svc := newTestService(t, repo, parser)

	session := upload(t, svc, "uom")
	if session.Stage != StageMapColumns {
		t.Fatalf("stage = %s, want map_columns", session.Stage)
	}

	session = advance(t, svc, session.ID)
	if session.Stage != StageValidate {
		t.Fatalf("stage = %s, want validate", session.Stage)
	}
	if len(session.Issues) != 0 {
		t.Fatalf("unexpected issues: %v", session.Issues)
	}

	session = advance(t, svc, session.ID)
	if session.Stage != StageFixIssues {
		t.Fatalf("stage = %s, want fix_issues", session.Stage)
	}

	// No reference fields conflict, so the conflict stage is bypassed.
	session = advance(t, svc, session.ID)
	if session.Stage != StageReview {
		t.Fatalf("stage = %s, want review", session.Stage)
	}

	result, err := svc.Publish(context.Background(), session.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if result.SuccessCount != 3 || result.SkippedCount != 0 {
		t.Errorf("result = %+v, want 3 success, 0 skipped", result)
	}
	if result.RecordCount != 3 {
		t.Errorf("master record count = %d, want 3", result.RecordCount)
	}
	if result.Status != string(audit.StatusSuccess) {
		t.Errorf("status = %s, want success", result.Status)
	}

	if len(repo.applied) != 1 {
		t.Fatalf("BulkApply called %d times, want 1", len(repo.applied))
	}
	input := repo.applied[0]
	if len(input.Records) != 3 {
		t.Errorf("committed %d records, want 3", len(input.Records))
	}
	if input.Records[0].Label != "Kilogram" {
		t.Errorf("record label = %q, want Kilogram", input.Records[0].Label)
	}
	if input.Audit.Action != audit.ActionPublish || input.Audit.RecordCount != 3 {
		t.Errorf("audit entry = %+v", input.Audit)
	}
	if input.Audit.Actor != "tester" {
		t.Errorf("audit actor = %q, want tester", input.Audit.Actor)
	}
	if repo.states["uom"].Status != master.StatusCompleted {
		t.Errorf("uom status = %s, want completed", repo.states["uom"].Status)
	}

	// The session is gone after a successful publish.
	if _, err := svc.GetSession(session.ID); err == nil {
		t.Error("session should be discarded after publish")
	}
}

func TestAdvanceBlockedOnMissingRequiredMappings(t *testing.T) {
	parser := &fakeParser{
		headers: []string{"Code", "Type", "GSM", "UOM"},
		rows:    []map[string]string{{"Code": "FAB-1", "Type": "Knit", "GSM": "180", "UOM": "Kg"}},
	}
	repo := newFakeMasterRepo()
	repo.complete("uom", "shade", "category")
	svc := newTestService(t, repo, parser)

	session := upload(t, svc, "fabric")

	_, err := svc.Advance(context.Background(), session.ID)
	var incomplete *MappingIncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected MappingIncompleteError, got %v", err)
	}
	want := []string{"construction", "composition", "widthM"}
	if len(incomplete.Missing) != len(want) {
		t.Fatalf("missing = %v, want %v", incomplete.Missing, want)
	}
	for i := range want {
		if incomplete.Missing[i] != want[i] {
			t.Fatalf("missing = %v, want %v", incomplete.Missing, want)
		}
	}
}

func TestSetMappingRules(t *testing.T) {
	parser := &fakeParser{
		headers: []string{"UOM Name", "Symbol", "Extra"},
		rows:    []map[string]string{{"UOM Name": "Kg"}},
	}
	svc := newTestService(t, newFakeMasterRepo(), parser)

	session := upload(t, svc, "uom")

	// Two columns must not target the same field.
	_, err := svc.SetMapping(session.ID, "Extra", "name")
	var dup *DuplicateMappingError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateMappingError, got %v", err)
	}

	// A manual override clears the auto-mapped flag.
	session, err = svc.SetMapping(session.ID, "Extra", "status")
	if err != nil {
		t.Fatal(err)
	}
	m := session.MappingFor("Extra")
	if m.TargetField != "status" || m.AutoMapped {
		t.Errorf("mapping = %+v, want manual status mapping", m)
	}

	// Mappings freeze once the session leaves the mapping stage.
	advance(t, svc, session.ID)
	_, err = svc.SetMapping(session.ID, "Extra", "")
	var stage *StageError
	if !errors.As(err, &stage) {
		t.Fatalf("expected StageError, got %v", err)
	}
}

func fabricParser() *fakeParser {
	return &fakeParser{
		headers: []string{"Type", "Construction", "Composition", "GSM", "Width", "UOM", "Supplier"},
		rows: []map[string]string{
			{"Type": "Knit", "Construction": "Single Jersey", "Composition": "100% Cotton", "GSM": "180", "Width": "1.8", "UOM": "Kg", "Supplier": "Fabric Mils Ltd"},
			{"Type": "Woven", "Construction": "Twill", "Composition": "98% Cotton 2% Elastane", "GSM": "240", "Width": "1.5", "UOM": "Kg", "Supplier": "Acme Textiles"},
		},
	}
}

func fabricRepo() *fakeMasterRepo {
	repo := newFakeMasterRepo()
	repo.complete("uom", "shade", "category")
	repo.existing["supplier"] = []master.RecordOption{
		{ID: "s1", Label: "Acme Textiles"},
		{ID: "s2", Label: "Fabric Mills Ltd"},
	}
	return repo
}

func TestConflictResolutionFlow(t *testing.T) {
	repo := fabricRepo()
	svc := newTestService(t, repo, fabricParser())

	session := upload(t, svc, "fabric")
	advance(t, svc, session.ID) // -> validate
	advance(t, svc, session.ID) // -> fix_issues

	session = advance(t, svc, session.ID)
	if session.Stage != StageResolveConflicts {
		t.Fatalf("stage = %s, want resolve_conflicts", session.Stage)
	}
	if len(session.Conflicts) != 1 {
		t.Fatalf("got %d conflicts, want 1: %v", len(session.Conflicts), session.Conflicts)
	}
	if session.Conflicts[0].SuggestedMatchID != "s2" {
		t.Errorf("suggested match = %q, want s2", session.Conflicts[0].SuggestedMatchID)
	}

	// Cannot leave the stage with unresolved conflicts.
	_, err := svc.Advance(context.Background(), session.ID)
	var unresolved *UnresolvedConflictsError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedConflictsError, got %v", err)
	}

	// MapExisting with an id outside the options is rejected.
	_, err = svc.ResolveConflict(session.ID, 0, "supplier", ResolutionMapExisting, "bogus")
	var invalid *InvalidSelectionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidSelectionError, got %v", err)
	}

	if _, err := svc.ResolveConflict(session.ID, 0, "supplier", ResolutionMapExisting, "s2"); err != nil {
		t.Fatal(err)
	}

	session = advance(t, svc, session.ID)
	if session.Stage != StageReview {
		t.Fatalf("stage = %s, want review", session.Stage)
	}

	result, err := svc.Publish(context.Background(), session.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if result.SuccessCount != 2 || result.SkippedCount != 0 {
		t.Errorf("result = %+v, want 2 success, 0 skipped", result)
	}

	input := repo.applied[0]
	if got := input.Records[0].Fields["supplier"]; got != "s2" {
		t.Errorf("resolved cell = %q, want the selected id s2", got)
	}
	if got := input.Records[1].Fields["supplier"]; got != "Acme Textiles" {
		t.Errorf("matching cell = %q, want untouched label", got)
	}
}

func TestPublishSkippedRowsMakePartial(t *testing.T) {
	repo := fabricRepo()
	svc := newTestService(t, repo, fabricParser())

	session := upload(t, svc, "fabric")
	advance(t, svc, session.ID)
	advance(t, svc, session.ID)
	advance(t, svc, session.ID) // -> resolve_conflicts

	// The row's only conflict is skipped, so the whole row drops out.
	if _, err := svc.ResolveConflict(session.ID, 0, "supplier", ResolutionSkip, ""); err != nil {
		t.Fatal(err)
	}
	advance(t, svc, session.ID) // -> review

	summary, err := svc.Review(session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if summary.RowCount != 2 || summary.SkippedRowCount != 1 {
		t.Errorf("summary = %+v, want 2 rows, 1 skipped", summary)
	}

	result, err := svc.Publish(context.Background(), session.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != string(audit.StatusPartial) {
		t.Errorf("status = %s, want partial", result.Status)
	}
	if result.SuccessCount != 1 || result.SkippedCount != 1 {
		t.Errorf("result = %+v, want 1 success, 1 skipped", result)
	}

	input := repo.applied[0]
	if len(input.Records) != 1 {
		t.Fatalf("committed %d records, want 1", len(input.Records))
	}
	if input.Audit.Status != audit.StatusPartial || input.Audit.SkippedCount != 1 {
		t.Errorf("audit entry = %+v", input.Audit)
	}
}

func TestPublishCreateNewDedupes(t *testing.T) {
	parser := fabricParser()
	parser.rows[0]["Supplier"] = "Newco Mills"
	parser.rows[1]["Supplier"] = "NEWCO MILLS" // same supplier, different case
	repo := fabricRepo()
	svc := newTestService(t, repo, parser)

	session := upload(t, svc, "fabric")
	advance(t, svc, session.ID)
	advance(t, svc, session.ID)
	session = advance(t, svc, session.ID)
	if len(session.Conflicts) != 2 {
		t.Fatalf("got %d conflicts, want 2", len(session.Conflicts))
	}

	for _, c := range session.Conflicts {
		if _, err := svc.ResolveConflict(session.ID, c.RowIndex, c.Field, ResolutionCreateNew, ""); err != nil {
			t.Fatal(err)
		}
	}
	advance(t, svc, session.ID)

	if _, err := svc.Publish(context.Background(), session.ID, "tester"); err != nil {
		t.Fatal(err)
	}

	input := repo.applied[0]
	if len(input.Creates) != 1 {
		t.Fatalf("got %d referenced creates, want 1 after dedup: %v", len(input.Creates), input.Creates)
	}
	if input.Creates[0].Master != "supplier" || input.Creates[0].Label != "Newco Mills" {
		t.Errorf("create = %+v", input.Creates[0])
	}
	if len(input.Records) != 2 {
		t.Errorf("committed %d records, want 2", len(input.Records))
	}
}

func TestPublishFailureKeepsSessionForRetry(t *testing.T) {
	parser := &fakeParser{
		headers: []string{"UOM Name"},
		rows:    []map[string]string{{"UOM Name": "Kg"}},
	}
	repo := newFakeMasterRepo()
	repo.bulkErr = &master.StoreError{Op: "bulk_apply", Err: errors.New("connection reset")}
	svc := newTestService(t, repo, parser)

	session := upload(t, svc, "uom")
	advance(t, svc, session.ID)
	advance(t, svc, session.ID)
	advance(t, svc, session.ID)

	_, err := svc.Publish(context.Background(), session.ID, "tester")
	var storeErr *master.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError, got %v", err)
	}

	// Nothing committed, no audit entry, no state change.
	if len(repo.applied) != 0 {
		t.Fatal("failed publish must not record a commit")
	}
	if repo.states["uom"].Status == master.StatusCompleted {
		t.Fatal("failed publish must not complete the master")
	}

	// The session survives in failed state and publish can be retried.
	session, err = svc.GetSession(session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if session.Stage != StageFailed {
		t.Errorf("stage = %s, want failed", session.Stage)
	}
	if session.LastError == "" {
		t.Error("failed session should carry the error message")
	}

	repo.bulkErr = nil
	result, err := svc.Publish(context.Background(), session.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if result.SuccessCount != 1 {
		t.Errorf("retry result = %+v, want 1 success", result)
	}
}

func TestBlankCellGetsDeclaredDefault(t *testing.T) {
	parser := &fakeParser{
		headers: []string{"UOM Name", "Status"},
		rows:    []map[string]string{{"UOM Name": "Kg", "Status": ""}},
	}
	repo := newFakeMasterRepo()
	svc := newTestService(t, repo, parser)

	session := upload(t, svc, "uom")
	advance(t, svc, session.ID)
	advance(t, svc, session.ID)
	advance(t, svc, session.ID)

	if _, err := svc.Publish(context.Background(), session.ID, "tester"); err != nil {
		t.Fatal(err)
	}

	input := repo.applied[0]
	if got := input.Records[0].Fields["status"]; got != "Active" {
		t.Errorf("status cell = %q, want the declared default Active", got)
	}
}

func TestCancelDiscardsWithoutSideEffects(t *testing.T) {
	parser := &fakeParser{headers: []string{"UOM Name"}, rows: []map[string]string{{"UOM Name": "Kg"}}}
	repo := newFakeMasterRepo()
	svc := newTestService(t, repo, parser)

	session := upload(t, svc, "uom")
	advance(t, svc, session.ID)

	if err := svc.Cancel(session.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetSession(session.ID); err == nil {
		t.Fatal("cancelled session should be gone")
	}
	if len(repo.applied) != 0 {
		t.Error("cancel must not touch the store")
	}

	var missing *SessionNotFoundError
	if err := svc.Cancel(session.ID); !errors.As(err, &missing) {
		t.Errorf("expected SessionNotFoundError, got %v", err)
	}
}
