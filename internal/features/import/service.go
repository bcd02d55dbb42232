package import_feature

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go-erp/internal/config"
	"go-erp/internal/features/audit"
	"go-erp/internal/features/master"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ImportService interface {
	StartImport(ctx context.Context, masterKey, filename string, file io.Reader, actor string) (ImportSession, error)
	GetSession(id string) (ImportSession, error)
	SetMapping(id, column, field string) (ImportSession, error)
	Advance(ctx context.Context, id string) (ImportSession, error)
	ResolveConflict(id string, rowIndex int, field string, action ResolutionAction, selectedID string) (ImportSession, error)
	Review(id string) (ReviewSummary, error)
	Publish(ctx context.Context, id, actor string) (*PublishResult, error)
	Cancel(id string) error
}

type ImportServiceImpl struct {
	Registry *master.Registry
	Graph    *master.DependencyGraph
	Repo     master.MasterRepository
	Parser   Parser
	Store    *SessionStore
	Events   *EventHub
	Config   *config.Config
	Logger   *zap.Logger
}

func NewImportService(
	registry *master.Registry,
	repo master.MasterRepository,
	parser Parser,
	store *SessionStore,
	events *EventHub,
	cfg *config.Config,
	logger *zap.Logger,
) ImportService {
	return &ImportServiceImpl{
		Registry: registry,
		Graph:    master.NewDependencyGraph(registry),
		Repo:     repo,
		Parser:   parser,
		Store:    store,
		Events:   events,
		Config:   cfg,
		Logger:   logger,
	}
}

// StartImport opens a session for one upload attempt. Entry is gated by the
// dependency graph; on success the file is parsed, columns are auto-mapped
// and the session lands in the mapping stage.
func (s *ImportServiceImpl) StartImport(ctx context.Context, masterKey, filename string, file io.Reader, actor string) (ImportSession, error) {
	t, err := s.Registry.Get(masterKey)
	if err != nil {
		return ImportSession{}, err
	}

	states, err := s.Repo.States(ctx)
	if err != nil {
		return ImportSession{}, err
	}
	missing, err := s.Graph.MissingDependencies(masterKey, states)
	if err != nil {
		return ImportSession{}, err
	}
	if len(missing) > 0 {
		return ImportSession{}, &master.DependencyBlockedError{Master: masterKey, Missing: missing}
	}

	headers, rows, err := s.Parser.Parse(filename, file)
	if err != nil {
		return ImportSession{}, err
	}
	if len(rows) > s.Config.MaxUploadRows {
		return ImportSession{}, fmt.Errorf("file has %d rows, limit is %d", len(rows), s.Config.MaxUploadRows)
	}

	now := time.Now()
	session := &ImportSession{
		ID:        uuid.NewString(),
		Master:    masterKey,
		Stage:     StageMapColumns,
		FileName:  filename,
		Headers:   headers,
		Rows:      rows,
		Mappings:  AutoMap(headers, t.Fields),
		CreatedBy: actor,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.Put(session); err != nil {
		return ImportSession{}, err
	}

	s.Logger.Info("import session started",
		zap.String("session_id", session.ID),
		zap.String("master", masterKey),
		zap.Int("rows", len(rows)),
	)
	s.publishStage(session)

	return s.Store.Snapshot(session.ID)
}

func (s *ImportServiceImpl) GetSession(id string) (ImportSession, error) {
	return s.Store.Snapshot(id)
}

// SetMapping applies a manual mapping override. Only legal during the
// mapping stage; a manual edit always clears the auto-mapped flag.
func (s *ImportServiceImpl) SetMapping(id, column, field string) (ImportSession, error) {
	err := s.Store.Mutate(id, func(session *ImportSession) error {
		if session.Stage != StageMapColumns {
			return &StageError{Stage: session.Stage, Op: "edit mappings"}
		}

		mapping := session.MappingFor(column)
		if mapping == nil {
			return fmt.Errorf("unknown column: %s", column)
		}

		t, err := s.Registry.Get(session.Master)
		if err != nil {
			return err
		}

		if field != "" {
			if _, ok := t.FieldByKey(field); !ok {
				return fmt.Errorf("unknown field %s for master %s", field, session.Master)
			}
			if col := session.ColumnFor(field); col != "" && col != column {
				return &DuplicateMappingError{Field: field, Column: col}
			}
		}

		mapping.TargetField = field
		mapping.AutoMapped = false
		session.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return ImportSession{}, err
	}
	return s.Store.Snapshot(id)
}

// Advance moves the session to its next stage. Each transition enforces the
// gate the leaving stage requires; stages never move backwards or skip
// ahead except for the documented conflict-stage bypass.
func (s *ImportServiceImpl) Advance(ctx context.Context, id string) (ImportSession, error) {
	var moved *ImportSession
	err := s.Store.Mutate(id, func(session *ImportSession) error {
		t, err := s.Registry.Get(session.Master)
		if err != nil {
			return err
		}

		switch session.Stage {
		case StageMapColumns:
			if missing := MissingRequiredFields(t, session.Mappings); len(missing) > 0 {
				return &MappingIncompleteError{Missing: missing}
			}
			session.Issues = ValidateRows(t, session.Rows, session.Mappings)
			session.Stage = StageValidate

		case StageValidate:
			// Warnings never block; fix_issues is a review-only checkpoint.
			session.Stage = StageFixIssues

		case StageFixIssues:
			options, err := s.referenceOptions(ctx, t, session.Mappings)
			if err != nil {
				return err
			}
			session.Conflicts = DetectConflicts(t, session.Rows, session.Mappings, options)
			if len(session.Conflicts) > 0 {
				session.Stage = StageResolveConflicts
			} else {
				session.Stage = StageReview
			}

		case StageResolveConflicts:
			if !session.AllResolved() {
				return &UnresolvedConflictsError{Remaining: session.UnresolvedCount()}
			}
			session.Stage = StageReview

		default:
			return &StageError{Stage: session.Stage, Op: "advance"}
		}

		session.UpdatedAt = time.Now()
		moved = session
		return nil
	})
	if err != nil {
		return ImportSession{}, err
	}

	s.publishStage(moved)
	return s.Store.Snapshot(id)
}

// referenceOptions loads the existing records for every mapped reference
// field of the master type. Only referenced masters actually present in the
// mapping are queried.
func (s *ImportServiceImpl) referenceOptions(ctx context.Context, t master.MasterType, mappings []ColumnMapping) (map[string][]master.RecordOption, error) {
	mapped := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		if m.TargetField != "" {
			mapped[m.TargetField] = true
		}
	}

	options := make(map[string][]master.RecordOption)
	for _, field := range t.ReferenceFields() {
		if !mapped[field.Field] {
			continue
		}
		if _, done := options[field.Reference]; done {
			continue
		}
		existing, err := s.Repo.ListExisting(ctx, field.Reference)
		if err != nil {
			return nil, err
		}
		options[field.Reference] = existing
	}
	return options, nil
}

func (s *ImportServiceImpl) ResolveConflict(id string, rowIndex int, field string, action ResolutionAction, selectedID string) (ImportSession, error) {
	switch action {
	case ResolutionMapExisting, ResolutionCreateNew, ResolutionSkip:
	default:
		return ImportSession{}, fmt.Errorf("unknown resolution action: %q", action)
	}

	err := s.Store.Mutate(id, func(session *ImportSession) error {
		if session.Stage != StageResolveConflicts {
			return &StageError{Stage: session.Stage, Op: "resolve conflicts"}
		}
		if err := session.Resolve(rowIndex, field, action, selectedID); err != nil {
			return err
		}
		session.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return ImportSession{}, err
	}
	return s.Store.Snapshot(id)
}

// Review summarizes what publish would commit right now.
func (s *ImportServiceImpl) Review(id string) (ReviewSummary, error) {
	session, err := s.Store.Snapshot(id)
	if err != nil {
		return ReviewSummary{}, err
	}
	t, err := s.Registry.Get(session.Master)
	if err != nil {
		return ReviewSummary{}, err
	}
	return ReviewSummary{
		RowCount:        len(session.Rows),
		IssueCount:      len(session.Issues),
		ConflictCount:   len(session.Conflicts),
		SkippedRowCount: len(SkippedRows(t, &session)),
	}, nil
}

// Publish commits the session: resolutions are applied, documented field
// defaults substituted, and the whole write set handed to the store as one
// transaction. A store failure moves the session to failed but keeps it
// available for retry; nothing is committed in that case.
func (s *ImportServiceImpl) Publish(ctx context.Context, id, actor string) (*PublishResult, error) {
	session, err := s.Store.Snapshot(id)
	if err != nil {
		return nil, err
	}
	if session.Stage != StageReview && session.Stage != StageFailed {
		return nil, &StageError{Stage: session.Stage, Op: "publish"}
	}

	t, err := s.Registry.Get(session.Master)
	if err != nil {
		return nil, err
	}

	input := buildCommitSet(t, &session, actor)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.Config.PublishTimeout)*time.Second)
	defer cancel()

	result, err := s.Repo.BulkApply(ctx, input)
	if err != nil {
		s.Logger.Error("publish failed",
			zap.String("session_id", session.ID),
			zap.String("master", session.Master),
			zap.Error(err),
		)
		s.Store.Mutate(id, func(live *ImportSession) error {
			live.Stage = StageFailed
			live.LastError = err.Error()
			live.UpdatedAt = time.Now()
			return nil
		})
		if live, snapErr := s.Store.Get(id); snapErr == nil {
			s.publishStage(live)
		}
		return nil, err
	}

	s.Logger.Info("import published",
		zap.String("session_id", session.ID),
		zap.String("master", session.Master),
		zap.String("status", string(input.Audit.Status)),
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", input.Audit.SkippedCount),
	)

	// The session's outcome now lives in the master state and the audit
	// log; the in-memory session is done.
	completed := session
	completed.Stage = StageCompleted
	s.publishStage(&completed)
	s.Store.Delete(id)
	s.Events.Close(id)

	return &PublishResult{
		SessionID:    session.ID,
		Master:       session.Master,
		Status:       string(input.Audit.Status),
		SuccessCount: result.Inserted,
		SkippedCount: input.Audit.SkippedCount,
		CreatedRefs:  result.CreatedRefs,
		RecordCount:  result.State.RecordCount,
	}, nil
}

// Cancel discards a session without side effects. Legal in any stage
// because no state outside the session mutates before publish.
func (s *ImportServiceImpl) Cancel(id string) error {
	if _, err := s.Store.Get(id); err != nil {
		return err
	}
	s.Store.Delete(id)
	s.Events.Close(id)
	s.Logger.Info("import session cancelled", zap.String("session_id", id))
	return nil
}

func (s *ImportServiceImpl) publishStage(session *ImportSession) {
	s.Events.Publish(StageEvent{
		SessionID: session.ID,
		Master:    session.Master,
		Stage:     session.Stage,
		Timestamp: session.UpdatedAt,
	})
}

// SkippedRows returns the indices excluded from the commit set: rows whose
// every conflict was resolved Skip, plus rows with a Skip on a required
// reference field.
func SkippedRows(t master.MasterType, session *ImportSession) map[int]bool {
	type tally struct {
		conflicts int
		skips     int
		reqSkip   bool
	}
	perRow := make(map[int]*tally)
	for _, c := range session.Conflicts {
		entry := perRow[c.RowIndex]
		if entry == nil {
			entry = &tally{}
			perRow[c.RowIndex] = entry
		}
		entry.conflicts++
		if c.Resolution == ResolutionSkip {
			entry.skips++
			if field, ok := t.FieldByKey(c.Field); ok && field.Required {
				entry.reqSkip = true
			}
		}
	}

	skipped := make(map[int]bool)
	for row, entry := range perRow {
		if entry.reqSkip || (entry.skips > 0 && entry.skips == entry.conflicts) {
			skipped[row] = true
		}
	}
	return skipped
}

// buildCommitSet translates the reviewed session into the atomic input for
// the store: resolutions applied per cell, defaults substituted for blank
// cells that declare one.
func buildCommitSet(t master.MasterType, session *ImportSession, actor string) master.BulkApplyInput {
	skipped := SkippedRows(t, session)

	resolutions := make(map[int]map[string]*ConflictItem)
	for i := range session.Conflicts {
		c := &session.Conflicts[i]
		if resolutions[c.RowIndex] == nil {
			resolutions[c.RowIndex] = make(map[string]*ConflictItem)
		}
		resolutions[c.RowIndex][c.Field] = c
	}

	refFields := make(map[string]string)
	for _, f := range t.ReferenceFields() {
		refFields[f.Field] = f.Reference
	}

	var creates []master.ReferencedCreate
	seenCreate := make(map[string]bool)
	var records []master.Record

	for i := range session.Rows {
		if skipped[i] {
			continue
		}

		fields := make(map[string]string)
		for _, m := range session.Mappings {
			if m.TargetField == "" {
				continue
			}
			value := strings.TrimSpace(session.Rows[i][m.SourceColumn])

			def, _ := t.FieldByKey(m.TargetField)
			if value == "" && def.Default != "" {
				value = def.Default
			}

			if c, ok := resolutions[i][m.TargetField]; ok {
				switch c.Resolution {
				case ResolutionMapExisting:
					value = c.SelectedExistingID
				case ResolutionCreateNew:
					key := def.Reference + "\x00" + master.NormalizeValue(c.IncomingValue)
					if !seenCreate[key] {
						seenCreate[key] = true
						creates = append(creates, master.ReferencedCreate{
							Master: def.Reference,
							Label:  strings.TrimSpace(c.IncomingValue),
						})
					}
				case ResolutionSkip:
					// Skip on an optional reference drops the value but
					// keeps the row.
					value = ""
				}
			}

			fields[m.TargetField] = value
		}

		records = append(records, master.Record{
			Master: session.Master,
			Label:  fields[t.LabelField],
			Fields: fields,
		})
	}

	skippedCount := len(skipped)
	status := audit.StatusSuccess
	if skippedCount > 0 {
		status = audit.StatusPartial
	}

	return master.BulkApplyInput{
		Master:    session.Master,
		Actor:     actor,
		RefFields: refFields,
		Creates:   creates,
		Records:   records,
		Audit: audit.ImportAuditLog{
			Timestamp:    time.Now(),
			Actor:        actor,
			Action:       audit.ActionPublish,
			Master:       session.Master,
			RecordCount:  len(session.Rows),
			Status:       status,
			SuccessCount: len(records),
			SkippedCount: skippedCount,
		},
	}
}
