package master

import (
	"context"

	"go.uber.org/zap"
)

type MasterService interface {
	Catalog(ctx context.Context) ([]Overview, error)
	Definition(masterKey string) (MasterType, error)
	MissingDependencies(ctx context.Context, masterKey string) ([]string, error)
	GoLive(ctx context.Context) (GoLiveStatus, error)
	ListExisting(ctx context.Context, masterKey string) ([]RecordOption, error)
	GenerateTemplate(masterKey string) ([]byte, error)
	Recount(ctx context.Context) error
}

type MasterServiceImpl struct {
	Registry *Registry
	Graph    *DependencyGraph
	Repo     MasterRepository
	Logger   *zap.Logger
}

func NewMasterService(registry *Registry, repo MasterRepository, logger *zap.Logger) MasterService {
	return &MasterServiceImpl{
		Registry: registry,
		Graph:    NewDependencyGraph(registry),
		Repo:     repo,
		Logger:   logger,
	}
}

func (s *MasterServiceImpl) Catalog(ctx context.Context) ([]Overview, error) {
	states, err := s.Repo.States(ctx)
	if err != nil {
		return nil, err
	}

	types := s.Registry.All()
	out := make([]Overview, 0, len(types))
	for _, t := range types {
		state := states[t.Key]
		canImport, _ := s.Graph.CanImport(t.Key, states)
		status := state.Status
		if status == "" {
			status = StatusNotStarted
		}
		out = append(out, Overview{
			MasterType:  t,
			Status:      status,
			RecordCount: state.RecordCount,
			CanImport:   canImport,
		})
	}
	return out, nil
}

func (s *MasterServiceImpl) Definition(masterKey string) (MasterType, error) {
	return s.Registry.Get(masterKey)
}

// MissingDependencies returns the not-yet-completed dependencies of a
// master, the gate checked before an import session may start.
func (s *MasterServiceImpl) MissingDependencies(ctx context.Context, masterKey string) ([]string, error) {
	states, err := s.Repo.States(ctx)
	if err != nil {
		return nil, err
	}
	return s.Graph.MissingDependencies(masterKey, states)
}

func (s *MasterServiceImpl) GoLive(ctx context.Context) (GoLiveStatus, error) {
	states, err := s.Repo.States(ctx)
	if err != nil {
		return GoLiveStatus{}, err
	}
	return s.Graph.CanGoLive(states), nil
}

func (s *MasterServiceImpl) ListExisting(ctx context.Context, masterKey string) ([]RecordOption, error) {
	if _, err := s.Registry.Get(masterKey); err != nil {
		return nil, err
	}
	return s.Repo.ListExisting(ctx, masterKey)
}

// Recount reconciles persisted record counts with the actual collection
// contents. Counts can drift when records are touched outside the import
// pipeline (manual fixes, migrations).
func (s *MasterServiceImpl) Recount(ctx context.Context) error {
	for _, t := range s.Registry.All() {
		actual, err := s.Repo.CountRecords(ctx, t.Key)
		if err != nil {
			return err
		}
		states, err := s.Repo.States(ctx)
		if err != nil {
			return err
		}
		if int64(states[t.Key].RecordCount) != actual {
			s.Logger.Warn("record count drift detected",
				zap.String("master", t.Key),
				zap.Int("recorded", states[t.Key].RecordCount),
				zap.Int64("actual", actual),
			)
			if err := s.Repo.SetRecordCount(ctx, t.Key, actual); err != nil {
				return err
			}
		}
	}
	return nil
}
