package master

import "time"

// DependencyGraph answers ordering questions over the static catalog plus
// the current per-master states. The shape never changes at runtime; only
// the states do.
type DependencyGraph struct {
	registry *Registry
}

func NewDependencyGraph(registry *Registry) *DependencyGraph {
	return &DependencyGraph{registry: registry}
}

// MissingDependencies returns the dependencies of key that have not
// completed, in catalog order. Empty result means the import may start.
func (g *DependencyGraph) MissingDependencies(key string, states map[string]State) ([]string, error) {
	t, err := g.registry.Get(key)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, dep := range t.Dependencies {
		if states[dep].Status != StatusCompleted {
			missing = append(missing, dep)
		}
	}
	return missing, nil
}

// CanImport reports whether every dependency of key is completed.
func (g *DependencyGraph) CanImport(key string, states map[string]State) (bool, error) {
	missing, err := g.MissingDependencies(key, states)
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

// CanGoLive reports readiness for live use: every mandatory master completed.
func (g *DependencyGraph) CanGoLive(states map[string]State) GoLiveStatus {
	var missing []string
	for _, t := range g.registry.All() {
		if t.IsMandatory && states[t.Key].Status != StatusCompleted {
			missing = append(missing, t.Key)
		}
	}
	return GoLiveStatus{Ready: len(missing) == 0, Missing: missing}
}

// ApplyCompletion returns the state after a successful publish of added
// records. Any publish with at least one record completes the master; an
// already completed master stays completed and accumulates the count.
func ApplyCompletion(prev State, key string, added int, now time.Time) State {
	next := State{
		Master:      key,
		Status:      prev.Status,
		RecordCount: prev.RecordCount + added,
		UpdatedAt:   now,
	}
	if next.Status == "" {
		next.Status = StatusNotStarted
	}
	if added >= 1 {
		next.Status = StatusCompleted
	}
	return next
}
