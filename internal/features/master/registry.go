package master

import "fmt"

// Registry is the process-wide, read-only catalog of master types. Built
// once at startup; construction fails fast on unknown or cyclic
// dependencies.
type Registry struct {
	ordered []MasterType
	byKey   map[string]MasterType
}

func NewRegistry(types []MasterType) (*Registry, error) {
	r := &Registry{
		ordered: make([]MasterType, 0, len(types)),
		byKey:   make(map[string]MasterType, len(types)),
	}

	for _, t := range types {
		if _, exists := r.byKey[t.Key]; exists {
			return nil, fmt.Errorf("master type registered twice: %s", t.Key)
		}
		r.byKey[t.Key] = t
		r.ordered = append(r.ordered, t)
	}

	for _, t := range types {
		for _, dep := range t.Dependencies {
			if _, ok := r.byKey[dep]; !ok {
				return nil, fmt.Errorf("master %s depends on unknown master %s", t.Key, dep)
			}
		}
	}

	if cycle := r.findCycle(); cycle != nil {
		return nil, &CyclicDependencyError{Cycle: cycle}
	}

	return r, nil
}

// Get returns the definition for a master type key.
func (r *Registry) Get(key string) (MasterType, error) {
	t, ok := r.byKey[key]
	if !ok {
		return MasterType{}, &NotFoundError{Master: key}
	}
	return t, nil
}

// All returns the catalog in registration order.
func (r *Registry) All() []MasterType {
	out := make([]MasterType, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// findCycle runs a colored DFS over the dependency edges and returns the
// first cycle found, or nil.
func (r *Registry) findCycle() []string {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current path
		black = 2 // done
	)
	color := make(map[string]int, len(r.ordered))
	var path []string

	var visit func(key string) []string
	visit = func(key string) []string {
		color[key] = gray
		path = append(path, key)

		for _, dep := range r.byKey[key].Dependencies {
			switch color[dep] {
			case gray:
				// Close the loop for the error message
				start := 0
				for i, k := range path {
					if k == dep {
						start = i
						break
					}
				}
				return append(append([]string{}, path[start:]...), dep)
			case white:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}

		color[key] = black
		path = path[:len(path)-1]
		return nil
	}

	for _, t := range r.ordered {
		if color[t.Key] == white {
			if cycle := visit(t.Key); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
