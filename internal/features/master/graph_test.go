package master

import (
	"errors"
	"testing"
	"time"
)

func TestNewRegistryRejectsCycle(t *testing.T) {
	_, err := NewRegistry([]MasterType{
		{Key: "a", Dependencies: []string{"b"}},
		{Key: "b", Dependencies: []string{"c"}},
		{Key: "c", Dependencies: []string{"a"}},
	})
	if err == nil {
		t.Fatal("expected cycle error, got nil")
	}
	var cyclic *CyclicDependencyError
	if !errors.As(err, &cyclic) {
		t.Fatalf("expected CyclicDependencyError, got %T: %v", err, err)
	}
	if len(cyclic.Cycle) < 3 {
		t.Errorf("cycle too short: %v", cyclic.Cycle)
	}
}

func TestNewRegistryRejectsUnknownDependency(t *testing.T) {
	_, err := NewRegistry([]MasterType{
		{Key: "a", Dependencies: []string{"ghost"}},
	})
	if err == nil {
		t.Fatal("expected error for unknown dependency, got nil")
	}
}

func TestNewRegistryRejectsDuplicateKey(t *testing.T) {
	_, err := NewRegistry([]MasterType{
		{Key: "a"},
		{Key: "a"},
	})
	if err == nil {
		t.Fatal("expected error for duplicate key, got nil")
	}
}

func TestDefaultCatalogIsAcyclic(t *testing.T) {
	if _, err := NewDefaultRegistry(); err != nil {
		t.Fatalf("default catalog failed to build: %v", err)
	}
}

func TestMissingDependencies(t *testing.T) {
	registry, err := NewDefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}
	graph := NewDependencyGraph(registry)

	completed := func(keys ...string) map[string]State {
		states := make(map[string]State)
		for _, k := range keys {
			states[k] = State{Master: k, Status: StatusCompleted}
		}
		return states
	}

	tests := []struct {
		name   string
		key    string
		states map[string]State
		want   []string
	}{
		{
			name:   "no dependencies satisfied",
			key:    "fabric",
			states: map[string]State{},
			want:   []string{"uom", "shade", "category"},
		},
		{
			name:   "partially satisfied",
			key:    "fabric",
			states: completed("uom", "shade"),
			want:   []string{"category"},
		},
		{
			name:   "fully satisfied",
			key:    "fabric",
			states: completed("uom", "shade", "category"),
			want:   nil,
		},
		{
			name:   "in progress does not count",
			key:    "trim",
			states: map[string]State{"uom": {Status: StatusCompleted}, "category": {Status: StatusInProgress}},
			want:   []string{"category"},
		},
		{
			name:   "leaf master",
			key:    "uom",
			states: map[string]State{},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := graph.MissingDependencies(tt.key, tt.states)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("missing = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("missing = %v, want %v", got, tt.want)
				}
			}
		})
	}

	if _, err := graph.MissingDependencies("ghost", nil); err == nil {
		t.Error("expected error for unknown master")
	}
}

func TestCanGoLive(t *testing.T) {
	registry, err := NewDefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}
	graph := NewDependencyGraph(registry)

	states := make(map[string]State)
	for _, key := range []string{"uom", "shade", "category", "supplier", "fabric", "trim"} {
		states[key] = State{Master: key, Status: StatusCompleted}
	}

	status := graph.CanGoLive(states)
	if !status.Ready {
		t.Fatalf("expected ready, missing = %v", status.Missing)
	}

	// Optional masters never gate go-live.
	if _, ok := states["opening_stock"]; ok {
		t.Fatal("test setup should not complete optional masters")
	}

	delete(states, "trim")
	status = graph.CanGoLive(states)
	if status.Ready {
		t.Fatal("expected not ready with trim incomplete")
	}
	if len(status.Missing) != 1 || status.Missing[0] != "trim" {
		t.Errorf("missing = %v, want [trim]", status.Missing)
	}
}

func TestApplyCompletion(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		prev       State
		added      int
		wantStatus Status
		wantCount  int
	}{
		{
			name:       "first publish completes",
			prev:       State{},
			added:      5,
			wantStatus: StatusCompleted,
			wantCount:  5,
		},
		{
			name:       "repeat publish accumulates",
			prev:       State{Status: StatusCompleted, RecordCount: 5},
			added:      3,
			wantStatus: StatusCompleted,
			wantCount:  8,
		},
		{
			name:       "zero added keeps previous status",
			prev:       State{},
			added:      0,
			wantStatus: StatusNotStarted,
			wantCount:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := ApplyCompletion(tt.prev, "uom", tt.added, now)
			if next.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", next.Status, tt.wantStatus)
			}
			if next.RecordCount != tt.wantCount {
				t.Errorf("record count = %d, want %d", next.RecordCount, tt.wantCount)
			}
		})
	}
}
