package cycles

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/dejo1307/modmap/internal/model"
)

// --- helpers ---

func makeSnapshot(dirs []string, deps map[string][]string) *model.Snapshot {
	a := model.Analysis{}
	for _, d := range dirs {
		a[d] = model.NewDirectoryRecord()
	}
	for src, targets := range deps {
		for _, tgt := range targets {
			a[src].AddRelation(tgt)
		}
	}
	return &model.Snapshot{Analysis: a}
}

// --- Tarjan's SCC tests ---

func TestTarjanSCC_KnownGraphs(t *testing.T) {
	tests := []struct {
		name           string
		graph          map[string][]string
		wantCycleSizes []int // sorted sizes of non-trivial SCCs
	}{
		{
			name:  "empty graph",
			graph: map[string][]string{},
		},
		{
			name:  "single node no edges",
			graph: map[string][]string{"A": nil},
		},
		{
			name:           "simple cycle A<->B",
			graph:          map[string][]string{"A": {"B"}, "B": {"A"}},
			wantCycleSizes: []int{2},
		},
		{
			name:           "triangle A->B->C->A",
			graph:          map[string][]string{"A": {"B"}, "B": {"C"}, "C": {"A"}},
			wantCycleSizes: []int{3},
		},
		{
			name: "two disjoint cycles",
			graph: map[string][]string{
				"A": {"B"}, "B": {"A"},
				"C": {"D"}, "D": {"C"},
			},
			wantCycleSizes: []int{2, 2},
		},
		{
			name:  "chain no cycle A->B->C",
			graph: map[string][]string{"A": {"B"}, "B": {"C"}, "C": nil},
		},
		{
			name: "cycle with tail",
			graph: map[string][]string{
				"A": {"B"}, "B": {"C"}, "C": {"A", "D"}, "D": nil,
			},
			wantCycleSizes: []int{3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSizes []int
			for _, scc := range tarjanSCC(tt.graph) {
				if len(scc) > 1 {
					gotSizes = append(gotSizes, len(scc))
				}
			}
			sort.Ints(gotSizes)
			if len(gotSizes) != len(tt.wantCycleSizes) {
				t.Fatalf("cycle sizes: got %v, want %v", gotSizes, tt.wantCycleSizes)
			}
			for i := range gotSizes {
				if gotSizes[i] != tt.wantCycleSizes[i] {
					t.Errorf("cycle sizes[%d]: got %d, want %d", i, gotSizes[i], tt.wantCycleSizes[i])
				}
			}
		})
	}
}

func TestTarjanSCC_SelfLoop(t *testing.T) {
	graph := map[string][]string{"A": {"A"}}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 {
			t.Errorf("self-loop should not produce SCC > 1, got %v", scc)
		}
	}
}

// --- buildDependencyGraph tests ---

func TestBuildDependencyGraph(t *testing.T) {
	snap := makeSnapshot(
		[]string{"src/a", "src/b", "src/c"},
		map[string][]string{
			"src/a": {"src/b", "vendor/psr/log"},
			"src/b": {"src/c"},
		},
	)

	graph := buildDependencyGraph(snap.Analysis)

	// vendor/psr/log has no record, so it is not a graph node
	if edges := graph["src/a"]; len(edges) != 1 || edges[0] != "src/b" {
		t.Errorf("src/a edges = %v, want [src/b]", edges)
	}
	if edges := graph["src/b"]; len(edges) != 1 || edges[0] != "src/c" {
		t.Errorf("src/b edges = %v, want [src/c]", edges)
	}
	if _, ok := graph["src/c"]; !ok {
		t.Error("src/c missing from graph")
	}
}

// --- Integration tests for Explain ---

func TestExplain_NoCycles(t *testing.T) {
	snap := makeSnapshot(
		[]string{"src/a", "src/b", "src/c"},
		map[string][]string{
			"src/a": {"src/b"},
			"src/b": {"src/c"},
		},
	)

	insights, err := New().Explain(context.Background(), snap)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if len(insights) != 0 {
		t.Errorf("expected 0 insights for acyclic graph, got %d: %+v", len(insights), insights)
	}
}

func TestExplain_WithCycle(t *testing.T) {
	snap := makeSnapshot(
		[]string{"src/a", "src/b", "src/c"},
		map[string][]string{
			"src/a": {"src/b"},
			"src/b": {"src/c"},
			"src/c": {"src/a"},
		},
	)
	snap.Communities = &model.CommunityResult{
		Communities: map[string]string{"src/a": "src/a", "src/b": "src/a", "src/c": "src/a"},
		Order:       []string{"src/a"},
	}

	insights, err := New().Explain(context.Background(), snap)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if len(insights) != 1 {
		t.Fatalf("expected 1 cycle insight, got %d", len(insights))
	}

	insight := insights[0]
	if insight.Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0", insight.Confidence)
	}
	if !strings.Contains(insight.Description, "src/a -> src/b -> src/c -> src/a") {
		t.Errorf("description = %q", insight.Description)
	}
	if len(insight.Evidence) != 3 {
		t.Fatalf("evidence count = %d, want 3 (one per directory in cycle)", len(insight.Evidence))
	}
	for i, want := range []string{"src/a", "src/b", "src/c"} {
		if insight.Evidence[i].Directory != want {
			t.Errorf("evidence[%d] = %q, want %q", i, insight.Evidence[i].Directory, want)
		}
		if !strings.Contains(insight.Evidence[i].Detail, "community #1") {
			t.Errorf("evidence[%d] detail = %q, want community number", i, insight.Evidence[i].Detail)
		}
	}
}

func TestExplain_MultipleCycles(t *testing.T) {
	snap := makeSnapshot(
		[]string{"src/a", "src/b", "src/c", "src/d"},
		map[string][]string{
			"src/a": {"src/b"},
			"src/b": {"src/a"},
			"src/c": {"src/d"},
			"src/d": {"src/c"},
		},
	)

	insights, err := New().Explain(context.Background(), snap)
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if len(insights) != 2 {
		t.Errorf("expected 2 cycle insights for 2 disjoint cycles, got %d", len(insights))
	}
}
