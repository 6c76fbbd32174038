package cycles

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dejo1307/modmap/internal/model"
)

// CycleExplainer detects cyclic dependencies between directories using
// Tarjan's SCC algorithm.
type CycleExplainer struct{}

// New creates a new CycleExplainer.
func New() *CycleExplainer {
	return &CycleExplainer{}
}

func (e *CycleExplainer) Name() string {
	return "cycles"
}

// Explain builds the directory dependency graph from relations and reports
// every strongly connected component with more than one directory.
func (e *CycleExplainer) Explain(ctx context.Context, snap *model.Snapshot) ([]model.Insight, error) {
	graph := buildDependencyGraph(snap.Analysis)

	var insights []model.Insight
	for _, scc := range tarjanSCC(graph) {
		if len(scc) <= 1 {
			continue
		}
		sort.Strings(scc)

		cyclePath := strings.Join(scc, " -> ") + " -> " + scc[0]
		evidence := make([]model.Evidence, 0, len(scc))
		for _, dir := range scc {
			evidence = append(evidence, model.Evidence{
				Directory: dir,
				Detail:    detail(snap.Communities, dir),
			})
		}

		insights = append(insights, model.Insight{
			Title:       fmt.Sprintf("Cyclic dependency detected (%d directories)", len(scc)),
			Description: fmt.Sprintf("The following directories depend on each other in a cycle: %s. Namespaces in a cycle cannot be extracted or released independently.", cyclePath),
			Confidence:  1.0, // Deterministic
			Evidence:    evidence,
			Actions: []string{
				"Introduce an interface in one directory to break the cycle",
				"Move the shared classes to a separate namespace",
				"Consider merging the directories into one module",
			},
		})
	}

	return insights, nil
}

func detail(r *model.CommunityResult, dir string) string {
	if r != nil {
		if label, ok := r.Communities[dir]; ok {
			return fmt.Sprintf("directory %q (community #%d) is part of the cycle", dir, r.Index(label))
		}
	}
	return fmt.Sprintf("directory %q is part of the cycle", dir)
}

// buildDependencyGraph keeps relations whose target is itself an analyzed
// directory.
func buildDependencyGraph(a model.Analysis) map[string][]string {
	graph := make(map[string][]string, len(a))
	for key, rec := range a {
		graph[key] = nil
		for _, target := range rec.Relations {
			if _, ok := a[target]; ok && target != key {
				graph[key] = append(graph[key], target)
			}
		}
	}
	return graph
}

// tarjanSCC implements Tarjan's strongly connected components algorithm.
// Roots are visited in sorted order so the output is stable.
func tarjanSCC(graph map[string][]string) [][]string {
	var (
		index    int
		stack    []string
		onStack  = make(map[string]bool)
		indices  = make(map[string]int)
		lowlinks = make(map[string]int)
		sccs     [][]string
	)

	var strongConnect func(v string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlinks[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlinks[v] = min(lowlinks[v], lowlinks[w])
			} else if onStack[w] {
				lowlinks[v] = min(lowlinks[v], indices[w])
			}
		}

		// Root of an SCC
		if lowlinks[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for v := range graph {
		nodes = append(nodes, v)
	}
	sort.Strings(nodes)

	for _, v := range nodes {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}

	return sccs
}
