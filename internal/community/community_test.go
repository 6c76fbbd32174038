package community

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejo1307/modmap/internal/model"
)

func analysisOf(relations map[string][]string) model.Analysis {
	a := model.Analysis{}
	for key, targets := range relations {
		rec := model.NewDirectoryRecord()
		for _, t := range targets {
			rec.AddRelation(t)
		}
		a[key] = rec
	}
	return a
}

// Edges A-B, A-C, B-D and E-F.
func twoClusters() model.Analysis {
	return analysisOf(map[string][]string{
		"A": {"B", "C"},
		"B": {"D"},
		"C": nil,
		"D": nil,
		"E": {"F"},
		"F": nil,
	})
}

func TestBuildGraph_Symmetric(t *testing.T) {
	g := BuildGraph(analysisOf(map[string][]string{
		"a": {"b", "c", model.RootKey},
		"b": {"c"},
		"c": {"a"},
		"d": {"x"},
	}))

	assert.Equal(t, []string{"a", "b", "c", "d", "x"}, g.Nodes())
	for _, n := range g.Nodes() {
		for _, nb := range g.Neighbors(n) {
			assert.True(t, g.HasEdge(nb, n), "%s-%s not symmetric", nb, n)
			assert.NotEqual(t, n, nb)
		}
	}
	assert.False(t, g.HasEdge("a", model.RootKey))
	assert.Equal(t, []string{"b", "c"}, g.Neighbors("a"))
	assert.Equal(t, []string{"a", "b"}, g.Neighbors("c"))
}

func TestGraph_TotalEdges(t *testing.T) {
	g := BuildGraph(analysisOf(map[string][]string{
		"a": {"b", "c"},
		"b": {"c"},
		"c": {"a"},
		"d": {"x"},
	}))

	// a-b, a-c, b-c, d-x
	assert.Equal(t, 4.0, g.TotalEdges())

	sum := 0
	for _, n := range g.Nodes() {
		sum += g.Degree(n)
	}
	assert.Equal(t, float64(sum)/2, g.TotalEdges())

	odd := NewGraph()
	odd.AddEdge("p", "q")
	assert.Equal(t, 1.0, odd.TotalEdges())
}

func TestDetect_TwoClusters(t *testing.T) {
	g := BuildGraph(twoClusters())
	r := Detect(g, Options{})

	require.True(t, r.Converged)
	require.Len(t, r.Order, 2)

	var big, small string
	for _, label := range r.Order {
		if len(r.Groups[label]) == 4 {
			big = label
		} else {
			small = label
		}
	}
	require.NotEmpty(t, big)
	require.NotEmpty(t, small)
	assert.ElementsMatch(t, []string{"A", "B", "C", "D"}, r.Groups[big])
	assert.ElementsMatch(t, []string{"E", "F"}, r.Groups[small])

	for _, from := range r.Order {
		for to, count := range r.Dependencies[from] {
			assert.Zero(t, count, "%s -> %s", from, to)
		}
		assert.Empty(t, r.CommunityGraph[from])
	}

	assert.Equal(t, 4.0, r.TotalEdges)
	assert.Equal(t, 6, r.TotalNodes)
	assert.Equal(t, 3, r.Passes)
	assert.Equal(t, 5, r.Moves)
	assert.Greater(t, r.Modularity, 0.0)
}

func TestDetect_FixedPoint(t *testing.T) {
	g := BuildGraph(twoClusters())
	first := Detect(g, Options{})
	require.True(t, first.Converged)

	again := DetectFrom(g, first.Communities, Options{})
	assert.Equal(t, 0, again.Moves)
	assert.Equal(t, 1, again.Passes)
	assert.True(t, again.Converged)
	assert.Equal(t, first.Communities, again.Communities)
	assert.InDelta(t, first.Modularity, again.Modularity, 1e-12)
}

func TestDetect_MaxPasses(t *testing.T) {
	g := BuildGraph(twoClusters())
	r := Detect(g, Options{MaxPasses: 1})
	assert.False(t, r.Converged)
	assert.Equal(t, 1, r.Passes)
	assert.Equal(t, 3, r.Moves)
}

func TestDetect_TriangleNeedsBound(t *testing.T) {
	// A lone triangle alternates between two labellings forever.
	g := BuildGraph(analysisOf(map[string][]string{
		"a": {"b", "c"},
		"b": {"c"},
		"c": nil,
	}))

	r := Detect(g, Options{MaxPasses: 10})
	assert.False(t, r.Converged)
	assert.Equal(t, 10, r.Passes)
	assert.Equal(t, 30, r.Moves)
}

func TestDetect_TallyAndCommunityGraph(t *testing.T) {
	// Two triangles joined by c-d.
	g := BuildGraph(analysisOf(map[string][]string{
		"a": {"b", "c"},
		"b": {"c"},
		"c": {"d"},
		"d": {"e", "f"},
		"e": {"f"},
		"f": nil,
	}))
	r := Detect(g, Options{MaxPasses: 20})

	crossing := 0
	for _, n := range g.Nodes() {
		for _, nb := range g.Neighbors(n) {
			if r.Communities[n] != r.Communities[nb] {
				crossing++
			}
		}
	}

	total := 0
	for _, a := range r.Order {
		require.Len(t, r.Dependencies[a], len(r.Order))
		assert.Zero(t, r.Dependencies[a][a])
		for _, b := range r.Order {
			total += r.Dependencies[a][b]
			assert.Equal(t, r.Dependencies[a][b], r.Dependencies[b][a])
			assert.Equal(t, r.Dependencies[a][b] > 0, contains(r.CommunityGraph[a], b))
		}
	}
	assert.Equal(t, crossing, total)

	members := 0
	for _, label := range r.Order {
		members += len(r.Groups[label])
	}
	assert.Equal(t, g.Len(), members)
}

func TestDetect_EmptyAndIsolated(t *testing.T) {
	r := Detect(BuildGraph(model.Analysis{}), Options{})
	assert.Equal(t, 0, r.TotalNodes)
	assert.Equal(t, 0.0, r.TotalEdges)
	assert.Empty(t, r.Order)
	assert.True(t, r.Converged)

	r = Detect(BuildGraph(analysisOf(map[string][]string{"a": nil, "b": nil})), Options{})
	assert.Equal(t, []string{"a", "b"}, r.Order)
	assert.Equal(t, map[string]string{"a": "a", "b": "b"}, r.Communities)
	assert.Equal(t, 0, r.Passes)
	assert.Equal(t, 0.0, r.Modularity)
	assert.Equal(t, []string{}, r.Graph["a"])
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
