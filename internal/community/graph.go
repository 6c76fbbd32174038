// Package community partitions the directory dependency graph into
// communities with a greedy, modularity-driven local search.
package community

import (
	"github.com/dejo1307/modmap/internal/model"
)

// Graph is an undirected simple graph over directory keys. Nodes keep their
// insertion order and adjacency lists keep edge insertion order, so every
// traversal is deterministic.
type Graph struct {
	nodes []string
	index map[string]int
	adj   [][]int
	edges map[[2]int]struct{}
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		index: make(map[string]int),
		edges: make(map[[2]int]struct{}),
	}
}

// BuildGraph turns analysis relations into a symmetric graph. Nodes are the
// analysis keys in sorted order followed by relation targets that have no
// record, in discovery order.
func BuildGraph(a model.Analysis) *Graph {
	g := NewGraph()
	keys := a.Keys()
	for _, key := range keys {
		g.AddNode(key)
	}
	for _, key := range keys {
		for _, target := range a[key].Relations {
			g.AddEdge(key, target)
		}
	}
	return g
}

// AddNode adds n if it is not present and returns its index.
func (g *Graph) AddNode(n string) int {
	if i, ok := g.index[n]; ok {
		return i
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.index[n] = i
	g.adj = append(g.adj, nil)
	return i
}

// AddEdge adds the undirected edge a-b. Self loops, duplicates and edges
// touching the root or empty key are ignored.
func (g *Graph) AddEdge(a, b string) {
	if a == b || skipKey(a) || skipKey(b) {
		return
	}
	i, j := g.AddNode(a), g.AddNode(b)
	if _, ok := g.edges[[2]int{i, j}]; ok {
		return
	}
	g.edges[[2]int{i, j}] = struct{}{}
	g.edges[[2]int{j, i}] = struct{}{}
	g.adj[i] = append(g.adj[i], j)
	g.adj[j] = append(g.adj[j], i)
}

func skipKey(k string) bool {
	return k == "" || k == model.RootKey
}

// Nodes returns the node keys in iteration order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// HasEdge reports whether a and b are adjacent.
func (g *Graph) HasEdge(a, b string) bool {
	i, ok := g.index[a]
	if !ok {
		return false
	}
	j, ok := g.index[b]
	if !ok {
		return false
	}
	_, ok = g.edges[[2]int{i, j}]
	return ok
}

// Neighbors returns the neighbours of n in insertion order.
func (g *Graph) Neighbors(n string) []string {
	i, ok := g.index[n]
	if !ok {
		return nil
	}
	out := make([]string, len(g.adj[i]))
	for k, j := range g.adj[i] {
		out[k] = g.nodes[j]
	}
	return out
}

// Degree returns the number of neighbours of n.
func (g *Graph) Degree(n string) int {
	i, ok := g.index[n]
	if !ok {
		return 0
	}
	return len(g.adj[i])
}

// TotalEdges returns half the sum of all adjacency list lengths.
func (g *Graph) TotalEdges() float64 {
	sum := 0
	for _, a := range g.adj {
		sum += len(a)
	}
	return float64(sum) / 2
}

// Adjacency returns the graph as a key -> neighbours map.
func (g *Graph) Adjacency() map[string][]string {
	out := make(map[string][]string, len(g.nodes))
	for _, n := range g.nodes {
		nb := g.Neighbors(n)
		if nb == nil {
			nb = []string{}
		}
		out[n] = nb
	}
	return out
}
