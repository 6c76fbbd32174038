package community

import (
	"log"

	"github.com/dejo1307/modmap/internal/model"
)

// Options tunes a detection run.
type Options struct {
	// MaxPasses bounds the number of full passes over the nodes. Zero means
	// run until a pass makes no move.
	MaxPasses int
}

// Detect partitions g starting from singleton communities.
func Detect(g *Graph, opts Options) *model.CommunityResult {
	labels := make([]int, g.Len())
	for i := range labels {
		labels[i] = i
	}
	return run(g, labels, opts)
}

// DetectFrom partitions g starting from an existing labelling. Nodes that are
// missing from initial, or whose label is not a node of g, start alone.
func DetectFrom(g *Graph, initial map[string]string, opts Options) *model.CommunityResult {
	labels := make([]int, g.Len())
	for i, n := range g.nodes {
		labels[i] = i
		if l, ok := initial[n]; ok {
			if j, ok := g.index[l]; ok {
				labels[i] = j
			}
		}
	}
	return run(g, labels, opts)
}

// detector holds the mutable state of one run. Community labels are node
// indices; a label names the node that first gave the community its name.
type detector struct {
	g      *Graph
	labels []int
	tot    []int // sum of degrees per label
	m      float64
}

func run(g *Graph, labels []int, opts Options) *model.CommunityResult {
	d := &detector{
		g:      g,
		labels: labels,
		tot:    make([]int, g.Len()),
		m:      g.TotalEdges(),
	}
	for i, l := range labels {
		d.tot[l] += len(g.adj[i])
	}

	passes, moves := 0, 0
	converged := true
	if d.m > 0 {
		converged = false
		for opts.MaxPasses == 0 || passes < opts.MaxPasses {
			passes++
			moved := d.pass()
			moves += moved
			if moved == 0 {
				converged = true
				break
			}
		}
	}
	if !converged {
		log.Printf("[community] stopped after %d passes without converging", passes)
	}

	r := d.result()
	r.Passes = passes
	r.Moves = moves
	r.Converged = converged
	log.Printf("[community] %d nodes, %.1f edges, %d communities after %d passes (%d moves)",
		r.TotalNodes, r.TotalEdges, len(r.Order), passes, moves)
	return r
}

// gain estimates how much node i contributes when grouped with community c.
// The edge total m stays fixed for the whole run.
func (d *detector) gain(i, c, sumIn int) float64 {
	k := len(d.g.adj[i])
	return float64(sumIn)/(2*d.m) - float64(k*d.tot[c])/(4*d.m*d.m)
}

// pass visits every node once and moves it to the neighbouring community with
// the best strictly positive gain. Moves apply immediately.
func (d *detector) pass() int {
	moved := 0
	links := make(map[int]int)
	for i := range d.g.nodes {
		neighbours := d.g.adj[i]
		if len(neighbours) == 0 {
			continue
		}

		clear(links)
		for _, j := range neighbours {
			links[d.labels[j]]++
		}

		current := d.labels[i]
		best, bestGain := current, 0.0
		for _, j := range neighbours {
			c := d.labels[j]
			if gn := d.gain(i, c, links[c]); gn > bestGain {
				best, bestGain = c, gn
			}
		}

		if best != current {
			k := len(neighbours)
			d.tot[current] -= k
			d.tot[best] += k
			d.labels[i] = best
			moved++
		}
	}
	return moved
}

func (d *detector) result() *model.CommunityResult {
	g := d.g
	r := &model.CommunityResult{
		Graph:          g.Adjacency(),
		Communities:    make(map[string]string, g.Len()),
		Groups:         make(map[string][]string),
		Dependencies:   make(map[string]map[string]int),
		CommunityGraph: make(map[string][]string),
		TotalEdges:     d.m,
		TotalNodes:     g.Len(),
		Order:          []string{},
	}

	for i, n := range g.nodes {
		label := g.nodes[d.labels[i]]
		r.Communities[n] = label
		if _, ok := r.Groups[label]; !ok {
			r.Order = append(r.Order, label)
		}
		r.Groups[label] = append(r.Groups[label], n)
	}

	for _, a := range r.Order {
		r.Dependencies[a] = make(map[string]int, len(r.Order))
		for _, b := range r.Order {
			r.Dependencies[a][b] = 0
		}
	}
	for i := range g.nodes {
		from := g.nodes[d.labels[i]]
		for _, j := range g.adj[i] {
			if to := g.nodes[d.labels[j]]; to != from {
				r.Dependencies[from][to]++
			}
		}
	}
	for _, a := range r.Order {
		targets := []string{}
		for _, b := range r.Order {
			if a != b && r.Dependencies[a][b] > 0 {
				targets = append(targets, b)
			}
		}
		r.CommunityGraph[a] = targets
	}

	r.Modularity = d.modularity()
	return r
}

// modularity returns Q = sum over communities of L_c/m - (d_c/2m)^2, where
// L_c counts internal edges and d_c sums member degrees.
func (d *detector) modularity() float64 {
	if d.m == 0 {
		return 0
	}
	internal := make(map[int]int)
	for i, nb := range d.g.adj {
		for _, j := range nb {
			if d.labels[i] == d.labels[j] {
				internal[d.labels[i]]++
			}
		}
	}
	q := 0.0
	for c, deg := range d.tot {
		if deg == 0 {
			continue
		}
		frac := float64(deg) / (2 * d.m)
		q += float64(internal[c])/2/d.m - frac*frac
	}
	return q
}
