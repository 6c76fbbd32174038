package model

import (
	"sort"
)

// RootKey is the directory key of the analysis root.
const RootKey = "/"

// Metrics holds coupling and size metrics for a directory.
type Metrics struct {
	EfferentCoupling int     `json:"efferent_coupling"` // distinct directories this one depends on
	AfferentCoupling int     `json:"afferent_coupling"` // distinct directories depending on this one
	Instability      float64 `json:"instability"`       // Ce / (Ce + Ca), 0 when both are 0
	LOCTotal         int     `json:"loc_total"`
	CCNTotal         int     `json:"ccn_total"`
}

// DirectoryRecord aggregates everything known about one directory.
type DirectoryRecord struct {
	Classes    int      `json:"classes"`
	Interfaces int      `json:"interfaces"`
	Abstracts  int      `json:"abstracts"`
	Total      int      `json:"total"`
	FileCount  int      `json:"file_count"`
	Relations  []string `json:"relations"` // sorted, distinct target directory keys
	Metrics    Metrics  `json:"metrics"`
}

// NewDirectoryRecord returns an empty record.
func NewDirectoryRecord() *DirectoryRecord {
	return &DirectoryRecord{Relations: []string{}}
}

// AddRelation records a dependency on dir. It reports whether dir was new.
func (d *DirectoryRecord) AddRelation(dir string) bool {
	i := sort.SearchStrings(d.Relations, dir)
	if i < len(d.Relations) && d.Relations[i] == dir {
		return false
	}
	d.Relations = append(d.Relations, "")
	copy(d.Relations[i+1:], d.Relations[i:])
	d.Relations[i] = dir
	return true
}

// HasRelation reports whether the record depends on dir.
func (d *DirectoryRecord) HasRelation(dir string) bool {
	i := sort.SearchStrings(d.Relations, dir)
	return i < len(d.Relations) && d.Relations[i] == dir
}

// Analysis maps directory keys to their records.
type Analysis map[string]*DirectoryRecord

// Keys returns the directory keys in sorted order.
func (a Analysis) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RelationCount returns the number of directed directory relations.
func (a Analysis) RelationCount() int {
	n := 0
	for _, rec := range a {
		n += len(rec.Relations)
	}
	return n
}

// FileCount returns the number of analyzed files.
func (a Analysis) FileCount() int {
	n := 0
	for _, rec := range a {
		n += rec.FileCount
	}
	return n
}

// CommunityResult is the output of community detection over an Analysis.
type CommunityResult struct {
	Graph          map[string][]string       `json:"graph"`                  // symmetric adjacency
	Communities    map[string]string         `json:"communities"`            // node -> community label
	Groups         map[string][]string       `json:"communities_by_group"`   // label -> members
	Dependencies   map[string]map[string]int `json:"community_dependencies"` // label -> label -> edge count
	CommunityGraph map[string][]string       `json:"community_graph"`        // label -> labels with a positive count
	TotalEdges     float64                   `json:"total_edges"`
	TotalNodes     int                       `json:"total_nodes"`
	Modularity     float64                   `json:"modularity"`
	Passes         int                       `json:"passes"`
	Moves          int                       `json:"moves"`
	Converged      bool                      `json:"converged"`
	Order          []string                  `json:"order"` // labels in order of first appearance
}

// Index returns the 1-based display number of a community label, or 0.
func (r *CommunityResult) Index(label string) int {
	for i, l := range r.Order {
		if l == label {
			return i + 1
		}
	}
	return 0
}

// Insight represents an architectural insight produced by an explainer.
type Insight struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Confidence  float64    `json:"confidence"` // 0.0 - 1.0
	Evidence    []Evidence `json:"evidence"`
	Actions     []string   `json:"suggested_actions,omitempty"`
}

// Evidence links an insight back to concrete directories.
type Evidence struct {
	Directory string `json:"directory,omitempty"`
	Target    string `json:"target,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Artifact represents a generated output file.
type Artifact struct {
	Name    string `json:"name"` // e.g. "report.md"
	Content []byte `json:"-"`
	Type    string `json:"type"` // MIME type hint
}

// Snapshot holds the complete result of an analysis run.
type Snapshot struct {
	Meta        SnapshotMeta     `json:"meta"`
	Analysis    Analysis         `json:"analysis"`
	Communities *CommunityResult `json:"communities"`
	Insights    []Insight        `json:"insights"`
	Artifacts   []Artifact       `json:"artifacts"`
}

// SnapshotMeta contains metadata about a snapshot generation run.
type SnapshotMeta struct {
	RepoPath           string     `json:"repo_path"`
	Root               string     `json:"root,omitempty"`
	GeneratedAt        string     `json:"generated_at"`
	Duration           string     `json:"duration"`
	Parser             string     `json:"parser"`
	Explainers         []string   `json:"explainers"`
	Renderers          []string   `json:"renderers"`
	FileHashes         []FileHash `json:"file_hashes,omitempty"`
	DirectoryCount     int        `json:"directory_count"`
	FileCount          int        `json:"file_count"`
	RelationCount      int        `json:"relation_count"`
	CommunityCount     int        `json:"community_count"`
	InsightCount       int        `json:"insight_count"`
	NamespaceConflicts int        `json:"namespace_conflicts"`
}

// FileHash tracks a file's content hash.
type FileHash struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}
