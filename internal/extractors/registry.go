package extractors

import "strings"

// Symbols is what an extractor recovers from a single source file.
type Symbols struct {
	Namespace  string   `json:"namespace,omitempty"` // empty = global namespace
	Classes    int      `json:"classes"`
	Interfaces int      `json:"interfaces"`
	Abstracts  int      `json:"abstracts"`
	Imports    []string `json:"imports,omitempty"` // use targets, aliases dropped
	Parents    []string `json:"parents,omitempty"` // extends/implements targets, fully qualified
}

// Total returns the number of type declarations of any kind.
func (s Symbols) Total() int {
	return s.Classes + s.Interfaces + s.Abstracts
}

// Extractor recovers symbols from PHP source text.
type Extractor interface {
	// Name returns the extractor identifier (e.g. "lexical", "treesitter").
	Name() string
	// Extract returns the symbols declared and referenced in src.
	Extract(path string, src []byte) (Symbols, error)
}

// NamespaceSep separates namespace segments.
const NamespaceSep = `\`

// Qualify resolves name against the file namespace ns. Names that already
// contain a separator are taken as fully qualified.
func Qualify(ns, name string) string {
	if strings.Contains(name, NamespaceSep) {
		return strings.TrimLeft(name, NamespaceSep)
	}
	if ns == "" {
		return name
	}
	return ns + NamespaceSep + name
}

// Registry holds registered extractors.
type Registry struct {
	extractors []Extractor
}

// NewRegistry creates a new extractor registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an extractor to the registry.
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// Get returns the extractor with the given name, or nil if not found.
func (r *Registry) Get(name string) Extractor {
	for _, e := range r.extractors {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

// All returns all registered extractors.
func (r *Registry) All() []Extractor {
	return r.extractors
}
