package resolve

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dejo1307/modmap/internal/extractors"
)

// DefaultSourceRoots are the conventional source directories tried, after
// the tree root itself, when guessing a directory from a namespace.
var DefaultSourceRoots = []string{"src", "lib", "app"}

// Resolver maps identifiers to directory keys.
type Resolver struct {
	ns          *NamespaceMap
	root        string
	sourceRoots []string
	isDir       func(string) bool
}

// NewResolver creates a Resolver over the given namespace map. root is the
// analysis root used by the filesystem fallback; sourceRoots defaults to
// DefaultSourceRoots when nil.
func NewResolver(ns *NamespaceMap, root string, sourceRoots []string) *Resolver {
	if sourceRoots == nil {
		sourceRoots = DefaultSourceRoots
	}
	return &Resolver{
		ns:          ns,
		root:        root,
		sourceRoots: sourceRoots,
		isDir:       dirExists,
	}
}

// Resolve returns the directory key that owns id. It tries, in order: an
// exact namespace-map hit, the longest known ancestor namespace, and a
// directory on disk derived from the identifier's path.
func (r *Resolver) Resolve(id string) (string, bool) {
	id = strings.TrimLeft(id, extractors.NamespaceSep)
	if id == "" {
		return "", false
	}

	if dir, ok := r.ns.Lookup(id); ok {
		return dir, true
	}

	parts := strings.Split(id, extractors.NamespaceSep)
	for i := len(parts) - 1; i > 0; i-- {
		if dir, ok := r.ns.Lookup(strings.Join(parts[:i], extractors.NamespaceSep)); ok {
			return dir, true
		}
	}

	return r.fromFilesystem(parts)
}

// fromFilesystem treats the identifier as a class path and checks whether
// its parent directory exists under the root or a conventional source root.
func (r *Resolver) fromFilesystem(parts []string) (string, bool) {
	candidate := path.Join(parts...)
	prefixes := append([]string{""}, r.sourceRoots...)
	for _, prefix := range prefixes {
		dir := path.Dir(path.Join(prefix, candidate))
		if dir == "." || dir == "/" || dir == "" {
			continue
		}
		if r.isDir(filepath.Join(r.root, filepath.FromSlash(dir))) {
			return dir, true
		}
	}
	return "", false
}

func dirExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
