// Package resolve maps namespace identifiers to the directory that owns them.
package resolve

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/dejo1307/modmap/internal/discover"
	"github.com/dejo1307/modmap/internal/extractors"
)

// NamespaceMap maps a namespace identifier, and every prefix of it, to the
// directory key of the first file seen declaring it. Entries are never
// overwritten: when two directories claim the same namespace, the one
// visited first by the walk keeps it.
type NamespaceMap struct {
	dirs      map[string]string
	conflicts int
}

// NewNamespaceMap creates an empty map.
func NewNamespaceMap() *NamespaceMap {
	return &NamespaceMap{dirs: make(map[string]string)}
}

// Insert records dir as the home of ns and of each of its prefixes, unless
// they already have a home.
func (m *NamespaceMap) Insert(ns, dir string) {
	ns = strings.Trim(ns, extractors.NamespaceSep)
	if ns == "" {
		return
	}
	parts := strings.Split(ns, extractors.NamespaceSep)
	for i := 1; i <= len(parts); i++ {
		prefix := strings.Join(parts[:i], extractors.NamespaceSep)
		if existing, ok := m.dirs[prefix]; ok {
			if i == len(parts) && existing != dir {
				m.conflicts++
			}
			continue
		}
		m.dirs[prefix] = dir
	}
}

// Lookup returns the directory recorded for exactly ns.
func (m *NamespaceMap) Lookup(ns string) (string, bool) {
	dir, ok := m.dirs[ns]
	return dir, ok
}

// Len returns the number of identifiers with a known home.
func (m *NamespaceMap) Len() int {
	return len(m.dirs)
}

// Conflicts returns how many declarations named a namespace that already
// belonged to another directory.
func (m *NamespaceMap) Conflicts() int {
	return m.conflicts
}

// BuildMap walks the tree under w top-down and records the namespace of
// every analyzable file. Unreadable files and directories are skipped.
func BuildMap(ctx context.Context, w *discover.Walker, ext extractors.Extractor) (*NamespaceMap, error) {
	m := NewNamespaceMap()
	if err := buildDir(ctx, w, ext, m, w.Root()); err != nil {
		return nil, err
	}
	if m.conflicts > 0 {
		log.Printf("[resolve] %d namespace declarations already claimed by another directory; first seen kept", m.conflicts)
	}
	return m, nil
}

func buildDir(ctx context.Context, w *discover.Walker, ext extractors.Extractor, m *NamespaceMap, dir string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	files, subdirs, err := w.ListDir(dir)
	if err != nil {
		log.Printf("[resolve] error listing %s: %v", dir, err)
		return nil
	}

	key := w.Key(dir)
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		syms, err := ext.Extract(file, src)
		if err != nil {
			continue
		}
		m.Insert(syms.Namespace, key)
	}

	for _, sub := range subdirs {
		if err := buildDir(ctx, w, ext, m, sub); err != nil {
			return err
		}
	}
	return nil
}
