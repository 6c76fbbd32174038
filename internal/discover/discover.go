// Package discover lists the analyzable files and subdirectories of a source
// tree, applying extension filters, ignore globs and .gitignore rules.
package discover

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/dejo1307/modmap/internal/model"
)

// RootKey is the directory key of the analysis root itself.
const RootKey = model.RootKey

// Walker answers per-directory listing questions for one analysis root.
type Walker struct {
	root   string
	exts   map[string]struct{}
	ignore []string
	gi     *ignore.GitIgnore
}

// New creates a Walker rooted at root. Extensions are matched
// case-insensitively and include the leading dot.
func New(root string, extensions, ignorePatterns []string, respectGitignore bool) *Walker {
	w := &Walker{
		root:   root,
		exts:   make(map[string]struct{}, len(extensions)),
		ignore: ignorePatterns,
	}
	for _, ext := range extensions {
		w.exts[strings.ToLower(ext)] = struct{}{}
	}
	if respectGitignore {
		w.gi = loadGitignore(root)
	}
	return w
}

// Root returns the analysis root.
func (w *Walker) Root() string {
	return w.root
}

// ListDir returns the analyzable files and the non-ignored subdirectories of
// dir (absolute paths). Both are sorted by name.
func (w *Walker) ListDir(dir string) (files, subdirs []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	for _, e := range entries {
		abs := filepath.Join(dir, e.Name())
		rel := w.relSlash(abs)

		if e.IsDir() {
			if !w.IsIgnored(rel, true) {
				subdirs = append(subdirs, abs)
			}
			continue
		}

		// Skip symlinks and other irregular files
		if !e.Type().IsRegular() {
			continue
		}
		if _, ok := w.exts[strings.ToLower(filepath.Ext(e.Name()))]; !ok {
			continue
		}
		if w.IsIgnored(rel, false) {
			continue
		}
		files = append(files, abs)
	}

	sort.Strings(files)
	sort.Strings(subdirs)
	return files, subdirs, nil
}

// IsIgnored reports whether a slash-separated path relative to the root
// matches an ignore glob or the root .gitignore.
func (w *Walker) IsIgnored(rel string, isDir bool) bool {
	for _, pattern := range w.ignore {
		// Directory patterns also exclude the directory itself
		if dirPrefix, ok := strings.CutSuffix(pattern, "/**"); ok {
			if rel == dirPrefix || strings.HasPrefix(rel, dirPrefix+"/") {
				return true
			}
		}
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
		// Slash-free patterns such as "*Test.php" apply to the base name
		if !strings.Contains(pattern, "/") {
			if matched, err := doublestar.Match(pattern, path.Base(rel)); err == nil && matched {
				return true
			}
		}
	}

	if w.gi != nil {
		candidate := rel
		if isDir {
			candidate += "/"
		}
		if w.gi.MatchesPath(candidate) {
			return true
		}
	}
	return false
}

// Key returns the directory key of an absolute directory path: its
// slash-separated path relative to the root, or RootKey for the root.
func (w *Walker) Key(dir string) string {
	rel := w.relSlash(dir)
	if rel == "." || rel == "" {
		return RootKey
	}
	return rel
}

func (w *Walker) relSlash(abs string) string {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
