// Package analysis walks a source tree, aggregates per-directory metrics and
// cross-directory relations, and derives coupling metrics from them.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dejo1307/modmap/internal/discover"
	"github.com/dejo1307/modmap/internal/extractors"
	"github.com/dejo1307/modmap/internal/model"
	"github.com/dejo1307/modmap/internal/resolve"
)

// ErrRootNotFound is returned when the analysis root is not a directory.
var ErrRootNotFound = errors.New("analysis root not found")

// Options configures a single analysis run.
type Options struct {
	Root             string   // tree to scan, already present on disk
	SubRoot          string   // optional path under Root used as the analysis root
	Extensions       []string // analyzable file extensions; defaults to .php
	Ignore           []string // doublestar globs relative to the analysis root
	RespectGitignore bool
	SourceRoots      []string // conventional roots for namespace fallback; nil = resolve.DefaultSourceRoots
	Files            FileAnalyzer
}

// Result is the output of Analyze.
type Result struct {
	Root               string // absolute analysis root
	Analysis           model.Analysis
	NamespaceConflicts int
	SkippedFiles       int
}

// Analyze scans the tree described by opts. It fails only when the root is
// unavailable; unreadable files are skipped and unresolvable references are
// dropped.
func Analyze(ctx context.Context, opts Options) (*Result, error) {
	root, err := analysisRoot(opts.Root, opts.SubRoot)
	if err != nil {
		return nil, err
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".php"}
	}
	if opts.Files == nil {
		return nil, fmt.Errorf("analysis: no file analyzer configured")
	}

	w := discover.New(root, exts, opts.Ignore, opts.RespectGitignore)

	nsMap, err := resolve.BuildMap(ctx, w, symbolSource{opts.Files})
	if err != nil {
		return nil, fmt.Errorf("building namespace map: %w", err)
	}
	log.Printf("[analysis] namespace map: %d identifiers", nsMap.Len())

	ag := NewAggregator(w, resolve.NewResolver(nsMap, root, opts.SourceRoots), opts.Files)
	if err := ag.Walk(ctx, root); err != nil {
		return nil, err
	}

	results := ag.Results()
	ComputeCoupling(results)
	log.Printf("[analysis] %d directories, %d files, %d relations (%d files skipped)",
		len(results), results.FileCount(), results.RelationCount(), ag.Skipped())

	return &Result{
		Root:               root,
		Analysis:           results,
		NamespaceConflicts: nsMap.Conflicts(),
		SkippedFiles:       ag.Skipped(),
	}, nil
}

func analysisRoot(root, subRoot string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root %s: %w", root, err)
	}
	if !isDir(abs) {
		return "", fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}
	if subRoot == "" {
		return abs, nil
	}
	sub := filepath.Join(abs, subRoot)
	if !isDir(sub) {
		return "", fmt.Errorf("%w: %s does not exist in %s", ErrRootNotFound, subRoot, root)
	}
	return sub, nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// symbolSource adapts a FileAnalyzer to the extractor interface used when
// building the namespace map.
type symbolSource struct {
	files FileAnalyzer
}

func (s symbolSource) Name() string {
	return "file-analyzer"
}

func (s symbolSource) Extract(path string, src []byte) (extractors.Symbols, error) {
	fr, err := s.files.AnalyzeFile(path, src)
	if err != nil {
		return extractors.Symbols{}, err
	}
	return fr.Symbols, nil
}
