package analysis

import (
	"context"
	"log"
	"os"

	"github.com/dejo1307/modmap/internal/discover"
	"github.com/dejo1307/modmap/internal/model"
	"github.com/dejo1307/modmap/internal/resolve"
)

// Aggregator accumulates directory records while a tree is walked.
type Aggregator struct {
	walker   *discover.Walker
	resolver *resolve.Resolver
	files    FileAnalyzer
	results  model.Analysis
	skipped  int
}

// NewAggregator creates an empty Aggregator.
func NewAggregator(w *discover.Walker, r *resolve.Resolver, files FileAnalyzer) *Aggregator {
	return &Aggregator{
		walker:   w,
		resolver: r,
		files:    files,
		results:  make(model.Analysis),
	}
}

// Results returns the records accumulated so far.
func (ag *Aggregator) Results() model.Analysis {
	return ag.results
}

// Skipped returns the number of files that could not be read or parsed.
func (ag *Aggregator) Skipped() int {
	return ag.skipped
}

// Walk visits dir and its subdirectories depth-first in name order. A record
// is created only for directories that directly contain analyzable files, but
// every subdirectory is visited.
func (ag *Aggregator) Walk(ctx context.Context, dir string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	files, subdirs, err := ag.walker.ListDir(dir)
	if err != nil {
		log.Printf("[analysis] error listing %s: %v", dir, err)
		return nil
	}

	if len(files) > 0 {
		key := ag.walker.Key(dir)
		rec, ok := ag.results[key]
		if !ok {
			rec = model.NewDirectoryRecord()
			ag.results[key] = rec
		}
		for _, file := range files {
			ag.addFile(key, rec, file)
		}
	}

	for _, sub := range subdirs {
		if err := ag.Walk(ctx, sub); err != nil {
			return err
		}
	}
	return nil
}

func (ag *Aggregator) addFile(key string, rec *model.DirectoryRecord, file string) {
	src, err := os.ReadFile(file)
	if err != nil {
		log.Printf("[analysis] skipping %s: %v", file, err)
		ag.skipped++
		return
	}
	fr, err := ag.files.AnalyzeFile(file, src)
	if err != nil {
		log.Printf("[analysis] skipping %s: %v", file, err)
		ag.skipped++
		return
	}

	syms := fr.Symbols
	rec.Classes += syms.Classes
	rec.Interfaces += syms.Interfaces
	rec.Abstracts += syms.Abstracts
	rec.Total += syms.Total()
	rec.FileCount++
	rec.Metrics.LOCTotal += fr.LOC
	rec.Metrics.CCNTotal += fr.CCN

	for _, ref := range syms.Imports {
		ag.relate(key, rec, ref)
	}
	for _, ref := range syms.Parents {
		ag.relate(key, rec, ref)
	}
}

// relate records a relation from key to the directory owning ref. Relations
// to the directory itself, to the root, and unresolvable references are
// dropped.
func (ag *Aggregator) relate(key string, rec *model.DirectoryRecord, ref string) {
	target, ok := ag.resolver.Resolve(ref)
	if !ok {
		return
	}
	switch target {
	case "", ".", model.RootKey, key:
		return
	}
	rec.AddRelation(target)
}
