package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dejo1307/modmap/internal/analysis"
	"github.com/dejo1307/modmap/internal/model"
)

// cacheKey identifies extraction output by parser and file content.
type cacheKey struct {
	parser string
	hash   uint64
}

// fileCache memoizes per-file analysis across runs. Files are keyed by the
// xxhash of their content, so a file that did not change is never scrubbed or
// parsed twice, and the namespace map pass and the aggregation pass of one run
// share the work.
type fileCache struct {
	cache *lru.Cache[cacheKey, analysis.FileResult]

	mu     sync.Mutex
	hashes map[string]uint64 // path -> content hash for the current run
	hits   int
	misses int
}

func newFileCache(size int) (*fileCache, error) {
	c, err := lru.New[cacheKey, analysis.FileResult](size)
	if err != nil {
		return nil, fmt.Errorf("creating extraction cache: %w", err)
	}
	return &fileCache{cache: c}, nil
}

// reset clears per-run bookkeeping. Cached results survive.
func (c *fileCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hashes = make(map[string]uint64)
	c.hits, c.misses = 0, 0
}

// wrap returns a FileAnalyzer that consults the cache before delegating.
func (c *fileCache) wrap(parser string, inner analysis.FileAnalyzer) analysis.FileAnalyzer {
	return &cachedAnalyzer{cache: c, parser: parser, inner: inner}
}

// fileHashes returns the hashes recorded in this run, relative to root and
// sorted by path.
func (c *fileCache) fileHashes(rel func(string) string) []model.FileHash {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.FileHash, 0, len(c.hashes))
	for path, h := range c.hashes {
		out = append(out, model.FileHash{Path: rel(path), Hash: fmt.Sprintf("%016x", h)})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})
	return out
}

func (c *fileCache) stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

type cachedAnalyzer struct {
	cache  *fileCache
	parser string
	inner  analysis.FileAnalyzer
}

func (a *cachedAnalyzer) AnalyzeFile(path string, src []byte) (analysis.FileResult, error) {
	h := xxhash.Sum64(src)
	key := cacheKey{parser: a.parser, hash: h}

	a.cache.mu.Lock()
	a.cache.hashes[path] = h
	a.cache.mu.Unlock()

	if fr, ok := a.cache.cache.Get(key); ok {
		a.cache.mu.Lock()
		a.cache.hits++
		a.cache.mu.Unlock()
		return fr, nil
	}

	fr, err := a.inner.AnalyzeFile(path, src)
	if err != nil {
		return analysis.FileResult{}, err
	}
	a.cache.cache.Add(key, fr)

	a.cache.mu.Lock()
	a.cache.misses++
	a.cache.mu.Unlock()
	return fr, nil
}
