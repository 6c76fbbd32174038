package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dejo1307/modmap/internal/analysis"
	"github.com/dejo1307/modmap/internal/community"
	"github.com/dejo1307/modmap/internal/config"
	"github.com/dejo1307/modmap/internal/explainers"
	"github.com/dejo1307/modmap/internal/extractors"
	"github.com/dejo1307/modmap/internal/model"
	"github.com/dejo1307/modmap/internal/renderers"
)

// Artifact names written next to the renderer output.
const (
	AnalysisFile    = "analysis.json"
	CommunitiesFile = "communities.json"
	InsightsFile    = "insights.json"
	MetaFile        = "snapshot.meta.json"
)

// Engine orchestrates the pipeline: analyze -> cluster -> explain -> render.
type Engine struct {
	mu         sync.Mutex
	cfg        *config.Config
	extractors *extractors.Registry
	explainers *explainers.Registry
	renderers  *renderers.Registry
	files      *fileCache
	snapshot   *model.Snapshot
}

// New creates a new Engine with the given config.
// Extractors, explainers, and renderers must be registered after creation.
func New(cfg *config.Config) (*Engine, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = config.Default().CacheSize
	}
	files, err := newFileCache(size)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:        cfg,
		extractors: extractors.NewRegistry(),
		explainers: explainers.NewRegistry(),
		renderers:  renderers.NewRegistry(),
		files:      files,
	}, nil
}

// RegisterExtractor adds an extractor to the engine.
func (e *Engine) RegisterExtractor(ext extractors.Extractor) {
	e.extractors.Register(ext)
}

// RegisterExplainer adds an explainer to the engine.
func (e *Engine) RegisterExplainer(exp explainers.Explainer) {
	e.explainers.Register(exp)
}

// RegisterRenderer adds a renderer to the engine.
func (e *Engine) RegisterRenderer(rnd renderers.Renderer) {
	e.renderers.Register(rnd)
}

// Snapshot returns the last generated snapshot, or nil.
func (e *Engine) Snapshot() *model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot
}

// SetSnapshot replaces the current snapshot.
func (e *Engine) SetSnapshot(s *model.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshot = s
}

// GenerateSnapshot runs the full pipeline over repoPath, optionally narrowed
// to the subRoot directory. Empty arguments fall back to the config.
func (e *Engine) GenerateSnapshot(ctx context.Context, repoPath, subRoot string) (*model.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()

	if repoPath == "" {
		repoPath = e.cfg.Repo
	}
	if subRoot == "" {
		subRoot = e.cfg.Root
	}
	absRepo, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolving repo path: %w", err)
	}

	ext := e.extractors.Get(e.cfg.Parser)
	if ext == nil {
		return nil, fmt.Errorf("unknown parser %q", e.cfg.Parser)
	}

	// 1. Analyze the tree
	e.files.reset()
	res, err := analysis.Analyze(ctx, analysis.Options{
		Root:             absRepo,
		SubRoot:          subRoot,
		Extensions:       e.cfg.Extensions,
		Ignore:           e.cfg.Ignore,
		RespectGitignore: e.cfg.RespectGitignore,
		SourceRoots:      e.cfg.SourceRoots,
		Files:            e.files.wrap(ext.Name(), analysis.NewSourceAnalyzer(ext)),
	})
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	hits, misses := e.files.stats()
	log.Printf("[engine] analyzed %d directories with the %s parser (cache: %d hits, %d misses)",
		len(res.Analysis), ext.Name(), hits, misses)

	// 2. Detect communities
	comm := community.Detect(community.BuildGraph(res.Analysis), community.Options{MaxPasses: e.cfg.MaxPasses})

	snapshot := &model.Snapshot{
		Meta: model.SnapshotMeta{
			RepoPath:   absRepo,
			Root:       subRoot,
			Parser:     ext.Name(),
			Explainers: []string{},
			Renderers:  []string{},
			FileHashes: e.files.fileHashes(func(p string) string {
				if rel, err := filepath.Rel(res.Root, p); err == nil {
					return filepath.ToSlash(rel)
				}
				return p
			}),
			DirectoryCount:     len(res.Analysis),
			FileCount:          res.Analysis.FileCount(),
			RelationCount:      res.Analysis.RelationCount(),
			NamespaceConflicts: res.NamespaceConflicts,
		},
		Analysis:    res.Analysis,
		Communities: comm,
	}

	// 3. Explain and render
	e.finish(ctx, snapshot)

	duration := time.Since(start)
	snapshot.Meta.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	snapshot.Meta.Duration = duration.String()

	e.snapshot = snapshot
	log.Printf("[engine] snapshot generated in %s", duration)
	return snapshot, nil
}

// DetectCommunities re-runs community detection on the current snapshot
// with a different pass bound, then refreshes insights and artifacts.
func (e *Engine) DetectCommunities(ctx context.Context, maxPasses int) (*model.CommunityResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snapshot == nil {
		return nil, fmt.Errorf("no snapshot generated")
	}
	if maxPasses < 0 {
		return nil, fmt.Errorf("max_passes must be >= 0, got %d", maxPasses)
	}

	comm := community.Detect(community.BuildGraph(e.snapshot.Analysis), community.Options{MaxPasses: maxPasses})
	e.snapshot.Communities = comm
	e.finish(ctx, e.snapshot)
	return comm, nil
}

// finish runs explainers and renderers and updates the derived meta fields.
func (e *Engine) finish(ctx context.Context, snapshot *model.Snapshot) {
	if snapshot.Communities != nil {
		snapshot.Meta.CommunityCount = len(snapshot.Communities.Order)
	}

	insights, usedExplainers := e.runExplainers(ctx, snapshot)
	snapshot.Insights = insights
	snapshot.Meta.Explainers = usedExplainers
	snapshot.Meta.InsightCount = len(insights)
	log.Printf("[engine] produced %d insights using %d explainers", len(insights), len(usedExplainers))

	snapshot.Artifacts = nil
	snapshot.Meta.Renderers = e.runRenderers(ctx, snapshot)
	log.Printf("[engine] produced %d artifacts using %d renderers", len(snapshot.Artifacts), len(snapshot.Meta.Renderers))
}

// runExplainers runs all enabled explainers.
func (e *Engine) runExplainers(ctx context.Context, snapshot *model.Snapshot) ([]model.Insight, []string) {
	allInsights := []model.Insight{}
	usedNames := []string{}

	for _, exp := range e.explainers.All() {
		if !e.cfg.IsExplainerEnabled(exp.Name()) {
			continue
		}

		log.Printf("[engine] running explainer: %s", exp.Name())
		insights, err := exp.Explain(ctx, snapshot)
		if err != nil {
			log.Printf("[engine] explainer %s error: %v", exp.Name(), err)
			continue
		}

		allInsights = append(allInsights, insights...)
		usedNames = append(usedNames, exp.Name())
		log.Printf("[engine] explainer %s: produced %d insights", exp.Name(), len(insights))
	}

	return allInsights, usedNames
}

// runRenderers runs all enabled renderers.
func (e *Engine) runRenderers(ctx context.Context, snapshot *model.Snapshot) []string {
	usedNames := []string{}

	for _, rnd := range e.renderers.All() {
		if !e.cfg.IsRendererEnabled(rnd.Name()) {
			continue
		}

		log.Printf("[engine] running renderer: %s", rnd.Name())
		artifacts, err := rnd.Render(ctx, snapshot)
		if err != nil {
			log.Printf("[engine] renderer %s error: %v", rnd.Name(), err)
			continue
		}

		snapshot.Artifacts = append(snapshot.Artifacts, artifacts...)
		usedNames = append(usedNames, rnd.Name())
	}

	return usedNames
}

// OutputDir returns the directory artifacts are written to by default.
func (e *Engine) OutputDir() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.snapshot == nil || filepath.IsAbs(e.cfg.Output.Dir) {
		return e.cfg.Output.Dir
	}
	return filepath.Join(e.snapshot.Meta.RepoPath, e.cfg.Output.Dir)
}

// WriteArtifacts writes the analysis, communities, insights, meta and all
// renderer artifacts to dir.
func (e *Engine) WriteArtifacts(dir string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snapshot == nil {
		return fmt.Errorf("no snapshot generated")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	for _, name := range []string{AnalysisFile, CommunitiesFile, InsightsFile, MetaFile} {
		data, err := e.artifactLocked(name)
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(dir, name), data); err != nil {
			return err
		}
	}

	// Renderer artifacts (e.g. report.md)
	for _, a := range e.snapshot.Artifacts {
		if err := writeFile(filepath.Join(dir, a.Name), a.Content); err != nil {
			return err
		}
	}

	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	log.Printf("[engine] wrote %s (%d bytes)", path, len(data))
	return nil
}

// GetArtifact returns the content of a named artifact or of one of the JSON
// documents derived from the snapshot.
func (e *Engine) GetArtifact(name string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.artifactLocked(name)
}

func (e *Engine) artifactLocked(name string) ([]byte, error) {
	if e.snapshot == nil {
		return nil, fmt.Errorf("no snapshot generated")
	}

	switch name {
	case AnalysisFile:
		var buf bytes.Buffer
		err := e.snapshot.Analysis.WriteJSON(&buf)
		return buf.Bytes(), err
	case CommunitiesFile:
		var buf bytes.Buffer
		err := e.snapshot.Communities.WriteJSON(&buf)
		return buf.Bytes(), err
	case InsightsFile:
		return json.MarshalIndent(e.snapshot.Insights, "", "  ")
	case MetaFile:
		return json.MarshalIndent(e.snapshot.Meta, "", "  ")
	default:
		for _, a := range e.snapshot.Artifacts {
			if a.Name == name {
				return a.Content, nil
			}
		}
		return nil, fmt.Errorf("artifact %q not found", name)
	}
}
