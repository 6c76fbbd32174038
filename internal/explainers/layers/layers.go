package layers

import (
	"context"
	"fmt"
	"strings"

	"github.com/dejo1307/modmap/internal/model"
)

// LayerExplainer detects architectural patterns from directory names and
// reports relations that point from an inner layer to an outer one.
type LayerExplainer struct{}

// New creates a new LayerExplainer.
func New() *LayerExplainer {
	return &LayerExplainer{}
}

func (e *LayerExplainer) Name() string {
	return "layers"
}

// layerDef defines how we detect architectural layers from directory segments.
type layerDef struct {
	Name     string
	Patterns []string
	Level    int // Lower level = inner/domain, higher = outer/infra
}

// Predefined layer patterns for common PHP architectures.
var (
	// Hexagonal / DDD layout (src/Domain, src/Application, src/Infrastructure...)
	hexagonalLayers = []layerDef{
		{Name: "domain", Patterns: []string{"domain", "entity", "entities", "model", "models", "valueobject", "core"}, Level: 0},
		{Name: "application", Patterns: []string{"application", "usecase", "usecases", "service", "services"}, Level: 1},
		{Name: "port", Patterns: []string{"port", "ports", "contract", "contracts", "interface", "interfaces"}, Level: 1},
		{Name: "infrastructure", Patterns: []string{"infrastructure", "infra", "adapter", "adapters", "persistence", "doctrine"}, Level: 2},
		{Name: "repository", Patterns: []string{"repository", "repositories", "storage"}, Level: 2},
		{Name: "presentation", Patterns: []string{"presentation", "ui", "controller", "controllers", "http", "api", "cli"}, Level: 3},
	}

	// Symfony bundle layout
	symfonyLayers = []layerDef{
		{Name: "entity", Patterns: []string{"entity"}, Level: 0},
		{Name: "repository", Patterns: []string{"repository"}, Level: 1},
		{Name: "service", Patterns: []string{"service", "manager"}, Level: 1},
		{Name: "form", Patterns: []string{"form", "validator"}, Level: 2},
		{Name: "events", Patterns: []string{"eventsubscriber", "eventlistener", "messagehandler"}, Level: 2},
		{Name: "controller", Patterns: []string{"controller"}, Level: 3},
		{Name: "command", Patterns: []string{"command"}, Level: 3},
	}

	// Laravel application layout
	laravelLayers = []layerDef{
		{Name: "models", Patterns: []string{"models"}, Level: 0},
		{Name: "services", Patterns: []string{"services", "actions"}, Level: 1},
		{Name: "jobs", Patterns: []string{"jobs", "events", "listeners", "notifications"}, Level: 2},
		{Name: "providers", Patterns: []string{"providers"}, Level: 2},
		{Name: "http", Patterns: []string{"http", "controllers", "middleware", "requests"}, Level: 3},
		{Name: "console", Patterns: []string{"console"}, Level: 3},
	}
)

// archPattern represents a detected architecture pattern with its confidence.
type archPattern struct {
	Name       string
	Confidence float64
	Layers     map[string]*layerDef
	Dirs       map[string]string // directory -> layer name
}

// Explain detects the best matching architecture pattern and its violations.
func (e *LayerExplainer) Explain(ctx context.Context, snap *model.Snapshot) ([]model.Insight, error) {
	dirs := snap.Analysis.Keys()
	if len(dirs) == 0 {
		return nil, nil
	}

	best := e.bestPattern(e.detectPatterns(dirs))
	if best == nil {
		return nil, nil
	}

	evidence := make([]model.Evidence, 0, len(best.Dirs))
	for _, dir := range dirs {
		if layer, ok := best.Dirs[dir]; ok {
			evidence = append(evidence, model.Evidence{
				Directory: dir,
				Detail:    fmt.Sprintf("directory %q maps to layer %q", dir, layer),
			})
		}
	}

	insights := []model.Insight{{
		Title:       fmt.Sprintf("Architecture pattern: %s", best.Name),
		Description: fmt.Sprintf("Detected %s architecture pattern with %.0f%% confidence. Found %d layers with %d classified directories.", best.Name, best.Confidence*100, len(best.Layers), len(best.Dirs)),
		Confidence:  best.Confidence,
		Evidence:    evidence,
		Actions: []string{
			"Ensure new namespaces follow the detected layer structure",
			"Review cross-layer dependencies for violations",
		},
	}}

	return append(insights, e.detectViolations(snap.Analysis, dirs, best)...), nil
}

func (e *LayerExplainer) detectPatterns(dirs []string) []*archPattern {
	var patterns []*archPattern

	for _, def := range []struct {
		name   string
		layers []layerDef
	}{
		{"hexagonal", hexagonalLayers},
		{"symfony", symfonyLayers},
		{"laravel", laravelLayers},
	} {
		pattern := &archPattern{
			Name:   def.name,
			Layers: make(map[string]*layerDef),
			Dirs:   make(map[string]string),
		}

		matchCount := 0
		for _, dir := range dirs {
			for i, layer := range def.layers {
				if matchesLayer(dir, layer.Patterns) {
					pattern.Layers[layer.Name] = &def.layers[i]
					pattern.Dirs[dir] = layer.Name
					matchCount++
					break
				}
			}
		}

		if matchCount == 0 {
			continue
		}

		// Confidence based on classified directories and distinct layers matched
		coverage := float64(matchCount) / float64(len(dirs))
		layerCoverage := float64(len(pattern.Layers)) / float64(len(def.layers))
		pattern.Confidence = min(coverage*0.6+layerCoverage*0.4, 1.0)

		// Minimum threshold
		if pattern.Confidence >= 0.2 && len(pattern.Layers) >= 2 {
			patterns = append(patterns, pattern)
		}
	}

	return patterns
}

func (e *LayerExplainer) bestPattern(patterns []*archPattern) *archPattern {
	if len(patterns) == 0 {
		return nil
	}

	best := patterns[0]
	for _, p := range patterns[1:] {
		if p.Confidence > best.Confidence {
			best = p
		}
	}
	return best
}

// detectViolations reports relations from an inner layer to an outer layer.
func (e *LayerExplainer) detectViolations(a model.Analysis, dirs []string, pattern *archPattern) []model.Insight {
	var insights []model.Insight

	for _, source := range dirs {
		sourceLayer, ok := pattern.Dirs[source]
		if !ok {
			continue
		}
		sourceDef := pattern.Layers[sourceLayer]

		for _, target := range a[source].Relations {
			targetLayer, ok := pattern.Dirs[target]
			if !ok {
				continue
			}
			targetDef := pattern.Layers[targetLayer]

			if sourceDef.Level < targetDef.Level {
				insights = append(insights, model.Insight{
					Title: fmt.Sprintf("Layer violation: %s -> %s", sourceLayer, targetLayer),
					Description: fmt.Sprintf(
						"Directory %q (layer: %s, level %d) depends on %q (layer: %s, level %d). "+
							"Inner layers should not depend on outer layers.",
						source, sourceLayer, sourceDef.Level,
						target, targetLayer, targetDef.Level,
					),
					Confidence: 0.8,
					Evidence: []model.Evidence{
						{Directory: source, Target: target, Detail: fmt.Sprintf("relation to %s", target)},
					},
					Actions: []string{
						"Introduce an interface in the inner layer",
						"Move shared classes to a common namespace",
						"Invert the dependency using dependency injection",
					},
				})
			}
		}
	}

	return insights
}

// matchesLayer checks if any segment of a directory key equals a pattern.
func matchesLayer(dir string, patterns []string) bool {
	for _, part := range strings.Split(strings.ToLower(dir), "/") {
		for _, pattern := range patterns {
			if part == pattern {
				return true
			}
		}
	}
	return false
}
