// Package stability checks the Stable Dependencies Principle: a directory
// should only depend on directories at least as stable as itself.
package stability

import (
	"context"
	"fmt"

	"github.com/dejo1307/modmap/internal/model"
)

// StabilityExplainer reports relations that point to a less stable directory.
type StabilityExplainer struct{}

// New creates a new StabilityExplainer.
func New() *StabilityExplainer {
	return &StabilityExplainer{}
}

func (e *StabilityExplainer) Name() string {
	return "stability"
}

// Explain emits one insight per directory that depends on less stable
// directories. Targets without a record have no metrics and are ignored.
func (e *StabilityExplainer) Explain(ctx context.Context, snap *model.Snapshot) ([]model.Insight, error) {
	a := snap.Analysis

	var insights []model.Insight
	for _, source := range a.Keys() {
		rec := a[source]
		var evidence []model.Evidence
		for _, target := range rec.Relations {
			dst, ok := a[target]
			if !ok || dst.Metrics.Instability <= rec.Metrics.Instability {
				continue
			}
			evidence = append(evidence, model.Evidence{
				Directory: source,
				Target:    target,
				Detail:    fmt.Sprintf("I(%s)=%.3f < I(%s)=%.3f", source, rec.Metrics.Instability, target, dst.Metrics.Instability),
			})
		}
		if len(evidence) == 0 {
			continue
		}

		insights = append(insights, model.Insight{
			Title: fmt.Sprintf("Unstable dependency from %s", source),
			Description: fmt.Sprintf(
				"Directory %q (instability %.3f, Ca=%d) depends on %d less stable director%s. "+
					"Changes in volatile code will ripple into code that many others rely on.",
				source, rec.Metrics.Instability, rec.Metrics.AfferentCoupling, len(evidence), plural(len(evidence)),
			),
			Confidence: 0.7,
			Evidence:   evidence,
			Actions: []string{
				"Depend on an interface owned by the stable directory",
				"Move the volatile behaviour behind an abstraction",
			},
		})
	}

	return insights, nil
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
