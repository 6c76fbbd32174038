package stability

import (
	"context"
	"testing"

	"github.com/dejo1307/modmap/internal/model"
)

func record(instability float64, relations ...string) *model.DirectoryRecord {
	rec := model.NewDirectoryRecord()
	for _, r := range relations {
		rec.AddRelation(r)
	}
	rec.Metrics.Instability = instability
	return rec
}

func TestExplain(t *testing.T) {
	tests := []struct {
		name         string
		analysis     model.Analysis
		wantInsights int
		wantTargets  []string
	}{
		{
			name: "stable depends on unstable",
			analysis: model.Analysis{
				"core": record(0.25, "web"),
				"web":  record(1.0),
			},
			wantInsights: 1,
			wantTargets:  []string{"web"},
		},
		{
			name: "unstable depends on stable",
			analysis: model.Analysis{
				"web":  record(1.0, "core"),
				"core": record(0),
			},
		},
		{
			name: "equal instability is fine",
			analysis: model.Analysis{
				"a": record(0.5, "b"),
				"b": record(0.5),
			},
		},
		{
			name: "target without record ignored",
			analysis: model.Analysis{
				"a": record(0, "vendor/x"),
			},
		},
		{
			name: "evidence grouped per source",
			analysis: model.Analysis{
				"core": record(0.1, "x", "y", "z"),
				"x":    record(0.9),
				"y":    record(0.05),
				"z":    record(1.0),
			},
			wantInsights: 1,
			wantTargets:  []string{"x", "z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insights, err := New().Explain(context.Background(), &model.Snapshot{Analysis: tt.analysis})
			if err != nil {
				t.Fatalf("Explain: %v", err)
			}
			if len(insights) != tt.wantInsights {
				t.Fatalf("got %d insights, want %d: %+v", len(insights), tt.wantInsights, insights)
			}
			if tt.wantInsights == 0 {
				return
			}
			ev := insights[0].Evidence
			if len(ev) != len(tt.wantTargets) {
				t.Fatalf("evidence = %+v, want targets %v", ev, tt.wantTargets)
			}
			for i, target := range tt.wantTargets {
				if ev[i].Target != target {
					t.Errorf("evidence[%d].Target = %q, want %q", i, ev[i].Target, target)
				}
			}
		})
	}
}
