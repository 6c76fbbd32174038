package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dejo1307/modmap/internal/model"
)

// ReportRenderer produces a markdown report of directory metrics,
// communities and insights.
type ReportRenderer struct {
	maxTokens int
}

// New creates a new ReportRenderer with the given token budget.
func New(maxTokens int) *ReportRenderer {
	if maxTokens <= 0 {
		maxTokens = 16000
	}
	return &ReportRenderer{maxTokens: maxTokens}
}

func (r *ReportRenderer) Name() string {
	return "report"
}

// section holds a rendered section with its display name.
type section struct {
	name    string
	content string
}

// Render produces the report.md artifact. Sections are ordered by priority;
// lower-priority sections are cut first when the token budget is tight.
func (r *ReportRenderer) Render(ctx context.Context, snapshot *model.Snapshot) ([]model.Artifact, error) {
	sections := []section{
		{"Summary", r.renderSummary(snapshot)},
		{"Communities", r.renderCommunities(snapshot)},
		{"Community Dependencies", r.renderCommunityDependencies(snapshot)},
		{"Community Graph", r.renderCommunityGraph(snapshot)},
		{"Risk Zones", r.renderRiskZones(snapshot)},
		{"Architecture Pattern", r.renderArchPattern(snapshot)},
		{"Directories", r.renderDirectories(snapshot)},
		{"Meta", r.renderMeta(snapshot)},
	}

	header := "# Module Map\n\n"
	maxChars := r.maxTokens * 4 // rough estimate: 1 token ~= 4 chars
	remaining := maxChars - len(header)

	var sb strings.Builder
	sb.WriteString(header)

	for i, sec := range sections {
		if sec.content == "" {
			continue
		}
		if len(sec.content) <= remaining {
			sb.WriteString(sec.content)
			remaining -= len(sec.content)
			continue
		}
		if remaining > 200 {
			sb.WriteString(sec.content[:remaining-100])
			sb.WriteString(fmt.Sprintf("\n\n---\n*[Truncated in: %s]*\n", sec.name))
			break
		}
		var omitted []string
		for _, s := range sections[i:] {
			if s.content != "" {
				omitted = append(omitted, s.name)
			}
		}
		sb.WriteString(fmt.Sprintf("\n\n---\n*[Omitted: %s]*\n", strings.Join(omitted, ", ")))
		break
	}

	return []model.Artifact{
		{
			Name:    "report.md",
			Content: []byte(sb.String()),
			Type:    "text/markdown",
		},
	}, nil
}

func (r *ReportRenderer) renderSummary(snapshot *model.Snapshot) string {
	a := snapshot.Analysis
	var sb strings.Builder
	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- Directories: %d\n", len(a)))
	sb.WriteString(fmt.Sprintf("- Files: %d\n", a.FileCount()))
	sb.WriteString(fmt.Sprintf("- Relations: %d\n", a.RelationCount()))
	if c := snapshot.Communities; c != nil {
		sb.WriteString(fmt.Sprintf("- Communities: %d (%d nodes, %s edges, modularity %.3f)\n",
			len(c.Order), c.TotalNodes, formatEdges(c.TotalEdges), c.Modularity))
		if !c.Converged {
			sb.WriteString(fmt.Sprintf("- Community detection stopped after %d passes without converging\n", c.Passes))
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *ReportRenderer) renderCommunities(snapshot *model.Snapshot) string {
	c := snapshot.Communities
	if c == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Communities\n\n")
	if len(c.Order) == 0 {
		sb.WriteString("_No directories to cluster._\n\n")
		return sb.String()
	}
	for i, label := range c.Order {
		sb.WriteString(fmt.Sprintf("### Community #%d (representative: `%s`)\n\n", i+1, label))
		for _, node := range c.Groups[label] {
			sb.WriteString(fmt.Sprintf("- `%s`\n", node))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (r *ReportRenderer) renderCommunityDependencies(snapshot *model.Snapshot) string {
	c := snapshot.Communities
	if c == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Community Dependencies\n\n")
	found := false
	for i, from := range c.Order {
		var lines []string
		for j, to := range c.Order {
			if n := c.Dependencies[from][to]; from != to && n > 0 {
				lines = append(lines, fmt.Sprintf("  - Community #%d (`%s`): %d link(s)\n", j+1, to, n))
			}
		}
		if len(lines) == 0 {
			continue
		}
		found = true
		sb.WriteString(fmt.Sprintf("- Community #%d (`%s`) depends on:\n", i+1, from))
		for _, l := range lines {
			sb.WriteString(l)
		}
	}
	if !found {
		sb.WriteString("_No dependencies between communities._\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *ReportRenderer) renderCommunityGraph(snapshot *model.Snapshot) string {
	c := snapshot.Communities
	if c == nil {
		return ""
	}

	var lines []string
	for i, label := range c.Order {
		targets := c.CommunityGraph[label]
		if len(targets) == 0 {
			continue
		}
		nums := make([]string, len(targets))
		for k, t := range targets {
			nums[k] = fmt.Sprintf("#%d", c.Index(t))
		}
		lines = append(lines, fmt.Sprintf("- #%d -> %s\n", i+1, strings.Join(nums, ", ")))
	}
	if len(lines) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Community Graph\n\n")
	for _, l := range lines {
		sb.WriteString(l)
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *ReportRenderer) renderRiskZones(snapshot *model.Snapshot) string {
	var risks []string
	for _, insight := range snapshot.Insights {
		if strings.HasPrefix(insight.Title, "Architecture pattern:") {
			continue
		}
		risks = append(risks, fmt.Sprintf("- **%s** (confidence: %.0f%%): %s",
			insight.Title, insight.Confidence*100, insight.Description))
	}
	if len(risks) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Risk Zones\n\n")
	for _, risk := range risks {
		sb.WriteString(risk + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *ReportRenderer) renderArchPattern(snapshot *model.Snapshot) string {
	for _, insight := range snapshot.Insights {
		if !strings.HasPrefix(insight.Title, "Architecture pattern:") {
			continue
		}
		var sb strings.Builder
		sb.WriteString("## Architecture Pattern\n\n")
		sb.WriteString(fmt.Sprintf("**%s** (confidence: %.0f%%)\n\n", insight.Title, insight.Confidence*100))
		sb.WriteString(insight.Description + "\n\n")
		if len(insight.Evidence) > 0 {
			sb.WriteString("Layer mapping:\n")
			for _, ev := range insight.Evidence {
				sb.WriteString(fmt.Sprintf("- %s\n", ev.Detail))
			}
			sb.WriteString("\n")
		}
		return sb.String()
	}
	return ""
}

func (r *ReportRenderer) renderDirectories(snapshot *model.Snapshot) string {
	a := snapshot.Analysis
	var sb strings.Builder
	sb.WriteString("## Directories\n\n")
	if len(a) == 0 {
		sb.WriteString("_No analyzable files found._\n\n")
		return sb.String()
	}

	// Most unstable first, then by key
	keys := a.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return a[keys[i]].Metrics.Instability > a[keys[j]].Metrics.Instability
	})

	sb.WriteString("| Directory | Types | Files | LOC | CCN | Ce | Ca | I | Community |\n")
	sb.WriteString("|-----------|-------|-------|-----|-----|----|----|---|-----------|\n")
	for _, key := range keys {
		rec := a[key]
		community := "-"
		if c := snapshot.Communities; c != nil {
			if label, ok := c.Communities[key]; ok {
				community = fmt.Sprintf("#%d", c.Index(label))
			}
		}
		sb.WriteString(fmt.Sprintf("| `%s` | %d (%dc/%di/%da) | %d | %d | %d | %d | %d | %.3f | %s |\n",
			key, rec.Total, rec.Classes, rec.Interfaces, rec.Abstracts,
			rec.FileCount, rec.Metrics.LOCTotal, rec.Metrics.CCNTotal,
			rec.Metrics.EfferentCoupling, rec.Metrics.AfferentCoupling, rec.Metrics.Instability,
			community))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *ReportRenderer) renderMeta(snapshot *model.Snapshot) string {
	m := snapshot.Meta
	var sb strings.Builder
	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("*Generated at %s in %s with the %s parser. %d directories, %d insights.*\n",
		m.GeneratedAt, m.Duration, m.Parser, m.DirectoryCount, m.InsightCount))
	return sb.String()
}

// formatEdges prints whole edge counts without a fraction.
func formatEdges(m float64) string {
	if m == float64(int(m)) {
		return fmt.Sprintf("%d", int(m))
	}
	return fmt.Sprintf("%.1f", m)
}
