package server

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/dejo1307/modmap/internal/config"
	"github.com/dejo1307/modmap/internal/engine"
	"github.com/dejo1307/modmap/internal/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server and connects it to the snapshot engine.
type Server struct {
	mcp *mcp.Server
	eng *engine.Engine
	cfg *config.Config
}

// New creates a new MCP server wired to the given engine.
func New(eng *engine.Engine, cfg *config.Config) (*Server, error) {
	s := &Server{
		eng: eng,
		cfg: cfg,
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "modmap",
		Version: "0.1.0",
	}, nil)

	s.mcp = mcpServer
	s.registerResources()
	s.registerTools()

	return s, nil
}

// Run starts the MCP server on the stdio transport.
func (s *Server) Run(ctx context.Context) error {
	log.Println("[server] starting MCP server on stdio transport")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// resource describes one snapshot document exposed over MCP.
type resource struct {
	uri, name, description, artifact, mime string
}

var resources = []resource{
	{"modmap://snapshot/report", "Module Map Report", "Markdown report of directories, communities and risk zones", "report.md", "text/markdown"},
	{"modmap://snapshot/analysis", "Directory Analysis", "Per-directory type counts, relations and coupling metrics", engine.AnalysisFile, "application/json"},
	{"modmap://snapshot/communities", "Communities", "Directory communities and the links between them", engine.CommunitiesFile, "application/json"},
	{"modmap://snapshot/insights", "Architecture Insights", "Cycles, layer violations and unstable dependencies", engine.InsightsFile, "application/json"},
	{"modmap://snapshot/meta", "Snapshot Metadata", "Metadata about the last snapshot generation", engine.MetaFile, "application/json"},
}

// registerResources adds MCP resources for snapshot artifacts.
func (s *Server) registerResources() {
	for _, r := range resources {
		s.mcp.AddResource(&mcp.Resource{
			URI:         r.uri,
			Name:        r.name,
			Description: r.description,
			MIMEType:    r.mime,
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			content, err := s.eng.GetArtifact(r.artifact)
			if err != nil {
				return nil, fmt.Errorf("no snapshot available: %w (run analyze_structure first)", err)
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: req.Params.URI, Text: string(content), MIMEType: r.mime},
				},
			}, nil
		})
	}
}

// analyzeArgs are the arguments for the analyze_structure tool.
type analyzeArgs struct {
	RepoPath string `json:"repo_path,omitempty" jsonschema:"Path to the project to analyze. Defaults to the configured repo path."`
	Root     string `json:"root,omitempty" jsonschema:"Sub-directory of the project used as the analysis root"`
}

// detectArgs are the arguments for the detect_communities tool.
type detectArgs struct {
	MaxPasses int `json:"max_passes,omitempty" jsonschema:"Upper bound on detection passes. 0 uses the configured default."`
}

// getDirectoryArgs are the arguments for the get_directory tool.
type getDirectoryArgs struct {
	Key string `json:"key" jsonschema:"Directory key (e.g. src/Domain) or a substring of one"`
}

// registerTools adds MCP tools for analysis and exploration.
func (s *Server) registerTools() {
	// Tool: analyze_structure
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "analyze_structure",
		Description: "Analyze a PHP project. Counts classes, interfaces and abstract classes per directory, resolves namespace imports to directory dependencies, computes coupling metrics and groups directories into communities.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args analyzeArgs) (*mcp.CallToolResult, any, error) {
		repoPath := args.RepoPath
		if repoPath == "" {
			repoPath = s.cfg.Repo
		}

		absRepo, err := filepath.Abs(repoPath)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid repo path: %v", err)), nil, nil
		}

		snapshot, err := s.eng.GenerateSnapshot(ctx, absRepo, args.Root)
		if err != nil {
			return errorResult(fmt.Sprintf("analysis failed: %v", err)), nil, nil
		}

		// Write artifacts to disk
		if err := s.eng.WriteArtifacts(s.eng.OutputDir()); err != nil {
			log.Printf("[server] warning: failed to write artifacts: %v", err)
		}

		m := snapshot.Meta
		summary := fmt.Sprintf(
			"Analysis completed.\n\n"+
				"- Project: %s\n"+
				"- Directories: %d\n"+
				"- Files: %d\n"+
				"- Relations: %d\n"+
				"- Communities: %d\n"+
				"- Insights: %d\n"+
				"- Duration: %s\n"+
				"- Parser: %s\n\n"+
				"Use the modmap://snapshot/report resource to read the report.",
			m.RepoPath,
			m.DirectoryCount,
			m.FileCount,
			m.RelationCount,
			m.CommunityCount,
			m.InsightCount,
			m.Duration,
			m.Parser,
		)

		return textResult(summary), nil, nil
	})

	// Tool: detect_communities
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "detect_communities",
		Description: "Re-run community detection on the last analysis and list each community with its member directories and its links to other communities.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args detectArgs) (*mcp.CallToolResult, any, error) {
		maxPasses := args.MaxPasses
		if maxPasses == 0 {
			maxPasses = s.cfg.MaxPasses
		}
		res, err := s.eng.DetectCommunities(ctx, maxPasses)
		if err != nil {
			return errorResult(fmt.Sprintf("community detection failed: %v (run analyze_structure first)", err)), nil, nil
		}

		var sb strings.Builder
		writeCommunities(res, &sb)
		return textResult(sb.String()), nil, nil
	})

	// Tool: get_directory
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_directory",
		Description: "Show everything known about one directory: type counts, metrics, community, outgoing and incoming dependencies.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args getDirectoryArgs) (*mcp.CallToolResult, any, error) {
		snapshot := s.eng.Snapshot()
		if snapshot == nil {
			return errorResult("No snapshot available. Run analyze_structure first."), nil, nil
		}
		if args.Key == "" {
			return errorResult("key is required"), nil, nil
		}

		key := args.Key
		if _, ok := snapshot.Analysis[key]; !ok {
			matches := matchDirectories(snapshot.Analysis, key)
			switch len(matches) {
			case 0:
				return errorResult(fmt.Sprintf("No directory matching %q", key)), nil, nil
			case 1:
				key = matches[0]
			default:
				return textResult(fmt.Sprintf("Multiple directories match %q:\n- %s\n",
					key, strings.Join(matches, "\n- "))), nil, nil
			}
		}

		var sb strings.Builder
		exploreDirectory(snapshot, key, &sb)
		return textResult(sb.String()), nil, nil
	})
}

// matchDirectories returns the sorted directory keys containing substr.
func matchDirectories(a model.Analysis, substr string) []string {
	var out []string
	for _, key := range a.Keys() {
		if strings.Contains(key, substr) {
			out = append(out, key)
		}
	}
	return out
}

// exploreDirectory writes a markdown description of the directory key.
// It reports false when the snapshot has no such directory.
func exploreDirectory(snapshot *model.Snapshot, key string, sb *strings.Builder) bool {
	rec, ok := snapshot.Analysis[key]
	if !ok {
		return false
	}

	sb.WriteString(fmt.Sprintf("# Directory: %s\n\n", key))
	sb.WriteString(fmt.Sprintf("- Files: %d\n", rec.FileCount))
	sb.WriteString(fmt.Sprintf("- Types: %d (%d classes, %d interfaces, %d abstract)\n",
		rec.Total, rec.Classes, rec.Interfaces, rec.Abstracts))
	sb.WriteString(fmt.Sprintf("- LOC: %d, CCN: %d\n", rec.Metrics.LOCTotal, rec.Metrics.CCNTotal))
	sb.WriteString(fmt.Sprintf("- Ce: %d, Ca: %d, Instability: %.3f\n",
		rec.Metrics.EfferentCoupling, rec.Metrics.AfferentCoupling, rec.Metrics.Instability))
	if c := snapshot.Communities; c != nil {
		if label, ok := c.Communities[key]; ok {
			sb.WriteString(fmt.Sprintf("- Community: #%d (representative: %s)\n", c.Index(label), label))
		}
	}

	sb.WriteString(fmt.Sprintf("\n## Depends on (%d)\n\n", len(rec.Relations)))
	for _, target := range rec.Relations {
		sb.WriteString(fmt.Sprintf("- %s\n", target))
	}

	var dependents []string
	for _, other := range snapshot.Analysis.Keys() {
		if other != key && snapshot.Analysis[other].HasRelation(key) {
			dependents = append(dependents, other)
		}
	}
	sb.WriteString(fmt.Sprintf("\n## Used by (%d)\n\n", len(dependents)))
	for _, d := range dependents {
		sb.WriteString(fmt.Sprintf("- %s\n", d))
	}

	var related []string
	for _, insight := range snapshot.Insights {
		for _, ev := range insight.Evidence {
			if ev.Directory == key || ev.Target == key {
				related = append(related, insight.Title)
				break
			}
		}
	}
	if len(related) > 0 {
		sb.WriteString(fmt.Sprintf("\n## Insights (%d)\n\n", len(related)))
		for _, title := range related {
			sb.WriteString(fmt.Sprintf("- %s\n", title))
		}
	}
	return true
}

// writeCommunities lists communities with their members and links.
func writeCommunities(res *model.CommunityResult, sb *strings.Builder) {
	sb.WriteString(fmt.Sprintf("%d communities over %d directories (%d passes, modularity %.3f)\n",
		len(res.Order), res.TotalNodes, res.Passes, res.Modularity))
	if !res.Converged {
		sb.WriteString("Detection stopped at the pass limit without converging.\n")
	}
	for i, label := range res.Order {
		sb.WriteString(fmt.Sprintf("\n## Community #%d (representative: %s)\n\n", i+1, label))
		for _, node := range res.Groups[label] {
			sb.WriteString(fmt.Sprintf("- %s\n", node))
		}

		var links []string
		for j, to := range res.Order {
			if n := res.Dependencies[label][to]; to != label && n > 0 {
				links = append(links, fmt.Sprintf("#%d (%s): %d link(s)", j+1, to, n))
			}
		}
		if len(links) > 0 {
			sb.WriteString("\nLinks: " + strings.Join(links, ", ") + "\n")
		}
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
