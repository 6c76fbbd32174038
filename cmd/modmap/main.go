package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/dejo1307/modmap/internal/analysis"
	"github.com/dejo1307/modmap/internal/community"
	"github.com/dejo1307/modmap/internal/config"
	"github.com/dejo1307/modmap/internal/engine"
	"github.com/dejo1307/modmap/internal/explainers/cycles"
	"github.com/dejo1307/modmap/internal/explainers/layers"
	"github.com/dejo1307/modmap/internal/explainers/stability"
	"github.com/dejo1307/modmap/internal/extractors"
	"github.com/dejo1307/modmap/internal/extractors/phpextractor"
	"github.com/dejo1307/modmap/internal/extractors/tsphp"
	"github.com/dejo1307/modmap/internal/model"
	"github.com/dejo1307/modmap/internal/renderers/report"
	"github.com/dejo1307/modmap/internal/server"
)

const defaultConfig = "modmap.yaml"

func main() {
	// Ensure log output goes to stderr, never stdout (MCP uses stdout for JSON-RPC)
	log.SetOutput(os.Stderr)

	// A missing .env is fine
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatalf("error: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "modmap",
		Usage: "Map the directory dependencies and communities of a PHP code base",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   defaultConfig,
				Usage:   "Configuration file (.yaml or .toml)",
			},
			&cli.StringFlag{
				Name:  "parser",
				Usage: "Symbol extractor: lexical or treesitter (overrides the config)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Analyze a project and write the per-directory analysis as JSON",
				ArgsUsage: "<path> [root]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output file (default analysis_<name>[_root_<root>]_<timestamp>.json)",
					},
				},
				Action: analyzeCommand,
			},
			{
				Name:      "communities",
				Usage:     "Detect directory communities in an analysis file",
				ArgsUsage: "[analysis.json]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Value:   "results.json",
						Usage:   "File the community result is written to",
					},
					&cli.IntFlag{
						Name:  "max-passes",
						Value: -1,
						Usage: "Upper bound on detection passes, 0 for unbounded (default from config)",
					},
				},
				Action: communitiesCommand,
			},
			{
				Name:      "snapshot",
				Usage:     "Run the full pipeline and write all artifacts",
				ArgsUsage: "<path> [root]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Artifact directory (default <path>/<output.dir>)",
					},
				},
				Action: snapshotCommand,
			},
			{
				Name:   "serve",
				Usage:  "Serve the analysis over MCP on stdio",
				Action: serveCommand,
			},
		},
	}
}

// loadConfig reads the config named by --config, falling back to defaults
// when the default file is absent, then applies environment and flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || c.IsSet("config") {
			return nil, err
		}
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	if p := c.String("parser"); p != "" {
		cfg.Parser = p
	}
	return cfg, nil
}

func newExtractors() *extractors.Registry {
	reg := extractors.NewRegistry()
	reg.Register(phpextractor.New())
	reg.Register(tsphp.New())
	return reg
}

func newEngine(cfg *config.Config) (*engine.Engine, error) {
	eng, err := engine.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	// Register extractors
	for _, ext := range newExtractors().All() {
		eng.RegisterExtractor(ext)
	}

	// Register explainers
	eng.RegisterExplainer(cycles.New())
	eng.RegisterExplainer(layers.New())
	eng.RegisterExplainer(stability.New())

	// Register renderers
	eng.RegisterRenderer(report.New(cfg.Output.MaxContextTokens))
	return eng, nil
}

// pathArgs returns the <path> and [root] arguments, defaulting to the config.
func pathArgs(c *cli.Context, cfg *config.Config) (string, string) {
	path, root := c.Args().Get(0), c.Args().Get(1)
	if path == "" {
		path = cfg.Repo
	}
	if root == "" {
		root = cfg.Root
	}
	return path, root
}

func analyzeCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	path, root := pathArgs(c, cfg)

	ext := newExtractors().Get(cfg.Parser)
	if ext == nil {
		return fmt.Errorf("unknown parser %q", cfg.Parser)
	}

	fmt.Fprintf(c.App.Writer, "Analyzing: %s\n", path)
	if root != "" {
		fmt.Fprintf(c.App.Writer, "Root directory: %s\n", root)
	}

	res, err := analysis.Analyze(c.Context, analysis.Options{
		Root:             path,
		SubRoot:          root,
		Extensions:       cfg.Extensions,
		Ignore:           cfg.Ignore,
		RespectGitignore: cfg.RespectGitignore,
		SourceRoots:      cfg.SourceRoots,
		Files:            analysis.NewSourceAnalyzer(ext),
	})
	if err != nil {
		return err
	}

	out := c.String("out")
	if out == "" {
		out = analysisFileName(path, root, time.Now())
	}
	if err := res.Analysis.WriteJSONFile(out); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Analysis saved to: %s (%d directories, %d files, %d relations)\n",
		out, len(res.Analysis), res.Analysis.FileCount(), res.Analysis.RelationCount())
	return nil
}

// analysisFileName builds analysis_<name>[_root_<root>]_<timestamp>.json.
func analysisFileName(path, root string, now time.Time) string {
	name := filepath.Base(filepath.Clean(path))
	if name == "." || name == string(filepath.Separator) {
		name = "local_project"
	}
	suffix := ""
	if root != "" {
		suffix = "_root_" + strings.ReplaceAll(filepath.ToSlash(strings.Trim(root, `/\`)), "/", "_")
	}
	return fmt.Sprintf("analysis_%s%s_%s.json", name, suffix, now.Format("2006-01-02_15-04-05"))
}

// latestAnalysis returns the most recently modified analysis_*.json in dir.
func latestAnalysis(dir string) (string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, "analysis_*.json"))
	if err != nil {
		return "", fmt.Errorf("finding analysis files: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no analysis file found in %s; run modmap analyze first", dir)
	}

	mtimes := make(map[string]time.Time, len(matches))
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil {
			mtimes[m] = info.ModTime()
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return mtimes[matches[i]].After(mtimes[matches[j]])
	})
	return matches[0], nil
}

func communitiesCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	file := c.Args().Get(0)
	if file == "" {
		file, err = latestAnalysis(".")
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Using analysis file: %s\n\n", file)
	}

	a, err := model.ReadAnalysisFile(file)
	if err != nil {
		return err
	}

	maxPasses := cfg.MaxPasses
	if n := c.Int("max-passes"); n >= 0 {
		maxPasses = n
	}
	res := community.Detect(community.BuildGraph(a), community.Options{MaxPasses: maxPasses})

	if err := report.WriteCommunities(c.App.Writer, res); err != nil {
		return err
	}

	out := c.String("out")
	if err := res.WriteJSONFile(out); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "\nResults saved to %s\n", out)
	return nil
}

func snapshotCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}

	path, root := pathArgs(c, cfg)
	snapshot, err := eng.GenerateSnapshot(c.Context, path, root)
	if err != nil {
		return err
	}

	out := c.String("out")
	if out == "" {
		out = eng.OutputDir()
	}
	if err := eng.WriteArtifacts(out); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\nSnapshot complete:\n")
	fmt.Fprintf(os.Stderr, "  Repository:   %s\n", snapshot.Meta.RepoPath)
	fmt.Fprintf(os.Stderr, "  Directories:  %d\n", snapshot.Meta.DirectoryCount)
	fmt.Fprintf(os.Stderr, "  Communities:  %d\n", snapshot.Meta.CommunityCount)
	fmt.Fprintf(os.Stderr, "  Insights:     %d\n", snapshot.Meta.InsightCount)
	fmt.Fprintf(os.Stderr, "  Duration:     %s\n", snapshot.Meta.Duration)
	fmt.Fprintf(os.Stderr, "  Output:       %s\n", out)
	return nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}

	// Load an existing analysis if available so resources work immediately
	// without requiring an analyze_structure call first.
	if err := loadExisting(c.Context, eng, cfg); err != nil {
		log.Printf("[main] warning: failed to load existing analysis: %v", err)
	}

	srv, err := server.New(eng, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	return srv.Run(c.Context)
}

// loadExisting restores the snapshot from <repo>/<output.dir>/analysis.json.
func loadExisting(ctx context.Context, eng *engine.Engine, cfg *config.Config) error {
	repoPath, err := filepath.Abs(cfg.Repo)
	if err != nil {
		return err
	}
	path := filepath.Join(repoPath, cfg.Output.Dir, engine.AnalysisFile)
	if filepath.IsAbs(cfg.Output.Dir) {
		path = filepath.Join(cfg.Output.Dir, engine.AnalysisFile)
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	log.Printf("[main] loading existing analysis from %s", path)
	a, err := model.ReadAnalysisFile(path)
	if err != nil {
		return err
	}
	eng.SetSnapshot(&model.Snapshot{
		Meta: model.SnapshotMeta{
			RepoPath:       repoPath,
			Root:           cfg.Root,
			DirectoryCount: len(a),
			FileCount:      a.FileCount(),
			RelationCount:  a.RelationCount(),
		},
		Analysis: a,
	})
	if _, err := eng.DetectCommunities(ctx, cfg.MaxPasses); err != nil {
		return err
	}
	log.Printf("[main] loaded %d directories from existing analysis", len(a))
	return nil
}
