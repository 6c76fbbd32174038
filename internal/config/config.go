package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the modmap.yaml (or modmap.toml) configuration.
type Config struct {
	Repo             string       `yaml:"repo" toml:"repo"`
	Root             string       `yaml:"root" toml:"root"` // optional sub-path used as the analysis root
	Extensions       []string     `yaml:"extensions" toml:"extensions"`
	Ignore           []string     `yaml:"ignore" toml:"ignore"`
	RespectGitignore bool         `yaml:"respect_gitignore" toml:"respect_gitignore"`
	Parser           string       `yaml:"parser" toml:"parser"`
	SourceRoots      []string     `yaml:"source_roots" toml:"source_roots"`
	MaxPasses        int          `yaml:"max_passes" toml:"max_passes"` // 0 = run until no node moves (may not terminate)
	CacheSize        int          `yaml:"cache_size" toml:"cache_size"`
	Explainers       []string     `yaml:"explainers" toml:"explainers"`
	Renderers        []string     `yaml:"renderers" toml:"renderers"`
	Output           OutputConfig `yaml:"output" toml:"output"`
}

// OutputConfig controls where and how output artifacts are generated.
type OutputConfig struct {
	Dir              string `yaml:"dir" toml:"dir"`
	MaxContextTokens int    `yaml:"max_context_tokens" toml:"max_context_tokens"`
}

// Parser names.
const (
	ParserLexical    = "lexical"
	ParserTreeSitter = "treesitter"
)

// DefaultMaxPasses bounds community detection. Small cycles such as a lone
// triangle make the local search oscillate forever without it.
const DefaultMaxPasses = 100

// Environment overrides applied by Load.
const (
	EnvRepo = "MODMAP_REPO"
	EnvRoot = "MODMAP_ROOT"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Repo:       ".",
		Extensions: []string{".php"},
		Ignore: []string{
			"vendor/**",
			"node_modules/**",
			".git/**",
			".modmap/**",
		},
		RespectGitignore: true,
		Parser:           ParserLexical,
		SourceRoots:      []string{"src", "lib", "app"},
		MaxPasses:        DefaultMaxPasses,
		CacheSize:        4096,
		Explainers:       []string{"cycles", "layers", "stability"},
		Renderers:        []string{"report"},
		Output: OutputConfig{
			Dir:              ".modmap",
			MaxContextTokens: 8000,
		},
	}
}

// Load reads a configuration file from the given path. Files ending in
// .toml are decoded as TOML, everything else as YAML.
// Missing fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Ensure required defaults
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = ".modmap"
	}
	if cfg.Output.MaxContextTokens == 0 {
		cfg.Output.MaxContextTokens = 8000
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".php"}
	}
	if cfg.Parser == "" {
		cfg.Parser = ParserLexical
	}
	if cfg.MaxPasses < 0 {
		return nil, fmt.Errorf("parsing config %s: max_passes must be >= 0, got %d", path, cfg.MaxPasses)
	}

	return cfg, nil
}

// ApplyEnv overrides repo and root from the environment when set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvRepo); v != "" {
		c.Repo = v
	}
	if v := os.Getenv(EnvRoot); v != "" {
		c.Root = v
	}
}

// IsExplainerEnabled returns true if the named explainer is enabled.
func (c *Config) IsExplainerEnabled(name string) bool {
	return contains(c.Explainers, name)
}

// IsRendererEnabled returns true if the named renderer is enabled.
func (c *Config) IsRendererEnabled(name string) bool {
	return contains(c.Renderers, name)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
