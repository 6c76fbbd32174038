package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "modmap.yaml", `
repo: /srv/project
root: src
parser: treesitter
max_passes: 50
source_roots: [src, modules]
output:
  dir: out
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Repo != "/srv/project" || cfg.Root != "src" {
		t.Errorf("repo/root = %q/%q", cfg.Repo, cfg.Root)
	}
	if cfg.Parser != ParserTreeSitter {
		t.Errorf("Parser = %q, want %q", cfg.Parser, ParserTreeSitter)
	}
	if cfg.MaxPasses != 50 {
		t.Errorf("MaxPasses = %d, want 50", cfg.MaxPasses)
	}
	if len(cfg.SourceRoots) != 2 || cfg.SourceRoots[1] != "modules" {
		t.Errorf("SourceRoots = %v", cfg.SourceRoots)
	}
	if cfg.Output.Dir != "out" {
		t.Errorf("Output.Dir = %q, want out", cfg.Output.Dir)
	}
	// untouched fields keep their defaults
	if cfg.Output.MaxContextTokens != 8000 {
		t.Errorf("MaxContextTokens = %d, want 8000", cfg.Output.MaxContextTokens)
	}
	if len(cfg.Extensions) != 1 || cfg.Extensions[0] != ".php" {
		t.Errorf("Extensions = %v", cfg.Extensions)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "modmap.toml", `
repo = "/srv/project"
extensions = [".php", ".inc"]
respect_gitignore = false

[output]
max_context_tokens = 1000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Repo != "/srv/project" {
		t.Errorf("Repo = %q", cfg.Repo)
	}
	if cfg.MaxPasses != DefaultMaxPasses {
		t.Errorf("MaxPasses = %d, want %d", cfg.MaxPasses, DefaultMaxPasses)
	}
	if len(cfg.Extensions) != 2 {
		t.Errorf("Extensions = %v", cfg.Extensions)
	}
	if cfg.RespectGitignore {
		t.Error("RespectGitignore should be false")
	}
	if cfg.Output.MaxContextTokens != 1000 || cfg.Output.Dir != ".modmap" {
		t.Errorf("Output = %+v", cfg.Output)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeFile(t, "bad.yaml", "repo: [unclosed")); err == nil {
		t.Error("expected error for malformed yaml")
	}
	if _, err := Load(writeFile(t, "neg.yaml", "max_passes: -1")); err == nil {
		t.Error("expected error for negative max_passes")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvRepo, "/from/env")
	t.Setenv(EnvRoot, "lib")

	cfg := Default()
	cfg.ApplyEnv()
	if cfg.Repo != "/from/env" || cfg.Root != "lib" {
		t.Errorf("repo/root = %q/%q", cfg.Repo, cfg.Root)
	}
}

func TestEnabled(t *testing.T) {
	cfg := Default()
	if !cfg.IsExplainerEnabled("cycles") || cfg.IsExplainerEnabled("nope") {
		t.Error("explainer enablement mismatch")
	}
	if !cfg.IsRendererEnabled("report") {
		t.Error("report renderer should be enabled by default")
	}
}
