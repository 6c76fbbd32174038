package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejo1307/modmap/internal/model"
)

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"src/a/A.php": "<?php\nnamespace App\\A;\n\nuse App\\B\\Thing;\n\nclass A {}\n",
		"src/b/B.php": "<?php\nnamespace App\\B;\n\nclass Thing {}\n",
		"src/c/C.php": "<?php\nnamespace App\\C;\n\ninterface C {}\n",
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	app.ErrWriter = &buf
	err := app.Run(append([]string{"modmap"}, args...))
	return buf.String(), err
}

func TestAnalysisFileName(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	tests := []struct {
		path, root, want string
	}{
		{"/work/shop", "", "analysis_shop_2024-03-05_14-07-09.json"},
		{"/work/shop/", "src", "analysis_shop_root_src_2024-03-05_14-07-09.json"},
		{"/work/shop", "src/Domain", "analysis_shop_root_src_Domain_2024-03-05_14-07-09.json"},
		{".", "", "analysis_local_project_2024-03-05_14-07-09.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, analysisFileName(tt.path, tt.root, now), "path=%q root=%q", tt.path, tt.root)
	}
}

func TestLatestAnalysis(t *testing.T) {
	dir := t.TempDir()
	_, err := latestAnalysis(dir)
	require.Error(t, err)

	old := filepath.Join(dir, "analysis_old.json")
	recent := filepath.Join(dir, "analysis_new.json")
	require.NoError(t, os.WriteFile(old, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(recent, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "results.json"), []byte("{}"), 0o644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	got, err := latestAnalysis(dir)
	require.NoError(t, err)
	assert.Equal(t, recent, got)
}

func TestAnalyzeThenCommunities(t *testing.T) {
	root := writeProject(t)
	outDir := t.TempDir()
	analysisPath := filepath.Join(outDir, "analysis.json")
	resultsPath := filepath.Join(outDir, "results.json")

	out, err := runApp(t, "analyze", "--out", analysisPath, root, "src")
	require.NoError(t, err)
	assert.Contains(t, out, "Root directory: src")
	assert.Contains(t, out, "(3 directories, 3 files, 1 relations)")

	a, err := model.ReadAnalysisFile(analysisPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, a["a"].Relations)
	assert.Equal(t, 1, a["c"].Interfaces)

	out, err = runApp(t, "communities", "--out", resultsPath, analysisPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Community #1 (representative: b):\n  - a\n  - b\n")
	assert.Contains(t, out, "Community #2 (representative: c):\n  - c\n")
	assert.Contains(t, out, "No dependencies between communities detected.")

	f, err := os.Open(resultsPath)
	require.NoError(t, err)
	defer f.Close()
	res, err := model.ReadCommunityResult(f)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "b", "b": "b", "c": "c"}, res.Communities)
	assert.True(t, res.Converged)
}

func TestAnalyze_MissingRoot(t *testing.T) {
	_, err := runApp(t, "analyze", "--out", filepath.Join(t.TempDir(), "x.json"), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestSnapshotCommand(t *testing.T) {
	root := writeProject(t)
	outDir := filepath.Join(t.TempDir(), "artifacts")

	_, err := runApp(t, "--parser", "treesitter", "snapshot", "--out", outDir, root)
	require.NoError(t, err)
	for _, name := range []string{"analysis.json", "communities.json", "insights.json", "snapshot.meta.json", "report.md"} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
}

func TestUnknownParser(t *testing.T) {
	_, err := runApp(t, "--parser", "nope", "analyze", writeProject(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown parser "nope"`)
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, err := runApp(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "analyze", writeProject(t))
	require.Error(t, err)
}
