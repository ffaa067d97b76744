package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/site"
)

// writeSource writes a source file, creating parent directories as needed.
func writeSource(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// touch backdates a file so aggregate ordering is deterministic.
func touch(t *testing.T, path string, at time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, at, at))
}

// buildSite runs one full generation and returns the report.
func buildSite(t *testing.T, cfg *config.Config, srcRoot, outRoot string) *site.Report {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	builder, err := site.NewBuilder(cfg, srcRoot, outRoot)
	require.NoError(t, err)
	report, err := builder.Build(context.Background())
	require.NoError(t, err)
	return report
}

// readOutput returns the content of a generated file.
func readOutput(t *testing.T, outRoot, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outRoot, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

// outputExists reports whether a generated path is present.
func outputExists(outRoot, rel string) bool {
	_, err := os.Stat(filepath.Join(outRoot, filepath.FromSlash(rel)))
	return err == nil
}

// removeSource deletes a source file between builds.
func removeSource(root, rel string) error {
	return os.Remove(filepath.Join(root, filepath.FromSlash(rel)))
}
