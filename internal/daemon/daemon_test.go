package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/history"
	"git.home.luguber.info/inful/mdsite/internal/site"
)

func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", path)
}

func startDaemon(t *testing.T, cfg *config.Config, srcRoot, outRoot string) (chan error, context.CancelFunc) {
	t.Helper()
	builder, err := site.NewBuilder(cfg, srcRoot, outRoot)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() { done <- New(cfg, builder).Run(ctx) }()
	return done, cancel
}

func stopDaemon(t *testing.T, done chan error, cancel context.CancelFunc) {
	t.Helper()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop after cancel")
	}
}

func TestDaemonBuildsAndRebuilds(t *testing.T) {
	srcRoot := t.TempDir()
	outRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcRoot, "a.md"), []byte("# Alpha\n"), 0o600))

	cfg := config.Default()
	cfg.Daemon.QuietWindow = "50ms"
	cfg.Daemon.MaxDelay = "300ms"

	done, cancel := startDaemon(t, cfg, srcRoot, outRoot)

	waitForFile(t, filepath.Join(outRoot, "a.html"))
	waitForFile(t, filepath.Join(outRoot, "index.html"))

	require.NoError(t, os.WriteFile(filepath.Join(srcRoot, "b.md"), []byte("# Beta\n"), 0o600))
	waitForFile(t, filepath.Join(outRoot, "b.html"))

	stopDaemon(t, done, cancel)
}

func TestDaemonRebuildPicksUpNewDirectories(t *testing.T) {
	srcRoot := t.TempDir()
	outRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcRoot, "a.md"), []byte("# Alpha\n"), 0o600))

	cfg := config.Default()
	cfg.Daemon.QuietWindow = "50ms"
	cfg.Daemon.MaxDelay = "300ms"

	done, cancel := startDaemon(t, cfg, srcRoot, outRoot)

	waitForFile(t, filepath.Join(outRoot, "a.html"))

	guide := filepath.Join(srcRoot, "guides")
	require.NoError(t, os.Mkdir(guide, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(guide, "intro.md"), []byte("# Intro\n"), 0o600))
	waitForFile(t, filepath.Join(outRoot, "guides", "intro.html"))
	waitForFile(t, filepath.Join(outRoot, "guides", "index.html"))

	stopDaemon(t, done, cancel)
}

func TestDaemonRecordsHistory(t *testing.T) {
	srcRoot := t.TempDir()
	outRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcRoot, "a.md"), []byte("# Alpha\n"), 0o600))

	cfg := config.Default()
	cfg.Daemon.QuietWindow = "50ms"
	cfg.Daemon.MaxDelay = "300ms"
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")

	done, cancel := startDaemon(t, cfg, srcRoot, outRoot)

	waitForFile(t, filepath.Join(outRoot, "a.html"))

	// A second completed build proves the first run's record landed before
	// the store is reopened below.
	require.NoError(t, os.WriteFile(filepath.Join(srcRoot, "b.md"), []byte("# Beta\n"), 0o600))
	waitForFile(t, filepath.Join(outRoot, "b.html"))

	stopDaemon(t, done, cancel)

	store, err := history.NewSQLiteStore(cfg.History.Path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	records, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	for _, rec := range records {
		require.Equal(t, "success", rec.Outcome)
		require.NotEmpty(t, rec.BuildID)
		require.NotZero(t, rec.PagesWritten)
	}
}
