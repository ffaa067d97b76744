package publish

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
)

func initRepo(t *testing.T, dir string) *git.Repository {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	return repo
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestPublishCommitsAllChanges(t *testing.T) {
	dir := t.TempDir()
	repo := initRepo(t, dir)
	writeFile(t, filepath.Join(dir, "index.html"), "<html>one</html>")
	writeFile(t, filepath.Join(dir, "sub", "b.html"), "<html>two</html>")

	p := NewPublisher(dir, "mdsite", "mdsite@localhost")
	hash, err := p.Publish("Update generated site")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if hash == "" {
		t.Fatal("expected a commit hash")
	}

	head, err := repo.Head()
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		t.Fatalf("commit object: %v", err)
	}
	if commit.Message != "Update generated site" {
		t.Errorf("commit message = %q", commit.Message)
	}
	if commit.Author.Name != "mdsite" || commit.Author.Email != "mdsite@localhost" {
		t.Errorf("author = %s <%s>", commit.Author.Name, commit.Author.Email)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	status, err := wt.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.IsClean() {
		t.Error("work tree must be clean after publish")
	}
}

func TestPublishCleanTreeIsNoOp(t *testing.T) {
	dir := t.TempDir()
	initRepo(t, dir)
	writeFile(t, filepath.Join(dir, "index.html"), "<html>one</html>")

	p := NewPublisher(dir, "mdsite", "mdsite@localhost")
	if _, err := p.Publish("first"); err != nil {
		t.Fatalf("first publish: %v", err)
	}

	_, err := p.Publish("second")
	if !errors.Is(err, ErrNothingToCommit) {
		t.Fatalf("expected ErrNothingToCommit, got %v", err)
	}
}

func TestPublishWithoutRepository(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.html"), "<html>one</html>")

	p := NewPublisher(dir, "mdsite", "mdsite@localhost")
	_, err := p.Publish("msg")
	if !errors.Is(err, ErrNoRepository) {
		t.Fatalf("expected ErrNoRepository, got %v", err)
	}
}

func TestPublishPicksUpDeletions(t *testing.T) {
	dir := t.TempDir()
	repo := initRepo(t, dir)
	stale := filepath.Join(dir, "stale.html")
	writeFile(t, stale, "<html>old</html>")

	p := NewPublisher(dir, "mdsite", "mdsite@localhost")
	if _, err := p.Publish("initial"); err != nil {
		t.Fatalf("initial publish: %v", err)
	}

	if err := os.Remove(stale); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Publish("remove stale page"); err != nil {
		t.Fatalf("publish after delete: %v", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	status, err := wt.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.IsClean() {
		t.Error("deletion must be committed")
	}
}
