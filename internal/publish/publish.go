// Package publish commits the generated output tree in place. The clear
// step preserves the output root's git state across rebuilds; this package
// turns that preserved repository into a publishing channel. It never
// pushes.
package publish

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/mdsite/internal/logfields"
)

// ErrNoRepository is returned when the output root is not a git work tree.
var ErrNoRepository = errors.New("output root is not a git repository")

// ErrNothingToCommit is returned when the work tree has no changes to record.
var ErrNothingToCommit = errors.New("nothing to commit")

// Publisher records generated output as commits in the output root repository.
type Publisher struct {
	dir         string
	authorName  string
	authorEmail string
}

// NewPublisher creates a publisher for the repository at dir.
func NewPublisher(dir, authorName, authorEmail string) *Publisher {
	return &Publisher{
		dir:         dir,
		authorName:  authorName,
		authorEmail: authorEmail,
	}
}

// Publish stages all changes under the output root and commits them with
// the given message. It returns the hash of the new commit.
func (p *Publisher) Publish(message string) (string, error) {
	repo, err := git.PlainOpen(p.dir)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", fmt.Errorf("%w: %s", ErrNoRepository, p.dir)
		}
		return "", fmt.Errorf("open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("get worktree: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("get status: %w", err)
	}
	if status.IsClean() {
		return "", ErrNothingToCommit
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("stage changes: %w", err)
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  p.authorName,
			Email: p.authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	slog.Info("Published generated site",
		logfields.Dir(p.dir),
		slog.String("commit", hash.String()))

	return hash.String(), nil
}
