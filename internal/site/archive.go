package site

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/mdsite/internal/logfields"
	serrors "git.home.luguber.info/inful/mdsite/internal/site/errors"
)

// ArchiveSelf copies the running executable into the output root, so every
// generated tree carries the exact generator that produced it.
func ArchiveSelf(outputRoot string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("%w: %w", serrors.ErrArchive, err)
	}
	target := filepath.Join(outputRoot, filepath.Base(exe))
	if err := copyFile(exe, target); err != nil {
		return fmt.Errorf("%w: %w", serrors.ErrArchive, err)
	}
	slog.Info("Archived generator executable", logfields.Output(target))
	return nil
}
