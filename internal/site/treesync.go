package site

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	serrors "git.home.luguber.info/inful/mdsite/internal/site/errors"
)

// Clear empties the output root ahead of a rebuild while preserving version
// control state: .git and every other dot-prefixed entry survive at any
// depth, as do the directories sheltering them. A missing output root is not
// an error.
func Clear(root string) error {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %w", serrors.ErrOutputPrepare, err)
	}
	_, err := clearDir(root)
	return err
}

// clearDir removes dir's removable contents, reporting whether anything was
// preserved and the directory itself must therefore stay. Failures below the
// root are logged and leave the entry in place.
func clearDir(dir string) (kept bool, err error) {
	listing, err := os.ReadDir(dir)
	if err != nil {
		return true, fmt.Errorf("%w: %w", serrors.ErrOutputPrepare, err)
	}
	for _, item := range listing {
		name := item.Name()
		path := filepath.Join(dir, name)
		if strings.HasPrefix(name, ".") {
			kept = true
			continue
		}
		if item.IsDir() {
			childKept, childErr := clearDir(path)
			if childErr != nil {
				slog.Warn("Leaving directory behind during clear", logfields.Dir(path), logfields.Error(childErr))
				kept = true
				continue
			}
			if childKept {
				kept = true
				continue
			}
			if rmErr := os.Remove(path); rmErr != nil {
				slog.Warn("Failed to remove directory during clear", logfields.Dir(path), logfields.Error(rmErr))
				kept = true
			}
			continue
		}
		if rmErr := os.Remove(path); rmErr != nil {
			slog.Warn("Failed to remove file during clear", logfields.Path(path), logfields.Error(rmErr))
			kept = true
		}
	}
	return kept, nil
}

// CopyAssets mirrors the asset directory into the output root. The source
// defaults to an "asset" directory next to the running executable; a missing
// source is logged and skipped.
func CopyAssets(outputRoot, sourceOverride string) error {
	source := sourceOverride
	if source == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("%w: locate executable: %w", serrors.ErrAssetCopy, err)
		}
		source = filepath.Join(filepath.Dir(exe), config.AssetDirName)
	}
	return syncTree(source, filepath.Join(outputRoot, config.AssetDirName), serrors.ErrAssetCopy)
}

// CopyResources mirrors the source tree's _resources directory into the
// output root so relative links into it keep working.
func CopyResources(sourceRoot, outputRoot string) error {
	source := filepath.Join(sourceRoot, config.ResourcesDirName)
	return syncTree(source, filepath.Join(outputRoot, config.ResourcesDirName), serrors.ErrResourceCopy)
}

// syncTree replaces target with a fresh copy of source. A missing source
// leaves any existing target untouched.
func syncTree(source, target string, sentinel error) error {
	if _, err := os.Stat(source); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("Source directory missing, skipping copy", logfields.Dir(source))
			return nil
		}
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	if err := copyDir(source, target); err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	slog.Info("Copied directory", logfields.Source(source), logfields.Output(target))
	return nil
}

func copyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, srcInfo.Mode()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src) // #nosec G304 -- paths come from the build roots
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	dstFile, err := os.Create(dst) // #nosec G304 -- paths come from the build roots
	if err != nil {
		return err
	}
	defer func() {
		_ = dstFile.Close()
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode())
}
