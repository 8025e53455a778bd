// Package vault manages the shared on-disk DICOM file tree. Paths are
// derived from header fields so the same file always lands in the same
// place, which makes placement idempotent across repeated imports.
package vault

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Vault is the managed storage tree rooted at the dicoms directory.
type Vault struct {
	root      string
	normalize func(string) string
	logger    *slog.Logger
}

// New creates a Vault rooted at root. normalize maps reported
// institution names to canonical ones; pass nil to store names as-is.
func New(root string, normalize func(string) string, logger *slog.Logger) *Vault {
	if normalize == nil {
		normalize = func(name string) string { return name }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Vault{root: root, normalize: normalize, logger: logger}
}

// Root returns the vault's root directory.
func (v *Vault) Root() string {
	return v.root
}

// Place copies the file at src into the tree at dst, creating directories
// as needed. If a file already exists at dst the copy is skipped and
// placed is false; the tree is deduplicated by storage path, so importing
// the same file twice stores it once. The copy goes through a temp file
// in the destination directory so a crash never leaves a partial file at
// the final path.
func (v *Vault) Place(src, dst string) (placed bool, err error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("error creating series directory %s: %w", dir, err)
	}

	if _, err := os.Stat(dst); err == nil {
		v.logger.Debug("file already stored", "path", dst)
		return false, nil
	}

	if err := copyFile(src, dst); err != nil {
		return false, fmt.Errorf("error storing %s: %w", src, err)
	}

	v.logger.Debug("file stored", "src", src, "dst", dst)
	return true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".placing-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// RemoveTree deletes a series directory and its files, then prunes any
// parent directories the removal left empty. dir must be inside the
// vault root.
func (v *Vault) RemoveTree(dir string) error {
	if !v.contains(dir) {
		return fmt.Errorf("refusing to remove %s: not inside storage root %s", dir, v.root)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("error removing series directory %s: %w", dir, err)
	}
	v.logger.Debug("series directory removed", "path", dir)

	return v.PruneEmptyDirs(filepath.Dir(dir))
}

// PruneEmptyDirs removes dir and then each parent in turn while they are
// empty, stopping at the vault root. Keeps the tree free of husk
// directories after series removals.
func (v *Vault) PruneEmptyDirs(dir string) error {
	for v.contains(dir) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				dir = filepath.Dir(dir)
				continue
			}
			return fmt.Errorf("error reading directory %s: %w", dir, err)
		}
		if len(entries) > 0 {
			return nil
		}
		if err := os.Remove(dir); err != nil {
			return fmt.Errorf("error pruning empty directory %s: %w", dir, err)
		}
		dir = filepath.Dir(dir)
	}
	return nil
}

// contains reports whether path lies strictly inside the vault root.
// The root itself is excluded so no destructive operation can be aimed
// at the whole vault.
func (v *Vault) contains(path string) bool {
	rel, err := filepath.Rel(v.root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
