package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nareynolds/dicommanager-go/internal/metadata"
)

// ExportOptions controls the shape of an exported series.
type ExportOptions struct {
	// AgeBucket, when non-empty, adds a bucket subdirectory under the
	// destination root so exports group by patient age at scan time.
	AgeBucket string

	// DirectoryTree replicates the full storage hierarchy under the
	// destination; when false only the series directory is copied.
	DirectoryTree bool

	// ReadableSlug keeps the human-readable series directory name; when
	// false the series directory is renamed to its SeriesInstanceUID.
	ReadableSlug bool
}

// DestinationExistsError reports an export destination that already
// holds a directory for the series. Existing exports are never
// overwritten.
type DestinationExistsError struct {
	Path string
}

func (e *DestinationExistsError) Error() string {
	return fmt.Sprintf("export destination already exists: %s", e.Path)
}

// Export copies the record's stored series directory under dstRoot.
// dstRoot must already exist; the series subtree beneath it is created.
func (v *Vault) Export(rec *metadata.Record, dstRoot string, opts ExportOptions) error {
	srcDir, err := v.SeriesDir(rec)
	if err != nil {
		return err
	}
	if _, err := os.Stat(srcDir); err != nil {
		return fmt.Errorf("stored series directory not found: %s", srcDir)
	}
	if _, err := os.Stat(dstRoot); err != nil {
		return fmt.Errorf("destination root not found: %s", dstRoot)
	}

	if opts.AgeBucket != "" {
		dstRoot = filepath.Join(dstRoot, opts.AgeBucket)
	}

	var dstDir string
	if opts.DirectoryTree {
		rel, err := filepath.Rel(v.root, srcDir)
		if err != nil {
			return fmt.Errorf("error relativizing series directory: %w", err)
		}
		dstDir = filepath.Join(dstRoot, rel)
	} else {
		dstDir = filepath.Join(dstRoot, filepath.Base(srcDir))
	}

	if !opts.ReadableSlug {
		dstDir = filepath.Join(filepath.Dir(dstDir), rec.SeriesInstanceUID)
	}

	if _, err := os.Stat(dstDir); err == nil {
		return &DestinationExistsError{Path: dstDir}
	}

	if err := copyTree(srcDir, dstDir); err != nil {
		return fmt.Errorf("error exporting series to %s: %w", dstDir, err)
	}

	v.logger.Debug("series exported", "src", srcDir, "dst", dstDir)
	return nil
}

func copyTree(srcDir, dstDir string) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(dstDir, rel)
		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		return copyFile(path, dst)
	})
}
