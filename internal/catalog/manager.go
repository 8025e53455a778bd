// Package catalog orchestrates the cataloguing pipeline: reading DICOM
// headers, indexing series, placing files into shared storage and
// maintaining the per-project alias trees.
package catalog

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/nareynolds/dicommanager-go/internal/alias"
	"github.com/nareynolds/dicommanager-go/internal/config"
	"github.com/nareynolds/dicommanager-go/internal/datastore"
	"github.com/nareynolds/dicommanager-go/internal/metadata"
	"github.com/nareynolds/dicommanager-go/internal/vault"
)

// AmbiguousIdentityError reports an identifier that resolves to more
// than one study or patient. Destructive operations refuse to act on
// ambiguous identifiers.
type AmbiguousIdentityError struct {
	Identity string
	Matches  int64
}

func (e *AmbiguousIdentityError) Error() string {
	return fmt.Sprintf("%s resolves to %d distinct entities, refusing to act on it", e.Identity, e.Matches)
}

// Manager ties the reader, store, vault and alias trees together under
// one project's view of the catalogue.
type Manager struct {
	settings *config.Settings
	reader   metadata.Reader
	store    datastore.Interface
	vault    *vault.Vault
	aliases  *alias.Manager
	logger   *slog.Logger
}

// New assembles a Manager from its collaborators.
func New(ctx *config.Context, reader metadata.Reader, store datastore.Interface, v *vault.Vault, aliases *alias.Manager) *Manager {
	logger := ctx.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		settings: ctx.Settings,
		reader:   reader,
		store:    store,
		vault:    v,
		aliases:  aliases,
		logger:   logger,
	}
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// Find walks dir for files matching the configured DICOM name patterns.
// With recursive false only the directory itself is scanned.
func (m *Manager) Find(dir string, recursive bool) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if m.matchesPattern(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error searching %s for DICOM files: %w", dir, err)
	}
	return paths, nil
}

func (m *Manager) matchesPattern(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range m.settings.Import.Patterns {
		if strings.HasSuffix(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// ageBucket resolves the patient's age bucket for the series, or ""
// when the dates are absent or malformed.
func (m *Manager) ageBucket(rec *metadata.Record) string {
	days, err := alias.AgeInDays(rec.StudyDate, rec.PatientBirthDate)
	if err != nil {
		return ""
	}
	bucket, ok := alias.Bucket(m.settings.AgeBreakdown, days)
	if !ok {
		return ""
	}
	return bucket
}
