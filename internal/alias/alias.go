// Package alias maintains the per-project symlink trees that organize
// shared storage by patient and by age without duplicating any files.
package alias

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nareynolds/dicommanager-go/internal/metadata"
	"github.com/nareynolds/dicommanager-go/internal/vault"
)

// MissingTargetError reports an alias whose target directory does not
// exist; links are only ever created to stored series directories.
type MissingTargetError struct {
	Target string
}

func (e *MissingTargetError) Error() string {
	return fmt.Sprintf("alias target does not exist: %s", e.Target)
}

// Manager creates and removes series aliases under a project's
// by_patient and by_age directories.
type Manager struct {
	byPatientDir string
	byAgeDir     string
	normalize    func(string) string
	logger       *slog.Logger
}

// New creates a Manager for the given alias tree roots. normalize maps
// reported institution names to canonical ones; nil keeps names as-is.
func New(byPatientDir, byAgeDir string, normalize func(string) string, logger *slog.Logger) *Manager {
	if normalize == nil {
		normalize = func(name string) string { return name }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		byPatientDir: byPatientDir,
		byAgeDir:     byAgeDir,
		normalize:    normalize,
		logger:       logger,
	}
}

// Create links aliasPath to targetDir, creating parent directories as
// needed. Creating an alias that already exists is a no-op.
func (m *Manager) Create(targetDir, aliasPath string) error {
	if _, err := os.Stat(targetDir); err != nil {
		return &MissingTargetError{Target: targetDir}
	}

	if _, err := os.Lstat(aliasPath); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(aliasPath), 0o755); err != nil {
		return fmt.Errorf("error creating alias directory: %w", err)
	}
	if err := os.Symlink(targetDir, aliasPath); err != nil {
		return fmt.Errorf("error creating alias %s: %w", aliasPath, err)
	}

	m.logger.Debug("alias created", "target", targetDir, "alias", aliasPath)
	return nil
}

// Remove deletes the alias link itself, never what it points to.
// Removing an absent alias is a no-op.
func (m *Manager) Remove(aliasPath string) error {
	if err := os.Remove(aliasPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error removing alias %s: %w", aliasPath, err)
	}
	return nil
}

// ByPatientPath derives the record's alias path in the by_patient tree:
// institution/patient/study/series. Empty optional fields get the same
// Unknown sentinels storage paths use, so the tree depth never varies.
func (m *Manager) ByPatientPath(rec *metadata.Record) string {
	study := slug(
		vault.OrUnknown(rec.StudyDate, vault.UnknownDate),
		vault.OrUnknown(rec.PatientAge, vault.UnknownAge),
		rec.AccessionNumber,
		vault.OrUnknown(rec.StudyDescription, vault.UnknownDescription),
	)
	return filepath.Join(
		m.byPatientDir,
		slug(vault.OrUnknown(m.normalize(rec.InstitutionName), vault.UnknownInstitution)),
		slug(rec.PatientID),
		study,
		seriesSlug(rec),
	)
}

// ByAgePath derives the record's alias path in the by_age tree:
// bucket/study/series, with the study level carrying institution and
// patient so studies from different patients stay distinct inside one
// bucket.
func (m *Manager) ByAgePath(rec *metadata.Record, bucket string) string {
	study := slug(
		vault.OrUnknown(rec.StudyDate, vault.UnknownDate),
		vault.OrUnknown(m.normalize(rec.InstitutionName), vault.UnknownInstitution),
		rec.PatientID,
		rec.AccessionNumber,
		vault.OrUnknown(rec.StudyDescription, vault.UnknownDescription),
	)
	return filepath.Join(m.byAgeDir, bucket, study, seriesSlug(rec))
}

func seriesSlug(rec *metadata.Record) string {
	return slug(
		vault.OrUnknown(rec.SeriesDescription, vault.UnknownDescription),
		vault.OrUnknown(rec.ProtocolName, vault.UnknownProtocol),
		rec.SeriesInstanceUID,
	)
}

// slug joins the parts the same way stored series directories are named,
// so alias trees read like the vault tree.
func slug(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ReplaceAll(p, "/", "")
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return vault.Sanitize(strings.ToLower(strings.Join(cleaned, "_")))
}
