package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/nareynolds/dicommanager-go/internal/datastore"
)

// DeleteReport summarizes a removal batch.
type DeleteReport struct {
	Removed  int
	Released int
	Failed   int
}

// Delete removes each series from the acting project. A series owned
// only by this project loses its stored files and its catalogue row; a
// series with other owners only loses this project's grant, notes and
// aliases, and its storage stays put.
func (m *Manager) Delete(ids []uint) *DeleteReport {
	report := &DeleteReport{}

	for _, id := range ids {
		removed, err := m.deleteOne(id)
		if err != nil {
			m.logger.Error("failed to remove series", "series_id", id, "error", err)
			report.Failed++
			continue
		}
		if removed {
			report.Removed++
		} else {
			report.Released++
		}
	}

	return report
}

func (m *Manager) deleteOne(id uint) (removed bool, err error) {
	series, err := m.store.GetSeries(id)
	if err != nil {
		return false, err
	}

	project := m.settings.Project
	owned, err := m.store.IsOwnedBy(project, id)
	if err != nil {
		return false, err
	}
	if !owned {
		return false, fmt.Errorf("series %d: %w", id, datastore.ErrNotOwned)
	}

	rec := series.Record()

	// this project's aliases go first, whatever happens to storage
	if err := m.aliases.Remove(m.aliases.ByPatientPath(rec)); err != nil {
		return false, err
	}
	if bucket := m.ageBucket(rec); bucket != "" {
		if err := m.aliases.Remove(m.aliases.ByAgePath(rec, bucket)); err != nil {
			return false, err
		}
	}

	owners, err := m.store.CountOwners(id)
	if err != nil {
		return false, err
	}
	if owners > 1 {
		if err := m.store.ReleaseOwnership(project, id); err != nil {
			return false, err
		}
		m.logger.Info("series released", "series_id", id, "remaining_owners", owners-1)
		return false, nil
	}

	// sole owner: stored files and the catalogue row both go
	seriesDir, err := m.vault.SeriesDir(rec)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(seriesDir); err == nil {
		if err := m.vault.RemoveTree(seriesDir); err != nil {
			return false, err
		}
	} else {
		m.logger.Warn("stored series directory not found", "series_id", id, "path", seriesDir)
	}

	if err := m.store.DeleteSeries(id); err != nil {
		return false, err
	}

	m.logger.Info("series removed", "series_id", id, "series_uid", rec.SeriesInstanceUID)
	return true, nil
}

// DeleteStudy removes every series of the study the accession number
// identifies. The accession number must identify exactly one study
// across the whole catalogue.
func (m *Manager) DeleteStudy(accession string) (*DeleteReport, error) {
	count, err := m.store.CountDistinctStudies(accession)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("accession number %s: %w", accession, datastore.ErrNotFound)
	}
	if count > 1 {
		return nil, &AmbiguousIdentityError{
			Identity: "accession number " + accession,
			Matches:  count,
		}
	}

	series, err := m.store.SeriesByAccession(accession)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(series))
	for i := range series {
		ids[i] = series[i].ID
	}
	return m.Delete(ids), nil
}

// DeletePatient removes every study of the patient the institution and
// patient ID pair identifies. The pair must identify exactly one
// patient across the whole catalogue.
func (m *Manager) DeletePatient(institution, patientID string) (*DeleteReport, error) {
	count, err := m.store.CountDistinctPatients(institution, patientID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("patient %s at %s: %w", patientID, institution, datastore.ErrNotFound)
	}
	if count > 1 {
		return nil, &AmbiguousIdentityError{
			Identity: fmt.Sprintf("patient %s at %s", patientID, institution),
			Matches:  count,
		}
	}

	series, err := m.store.SeriesByPatient(institution, patientID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	total := &DeleteReport{}
	for i := range series {
		accession := series[i].AccessionNumber
		if seen[accession] {
			continue
		}
		seen[accession] = true

		report, err := m.DeleteStudy(accession)
		if err != nil {
			var ambiguous *AmbiguousIdentityError
			if errors.As(err, &ambiguous) {
				m.logger.Warn("study skipped", "accession", accession, "reason", err)
				total.Failed++
				continue
			}
			return total, err
		}
		total.Removed += report.Removed
		total.Released += report.Released
		total.Failed += report.Failed
	}

	return total, nil
}
