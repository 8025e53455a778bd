package catalog

import (
	"errors"
	"fmt"

	"github.com/nareynolds/dicommanager-go/internal/datastore"
)

// LookupKey selects a single catalogued series. Exactly one field
// should be set; they are tried in declaration order.
type LookupKey struct {
	RecordID  uint
	SeriesUID string
	Accession string
	PatientID string
}

// PatientIDs returns the distinct patient IDs among the project's
// series.
func (m *Manager) PatientIDs() ([]string, error) {
	return m.store.PatientIDs(m.settings.Project)
}

// AccessionNumbers returns the distinct accession numbers among the
// project's series.
func (m *Manager) AccessionNumbers() ([]string, error) {
	return m.store.AccessionNumbers(m.settings.Project)
}

// Lookup fetches one series row by whichever identifier the key
// carries. Accession and patient lookups return the study's or
// patient's first recorded series.
func (m *Manager) Lookup(key LookupKey) (*datastore.Series, error) {
	switch {
	case key.RecordID != 0:
		return m.store.GetSeries(key.RecordID)

	case key.SeriesUID != "":
		series, err := m.store.FindBySeriesUID(key.SeriesUID)
		if err != nil {
			return nil, err
		}
		if series == nil {
			return nil, fmt.Errorf("series %s: %w", key.SeriesUID, datastore.ErrNotFound)
		}
		return series, nil

	case key.Accession != "":
		series, err := m.store.SeriesByAccession(key.Accession)
		if err != nil {
			return nil, err
		}
		if len(series) == 0 {
			return nil, fmt.Errorf("accession number %s: %w", key.Accession, datastore.ErrNotFound)
		}
		return &series[0], nil

	case key.PatientID != "":
		series, err := m.store.FindByPatientID(key.PatientID)
		if err != nil {
			return nil, err
		}
		if series == nil {
			return nil, fmt.Errorf("patient %s: %w", key.PatientID, datastore.ErrNotFound)
		}
		return series, nil

	default:
		return nil, errors.New("no identifier given")
	}
}
