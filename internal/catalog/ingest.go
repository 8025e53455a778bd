package catalog

import (
	"fmt"
	"os"

	"github.com/nareynolds/dicommanager-go/internal/datastore"
	"github.com/nareynolds/dicommanager-go/internal/metadata"
)

// IngestOptions controls a batch import.
type IngestOptions struct {
	// DeleteSource removes each source file after it has been catalogued.
	DeleteSource bool

	// NoRecord skips the database: files are stored and aliased without
	// being indexed.
	NoRecord bool

	// NoStore skips storage: series are indexed without copying any
	// files or creating aliases.
	NoStore bool
}

// IngestReport summarizes a batch import. Managed counts files fully
// catalogued, including ones whose bytes were already in storage;
// Duplicates counts that subset.
type IngestReport struct {
	Managed    int
	Duplicates int
	Failed     int
}

// Ingest catalogues each file in paths: parse the header, index the
// series, grant the acting project ownership, place the file into the
// vault and link the series into the project's alias trees. A failing
// file is logged and skipped; the batch always runs to completion.
func (m *Manager) Ingest(paths []string, opts IngestOptions) *IngestReport {
	report := &IngestReport{}
	total := len(paths)

	for i, path := range paths {
		placed, err := m.ingestOne(path, opts)
		if err != nil {
			m.logger.Error("failed to catalogue file", "path", path, "error", err)
			report.Failed++
		} else {
			report.Managed++
			if !placed {
				report.Duplicates++
			}
		}

		if total > 1 {
			fmt.Printf(" Progress: %d%% \r", (i+1)*100/total)
		}
	}
	if total > 1 {
		fmt.Printf("                         \r")
	}

	return report
}

func (m *Manager) ingestOne(path string, opts IngestOptions) (placed bool, err error) {
	rec, err := m.reader.Read(path)
	if err != nil {
		return false, err
	}
	if err := rec.ValidateIdentity(); err != nil {
		return false, err
	}

	project := m.settings.Project

	// index the series, or adopt the existing row when the series is
	// already catalogued; its attributes were fixed by the first import
	var series *datastore.Series
	stored := rec
	if !opts.NoRecord {
		series, err = m.store.FindBySeriesUID(rec.SeriesInstanceUID)
		if err != nil {
			return false, err
		}
		if series == nil {
			series = datastore.FromRecord(rec)
			if err := m.store.InsertSeries(series, project); err != nil {
				return false, err
			}
		} else if err := m.store.GrantOwnership(project, series.ID); err != nil {
			return false, err
		}

		// derive paths from the stored attributes so every file of the
		// series lands in the same directory, whatever this file says
		stored = series.Record()
		stored.SourcePath = path
		stored.SOPInstanceUID = rec.SOPInstanceUID
	}

	placed = true
	if !opts.NoStore {
		placed, err = m.storeOne(path, stored, series)
		if err != nil {
			return false, err
		}
	}

	m.logger.Info("file catalogued",
		"path", path,
		"series_uid", stored.SeriesInstanceUID,
		"stored", placed && !opts.NoStore,
	)

	if opts.DeleteSource {
		if err := os.Remove(path); err != nil {
			return placed, fmt.Errorf("catalogued but failed to delete source: %w", err)
		}
	}

	return placed, nil
}

func (m *Manager) storeOne(path string, stored *metadata.Record, series *datastore.Series) (placed bool, err error) {
	dst, err := m.vault.FilePath(stored)
	if err != nil {
		return false, err
	}
	placed, err = m.vault.Place(path, dst)
	if err != nil {
		return false, err
	}
	if placed && series != nil {
		if err := m.store.IncrementFileCount(series.ID); err != nil {
			return false, err
		}
	}

	seriesDir, err := m.vault.SeriesDir(stored)
	if err != nil {
		return false, err
	}
	if err := m.aliases.Create(seriesDir, m.aliases.ByPatientPath(stored)); err != nil {
		return false, err
	}
	if bucket := m.ageBucket(stored); bucket != "" {
		if err := m.aliases.Create(seriesDir, m.aliases.ByAgePath(stored, bucket)); err != nil {
			return false, err
		}
	}

	return placed, nil
}
