package catalog

import (
	"errors"
	"fmt"

	"github.com/nareynolds/dicommanager-go/internal/datastore"
	"github.com/nareynolds/dicommanager-go/internal/vault"
)

// ExportOptions controls the shape of an export batch.
type ExportOptions struct {
	// AgeBreakdown groups exported series into age-bucket directories
	// by patient age at scan time.
	AgeBreakdown bool

	// DirectoryTree replicates the storage hierarchy under the
	// destination root.
	DirectoryTree bool

	// ReadableSlug keeps human-readable series directory names; when
	// false exported series directories are named by SeriesInstanceUID.
	ReadableSlug bool
}

// ExportReport summarizes an export batch.
type ExportReport struct {
	Exported int
	Skipped  int
	Failed   int
}

// Export copies each owned series to dstRoot. Series that fail are
// logged and skipped; existing destinations are never overwritten.
func (m *Manager) Export(ids []uint, dstRoot string, opts ExportOptions) *ExportReport {
	report := &ExportReport{}
	total := len(ids)

	for i, id := range ids {
		switch err := m.exportOne(id, dstRoot, opts); {
		case err == nil:
			report.Exported++
		case isSkippable(err):
			m.logger.Warn("series skipped", "series_id", id, "reason", err)
			report.Skipped++
		default:
			m.logger.Error("failed to export series", "series_id", id, "error", err)
			report.Failed++
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

func isSkippable(err error) bool {
	var exists *vault.DestinationExistsError
	return errors.As(err, &exists)
}

func (m *Manager) exportOne(id uint, dstRoot string, opts ExportOptions) error {
	series, err := m.store.GetSeries(id)
	if err != nil {
		return err
	}

	owned, err := m.store.IsOwnedBy(m.settings.Project, id)
	if err != nil {
		return err
	}
	if !owned {
		return fmt.Errorf("series %d: %w", id, datastore.ErrNotOwned)
	}

	rec := series.Record()
	vaultOpts := vault.ExportOptions{
		DirectoryTree: opts.DirectoryTree,
		ReadableSlug:  opts.ReadableSlug,
	}
	if opts.AgeBreakdown {
		vaultOpts.AgeBucket = m.ageBucket(rec)
	}

	if err := m.vault.Export(rec, dstRoot, vaultOpts); err != nil {
		return err
	}

	m.logger.Info("series exported", "series_id", id, "dst", dstRoot)
	return nil
}
