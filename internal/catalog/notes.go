package catalog

import (
	"github.com/nareynolds/dicommanager-go/internal/datastore"
)

// AddNotes attaches the note text to each series. Series the project
// does not own are logged and skipped.
func (m *Manager) AddNotes(seriesIDs []uint, text string) (added int) {
	for _, id := range seriesIDs {
		if err := m.store.AddNote(m.settings.Project, id, text); err != nil {
			m.logger.Error("failed to add note", "series_id", id, "error", err)
			continue
		}
		added++
	}
	return added
}

// Notes returns the acting project's notes on a series.
func (m *Manager) Notes(seriesID uint) ([]datastore.SeriesNote, error) {
	return m.store.Notes(m.settings.Project, seriesID)
}

// DeleteNotes removes the given notes. Notes belonging to other
// projects are logged and skipped.
func (m *Manager) DeleteNotes(noteIDs []uint) (deleted int) {
	for _, id := range noteIDs {
		if err := m.store.DeleteNote(m.settings.Project, id); err != nil {
			m.logger.Error("failed to delete note", "note_id", id, "error", err)
			continue
		}
		deleted++
	}
	return deleted
}

// AddWanted puts accession numbers on the project's wanted-study list.
// Numbers already on the list are counted as repeats, not errors.
func (m *Manager) AddWanted(accessions []string, note string) (added, repeats int, err error) {
	for _, accession := range accessions {
		ok, err := m.store.AddWanted(m.settings.Project, accession, note)
		if err != nil {
			return added, repeats, err
		}
		if ok {
			added++
		} else {
			repeats++
		}
	}
	return added, repeats, nil
}

// Wanted returns the project's wanted-study list.
func (m *Manager) Wanted() ([]datastore.WantedStudy, error) {
	return m.store.Wanted(m.settings.Project)
}

// StudiesToGet returns wanted accession numbers with no imported series
// yet.
func (m *Manager) StudiesToGet() ([]string, error) {
	return m.store.StudiesToGet(m.settings.Project)
}
