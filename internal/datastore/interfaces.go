// Package datastore provides the relational index over catalogued DICOM
// series: the series rows themselves, project ownership grants, wanted
// studies and series notes.
package datastore

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotOwned is returned when an operation touches a series the acting
// project does not own.
var ErrNotOwned = errors.New("series is not owned by this project")

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Interface defines the operations the catalogue needs from its store.
type Interface interface {
	Open() error
	Close() error

	FindBySeriesUID(uid string) (*Series, error)
	FindByPatientID(patientID string) (*Series, error)
	InsertSeries(series *Series, project string) error
	GetSeries(id uint) (*Series, error)
	SeriesByAccession(accession string) ([]Series, error)
	SeriesByPatient(institution, patientID string) ([]Series, error)
	IncrementFileCount(seriesID uint) error
	DeleteSeries(id uint) error

	GrantOwnership(project string, seriesID uint) error
	ReleaseOwnership(project string, seriesID uint) error
	IsOwnedBy(project string, seriesID uint) (bool, error)
	CountOwners(seriesID uint) (int64, error)

	AddNote(project string, seriesID uint, note string) error
	Notes(project string, seriesID uint) ([]SeriesNote, error)
	DeleteNote(project string, noteID uint) error

	AddWanted(project, accession, note string) (bool, error)
	Wanted(project string) ([]WantedStudy, error)
	StudiesToGet(project string) ([]string, error)

	PatientIDs(project string) ([]string, error)
	AccessionNumbers(project string) ([]string, error)
	CountDistinctStudies(accession string) (int64, error)
	CountDistinctPatients(institution, patientID string) (int64, error)
}

// DataStore implements the store operations on a gorm handle.
type DataStore struct {
	DB *gorm.DB
}

// FindBySeriesUID looks up the series row for a SeriesInstanceUID.
// Returns nil without error when the series is not catalogued yet.
func (ds *DataStore) FindBySeriesUID(uid string) (*Series, error) {
	var series Series
	err := ds.DB.Where("series_instance_uid = ?", uid).First(&series).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding series by UID: %w", err)
	}
	return &series, nil
}

// FindByPatientID returns the first catalogued series for a patient ID,
// or nil when the patient has none.
func (ds *DataStore) FindByPatientID(patientID string) (*Series, error) {
	var series Series
	err := ds.DB.Where("patient_id = ?", patientID).Order("id").First(&series).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding series by patient ID: %w", err)
	}
	return &series, nil
}

// InsertSeries records a new series and grants the project ownership in
// one transaction. If another import recorded the same SeriesInstanceUID
// first, the existing row wins: its attributes are kept untouched, the
// caller's series is updated to the stored row, and only the ownership
// grant is applied.
func (ds *DataStore) InsertSeries(series *Series, project string) error {
	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(series).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&ProjectSeries{Project: project, SeriesID: series.ID}).Error
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("error inserting series: %w", err)
	}

	// lost the uniqueness race, adopt the stored row
	existing, ferr := ds.FindBySeriesUID(series.SeriesInstanceUID)
	if ferr != nil {
		return ferr
	}
	if existing == nil {
		return fmt.Errorf("error inserting series: %w", err)
	}
	*series = *existing
	return ds.GrantOwnership(project, series.ID)
}

// GetSeries fetches a series row by its record ID.
func (ds *DataStore) GetSeries(id uint) (*Series, error) {
	var series Series
	err := ds.DB.First(&series, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting series %d: %w", id, err)
	}
	return &series, nil
}

// SeriesByAccession returns all series rows of a study.
func (ds *DataStore) SeriesByAccession(accession string) ([]Series, error) {
	var series []Series
	if err := ds.DB.Where("accession_number = ?", accession).Find(&series).Error; err != nil {
		return nil, fmt.Errorf("error finding series by accession number: %w", err)
	}
	return series, nil
}

// SeriesByPatient returns all series rows recorded for a patient at an
// institution.
func (ds *DataStore) SeriesByPatient(institution, patientID string) ([]Series, error) {
	var series []Series
	err := ds.DB.Where("institution_name = ? AND patient_id = ?", institution, patientID).
		Find(&series).Error
	if err != nil {
		return nil, fmt.Errorf("error finding series by patient: %w", err)
	}
	return series, nil
}

// IncrementFileCount bumps the series' stored-file counter by one. Called
// once per physical copy into the vault, never for deduplicated files.
func (ds *DataStore) IncrementFileCount(seriesID uint) error {
	err := ds.DB.Model(&Series{}).Where("id = ?", seriesID).
		UpdateColumn("number_of_dicoms", gorm.Expr("number_of_dicoms + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("error incrementing file count for series %d: %w", seriesID, err)
	}
	return nil
}

// DeleteSeries removes the series row together with every ownership
// grant and note referencing it, in one transaction.
func (ds *DataStore) DeleteSeries(id uint) error {
	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("series_id = ?", id).Delete(&SeriesNote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("series_id = ?", id).Delete(&ProjectSeries{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Series{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("error deleting series %d: %w", id, err)
	}
	return nil
}

// GrantOwnership records that project owns the series. Granting twice is
// a no-op.
func (ds *DataStore) GrantOwnership(project string, seriesID uint) error {
	err := ds.DB.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&ProjectSeries{Project: project, SeriesID: seriesID}).Error
	if err != nil {
		return fmt.Errorf("error granting ownership of series %d to %s: %w", seriesID, project, err)
	}
	return nil
}

// ReleaseOwnership drops the project's grant and its notes on the
// series, leaving the series row and other projects' grants alone.
func (ds *DataStore) ReleaseOwnership(project string, seriesID uint) error {
	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project = ? AND series_id = ?", project, seriesID).
			Delete(&SeriesNote{}).Error; err != nil {
			return err
		}
		return tx.Where("project = ? AND series_id = ?", project, seriesID).
			Delete(&ProjectSeries{}).Error
	})
	if err != nil {
		return fmt.Errorf("error releasing ownership of series %d from %s: %w", seriesID, project, err)
	}
	return nil
}

// IsOwnedBy reports whether project owns the series.
func (ds *DataStore) IsOwnedBy(project string, seriesID uint) (bool, error) {
	var count int64
	err := ds.DB.Model(&ProjectSeries{}).
		Where("project = ? AND series_id = ?", project, seriesID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("error checking ownership of series %d: %w", seriesID, err)
	}
	return count > 0, nil
}

// CountOwners returns how many projects own the series.
func (ds *DataStore) CountOwners(seriesID uint) (int64, error) {
	var count int64
	err := ds.DB.Model(&ProjectSeries{}).
		Distinct("project").
		Where("series_id = ?", seriesID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error counting owners of series %d: %w", seriesID, err)
	}
	return count, nil
}

// AddNote attaches a note to a series the project owns.
func (ds *DataStore) AddNote(project string, seriesID uint, note string) error {
	owned, err := ds.IsOwnedBy(project, seriesID)
	if err != nil {
		return err
	}
	if !owned {
		return fmt.Errorf("cannot add note to series %d: %w", seriesID, ErrNotOwned)
	}
	err = ds.DB.Create(&SeriesNote{Project: project, SeriesID: seriesID, Note: note}).Error
	if err != nil {
		return fmt.Errorf("error adding note to series %d: %w", seriesID, err)
	}
	return nil
}

// Notes returns the project's notes on a series.
func (ds *DataStore) Notes(project string, seriesID uint) ([]SeriesNote, error) {
	var notes []SeriesNote
	err := ds.DB.Where("project = ? AND series_id = ?", project, seriesID).
		Order("id").Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("error listing notes for series %d: %w", seriesID, err)
	}
	return notes, nil
}

// DeleteNote removes one of the project's own notes. A note belonging
// to another project is refused with ErrNotOwned.
func (ds *DataStore) DeleteNote(project string, noteID uint) error {
	var note SeriesNote
	err := ds.DB.First(&note, noteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("cannot delete note %d: %w", noteID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("error deleting note %d: %w", noteID, err)
	}
	if note.Project != project {
		return fmt.Errorf("cannot delete note %d: %w", noteID, ErrNotOwned)
	}

	if err := ds.DB.Delete(&SeriesNote{}, noteID).Error; err != nil {
		return fmt.Errorf("error deleting note %d: %w", noteID, err)
	}
	return nil
}

// AddWanted marks a study as wanted by the project. Returns false when
// the accession number was already on the list.
func (ds *DataStore) AddWanted(project, accession, note string) (bool, error) {
	result := ds.DB.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&WantedStudy{Project: project, AccessionNumber: accession, Note: note})
	if result.Error != nil {
		return false, fmt.Errorf("error adding wanted study %s: %w", accession, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Wanted returns the project's wanted-study list.
func (ds *DataStore) Wanted(project string) ([]WantedStudy, error) {
	var wanted []WantedStudy
	err := ds.DB.Where("project = ?", project).Order("accession_number").Find(&wanted).Error
	if err != nil {
		return nil, fmt.Errorf("error listing wanted studies: %w", err)
	}
	return wanted, nil
}

// StudiesToGet returns wanted accession numbers the project has not
// imported any series for yet.
func (ds *DataStore) StudiesToGet(project string) ([]string, error) {
	owned := ds.DB.Model(&ProjectSeries{}).Select("series_id").Where("project = ?", project)
	imported := ds.DB.Model(&Series{}).Distinct("accession_number").Where("id IN (?)", owned)

	var accessions []string
	err := ds.DB.Model(&WantedStudy{}).
		Where("project = ? AND accession_number NOT IN (?)", project, imported).
		Order("accession_number").
		Pluck("accession_number", &accessions).Error
	if err != nil {
		return nil, fmt.Errorf("error listing studies to get: %w", err)
	}
	return accessions, nil
}

// PatientIDs returns the distinct patient IDs among the project's series.
func (ds *DataStore) PatientIDs(project string) ([]string, error) {
	owned := ds.DB.Model(&ProjectSeries{}).Select("series_id").Where("project = ?", project)

	var ids []string
	err := ds.DB.Model(&Series{}).
		Distinct("patient_id").
		Where("id IN (?)", owned).
		Order("patient_id").
		Pluck("patient_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("error listing patient IDs: %w", err)
	}
	return ids, nil
}

// AccessionNumbers returns the distinct accession numbers among the
// project's series.
func (ds *DataStore) AccessionNumbers(project string) ([]string, error) {
	owned := ds.DB.Model(&ProjectSeries{}).Select("series_id").Where("project = ?", project)

	var accessions []string
	err := ds.DB.Model(&Series{}).
		Distinct("accession_number").
		Where("id IN (?)", owned).
		Order("accession_number").
		Pluck("accession_number", &accessions).Error
	if err != nil {
		return nil, fmt.Errorf("error listing accession numbers: %w", err)
	}
	return accessions, nil
}

// CountDistinctStudies counts the distinct studies an accession number
// resolves to across the whole catalogue. A destructive study operation
// proceeds only when this is exactly one.
func (ds *DataStore) CountDistinctStudies(accession string) (int64, error) {
	var count int64
	err := ds.DB.Raw(
		`SELECT COUNT(*) FROM (
			SELECT DISTINCT study_instance_uid, institution_name, study_date,
				patient_id, accession_number, study_description
			FROM series WHERE accession_number = ?
		)`, accession).Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error counting studies for accession %s: %w", accession, err)
	}
	return count, nil
}

// CountDistinctPatients counts the distinct patients an institution and
// patient ID pair resolves to across the whole catalogue.
func (ds *DataStore) CountDistinctPatients(institution, patientID string) (int64, error) {
	var count int64
	err := ds.DB.Raw(
		`SELECT COUNT(*) FROM (
			SELECT DISTINCT institution_name, patient_id
			FROM series WHERE institution_name = ? AND patient_id = ?
		)`, institution, patientID).Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error counting patients for %s/%s: %w", institution, patientID, err)
	}
	return count, nil
}
