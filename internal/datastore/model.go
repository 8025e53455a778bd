package datastore

import (
	"time"

	"github.com/nareynolds/dicommanager-go/internal/metadata"
)

// Series is the catalogue row for one DICOM series. One row exists per
// SeriesInstanceUID regardless of how many files or projects reference
// it; the header columns are written once, by whichever import recorded
// the series first.
type Series struct {
	ID                uint   `gorm:"primaryKey"`
	NumberOfDicoms    int    `gorm:"not null;default:0"`
	SeriesInstanceUID string `gorm:"uniqueIndex;not null"`

	ImageType                    string
	SOPClassUID                  string
	StudyDate                    string
	SeriesDate                   string
	AcquisitionDate              string
	ContentDate                  string
	AccessionNumber              string `gorm:"index"`
	Modality                     string
	Manufacturer                 string
	InstitutionName              string
	ReferringPhysicianName       string
	StationName                  string
	StudyDescription             string
	SeriesDescription            string
	InstitutionalDepartmentName  string
	PerformingPhysicianName      string
	NameOfPhysiciansReadingStudy string
	OperatorsName                string
	ManufacturerModelName        string
	PatientName                  string
	PatientID                    string `gorm:"index"`
	PatientBirthDate             string
	PatientSex                   string
	PatientAge                   string
	PatientWeight                string
	AdditionalPatientHistory     string
	ScanningSequence             string
	SequenceVariant              string
	ScanOptions                  string
	MRAcquisitionType            string
	AngioFlag                    string
	SliceThickness               string
	RepetitionTime               string
	EchoTime                     string
	InversionTime                string
	NumberOfAverages             string
	ImagingFrequency             string
	EchoNumbers                  string
	MagneticFieldStrength        string
	SpacingBetweenSlices         string
	DeviceSerialNumber           string
	SoftwareVersions             string
	ProtocolName                 string
	PatientPosition              string
	StudyInstanceUID             string
	StudyID                      string
	SeriesNumber                 string
	ImagesInAcquisition          string
	Rows                         string
	Columns                      string
	ReasonForStudy               string
	RequestingPhysician          string
	StudyComments                string
}

func (Series) TableName() string {
	return "series"
}

// ProjectSeries grants a project ownership of a series. The composite
// primary key makes a grant naturally idempotent at the database level.
type ProjectSeries struct {
	Project  string `gorm:"primaryKey"`
	SeriesID uint   `gorm:"primaryKey"`
}

func (ProjectSeries) TableName() string {
	return "project_series"
}

// WantedStudy is a study a project is still looking for, keyed by
// accession number within the project.
type WantedStudy struct {
	Project         string `gorm:"primaryKey"`
	AccessionNumber string `gorm:"primaryKey"`
	Note            string
}

func (WantedStudy) TableName() string {
	return "wanted_studies"
}

// SeriesNote is a free-text annotation a project attached to a series.
type SeriesNote struct {
	ID        uint   `gorm:"primaryKey"`
	Project   string `gorm:"index"`
	SeriesID  uint   `gorm:"index"`
	Note      string
	CreatedAt time.Time
}

func (SeriesNote) TableName() string {
	return "series_notes"
}

// FromRecord builds a Series row from parsed file metadata. The
// SOPInstanceUID is deliberately not carried over: the catalogue indexes
// series, not individual files.
func FromRecord(rec *metadata.Record) *Series {
	return &Series{
		SeriesInstanceUID:            rec.SeriesInstanceUID,
		ImageType:                    rec.ImageType,
		SOPClassUID:                  rec.SOPClassUID,
		StudyDate:                    rec.StudyDate,
		SeriesDate:                   rec.SeriesDate,
		AcquisitionDate:              rec.AcquisitionDate,
		ContentDate:                  rec.ContentDate,
		AccessionNumber:              rec.AccessionNumber,
		Modality:                     rec.Modality,
		Manufacturer:                 rec.Manufacturer,
		InstitutionName:              rec.InstitutionName,
		ReferringPhysicianName:       rec.ReferringPhysicianName,
		StationName:                  rec.StationName,
		StudyDescription:             rec.StudyDescription,
		SeriesDescription:            rec.SeriesDescription,
		InstitutionalDepartmentName:  rec.InstitutionalDepartmentName,
		PerformingPhysicianName:      rec.PerformingPhysicianName,
		NameOfPhysiciansReadingStudy: rec.NameOfPhysiciansReadingStudy,
		OperatorsName:                rec.OperatorsName,
		ManufacturerModelName:        rec.ManufacturerModelName,
		PatientName:                  rec.PatientName,
		PatientID:                    rec.PatientID,
		PatientBirthDate:             rec.PatientBirthDate,
		PatientSex:                   rec.PatientSex,
		PatientAge:                   rec.PatientAge,
		PatientWeight:                rec.PatientWeight,
		AdditionalPatientHistory:     rec.AdditionalPatientHistory,
		ScanningSequence:             rec.ScanningSequence,
		SequenceVariant:              rec.SequenceVariant,
		ScanOptions:                  rec.ScanOptions,
		MRAcquisitionType:            rec.MRAcquisitionType,
		AngioFlag:                    rec.AngioFlag,
		SliceThickness:               rec.SliceThickness,
		RepetitionTime:               rec.RepetitionTime,
		EchoTime:                     rec.EchoTime,
		InversionTime:                rec.InversionTime,
		NumberOfAverages:             rec.NumberOfAverages,
		ImagingFrequency:             rec.ImagingFrequency,
		EchoNumbers:                  rec.EchoNumbers,
		MagneticFieldStrength:        rec.MagneticFieldStrength,
		SpacingBetweenSlices:         rec.SpacingBetweenSlices,
		DeviceSerialNumber:           rec.DeviceSerialNumber,
		SoftwareVersions:             rec.SoftwareVersions,
		ProtocolName:                 rec.ProtocolName,
		PatientPosition:              rec.PatientPosition,
		StudyInstanceUID:             rec.StudyInstanceUID,
		StudyID:                      rec.StudyID,
		SeriesNumber:                 rec.SeriesNumber,
		ImagesInAcquisition:          rec.ImagesInAcquisition,
		Rows:                         rec.Rows,
		Columns:                      rec.Columns,
		ReasonForStudy:               rec.ReasonForStudy,
		RequestingPhysician:          rec.RequestingPhysician,
		StudyComments:                rec.StudyComments,
	}
}

// Record converts the row back to file metadata, for path derivation of
// already-catalogued series.
func (s *Series) Record() *metadata.Record {
	return &metadata.Record{
		SeriesInstanceUID:            s.SeriesInstanceUID,
		ImageType:                    s.ImageType,
		SOPClassUID:                  s.SOPClassUID,
		StudyDate:                    s.StudyDate,
		SeriesDate:                   s.SeriesDate,
		AcquisitionDate:              s.AcquisitionDate,
		ContentDate:                  s.ContentDate,
		AccessionNumber:              s.AccessionNumber,
		Modality:                     s.Modality,
		Manufacturer:                 s.Manufacturer,
		InstitutionName:              s.InstitutionName,
		ReferringPhysicianName:       s.ReferringPhysicianName,
		StationName:                  s.StationName,
		StudyDescription:             s.StudyDescription,
		SeriesDescription:            s.SeriesDescription,
		InstitutionalDepartmentName:  s.InstitutionalDepartmentName,
		PerformingPhysicianName:      s.PerformingPhysicianName,
		NameOfPhysiciansReadingStudy: s.NameOfPhysiciansReadingStudy,
		OperatorsName:                s.OperatorsName,
		ManufacturerModelName:        s.ManufacturerModelName,
		PatientName:                  s.PatientName,
		PatientID:                    s.PatientID,
		PatientBirthDate:             s.PatientBirthDate,
		PatientSex:                   s.PatientSex,
		PatientAge:                   s.PatientAge,
		PatientWeight:                s.PatientWeight,
		AdditionalPatientHistory:     s.AdditionalPatientHistory,
		ScanningSequence:             s.ScanningSequence,
		SequenceVariant:              s.SequenceVariant,
		ScanOptions:                  s.ScanOptions,
		MRAcquisitionType:            s.MRAcquisitionType,
		AngioFlag:                    s.AngioFlag,
		SliceThickness:               s.SliceThickness,
		RepetitionTime:               s.RepetitionTime,
		EchoTime:                     s.EchoTime,
		InversionTime:                s.InversionTime,
		NumberOfAverages:             s.NumberOfAverages,
		ImagingFrequency:             s.ImagingFrequency,
		EchoNumbers:                  s.EchoNumbers,
		MagneticFieldStrength:        s.MagneticFieldStrength,
		SpacingBetweenSlices:         s.SpacingBetweenSlices,
		DeviceSerialNumber:           s.DeviceSerialNumber,
		SoftwareVersions:             s.SoftwareVersions,
		ProtocolName:                 s.ProtocolName,
		PatientPosition:              s.PatientPosition,
		StudyInstanceUID:             s.StudyInstanceUID,
		StudyID:                      s.StudyID,
		SeriesNumber:                 s.SeriesNumber,
		ImagesInAcquisition:          s.ImagesInAcquisition,
		Rows:                         s.Rows,
		Columns:                      s.Columns,
		ReasonForStudy:               s.ReasonForStudy,
		RequestingPhysician:          s.RequestingPhysician,
		StudyComments:                s.StudyComments,
	}
}
