// Package metadata reads the header fields of interest out of DICOM
// files and carries them through import, path derivation and indexing.
package metadata

import (
	"fmt"
	"strings"
)

// Record holds the catalogued header fields of a single DICOM file. All
// values are kept as text the way the scanner reported them; multi-value
// elements are joined with a backslash, matching DICOM's own convention.
type Record struct {
	SourcePath     string // path the file was read from, not a header field
	SOPInstanceUID string // unique per file, used as the stored file name

	ImageType                    string
	SOPClassUID                  string
	StudyDate                    string
	SeriesDate                   string
	AcquisitionDate              string
	ContentDate                  string
	AccessionNumber              string
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
	PatientID                    string
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
	SeriesInstanceUID            string
	StudyID                      string
	SeriesNumber                 string
	ImagesInAcquisition          string
	Rows                         string
	Columns                      string
	ReasonForStudy               string
	RequestingPhysician          string
	StudyComments                string
}

// MissingFieldError reports a DICOM file whose header lacks one or more
// of the identity fields the catalogue cannot work without.
type MissingFieldError struct {
	Path   string
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required header fields: %s", e.Path, strings.Join(e.Fields, ", "))
}

// ValidateIdentity checks that the fields identifying the file within
// patient, study and series hierarchies are present. Files failing this
// check are skipped during import rather than filed under empty names.
func (r *Record) ValidateIdentity() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"PatientID", r.PatientID},
		{"AccessionNumber", r.AccessionNumber},
		{"SeriesInstanceUID", r.SeriesInstanceUID},
		{"SOPInstanceUID", r.SOPInstanceUID},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldError{Path: r.SourcePath, Fields: missing}
	}
	return nil
}
