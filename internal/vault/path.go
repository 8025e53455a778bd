package vault

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nareynolds/dicommanager-go/internal/metadata"
)

// Sentinel directory names used when an optional header field is empty,
// so files with incomplete headers still land in a predictable place and
// every derived path keeps the same depth.
const (
	UnknownModality     = "UnknownModality"
	UnknownInstitution  = "UnknownInstitution"
	UnknownManufacturer = "UnknownManufacturer"
	UnknownModelName    = "UnknownModelName"
	UnknownSerialNumber = "UnknownSerialNumber"
	UnknownPatientName  = "UnknownPatientName"
	UnknownSex          = "UnknownSex"
	UnknownAge          = "UnknownAge"
	UnknownDate         = "UnknownDate"
	UnknownDescription  = "UnknownDescription"
	UnknownProtocol     = "UnknownProtocol"
)

// IncompletePathError reports a record lacking a header field that the
// storage path cannot be derived without.
type IncompletePathError struct {
	Path  string // source path of the record, if known
	Field string
}

func (e *IncompletePathError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("cannot derive storage path: missing %s", e.Field)
	}
	return fmt.Sprintf("cannot derive storage path for %s: missing %s", e.Path, e.Field)
}

// OrUnknown substitutes the sentinel for an empty field and strips any
// slashes so a field value cannot add levels to the tree. The alias
// trees use the same substitution so their paths mirror storage paths.
func OrUnknown(value, sentinel string) string {
	if value == "" {
		return sentinel
	}
	return strings.ReplaceAll(value, "/", "")
}

// SeriesDir derives the storage directory for the record's series. The
// layout is modality/institution/scanner/patient/study/series, with each
// level built from header fields, lowercased and sanitized. The same
// record always yields the same directory, which is what makes stored
// series findable from the database alone.
func (v *Vault) SeriesDir(rec *metadata.Record) (string, error) {
	rel, err := v.seriesRel(rec)
	if err != nil {
		return "", err
	}
	return filepath.Join(v.root, rel), nil
}

// FilePath derives the full storage path for the record's file:
// SeriesDir plus <sopinstanceuid>.dcm.
func (v *Vault) FilePath(rec *metadata.Record) (string, error) {
	if rec.SOPInstanceUID == "" {
		return "", &IncompletePathError{Path: rec.SourcePath, Field: "SOPInstanceUID"}
	}
	rel, err := v.seriesRel(rec)
	if err != nil {
		return "", err
	}
	name := Sanitize(strings.ToLower(strings.ReplaceAll(rec.SOPInstanceUID, "/", ""))) + ".dcm"
	return filepath.Join(v.root, rel, name), nil
}

func (v *Vault) seriesRel(rec *metadata.Record) (string, error) {
	if rec.PatientID == "" {
		return "", &IncompletePathError{Path: rec.SourcePath, Field: "PatientID"}
	}
	if rec.AccessionNumber == "" {
		return "", &IncompletePathError{Path: rec.SourcePath, Field: "AccessionNumber"}
	}
	if rec.SeriesInstanceUID == "" {
		return "", &IncompletePathError{Path: rec.SourcePath, Field: "SeriesInstanceUID"}
	}

	modality := OrUnknown(rec.Modality, UnknownModality)
	institution := OrUnknown(v.normalize(rec.InstitutionName), UnknownInstitution)

	scannerSlug := strings.Join([]string{
		OrUnknown(rec.Manufacturer, UnknownManufacturer),
		OrUnknown(rec.ManufacturerModelName, UnknownModelName),
		OrUnknown(rec.DeviceSerialNumber, UnknownSerialNumber),
	}, "_")
	patientSlug := strings.Join([]string{
		strings.ReplaceAll(rec.PatientID, "/", ""),
		OrUnknown(rec.PatientName, UnknownPatientName),
		OrUnknown(rec.PatientSex, UnknownSex),
	}, "_")
	studySlug := strings.Join([]string{
		OrUnknown(rec.StudyDate, UnknownDate),
		OrUnknown(rec.PatientAge, UnknownAge),
		strings.ReplaceAll(rec.AccessionNumber, "/", ""),
		OrUnknown(rec.StudyDescription, UnknownDescription),
	}, "_")
	seriesSlug := strings.Join([]string{
		OrUnknown(rec.SeriesDescription, UnknownDescription),
		OrUnknown(rec.ProtocolName, UnknownProtocol),
		strings.ReplaceAll(rec.SeriesInstanceUID, "/", ""),
	}, "_")

	rel := strings.ToLower(strings.Join([]string{
		modality, institution, scannerSlug, patientSlug, studySlug, seriesSlug,
	}, "/"))

	return Sanitize(rel), nil
}
