package metadata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Reader parses a DICOM file into a Record.
type Reader interface {
	Read(path string) (*Record, error)
}

// UnreadableFileError reports a file that could not be parsed as DICOM.
// Imports log these and move on instead of aborting the whole directory.
type UnreadableFileError struct {
	Path string
	Err  error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("unreadable DICOM file %s: %v", e.Path, e.Err)
}

func (e *UnreadableFileError) Unwrap() error { return e.Err }

// FileReader reads DICOM files from disk. Pixel data is skipped; only
// header elements are needed.
type FileReader struct{}

// NewFileReader creates a new instance of FileReader.
func NewFileReader() *FileReader {
	return &FileReader{}
}

// Read parses the DICOM file at path and returns its catalogued header
// fields. Elements absent from the file are left as empty strings.
func (fr *FileReader) Read(path string) (*Record, error) {
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, &UnreadableFileError{Path: path, Err: err}
	}

	rec := &Record{SourcePath: path}

	for _, f := range []struct {
		tag  tag.Tag
		dest *string
	}{
		{tag.Tag{Group: 0x0008, Element: 0x0008}, &rec.ImageType},
		{tag.Tag{Group: 0x0008, Element: 0x0016}, &rec.SOPClassUID},
		{tag.Tag{Group: 0x0008, Element: 0x0018}, &rec.SOPInstanceUID},
		{tag.Tag{Group: 0x0008, Element: 0x0020}, &rec.StudyDate},
		{tag.Tag{Group: 0x0008, Element: 0x0021}, &rec.SeriesDate},
		{tag.Tag{Group: 0x0008, Element: 0x0022}, &rec.AcquisitionDate},
		{tag.Tag{Group: 0x0008, Element: 0x0023}, &rec.ContentDate},
		{tag.Tag{Group: 0x0008, Element: 0x0050}, &rec.AccessionNumber},
		{tag.Tag{Group: 0x0008, Element: 0x0060}, &rec.Modality},
		{tag.Tag{Group: 0x0008, Element: 0x0070}, &rec.Manufacturer},
		{tag.Tag{Group: 0x0008, Element: 0x0080}, &rec.InstitutionName},
		{tag.Tag{Group: 0x0008, Element: 0x0090}, &rec.ReferringPhysicianName},
		{tag.Tag{Group: 0x0008, Element: 0x1010}, &rec.StationName},
		{tag.Tag{Group: 0x0008, Element: 0x1030}, &rec.StudyDescription},
		{tag.Tag{Group: 0x0008, Element: 0x103e}, &rec.SeriesDescription},
		{tag.Tag{Group: 0x0008, Element: 0x1040}, &rec.InstitutionalDepartmentName},
		{tag.Tag{Group: 0x0008, Element: 0x1050}, &rec.PerformingPhysicianName},
		{tag.Tag{Group: 0x0008, Element: 0x1060}, &rec.NameOfPhysiciansReadingStudy},
		{tag.Tag{Group: 0x0008, Element: 0x1070}, &rec.OperatorsName},
		{tag.Tag{Group: 0x0008, Element: 0x1090}, &rec.ManufacturerModelName},
		{tag.Tag{Group: 0x0010, Element: 0x0010}, &rec.PatientName},
		{tag.Tag{Group: 0x0010, Element: 0x0020}, &rec.PatientID},
		{tag.Tag{Group: 0x0010, Element: 0x0030}, &rec.PatientBirthDate},
		{tag.Tag{Group: 0x0010, Element: 0x0040}, &rec.PatientSex},
		{tag.Tag{Group: 0x0010, Element: 0x1010}, &rec.PatientAge},
		{tag.Tag{Group: 0x0010, Element: 0x1030}, &rec.PatientWeight},
		{tag.Tag{Group: 0x0010, Element: 0x21b0}, &rec.AdditionalPatientHistory},
		{tag.Tag{Group: 0x0018, Element: 0x0020}, &rec.ScanningSequence},
		{tag.Tag{Group: 0x0018, Element: 0x0021}, &rec.SequenceVariant},
		{tag.Tag{Group: 0x0018, Element: 0x0022}, &rec.ScanOptions},
		{tag.Tag{Group: 0x0018, Element: 0x0023}, &rec.MRAcquisitionType},
		{tag.Tag{Group: 0x0018, Element: 0x0025}, &rec.AngioFlag},
		{tag.Tag{Group: 0x0018, Element: 0x0050}, &rec.SliceThickness},
		{tag.Tag{Group: 0x0018, Element: 0x0080}, &rec.RepetitionTime},
		{tag.Tag{Group: 0x0018, Element: 0x0081}, &rec.EchoTime},
		{tag.Tag{Group: 0x0018, Element: 0x0082}, &rec.InversionTime},
		{tag.Tag{Group: 0x0018, Element: 0x0083}, &rec.NumberOfAverages},
		{tag.Tag{Group: 0x0018, Element: 0x0084}, &rec.ImagingFrequency},
		{tag.Tag{Group: 0x0018, Element: 0x0086}, &rec.EchoNumbers},
		{tag.Tag{Group: 0x0018, Element: 0x0087}, &rec.MagneticFieldStrength},
		{tag.Tag{Group: 0x0018, Element: 0x0088}, &rec.SpacingBetweenSlices},
		{tag.Tag{Group: 0x0018, Element: 0x1000}, &rec.DeviceSerialNumber},
		{tag.Tag{Group: 0x0018, Element: 0x1020}, &rec.SoftwareVersions},
		{tag.Tag{Group: 0x0018, Element: 0x1030}, &rec.ProtocolName},
		{tag.Tag{Group: 0x0018, Element: 0x5100}, &rec.PatientPosition},
		{tag.Tag{Group: 0x0020, Element: 0x000d}, &rec.StudyInstanceUID},
		{tag.Tag{Group: 0x0020, Element: 0x000e}, &rec.SeriesInstanceUID},
		{tag.Tag{Group: 0x0020, Element: 0x0010}, &rec.StudyID},
		{tag.Tag{Group: 0x0020, Element: 0x0011}, &rec.SeriesNumber},
		{tag.Tag{Group: 0x0020, Element: 0x1002}, &rec.ImagesInAcquisition},
		{tag.Tag{Group: 0x0028, Element: 0x0010}, &rec.Rows},
		{tag.Tag{Group: 0x0028, Element: 0x0011}, &rec.Columns},
		{tag.Tag{Group: 0x0032, Element: 0x1030}, &rec.ReasonForStudy},
		{tag.Tag{Group: 0x0032, Element: 0x1032}, &rec.RequestingPhysician},
		{tag.Tag{Group: 0x0032, Element: 0x4000}, &rec.StudyComments},
	} {
		*f.dest = elementString(&ds, f.tag)
	}

	return rec, nil
}

// elementString returns the element's value rendered as text, or the
// empty string when the element is absent.
func elementString(ds *dicom.Dataset, t tag.Tag) string {
	el, err := ds.FindElementByTag(t)
	if err != nil || el == nil {
		return ""
	}
	return formatValue(el.Value.GetValue())
}

// formatValue renders a parsed element value as a single string.
// Multi-value elements are joined with a backslash.
func formatValue(v any) string {
	switch val := v.(type) {
	case []string:
		return cleanValue(strings.Join(val, `\`))
	case []int:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, `\`)
	case []float64:
		parts := make([]string, len(val))
		for i, f := range val {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return strings.Join(parts, `\`)
	case []byte:
		return cleanValue(string(val))
	case string:
		return cleanValue(val)
	case nil:
		return ""
	default:
		return cleanValue(fmt.Sprint(val))
	}
}

// cleanValue reduces a header value to trimmed printable ASCII with
// quote characters dropped, so values recorded in the catalogue never
// need escaping.
func cleanValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r > 0x7e || r == '\'' || r == '"' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
