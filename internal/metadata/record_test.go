package metadata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeRecord() *Record {
	return &Record{
		SourcePath:        "/incoming/img0001.dcm",
		SOPInstanceUID:    "1.2.840.113619.2.5.1762583153.215519.978957063.121",
		PatientID:         "4123456",
		AccessionNumber:   "9876543",
		SeriesInstanceUID: "1.2.840.113619.2.5.1762583153.215519.978957063.120",
	}
}

func TestValidateIdentity(t *testing.T) {
	assert.NoError(t, completeRecord().ValidateIdentity())
}

func TestValidateIdentityMissingFields(t *testing.T) {
	rec := completeRecord()
	rec.PatientID = ""
	rec.SOPInstanceUID = ""

	err := rec.ValidateIdentity()
	require.Error(t, err)

	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, rec.SourcePath, missing.Path)
	assert.Equal(t, []string{"PatientID", "SOPInstanceUID"}, missing.Fields)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, `ORIGINAL\PRIMARY\OTHER`, formatValue([]string{"ORIGINAL", "PRIMARY", "OTHER"}))
	assert.Equal(t, "512", formatValue([]int{512}))
	assert.Equal(t, `256\224`, formatValue([]int{256, 224}))
	assert.Equal(t, "1.5", formatValue([]float64{1.5}))
	assert.Equal(t, "HEAD FIRST", formatValue([]byte("HEAD FIRST ")))
	assert.Equal(t, "", formatValue(nil))
	assert.Equal(t, "", formatValue([]string{}))

	// values are reduced to printable ASCII with quotes dropped
	assert.Equal(t, "OBrien^Pat", formatValue("O'Brien^Pat"))
	assert.Equal(t, "routine scan", formatValue("routine\x00 \"scan\"\n"))
}

func TestUnreadableFileError(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := &UnreadableFileError{Path: "/incoming/notes.txt", Err: cause}

	assert.Contains(t, err.Error(), "/incoming/notes.txt")
	assert.ErrorIs(t, err, cause)
}
