package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Project = "neuro"
	s.Storage.Root = "/data/dicoms"
	applyDefaults(s)
	return s
}

func TestApplyDefaults(t *testing.T) {
	s := &Settings{}
	s.Storage.Root = "/data/dicoms"
	applyDefaults(s)

	assert.Equal(t, "default", s.Project)
	assert.Equal(t, []string{".dcm", ".dicom"}, s.Import.Patterns)
	assert.Equal(t, "/data/dicoms/dicommanager.sqlite", s.Storage.DatabasePath)
	assert.NotEmpty(t, s.AgeBreakdown)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	s := &Settings{}
	s.Project = "neuro"
	s.Storage.Root = "/data/dicoms"
	s.Storage.DatabasePath = "/elsewhere/index.sqlite"
	applyDefaults(s)

	assert.Equal(t, "neuro", s.Project)
	assert.Equal(t, "/elsewhere/index.sqlite", s.Storage.DatabasePath)
}

func TestValidate(t *testing.T) {
	s := validSettings()
	assert.NoError(t, s.Validate())

	s = validSettings()
	s.Storage.Root = ""
	s.Storage.DatabasePath = ""
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.root")
}

func TestValidateAgeBreakdown(t *testing.T) {
	assert.NoError(t, validateAgeBreakdown(DefaultAgeBreakdown()))

	err := validateAgeBreakdown([]AgeRange{{0, 6, "week0"}, {6, 13, "week1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlaps")

	err = validateAgeBreakdown([]AgeRange{{0, 6, ""}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")

	err = validateAgeBreakdown([]AgeRange{{10, 5, "backwards"}})
	require.Error(t, err)
}

func TestStorageLayoutPaths(t *testing.T) {
	s := validSettings()

	assert.Equal(t, filepath.Join("/data/dicoms", "dicoms"), s.DicomDir())
	assert.Equal(t, filepath.Join("/data/dicoms", "projects", "neuro"), s.ProjectDir())
	assert.Equal(t, filepath.Join(s.ProjectDir(), "by_patient"), s.ByPatientDir())
	assert.Equal(t, filepath.Join(s.ProjectDir(), "by_age"), s.ByAgeDir())
}

func TestEnsureDirs(t *testing.T) {
	s := validSettings()
	s.Storage.Root = t.TempDir()

	require.NoError(t, s.EnsureDirs())

	for _, dir := range []string{s.DicomDir(), s.ByPatientDir(), s.ByAgeDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestEnsureDirsMissingRoot(t *testing.T) {
	s := validSettings()
	s.Storage.Root = filepath.Join(t.TempDir(), "no-such-dir")

	assert.Error(t, s.EnsureDirs())
}

func TestNormalizeInstitution(t *testing.T) {
	s := validSettings()
	s.Institutions = map[string][]string{
		"MGH": {"mgh", "massachusetts general", "mass general", "mass. general"},
	}

	assert.Equal(t, "MGH", s.NormalizeInstitution("MGH 1.5T"))
	assert.Equal(t, "MGH", s.NormalizeInstitution("Massachusetts General Hospital"))
	assert.Equal(t, "MGH", s.NormalizeInstitution("mass. general hosp"))
	assert.Equal(t, "Brigham", s.NormalizeInstitution("Brigham"))
	assert.Equal(t, "", s.NormalizeInstitution(""))
}

func TestNormalizeInstitutionOverlappingNeedles(t *testing.T) {
	s := validSettings()
	s.Institutions = map[string][]string{
		"BWH": {"hospital"},
		"MGH": {"general"},
	}

	// "General Hospital" matches needles of both institutions; the
	// resolution must not depend on map iteration order, since storage
	// paths are derived from it on every import and removal
	for i := 0; i < 100; i++ {
		assert.Equal(t, "BWH", s.NormalizeInstitution("General Hospital"))
	}
}
