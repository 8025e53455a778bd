package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nareynolds/dicommanager-go/internal/alias"
	"github.com/nareynolds/dicommanager-go/internal/config"
	"github.com/nareynolds/dicommanager-go/internal/datastore"
	"github.com/nareynolds/dicommanager-go/internal/metadata"
	"github.com/nareynolds/dicommanager-go/internal/vault"
)

// stubReader serves canned records so pipeline tests need no real DICOM
// files.
type stubReader struct {
	records map[string]*metadata.Record
}

func (r *stubReader) Read(path string) (*metadata.Record, error) {
	rec, ok := r.records[path]
	if !ok {
		return nil, &metadata.UnreadableFileError{Path: path, Err: errors.New("not a DICOM file")}
	}
	clone := *rec
	clone.SourcePath = path
	return &clone, nil
}

type testEnv struct {
	manager  *Manager
	reader   *stubReader
	store    datastore.Interface
	settings *config.Settings
	incoming string
}

func newTestEnv(t *testing.T, project string) *testEnv {
	t.Helper()

	settings := &config.Settings{}
	settings.Project = project
	settings.Storage.Root = t.TempDir()
	settings.Storage.DatabasePath = filepath.Join(settings.Storage.Root, "catalog.sqlite")
	settings.Import.Patterns = []string{".dcm", ".dicom"}
	settings.AgeBreakdown = config.DefaultAgeBreakdown()
	require.NoError(t, settings.EnsureDirs())

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx := &config.Context{Settings: settings, Logger: logger}

	v := vault.New(settings.DicomDir(), settings.NormalizeInstitution, logger)
	aliases := alias.New(settings.ByPatientDir(), settings.ByAgeDir(), settings.NormalizeInstitution, logger)
	reader := &stubReader{records: map[string]*metadata.Record{}}

	return &testEnv{
		manager:  New(ctx, reader, store, v, aliases),
		reader:   reader,
		store:    store,
		settings: settings,
		incoming: t.TempDir(),
	}
}

// reuseStore builds a second project's view over the same storage and
// database.
func reuseStore(t *testing.T, env *testEnv, project string) *testEnv {
	t.Helper()

	settings := &config.Settings{}
	*settings = *env.settings
	settings.Project = project
	require.NoError(t, settings.EnsureDirs())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx := &config.Context{Settings: settings, Logger: logger}

	v := vault.New(settings.DicomDir(), settings.NormalizeInstitution, logger)
	aliases := alias.New(settings.ByPatientDir(), settings.ByAgeDir(), settings.NormalizeInstitution, logger)
	reader := &stubReader{records: env.reader.records}

	return &testEnv{
		manager:  New(ctx, reader, env.store, v, aliases),
		reader:   reader,
		store:    env.store,
		settings: settings,
		incoming: env.incoming,
	}
}

func (env *testEnv) addFile(t *testing.T, name string, rec *metadata.Record) string {
	t.Helper()
	path := filepath.Join(env.incoming, name)
	require.NoError(t, os.WriteFile(path, []byte("dicom bytes "+name), 0o644))
	env.reader.records[path] = rec
	return path
}

func imageRecord(seriesUID string, image int) *metadata.Record {
	return &metadata.Record{
		SOPInstanceUID:    fmt.Sprintf("%s.%d", seriesUID, image),
		SeriesInstanceUID: seriesUID,
		PatientID:         "4123456",
		PatientName:       "Doe^Jane",
		PatientSex:        "F",
		PatientAge:        "001D",
		PatientBirthDate:  "20060101",
		AccessionNumber:   "9876543",
		InstitutionName:   "MGH",
		Modality:          "MR",
		Manufacturer:      "GE MEDICAL SYSTEMS",
		StudyDate:         "20060102",
		StudyInstanceUID:  "1.2.840.1.99",
		StudyDescription:  "BRAIN ROUTINE",
		SeriesDescription: "AX T2 FLAIR",
		ProtocolName:      "BRAIN ROUTINE",
	}
}

func TestIngestCataloguesFile(t *testing.T) {
	env := newTestEnv(t, "neuro")
	path := env.addFile(t, "img1.dcm", imageRecord("1.2.3.4", 1))

	report := env.manager.Ingest([]string{path}, IngestOptions{})
	assert.Equal(t, 1, report.Managed)
	assert.Zero(t, report.Duplicates)
	assert.Zero(t, report.Failed)

	series, err := env.store.FindBySeriesUID("1.2.3.4")
	require.NoError(t, err)
	require.NotNil(t, series)
	assert.Equal(t, 1, series.NumberOfDicoms)

	owned, err := env.store.IsOwnedBy("neuro", series.ID)
	require.NoError(t, err)
	assert.True(t, owned)

	// file landed in the vault
	rec := series.Record()
	rec.SOPInstanceUID = "1.2.3.4.1"
	v := vault.New(env.settings.DicomDir(), env.settings.NormalizeInstitution, nil)
	dst, err := v.FilePath(rec)
	require.NoError(t, err)
	assert.FileExists(t, dst)

	// both alias trees link to the series directory
	seriesDir, err := v.SeriesDir(rec)
	require.NoError(t, err)

	aliases := alias.New(env.settings.ByPatientDir(), env.settings.ByAgeDir(), env.settings.NormalizeInstitution, nil)
	linked, err := os.Readlink(aliases.ByPatientPath(rec))
	require.NoError(t, err)
	assert.Equal(t, seriesDir, linked)

	// one day old at scan time
	linked, err = os.Readlink(aliases.ByAgePath(rec, "day0000-0006_week0_year0"))
	require.NoError(t, err)
	assert.Equal(t, seriesDir, linked)

	// source file stays put without the delete option
	assert.FileExists(t, path)
}

func TestIngestTwiceDeduplicates(t *testing.T) {
	env := newTestEnv(t, "neuro")
	path := env.addFile(t, "img1.dcm", imageRecord("1.2.3.4", 1))

	report := env.manager.Ingest([]string{path, path}, IngestOptions{})
	assert.Equal(t, 2, report.Managed)
	assert.Equal(t, 1, report.Duplicates)

	series, err := env.store.FindBySeriesUID("1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 1, series.NumberOfDicoms)
}

func TestIngestFirstWriteWinsAttributes(t *testing.T) {
	env := newTestEnv(t, "neuro")
	first := env.addFile(t, "img1.dcm", imageRecord("1.2.3.4", 1))

	changed := imageRecord("1.2.3.4", 2)
	changed.SeriesDescription = "RELABELED"
	second := env.addFile(t, "img2.dcm", changed)

	report := env.manager.Ingest([]string{first, second}, IngestOptions{})
	assert.Equal(t, 2, report.Managed)
	assert.Zero(t, report.Failed)

	series, err := env.store.FindBySeriesUID("1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "AX T2 FLAIR", series.SeriesDescription)
	assert.Equal(t, 2, series.NumberOfDicoms)

	// both files are in the one series directory the first import named
	v := vault.New(env.settings.DicomDir(), env.settings.NormalizeInstitution, nil)
	seriesDir, err := v.SeriesDir(series.Record())
	require.NoError(t, err)

	entries, err := os.ReadDir(seriesDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestIngestUnreadableFileSkipped(t *testing.T) {
	env := newTestEnv(t, "neuro")
	good := env.addFile(t, "img1.dcm", imageRecord("1.2.3.4", 1))
	bad := filepath.Join(env.incoming, "notes.txt")
	require.NoError(t, os.WriteFile(bad, []byte("not dicom"), 0o644))

	report := env.manager.Ingest([]string{bad, good}, IngestOptions{})
	assert.Equal(t, 1, report.Managed)
	assert.Equal(t, 1, report.Failed)
}

func TestIngestMissingIdentitySkipped(t *testing.T) {
	env := newTestEnv(t, "neuro")
	rec := imageRecord("1.2.3.4", 1)
	rec.AccessionNumber = ""
	path := env.addFile(t, "img1.dcm", rec)

	report := env.manager.Ingest([]string{path}, IngestOptions{})
	assert.Zero(t, report.Managed)
	assert.Equal(t, 1, report.Failed)
}

func TestIngestDeleteSource(t *testing.T) {
	env := newTestEnv(t, "neuro")
	path := env.addFile(t, "img1.dcm", imageRecord("1.2.3.4", 1))

	report := env.manager.Ingest([]string{path}, IngestOptions{DeleteSource: true})
	assert.Equal(t, 1, report.Managed)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFind(t *testing.T) {
	env := newTestEnv(t, "neuro")
	root := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.dcm"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.DCM"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), nil, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "c.dicom"), nil, 0o644))

	paths, err := env.manager.Find(root, true)
	require.NoError(t, err)
	assert.Len(t, paths, 3)

	paths, err = env.manager.Find(root, false)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestDeleteSoleOwnerRemovesStorage(t *testing.T) {
	env := newTestEnv(t, "neuro")
	path := env.addFile(t, "img1.dcm", imageRecord("1.2.3.4", 1))
	env.manager.Ingest([]string{path}, IngestOptions{})

	series, err := env.store.FindBySeriesUID("1.2.3.4")
	require.NoError(t, err)

	report := env.manager.Delete([]uint{series.ID})
	assert.Equal(t, 1, report.Removed)
	assert.Zero(t, report.Released)

	gone, err := env.store.FindBySeriesUID("1.2.3.4")
	require.NoError(t, err)
	assert.Nil(t, gone)

	// storage pruned all the way up
	entries, err := os.ReadDir(env.settings.DicomDir())
	require.NoError(t, err)
	assert.Empty(t, entries)

	// aliases gone too
	aliases := alias.New(env.settings.ByPatientDir(), env.settings.ByAgeDir(), env.settings.NormalizeInstitution, nil)
	_, err = os.Lstat(aliases.ByPatientPath(series.Record()))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteSharedSeriesReleasesOnly(t *testing.T) {
	neuro := newTestEnv(t, "neuro")
	path := neuro.addFile(t, "img1.dcm", imageRecord("1.2.3.4", 1))
	neuro.manager.Ingest([]string{path}, IngestOptions{})

	cardiac := reuseStore(t, neuro, "cardiac")
	cardiac.manager.Ingest([]string{path}, IngestOptions{})

	series, err := neuro.store.FindBySeriesUID("1.2.3.4")
	require.NoError(t, err)

	report := neuro.manager.Delete([]uint{series.ID})
	assert.Zero(t, report.Removed)
	assert.Equal(t, 1, report.Released)

	// the series row and stored files survive for the other owner
	still, err := neuro.store.FindBySeriesUID("1.2.3.4")
	require.NoError(t, err)
	require.NotNil(t, still)

	v := vault.New(neuro.settings.DicomDir(), neuro.settings.NormalizeInstitution, nil)
	seriesDir, err := v.SeriesDir(still.Record())
	require.NoError(t, err)
	assert.DirExists(t, seriesDir)

	// now the last owner lets go
	report = cardiac.manager.Delete([]uint{series.ID})
	assert.Equal(t, 1, report.Removed)
	assert.NoDirExists(t, seriesDir)
}

func TestDeleteNotOwned(t *testing.T) {
	neuro := newTestEnv(t, "neuro")
	path := neuro.addFile(t, "img1.dcm", imageRecord("1.2.3.4", 1))
	neuro.manager.Ingest([]string{path}, IngestOptions{})

	series, err := neuro.store.FindBySeriesUID("1.2.3.4")
	require.NoError(t, err)

	cardiac := reuseStore(t, neuro, "cardiac")
	report := cardiac.manager.Delete([]uint{series.ID})
	assert.Equal(t, 1, report.Failed)

	still, err := neuro.store.FindBySeriesUID("1.2.3.4")
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestDeleteStudy(t *testing.T) {
	env := newTestEnv(t, "neuro")
	a := env.addFile(t, "img1.dcm", imageRecord("1.2.3.4", 1))
	b := env.addFile(t, "img2.dcm", imageRecord("1.2.3.5", 1))
	env.manager.Ingest([]string{a, b}, IngestOptions{})

	report, err := env.manager.DeleteStudy("9876543")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Removed)
}

func TestDeleteStudyAmbiguous(t *testing.T) {
	env := newTestEnv(t, "neuro")
	a := env.addFile(t, "img1.dcm", imageRecord("1.2.3.4", 1))

	// same accession number on a different patient
	clash := imageRecord("1.2.3.5", 1)
	clash.PatientID = "7777777"
	b := env.addFile(t, "img2.dcm", clash)
	env.manager.Ingest([]string{a, b}, IngestOptions{})

	_, err := env.manager.DeleteStudy("9876543")
	var ambiguous *AmbiguousIdentityError
	require.True(t, errors.As(err, &ambiguous))
	assert.Equal(t, int64(2), ambiguous.Matches)
}

func TestDeleteStudyUnknownAccession(t *testing.T) {
	env := newTestEnv(t, "neuro")

	_, err := env.manager.DeleteStudy("0000000")
	assert.ErrorIs(t, err, datastore.ErrNotFound)
}

func TestDeletePatient(t *testing.T) {
	env := newTestEnv(t, "neuro")
	a := env.addFile(t, "img1.dcm", imageRecord("1.2.3.4", 1))

	other := imageRecord("1.2.3.5", 1)
	other.AccessionNumber = "1111111"
	b := env.addFile(t, "img2.dcm", other)
	env.manager.Ingest([]string{a, b}, IngestOptions{})

	report, err := env.manager.DeletePatient("MGH", "4123456")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Removed)

	ids, err := env.manager.PatientIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeletePatientUnknown(t *testing.T) {
	env := newTestEnv(t, "neuro")

	_, err := env.manager.DeletePatient("MGH", "0000000")
	assert.ErrorIs(t, err, datastore.ErrNotFound)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, "neuro")
	path := env.addFile(t, "img1.dcm", imageRecord("1.2.3.4", 1))
	env.manager.Ingest([]string{path}, IngestOptions{})

	series, err := env.store.FindBySeriesUID("1.2.3.4")
	require.NoError(t, err)

	dstRoot := t.TempDir()
	opts := ExportOptions{DirectoryTree: true, ReadableSlug: true}

	report := env.manager.Export([]uint{series.ID}, dstRoot, opts)
	assert.Equal(t, 1, report.Exported)

	// an existing destination is skipped, not overwritten
	report = env.manager.Export([]uint{series.ID}, dstRoot, opts)
	assert.Zero(t, report.Exported)
	assert.Equal(t, 1, report.Skipped)
}

func TestExportWithAgeBreakdown(t *testing.T) {
	env := newTestEnv(t, "neuro")
	path := env.addFile(t, "img1.dcm", imageRecord("1.2.3.4", 1))
	env.manager.Ingest([]string{path}, IngestOptions{})

	series, err := env.store.FindBySeriesUID("1.2.3.4")
	require.NoError(t, err)

	dstRoot := t.TempDir()
	report := env.manager.Export([]uint{series.ID}, dstRoot, ExportOptions{AgeBreakdown: true, ReadableSlug: true})
	assert.Equal(t, 1, report.Exported)
	assert.DirExists(t, filepath.Join(dstRoot, "day0000-0006_week0_year0"))
}

func TestExportNotOwned(t *testing.T) {
	neuro := newTestEnv(t, "neuro")
	path := neuro.addFile(t, "img1.dcm", imageRecord("1.2.3.4", 1))
	neuro.manager.Ingest([]string{path}, IngestOptions{})

	series, err := neuro.store.FindBySeriesUID("1.2.3.4")
	require.NoError(t, err)

	cardiac := reuseStore(t, neuro, "cardiac")
	report := cardiac.manager.Export([]uint{series.ID}, t.TempDir(), ExportOptions{})
	assert.Equal(t, 1, report.Failed)
}

func TestNotesRoundTrip(t *testing.T) {
	env := newTestEnv(t, "neuro")
	path := env.addFile(t, "img1.dcm", imageRecord("1.2.3.4", 1))
	env.manager.Ingest([]string{path}, IngestOptions{})

	series, err := env.store.FindBySeriesUID("1.2.3.4")
	require.NoError(t, err)

	added := env.manager.AddNotes([]uint{series.ID}, "check motion artifact")
	assert.Equal(t, 1, added)

	notes, err := env.manager.Notes(series.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	deleted := env.manager.DeleteNotes([]uint{notes[0].ID})
	assert.Equal(t, 1, deleted)
}

func TestWantedWorkflow(t *testing.T) {
	env := newTestEnv(t, "neuro")

	added, repeats, err := env.manager.AddWanted([]string{"9876543", "1111111", "9876543"}, "follow-up")
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, repeats)

	// import the study for one of them
	path := env.addFile(t, "img1.dcm", imageRecord("1.2.3.4", 1))
	env.manager.Ingest([]string{path}, IngestOptions{})

	togo, err := env.manager.StudiesToGet()
	require.NoError(t, err)
	assert.Equal(t, []string{"1111111"}, togo)
}

func TestLookup(t *testing.T) {
	env := newTestEnv(t, "neuro")
	path := env.addFile(t, "img1.dcm", imageRecord("1.2.3.4", 1))
	env.manager.Ingest([]string{path}, IngestOptions{})

	byUID, err := env.manager.Lookup(LookupKey{SeriesUID: "1.2.3.4"})
	require.NoError(t, err)

	byID, err := env.manager.Lookup(LookupKey{RecordID: byUID.ID})
	require.NoError(t, err)
	assert.Equal(t, byUID.ID, byID.ID)

	byAccession, err := env.manager.Lookup(LookupKey{Accession: "9876543"})
	require.NoError(t, err)
	assert.Equal(t, byUID.ID, byAccession.ID)

	byPatient, err := env.manager.Lookup(LookupKey{PatientID: "4123456"})
	require.NoError(t, err)
	assert.Equal(t, byUID.ID, byPatient.ID)

	_, err = env.manager.Lookup(LookupKey{SeriesUID: "no.such"})
	assert.ErrorIs(t, err, datastore.ErrNotFound)

	_, err = env.manager.Lookup(LookupKey{})
	assert.Error(t, err)
}
