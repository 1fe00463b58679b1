package fdicdata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mplosser/data-fdic/dictionary"
	"github.com/mplosser/data-fdic/schema"
)

const institutionsDoc = `
title: Institution properties
properties:
  data:
    type: object
    properties:
      CERT:
        title: FDIC Certificate Number
        type: integer
      NAME:
        title: Institution Name
`

const failuresDoc = `
title: Failure properties
properties:
  data:
    type: object
    properties:
      CERT:
        title: FDIC Certificate Number
        type: integer
      FAILDATE:
        title: Failure Date
`

const institutionsJSON = `[
  {"data": {"CERT": "628", "NAME": "Example Bank"}},
  {"data": {"CERT": "999", "NAME": "Other Bank", "STATE": "CA"}}
]`

const failuresJSON = `[
  {"data": {"CERT": "14", "FAILDATE": "6/15/1984"}}
]`

func writeFixtures(t *testing.T, dataDir string) (rawDir, outDir, dictFile string) {
	t.Helper()

	rawDir = filepath.Join(dataDir, "raw")
	outDir = filepath.Join(dataDir, "processed")
	dictFile = filepath.Join(dataDir, "data_dictionary.csv")

	require.NoError(t, os.MkdirAll(rawDir, 0o755))
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	files := map[string]string{
		"institutions_20240101.json":  institutionsJSON,
		"failures_20240101.json":      failuresJSON,
		"institution_properties.yaml": institutionsDoc,
		"failure_properties.yaml":     failuresDoc,
	}

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(rawDir, name), []byte(content), 0o644))
	}

	return rawDir, outDir, dictFile
}

func TestRun(t *testing.T) {
	rawDir, outDir, dictFile := writeFixtures(t, t.TempDir())

	req := &RunRequest{
		RawDir:   rawDir,
		OutDir:   outDir,
		DictPath: dictFile,
	}

	outcomes, err := Run(req)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	for _, o := range outcomes {
		require.Equal(t, StatusOK, o.Status, "dataset %s: %v", o.Dataset, o.Err)
		assert.FileExists(t, o.Path)
	}

	// Dictionary covers both datasets, including the undeclared STATE
	// column of the institutions data.
	d, err := dictionary.ReadFile(dictFile)
	require.NoError(t, err)

	entries := d.Entries()
	byKey := make(map[[2]string]dictionary.Entry)
	for _, e := range entries {
		byKey[[2]string{e.Dataset, e.Field}] = e
	}

	cert := byKey[[2]string{"institutions", "CERT"}]
	assert.Equal(t, "FDIC Certificate Number", cert.Title)
	assert.Equal(t, "integer", cert.Type)

	state, ok := byKey[[2]string{"institutions", "STATE"}]
	require.True(t, ok)
	assert.Equal(t, dictionary.Undefined, state.Description)

	// FAILDATE is forced to date storage even though the published
	// definition declares no type.
	faildate := byKey[[2]string{"failures", "FAILDATE"}]
	assert.Equal(t, "date", faildate.Type)
}

func TestRunIdempotent(t *testing.T) {
	rawDir, outDir, dictFile := writeFixtures(t, t.TempDir())

	req := &RunRequest{RawDir: rawDir, OutDir: outDir, DictPath: dictFile}

	outcomes, err := Run(req)
	require.NoError(t, err)
	require.False(t, Failed(outcomes))

	dictBefore, err := os.ReadFile(dictFile)
	require.NoError(t, err)

	before, err := os.ReadDir(outDir)
	require.NoError(t, err)

	// Second run skips every dataset and touches nothing.
	outcomes, err = Run(req)
	require.NoError(t, err)

	for _, o := range outcomes {
		assert.Equal(t, StatusSkipped, o.Status)
	}

	after, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, after, len(before))

	dictAfter, err := os.ReadFile(dictFile)
	require.NoError(t, err)
	assert.Equal(t, dictBefore, dictAfter)
}

func TestRunFailureIsolation(t *testing.T) {
	rawDir, outDir, dictFile := writeFixtures(t, t.TempDir())

	// Corrupt the failures schema: enum must be a mapping.
	bad := "FAILDATE:\n  enum:\n    - a\n    - b\n"
	require.NoError(t, os.WriteFile(filepath.Join(rawDir, "failure_properties.yaml"), []byte(bad), 0o644))

	outcomes, err := Run(&RunRequest{RawDir: rawDir, OutDir: outDir, DictPath: dictFile})
	require.NoError(t, err)
	require.True(t, Failed(outcomes))

	byName := make(map[string]*Outcome)
	for _, o := range outcomes {
		byName[o.Dataset] = o
	}

	assert.Equal(t, StatusOK, byName["institutions"].Status)

	failed := byName["failures"]
	require.Equal(t, StatusFailed, failed.Status)
	require.Error(t, failed.Err)

	// The healthy dataset still lands in the dictionary.
	d, err := dictionary.ReadFile(dictFile)
	require.NoError(t, err)
	assert.Greater(t, d.Len(), 0)
	for _, e := range d.Entries() {
		assert.Equal(t, "institutions", e.Dataset)
	}
}

func TestParseMissingRawData(t *testing.T) {
	dir := t.TempDir()

	out := Parse(&Request{
		Dataset: Datasets[0],
		RawDir:  filepath.Join(dir, "raw"),
		OutDir:  filepath.Join(dir, "processed"),
	})

	assert.Equal(t, StatusFailed, out.Status)
	assert.Error(t, out.Err)
}

func TestParseMissingSchemaDoc(t *testing.T) {
	dataDir := t.TempDir()
	rawDir, outDir, _ := writeFixtures(t, dataDir)

	require.NoError(t, os.Remove(filepath.Join(rawDir, "institution_properties.yaml")))

	out := Parse(&Request{
		Dataset: Datasets[0],
		RawDir:  rawDir,
		OutDir:  outDir,
	})

	// A missing definition document is not fatal: the dataset parses
	// with an empty registry and inferred types.
	require.Equal(t, StatusOK, out.Status, "err: %v", out.Err)
	assert.Equal(t, 3, out.Fields)
}

func TestDeclaredColumnsOverride(t *testing.T) {
	ds := Dataset{
		Name:       "failures",
		DateFields: []string{"FAILDATE", "RESDATE"},
	}

	reg, err := schema.Load(strings.NewReader(failuresDoc))
	require.NoError(t, err)

	declared := declaredColumns(reg, ds)

	var faildate, resdate bool
	for _, d := range declared {
		switch d.Name {
		case "FAILDATE":
			faildate = true
			assert.Equal(t, "date", d.Type.String())
		case "RESDATE":
			resdate = true
			assert.Equal(t, "date", d.Type.String())
		}
	}

	assert.True(t, faildate)
	assert.True(t, resdate, "override fields absent from the registry are appended")
}
