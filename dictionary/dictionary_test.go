package dictionary

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mplosser/data-fdic/profile"
	"github.com/mplosser/data-fdic/schema"
)

const doc = `
CERT:
  title: FDIC Certificate Number
  type: integer
ACTIVE:
  title: Institution Status
  description: |
    Whether the institution
    is active.
  enum:
    "1": Active
    "0": Inactive
`

func TestBuild(t *testing.T) {
	reg, err := schema.Load(strings.NewReader(doc))
	require.NoError(t, err)

	records := []profile.RawRecord{
		{"CERT": "628", "ACTIVE": "1", "STATE": "CA"},
	}
	table, _ := profile.Normalize(records, reg.Declared())

	entries := Build("institutions", table, reg)
	require.Len(t, entries, 3)

	byField := make(map[string]Entry)
	for _, e := range entries {
		byField[e.Field] = e
		assert.Equal(t, "institutions", e.Dataset)
	}

	cert := byField["CERT"]
	assert.Equal(t, "FDIC Certificate Number", cert.Title)
	assert.Equal(t, "integer", cert.Type)

	active := byField["ACTIVE"]
	assert.Equal(t, "1=Active|0=Inactive", active.Enum)
	// Newlines are flattened for the CSV.
	assert.Equal(t, "Whether the institution is active.", active.Description)

	// Drift: observed but undeclared fields are marked, not dropped.
	state := byField["STATE"]
	assert.Equal(t, Undefined, state.Description)
	assert.Empty(t, state.Title)
}

func TestMergeByKey(t *testing.T) {
	d := New()

	d.Merge([]Entry{
		{Dataset: "institutions", Field: "CERT", Title: "old"},
		{Dataset: "failures", Field: "CERT", Title: "failures cert"},
	})
	d.Merge([]Entry{
		{Dataset: "institutions", Field: "CERT", Title: "new"},
	})

	require.Equal(t, 2, d.Len())

	entries := d.Entries()
	// Sorted by dataset, then field.
	assert.Equal(t, "failures", entries[0].Dataset)
	assert.Equal(t, "failures cert", entries[0].Title)
	assert.Equal(t, "new", entries[1].Title)
}

func TestReadWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data_dictionary.csv")

	d := New()
	d.Merge([]Entry{
		{Dataset: "failures", Field: "FAILDATE", Type: "date", Title: "Failure Date"},
		{Dataset: "institutions", Field: "CERT", Type: "integer", Title: "Cert, number"},
	})
	require.NoError(t, d.WriteFile(path))

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, d.Entries(), got.Entries())
}

func TestReadFileMissing(t *testing.T) {
	d, err := ReadFile(filepath.Join(t.TempDir(), "absent.csv"))
	require.NoError(t, err)
	assert.Zero(t, d.Len())
}
