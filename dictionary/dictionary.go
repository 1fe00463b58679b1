// Package dictionary maintains the flattened cross-dataset data
// dictionary: one row per (dataset, field), merged incrementally as
// dataset runs complete.
package dictionary

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mplosser/data-fdic/profile"
	"github.com/mplosser/data-fdic/schema"
)

// Undefined marks a field observed in the data with no declaration in
// the schema document.
const Undefined = "(no definition found)"

var header = []string{"dataset", "field_name", "type", "title", "description", "unit", "enum"}

// Entry is one flattened dictionary row.
type Entry struct {
	Dataset     string
	Field       string
	Type        string
	Title       string
	Description string
	Unit        string
	Enum        string
}

// FormatEnum flattens an enum mapping to a delimited string.
func FormatEnum(enum []schema.EnumValue) string {
	if len(enum) == 0 {
		return ""
	}

	parts := make([]string, len(enum))
	for i, e := range enum {
		parts[i] = e.Code + "=" + e.Label
	}

	return strings.Join(parts, "|")
}

// Build produces the dictionary entries for one dataset from its
// normalized table. Every output column appears exactly once; columns
// with no field definition are marked rather than dropped.
func Build(dataset string, t *profile.Table, reg *schema.Registry) []Entry {
	entries := make([]Entry, 0, len(t.Columns))

	for _, c := range t.Columns {
		e := Entry{
			Dataset: dataset,
			Field:   c.Name,
			Type:    c.Type.String(),
		}

		if f, ok := reg.Get(c.Name); ok {
			e.Title = f.Title
			e.Description = flatten(f.Description)
			e.Unit = f.Unit
			e.Enum = FormatEnum(f.Enum)
		} else {
			e.Description = Undefined
		}

		entries = append(entries, e)
	}

	return entries
}

type key struct {
	dataset string
	field   string
}

// Dictionary is the merged set of entries across datasets, keyed by
// (dataset, field).
type Dictionary struct {
	entries map[key]Entry
}

func New() *Dictionary {
	return &Dictionary{entries: make(map[key]Entry)}
}

// Merge upserts entries by (dataset, field): existing entries for the
// same key are replaced, entries for other keys are kept.
func (d *Dictionary) Merge(entries []Entry) {
	for _, e := range entries {
		d.entries[key{e.Dataset, e.Field}] = e
	}
}

func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Entries returns the merged rows sorted by dataset, then field.
func (d *Dictionary) Entries() []Entry {
	out := make([]Entry, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Dataset != out[j].Dataset {
			return out[i].Dataset < out[j].Dataset
		}
		return out[i].Field < out[j].Field
	})

	return out
}

// ReadFile loads an existing dictionary CSV. A missing file yields an
// empty dictionary so first runs and re-runs share one code path.
func ReadFile(path string) (*Dictionary, error) {
	d := New()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", path, err)
	}

	for i, row := range rows {
		if i == 0 {
			// Header row.
			continue
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("dictionary %s: row %d has %d columns, want %d", path, i+1, len(row), len(header))
		}

		d.Merge([]Entry{{
			Dataset:     row[0],
			Field:       row[1],
			Type:        row[2],
			Title:       row[3],
			Description: row[4],
			Unit:        row[5],
			Enum:        row[6],
		}})
	}

	return d, nil
}

// WriteFile writes the merged dictionary as CSV.
func (d *Dictionary) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)

	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}

	for _, e := range d.Entries() {
		row := []string{e.Dataset, e.Field, e.Type, e.Title, e.Description, e.Unit, e.Enum}
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func flatten(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
