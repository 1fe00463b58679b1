// Package summary reads processed Parquet files back and computes the
// overview figures shown by the summarize stage.
package summary

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"github.com/goccy/go-json"
)

// FieldInfo is one line of the field listing.
type FieldInfo struct {
	Name  string
	Type  string
	Title string
}

// ValueCount is one row of a top-N values table.
type ValueCount struct {
	Value string
	Label string
	Count int
}

// Report wraps one processed file for summarization. Close releases
// the underlying table.
type Report struct {
	Path string
	Size int64

	tbl arrow.Table
}

// Read opens a processed Parquet file.
func Read(ctx context.Context, path string) (*Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tbl, err := pqarrow.ReadTable(ctx, f,
		parquet.NewReaderProperties(memory.DefaultAllocator),
		pqarrow.ArrowReadProperties{},
		memory.DefaultAllocator,
	)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return &Report{
		Path: path,
		Size: info.Size(),
		tbl:  tbl,
	}, nil
}

func (r *Report) Close() {
	r.tbl.Release()
}

func (r *Report) Records() int64 {
	return r.tbl.NumRows()
}

func (r *Report) NumFields() int {
	return len(r.tbl.Schema().Fields())
}

// Provenance returns the file-level dataset name and generation stamp.
func (r *Report) Provenance() (dataset, generatedAt string) {
	md := r.tbl.Schema().Metadata()
	if i := md.FindKey("dataset"); i >= 0 {
		dataset = md.Values()[i]
	}
	if i := md.FindKey("generated_at"); i >= 0 {
		generatedAt = md.Values()[i]
	}
	return dataset, generatedAt
}

// MetadataCoverage counts fields carrying title and description
// metadata.
func (r *Report) MetadataCoverage() (titles, descriptions int) {
	for _, f := range r.tbl.Schema().Fields() {
		if f.Metadata.FindKey("title") >= 0 {
			titles++
		}
		if f.Metadata.FindKey("description") >= 0 {
			descriptions++
		}
	}
	return titles, descriptions
}

// Fields lists every field with its type and title metadata.
func (r *Report) Fields() []FieldInfo {
	fields := r.tbl.Schema().Fields()
	out := make([]FieldInfo, len(fields))

	for i, f := range fields {
		info := FieldInfo{Name: f.Name, Type: f.Type.String()}
		if j := f.Metadata.FindKey("title"); j >= 0 {
			info.Title = f.Metadata.Values()[j]
		}
		out[i] = info
	}

	return out
}

// TopValues counts the distinct values of a column and returns the n
// most frequent, decoding enum labels from the column metadata when
// declared. Stored values stay raw codes.
func (r *Report) TopValues(col string, n int) []ValueCount {
	idx := r.fieldIndex(col)
	if idx < 0 {
		return nil
	}

	counts := make(map[string]int)

	for _, chunk := range r.tbl.Column(idx).Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				continue
			}
			if s, ok := valueString(chunk, i); ok {
				counts[s]++
			}
		}
	}

	labels := r.enumLabels(idx)

	out := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, ValueCount{Value: v, Label: labels[v], Count: c})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})

	if len(out) > n {
		out = out[:n]
	}

	return out
}

// DateRange returns the min and max of a date column. ok is false when
// the column is absent, not a date, or all null.
func (r *Report) DateRange(col string) (min, max time.Time, ok bool) {
	idx := r.fieldIndex(col)
	if idx < 0 {
		return time.Time{}, time.Time{}, false
	}

	for _, chunk := range r.tbl.Column(idx).Data().Chunks() {
		dates, isDate := chunk.(*array.Date32)
		if !isDate {
			return time.Time{}, time.Time{}, false
		}

		for i := 0; i < dates.Len(); i++ {
			if dates.IsNull(i) {
				continue
			}

			t := dates.Value(i).ToTime()
			if !ok {
				min, max, ok = t, t, true
				continue
			}
			if t.Before(min) {
				min = t
			}
			if t.After(max) {
				max = t
			}
		}
	}

	return min, max, ok
}

// YearRange returns the min and max of an integer-like year column.
func (r *Report) YearRange(col string) (min, max int64, ok bool) {
	idx := r.fieldIndex(col)
	if idx < 0 {
		return 0, 0, false
	}

	for _, chunk := range r.tbl.Column(idx).Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				continue
			}

			s, valid := valueString(chunk, i)
			if !valid {
				continue
			}
			y, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				continue
			}

			if !ok {
				min, max, ok = y, y, true
				continue
			}
			if y < min {
				min = y
			}
			if y > max {
				max = y
			}
		}
	}

	return min, max, ok
}

func (r *Report) fieldIndex(name string) int {
	indices := r.tbl.Schema().FieldIndices(name)
	if len(indices) == 0 {
		return -1
	}
	return indices[0]
}

// enumLabels decodes the column's enum metadata into a code to label
// map. Missing or malformed metadata yields an empty map.
func (r *Report) enumLabels(idx int) map[string]string {
	labels := make(map[string]string)

	f := r.tbl.Schema().Field(idx)
	j := f.Metadata.FindKey("enum")
	if j < 0 {
		return labels
	}

	_ = json.Unmarshal([]byte(f.Metadata.Values()[j]), &labels)

	return labels
}

// valueString renders one cell as a string for counting and range
// computation.
func valueString(a arrow.Array, i int) (string, bool) {
	switch arr := a.(type) {
	case *array.String:
		return arr.Value(i), true
	case *array.Int64:
		return strconv.FormatInt(arr.Value(i), 10), true
	case *array.Float64:
		return strconv.FormatFloat(arr.Value(i), 'f', -1, 64), true
	case *array.Boolean:
		return strconv.FormatBool(arr.Value(i)), true
	case *array.Date32:
		return arr.Value(i).ToTime().Format("2006-01-02"), true
	case *array.Dictionary:
		if dict, ok := arr.Dictionary().(*array.String); ok {
			return dict.Value(arr.GetValueIndex(i)), true
		}
	}

	return "", false
}
