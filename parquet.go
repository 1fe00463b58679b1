package fdicdata

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"github.com/google/uuid"

	"github.com/mplosser/data-fdic/profile"
	"github.com/mplosser/data-fdic/schema"
)

// Field-level metadata keys carried on each output column.
const (
	MetaTitle       = "title"
	MetaDescription = "description"
	MetaUnit        = "unit"
	MetaEnum        = "enum"
)

// File-level provenance keys.
const (
	MetaDataset     = "dataset"
	MetaGeneratedAt = "generated_at"
)

// Map of resolved value types to Arrow types.
var arrowTypeMap = map[profile.ValueType]arrow.DataType{
	profile.UnknownType: arrow.BinaryTypes.String,
	profile.NullType:    arrow.BinaryTypes.String,
	profile.StringType:  arrow.BinaryTypes.String,
	profile.IntType:     arrow.PrimitiveTypes.Int64,
	profile.FloatType:   arrow.PrimitiveTypes.Float64,
	profile.BoolType:    arrow.FixedWidthTypes.Boolean,
	profile.DateType:    arrow.FixedWidthTypes.Date32,
}

// Categorical columns are stored dictionary-encoded. Raw codes remain
// the stored values; label decoding is metadata only.
var categoricalType = &arrow.DictionaryType{
	IndexType: arrow.PrimitiveTypes.Uint16,
	ValueType: arrow.BinaryTypes.String,
}

func arrowType(t profile.ValueType) arrow.DataType {
	if t == profile.CategoricalType {
		return categoricalType
	}
	return arrowTypeMap[t]
}

// fieldMetadata embeds the declared column metadata as key/value
// annotations. Undeclared columns get an empty metadata record rather
// than being silently skipped, so drift stays detectable downstream.
func fieldMetadata(md schema.ColumnMetadata) arrow.Metadata {
	var keys, vals []string

	if md.Title != "" {
		keys = append(keys, MetaTitle)
		vals = append(vals, md.Title)
	}
	if md.Description != "" {
		keys = append(keys, MetaDescription)
		vals = append(vals, md.Description)
	}
	if md.Unit != "" {
		keys = append(keys, MetaUnit)
		vals = append(vals, md.Unit)
	}
	if len(md.Enum) > 0 {
		keys = append(keys, MetaEnum)
		vals = append(vals, schema.EnumJSON(md.Enum))
	}

	return arrow.NewMetadata(keys, vals)
}

// NewArrowTable converts a normalized table into an Arrow table whose
// fields carry the registry metadata and whose schema carries the
// dataset provenance stamp.
func NewArrowTable(dataset string, t *profile.Table, reg *schema.Registry, generatedAt time.Time) (arrow.Table, error) {
	mem := memory.DefaultAllocator

	fields := make([]arrow.Field, len(t.Columns))
	arrays := make([]arrow.Array, len(t.Columns))

	defer func() {
		for _, a := range arrays {
			if a != nil {
				a.Release()
			}
		}
	}()

	for i, c := range t.Columns {
		fields[i] = arrow.Field{
			Name:     c.Name,
			Type:     arrowType(c.Type),
			Nullable: true,
			Metadata: fieldMetadata(reg.Metadata(c.Name)),
		}

		a, err := buildArray(mem, c)
		if err != nil {
			return nil, err
		}
		arrays[i] = a
	}

	fileMD := arrow.NewMetadata(
		[]string{MetaDataset, MetaGeneratedAt},
		[]string{dataset, generatedAt.UTC().Format(time.RFC3339)},
	)

	sc := arrow.NewSchema(fields, &fileMD)

	rec := array.NewRecord(sc, arrays, int64(t.NumRows()))
	defer rec.Release()

	return array.NewTableFromRecords(sc, []arrow.Record{rec}), nil
}

func buildArray(mem memory.Allocator, c *profile.Column) (arrow.Array, error) {
	switch c.Type {
	case profile.IntType:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		for _, v := range c.Values {
			if v.IsNull() {
				b.AppendNull()
			} else {
				b.Append(v.Int)
			}
		}
		return b.NewArray(), nil

	case profile.FloatType:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		for _, v := range c.Values {
			if v.IsNull() {
				b.AppendNull()
			} else {
				b.Append(v.Float)
			}
		}
		return b.NewArray(), nil

	case profile.BoolType:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		for _, v := range c.Values {
			if v.IsNull() {
				b.AppendNull()
			} else {
				b.Append(v.Bool)
			}
		}
		return b.NewArray(), nil

	case profile.DateType:
		b := array.NewDate32Builder(mem)
		defer b.Release()
		for _, v := range c.Values {
			if v.IsNull() {
				b.AppendNull()
			} else {
				b.Append(arrow.Date32FromTime(v.Date))
			}
		}
		return b.NewArray(), nil

	case profile.CategoricalType:
		b := array.NewDictionaryBuilder(mem, categoricalType).(*array.BinaryDictionaryBuilder)
		defer b.Release()
		for _, v := range c.Values {
			if v.IsNull() {
				b.AppendNull()
				continue
			}
			if err := b.AppendString(v.Str); err != nil {
				return nil, fmt.Errorf("column %s: %w", c.Name, err)
			}
		}
		return b.NewArray(), nil

	default:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for _, v := range c.Values {
			if v.IsNull() {
				b.AppendNull()
			} else {
				b.Append(v.Str)
			}
		}
		return b.NewArray(), nil
	}
}

// WriteError reports a failed or partial output write. Fatal for the
// dataset being written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %s", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// WriteParquet persists the table to path. If the destination already
// exists and force is false, nothing is touched and skipped is true.
// The write goes to a temporary file in the destination directory and
// is renamed into place, so a crash mid-write never leaves a partial
// file at the canonical path.
func WriteParquet(tbl arrow.Table, path string, force bool) (skipped bool, err error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return true, nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, &WriteError{Path: path, Err: err}
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))

	f, err := os.Create(tmp)
	if err != nil {
		return false, &WriteError{Path: path, Err: err}
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithCreatedBy("data-fdic"),
	)

	// Store the Arrow schema so field-level metadata round-trips.
	arrProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	chunk := tbl.NumRows()
	if chunk == 0 {
		chunk = 1
	}

	if err := pqarrow.WriteTable(tbl, f, chunk, props, arrProps); err != nil {
		f.Close()
		os.Remove(tmp)
		return false, &WriteError{Path: path, Err: err}
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return false, &WriteError{Path: path, Err: err}
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false, &WriteError{Path: path, Err: err}
	}

	return false, nil
}
