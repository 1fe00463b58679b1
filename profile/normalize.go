package profile

import "sort"

// RawRecord is one entity instance as delivered by the upstream API,
// before type normalization. Keys may vary record to record.
type RawRecord map[string]interface{}

// Declared is a schema-declared column: its name and declared storage
// type, in declaration order.
type Declared struct {
	Name string
	Type ValueType
}

// Column is one output column: a fixed name, a resolved type, and one
// value per row. Missing values are explicit nulls, never absent.
type Column struct {
	Name     string
	Type     ValueType
	Declared bool
	Values   []Value
}

// Table is an ordered set of columns aligned by row index.
type Table struct {
	Columns []*Column
}

func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

func (t *Table) NumCols() int {
	return len(t.Columns)
}

// Column returns the named column, if present.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Warnings aggregates non-fatal coercion failures by field so large
// inputs never produce per-row output.
type Warnings struct {
	counts map[string]int
	total  int
}

func (w *Warnings) add(field string) {
	if w.counts == nil {
		w.counts = make(map[string]int)
	}
	w.counts[field]++
	w.total++
}

// Total is the number of values that failed coercion.
func (w *Warnings) Total() int {
	return w.total
}

// Count returns the number of failed coercions for a field.
func (w *Warnings) Count(field string) int {
	return w.counts[field]
}

// Fields returns the fields with at least one warning, sorted.
func (w *Warnings) Fields() []string {
	fields := make([]string, 0, len(w.counts))
	for f := range w.counts {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Normalize reconciles the declared field set against the fields
// observed in the records and produces a uniform table. Declared
// columns come first in declaration order, then undeclared-but-observed
// columns in lexicographic order. Row order is record order.
//
// A value that fails coercion under its column's resolved type becomes
// a null and is counted in the returned warnings; normalization itself
// never fails.
func Normalize(records []RawRecord, declared []Declared) (*Table, *Warnings) {
	cols := make([]*Column, 0, len(declared))
	seen := make(map[string]*Column, len(declared))

	for _, d := range declared {
		if _, ok := seen[d.Name]; ok {
			continue
		}

		typ := d.Type
		if typ == UnknownType || typ == NullType {
			typ = StringType
		}

		c := &Column{Name: d.Name, Type: typ, Declared: true}
		cols = append(cols, c)
		seen[d.Name] = c
	}

	// Fields present in the data but absent from the schema.
	var extra []string
	for _, rec := range records {
		for name := range rec {
			if _, ok := seen[name]; ok {
				continue
			}
			c := &Column{Name: name}
			extra = append(extra, name)
			seen[name] = c
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		cols = append(cols, seen[name])
	}

	// Resolve types for undeclared columns from the observed values.
	for _, c := range cols {
		if c.Declared {
			continue
		}
		c.Type = inferType(records, c.Name)
	}

	warns := &Warnings{}

	for _, c := range cols {
		c.Values = make([]Value, 0, len(records))
	}

	for _, rec := range records {
		for _, c := range cols {
			raw, ok := rec[c.Name]
			if !ok {
				c.Values = append(c.Values, Null())
				continue
			}

			v, ok := Coerce(raw, c.Type)
			if !ok {
				warns.add(c.Name)
			}
			c.Values = append(c.Values, v)
		}
	}

	return &Table{Columns: cols}, warns
}

// inferType scans every non-null observed value for the field and
// generalizes across them. Fields that are always null fall back to
// string.
func inferType(records []RawRecord, name string) ValueType {
	t := UnknownType

	for _, rec := range records {
		raw, ok := rec[name]
		if !ok {
			continue
		}

		vt := DetectType(raw)
		if vt == NullType {
			continue
		}

		t = GeneralizeType(t, vt)
		if t == StringType {
			// Already the most general type.
			break
		}
	}

	if t == UnknownType || t == NullType {
		return StringType
	}

	return t
}
