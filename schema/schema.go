// Package schema loads the YAML field-definition documents that
// accompany each BankFind dataset into an ordered field registry.
package schema

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/mplosser/data-fdic/profile"
)

// ParseError reports a malformed field-definition document. It is
// fatal for the dataset it belongs to.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema: field %q: %s", e.Field, e.Reason)
	}
	return "schema: " + e.Reason
}

// EnumValue is one raw code and its human-readable label. Order
// follows the declaration order in the document.
type EnumValue struct {
	Code  string
	Label string
}

// FieldDef is one declared variable's metadata. Immutable once loaded.
type FieldDef struct {
	Name        string
	Title       string
	Description string
	Unit        string
	Enum        []EnumValue
	Type        profile.ValueType
}

// EnumJSON serializes an enum mapping as a JSON object preserving
// declaration order, for embedding as a flat metadata string. Empty
// enums yield an empty string.
func EnumJSON(enum []EnumValue) string {
	if len(enum) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteByte('{')
	for i, e := range enum {
		if i > 0 {
			b.WriteByte(',')
		}
		k, _ := json.Marshal(e.Code)
		v, _ := json.Marshal(e.Label)
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')

	return b.String()
}

func (f *FieldDef) EnumJSON() string {
	return EnumJSON(f.Enum)
}

// ColumnMetadata is the sidecar metadata carried by one output column.
// Defined is false for columns observed in the data but absent from
// the schema; such columns still carry an explicit (empty) record.
type ColumnMetadata struct {
	Title       string
	Description string
	Unit        string
	Enum        []EnumValue
	Defined     bool
}

// Registry is the ordered set of field definitions for one dataset.
// Not mutated after construction.
type Registry struct {
	fields []*FieldDef
	index  map[string]*FieldDef
}

// Fields returns the definitions in declaration order.
func (r *Registry) Fields() []*FieldDef {
	return r.fields
}

// Get returns the definition for a field name, if declared.
func (r *Registry) Get(name string) (*FieldDef, bool) {
	f, ok := r.index[name]
	return f, ok
}

func (r *Registry) Len() int {
	return len(r.fields)
}

// Declared returns the declared column set in declaration order, for
// the normalizer.
func (r *Registry) Declared() []profile.Declared {
	d := make([]profile.Declared, len(r.fields))
	for i, f := range r.fields {
		d[i] = profile.Declared{Name: f.Name, Type: f.Type}
	}
	return d
}

// Metadata returns the column metadata for a name. Undeclared names
// get an empty-but-present record with Defined false.
func (r *Registry) Metadata(name string) ColumnMetadata {
	f, ok := r.index[name]
	if !ok {
		return ColumnMetadata{}
	}

	return ColumnMetadata{
		Title:       f.Title,
		Description: f.Description,
		Unit:        f.Unit,
		Enum:        f.Enum,
		Defined:     true,
	}
}

func newRegistry() *Registry {
	return &Registry{index: make(map[string]*FieldDef)}
}

// Empty returns a registry with no declarations, for datasets whose
// definition document is unavailable.
func Empty() *Registry {
	return newRegistry()
}

func (r *Registry) add(f *FieldDef) error {
	if _, ok := r.index[f.Name]; ok {
		return &ParseError{Field: f.Name, Reason: "duplicate field name"}
	}

	r.fields = append(r.fields, f)
	r.index[f.Name] = f

	return nil
}

// LoadFile loads a field-definition document from a path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f)
}

// Load parses a field-definition document. The document is either a
// flat mapping of field name to declaration block, or the nested
// BankFind layout with the declarations under
// properties -> data -> properties.
func Load(in io.Reader) (*Registry, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(in).Decode(&doc); err != nil {
		if err == io.EOF {
			return newRegistry(), nil
		}
		return nil, &ParseError{Reason: err.Error()}
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return newRegistry(), nil
		}
		root = root.Content[0]
	}

	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Reason: "document is not a mapping"}
	}

	// Unwrap the nested BankFind layout when present.
	if props := mappingValue(root, "properties"); props != nil {
		if props.Kind != yaml.MappingNode {
			return nil, &ParseError{Reason: `"properties" is not a mapping`}
		}

		data := mappingValue(props, "data")
		if data == nil {
			return newRegistry(), nil
		}
		if data.Kind != yaml.MappingNode {
			return nil, &ParseError{Reason: `"properties.data" is not a mapping`}
		}

		inner := mappingValue(data, "properties")
		if inner == nil {
			return newRegistry(), nil
		}
		if inner.Kind != yaml.MappingNode {
			return nil, &ParseError{Reason: `"properties.data.properties" is not a mapping`}
		}

		root = inner
	}

	reg := newRegistry()

	for i := 0; i < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]

		if key.Kind != yaml.ScalarNode {
			return nil, &ParseError{Reason: "field name is not a scalar"}
		}

		f, err := parseFieldDef(key.Value, val)
		if err != nil {
			return nil, err
		}

		if err := reg.add(f); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func parseFieldDef(name string, node *yaml.Node) (*FieldDef, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{Field: name, Reason: "declaration is not a mapping"}
	}

	f := &FieldDef{
		Name: name,
		Type: profile.StringType,
	}

	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		switch key.Value {
		case "title":
			f.Title = val.Value

		case "description":
			f.Description = val.Value

		case "type":
			f.Type = profile.ParseValueType(val.Value)

		case "unit":
			f.Unit = val.Value

		// Spelling used by the published BankFind definitions.
		case "x-number-unit":
			if f.Unit == "" {
				f.Unit = val.Value
			}

		case "enum":
			enum, err := parseEnum(name, val)
			if err != nil {
				return nil, err
			}
			f.Enum = enum
		}
	}

	return f, nil
}

func parseEnum(field string, node *yaml.Node) ([]EnumValue, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{Field: field, Reason: "enum is not a mapping of code to label"}
	}

	enum := make([]EnumValue, 0, len(node.Content)/2)

	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		if key.Kind != yaml.ScalarNode || val.Kind != yaml.ScalarNode {
			return nil, &ParseError{Field: field, Reason: "enum is not a mapping of code to label"}
		}

		enum = append(enum, EnumValue{Code: key.Value, Label: val.Value})
	}

	return enum, nil
}

// mappingValue returns the value node for a key in a mapping node, or
// nil if absent.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}

	return nil
}
