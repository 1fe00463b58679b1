package profile

import (
	"strings"

	"github.com/goccy/go-json"
)

const (
	UnknownType ValueType = iota
	NullType
	StringType
	IntType
	FloatType
	BoolType
	DateType
	CategoricalType
)

// ValueType is a resolved storage type for a column.
type ValueType uint8

func (v ValueType) String() string {
	switch v {
	case NullType:
		return "null"
	case StringType:
		return "string"
	case IntType:
		return "integer"
	case FloatType:
		return "float"
	case BoolType:
		return "boolean"
	case DateType:
		return "date"
	case CategoricalType:
		return "categorical"
	}

	return ""
}

func (v ValueType) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *ValueType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	*v = ParseValueType(s)

	return nil
}

// ParseValueType maps a declared type name to a value type. The JSON
// Schema spellings used by the BankFind definition files ("number",
// "boolean") are accepted alongside the canonical names. Anything
// unrecognized defaults to string, the most general type.
func ParseValueType(s string) ValueType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "string":
		return StringType
	case "null":
		return NullType
	case "integer", "int":
		return IntType
	case "float", "number":
		return FloatType
	case "boolean", "bool":
		return BoolType
	case "date":
		return DateType
	case "categorical":
		return CategoricalType
	}

	return StringType
}

var typeGeneralizationMap = map[[2]ValueType]ValueType{
	{BoolType, IntType}:   IntType,
	{IntType, FloatType}:  FloatType,
	{BoolType, FloatType}: FloatType,
}

// GeneralizeType takes two types and returns the more general type of
// the two, with string being the most general if both are not null
// types. Numerics widen integer to float; dates mixed with anything
// else widen to string.
func GeneralizeType(t1, t2 ValueType) ValueType {
	// Same type.
	if t1 == t2 {
		return t1
	}

	if t1 == NullType || t1 == UnknownType {
		return t2
	}

	if t2 == NullType || t2 == UnknownType {
		return t1
	}

	key := [2]ValueType{t1, t2}

	t, ok := typeGeneralizationMap[key]
	if ok {
		return t
	}

	// Swap order.
	key[0], key[1] = key[1], key[0]

	t, ok = typeGeneralizationMap[key]
	if ok {
		return t
	}

	// Everything can be generalized to a string.
	return StringType
}
