package profile

import (
	"math"
	"strconv"
	"time"
)

// Largest float64 magnitude that still holds every integer exactly.
const maxSafeInt = 1 << 53

// Value is one typed cell in a column. The zero Value is a null.
type Value struct {
	Type  ValueType
	Int   int64
	Float float64
	Bool  bool
	Str   string
	Date  time.Time
}

func (v Value) IsNull() bool {
	return v.Type == NullType || v.Type == UnknownType
}

func Null() Value {
	return Value{Type: NullType}
}

func NewInt(i int64) Value {
	return Value{Type: IntType, Int: i}
}

func NewFloat(f float64) Value {
	return Value{Type: FloatType, Float: f}
}

func NewBool(b bool) Value {
	return Value{Type: BoolType, Bool: b}
}

func NewString(s string) Value {
	return Value{Type: StringType, Str: s}
}

func NewCategorical(s string) Value {
	return Value{Type: CategoricalType, Str: s}
}

func NewDate(t time.Time) Value {
	return Value{Type: DateType, Date: t}
}

// DetectType returns the narrowest type a raw scalar satisfies. Empty
// strings are treated as nulls, matching how the upstream API encodes
// missing values.
func DetectType(raw interface{}) ValueType {
	switch x := raw.(type) {
	case nil:
		return NullType

	case bool:
		return BoolType

	case float64:
		if x == math.Trunc(x) && math.Abs(x) < maxSafeInt {
			return IntType
		}
		return FloatType

	case int:
		return IntType

	case int64:
		return IntType

	case string:
		if x == "" {
			return NullType
		}
		if _, ok := ParseInt(x); ok {
			if hasLeadingZeros(x) {
				return StringType
			}
			return IntType
		}
		if _, ok := ParseFloat(x); ok {
			return FloatType
		}
		if _, ok := ParseDate(x); ok {
			return DateType
		}
		return StringType
	}

	return StringType
}

// Coerce converts a raw scalar into a value of the resolved column
// type. Missing and empty values coerce to null without error. The
// second return is false when a present value cannot be represented
// under the resolved type.
func Coerce(raw interface{}, t ValueType) (Value, bool) {
	if raw == nil {
		return Null(), true
	}

	if s, ok := raw.(string); ok && s == "" {
		return Null(), true
	}

	switch t {
	case StringType:
		return NewString(rawString(raw)), true

	case CategoricalType:
		return NewCategorical(rawString(raw)), true

	case IntType:
		switch x := raw.(type) {
		case bool:
			if x {
				return NewInt(1), true
			}
			return NewInt(0), true
		case float64:
			if x == math.Trunc(x) && math.Abs(x) < maxSafeInt {
				return NewInt(int64(x)), true
			}
		case int:
			return NewInt(int64(x)), true
		case int64:
			return NewInt(x), true
		case string:
			if i, ok := ParseInt(x); ok {
				return NewInt(i), true
			}
		}

	case FloatType:
		switch x := raw.(type) {
		case float64:
			return NewFloat(x), true
		case int:
			return NewFloat(float64(x)), true
		case int64:
			return NewFloat(float64(x)), true
		case string:
			if f, ok := ParseFloat(x); ok {
				return NewFloat(f), true
			}
		}

	case BoolType:
		switch x := raw.(type) {
		case bool:
			return NewBool(x), true
		case string:
			if b, ok := ParseBool(x); ok {
				return NewBool(b), true
			}
		}

	case DateType:
		if s, ok := raw.(string); ok {
			if d, ok := ParseDate(s); ok {
				return NewDate(d), true
			}
		}
	}

	return Null(), false
}

func rawString(raw interface{}) string {
	switch x := raw.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}

	return ""
}
