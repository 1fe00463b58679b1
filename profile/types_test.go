package profile

import "testing"

func TestGeneralizeType(t *testing.T) {
	tests := map[string]struct {
		T1, T2   ValueType
		Expected ValueType
	}{
		"same":          {IntType, IntType, IntType},
		"int-float":     {IntType, FloatType, FloatType},
		"float-int":     {FloatType, IntType, FloatType},
		"bool-int":      {BoolType, IntType, IntType},
		"int-date":      {IntType, DateType, StringType},
		"date-float":    {DateType, FloatType, StringType},
		"null-int":      {NullType, IntType, IntType},
		"unknown-date":  {UnknownType, DateType, DateType},
		"string-always": {StringType, IntType, StringType},
		"bool-date":     {BoolType, DateType, StringType},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := GeneralizeType(test.T1, test.T2); got != test.Expected {
				t.Errorf("got %s, want %s", got, test.Expected)
			}
		})
	}
}

func TestParseValueType(t *testing.T) {
	tests := map[string]ValueType{
		"string":      StringType,
		"":            StringType,
		"integer":     IntType,
		"number":      FloatType,
		"float":       FloatType,
		"date":        DateType,
		"categorical": CategoricalType,
		"boolean":     BoolType,
		"mystery":     StringType,
	}

	for raw, expected := range tests {
		if got := ParseValueType(raw); got != expected {
			t.Errorf("%q: got %s, want %s", raw, got, expected)
		}
	}
}
