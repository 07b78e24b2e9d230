package engine

import "strings"

// DataType is the normalized type a field rule validates against.
type DataType int

const (
	TypeString DataType = iota
	TypeInteger
	TypeDecimal
	TypeDate
	TypeBoolean
)

// String returns a human-readable name for the data type.
func (t DataType) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeDecimal:
		return "decimal"
	case TypeDate:
		return "date"
	case TypeBoolean:
		return "boolean"
	default:
		return "string"
	}
}

// FieldRule defines the validation constraints for a single field.
//
// RawType preserves the original type declaration (e.g. "DECIMAL(18,2)")
// because decimal precision and scale are parsed from it, not from the
// normalized Type. MinLength/MaxLength of zero or less mean unset.
type FieldRule struct {
	FieldName     string
	Type          DataType
	RawType       string
	Required      bool
	MinLength     int
	MaxLength     int
	Pattern       string
	AllowedValues []string
}

// NormalizeType maps a raw type declaration to one of the five normalized
// data types. Matching is case-insensitive and keys off the leading type
// word, so parameterized declarations like "decimal(18,2)" or
// "varchar(50)" resolve correctly. Unrecognized declarations normalize to
// string.
func NormalizeType(raw string) DataType {
	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(s, "( "); i >= 0 {
		s = s[:i]
	}

	switch s {
	case "int", "integer", "bigint", "smallint", "tinyint", "long":
		return TypeInteger
	case "decimal", "numeric", "number", "money", "float", "double", "real":
		return TypeDecimal
	case "date", "datetime", "datetime2", "timestamp", "smalldatetime":
		return TypeDate
	case "bool", "boolean", "bit":
		return TypeBoolean
	default:
		return TypeString
	}
}
