package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AliasTable maps canonical rule sheet columns to the header spellings
// that should resolve to them. Lookup is case-insensitive.
type AliasTable struct {
	aliases map[string]string // lowercase spelling -> canonical column
}

// DefaultAliases returns the built-in alias table covering the header
// spellings seen across common rule sheet exports.
func DefaultAliases() *AliasTable {
	t := &AliasTable{aliases: make(map[string]string)}
	t.add(colField, "field", "field name", "fieldname", "target field name", "column", "column name", "target column")
	t.add(colType, "type", "data type", "datatype", "target data type")
	t.add(colRequired, "required", "mandatory", "is required", "not null")
	t.add(colMinLength, "minlength", "min length", "minimum length", "min len")
	t.add(colMaxLength, "maxlength", "max length", "maximum length", "max len", "length")
	t.add(colPattern, "pattern", "regex", "regexp", "format pattern")
	t.add(colAllowed, "allowed", "allowed values", "enum", "enum values", "valid values", "value list")
	return t
}

// LoadAliasFile merges alias overrides from a YAML file into a copy of
// the default table. The file maps canonical column names to spelling
// lists:
//
//	field:
//	  - "Destination Field"
//	type:
//	  - "SQL Type"
func LoadAliasFile(path string) (*AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}

	var overrides map[string][]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse alias file: %w", err)
	}

	t := DefaultAliases()
	for canonical, spellings := range overrides {
		c := strings.ToLower(strings.TrimSpace(canonical))
		switch c {
		case colField, colType, colRequired, colMinLength, colMaxLength, colPattern, colAllowed:
			t.add(c, spellings...)
		default:
			return nil, fmt.Errorf("unknown canonical column %q in alias file", canonical)
		}
	}
	return t, nil
}

func (t *AliasTable) add(canonical string, spellings ...string) {
	for _, s := range spellings {
		t.aliases[strings.ToLower(strings.TrimSpace(s))] = canonical
	}
}

// Resolve maps the actual sheet columns onto canonical columns. The
// result maps canonical name to the first matching actual column name.
func (t *AliasTable) Resolve(columns []string) map[string]string {
	resolved := make(map[string]string)
	for _, col := range columns {
		canonical, ok := t.aliases[strings.ToLower(strings.TrimSpace(col))]
		if !ok {
			continue
		}
		if _, taken := resolved[canonical]; !taken {
			resolved[canonical] = col
		}
	}
	return resolved
}
