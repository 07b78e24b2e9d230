package engine

// field.go evaluates a single value against a single rule. Checks run in
// a fixed order (type, length, pattern, allowed values) and accumulate:
// every violated constraint is reported, not just the first. Only the
// required check short-circuits.

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Date layouts accepted by the permissive type check, most common first.
// Calendar validity (not just shape) is enforced by time.Parse.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"1/2/2006", "01/02/2006",
	"1-2-2006", "01-02-2006",
	"1.2.2006", "01.02.2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"Jan 2, 2006", "2 Jan 2006",
	"20060102",
}

// FieldResult holds the findings for one value against one rule.
type FieldResult struct {
	Errors   []string
	Warnings []string
}

// ValidateField evaluates a raw value against a rule. present is false
// when the record has no column for the rule's field; a missing column is
// treated the same as an empty value.
//
// A required empty value yields exactly one error and no further checks
// run. A non-required empty value yields no findings at all. Invalid
// regex patterns in the rule degrade to a warning rather than failing the
// record.
func ValidateField(value string, present bool, rule FieldRule) FieldResult {
	var res FieldResult

	empty := !present || strings.TrimSpace(value) == ""
	if empty {
		if rule.Required {
			res.Errors = append(res.Errors,
				fmt.Sprintf("field %q is required but missing or empty", rule.FieldName))
		}
		return res
	}

	if msg := checkType(value, rule); msg != "" {
		res.Errors = append(res.Errors, msg)
	}

	// Length limits apply to the raw string: surrounding whitespace
	// counts.
	if rule.MinLength > 0 && len(value) < rule.MinLength {
		res.Errors = append(res.Errors, fmt.Sprintf(
			"field %q value %q is shorter than minimum length %d", rule.FieldName, value, rule.MinLength))
	}
	if rule.MaxLength > 0 && len(value) > rule.MaxLength {
		res.Errors = append(res.Errors, fmt.Sprintf(
			"field %q value %q exceeds maximum length %d", rule.FieldName, value, rule.MaxLength))
	}

	if rule.Pattern != "" {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"field %q has an invalid pattern %q, check skipped: %v", rule.FieldName, rule.Pattern, err))
		} else if !re.MatchString(value) {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"field %q value %q does not match pattern %q", rule.FieldName, value, rule.Pattern))
		}
	}

	if len(rule.AllowedValues) > 0 && !isAllowed(value, rule.AllowedValues) {
		res.Errors = append(res.Errors, fmt.Sprintf(
			"field %q value %q is not in the allowed list [%s]",
			rule.FieldName, value, strings.Join(rule.AllowedValues, ", ")))
	}

	return res
}

// checkType dispatches on the normalized data type and returns an error
// message, or "" when the value passes.
func checkType(value string, rule FieldRule) string {
	switch rule.Type {
	case TypeString:
		return ""

	case TypeInteger:
		if !IsInteger(value) {
			return fmt.Sprintf("field %q value %q is not a valid integer", rule.FieldName, value)
		}

	case TypeDecimal:
		if chk := CheckDecimal(value, rule.RawType); !chk.Valid {
			return fmt.Sprintf("field %q: %s", rule.FieldName, chk.Detail)
		}

	case TypeDate:
		if _, ok := ParseDate(value); !ok {
			return fmt.Sprintf("field %q value %q is not a recognizable date", rule.FieldName, value)
		}

	case TypeBoolean:
		if !IsBoolean(value) {
			return fmt.Sprintf("field %q value %q is not a boolean (true/false, yes/no, 1/0)", rule.FieldName, value)
		}
	}
	return ""
}

// IsInteger reports whether the trimmed value parses as a base-10 integer
// with no fractional part.
func IsInteger(value string) bool {
	s := strings.TrimSpace(value)
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// IsBoolean reports whether the lowercase-trimmed value is one of the
// accepted boolean spellings.
func IsBoolean(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "false", "yes", "no", "1", "0":
		return true
	}
	return false
}

// ParseDate attempts to parse a value as a calendar date or timestamp
// using the permissive layout list.
func ParseDate(value string) (time.Time, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isAllowed checks case-sensitive membership against the trimmed allowed
// values.
func isAllowed(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == strings.TrimSpace(a) {
			return true
		}
	}
	return false
}

// IsNumericShape reports whether a value looks numeric (integer, decimal,
// or scientific notation) after trimming. Exposed for the formatting
// checker, which needs shape information without a full decimal check.
func IsNumericShape(value string) bool {
	return numericShape.MatchString(strings.TrimSpace(value))
}

// FractionalDigits returns the number of digits after the decimal point
// in the trimmed string form, and whether a decimal point is present.
func FractionalDigits(value string) (int, bool) {
	s := strings.TrimSpace(value)
	_, frac, ok := strings.Cut(s, ".")
	if !ok {
		return 0, false
	}
	n := 0
	for _, c := range frac {
		if c >= '0' && c <= '9' {
			n++
		} else {
			break
		}
	}
	return n, true
}
