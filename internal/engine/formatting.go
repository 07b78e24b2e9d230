package engine

// formatting.go flags representational inconsistencies that do not affect
// correctness: stray whitespace, mixed-case emails, oddly punctuated
// phone numbers, off-pattern date strings, decimal values whose written
// scale drifts from the declared one. These are soft signals; a record
// can be fully valid and still appear here.
//
// Date shape matching is deliberately separate from the validator's date
// parseability check. The validator answers "is this a real date"; this
// file answers "is this written the way the rest of the column is
// expected to be written". The two signals are reported independently.

import (
	"fmt"
	"regexp"
	"strings"
)

// Accepted date shapes, including single-digit month/day variants. Shape
// only; calendar validity is the validator's concern.
var dateShapes = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`),
	regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2}$`),
	regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`),
	regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`),
	regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}$`),
}

// phoneShape is a permissive international phone pattern applied after
// whitespace and punctuation are stripped.
var phoneShape = regexp.MustCompile(`^\+?\d{7,15}$`)

// phonePunct strips the characters commonly used to format phone numbers.
var phonePunct = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "", "\t", "")

// DetectFormattingIssues scans every non-empty field value for
// representational defects. A record with at least one flagged field
// produces exactly one FormattingIssue aggregating all of them; clean
// records produce nothing.
func DetectFormattingIssues(ds Dataset, rules []FieldRule) []FormattingIssue {
	ruleFor := make(map[string]FieldRule, len(rules))
	for _, r := range rules {
		ruleFor[r.FieldName] = r
	}

	columns := ds.Columns
	if len(columns) == 0 && len(ds.Rows) > 0 {
		columns = defaultKeyFields(ds)
	}

	var issues []FormattingIssue
	for i, rec := range ds.Rows {
		var found []string
		for _, field := range columns {
			value, present := rec[field]
			if !present || strings.TrimSpace(value) == "" {
				continue
			}
			found = append(found, checkFieldFormatting(field, value, ruleFor)...)
		}
		if len(found) > 0 {
			issues = append(issues, FormattingIssue{RowIndex: i + 1, Issues: found})
		}
	}
	return issues
}

// checkFieldFormatting runs every applicable formatting check for one
// field value and returns the flagged descriptions.
func checkFieldFormatting(field, value string, ruleFor map[string]FieldRule) []string {
	var found []string

	if value != strings.TrimSpace(value) {
		found = append(found, fmt.Sprintf("field %q has leading or trailing whitespace: %q", field, value))
	}

	lowerName := strings.ToLower(field)

	if strings.Contains(lowerName, "email") && value != strings.ToLower(value) {
		found = append(found, fmt.Sprintf("field %q is not consistently lowercase: %q", field, value))
	}

	if strings.Contains(lowerName, "phone") || strings.Contains(lowerName, "mobile") {
		if !phoneShape.MatchString(phonePunct.Replace(strings.TrimSpace(value))) {
			found = append(found, fmt.Sprintf("field %q does not look like a phone number: %q", field, value))
		}
	}

	rule, hasRule := ruleFor[field]
	if !hasRule {
		return found
	}

	switch rule.Type {
	case TypeDate:
		if !matchesDateShape(strings.TrimSpace(value)) {
			found = append(found, fmt.Sprintf("field %q date %q is not in a standard format", field, value))
		}
	case TypeDecimal:
		if _, scale, ok := ParsePrecisionScale(rule.RawType); ok && IsNumericShape(value) {
			if n, _ := FractionalDigits(value); n != scale {
				found = append(found, fmt.Sprintf(
					"field %q value %q has %d fractional digits, expected %d", field, value, n, scale))
			}
		}
	}

	return found
}

// matchesDateShape reports whether the value matches any entry in the
// date shape allow-list.
func matchesDateShape(value string) bool {
	for _, re := range dateShapes {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}
