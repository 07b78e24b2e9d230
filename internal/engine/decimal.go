package engine

// decimal.go implements the precision/scale check for constrained decimal
// fields. The check operates on the string representation of the value,
// never on a float parse: binary rounding would make an exact fractional
// digit count impossible to verify.

import (
	"fmt"
	"regexp"
	"strings"
)

// numericShape matches integers, decimals, and scientific notation after
// whitespace trimming.
var numericShape = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// precisionScaleSpec extracts precision and scale from a raw type
// declaration such as "DECIMAL(18,2)" or "numeric ( 10 , 4 )".
var precisionScaleSpec = regexp.MustCompile(`(?i)(?:decimal|numeric)\s*\(\s*(\d+)\s*,\s*(\d+)\s*\)`)

// DecimalCheck is the outcome of checking one value against a decimal
// type declaration. Detail names the specific sub-check that failed;
// the distinction between total-precision, scale, and integer-part
// failures drives user-facing remediation text and must be preserved.
type DecimalCheck struct {
	Valid  bool
	Detail string
}

// ParsePrecisionScale extracts the declared precision and scale from a
// raw type declaration. Returns ok=false when the declaration carries no
// precision/scale pair.
func ParsePrecisionScale(rawType string) (precision, scale int, ok bool) {
	m := precisionScaleSpec.FindStringSubmatch(rawType)
	if m == nil {
		return 0, 0, false
	}
	// Submatches are \d+ so Atoi cannot fail; parse inline.
	for _, c := range m[1] {
		precision = precision*10 + int(c-'0')
	}
	for _, c := range m[2] {
		scale = scale*10 + int(c-'0')
	}
	return precision, scale, true
}

// CheckDecimal validates a value against a decimal type declaration.
//
// When the declaration carries no precision/scale pair, the value only
// needs to be numeric. Otherwise the digit counts of the string form are
// checked: total digits must fit the precision, the fractional part must
// have exactly the declared scale, and the integer part must fit within
// precision minus scale. A leading sign does not count toward any limit.
func CheckDecimal(value, rawType string) DecimalCheck {
	v := strings.TrimSpace(value)
	if !numericShape.MatchString(v) {
		return DecimalCheck{Detail: fmt.Sprintf("value %q is not numeric", value)}
	}

	precision, scale, ok := ParsePrecisionScale(rawType)
	if !ok {
		return DecimalCheck{Valid: true}
	}

	v = strings.TrimPrefix(v, "-")
	v = strings.TrimPrefix(v, "+")

	intPart, fracPart, hasPoint := strings.Cut(v, ".")

	if !hasPoint {
		if len(intPart) > precision {
			return DecimalCheck{Detail: fmt.Sprintf(
				"value %q has %d digits, exceeds total precision %d", value, len(intPart), precision)}
		}
		return DecimalCheck{Valid: true}
	}

	// Scale is exact: a declared scale of 2 rejects both 1 and 3
	// fractional digits.
	if len(fracPart) != scale {
		return DecimalCheck{Detail: fmt.Sprintf(
			"value %q has %d fractional digits, scale requires exactly %d", value, len(fracPart), scale)}
	}

	total := len(intPart) + len(fracPart)
	if total > precision {
		return DecimalCheck{Detail: fmt.Sprintf(
			"value %q has %d digits, exceeds total precision %d", value, total, precision)}
	}

	// Total may fit while the integer portion alone overflows its
	// allotted digits, e.g. 123.45 against decimal(4,2).
	if len(intPart) > precision-scale {
		return DecimalCheck{Detail: fmt.Sprintf(
			"integer part of %q has %d digits, at most %d allowed for precision %d scale %d",
			value, len(intPart), precision-scale, precision, scale)}
	}

	return DecimalCheck{Valid: true}
}
