// Package core orchestrates validation and reconciliation runs: it wires
// the CSV ingestion, rule loading, engine passes, run registry, and run
// history together behind one Service.
//
// # Error Codes Reference
//
// remediation.go maps the engine's finding strings onto user-facing
// remediation text with codes users can quote to support staff.
//
// Validation findings (VAL001-VAL099):
//
//	VAL001 - Required field missing or empty
//	VAL002 - Invalid integer
//	VAL003 - Invalid date
//	VAL004 - Invalid boolean
//	VAL005 - Length constraint violated
//	VAL006 - Pattern mismatch
//	VAL007 - Value not in allowed list
//
// Decimal findings (DEC001-DEC003): the three decimal sub-checks carry
// different remediation advice, which is why the engine keeps their
// failure details distinct:
//
//	DEC001 - Total precision exceeded: the value simply has too many
//	         digits and must be corrected at the source
//	DEC002 - Scale mismatch: the value is usually right but written with
//	         the wrong number of fractional digits; reformat, don't
//	         recompute
//	DEC003 - Integer part too long: the magnitude overflows the column;
//	         check for unit errors (cents vs dollars)
//
// Run errors (RUN001-RUN099):
//
//	RUN001 - No rules loaded
//	RUN002 - Dataset missing for reconciliation
//	RUN003 - Too many concurrent runs
//
// Patterns are matched case-insensitively with strings.Contains; the
// first match wins, so specific patterns are listed before general ones.
package core

import (
	"fmt"
	"strings"
)

// Remedy is user-facing guidance for one class of finding.
type Remedy struct {
	Message string `json:"message"` // what happened
	Action  string `json:"action"`  // what to do about it
	Code    string `json:"code"`    // support reference
}

type remedyPattern struct {
	pattern string
	remedy  Remedy
}

var remedyPatterns = []remedyPattern{
	// Decimal sub-checks. Listed before the generic numeric patterns so
	// the specific advice wins.
	{
		pattern: "exceeds total precision",
		remedy: Remedy{
			Message: "A decimal value has more digits than the column allows",
			Action:  "Correct the value at the source; it cannot be stored at this precision",
			Code:    "DEC001",
		},
	},
	{
		pattern: "scale requires exactly",
		remedy: Remedy{
			Message: "A decimal value has the wrong number of fractional digits",
			Action:  "Reformat the value to the declared scale (e.g. 100.50, not 100.5)",
			Code:    "DEC002",
		},
	},
	{
		pattern: "integer part",
		remedy: Remedy{
			Message: "The whole-number part of a decimal overflows its column",
			Action:  "Check for unit errors such as cents recorded as dollars",
			Code:    "DEC003",
		},
	},

	// Field validation.
	{
		pattern: "required but missing",
		remedy: Remedy{
			Message: "A required field is missing or empty",
			Action:  "Ensure every required column has a value in each row",
			Code:    "VAL001",
		},
	},
	{
		pattern: "not a valid integer",
		remedy: Remedy{
			Message: "A value is not a whole number",
			Action:  "Remove decimal points, separators, and stray characters",
			Code:    "VAL002",
		},
	},
	{
		pattern: "not a recognizable date",
		remedy: Remedy{
			Message: "A date could not be parsed",
			Action:  "Use YYYY-MM-DD, MM/DD/YYYY, or a similar standard format",
			Code:    "VAL003",
		},
	},
	{
		pattern: "not a boolean",
		remedy: Remedy{
			Message: "A value is not a recognized boolean",
			Action:  "Use true/false, yes/no, or 1/0",
			Code:    "VAL004",
		},
	},
	{
		pattern: "minimum length",
		remedy: Remedy{
			Message: "A value is outside its length limits",
			Action:  "Check the field's declared minimum and maximum length",
			Code:    "VAL005",
		},
	},
	{
		pattern: "maximum length",
		remedy: Remedy{
			Message: "A value is outside its length limits",
			Action:  "Check the field's declared minimum and maximum length",
			Code:    "VAL005",
		},
	},
	{
		pattern: "does not match pattern",
		remedy: Remedy{
			Message: "A value does not match the field's required format",
			Action:  "Compare the value against the declared pattern",
			Code:    "VAL006",
		},
	},
	{
		pattern: "not in the allowed list",
		remedy: Remedy{
			Message: "A value is not one of the allowed values",
			Action:  "Use one of the values declared for this field (matching is case-sensitive)",
			Code:    "VAL007",
		},
	},

	// Engine preconditions and run management.
	{
		pattern: "no field rules",
		remedy: Remedy{
			Message: "Validation was attempted without any usable rules",
			Action:  "Check the rule sheet's columns and contents",
			Code:    "RUN001",
		},
	},
	{
		pattern: "source and destination datasets are required",
		remedy: Remedy{
			Message: "Reconciliation needs both a source and a destination file",
			Action:  "Upload both files before comparing",
			Code:    "RUN002",
		},
	},
	{
		pattern: "too many concurrent runs",
		remedy: Remedy{
			Message: "The system is busy with other runs",
			Action:  "Wait a moment and try again",
			Code:    "RUN003",
		},
	},
}

// defaultRemedy is the ERR000 fallback; check server logs for the
// underlying technical error when users report it.
var defaultRemedy = Remedy{
	Message: "An unexpected error occurred",
	Action:  "Try again or contact support",
	Code:    "ERR000",
}

// RemedyFor maps a finding string onto remediation guidance.
func RemedyFor(finding string) Remedy {
	lower := strings.ToLower(finding)
	for _, rp := range remedyPatterns {
		if strings.Contains(lower, rp.pattern) {
			return rp.remedy
		}
	}
	return defaultRemedy
}

// FormatRemedy renders a finding with its remediation text for display:
// "Message (Code: XXX). Action".
func FormatRemedy(finding string) string {
	r := RemedyFor(finding)
	return fmt.Sprintf("%s (Code: %s). %s", r.Message, r.Code, r.Action)
}
