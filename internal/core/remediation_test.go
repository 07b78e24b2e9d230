package core

import (
	"strings"
	"testing"
)

func TestRemedyFor(t *testing.T) {
	tests := []struct {
		name     string
		finding  string
		wantCode string
	}{
		{
			name:     "required field",
			finding:  `field "customer_id" is required but missing or empty`,
			wantCode: "VAL001",
		},
		{
			name:     "bad integer",
			finding:  `field "age": value "12.5" is not a valid integer`,
			wantCode: "VAL002",
		},
		{
			name:     "bad date",
			finding:  `field "joined": value "13/45/2023" is not a recognizable date`,
			wantCode: "VAL003",
		},
		{
			name:     "bad boolean",
			finding:  `field "active": value "maybe" is not a boolean (expected true/false, yes/no, or 1/0)`,
			wantCode: "VAL004",
		},
		{
			name:     "min length",
			finding:  `field "name": value shorter than minimum length 2`,
			wantCode: "VAL005",
		},
		{
			name:     "max length",
			finding:  `field "name": value exceeds maximum length 50`,
			wantCode: "VAL005",
		},
		{
			name:     "pattern mismatch",
			finding:  `field "email": value does not match pattern "^\S+@\S+$"`,
			wantCode: "VAL006",
		},
		{
			name:     "enum",
			finding:  `field "region": value "north" is not in the allowed list`,
			wantCode: "VAL007",
		},
		{
			name:     "precision overflow",
			finding:  `field "balance": value "12345678901234567.89" exceeds total precision 18`,
			wantCode: "DEC001",
		},
		{
			name:     "scale mismatch",
			finding:  `field "balance": scale requires exactly 2 fractional digits, got 3`,
			wantCode: "DEC002",
		},
		{
			name:     "integer part overflow",
			finding:  `field "rate": integer part of "123.45" exceeds 2 digits`,
			wantCode: "DEC003",
		},
		{
			name:     "no rules",
			finding:  "no field rules provided",
			wantCode: "RUN001",
		},
		{
			name:     "missing dataset",
			finding:  "source and destination datasets are required",
			wantCode: "RUN002",
		},
		{
			name:     "busy",
			finding:  "too many concurrent runs, please try again later",
			wantCode: "RUN003",
		},
		{
			name:     "unknown",
			finding:  "something deeply unexpected",
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemedyFor(tt.finding)
			if got.Code != tt.wantCode {
				t.Errorf("RemedyFor(%q).Code = %s, want %s", tt.finding, got.Code, tt.wantCode)
			}
			if got.Message == "" || got.Action == "" {
				t.Errorf("remedy %s has empty message or action: %+v", got.Code, got)
			}
		})
	}
}

func TestRemedyForIsCaseInsensitive(t *testing.T) {
	got := RemedyFor(`FIELD "X" IS REQUIRED BUT MISSING OR EMPTY`)
	if got.Code != "VAL001" {
		t.Errorf("case-insensitive match failed, got %s", got.Code)
	}
}

func TestFormatRemedy(t *testing.T) {
	out := FormatRemedy(`field "balance": scale requires exactly 2 fractional digits, got 1`)
	if !strings.Contains(out, "DEC002") {
		t.Errorf("formatted remedy missing code: %q", out)
	}
	if !strings.Contains(out, "Reformat") {
		t.Errorf("formatted remedy missing action: %q", out)
	}
}

// The three decimal failure modes must map to three different codes so
// users get the right advice for each.
func TestDecimalRemediesAreDistinct(t *testing.T) {
	codes := map[string]bool{
		RemedyFor("exceeds total precision 18").Code:                 true,
		RemedyFor("scale requires exactly 2 fractional digits").Code: true,
		RemedyFor("integer part of \"123.45\" exceeds 2 digits").Code: true,
	}
	if len(codes) != 3 {
		t.Errorf("decimal failure modes share remedy codes: %v", codes)
	}
}
