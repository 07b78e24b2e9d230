package engine

import (
	"strings"
	"testing"
)

func TestDetectFormattingIssues(t *testing.T) {
	rules := []FieldRule{
		{FieldName: "email", Type: TypeString},
		{FieldName: "phone", Type: TypeString},
		{FieldName: "joined", Type: TypeDate},
		{FieldName: "amount", Type: TypeDecimal, RawType: "decimal(10,2)"},
	}
	columns := []string{"email", "phone", "joined", "amount"}

	tests := []struct {
		name      string
		rec       Record
		wantCount int
		wantHint  string
	}{
		{
			name:      "clean record produces no entry",
			rec:       Record{"email": "a@b.com", "phone": "+4798765432", "joined": "2024-01-15", "amount": "100.50"},
			wantCount: 0,
		},
		{
			name:      "trailing whitespace",
			rec:       Record{"email": "a@b.com "},
			wantCount: 1,
			wantHint:  "whitespace",
		},
		{
			name:      "mixed case email",
			rec:       Record{"email": "John@Example.COM"},
			wantCount: 1,
			wantHint:  "lowercase",
		},
		{
			name:      "phone with letters",
			rec:       Record{"phone": "call me"},
			wantCount: 1,
			wantHint:  "phone",
		},
		{
			name:      "formatted phone accepted",
			rec:       Record{"phone": "(555) 123-4567"},
			wantCount: 0,
		},
		{
			name:      "nonstandard date shape",
			rec:       Record{"joined": "Jan 15, 2024"},
			wantCount: 1,
			wantHint:  "standard format",
		},
		{
			name:      "single digit date shape accepted",
			rec:       Record{"joined": "1/5/2024"},
			wantCount: 0,
		},
		{
			name:      "decimal scale drift",
			rec:       Record{"amount": "100.5"},
			wantCount: 1,
			wantHint:  "fractional digits",
		},
		{
			name:      "empty values never flagged",
			rec:       Record{"email": "", "phone": "  "},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := Dataset{Columns: columns, Rows: []Record{tt.rec}}
			issues := DetectFormattingIssues(ds, rules)

			if tt.wantCount == 0 {
				if len(issues) != 0 {
					t.Fatalf("expected no issues, got %+v", issues)
				}
				return
			}
			if len(issues) != 1 {
				t.Fatalf("expected one aggregated entry, got %d: %+v", len(issues), issues)
			}
			joined := strings.Join(issues[0].Issues, "; ")
			if !strings.Contains(joined, tt.wantHint) {
				t.Errorf("issues %q do not mention %q", joined, tt.wantHint)
			}
		})
	}
}

func TestFormattingIssuesAggregatePerRecord(t *testing.T) {
	rules := []FieldRule{{FieldName: "joined", Type: TypeDate}}
	ds := Dataset{
		Columns: []string{"email", "joined"},
		Rows: []Record{
			{"email": " MiXeD@Case.Com ", "joined": "15th of March"},
		},
	}

	issues := DetectFormattingIssues(ds, rules)
	if len(issues) != 1 {
		t.Fatalf("expected one entry for the record, got %d", len(issues))
	}
	// Whitespace, case, and date shape all flagged on the same record.
	if len(issues[0].Issues) != 3 {
		t.Errorf("got %d issues, want 3: %v", len(issues[0].Issues), issues[0].Issues)
	}
}

// A record can be valid and still carry formatting issues: the two
// signals are independent.
func TestFormattingIndependentFromValidity(t *testing.T) {
	rules := []FieldRule{{FieldName: "amount", Type: TypeDecimal, RawType: "decimal(10,2)"}}
	ds := Dataset{Columns: []string{"amount"}, Rows: []Record{{"amount": "100.5"}}}

	outcomes, err := ValidateRecords(ds, rules)
	if err != nil {
		t.Fatalf("ValidateRecords: %v", err)
	}

	issues := DetectFormattingIssues(ds, rules)
	if len(issues) != 1 {
		t.Fatalf("expected a formatting note for scale drift, got %d", len(issues))
	}
	// Validation disagrees here by design: "100.5" fails the hard scale
	// check but the formatting note must still be produced independently.
	if outcomes[0].Valid {
		t.Errorf("strict decimal validation should reject 100.5 against scale 2")
	}
}
