package engine

import (
	"reflect"
	"testing"
)

var accountRules = []FieldRule{
	{FieldName: "id", Type: TypeInteger, Required: true},
	{FieldName: "name", Type: TypeString, Required: true, MaxLength: 20},
	{FieldName: "balance", Type: TypeDecimal, RawType: "DECIMAL(10,2)"},
	{FieldName: "opened", Type: TypeDate},
}

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name       string
		rec        Record
		wantValid  bool
		wantErrors int
	}{
		{
			name:      "clean record",
			rec:       Record{"id": "7", "name": "Acme", "balance": "100.50", "opened": "2024-01-15"},
			wantValid: true,
		},
		{
			name:      "optional fields absent",
			rec:       Record{"id": "7", "name": "Acme"},
			wantValid: true,
		},
		{
			name:       "missing required column",
			rec:        Record{"name": "Acme"},
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name:       "multiple failures across fields",
			rec:        Record{"id": "abc", "name": "", "balance": "100.5", "opened": "soon"},
			wantValid:  false,
			wantErrors: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ValidateRecord(tt.rec, accountRules, 1)
			if out.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (errors: %v)", out.Valid, tt.wantValid, out.Errors)
			}
			if tt.wantErrors > 0 && len(out.Errors) != tt.wantErrors {
				t.Errorf("got %d errors, want %d: %v", len(out.Errors), tt.wantErrors, out.Errors)
			}
			if out.Valid != (len(out.Errors) == 0) {
				t.Errorf("Valid flag disagrees with error count")
			}
		})
	}
}

func TestValidateRecordsEmptyRuleList(t *testing.T) {
	ds := Dataset{Rows: []Record{{"id": "1"}}}
	if _, err := ValidateRecords(ds, nil); err != ErrNoRules {
		t.Errorf("ValidateRecords with no rules: err = %v, want ErrNoRules", err)
	}
}

func TestValidateRecordsNeverShortCircuits(t *testing.T) {
	ds := Dataset{Rows: []Record{
		{"id": "bad"},
		{"id": "1", "name": "ok"},
		{"id": "also bad"},
	}}

	outcomes, err := ValidateRecords(ds, accountRules)
	if err != nil {
		t.Fatalf("ValidateRecords: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want one per record", len(outcomes))
	}
	if outcomes[0].Valid || !outcomes[1].Valid || outcomes[2].Valid {
		t.Errorf("unexpected validity pattern: %+v", outcomes)
	}
	for i, out := range outcomes {
		if out.RowIndex != i+1 {
			t.Errorf("outcome %d has RowIndex %d", i, out.RowIndex)
		}
	}
}

// Re-running validation on unchanged inputs must yield identical output:
// no hidden timestamps or ordering nondeterminism.
func TestValidateRecordsIdempotent(t *testing.T) {
	ds := Dataset{Rows: []Record{
		{"id": "x", "name": "Acme", "balance": "1.234", "opened": "junk"},
		{"id": "2", "name": "Beta"},
	}}

	first, err := ValidateRecords(ds, accountRules)
	if err != nil {
		t.Fatalf("ValidateRecords: %v", err)
	}
	second, err := ValidateRecords(ds, accountRules)
	if err != nil {
		t.Fatalf("ValidateRecords: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated runs differ:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
