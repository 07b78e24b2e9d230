package engine

import (
	"reflect"
	"testing"
)

func accountsDataset(rows ...Record) *Dataset {
	return &Dataset{
		Columns: []string{"id", "name", "balance"},
		Rows:    rows,
	}
}

func TestReconcileKeyPresence(t *testing.T) {
	source := accountsDataset(
		Record{"id": "1", "name": "Acme", "balance": "10"},
		Record{"id": "2", "name": "Beta", "balance": "20"},
		Record{"id": "3", "name": "Gamma", "balance": "30"},
		Record{"id": "4", "name": "Delta", "balance": "40"},
	)
	dest := accountsDataset(
		Record{"id": "1", "name": "Acme", "balance": "10"},
		Record{"id": "2", "name": "Beta CHANGED", "balance": "20"},
		Record{"id": "3", "name": "Gamma", "balance": "30"},
		Record{"id": "5", "name": "Epsilon", "balance": "50"},
	)

	t.Run("non-strict ignores field differences", func(t *testing.T) {
		res, err := Reconcile(source, dest, ReconcileOptions{KeyFields: []string{"id"}})
		if err != nil {
			t.Fatalf("Reconcile: %v", err)
		}

		if len(res.Missing) != 1 || res.Missing[0].CompositeKey != "4" {
			t.Errorf("missing = %+v, want key 4", res.Missing)
		}
		if len(res.Extra) != 1 || res.Extra[0].CompositeKey != "5" {
			t.Errorf("extra = %+v, want key 5", res.Extra)
		}
		if len(res.Mismatches) != 0 {
			t.Errorf("non-strict mode inspected fields: %+v", res.Mismatches)
		}

		s := res.Summary
		if s.SourceRecordCount != 4 || s.DestinationRecordCount != 4 {
			t.Errorf("record counts = %d/%d, want 4/4", s.SourceRecordCount, s.DestinationRecordCount)
		}
		if s.MatchingRecords != 3 {
			t.Errorf("MatchingRecords = %d, want 3", s.MatchingRecords)
		}
	})

	t.Run("strict flags the differing non-key field", func(t *testing.T) {
		res, err := Reconcile(source, dest, ReconcileOptions{KeyFields: []string{"id"}, Strict: true})
		if err != nil {
			t.Fatalf("Reconcile: %v", err)
		}

		if len(res.Mismatches) != 1 {
			t.Fatalf("mismatches = %+v, want exactly one entry for key 2", res.Mismatches)
		}
		m := res.Mismatches[0]
		if m.CompositeKey != "2" {
			t.Errorf("mismatch key = %q, want 2", m.CompositeKey)
		}
		wantDiffs := []FieldDiff{{Field: "name", SourceValue: "Beta", DestValue: "Beta CHANGED"}}
		if !reflect.DeepEqual(m.FieldDiffs, wantDiffs) {
			t.Errorf("diffs = %+v, want %+v", m.FieldDiffs, wantDiffs)
		}
	})
}

func TestReconcilePreconditions(t *testing.T) {
	ds := accountsDataset()
	if _, err := Reconcile(nil, ds, ReconcileOptions{}); err != ErrDatasetMissing {
		t.Errorf("nil source: err = %v, want ErrDatasetMissing", err)
	}
	if _, err := Reconcile(ds, nil, ReconcileOptions{}); err != ErrDatasetMissing {
		t.Errorf("nil destination: err = %v, want ErrDatasetMissing", err)
	}
}

func TestReconcileEmptySides(t *testing.T) {
	full := accountsDataset(
		Record{"id": "1", "name": "Acme", "balance": "10"},
		Record{"id": "2", "name": "Beta", "balance": "20"},
	)
	empty := accountsDataset()

	res, err := Reconcile(full, empty, ReconcileOptions{KeyFields: []string{"id"}})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(res.Missing) != 2 || len(res.Extra) != 0 {
		t.Errorf("full vs empty: missing=%d extra=%d, want 2/0", len(res.Missing), len(res.Extra))
	}

	res, err = Reconcile(empty, full, ReconcileOptions{KeyFields: []string{"id"}})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(res.Missing) != 0 || len(res.Extra) != 2 {
		t.Errorf("empty vs full: missing=%d extra=%d, want 0/2", len(res.Missing), len(res.Extra))
	}

	res, err = Reconcile(empty, empty, ReconcileOptions{KeyFields: []string{"id"}})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if res.Summary.Status != StatusPerfect {
		t.Errorf("empty vs empty status = %q, want perfect", res.Summary.Status)
	}
}

func TestReconcileIntraSideDuplicatesOverwrite(t *testing.T) {
	source := accountsDataset(
		Record{"id": "1", "name": "first", "balance": "1"},
		Record{"id": "1", "name": "second", "balance": "2"},
	)
	dest := accountsDataset(
		Record{"id": "1", "name": "second", "balance": "2"},
	)

	res, err := Reconcile(source, dest, ReconcileOptions{KeyFields: []string{"id"}, Strict: true})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	// The later source occurrence won, so strict comparison sees no diff.
	if len(res.Mismatches) != 0 {
		t.Errorf("expected last-occurrence-wins, got mismatches %+v", res.Mismatches)
	}
}

func TestReconcileStatusThresholds(t *testing.T) {
	tests := []struct {
		name       string
		missing    int
		thresholds Thresholds
		want       string
	}{
		{"no differences", 0, Thresholds{MinorMax: 2, ModerateMax: 5}, StatusPerfect},
		{"within minor", 2, Thresholds{MinorMax: 2, ModerateMax: 5}, StatusMinor},
		{"within moderate", 4, Thresholds{MinorMax: 2, ModerateMax: 5}, StatusModerate},
		{"beyond moderate", 6, Thresholds{MinorMax: 2, ModerateMax: 5}, StatusMajor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &Dataset{Columns: []string{"id"}}
			for i := 0; i < tt.missing; i++ {
				source.Rows = append(source.Rows, Record{"id": string(rune('a' + i))})
			}
			dest := &Dataset{Columns: []string{"id"}}

			res, err := Reconcile(source, dest, ReconcileOptions{
				KeyFields:  []string{"id"},
				Thresholds: tt.thresholds,
			})
			if err != nil {
				t.Fatalf("Reconcile: %v", err)
			}
			if res.Summary.Status != tt.want {
				t.Errorf("status = %q, want %q", res.Summary.Status, tt.want)
			}
		})
	}
}

func TestReconcileIdempotent(t *testing.T) {
	source := accountsDataset(
		Record{"id": "1", "name": "Acme", "balance": "10"},
		Record{"id": "2", "name": "Beta", "balance": "20"},
	)
	dest := accountsDataset(
		Record{"id": "2", "name": "Beta!", "balance": "20"},
		Record{"id": "3", "name": "Gamma", "balance": "30"},
	)
	opts := ReconcileOptions{KeyFields: []string{"id"}, Strict: true}

	first, err := Reconcile(source, dest, opts)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	second, err := Reconcile(source, dest, opts)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated runs differ:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
