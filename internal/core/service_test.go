package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/crosscheck-hq/crosscheck/internal/engine"
	"github.com/crosscheck-hq/crosscheck/internal/store"
)

var testRules = []byte(`field,type,required,minlength,maxlength,pattern,allowed
id,int,yes,,,,
name,varchar(50),yes,2,50,,
balance,"decimal(18,2)",no,,,,
region,varchar(10),no,,,,"North, South"
`)

func newTestService() *Service {
	return NewService(ServiceOptions{Thresholds: engine.DefaultThresholds})
}

func TestServiceValidate(t *testing.T) {
	svc := newTestService()

	data := []byte(`id,name,balance,region
1,Acme,100.50,North
2,B,20.5,South
,Gamma,30.25,East
1,Acme,100.50,North
`)

	run, err := svc.Validate(context.Background(), ValidateRequest{
		DatasetName: "accounts.csv",
		RuleSheet:   testRules,
		Data:        data,
		KeyFields:   []string{"id"},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if run.Kind != store.KindValidation || run.Validation == nil {
		t.Fatalf("run = %+v", run)
	}
	report := run.Validation

	if report.TotalRows != 4 {
		t.Errorf("TotalRows = %d, want 4", report.TotalRows)
	}
	// Row 2: name too short, wrong scale. Row 3: id required.
	if report.ErrorRows != 2 {
		t.Errorf("ErrorRows = %d, want 2: %+v", report.ErrorRows, report.Findings)
	}
	// Row 4 repeats row 1's id.
	if len(report.Duplicates) != 1 || report.Duplicates[0].RowIndex != 4 {
		t.Errorf("Duplicates = %+v", report.Duplicates)
	}
	if report.Status != engine.StatusMinor {
		t.Errorf("Status = %q, want %q", report.Status, engine.StatusMinor)
	}
	if len(report.Headers.Missing) != 0 {
		t.Errorf("unexpected missing headers: %v", report.Headers.Missing)
	}

	got, err := svc.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.ID != run.ID {
		t.Errorf("GetRun returned wrong run: %s", got.ID)
	}
}

func TestServiceValidateCleanData(t *testing.T) {
	svc := newTestService()

	data := []byte("id,name,balance,region\n1,Acme,100.50,North\n2,Beta,20.00,South\n")

	run, err := svc.Validate(context.Background(), ValidateRequest{
		DatasetName: "clean.csv",
		RuleSheet:   testRules,
		Data:        data,
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	report := run.Validation
	if report.ErrorRows != 0 || len(report.Duplicates) != 0 {
		t.Errorf("clean data produced findings: %+v", report)
	}
	if report.Status != engine.StatusPerfect {
		t.Errorf("Status = %q, want %q", report.Status, engine.StatusPerfect)
	}
}

func TestServiceValidateDiscoversHeaderBelowPreamble(t *testing.T) {
	svc := newTestService()

	data := []byte(`Account Export,,,
Generated 2024-01-15,,,
id,name,balance,region
1,Acme,100.50,North
`)

	run, err := svc.Validate(context.Background(), ValidateRequest{
		DatasetName: "export.csv",
		RuleSheet:   testRules,
		Data:        data,
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	report := run.Validation
	if report.TotalRows != 1 || report.ErrorRows != 0 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Headers.Common) != 4 {
		t.Errorf("Common headers = %v", report.Headers.Common)
	}
}

func TestServiceValidateBadRuleSheet(t *testing.T) {
	svc := newTestService()
	_, err := svc.Validate(context.Background(), ValidateRequest{
		DatasetName: "x.csv",
		RuleSheet:   []byte("a,b\n1,2\n"),
		Data:        []byte("id\n1\n"),
	})
	if err == nil {
		t.Fatal("expected error for unusable rule sheet")
	}
}

func TestServiceReconcile(t *testing.T) {
	svc := newTestService()

	source := []byte("id,amount\n1,10\n2,20\n3,30\n")
	dest := []byte("id,amount\n1,10\n2,25\n4,40\n")

	run, err := svc.Reconcile(context.Background(), ReconcileRequest{
		SourceName:      "erp.csv",
		Source:          source,
		DestinationName: "warehouse.csv",
		Destination:     dest,
		KeyFields:       []string{"id"},
		Strict:          true,
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if run.Kind != store.KindReconciliation || run.Reconciliation == nil {
		t.Fatalf("run = %+v", run)
	}
	sum := run.Reconciliation.Result.Summary
	if sum.MissingCount != 1 || sum.ExtraCount != 1 || sum.MismatchCount != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestServiceGetRunUnknown(t *testing.T) {
	svc := newTestService()
	if _, err := svc.GetRun(uuid.New()); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestServiceRecentRunsInMemoryFallback(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	data := []byte("id,name,balance,region\n1,Acme,100.50,North\n")
	first, err := svc.Validate(ctx, ValidateRequest{DatasetName: "a.csv", RuleSheet: testRules, Data: data})
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Validate(ctx, ValidateRequest{DatasetName: "b.csv", RuleSheet: testRules, Data: data})
	if err != nil {
		t.Fatal(err)
	}

	recent, err := svc.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d runs, want 2", len(recent))
	}
	// Newest first.
	if recent[0].ID != second.ID || recent[1].ID != first.ID {
		t.Errorf("order = %s, %s", recent[0].ID, recent[1].ID)
	}
	if recent[0].DatasetName != "b.csv" {
		t.Errorf("DatasetName = %q", recent[0].DatasetName)
	}
}

func TestServiceRegistryEviction(t *testing.T) {
	svc := NewService(ServiceOptions{MaxRuns: 2})
	ctx := context.Background()
	data := []byte("id,name,balance,region\n1,Acme,100.50,North\n")

	var ids []uuid.UUID
	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		run, err := svc.Validate(ctx, ValidateRequest{DatasetName: name, RuleSheet: testRules, Data: data})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, run.ID)
	}

	if _, err := svc.GetRun(ids[0]); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("oldest run should be evicted, got %v", err)
	}
	for _, id := range ids[1:] {
		if _, err := svc.GetRun(id); err != nil {
			t.Errorf("run %s should survive: %v", id, err)
		}
	}
}
