package tabular

import (
	"testing"
)

func TestParseDataset(t *testing.T) {
	data := []byte("id,name,amount\n1,Acme,10.50\n2,Beta,20.00\n,,\n3,Gamma,30.25\n")

	ds, err := ParseDataset("accounts.csv", data)
	if err != nil {
		t.Fatalf("ParseDataset: %v", err)
	}

	if len(ds.Columns) != 3 || ds.Columns[0] != "id" || ds.Columns[2] != "amount" {
		t.Errorf("columns = %v", ds.Columns)
	}
	// The fully empty row is skipped.
	if len(ds.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(ds.Rows))
	}
	if ds.Rows[2]["name"] != "Gamma" {
		t.Errorf("row 3 name = %q", ds.Rows[2]["name"])
	}
}

func TestParseDatasetBOMAndExcelArtifacts(t *testing.T) {
	data := []byte("\xEF\xBB\xBFid,name\n=\"001\",Acme\n")

	ds, err := ParseDataset("export.csv", data)
	if err != nil {
		t.Fatalf("ParseDataset: %v", err)
	}
	if ds.Columns[0] != "id" {
		t.Errorf("BOM not stripped from first header: %q", ds.Columns[0])
	}
	if got := ds.Rows[0]["id"]; got != "001" {
		t.Errorf("Excel formula prefix not stripped: %q", got)
	}
}

func TestParseDatasetRaggedRows(t *testing.T) {
	data := []byte("id,name,city\n1,Acme\n2,Beta,Oslo,EXTRA\n")

	ds, err := ParseDataset("ragged.csv", data)
	if err != nil {
		t.Fatalf("ParseDataset: %v", err)
	}
	if _, present := ds.Rows[0]["city"]; present {
		t.Errorf("short row should lack trailing column, got %q", ds.Rows[0]["city"])
	}
	if ds.Rows[1]["city"] != "Oslo" {
		t.Errorf("row 2 city = %q", ds.Rows[1]["city"])
	}
}

func TestParseDatasetWithHeaderDiscovery(t *testing.T) {
	data := []byte("Quarterly Export,,\nGenerated 2024-01-15,,\nid,name,amount\n1,Acme,10\n")

	ds, err := ParseDatasetWithHeader("report.csv", data, []string{"id", "name", "amount"})
	if err != nil {
		t.Fatalf("ParseDatasetWithHeader: %v", err)
	}
	if len(ds.Rows) != 1 || ds.Rows[0]["name"] != "Acme" {
		t.Errorf("rows = %+v", ds.Rows)
	}
}

func TestParseDatasetWithHeaderNotFound(t *testing.T) {
	data := []byte("a,b\n1,2\n")
	if _, err := ParseDatasetWithHeader("x.csv", data, []string{"id", "name", "amount"}); err == nil {
		t.Errorf("expected error when header cannot be located")
	}
}

func TestParseDatasetEmpty(t *testing.T) {
	if _, err := ParseDataset("empty.csv", nil); err == nil {
		t.Errorf("expected error for empty file")
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain  ", "plain"},
		{`="00123"`, "00123"},
		{"=SUM(A1)", "SUM(A1)"},
		{`"quoted"`, "quoted"},
		{"'single'", "single"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanCell(tt.in); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeUTF8(t *testing.T) {
	in := []byte{'a', 0xFF, 'b'}
	got := sanitizeUTF8(in)
	if string(got) != "a?b" {
		t.Errorf("sanitizeUTF8 = %q, want %q", got, "a?b")
	}

	clean := []byte("hello, world")
	if string(sanitizeUTF8(clean)) != "hello, world" {
		t.Errorf("clean ASCII input was modified")
	}
}
