// Package engine implements rule-based validation and reconciliation for
// tabular data. All functions in this package are pure: they operate on
// fully materialized in-memory datasets and rule lists, hold no state
// between calls, and produce self-contained result structures. The same
// inputs always yield the same outputs.
package engine

import "errors"

// ErrNoRules is returned when validation is attempted with an empty rule
// list. This indicates caller misuse, not bad data.
var ErrNoRules = errors.New("no field rules loaded")

// ErrDatasetMissing is returned when reconciliation is attempted before
// both datasets have been loaded.
var ErrDatasetMissing = errors.New("both source and destination datasets are required")

// Record maps field names to raw string values for a single input row.
// Values are never pre-typed; all coercion happens at validation time.
type Record map[string]string

// Dataset is an ordered set of records plus the column order they arrived
// in. Column order matters for default composite keys and for deterministic
// output; Go maps do not preserve it, so it is carried here.
type Dataset struct {
	Name    string
	Columns []string
	Rows    []Record
}

// ValidationOutcome is the result of validating one record against the
// full rule list. Valid is false iff Errors is non-empty; warnings never
// affect validity.
type ValidationOutcome struct {
	RowIndex int      `json:"rowIndex"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// DuplicateEntry reports the second and later occurrences of a composite
// key. FirstSeenRowIndex references the canonical (first) row.
type DuplicateEntry struct {
	RowIndex          int      `json:"rowIndex"`
	FirstSeenRowIndex int      `json:"firstSeenRowIndex"`
	KeyFields         []string `json:"keyFields"`
	KeyValues         []string `json:"keyValues"`
}

// FormattingIssue aggregates the representational defects found in one
// record. These are soft signals: a record can be fully valid and still
// carry formatting issues.
type FormattingIssue struct {
	RowIndex int      `json:"rowIndex"`
	Issues   []string `json:"issues"`
}

// HeaderMatch is the set diff between expected and actual column names.
// Comparison is case-insensitive; reported names keep their original
// spelling.
type HeaderMatch struct {
	Missing []string `json:"missing,omitempty"` // expected but absent
	Extra   []string `json:"extra,omitempty"`   // present but not expected
	Common  []string `json:"common,omitempty"`  // present on both sides
}

// MatchEntry identifies a record by its composite key during
// reconciliation.
type MatchEntry struct {
	CompositeKey string   `json:"compositeKey"`
	RowIndex     int      `json:"rowIndex"`
	KeyValues    []string `json:"keyValues"`
}

// FieldDiff is a single non-key field whose values differ between source
// and destination for a matched key.
type FieldDiff struct {
	Field       string `json:"field"`
	SourceValue string `json:"sourceValue"`
	DestValue   string `json:"destValue"`
}

// MismatchEntry is a matched record with at least one differing non-key
// field. Only produced in strict mode.
type MismatchEntry struct {
	MatchEntry
	FieldDiffs []FieldDiff `json:"fieldDiffs"`
}

// ReconciliationSummary holds the headline counts for a reconciliation
// pass plus the coarse status classification.
type ReconciliationSummary struct {
	SourceRecordCount      int    `json:"sourceRecordCount"`
	DestinationRecordCount int    `json:"destinationRecordCount"`
	MatchingRecords        int    `json:"matchingRecords"`
	MissingCount           int    `json:"missingCount"`
	ExtraCount             int    `json:"extraCount"`
	MismatchCount          int    `json:"mismatchCount"`
	Status                 string `json:"status"`
}

// ReconciliationResult is the full output of a reconciliation pass.
type ReconciliationResult struct {
	KeyFields  []string              `json:"keyFields"`
	Missing    []MatchEntry          `json:"missing,omitempty"`
	Extra      []MatchEntry          `json:"extra,omitempty"`
	Mismatches []MismatchEntry       `json:"mismatches,omitempty"`
	Summary    ReconciliationSummary `json:"summary"`
}
