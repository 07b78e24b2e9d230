package engine

// reconcile.go matches two datasets by composite key and classifies
// records as missing (in source, absent from destination), extra (in
// destination, absent from source), or mismatched (present on both sides
// with differing non-key fields, strict mode only).
//
// Within one side, later duplicate keys silently overwrite earlier ones.
// Reconciliation asserts cross-side presence only; intra-side uniqueness
// is the duplicate detector's job.

import (
	"sort"
	"strings"
)

// Thresholds drive the coarse status classification. A reconciliation
// with zero differences is "perfect"; otherwise the total difference
// count is compared against MinorMax and ModerateMax. The numbers are a
// policy choice and are injected from configuration, never hard-coded at
// call sites.
type Thresholds struct {
	MinorMax    int
	ModerateMax int
}

// DefaultThresholds are used when the caller supplies none.
var DefaultThresholds = Thresholds{MinorMax: 10, ModerateMax: 100}

// Classify maps a total finding count onto the coarse status scale.
func (t Thresholds) Classify(total int) string {
	if t.MinorMax <= 0 && t.ModerateMax <= 0 {
		t = DefaultThresholds
	}
	switch {
	case total == 0:
		return StatusPerfect
	case total <= t.MinorMax:
		return StatusMinor
	case total <= t.ModerateMax:
		return StatusModerate
	default:
		return StatusMajor
	}
}

// Status levels, coarsest summary of a reconciliation pass.
const (
	StatusPerfect  = "perfect"
	StatusMinor    = "minor"
	StatusModerate = "moderate"
	StatusMajor    = "major"
)

// ReconcileOptions configures a reconciliation pass. KeyFields defaults
// to every column of the source dataset. Strict additionally compares
// non-key fields for matched keys.
type ReconcileOptions struct {
	KeyFields  []string
	Strict     bool
	Thresholds Thresholds
}

// Reconcile matches source records against destination records by
// composite key. Both datasets must be loaded; a nil on either side is
// caller misuse and returns ErrDatasetMissing. Empty datasets are legal
// and yield all-missing, all-extra, or an empty result.
func Reconcile(source, dest *Dataset, opts ReconcileOptions) (*ReconciliationResult, error) {
	if source == nil || dest == nil {
		return nil, ErrDatasetMissing
	}

	keys := opts.KeyFields
	if len(keys) == 0 {
		keys = defaultReconcileKeys(source)
	}

	srcByKey, srcOrder := indexByKey(source, keys)
	dstByKey, dstOrder := indexByKey(dest, keys)

	result := &ReconciliationResult{KeyFields: keys}

	for _, key := range srcOrder {
		if _, ok := dstByKey[key]; !ok {
			result.Missing = append(result.Missing, matchEntry(key, srcByKey[key], keys))
		}
	}

	for _, key := range dstOrder {
		if _, ok := srcByKey[key]; !ok {
			result.Extra = append(result.Extra, matchEntry(key, dstByKey[key], keys))
		}
	}

	if opts.Strict {
		compareFields := nonKeyFields(source, dest, keys)
		for _, key := range srcOrder {
			dstRec, ok := dstByKey[key]
			if !ok {
				continue
			}
			srcRec := srcByKey[key]
			diffs := diffRecords(srcRec.rec, dstRec.rec, compareFields)
			if len(diffs) > 0 {
				result.Mismatches = append(result.Mismatches, MismatchEntry{
					MatchEntry: matchEntry(key, srcRec, keys),
					FieldDiffs: diffs,
				})
			}
		}
	}

	thresholds := opts.Thresholds
	if thresholds.MinorMax <= 0 && thresholds.ModerateMax <= 0 {
		thresholds = DefaultThresholds
	}

	result.Summary = ReconciliationSummary{
		SourceRecordCount:      len(source.Rows),
		DestinationRecordCount: len(dest.Rows),
		MatchingRecords:        len(source.Rows) - len(result.Missing),
		MissingCount:           len(result.Missing),
		ExtraCount:             len(result.Extra),
		MismatchCount:          len(result.Mismatches),
	}
	result.Summary.Status = classify(result.Summary, thresholds)

	return result, nil
}

// keyedRecord remembers where a key's record came from. Later duplicates
// on the same side overwrite earlier ones, so this always holds the last
// occurrence.
type keyedRecord struct {
	rec      Record
	rowIndex int
}

// indexByKey builds the key-to-record mapping for one side and records
// first-seen key order so output stays deterministic.
func indexByKey(ds *Dataset, keys []string) (map[string]keyedRecord, []string) {
	byKey := make(map[string]keyedRecord, len(ds.Rows))
	order := make([]string, 0, len(ds.Rows))

	for i, rec := range ds.Rows {
		values := keyValues(rec, keys)
		key := strings.Join(values, keySeparator)
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = keyedRecord{rec: rec, rowIndex: i + 1}
	}
	return byKey, order
}

func matchEntry(key string, kr keyedRecord, keys []string) MatchEntry {
	return MatchEntry{
		CompositeKey: strings.Join(keyValues(kr.rec, keys), "|"),
		RowIndex:     kr.rowIndex,
		KeyValues:    keyValues(kr.rec, keys),
	}
}

// defaultReconcileKeys falls back to every field of the source dataset.
func defaultReconcileKeys(source *Dataset) []string {
	if len(source.Columns) > 0 {
		return source.Columns
	}
	if len(source.Rows) == 0 {
		return nil
	}
	keys := make([]string, 0, len(source.Rows[0]))
	for f := range source.Rows[0] {
		keys = append(keys, f)
	}
	sort.Strings(keys)
	return keys
}

// nonKeyFields is the union of both sides' columns minus the key fields,
// source column order first, destination-only columns appended.
func nonKeyFields(source, dest *Dataset, keys []string) []string {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}

	srcCols := source.Columns
	if len(srcCols) == 0 && len(source.Rows) > 0 {
		srcCols = recordFields(source.Rows[0])
	}
	dstCols := dest.Columns
	if len(dstCols) == 0 && len(dest.Rows) > 0 {
		dstCols = recordFields(dest.Rows[0])
	}

	seen := make(map[string]bool)
	var fields []string
	for _, col := range append(append([]string{}, srcCols...), dstCols...) {
		if isKey[col] || seen[col] {
			continue
		}
		seen[col] = true
		fields = append(fields, col)
	}
	return fields
}

// recordFields lists a record's field names in sorted order.
func recordFields(rec Record) []string {
	fields := make([]string, 0, len(rec))
	for f := range rec {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// diffRecords compares the given fields of two records, trimming both
// sides. Absent fields compare as empty strings.
func diffRecords(src, dst Record, fields []string) []FieldDiff {
	var diffs []FieldDiff
	for _, f := range fields {
		sv := strings.TrimSpace(src[f])
		dv := strings.TrimSpace(dst[f])
		if sv != dv {
			diffs = append(diffs, FieldDiff{Field: f, SourceValue: sv, DestValue: dv})
		}
	}
	return diffs
}

// classify maps difference counts onto the coarse status scale.
func classify(s ReconciliationSummary, t Thresholds) string {
	return t.Classify(s.MissingCount + s.ExtraCount + s.MismatchCount)
}
