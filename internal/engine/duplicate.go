package engine

// duplicate.go finds records that share a composite key. The first
// occurrence of a key establishes the canonical row; every later
// occurrence is reported against it, in input order.

import (
	"sort"
	"strings"
)

// keySeparator joins key field values into a composite key. The ASCII
// unit separator cannot appear in sane field content, so joined keys
// never collide with each other.
const keySeparator = "\x1f"

// DetectDuplicates reports the second and later occurrences of each
// composite key in the dataset. When keyFields is empty the key degrades
// to whole-row equality over every column of the dataset. Absent values
// compare as empty strings, so a missing field and an empty field form
// the same key.
func DetectDuplicates(ds Dataset, keyFields []string) []DuplicateEntry {
	if len(ds.Rows) == 0 {
		return nil
	}

	fields := keyFields
	if len(fields) == 0 {
		fields = defaultKeyFields(ds)
	}

	firstSeen := make(map[string]int, len(ds.Rows))
	var dups []DuplicateEntry

	for i, rec := range ds.Rows {
		rowIndex := i + 1
		values := keyValues(rec, fields)
		key := strings.Join(values, keySeparator)

		if canonical, seen := firstSeen[key]; seen {
			dups = append(dups, DuplicateEntry{
				RowIndex:          rowIndex,
				FirstSeenRowIndex: canonical,
				KeyFields:         fields,
				KeyValues:         values,
			})
			continue
		}
		firstSeen[key] = rowIndex
	}

	return dups
}

// defaultKeyFields derives key fields from the dataset when none were
// supplied: the declared column order, or the first record's fields when
// the dataset carries no column list.
func defaultKeyFields(ds Dataset) []string {
	if len(ds.Columns) > 0 {
		return ds.Columns
	}
	fields := make([]string, 0, len(ds.Rows[0]))
	for f := range ds.Rows[0] {
		fields = append(fields, f)
	}
	// Map iteration order is random; sort for deterministic keys.
	sort.Strings(fields)
	return fields
}

// keyValues extracts the key field values from a record, coercing absent
// fields to the empty string.
func keyValues(rec Record, fields []string) []string {
	values := make([]string, len(fields))
	for i, f := range fields {
		values[i] = rec[f]
	}
	return values
}
