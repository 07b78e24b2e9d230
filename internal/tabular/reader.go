// Package tabular turns raw CSV bytes into engine datasets. It absorbs
// the messy reality of user-exported files — UTF-8 BOMs, invalid byte
// sequences, Excel formula prefixes, ragged rows — so the engine only
// ever sees clean string-keyed records.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/crosscheck-hq/crosscheck/internal/engine"
)

// maxHeaderScanRows limits how far down a file the header row is searched
// for. Exports sometimes carry title or note rows above the real header.
const maxHeaderScanRows = 10

// ParseDataset parses CSV bytes into a dataset. The first non-empty row
// is taken as the header; fully empty data rows are skipped. Rows may be
// ragged: short rows simply lack the trailing columns.
func ParseDataset(name string, data []byte) (*engine.Dataset, error) {
	records, err := parseCSV(data)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	headerIdx := 0
	for headerIdx < len(records) && isEmptyRow(records[headerIdx]) {
		headerIdx++
	}
	if headerIdx == len(records) {
		return nil, fmt.Errorf("no header row found")
	}

	return buildDataset(name, records[headerIdx], records[headerIdx+1:]), nil
}

// ParseDatasetWithHeader parses CSV bytes, locating the header row by
// searching the first few rows for the one that best matches the
// expected column names. Used when rule definitions declare the columns
// a data file must carry.
func ParseDatasetWithHeader(name string, data []byte, expected []string) (*engine.Dataset, error) {
	records, err := parseCSV(data)
	if err != nil {
		return nil, err
	}

	headerIdx := findHeaderRow(records, expected)
	if headerIdx < 0 {
		return nil, fmt.Errorf("header row not found (expected columns: %s)", strings.Join(expected, ", "))
	}

	return buildDataset(name, records[headerIdx], records[headerIdx+1:]), nil
}

// parseCSV sanitizes and parses raw bytes. Rows are allowed to have
// varying field counts; quote handling is lax to survive hand-edited
// files.
func parseCSV(data []byte) ([][]string, error) {
	data = trimBOM(sanitizeUTF8(data))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = false

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return records, nil
}

// buildDataset assembles a dataset from a header row and data rows.
func buildDataset(name string, header []string, rows [][]string) *engine.Dataset {
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = CleanCell(h)
	}

	ds := &engine.Dataset{Name: name, Columns: columns}
	for _, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		rec := make(engine.Record, len(columns))
		for i, col := range columns {
			if col == "" {
				continue
			}
			if i < len(row) {
				rec[col] = CleanCell(row[i])
			}
		}
		ds.Rows = append(ds.Rows, rec)
	}
	return ds
}

// findHeaderRow scans the first rows of the file for the one containing
// the most expected column names. Returns -1 when no row matches at
// least half of them.
func findHeaderRow(records [][]string, expected []string) int {
	if len(expected) == 0 {
		return 0
	}

	want := make(map[string]bool, len(expected))
	for _, e := range expected {
		want[strings.ToLower(strings.TrimSpace(e))] = true
	}

	bestIdx, bestHits := -1, 0
	limit := len(records)
	if limit > maxHeaderScanRows {
		limit = maxHeaderScanRows
	}

	for i := 0; i < limit; i++ {
		hits := 0
		for _, cell := range records[i] {
			if want[strings.ToLower(CleanCell(cell))] {
				hits++
			}
		}
		if hits > bestHits {
			bestIdx, bestHits = i, hits
		}
	}

	if bestHits*2 < len(expected) {
		return -1
	}
	return bestIdx
}

// isEmptyRow reports whether every cell is blank after trimming.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// CleanCell removes common CSV artifacts from a cell value: surrounding
// whitespace, Excel formula prefixes (="value"), and stray quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}
