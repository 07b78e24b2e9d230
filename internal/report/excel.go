// Package report renders completed runs as Excel workbooks. The
// workbook is the artifact analysts hand to data owners, so every
// finding row carries its remediation code and action alongside the raw
// finding text.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/crosscheck-hq/crosscheck/internal/core"
	"github.com/crosscheck-hq/crosscheck/internal/engine"
)

// WriteValidation renders a validation report as an xlsx workbook with
// Summary, Errors, Duplicates, and Formatting sheets.
func WriteValidation(w io.Writer, rep *core.ValidationReport) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := headerStyle(f)
	if err != nil {
		return err
	}

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	writeSummaryPairs(f, "Summary", [][2]any{
		{"Dataset", rep.DatasetName},
		{"Status", rep.Status},
		{"Total rows", rep.TotalRows},
		{"Rows with errors", rep.ErrorRows},
		{"Rows with warnings", rep.WarningRows},
		{"Total errors", rep.TotalErrors},
		{"Duplicate rows", len(rep.Duplicates)},
		{"Rows with formatting issues", len(rep.Formatting)},
		{"Missing columns", strings.Join(rep.Headers.Missing, ", ")},
		{"Unexpected columns", strings.Join(rep.Headers.Extra, ", ")},
	}, header)

	if err := writeFindingsSheet(f, rep, header); err != nil {
		return err
	}
	if err := writeDuplicatesSheet(f, rep, header); err != nil {
		return err
	}
	if err := writeFormattingSheet(f, rep, header); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteReconciliation renders a reconciliation report as an xlsx
// workbook with Summary, Missing, Extra, and Mismatches sheets.
func WriteReconciliation(w io.Writer, rep *core.ReconciliationReport) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := headerStyle(f)
	if err != nil {
		return err
	}

	sum := rep.Result.Summary
	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	writeSummaryPairs(f, "Summary", [][2]any{
		{"Source", rep.SourceName},
		{"Destination", rep.DestinationName},
		{"Status", sum.Status},
		{"Key fields", strings.Join(rep.Result.KeyFields, ", ")},
		{"Strict field comparison", rep.Strict},
		{"Source records", sum.SourceRecordCount},
		{"Destination records", sum.DestinationRecordCount},
		{"Matching records", sum.MatchingRecords},
		{"Missing from destination", sum.MissingCount},
		{"Extra in destination", sum.ExtraCount},
		{"Field mismatches", sum.MismatchCount},
	}, header)

	if err := writeMatchSheet(f, "Missing", "Source row", rep.Result.Missing, header); err != nil {
		return err
	}
	if err := writeMatchSheet(f, "Extra", "Destination row", rep.Result.Extra, header); err != nil {
		return err
	}
	if err := writeMismatchSheet(f, rep, header); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func headerStyle(f *excelize.File) (int, error) {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, fmt.Errorf("create header style: %w", err)
	}
	return style, nil
}

// writeSummaryPairs fills a two-column label/value sheet.
func writeSummaryPairs(f *excelize.File, sheet string, pairs [][2]any, header int) {
	for i, pair := range pairs {
		row := i + 1
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), pair[0])
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), pair[1])
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), header)
	}
	f.SetColWidth(sheet, "A", "A", 30)
	f.SetColWidth(sheet, "B", "B", 40)
}

func writeFindingsSheet(f *excelize.File, rep *core.ValidationReport, header int) error {
	const sheet = "Errors"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", sheet, err)
	}
	writeHeaderRow(f, sheet, header, "Row", "Severity", "Finding", "Code", "Suggested action")

	row := 2
	for _, outcome := range rep.Findings {
		for _, e := range outcome.Errors {
			writeFindingRow(f, sheet, row, outcome.RowIndex, "error", e)
			row++
		}
		for _, warn := range outcome.Warnings {
			writeFindingRow(f, sheet, row, outcome.RowIndex, "warning", warn)
			row++
		}
	}
	f.SetColWidth(sheet, "C", "C", 60)
	f.SetColWidth(sheet, "E", "E", 50)
	return nil
}

func writeFindingRow(f *excelize.File, sheet string, row, dataRow int, severity, finding string) {
	remedy := core.RemedyFor(finding)
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), dataRow)
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), severity)
	f.SetCellValue(sheet, fmt.Sprintf("C%d", row), finding)
	f.SetCellValue(sheet, fmt.Sprintf("D%d", row), remedy.Code)
	f.SetCellValue(sheet, fmt.Sprintf("E%d", row), remedy.Action)
}

func writeDuplicatesSheet(f *excelize.File, rep *core.ValidationReport, header int) error {
	const sheet = "Duplicates"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", sheet, err)
	}
	writeHeaderRow(f, sheet, header, "Row", "First seen at row", "Key fields", "Key values")

	for i, d := range rep.Duplicates {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), d.RowIndex)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), d.FirstSeenRowIndex)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), strings.Join(d.KeyFields, ", "))
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), strings.Join(d.KeyValues, " | "))
	}
	f.SetColWidth(sheet, "C", "D", 35)
	return nil
}

func writeFormattingSheet(f *excelize.File, rep *core.ValidationReport, header int) error {
	const sheet = "Formatting"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", sheet, err)
	}
	writeHeaderRow(f, sheet, header, "Row", "Issue")

	row := 2
	for _, fi := range rep.Formatting {
		for _, issue := range fi.Issues {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), fi.RowIndex)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), issue)
			row++
		}
	}
	f.SetColWidth(sheet, "B", "B", 70)
	return nil
}

func writeMatchSheet(f *excelize.File, sheet, rowLabel string, entries []engine.MatchEntry, header int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", sheet, err)
	}
	writeHeaderRow(f, sheet, header, "Composite key", rowLabel)

	for i, e := range entries {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), e.CompositeKey)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), e.RowIndex)
	}
	f.SetColWidth(sheet, "A", "A", 40)
	return nil
}

func writeMismatchSheet(f *excelize.File, rep *core.ReconciliationReport, header int) error {
	const sheet = "Mismatches"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", sheet, err)
	}
	writeHeaderRow(f, sheet, header, "Composite key", "Source row", "Field", "Source value", "Destination value")

	row := 2
	for _, m := range rep.Result.Mismatches {
		for _, d := range m.FieldDiffs {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), m.CompositeKey)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), m.RowIndex)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), d.Field)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), d.SourceValue)
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), d.DestValue)
			row++
		}
	}
	f.SetColWidth(sheet, "A", "A", 40)
	f.SetColWidth(sheet, "D", "E", 30)
	return nil
}

func writeHeaderRow(f *excelize.File, sheet string, style int, labels ...string) {
	for i, label := range labels {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, label)
	}
	last, _ := excelize.CoordinatesToCellName(len(labels), 1)
	f.SetCellStyle(sheet, "A1", last, style)
}
