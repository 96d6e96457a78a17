package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RenderXLSX returns an XLSX workbook with one row per non-clean invoice,
// in the Summary's stable order, plus a header block with the cycle counts.
func RenderXLSX(s *Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Reconciliation"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defaultIndex, _ := f.GetSheetIndex("Sheet1"); defaultIndex != -1 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, err
		}
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	write(1, 1, "Window start")
	write(2, 1, s.Since.UTC().Format("2006-01-02 15:04:05"))
	write(1, 2, "Generated at")
	write(2, 2, s.GeneratedAt.UTC().Format("2006-01-02 15:04:05"))
	write(1, 3, "Processed")
	write(2, 3, s.Total)
	write(1, 4, "Clean")
	write(2, 4, s.CountClean)

	headers := []string{
		"Severity",
		"Invoice Number",
		"Vendor",
		"Matched PO",
		"Total Amount",
		"Status",
		"Discrepancies",
	}
	const headerRow = 6
	for i, h := range headers {
		write(i+1, headerRow, h)
	}

	row := headerRow + 1
	for i := range s.Entries {
		e := &s.Entries[i]
		write(1, row, string(e.WorstSeverity))
		write(2, row, displayInvoiceNumber(&e.Record))
		write(3, row, e.Record.VendorName)
		if e.Record.MatchedPONumber != nil {
			write(4, row, *e.Record.MatchedPONumber)
		} else {
			write(4, row, "unmatched")
		}
		if e.Record.TotalAmount != nil {
			write(5, row, *e.Record.TotalAmount)
		}
		write(6, row, string(e.Record.ApprovalStatus))
		write(7, row, joinDiscrepancies(e))
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("report.RenderXLSX: %w", err)
	}
	return buf.Bytes(), nil
}

func joinDiscrepancies(e *Entry) string {
	if len(e.Discrepancies) == 0 {
		return ""
	}
	parts := make([]string, 0, len(e.Discrepancies))
	for i := range e.Discrepancies {
		d := &e.Discrepancies[i]
		parts = append(parts, fmt.Sprintf("%s: expected %s, got %s (%s)",
			d.FieldName, d.ExpectedValue, d.ActualValue, d.Severity))
	}
	return strings.Join(parts, "; ")
}
