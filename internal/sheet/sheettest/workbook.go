// Package sheettest builds tracking workbooks for tests.
package sheettest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/schema"
)

// Row maps header labels to cell values; unset labels stay blank.
type Row map[string]any

// Write saves a workbook with header labels on row 2 starting at column B and
// one data row per entry below it, and returns its path.
func Write(t testing.TB, sheet string, header []string, rows []Row) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	if err := f.SetCellValue(sheet, "A1", "ACOMPANHAMENTO NACIONAL"); err != nil {
		t.Fatalf("title: %v", err)
	}
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, "B2", &hdr); err != nil {
		t.Fatalf("header: %v", err)
	}
	for i, r := range rows {
		for label, v := range r {
			col := -1
			for j, h := range header {
				if h == label {
					col = j
					break
				}
			}
			if col < 0 {
				t.Fatalf("row %d: unknown label %q", i, label)
			}
			cell, err := excelize.CoordinatesToCellName(col+2, i+3)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set %s: %v", cell, err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), fmt.Sprintf("%s.xlsx", sheet))
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

// WriteTracking writes a workbook with the expected tracking header on
// sheet PEDIDOS.
func WriteTracking(t testing.TB, rows []Row) string {
	t.Helper()
	return Write(t, schema.DefaultSheet, schema.Labels(), rows)
}
