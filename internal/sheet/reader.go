// Package sheet extracts the header and data rows of one worksheet range
// from an .xlsx workbook.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/datasource"
)

var (
	// ErrSourceRead is matched by every read failure.
	ErrSourceRead = errors.New("source read failure")
	// ErrSheetNotFound is returned when the workbook lacks the sheet.
	ErrSheetNotFound = errors.New("sheet not found")
)

// ReadError wraps a failure to open or parse the workbook.
type ReadError struct {
	Source string
	Sheet  string
	Err    error
}

func (e *ReadError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("read %s [%s]: %v", e.Source, e.Sheet, e.Err)
	}
	return fmt.Sprintf("read %s: %v", e.Source, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

func (e *ReadError) Is(target error) bool { return target == ErrSourceRead }

// Options selects the range to extract.
type Options struct {
	Sheet string
	// HeaderRow is the 1-based worksheet row holding the labels; data starts
	// on the next row.
	HeaderRow   int
	FirstColumn string
	LastColumn  string
}

// DefaultOptions matches the tracking export: sheet PEDIDOS, header on row 2,
// columns B through BB.
func DefaultOptions() Options {
	return Options{Sheet: "PEDIDOS", HeaderRow: 2, FirstColumn: "B", LastColumn: "BB"}
}

// Row is one data row; Line is the 1-based worksheet row number.
type Row struct {
	Line  int
	Cells []string
}

// Result holds the extracted header and data rows.
type Result struct {
	Header []string
	Rows   []Row
	// Skipped counts blank rows below the header.
	Skipped int
}

// Read extracts opts' range from the workbook behind src. Cells are read raw,
// so numbers arrive as stored; cells with a date number format are rendered
// as builtin.DateTextLayout text. Every row is padded or cut to the range
// width.
func Read(ctx context.Context, src datasource.Source, opts Options) (*Result, error) {
	fail := func(err error) (*Result, error) {
		return nil, &ReadError{Source: src.Name(), Sheet: opts.Sheet, Err: err}
	}
	lo, hi, err := columnRange(opts)
	if err != nil {
		return fail(err)
	}
	if opts.HeaderRow < 1 {
		return fail(fmt.Errorf("header row must be >= 1, got %d", opts.HeaderRow))
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, &ReadError{Source: src.Name(), Err: err}
	}
	defer rc.Close()

	f, err := excelize.OpenReader(rc)
	if err != nil {
		return nil, &ReadError{Source: src.Name(), Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(opts.Sheet); err != nil || idx < 0 {
		return fail(fmt.Errorf("%w (available: %s)", ErrSheetNotFound, strings.Join(f.GetSheetList(), ", ")))
	}

	rows, err := f.Rows(opts.Sheet)
	if err != nil {
		return fail(err)
	}
	defer rows.Close()

	res := &Result{}
	line := 0
	for rows.Next() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if line < opts.HeaderRow {
			continue
		}
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return fail(fmt.Errorf("row %d: %w", line, err))
		}
		cells := window(cols, lo, hi)
		if line == opts.HeaderRow {
			res.Header = cells
			continue
		}
		if blank(cells) {
			res.Skipped++
			continue
		}
		res.Rows = append(res.Rows, Row{Line: line, Cells: cells})
	}
	if err := rows.Error(); err != nil {
		return fail(err)
	}
	if res.Header == nil {
		return fail(fmt.Errorf("header row %d not found", opts.HeaderRow))
	}
	if err := renderDates(f, opts.Sheet, lo, res.Rows); err != nil {
		return fail(err)
	}
	return res, nil
}

// columnRange converts the column letters to 0-based [lo, hi] indexes.
func columnRange(opts Options) (int, int, error) {
	first, err := excelize.ColumnNameToNumber(opts.FirstColumn)
	if err != nil {
		return 0, 0, fmt.Errorf("first column: %w", err)
	}
	last, err := excelize.ColumnNameToNumber(opts.LastColumn)
	if err != nil {
		return 0, 0, fmt.Errorf("last column: %w", err)
	}
	if last < first {
		return 0, 0, fmt.Errorf("column range %s:%s is empty", opts.FirstColumn, opts.LastColumn)
	}
	return first - 1, last - 1, nil
}

func window(cols []string, lo, hi int) []string {
	out := make([]string, hi-lo+1)
	for i := range out {
		if j := lo + i; j < len(cols) {
			out[i] = cols[j]
		}
	}
	return out
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
