package sheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/transformer/builtin"
)

// builtInDateFmts are the built-in number format ids that show a calendar
// date. Time-only and duration formats are left out.
var builtInDateFmts = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 36: true,
	50: true, 51: true, 57: true, 58: true,
}

// dateStyles remembers, per style id, whether the style formats a date.
type dateStyles struct {
	f     *excelize.File
	sheet string
	seen  map[int]bool
}

// renderDates rewrites numeric cells whose number format is a date into
// builtin.DateTextLayout, so every column sees the date the workbook shows
// instead of its serial. Numbers in other formats are left alone.
func renderDates(f *excelize.File, sheet string, lo int, rows []Row) error {
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	ds := &dateStyles{f: f, sheet: sheet, seen: map[int]bool{}}
	for r := range rows {
		row := &rows[r]
		for i, v := range row.Cells {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil || n <= 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(lo+i+1, row.Line)
			if err != nil {
				return err
			}
			isDate, err := ds.isDate(cell)
			if err != nil {
				return fmt.Errorf("style of %s: %w", cell, err)
			}
			if !isDate {
				continue
			}
			if t, ok := builtin.SerialToTime(n, date1904, time.UTC); ok {
				row.Cells[i] = t.Format(builtin.DateTextLayout)
			}
		}
	}
	return nil
}

func (d *dateStyles) isDate(cell string) (bool, error) {
	idx, err := d.f.GetCellStyle(d.sheet, cell)
	if err != nil {
		return false, err
	}
	if v, ok := d.seen[idx]; ok {
		return v, nil
	}
	style, err := d.f.GetStyle(idx)
	if err != nil {
		return false, err
	}
	v := builtInDateFmts[style.NumFmt]
	if style.CustomNumFmt != nil {
		v = isDateFormat(*style.CustomNumFmt)
	}
	d.seen[idx] = v
	return v, nil
}

// isDateFormat reports whether a custom number format code shows a day or a
// year. Only the first section counts; quoted text, bracketed tokens and
// escaped characters are ignored.
func isDateFormat(code string) bool {
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}
	var b strings.Builder
	for i := 0; i < len(code); i++ {
		switch c := code[i]; c {
		case '"':
			j := strings.IndexByte(code[i+1:], '"')
			if j < 0 {
				i = len(code)
			} else {
				i += j + 1
			}
		case '[':
			j := strings.IndexByte(code[i+1:], ']')
			if j < 0 {
				i = len(code)
			} else {
				i += j + 1
			}
		case '\\', '_', '*':
			i++
		default:
			b.WriteByte(c)
		}
	}
	s := strings.ToLower(b.String())
	return strings.ContainsAny(s, "dy")
}
