package builtin

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DateTextLayout is how parsed date-like text columns are rendered.
const DateTextLayout = "2006-01-02 15:04:05"

// maxSerial is 9999-12-31 as an Excel serial.
const maxSerial = 2958465

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC3339,
	"2006/1/2 15:04:05",
	"2006/1/2",
	"2006-1-2 15:04:05",
	"2006-1-2",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2/1/06",
	"2-1-2006",
}

// ParseDate reads a cell as a wall-clock time in loc. Bare Excel serials
// and the textual layouts above are accepted; slash dates are day-first and
// day or month may have one or two digits.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return SerialToTime(f, false, loc)
	}
	return parseText(s, loc)
}

// SerialToTime converts an Excel serial to a wall-clock time in loc.
func SerialToTime(f float64, date1904 bool, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	if f <= 0 || f > maxSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, date1904)
	if err != nil {
		return time.Time{}, false
	}
	return wall(t, loc), true
}

func parseText(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, s); err == nil {
				return t.In(loc), true
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateText renders s uniformly when it is date text and returns it as-is
// otherwise. Bare numbers are never read as serials here: the sheet reader
// already renders date-formatted cells, so a number reaching a text column
// is a number.
func DateText(s string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	if t, ok := parseText(strings.TrimSpace(s), loc); ok {
		return t.Format(DateTextLayout)
	}
	return s
}

func wall(t time.Time, loc *time.Location) time.Time {
	// Round to the second; serials carry float noise in the fraction.
	t = t.Round(time.Second)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}
