// Package builtin contains the cell-level cleaning rules and reusable record
// transformers for the tracking export.
//
// Cell rules take the raw cell text as read from the sheet and return the
// cleaned value plus a flag saying whether a value is present. A false flag
// means the cell is null in the destination.
package builtin

import "strings"

// sentinels are placeholder tokens that mean "absent" in the export.
var sentinels = map[string]struct{}{
	"":     {},
	"nan":  {},
	"NaN":  {},
	"NaT":  {},
	"None": {},
	"<NA>": {},
	"-":    {},
}

// IsSentinel reports whether s is a placeholder for a missing value.
// Surrounding whitespace is ignored.
func IsSentinel(s string) bool {
	_, ok := sentinels[strings.TrimSpace(s)]
	return ok
}

// Present returns s unchanged and true, or "" and false for a sentinel.
func Present(s string) (string, bool) {
	if IsSentinel(s) {
		return "", false
	}
	return s, true
}
