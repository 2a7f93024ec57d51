package builtin

import (
	"strings"
	"unicode/utf8"
)

// CleanDocument strips every non-digit from an invoice number and left pads
// the remaining digits with zeros to width. An input without digits is null.
// Values longer than width keep all their digits.
func CleanDocument(s string, width int) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", false
	}
	return ZeroPad(b.String(), width), true
}

// ZeroPad left pads s with '0' up to width characters.
func ZeroPad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat("0", width-n) + s
}

// PadProductCode renders a SKU as a fixed-width code.
func PadProductCode(s string, width int) string {
	return ZeroPad(strings.TrimSpace(s), width)
}
