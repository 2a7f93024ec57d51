package schema

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrSchemaMismatch is matched by every header validation failure.
var ErrSchemaMismatch = errors.New("schema mismatch")

// MismatchError reports a header that differs from the expected layout.
type MismatchError struct {
	Expected []string
	Found    []string
	// Position is the first differing index; a length mismatch reports the
	// index just past the shorter list.
	Position int
}

func (e *MismatchError) Error() string {
	var b strings.Builder
	b.WriteString("header does not match expected layout")
	if e.Position >= 0 {
		exp, got := "<missing>", "<missing>"
		if e.Position < len(e.Expected) {
			exp = e.Expected[e.Position]
		}
		if e.Position < len(e.Found) {
			got = e.Found[e.Position]
		}
		fmt.Fprintf(&b, " at column %d: expected %q, found %q", e.Position+1, exp, got)
	}
	fmt.Fprintf(&b, " (expected %d labels %q, found %d labels %q)",
		len(e.Expected), e.Expected, len(e.Found), e.Found)
	return b.String()
}

func (e *MismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

// ValidateHeader checks that header equals the expected label list exactly,
// in order. Labels are compared after NFC normalization so that composed and
// decomposed accents ("Ç" vs "Ç") are equal.
func ValidateHeader(header []string) error {
	expected := Labels()
	pos := -1
	n := len(header)
	if len(expected) < n {
		n = len(expected)
	}
	for i := 0; i < n; i++ {
		if norm.NFC.String(header[i]) != norm.NFC.String(expected[i]) {
			pos = i
			break
		}
	}
	if pos < 0 && len(header) == len(expected) {
		return nil
	}
	if pos < 0 {
		pos = n
	}
	found := make([]string, len(header))
	copy(found, header)
	return &MismatchError{Expected: expected, Found: found, Position: pos}
}
