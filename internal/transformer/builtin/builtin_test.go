package builtin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/record"
)

func TestIsSentinel(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"", " ", "nan", "NaN", "NaT", "None", "<NA>", "-", " - "} {
		assert.True(t, IsSentinel(s), "%q", s)
	}
	for _, s := range []string{"0", "none", "--", "N/A", "x"} {
		assert.False(t, IsSentinel(s), "%q", s)
	}
	v, ok := Present("ACME")
	assert.True(t, ok)
	assert.Equal(t, "ACME", v)
}

func TestCleanDocument(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"45-67.89", "000456789", true},
		{"NF 123", "000000123", true},
		{"123456789", "123456789", true},
		{"1234567890", "1234567890", true},
		{"abc", "", false},
		{"", "", false},
		{"4.5", "000000045", true},
	}
	for _, tc := range tests {
		got, ok := CleanDocument(tc.in, 9)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		if ok {
			again, ok2 := CleanDocument(got, 9)
			assert.True(t, ok2)
			assert.Equal(t, got, again, "idempotent for %q", tc.in)
		}
	}
}

func TestPadProductCode(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"123", "0", "7891234567890", "ABC12"} {
		got := PadProductCode(in, 13)
		assert.Len(t, got, 13, in)
		assert.Equal(t, got, PadProductCode(got, 13), "idempotent for %q", in)
	}
	assert.Equal(t, "0000000000123", PadProductCode("123", 13))
	assert.Equal(t, "78912345678901", PadProductCode("78912345678901", 13))
}

func TestCoerceNumber(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{"12.5", 12.5, true},
		{".5", 0.5, true},
		{"3.", 3, true},
		{"1.2.3", 0, false},
		{"-4", 0, false},
		{"1e3", 0, false},
		{"1,5", 0, false},
		{"abc", 0, false},
		{" 12", 0, false},
		{"12 ", 0, false},
		{".", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		got, ok := CoerceNumber(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()
	loc := time.UTC
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"45292", time.Date(2024, 1, 1, 0, 0, 0, 0, loc), true},
		{"45292.5", time.Date(2024, 1, 1, 12, 0, 0, 0, loc), true},
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, loc), true},
		{"2024-03-05 10:11:12", time.Date(2024, 3, 5, 10, 11, 12, 0, loc), true},
		{"05/03/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, loc), true},
		{"31/12/2023 08:30", time.Date(2023, 12, 31, 8, 30, 0, 0, loc), true},
		{"5/3/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, loc), true},
		{"5/3/2024 14:30", time.Date(2024, 3, 5, 14, 30, 0, 0, loc), true},
		{"05/03/24", time.Date(2024, 3, 5, 0, 0, 0, 0, loc), true},
		{"2024/03/05", time.Date(2024, 3, 5, 0, 0, 0, 0, loc), true},
		{"2024-3-5", time.Date(2024, 3, 5, 0, 0, 0, 0, loc), true},
		{"05-03-2024", time.Date(2024, 3, 5, 0, 0, 0, 0, loc), true},
		{"13/13/2024", time.Time{}, false},
		{"amanhã", time.Time{}, false},
		{"-3", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tc := range tests {
		got, ok := ParseDate(tc.in, loc)
		require.Equal(t, tc.ok, ok, tc.in)
		if ok {
			assert.True(t, tc.want.Equal(got), "%q: want %s got %s", tc.in, tc.want, got)
		}
	}
}

func TestDateText(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "2024-03-05 00:00:00", DateText("5/3/2024", time.UTC))
	assert.Equal(t, "2024-03-05 10:11:12", DateText("2024-03-05 10:11:12", time.UTC))
	assert.Equal(t, "A CONFIRMAR", DateText("A CONFIRMAR", time.UTC))
	// Bare numbers stay numbers in text columns.
	assert.Equal(t, "30", DateText("30", time.UTC))
	assert.Equal(t, "45292", DateText("45292", time.UTC))
}

func TestSerialToTime(t *testing.T) {
	t.Parallel()
	got, ok := SerialToTime(45292.25, false, time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC), got)

	got, ok = SerialToTime(43830, true, time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got)

	_, ok = SerialToTime(0, false, time.UTC)
	assert.False(t, ok)
	_, ok = SerialToTime(maxSerial+1, false, time.UTC)
	assert.False(t, ok)
}

func TestDeDupKeepsLast(t *testing.T) {
	t.Parallel()
	mk := func(order, nf, status string) record.Record {
		sku, forn := "0000000000001", "ACME"
		r := record.Record{Order: &order, SKU: &sku, Supplier: &forn, OrderStatus: &status}
		r.Deliveries[0].Invoice = &nf
		return r
	}
	in := []record.Record{
		mk("P1", "000000001", "old"),
		mk("P2", "000000001", "only"),
		mk("P1", "000000001", "new"),
		mk("P1", "000000002", "other nf"),
	}
	out := DeDup{}.Apply(in)
	require.Len(t, out, 3)
	assert.Equal(t, "only", *out[0].OrderStatus)
	assert.Equal(t, "new", *out[1].OrderStatus)
	assert.Equal(t, "other nf", *out[2].OrderStatus)

	assert.Len(t, DeDup{}.Apply(nil), 0)
}
