package builtin

import (
	"github.com/zeebo/xxh3"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/record"
)

// DeDup collapses records sharing a logical key within one batch and keeps
// the last occurrence. Winners keep their relative input order.
type DeDup struct{}

// Apply returns the surviving records.
func (DeDup) Apply(in []record.Record) []record.Record {
	if len(in) < 2 {
		return in
	}
	last := make(map[xxh3.Uint128]int, len(in))
	hashes := make([]xxh3.Uint128, len(in))
	for i := range in {
		h := keyHash(in[i].Key())
		hashes[i] = h
		last[h] = i
	}
	out := make([]record.Record, 0, len(last))
	for i := range in {
		if last[hashes[i]] == i {
			out = append(out, in[i])
		}
	}
	return out
}

func keyHash(k [4]string) xxh3.Uint128 {
	h := xxh3.New()
	for _, part := range k {
		_, _ = h.WriteString(part)
		_, _ = h.Write([]byte{0x1f})
	}
	return h.Sum128()
}
