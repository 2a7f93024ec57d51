package transformer

import (
	"time"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/record"
)

// DefaultWindowDays is the trailing window applied to DATA_ENTREGA_1.
const DefaultWindowDays = 365

// FilterStats counts dropped records per reason. A record failing both
// predicates is counted under OutsideWindow only.
type FilterStats struct {
	Kept            int
	OutsideWindow   int
	MissingDocument int
}

// Filter keeps records whose primary delivery date lies inside the trailing
// window (inclusive at the lower bound) and whose primary invoice number is
// present. Records without a primary delivery date are dropped.
type Filter struct {
	WindowDays int
	Now        func() time.Time

	Stats FilterStats
}

// Cutoff is the earliest primary delivery date that is kept.
func (f *Filter) Cutoff() time.Time {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	days := f.WindowDays
	if days <= 0 {
		days = DefaultWindowDays
	}
	return now().Add(-time.Duration(days) * 24 * time.Hour)
}

// Apply implements Transformer. Stats are reset on each call.
func (f *Filter) Apply(in []record.Record) []record.Record {
	cutoff := f.Cutoff()
	f.Stats = FilterStats{}
	out := in[:0:0]
	for _, r := range in {
		d := r.PrimaryDate()
		if d == nil || d.Before(cutoff) {
			f.Stats.OutsideWindow++
			continue
		}
		if r.PrimaryInvoice() == nil {
			f.Stats.MissingDocument++
			continue
		}
		out = append(out, r)
	}
	f.Stats.Kept = len(out)
	return out
}
