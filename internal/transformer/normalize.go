package transformer

import (
	"fmt"
	"sort"
	"time"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/record"
	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/schema"
	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/transformer/builtin"
)

// Anomaly reasons.
const (
	ReasonNotNumeric = "not_numeric"
	ReasonBadDate    = "unparseable_date"
	ReasonNoDigits   = "no_digits"
)

// MaxSamples caps the anomalies kept verbatim in a Report.
const MaxSamples = 20

// Anomaly is a cell that could not be cleaned and was nulled.
type Anomaly struct {
	Line   int
	Column string
	Value  string
	Reason string
}

func (a Anomaly) String() string {
	return fmt.Sprintf("line %d %s=%q: %s", a.Line, a.Column, a.Value, a.Reason)
}

// Report summarizes a normalization pass.
type Report struct {
	Rows      int
	Anomalies int
	// ByColumn counts anomalies per "COLUMN:reason".
	ByColumn map[string]int
	Samples  []Anomaly
}

// Keys returns the ByColumn keys sorted.
func (r *Report) Keys() []string {
	out := make([]string, 0, len(r.ByColumn))
	for k := range r.ByColumn {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *Report) add(a Anomaly) {
	if r.ByColumn == nil {
		r.ByColumn = map[string]int{}
	}
	r.Anomalies++
	r.ByColumn[a.Column+":"+a.Reason]++
	if len(r.Samples) < MaxSamples {
		r.Samples = append(r.Samples, a)
	}
}

// Normalizer renames and cleans raw rows. It is not safe for concurrent use;
// the report accumulates across calls.
type Normalizer struct {
	// Location interprets dates without a zone. Defaults to time.Local.
	Location *time.Location

	cols   []schema.Column
	report Report
}

// NewNormalizer returns a Normalizer for the fixed layout.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{Location: loc, cols: schema.Columns()}
}

// Report returns the anomalies seen so far.
func (n *Normalizer) Report() Report { return n.report }

// Normalize cleans one positional row. Short rows are treated as trailing
// nulls; cells past the layout are ignored.
func (n *Normalizer) Normalize(line int, cells []string) (record.Record, error) {
	if n.cols == nil {
		n.cols = schema.Columns()
	}
	n.report.Rows++
	vals := make([]any, len(n.cols))
	for i, col := range n.cols {
		var raw string
		if i < len(cells) {
			raw = cells[i]
		}
		v, ok := builtin.Present(raw)
		if !ok {
			continue
		}
		switch col.Kind {
		case schema.KindText:
			vals[i] = v
		case schema.KindNumeric:
			if f, ok := builtin.CoerceNumber(v); ok {
				vals[i] = f
			} else {
				n.report.add(Anomaly{Line: line, Column: col.Name, Value: v, Reason: ReasonNotNumeric})
			}
		case schema.KindDate:
			if t, ok := builtin.ParseDate(v, n.Location); ok {
				vals[i] = t
			} else {
				n.report.add(Anomaly{Line: line, Column: col.Name, Value: v, Reason: ReasonBadDate})
			}
		case schema.KindDateText:
			vals[i] = builtin.DateText(v, n.Location)
		case schema.KindDocument:
			if d, ok := builtin.CleanDocument(v, schema.DocumentSize); ok {
				vals[i] = d
			} else {
				n.report.add(Anomaly{Line: line, Column: col.Name, Value: v, Reason: ReasonNoDigits})
			}
		case schema.KindProductCode:
			vals[i] = builtin.PadProductCode(v, schema.ProductCodeSize)
		default:
			return record.Record{}, fmt.Errorf("normalize: column %s: unknown kind %s", col.Name, col.Kind)
		}
	}
	rec, err := record.FromValues(vals)
	if err != nil {
		return record.Record{}, fmt.Errorf("normalize line %d: %w", line, err)
	}
	rec.Line = line
	return rec, nil
}
