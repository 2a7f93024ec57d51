// Package transformer turns raw sheet rows into cleaned records and applies
// record-level filters.
package transformer

import "github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/record"

// Transformer rewrites a batch of records.
type Transformer interface {
	Apply([]record.Record) []record.Record
}

// Chain is an ordered list of transformers.
type Chain []Transformer

func (c Chain) Apply(in []record.Record) []record.Record {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
