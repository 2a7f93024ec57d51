// Package record holds the typed, cleaned form of one tracking row.
package record

import (
	"fmt"
	"time"

	"github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/schema"
)

// Delivery is one of the eight delivery-event groups of a row.
type Delivery struct {
	Quantity *float64
	Date     *time.Time
	Invoice  *string
	Amount   *float64
	DueDate  *string
}

// Record is a cleaned purchase-order tracking row. Nil pointers are nulls.
type Record struct {
	SKU          *string
	Description  *string
	Supplier     *string
	IssuedQty    *float64
	DeliveredQty *float64
	Deliveries   [schema.DeliveryGroups]Delivery

	PendingQty       *float64
	ExpectedDate     *string
	ActualETA        *string
	AvailableForSale *string
	Order            *string
	OrderStatus      *string
	LeadTime         *string
	Feedback         *string

	// Line is the worksheet row the record came from (diagnostics only).
	Line int
}

// PrimaryInvoice is NF_1.
func (r *Record) PrimaryInvoice() *string { return r.Deliveries[0].Invoice }

// PrimaryDate is DATA_ENTREGA_1.
func (r *Record) PrimaryDate() *time.Time { return r.Deliveries[0].Date }

// Key returns the logical key (PEDIDO, SKU, FORN, NF_1); nil parts are "".
func (r *Record) Key() [4]string {
	return [4]string{deref(r.Order), deref(r.SKU), deref(r.Supplier), deref(r.PrimaryInvoice())}
}

// Values flattens the record in schema.Names() order. Nulls are untyped nil
// so database drivers bind SQL NULL.
func (r *Record) Values() []any {
	out := make([]any, 0, schema.Width())
	out = append(out, str(r.SKU), str(r.Description), str(r.Supplier), num(r.IssuedQty), num(r.DeliveredQty))
	for _, d := range r.Deliveries {
		out = append(out, num(d.Quantity), ts(d.Date), str(d.Invoice), num(d.Amount), str(d.DueDate))
	}
	return append(out,
		num(r.PendingQty), str(r.ExpectedDate), str(r.ActualETA), str(r.AvailableForSale),
		str(r.Order), str(r.OrderStatus), str(r.LeadTime), str(r.Feedback),
	)
}

// FromValues is the inverse of Values. Each cell must be nil or the Go type
// matching its column kind (string, float64 or time.Time).
func FromValues(vals []any) (Record, error) {
	var r Record
	if len(vals) != schema.Width() {
		return r, fmt.Errorf("record: got %d values, want %d", len(vals), schema.Width())
	}
	c := cursor{vals: vals}
	r.SKU = c.str()
	r.Description = c.str()
	r.Supplier = c.str()
	r.IssuedQty = c.num()
	r.DeliveredQty = c.num()
	for i := range r.Deliveries {
		r.Deliveries[i] = Delivery{
			Quantity: c.num(),
			Date:     c.ts(),
			Invoice:  c.str(),
			Amount:   c.num(),
			DueDate:  c.str(),
		}
	}
	r.PendingQty = c.num()
	r.ExpectedDate = c.str()
	r.ActualETA = c.str()
	r.AvailableForSale = c.str()
	r.Order = c.str()
	r.OrderStatus = c.str()
	r.LeadTime = c.str()
	r.Feedback = c.str()
	return r, c.err
}

// Rows flattens a slice of records for a bulk insert.
func Rows(recs []Record) [][]any {
	out := make([][]any, len(recs))
	for i := range recs {
		out[i] = recs[i].Values()
	}
	return out
}

type cursor struct {
	vals []any
	pos  int
	err  error
}

func (c *cursor) next() any {
	v := c.vals[c.pos]
	c.pos++
	return v
}

func (c *cursor) fail(want string, v any) {
	if c.err == nil {
		c.err = fmt.Errorf("record: column %s: want %s, got %T", schema.Names()[c.pos-1], want, v)
	}
}

func (c *cursor) str() *string {
	switch v := c.next().(type) {
	case nil:
		return nil
	case string:
		return &v
	default:
		c.fail("string", v)
		return nil
	}
}

func (c *cursor) num() *float64 {
	switch v := c.next().(type) {
	case nil:
		return nil
	case float64:
		return &v
	default:
		c.fail("float64", v)
		return nil
	}
}

func (c *cursor) ts() *time.Time {
	switch v := c.next().(type) {
	case nil:
		return nil
	case time.Time:
		return &v
	default:
		c.fail("time.Time", v)
		return nil
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func str(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func num(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func ts(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}
