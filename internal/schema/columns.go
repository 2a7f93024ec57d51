// Package schema describes the fixed layout of the purchase-order tracking
// export: the ordered header labels the sheet must carry, the canonical
// destination column each label maps to, and the cleaning rule that applies
// to it.
package schema

import "fmt"

// Kind selects the cleaning rule applied to a column.
type Kind int

const (
	// KindText is free text; only sentinel placeholders are removed.
	KindText Kind = iota
	// KindNumeric is a quantity or monetary value coerced to float64.
	KindNumeric
	// KindDate is parsed into a timestamp; unparseable values become null.
	KindDate
	// KindDateText is a date-like column kept as text, rendered uniformly
	// when it parses as a date.
	KindDateText
	// KindDocument is an invoice number: digits only, zero padded.
	KindDocument
	// KindProductCode is the SKU: zero padded to a fixed width.
	KindProductCode
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumeric:
		return "numeric"
	case KindDate:
		return "date"
	case KindDateText:
		return "date_text"
	case KindDocument:
		return "document"
	case KindProductCode:
		return "product_code"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column binds a source header label to its canonical name and kind.
type Column struct {
	Label string
	Name  string
	Kind  Kind
}

// DeliveryGroups is the number of delivery-event groups in a row.
const DeliveryGroups = 8

// Canonical names used outside the column table.
const (
	ColSKU          = "SKU"
	ColSupplier     = "FORN"
	ColOrder        = "PEDIDO"
	ColPrimaryNF    = "NF_1"
	ColPrimaryDate  = "DATA_ENTREGA_1"
	ColInsertedAt   = "DATA_INSERCAO"
	DefaultTable    = "CD_AcompNacional"
	DefaultSheet    = "PEDIDOS"
	ProductCodeSize = 13
	DocumentSize    = 9
)

// KeyColumns is the logical key of a destination row.
var KeyColumns = []string{ColOrder, ColSKU, ColSupplier, ColPrimaryNF}

var columns = buildColumns()

func buildColumns() []Column {
	cols := []Column{
		{"SKU", ColSKU, KindProductCode},
		{"DESCRIÇÃO SKU", "DESCRICAO_SKU", KindText},
		{"FORN", ColSupplier, KindText},
		{"QTD EMITIDA", "QTD_EMITIDA", KindNumeric},
		{"QTDE ENTREGUE TOTAL", "QTDE_ENTREGUE_TOTAL", KindNumeric},
	}
	for n := 1; n <= DeliveryGroups; n++ {
		cols = append(cols,
			Column{fmt.Sprintf("QTDE ENTREGA %d", n), fmt.Sprintf("QTDE_ENTREGA_%d", n), KindNumeric},
			Column{fmt.Sprintf("DATA ENTREGA %d", n), fmt.Sprintf("DATA_ENTREGA_%d", n), KindDate},
			Column{fmt.Sprintf("NF %d", n), fmt.Sprintf("NF_%d", n), KindDocument},
			Column{fmt.Sprintf("VALOR NF %d", n), fmt.Sprintf("VALOR_NF_%d", n), KindNumeric},
			Column{fmt.Sprintf("VENCIMENTO NF %d", n), fmt.Sprintf("VENCIMENTO_NF_%d", n), KindDateText},
		)
	}
	return append(cols,
		Column{"QTDE A ENTREGAR", "QTDE_A_ENTREGAR", KindNumeric},
		Column{"DATA PREVISTA", "DATA_PREVISTA", KindDateText},
		Column{"ETA REAL", "ETA_REAL", KindDateText},
		Column{"Disponível Venda", "DISPONIVEL_VENDA", KindText},
		Column{"PEDIDO", ColOrder, KindText},
		Column{"STATUS PEDIDO", "STATUS_PEDIDO", KindText},
		Column{"PRAZO", "PRAZO", KindText},
		Column{"RETORNO", "RETORNO", KindText},
	)
}

// Columns returns a copy of the ordered column table.
func Columns() []Column {
	out := make([]Column, len(columns))
	copy(out, columns)
	return out
}

// Width is the number of columns in the layout.
func Width() int { return len(columns) }

// Labels returns the expected header labels in order.
func Labels() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Label
	}
	return out
}

// Names returns the canonical destination column names in order.
func Names() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of a canonical column name, or -1.
func Index(name string) int {
	for i, c := range columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}
