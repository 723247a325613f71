package model

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	InvoiceStandard     = "standard"
	InvoiceCustomPriced = "custom_priced"
)

// InvoiceKind is the line input of a sales draft. Standard invoices bill the
// catalog price captured when the product was picked; custom priced invoices
// let every line override it.
type InvoiceKind interface {
	Kind() string
	ProductIDs() []uuid.UUID
	isInvoiceKind()
}

type StandardLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type StandardInvoice struct {
	Lines []StandardLine `json:"lines"`
}

func (StandardInvoice) Kind() string   { return InvoiceStandard }
func (StandardInvoice) isInvoiceKind() {}

func (i StandardInvoice) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(i.Lines))
	for _, l := range i.Lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

type CustomPricedLine struct {
	ProductID   uuid.UUID        `json:"product_id"`
	Quantity    decimal.Decimal  `json:"quantity"`
	CustomPrice *decimal.Decimal `json:"custom_price,omitempty"`
}

type CustomPricedInvoice struct {
	Lines []CustomPricedLine `json:"lines"`
}

func (CustomPricedInvoice) Kind() string   { return InvoiceCustomPriced }
func (CustomPricedInvoice) isInvoiceKind() {}

func (i CustomPricedInvoice) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(i.Lines))
	for _, l := range i.Lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

type invoiceEnvelope struct {
	Kind  string          `json:"kind"`
	Lines json.RawMessage `json:"lines"`
}

func EncodeInvoice(k InvoiceKind) ([]byte, error) {
	if k == nil {
		return []byte("null"), nil
	}
	var lines any
	switch v := k.(type) {
	case StandardInvoice:
		lines = v.Lines
	case CustomPricedInvoice:
		lines = v.Lines
	default:
		return nil, fmt.Errorf("unknown invoice kind %T", k)
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return nil, err
	}
	return json.Marshal(invoiceEnvelope{Kind: k.Kind(), Lines: raw})
}

func DecodeInvoice(b []byte) (InvoiceKind, error) {
	var env invoiceEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	return decodeLines(env.Kind, env.Lines)
}

func decodeLines(kind string, raw json.RawMessage) (InvoiceKind, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("[]")
	}
	switch kind {
	case "", InvoiceStandard:
		var inv StandardInvoice
		if err := json.Unmarshal(raw, &inv.Lines); err != nil {
			return nil, err
		}
		return inv, nil
	case InvoiceCustomPriced:
		var inv CustomPricedInvoice
		if err := json.Unmarshal(raw, &inv.Lines); err != nil {
			return nil, err
		}
		return inv, nil
	}
	return nil, fmt.Errorf("unknown invoice kind %q", kind)
}

// DraftInput is what the entry step collects.
type DraftInput struct {
	Date            Date
	PaymentMethodID *uuid.UUID
	Invoice         InvoiceKind
}

func (in *DraftInput) UnmarshalJSON(b []byte) error {
	var raw struct {
		Kind            string          `json:"kind"`
		Date            Date            `json:"date"`
		PaymentMethodID *uuid.UUID      `json:"payment_method_id"`
		Lines           json.RawMessage `json:"lines"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	inv, err := decodeLines(raw.Kind, raw.Lines)
	if err != nil {
		return err
	}
	in.Date = raw.Date
	in.PaymentMethodID = raw.PaymentMethodID
	in.Invoice = inv
	return nil
}
