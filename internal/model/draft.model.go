package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DraftState string

const (
	DraftEntry     DraftState = "entry"
	DraftPreview   DraftState = "preview"
	DraftCommitted DraftState = "committed"
	DraftCancelled DraftState = "cancelled"
)

var draftTransitions = map[DraftState][]DraftState{
	DraftEntry:   {DraftPreview, DraftCancelled},
	DraftPreview: {DraftEntry, DraftCommitted, DraftCancelled},
}

func (s DraftState) CanMoveTo(next DraftState) bool {
	for _, allowed := range draftTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DraftLine is a priced line. UnitPrice is what gets billed; CatalogPrice is
// kept for display when a custom price overrides it.
type DraftLine struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	CatalogPrice decimal.Decimal `json:"catalog_price"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

func (l DraftLine) Valid() bool {
	return l.ProductID != uuid.Nil && l.Quantity.IsPositive()
}

type Draft struct {
	ID                uuid.UUID       `json:"id"`
	State             DraftState      `json:"state"`
	Invoice           InvoiceKind     `json:"-"`
	Date              Date            `json:"date"`
	PaymentMethodID   *uuid.UUID      `json:"payment_method_id"`
	PaymentMethodName string          `json:"payment_method_name,omitempty"`
	Lines             []DraftLine     `json:"lines"`
	Total             decimal.Decimal `json:"total"`

	// EditingID is set when the draft rewrites an existing transaction.
	EditingID *uuid.UUID `json:"editing_id,omitempty"`

	SourceOrderID     *uuid.UUID `json:"source_order_id,omitempty"`
	SourceOrderNumber string     `json:"source_order_number,omitempty"`

	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	TransactionNo string     `json:"transaction_no,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Draft) ValidLines() []DraftLine {
	out := make([]DraftLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		if l.Valid() {
			out = append(out, l)
		}
	}
	return out
}

type draftAlias Draft

type draftJSON struct {
	*draftAlias
	Kind    string          `json:"kind"`
	Invoice json.RawMessage `json:"invoice"`
}

func (d Draft) MarshalJSON() ([]byte, error) {
	inv, err := EncodeInvoice(d.Invoice)
	if err != nil {
		return nil, err
	}
	kind := ""
	if d.Invoice != nil {
		kind = d.Invoice.Kind()
	}
	alias := draftAlias(d)
	return json.Marshal(draftJSON{draftAlias: &alias, Kind: kind, Invoice: inv})
}

func (d *Draft) UnmarshalJSON(b []byte) error {
	aux := draftJSON{draftAlias: (*draftAlias)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if len(aux.Invoice) == 0 || string(aux.Invoice) == "null" {
		d.Invoice = nil
		return nil
	}
	inv, err := DecodeInvoice(aux.Invoice)
	if err != nil {
		return err
	}
	d.Invoice = inv
	return nil
}
