package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SalesTransaction struct {
	ID                uuid.UUID       `json:"id"`
	TransactionNo     string          `json:"transaction_no"`
	TransactionDate   Date            `json:"transaction_date"`
	Total             decimal.Decimal `json:"total"`
	PaymentMethodID   *uuid.UUID      `json:"payment_method_id"`
	PaymentMethodName string          `json:"payment_method_name,omitempty"`
	SourceOrderID     *uuid.UUID      `json:"source_order_id,omitempty"`
	Details           []SalesDetail   `json:"details,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type SalesDetail struct {
	ID                 uuid.UUID       `json:"id"`
	SalesTransactionID uuid.UUID       `json:"sales_transaction_id"`
	ProductID          uuid.UUID       `json:"product_id"`
	ProductName        string          `json:"product_name,omitempty"`
	Unit               string          `json:"unit,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Subtotal           decimal.Decimal `json:"subtotal"`
}

type SalesFilter struct {
	From            *Date
	To              *Date
	PaymentMethodID *uuid.UUID
	IDs             []uuid.UUID
	Limit           int
	Offset          int
}
