package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseTransaction struct {
	ID                uuid.UUID       `json:"id"`
	CategoryID        uuid.UUID       `json:"category_id"`
	CategoryName      string          `json:"category_name,omitempty"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	TransactionDate   Date            `json:"transaction_date"`
	PaymentMethodID   *uuid.UUID      `json:"payment_method_id"`
	PaymentMethodName string          `json:"payment_method_name,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type PurchaseLineInput struct {
	CategoryID  uuid.UUID       `json:"category_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// PurchaseInput creates one purchase row per line, all sharing the date and
// payment method.
type PurchaseInput struct {
	TransactionDate Date                `json:"transaction_date"`
	PaymentMethodID *uuid.UUID          `json:"payment_method_id"`
	Lines           []PurchaseLineInput `json:"lines"`
}

type PurchaseFilter struct {
	From            *Date
	To              *Date
	PaymentMethodID *uuid.UUID
	CategoryID      *uuid.UUID
	Limit           int
	Offset          int
}
