package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductUnits struct {
	ProductID *uuid.UUID      `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	Units     decimal.Decimal `json:"units"`
}

type MonthlySummary struct {
	MonthKey       string          `json:"month_key"`
	Label          string          `json:"label"`
	SalesTotal     decimal.Decimal `json:"sales_total"`
	PurchasesTotal decimal.Decimal `json:"purchases_total"`
	Products       []ProductUnits  `json:"products"`
}

type ReportRow struct {
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type ReportKind string

const (
	ReportSales    ReportKind = "penjualan"
	ReportExpenses ReportKind = "pengeluaran"
)

type ReportFilter struct {
	From            Date
	To              Date
	ProductID       *uuid.UUID
	PaymentMethodID *uuid.UUID
}

type Report struct {
	Kind  ReportKind      `json:"kind"`
	From  Date            `json:"from"`
	To    Date            `json:"to"`
	Total decimal.Decimal `json:"total"`
	Rows  []ReportRow     `json:"rows"`
}

type LedgerKind string

const (
	LedgerSales    LedgerKind = "sales"
	LedgerPurchase LedgerKind = "purchase"
)

// LedgerEntry is one row of the merged sales and purchase list.
type LedgerEntry struct {
	Kind            LedgerKind      `json:"kind"`
	ID              uuid.UUID       `json:"id"`
	TransactionDate Date            `json:"transaction_date"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	CreatedAt       time.Time       `json:"created_at"`
}
