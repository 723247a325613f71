package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "proses"
	OrderDone       OrderStatus = "selesai"
	OrderCancelled  OrderStatus = "batal"
)

var orderStatusLabels = map[OrderStatus]string{
	OrderPending:    "Menunggu",
	OrderInProgress: "Diproses",
	OrderDone:       "Selesai",
	OrderCancelled:  "Dibatalkan",
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

func (s OrderStatus) Label() string {
	if l, ok := orderStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

type Order struct {
	ID           uuid.UUID   `json:"id"`
	OrderNumber  string      `json:"order_number"`
	CustomerID   uuid.UUID   `json:"customer_id"`
	CustomerName string      `json:"customer_name"`
	OrderDate    Date        `json:"order_date"`
	TargetDate   Date        `json:"target_date"`
	Status       OrderStatus `json:"status"`
	Items        []OrderItem `json:"items"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// OrderItem keeps the product name, unit and price as they were when the
// order was taken.
type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type OrderItemInput struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type OrderInput struct {
	CustomerName string           `json:"customer_name"`
	OrderDate    Date             `json:"order_date"`
	TargetDate   Date             `json:"target_date"`
	Items        []OrderItemInput `json:"items"`
}

type OrderFilter struct {
	Search   *string
	Statuses []OrderStatus
	Limit    int
	Offset   int
}

// OrderView is an order with the figures recomputed on read.
type OrderView struct {
	Order
	StatusLabel   string          `json:"status_label"`
	Nominal       decimal.Decimal `json:"nominal"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	ItemsLabel    string          `json:"items_label"`
}

type OrderList struct {
	Items      []OrderView     `json:"items"`
	Total      int64           `json:"total"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

type ProductQuantity struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
}

type CustomerQuantity struct {
	CustomerName string          `json:"customer_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	OrderNumbers []string        `json:"order_numbers"`
}
