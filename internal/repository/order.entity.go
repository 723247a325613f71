package repository

import (
	"time"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/pkg/pg"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderEntity struct {
	pg.Model
	OrderNumber string             `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID  uuid.UUID          `gorm:"column:customer_id;type:uuid;not null;index"`
	OrderDate   time.Time          `gorm:"column:order_date;type:date;not null"`
	TargetDate  time.Time          `gorm:"column:target_date;type:date;not null"`
	Status      string             `gorm:"column:status;not null;default:pending"`
	Customer    *CustomerEntity    `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT"`
	Items       []*OrderItemEntity `gorm:"foreignKey:OrderID"`
}

func (OrderEntity) TableName() string {
	return "orders"
}

type OrderItemEntity struct {
	pg.Model
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	LineNo      int             `gorm:"column:line_no;not null;default:0"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName string          `gorm:"column:product_name;not null;default:''"`
	Unit        string          `gorm:"column:unit;not null;default:''"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	Product     *ProductEntity  `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

func (OrderItemEntity) TableName() string {
	return "order_items"
}

func toOrderEntity(m *model.Order) *OrderEntity {
	if m == nil {
		return nil
	}
	return &OrderEntity{
		Model:       pg.Model{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		OrderNumber: m.OrderNumber,
		CustomerID:  m.CustomerID,
		OrderDate:   m.OrderDate.Time,
		TargetDate:  m.TargetDate.Time,
		Status:      string(m.Status),
	}
}

func toOrderModel(e *OrderEntity) *model.Order {
	if e == nil {
		return nil
	}
	m := &model.Order{
		ID:          e.ID,
		OrderNumber: e.OrderNumber,
		CustomerID:  e.CustomerID,
		OrderDate:   model.DateOf(e.OrderDate),
		TargetDate:  model.DateOf(e.TargetDate),
		Status:      model.OrderStatus(e.Status),
		Items:       make([]model.OrderItem, 0, len(e.Items)),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Customer != nil {
		m.CustomerName = e.Customer.Name
	}
	for _, it := range e.Items {
		m.Items = append(m.Items, toOrderItemModel(it))
	}
	return m
}

func toOrderItemEntity(orderID uuid.UUID, lineNo int, m model.OrderItem) *OrderItemEntity {
	return &OrderItemEntity{
		Model:       pg.Model{ID: m.ID},
		OrderID:     orderID,
		LineNo:      lineNo,
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		Unit:        m.Unit,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
	}
}

func toOrderItemModel(e *OrderItemEntity) model.OrderItem {
	return model.OrderItem{
		ID:          e.ID,
		OrderID:     e.OrderID,
		ProductID:   e.ProductID,
		ProductName: e.ProductName,
		Unit:        e.Unit,
		Quantity:    e.Quantity,
		UnitPrice:   e.UnitPrice,
	}
}
