package repository

import (
	"time"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/pkg/pg"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SalesTransactionEntity struct {
	pg.Model
	TransactionNo   string               `gorm:"column:transaction_no;not null;uniqueIndex"`
	TransactionDate time.Time            `gorm:"column:transaction_date;type:date;not null;index"`
	Total           decimal.Decimal      `gorm:"column:total;type:numeric(14,2);not null;default:0"`
	PaymentMethodID *uuid.UUID           `gorm:"column:payment_method_id;type:uuid"`
	SourceOrderID   *uuid.UUID           `gorm:"column:source_order_id;type:uuid"`
	PaymentMethod   *PaymentMethodEntity `gorm:"foreignKey:PaymentMethodID;constraint:OnDelete:SET NULL"`
	Details         []*SalesDetailEntity `gorm:"foreignKey:SalesTransactionID"`
}

func (SalesTransactionEntity) TableName() string {
	return "sales_transactions"
}

type SalesDetailEntity struct {
	pg.Model
	SalesTransactionID uuid.UUID       `gorm:"column:sales_transaction_id;type:uuid;not null;index"`
	LineNo             int             `gorm:"column:line_no;not null;default:0"`
	ProductID          uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Quantity           decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null"`
	UnitPrice          decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	Subtotal           decimal.Decimal `gorm:"column:subtotal;type:numeric(14,2);not null"`
	Product            *ProductEntity  `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

func (SalesDetailEntity) TableName() string {
	return "sales_details"
}

func toSalesEntity(m *model.SalesTransaction) *SalesTransactionEntity {
	if m == nil {
		return nil
	}
	return &SalesTransactionEntity{
		Model:           pg.Model{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		TransactionNo:   m.TransactionNo,
		TransactionDate: m.TransactionDate.Time,
		Total:           m.Total,
		PaymentMethodID: m.PaymentMethodID,
		SourceOrderID:   m.SourceOrderID,
	}
}

func toSalesModel(e *SalesTransactionEntity) *model.SalesTransaction {
	if e == nil {
		return nil
	}
	m := &model.SalesTransaction{
		ID:              e.ID,
		TransactionNo:   e.TransactionNo,
		TransactionDate: model.DateOf(e.TransactionDate),
		Total:           e.Total,
		PaymentMethodID: e.PaymentMethodID,
		SourceOrderID:   e.SourceOrderID,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if e.PaymentMethod != nil {
		m.PaymentMethodName = e.PaymentMethod.Name
	}
	if len(e.Details) > 0 {
		m.Details = toSalesDetailModels(e.Details)
	}
	return m
}

func toSalesModels(entities []*SalesTransactionEntity) []model.SalesTransaction {
	models := make([]model.SalesTransaction, len(entities))
	for i, e := range entities {
		models[i] = *toSalesModel(e)
	}
	return models
}

func toSalesDetailEntity(txID uuid.UUID, lineNo int, m model.SalesDetail) *SalesDetailEntity {
	return &SalesDetailEntity{
		Model:              pg.Model{ID: m.ID},
		SalesTransactionID: txID,
		LineNo:             lineNo,
		ProductID:          m.ProductID,
		Quantity:           m.Quantity,
		UnitPrice:          m.UnitPrice,
		Subtotal:           m.Subtotal,
	}
}

func toSalesDetailModels(entities []*SalesDetailEntity) []model.SalesDetail {
	models := make([]model.SalesDetail, len(entities))
	for i, e := range entities {
		models[i] = model.SalesDetail{
			ID:                 e.ID,
			SalesTransactionID: e.SalesTransactionID,
			ProductID:          e.ProductID,
			Quantity:           e.Quantity,
			UnitPrice:          e.UnitPrice,
			Subtotal:           e.Subtotal,
		}
		if e.Product != nil {
			models[i].ProductName = e.Product.Name
			models[i].Unit = e.Product.Unit
		}
	}
	return models
}
