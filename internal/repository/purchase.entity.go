package repository

import (
	"time"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/pkg/pg"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseTransactionEntity struct {
	pg.Model
	CategoryID      uuid.UUID               `gorm:"column:category_id;type:uuid;not null;index"`
	Description     string                  `gorm:"column:description;not null"`
	Amount          decimal.Decimal         `gorm:"column:amount;type:numeric(14,2);not null;default:0"`
	TransactionDate time.Time               `gorm:"column:transaction_date;type:date;not null;index"`
	PaymentMethodID *uuid.UUID              `gorm:"column:payment_method_id;type:uuid"`
	Category        *PurchaseCategoryEntity `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	PaymentMethod   *PaymentMethodEntity    `gorm:"foreignKey:PaymentMethodID;constraint:OnDelete:SET NULL"`
}

func (PurchaseTransactionEntity) TableName() string {
	return "purchase_transactions"
}

func toPurchaseEntity(m *model.PurchaseTransaction) *PurchaseTransactionEntity {
	if m == nil {
		return nil
	}
	return &PurchaseTransactionEntity{
		Model:           pg.Model{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		CategoryID:      m.CategoryID,
		Description:     m.Description,
		Amount:          m.Amount,
		TransactionDate: m.TransactionDate.Time,
		PaymentMethodID: m.PaymentMethodID,
	}
}

func toPurchaseModel(e *PurchaseTransactionEntity) *model.PurchaseTransaction {
	if e == nil {
		return nil
	}
	m := &model.PurchaseTransaction{
		ID:              e.ID,
		CategoryID:      e.CategoryID,
		Description:     e.Description,
		Amount:          e.Amount,
		TransactionDate: model.DateOf(e.TransactionDate),
		PaymentMethodID: e.PaymentMethodID,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if e.Category != nil {
		m.CategoryName = e.Category.Name
	}
	if e.PaymentMethod != nil {
		m.PaymentMethodName = e.PaymentMethod.Name
	}
	return m
}

func toPurchaseModels(entities []*PurchaseTransactionEntity) []model.PurchaseTransaction {
	models := make([]model.PurchaseTransaction, len(entities))
	for i, e := range entities {
		models[i] = *toPurchaseModel(e)
	}
	return models
}

// DocumentCounterEntity holds the last number handed out per scope and day.
type DocumentCounterEntity struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Scope     string    `gorm:"column:scope;not null;uniqueIndex:uq_document_counters_scope_day"`
	Day       string    `gorm:"column:day;type:varchar(8);not null;uniqueIndex:uq_document_counters_scope_day"`
	LastValue int64     `gorm:"column:last_value;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (DocumentCounterEntity) TableName() string {
	return "document_counters"
}
