package repository

import (
	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/pkg/pg"
	"github.com/shopspring/decimal"
)

type ProductEntity struct {
	pg.Model
	Name  string          `gorm:"column:name;not null"`
	Price decimal.Decimal `gorm:"column:price;type:numeric(14,2);not null;default:0"`
	Unit  string          `gorm:"column:unit;not null;default:''"`
}

func (ProductEntity) TableName() string {
	return "products"
}

func toProductModel(e *ProductEntity) *model.Product {
	if e == nil {
		return nil
	}
	return &model.Product{
		ID:        e.ID,
		Name:      e.Name,
		Price:     e.Price,
		Unit:      e.Unit,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func toProductModels(entities []*ProductEntity) []*model.Product {
	models := make([]*model.Product, len(entities))
	for i, e := range entities {
		models[i] = toProductModel(e)
	}
	return models
}

// LookupEntity is the row shape of purchase_categories and payment_methods.
// LookupRepository picks the table at runtime.
type LookupEntity struct {
	pg.Model
	Name string `gorm:"column:name;not null"`
}

type PurchaseCategoryEntity LookupEntity

func (PurchaseCategoryEntity) TableName() string {
	return "purchase_categories"
}

type PaymentMethodEntity LookupEntity

func (PaymentMethodEntity) TableName() string {
	return "payment_methods"
}

func lookupTable(kind model.LookupKind) string {
	if kind == model.LookupPurchaseCategory {
		return PurchaseCategoryEntity{}.TableName()
	}
	return PaymentMethodEntity{}.TableName()
}

func toLookupModel(e *LookupEntity) *model.Lookup {
	if e == nil {
		return nil
	}
	return &model.Lookup{
		ID:        e.ID,
		Name:      e.Name,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

type CustomerEntity struct {
	pg.Model
	Name string `gorm:"column:name;not null"`
	// NameKey is the trimmed, lower cased name used to reuse customers.
	NameKey string `gorm:"column:name_key;not null;uniqueIndex"`
}

func (CustomerEntity) TableName() string {
	return "customers"
}

func toCustomerModel(e *CustomerEntity) *model.Customer {
	if e == nil {
		return nil
	}
	return &model.Customer{
		ID:        e.ID,
		Name:      e.Name,
		CreatedAt: e.CreatedAt,
	}
}
