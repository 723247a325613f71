// Package repository is the storage gateway: row oriented reads and writes
// over gorm. Every method resolves its connection through pg.DB so calls made
// inside WithinTransaction join the caller's transaction.
package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInUse is returned when a delete is refused because documents still
	// reference the row.
	ErrInUse = errors.New("record is still referenced")
)

// Entities lists every table in dependency order.
func Entities() []any {
	return []any{
		&ProductEntity{},
		&PurchaseCategoryEntity{},
		&PaymentMethodEntity{},
		&CustomerEntity{},
		&OrderEntity{},
		&OrderItemEntity{},
		&SalesTransactionEntity{},
		&SalesDetailEntity{},
		&PurchaseTransactionEntity{},
		&DocumentCounterEntity{},
	}
}

// AutoMigrate creates the schema on a bare connection. Production schemas
// come from the goose migrations; this is for sqlite tests.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Entities()...)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
