package repository

import (
	"context"
	"time"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/pkg/pg"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseRepository struct {
	*pg.DB
}

func NewPurchaseRepository(db *pg.DB) *PurchaseRepository {
	return &PurchaseRepository{
		db,
	}
}

// CreateBatch inserts all rows in one statement batch.
func (r *PurchaseRepository) CreateBatch(ctx context.Context, rows []model.PurchaseTransaction) ([]model.PurchaseTransaction, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	entities := make([]*PurchaseTransactionEntity, len(rows))
	for i := range rows {
		entities[i] = toPurchaseEntity(&rows[i])
	}
	if err := r.Write(ctx).Omit(clause.Associations).CreateInBatches(entities, 100).Error; err != nil {
		return nil, err
	}
	return toPurchaseModels(entities), nil
}

func (r *PurchaseRepository) Update(ctx context.Context, p *model.PurchaseTransaction) error {
	result := r.Write(ctx).
		Model(&PurchaseTransactionEntity{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"category_id":       p.CategoryID,
			"description":       p.Description,
			"amount":            p.Amount,
			"transaction_date":  p.TransactionDate.Time,
			"payment_method_id": p.PaymentMethodID,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PurchaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.Write(ctx).Where("id = ?", id).Delete(&PurchaseTransactionEntity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PurchaseRepository) Get(ctx context.Context, id uuid.UUID) (*model.PurchaseTransaction, error) {
	var entity PurchaseTransactionEntity
	err := r.Read(ctx).
		Preload("Category").
		Preload("PaymentMethod").
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		return nil, notFound(err)
	}
	return toPurchaseModel(&entity), nil
}

func (r *PurchaseRepository) filtered(ctx context.Context, f model.PurchaseFilter) *gorm.DB {
	q := r.Read(ctx).Model(&PurchaseTransactionEntity{})

	if f.From != nil {
		q = q.Where("transaction_date >= ?", f.From.Time)
	}
	if f.To != nil {
		q = q.Where("transaction_date <= ?", f.To.Time)
	}
	if f.PaymentMethodID != nil {
		q = q.Where("payment_method_id = ?", *f.PaymentMethodID)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	return q
}

func (r *PurchaseRepository) List(ctx context.Context, f model.PurchaseFilter) ([]model.PurchaseTransaction, int64, error) {
	q := r.filtered(ctx, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := clampPage(f.Limit, f.Offset)

	var entities []*PurchaseTransactionEntity
	err := q.Preload("Category").
		Preload("PaymentMethod").
		Order("transaction_date DESC").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entities).
		Error
	if err != nil {
		return nil, 0, err
	}
	return toPurchaseModels(entities), total, nil
}

func (r *PurchaseRepository) FindAll(ctx context.Context, f model.PurchaseFilter) ([]model.PurchaseTransaction, error) {
	var entities []*PurchaseTransactionEntity
	err := r.filtered(ctx, f).
		Order("transaction_date ASC").
		Order("created_at ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toPurchaseModels(entities), nil
}
