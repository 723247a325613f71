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

type SalesRepository struct {
	*pg.DB
}

func NewSalesRepository(db *pg.DB) *SalesRepository {
	return &SalesRepository{
		db,
	}
}

// CreateHeader inserts the transaction row without details. A taken
// transaction_no fails with a duplicate key error.
func (r *SalesRepository) CreateHeader(ctx context.Context, txn *model.SalesTransaction) (*model.SalesTransaction, error) {
	entity := toSalesEntity(txn)
	if err := r.Write(ctx).Omit(clause.Associations).Create(entity).Error; err != nil {
		return nil, err
	}
	return toSalesModel(entity), nil
}

// UpdateHeader rewrites the editable header columns. The number never changes.
func (r *SalesRepository) UpdateHeader(ctx context.Context, txn *model.SalesTransaction) error {
	result := r.Write(ctx).
		Model(&SalesTransactionEntity{}).
		Where("id = ?", txn.ID).
		Updates(map[string]any{
			"transaction_date":  txn.TransactionDate.Time,
			"total":             txn.Total,
			"payment_method_id": txn.PaymentMethodID,
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

func (r *SalesRepository) InsertDetails(ctx context.Context, txID uuid.UUID, details []model.SalesDetail) error {
	if len(details) == 0 {
		return nil
	}
	entities := make([]*SalesDetailEntity, len(details))
	for i, d := range details {
		entities[i] = toSalesDetailEntity(txID, i, d)
	}
	return r.Write(ctx).Omit(clause.Associations).CreateInBatches(entities, 100).Error
}

func (r *SalesRepository) DeleteDetails(ctx context.Context, txID uuid.UUID) error {
	return r.Write(ctx).Where("sales_transaction_id = ?", txID).Delete(&SalesDetailEntity{}).Error
}

// Delete removes the header and its details.
func (r *SalesRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.DeleteDetails(ctx, id); err != nil {
			return err
		}
		result := r.Write(ctx).Where("id = ?", id).Delete(&SalesTransactionEntity{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Get loads the header with its details, product names and payment method.
func (r *SalesRepository) Get(ctx context.Context, id uuid.UUID) (*model.SalesTransaction, error) {
	var entity SalesTransactionEntity
	err := r.Read(ctx).
		Preload("PaymentMethod").
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Preload("Details.Product").
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		return nil, notFound(err)
	}
	return toSalesModel(&entity), nil
}

func (r *SalesRepository) filtered(ctx context.Context, f model.SalesFilter) *gorm.DB {
	q := r.Read(ctx).Model(&SalesTransactionEntity{})

	if f.From != nil {
		q = q.Where("transaction_date >= ?", f.From.Time)
	}
	if f.To != nil {
		q = q.Where("transaction_date <= ?", f.To.Time)
	}
	if f.PaymentMethodID != nil {
		q = q.Where("payment_method_id = ?", *f.PaymentMethodID)
	}
	if f.IDs != nil {
		q = q.Where("id IN ?", f.IDs)
	}
	return q
}

// List returns headers newest first with the count of all matches.
func (r *SalesRepository) List(ctx context.Context, f model.SalesFilter) ([]model.SalesTransaction, int64, error) {
	q := r.filtered(ctx, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := clampPage(f.Limit, f.Offset)

	var entities []*SalesTransactionEntity
	err := q.Preload("PaymentMethod").
		Order("transaction_date DESC").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entities).
		Error
	if err != nil {
		return nil, 0, err
	}
	return toSalesModels(entities), total, nil
}

// FindAll returns every matching header, oldest first, without details.
func (r *SalesRepository) FindAll(ctx context.Context, f model.SalesFilter) ([]model.SalesTransaction, error) {
	var entities []*SalesTransactionEntity
	err := r.filtered(ctx, f).
		Order("transaction_date ASC").
		Order("created_at ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toSalesModels(entities), nil
}

// DetailsFor loads the detail lines of the given headers with product names.
func (r *SalesRepository) DetailsFor(ctx context.Context, txIDs []uuid.UUID) ([]model.SalesDetail, error) {
	if len(txIDs) == 0 {
		return nil, nil
	}
	var entities []*SalesDetailEntity
	err := r.Read(ctx).
		Preload("Product").
		Where("sales_transaction_id IN ?", txIDs).
		Order("sales_transaction_id ASC").
		Order("line_no ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toSalesDetailModels(entities), nil
}

// TransactionIDsWithProduct lists the headers having at least one line of
// productID.
func (r *SalesRepository) TransactionIDsWithProduct(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.Read(ctx).
		Model(&SalesDetailEntity{}).
		Distinct("sales_transaction_id").
		Where("product_id = ?", productID).
		Pluck("sales_transaction_id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *SalesRepository) LatestNumber(ctx context.Context, prefix string) (string, error) {
	return latestNumber(r.Read(ctx), &SalesTransactionEntity{}, "transaction_no", prefix)
}
