package repository

import (
	"context"
	"strings"
	"time"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/pkg/pg"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository struct {
	*pg.DB
}

func NewOrderRepository(db *pg.DB) *OrderRepository {
	return &OrderRepository{
		db,
	}
}

// CreateHeader inserts the order row only. Items are written separately so
// the caller can compensate when they fail.
func (r *OrderRepository) CreateHeader(ctx context.Context, o *model.Order) (*model.Order, error) {
	entity := toOrderEntity(o)
	if err := r.Write(ctx).Omit(clause.Associations).Create(entity).Error; err != nil {
		return nil, err
	}
	out := toOrderModel(entity)
	out.CustomerName = o.CustomerName
	return out, nil
}

func (r *OrderRepository) UpdateHeader(ctx context.Context, o *model.Order) error {
	result := r.Write(ctx).
		Model(&OrderEntity{}).
		Where("id = ?", o.ID).
		Updates(map[string]any{
			"customer_id": o.CustomerID,
			"target_date": o.TargetDate.Time,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	result := r.Write(ctx).
		Model(&OrderEntity{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": string(status), "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *OrderRepository) InsertItems(ctx context.Context, orderID uuid.UUID, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	entities := make([]*OrderItemEntity, len(items))
	for i, it := range items {
		entities[i] = toOrderItemEntity(orderID, i, it)
	}
	return r.Write(ctx).CreateInBatches(entities, 100).Error
}

func (r *OrderRepository) DeleteItems(ctx context.Context, orderID uuid.UUID) error {
	return r.Write(ctx).Where("order_id = ?", orderID).Delete(&OrderItemEntity{}).Error
}

// Delete removes the order and its items.
func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.DeleteItems(ctx, id); err != nil {
			return err
		}
		result := r.Write(ctx).Where("id = ?", id).Delete(&OrderEntity{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *OrderRepository) withRelations(q *gorm.DB) *gorm.DB {
	return q.Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		})
}

func (r *OrderRepository) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var entity OrderEntity
	if err := r.withRelations(r.Read(ctx)).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, notFound(err)
	}
	return toOrderModel(&entity), nil
}

func (r *OrderRepository) filtered(ctx context.Context, f model.OrderFilter) *gorm.DB {
	q := r.Read(ctx).Model(&OrderEntity{})

	if f.Search != nil && strings.TrimSpace(*f.Search) != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(*f.Search)) + "%"
		q = q.Joins("LEFT JOIN customers ON customers.id = orders.customer_id").
			Where("customers.name_key LIKE ? OR LOWER(orders.order_number) LIKE ?", pattern, pattern)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("orders.status IN ?", statuses)
	}
	return q
}

// List returns one page, newest first, with the count of all matches.
func (r *OrderRepository) List(ctx context.Context, f model.OrderFilter) ([]model.Order, int64, error) {
	q := r.filtered(ctx, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := clampPage(f.Limit, f.Offset)

	var entities []*OrderEntity
	err := r.withRelations(q).
		Order("orders.created_at DESC").
		Order("orders.order_number DESC").
		Limit(limit).
		Offset(offset).
		Find(&entities).
		Error
	if err != nil {
		return nil, 0, err
	}
	return toOrderList(entities), total, nil
}

// FindAll is List without paging, for rollups over every match.
func (r *OrderRepository) FindAll(ctx context.Context, f model.OrderFilter) ([]model.Order, error) {
	var entities []*OrderEntity
	err := r.withRelations(r.filtered(ctx, f)).
		Order("orders.created_at DESC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toOrderList(entities), nil
}

// LatestNumber returns the highest order number starting with prefix.
func (r *OrderRepository) LatestNumber(ctx context.Context, prefix string) (string, error) {
	return latestNumber(r.Read(ctx), &OrderEntity{}, "order_number", prefix)
}

func toOrderList(entities []*OrderEntity) []model.Order {
	out := make([]model.Order, len(entities))
	for i, e := range entities {
		out[i] = *toOrderModel(e)
	}
	return out
}

// latestNumber orders by length first so PO-20260305-1000 sorts after
// PO-20260305-999.
func latestNumber(db *gorm.DB, entity any, column, prefix string) (string, error) {
	var numbers []string
	err := db.Model(entity).
		Where(column+" LIKE ?", prefix+"-%").
		Order("LENGTH("+column+") DESC").
		Order(column+" DESC").
		Limit(1).
		Pluck(column, &numbers).
		Error
	if err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}
