package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/pkg/pg"
	"github.com/google/uuid"
)

type ProductRepository struct {
	*pg.DB
}

func NewProductRepository(db *pg.DB) *ProductRepository {
	return &ProductRepository{
		db,
	}
}

func (r *ProductRepository) Create(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	entity := &ProductEntity{Name: strings.TrimSpace(in.Name), Price: in.Price, Unit: strings.TrimSpace(in.Unit)}
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toProductModel(entity), nil
}

func (r *ProductRepository) Update(ctx context.Context, id uuid.UUID, in model.ProductInput) (*model.Product, error) {
	result := r.Write(ctx).
		Model(&ProductEntity{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":       strings.TrimSpace(in.Name),
			"price":      in.Price,
			"unit":       strings.TrimSpace(in.Unit),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *ProductRepository) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var entity ProductEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, notFound(err)
	}
	return toProductModel(&entity), nil
}

func (r *ProductRepository) List(ctx context.Context) ([]*model.Product, error) {
	var entities []*ProductEntity
	if err := r.Read(ctx).Order("name ASC").Order("id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toProductModels(entities), nil
}

// GetMany returns the products found among ids, keyed by id. Unknown ids are
// left out.
func (r *ProductRepository) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	out := make(map[uuid.UUID]*model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var entities []*ProductEntity
	if err := r.Read(ctx).Where("id IN ?", ids).Find(&entities).Error; err != nil {
		return nil, err
	}
	for _, e := range entities {
		out[e.ID] = toProductModel(e)
	}
	return out, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.Write(ctx).Where("id = ?", id).Delete(&ProductEntity{})
	if pg.IsForeignKeyViolation(result.Error) {
		return ErrInUse
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LookupRepository serves both purchase categories and payment methods.
type LookupRepository struct {
	*pg.DB
	kind  model.LookupKind
	table string
}

func NewLookupRepository(db *pg.DB, kind model.LookupKind) *LookupRepository {
	return &LookupRepository{DB: db, kind: kind, table: lookupTable(kind)}
}

func (r *LookupRepository) Kind() model.LookupKind {
	return r.kind
}

func (r *LookupRepository) Create(ctx context.Context, in model.LookupInput) (*model.Lookup, error) {
	entity := &LookupEntity{Name: strings.TrimSpace(in.Name)}
	if err := r.Write(ctx).Table(r.table).Create(entity).Error; err != nil {
		return nil, err
	}
	return toLookupModel(entity), nil
}

func (r *LookupRepository) Update(ctx context.Context, id uuid.UUID, in model.LookupInput) (*model.Lookup, error) {
	result := r.Write(ctx).
		Table(r.table).
		Where("id = ?", id).
		Updates(map[string]any{"name": strings.TrimSpace(in.Name), "updated_at": time.Now()})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *LookupRepository) Get(ctx context.Context, id uuid.UUID) (*model.Lookup, error) {
	var entity LookupEntity
	if err := r.Read(ctx).Table(r.table).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, notFound(err)
	}
	return toLookupModel(&entity), nil
}

func (r *LookupRepository) List(ctx context.Context) ([]*model.Lookup, error) {
	var entities []*LookupEntity
	if err := r.Read(ctx).Table(r.table).Order("name ASC").Order("id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	out := make([]*model.Lookup, len(entities))
	for i, e := range entities {
		out[i] = toLookupModel(e)
	}
	return out, nil
}

func (r *LookupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.Write(ctx).Table(r.table).Where("id = ?", id).Delete(&LookupEntity{})
	if pg.IsForeignKeyViolation(result.Error) {
		return ErrInUse
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type CustomerRepository struct {
	*pg.DB
}

func NewCustomerRepository(db *pg.DB) *CustomerRepository {
	return &CustomerRepository{
		db,
	}
}

func customerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FindOrCreateByName reuses the customer whose trimmed name matches without
// regard to case, or inserts a new one. Two concurrent creates of the same
// name collide on the unique key and the loser reads the winner's row.
func (r *CustomerRepository) FindOrCreateByName(ctx context.Context, name string) (*model.Customer, error) {
	const maxRetries = 3
	const baseDelay = 2 * time.Millisecond

	key := customerKey(name)
	if key == "" {
		return nil, errors.New("customer name is empty")
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		customer, err := r.findOrCreateAttempt(ctx, key, strings.TrimSpace(name))
		if err == nil {
			return customer, nil
		}
		if !pg.IsDuplicate(err) {
			return nil, err
		}

		if attempt < maxRetries {
			delay := baseDelay * time.Duration(1<<attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
	}

	return nil, fmt.Errorf("find or create customer %q: failed after %d attempts", key, maxRetries+1)
}

func (r *CustomerRepository) findOrCreateAttempt(ctx context.Context, key, name string) (*model.Customer, error) {
	var entity CustomerEntity
	err := r.Write(ctx).Where("name_key = ?", key).First(&entity).Error
	if err == nil {
		return toCustomerModel(&entity), nil
	}
	if !pg.IsNotFound(err) {
		return nil, err
	}

	entity = CustomerEntity{Name: name, NameKey: key}
	if err := r.Write(ctx).Create(&entity).Error; err != nil {
		return nil, err
	}
	return toCustomerModel(&entity), nil
}

func (r *CustomerRepository) List(ctx context.Context, search *string) ([]*model.Customer, error) {
	q := r.Read(ctx).Model(&CustomerEntity{})
	if search != nil && strings.TrimSpace(*search) != "" {
		q = q.Where("name_key LIKE ?", "%"+customerKey(*search)+"%")
	}

	var entities []*CustomerEntity
	if err := q.Order("name ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	out := make([]*model.Customer, len(entities))
	for i, e := range entities {
		out[i] = toCustomerModel(e)
	}
	return out, nil
}
