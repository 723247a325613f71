package services

import (
	"context"
	"fmt"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/google/uuid"
)

type ProductRepository interface {
	Create(ctx context.Context, in model.ProductInput) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, in model.ProductInput) (*model.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context) ([]*model.Product, error)
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type LookupRepository interface {
	Create(ctx context.Context, in model.LookupInput) (*model.Lookup, error)
	Update(ctx context.Context, id uuid.UUID, in model.LookupInput) (*model.Lookup, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Lookup, error)
	List(ctx context.Context) ([]*model.Lookup, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CustomerRepository interface {
	FindOrCreateByName(ctx context.Context, name string) (*model.Customer, error)
	List(ctx context.Context, search *string) ([]*model.Customer, error)
}

// MasterService manages the catalog and the two lookup lists.
type MasterService struct {
	products  ProductRepository
	lookups   map[model.LookupKind]LookupRepository
	customers CustomerRepository
	events    EventPublisher
}

func NewMasterService(products ProductRepository, categories, paymentMethods LookupRepository, customers CustomerRepository, events EventPublisher) *MasterService {
	return &MasterService{
		products: products,
		lookups: map[model.LookupKind]LookupRepository{
			model.LookupPurchaseCategory: categories,
			model.LookupPaymentMethod:    paymentMethods,
		},
		customers: customers,
		events:    publisherOrNop(events),
	}
}

func (s *MasterService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	return s.products.List(ctx)
}

func (s *MasterService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.products.Get(ctx, id)
	return p, mapErr(err)
}

func (s *MasterService) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p, err := s.products.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// UpdateProduct renames or reprices a product. Dashboards show product names,
// so the change is published.
func (s *MasterService) UpdateProduct(ctx context.Context, id uuid.UUID, in model.ProductInput) (*model.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p, err := s.products.Update(ctx, id, in)
	if err != nil {
		return nil, mapErr(err)
	}
	s.events.DocumentChanged(ctx, KindProduct, p.ID, model.Date{})
	return p, nil
}

func (s *MasterService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return mapErr(err)
	}
	s.events.DocumentChanged(ctx, KindProduct, id, model.Date{})
	return nil
}

func (s *MasterService) lookup(kind model.LookupKind) (LookupRepository, error) {
	repo, ok := s.lookups[kind]
	if !ok || repo == nil {
		return nil, fmt.Errorf("unknown lookup %q", kind)
	}
	return repo, nil
}

func (s *MasterService) ListLookups(ctx context.Context, kind model.LookupKind) ([]*model.Lookup, error) {
	repo, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}
	return repo.List(ctx)
}

func (s *MasterService) GetLookup(ctx context.Context, kind model.LookupKind, id uuid.UUID) (*model.Lookup, error) {
	repo, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}
	l, err := repo.Get(ctx, id)
	return l, mapErr(err)
}

func (s *MasterService) CreateLookup(ctx context.Context, kind model.LookupKind, in model.LookupInput) (*model.Lookup, error) {
	repo, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	l, err := repo.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}
	return l, nil
}

func (s *MasterService) UpdateLookup(ctx context.Context, kind model.LookupKind, id uuid.UUID, in model.LookupInput) (*model.Lookup, error) {
	repo, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	l, err := repo.Update(ctx, id, in)
	return l, mapErr(err)
}

func (s *MasterService) DeleteLookup(ctx context.Context, kind model.LookupKind, id uuid.UUID) error {
	repo, err := s.lookup(kind)
	if err != nil {
		return err
	}
	return mapErr(repo.Delete(ctx, id))
}

func (s *MasterService) ListCustomers(ctx context.Context, search *string) ([]*model.Customer, error) {
	return s.customers.List(ctx, search)
}
