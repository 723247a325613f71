package handlers

import (
	"context"
	"testing"

	"github.com/dapurasri/backoffice/internal/model"
	xhttp "github.com/dapurasri/backoffice/pkg/http"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockMasterService struct {
	mock.Mock
}

func (m *MockMasterService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*model.Product), args.Error(1)
}

func (m *MockMasterService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockMasterService) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockMasterService) UpdateProduct(ctx context.Context, id uuid.UUID, in model.ProductInput) (*model.Product, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockMasterService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockMasterService) ListLookups(ctx context.Context, kind model.LookupKind) ([]*model.Lookup, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).([]*model.Lookup), args.Error(1)
}

func (m *MockMasterService) GetLookup(ctx context.Context, kind model.LookupKind, id uuid.UUID) (*model.Lookup, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lookup), args.Error(1)
}

func (m *MockMasterService) CreateLookup(ctx context.Context, kind model.LookupKind, in model.LookupInput) (*model.Lookup, error) {
	args := m.Called(ctx, kind, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lookup), args.Error(1)
}

func (m *MockMasterService) UpdateLookup(ctx context.Context, kind model.LookupKind, id uuid.UUID, in model.LookupInput) (*model.Lookup, error) {
	args := m.Called(ctx, kind, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lookup), args.Error(1)
}

func (m *MockMasterService) DeleteLookup(ctx context.Context, kind model.LookupKind, id uuid.UUID) error {
	return m.Called(ctx, kind, id).Error(0)
}

func (m *MockMasterService) ListCustomers(ctx context.Context, search *string) ([]*model.Customer, error) {
	args := m.Called(ctx, search)
	return args.Get(0).([]*model.Customer), args.Error(1)
}

func TestMasterHandler_Products(t *testing.T) {
	svc := new(MockMasterService)
	svc.On("CreateProduct", mock.Anything, mock.MatchedBy(func(in model.ProductInput) bool {
		return in.Name == "Nastar" && in.Unit == "toples"
	})).Return(&model.Product{ID: uuid.New(), Name: "Nastar", Unit: "toples"}, nil)
	h := NewMasterHandler(svc)

	ctx := setupTestContext("POST", "/api/v1/products", []byte(`{"name":"Nastar","price":"85000","unit":"toples"}`))
	h.CreateProduct(ctx)
	assert.Equal(t, xhttp.StatusCreated, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"name":"Nastar"`)
	svc.AssertExpectations(t)
}

func TestMasterHandler_LookupsKeepTheirKind(t *testing.T) {
	svc := new(MockMasterService)
	svc.On("ListLookups", mock.Anything, model.LookupPaymentMethod).Return([]*model.Lookup{{Name: "QRIS"}}, nil)
	svc.On("CreateLookup", mock.Anything, model.LookupPurchaseCategory, model.LookupInput{Name: "Bahan"}).
		Return(nil, model.Invalid("name", "Nama sudah dipakai"))
	h := NewMasterHandler(svc)

	ctx := setupTestContext("GET", "/api/v1/payment-methods", nil)
	h.ListLookups(model.LookupPaymentMethod)(ctx)
	assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "QRIS")

	ctx = setupTestContext("POST", "/api/v1/categories", []byte(`{"name":"Bahan"}`))
	h.CreateLookup(model.LookupPurchaseCategory)(ctx)
	assert.Equal(t, xhttp.StatusBadRequest, ctx.Response.StatusCode())
	svc.AssertExpectations(t)
}

func TestMasterHandler_ListCustomers(t *testing.T) {
	svc := new(MockMasterService)
	svc.On("ListCustomers", mock.Anything, mock.MatchedBy(func(s *string) bool { return s != nil && *s == "rina" })).
		Return([]*model.Customer{{Name: "Bu Rina"}}, nil)

	ctx := setupTestContext("GET", "/api/v1/customers?search=rina", nil)
	NewMasterHandler(svc).ListCustomers(ctx)
	assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "Bu Rina")
}
