package handlers

import (
	"context"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/fasthttp/router"
	xhttp "github.com/dapurasri/backoffice/pkg/http"
	"github.com/google/uuid"
)

type MasterService interface {
	ListProducts(ctx context.Context) ([]*model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, in model.ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	ListLookups(ctx context.Context, kind model.LookupKind) ([]*model.Lookup, error)
	GetLookup(ctx context.Context, kind model.LookupKind, id uuid.UUID) (*model.Lookup, error)
	CreateLookup(ctx context.Context, kind model.LookupKind, in model.LookupInput) (*model.Lookup, error)
	UpdateLookup(ctx context.Context, kind model.LookupKind, id uuid.UUID, in model.LookupInput) (*model.Lookup, error)
	DeleteLookup(ctx context.Context, kind model.LookupKind, id uuid.UUID) error

	ListCustomers(ctx context.Context, search *string) ([]*model.Customer, error)
}

type MasterHandler struct {
	svc MasterService
}

func RegisterMasterRoutes(e *router.Group, h *MasterHandler) {
	e.GET("/products", h.ListProducts)
	e.POST("/products", h.CreateProduct)
	e.GET("/products/{id}", h.GetProduct)
	e.PUT("/products/{id}", h.UpdateProduct)
	e.DELETE("/products/{id}", h.DeleteProduct)

	lookups := map[string]model.LookupKind{
		"/categories":      model.LookupPurchaseCategory,
		"/payment-methods": model.LookupPaymentMethod,
	}
	for path, kind := range lookups {
		e.GET(path, h.ListLookups(kind))
		e.POST(path, h.CreateLookup(kind))
		e.GET(path+"/{id}", h.GetLookup(kind))
		e.PUT(path+"/{id}", h.UpdateLookup(kind))
		e.DELETE(path+"/{id}", h.DeleteLookup(kind))
	}

	e.GET("/customers", h.ListCustomers)
}

func NewMasterHandler(svc MasterService) *MasterHandler {
	return &MasterHandler{svc: svc}
}

/* -------------------------------- Products ---------------------------------- */

func (h *MasterHandler) ListProducts(ctx *xhttp.RequestCtx) {
	items, err := h.svc.ListProducts(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Product]{Items: items, Total: int64(len(items))})
}

func (h *MasterHandler) GetProduct(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	p, err := h.svc.GetProduct(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}

func (h *MasterHandler) CreateProduct(ctx *xhttp.RequestCtx) {
	var in model.ProductInput
	if err := readJSON(ctx, &in); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, msgInvalidJSON)
		return
	}
	p, err := h.svc.CreateProduct(ctx, in)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, p)
}

func (h *MasterHandler) UpdateProduct(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var in model.ProductInput
	if err := readJSON(ctx, &in); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, msgInvalidJSON)
		return
	}
	p, err := h.svc.UpdateProduct(ctx, id, in)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}

func (h *MasterHandler) DeleteProduct(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := h.svc.DeleteProduct(ctx, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

/* -------------------------------- Lookups ----------------------------------- */

func (h *MasterHandler) ListLookups(kind model.LookupKind) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		items, err := h.svc.ListLookups(ctx, kind)
		if err != nil {
			writeServiceError(ctx, err)
			return
		}
		writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Lookup]{Items: items, Total: int64(len(items))})
	}
}

func (h *MasterHandler) GetLookup(kind model.LookupKind) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		id, ok := pathID(ctx)
		if !ok {
			return
		}
		l, err := h.svc.GetLookup(ctx, kind, id)
		if err != nil {
			writeServiceError(ctx, err)
			return
		}
		writeJSON(ctx, xhttp.StatusOK, l)
	}
}

func (h *MasterHandler) CreateLookup(kind model.LookupKind) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		var in model.LookupInput
		if err := readJSON(ctx, &in); err != nil {
			writeError(ctx, xhttp.StatusBadRequest, msgInvalidJSON)
			return
		}
		l, err := h.svc.CreateLookup(ctx, kind, in)
		if err != nil {
			writeServiceError(ctx, err)
			return
		}
		writeJSON(ctx, xhttp.StatusCreated, l)
	}
}

func (h *MasterHandler) UpdateLookup(kind model.LookupKind) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		id, ok := pathID(ctx)
		if !ok {
			return
		}
		var in model.LookupInput
		if err := readJSON(ctx, &in); err != nil {
			writeError(ctx, xhttp.StatusBadRequest, msgInvalidJSON)
			return
		}
		l, err := h.svc.UpdateLookup(ctx, kind, id, in)
		if err != nil {
			writeServiceError(ctx, err)
			return
		}
		writeJSON(ctx, xhttp.StatusOK, l)
	}
}

func (h *MasterHandler) DeleteLookup(kind model.LookupKind) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		id, ok := pathID(ctx)
		if !ok {
			return
		}
		if err := h.svc.DeleteLookup(ctx, kind, id); err != nil {
			writeServiceError(ctx, err)
			return
		}
		ctx.SetStatusCode(xhttp.StatusNoContent)
	}
}

func (h *MasterHandler) ListCustomers(ctx *xhttp.RequestCtx) {
	items, err := h.svc.ListCustomers(ctx, optional(query(ctx, "search")))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Customer]{Items: items, Total: int64(len(items))})
}
