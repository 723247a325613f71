package handlers

import (
	"context"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/fasthttp/router"
	xhttp "github.com/dapurasri/backoffice/pkg/http"
	"github.com/google/uuid"
)

type PurchaseService interface {
	Create(ctx context.Context, in model.PurchaseInput) ([]model.PurchaseTransaction, error)
	Update(ctx context.Context, id uuid.UUID, in model.PurchaseInput) (*model.PurchaseTransaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.PurchaseTransaction, error)
	List(ctx context.Context, f model.PurchaseFilter) ([]model.PurchaseTransaction, int64, error)
}

type PurchaseHandler struct {
	svc PurchaseService
}

func RegisterPurchaseRoutes(e *router.Group, h *PurchaseHandler) {
	e.GET("/purchases", h.ListPurchases)
	e.POST("/purchases", h.CreatePurchases)
	e.GET("/purchases/{id}", h.GetPurchase)
	e.PUT("/purchases/{id}", h.UpdatePurchase)
	e.DELETE("/purchases/{id}", h.DeletePurchase)
}

func NewPurchaseHandler(svc PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{svc: svc}
}

func (h *PurchaseHandler) ListPurchases(ctx *xhttp.RequestCtx) {
	from, ok := queryDate(ctx, "from")
	if !ok {
		return
	}
	to, ok := queryDate(ctx, "to")
	if !ok {
		return
	}
	pm, ok := queryUUID(ctx, "payment_method_id")
	if !ok {
		return
	}
	cat, ok := queryUUID(ctx, "category_id")
	if !ok {
		return
	}

	items, total, err := h.svc.List(ctx, model.PurchaseFilter{
		From:            from,
		To:              to,
		PaymentMethodID: pm,
		CategoryID:      cat,
		Limit:           queryInt(ctx, "limit"),
		Offset:          queryInt(ctx, "offset"),
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[model.PurchaseTransaction]{Items: items, Total: total})
}

// CreatePurchases stores every complete line of the batch as its own row.
func (h *PurchaseHandler) CreatePurchases(ctx *xhttp.RequestCtx) {
	var in model.PurchaseInput
	if err := readJSON(ctx, &in); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, msgInvalidJSON)
		return
	}
	rows, err := h.svc.Create(ctx, in)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, listResponse[model.PurchaseTransaction]{Items: rows, Total: int64(len(rows))})
}

func (h *PurchaseHandler) GetPurchase(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	p, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}

func (h *PurchaseHandler) UpdatePurchase(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var in model.PurchaseInput
	if err := readJSON(ctx, &in); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, msgInvalidJSON)
		return
	}
	p, err := h.svc.Update(ctx, id, in)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}

func (h *PurchaseHandler) DeletePurchase(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := h.svc.Delete(ctx, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}
