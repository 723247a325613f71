package handlers

import (
	"context"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/fasthttp/router"
	xhttp "github.com/dapurasri/backoffice/pkg/http"
	"github.com/google/uuid"
)

type SalesService interface {
	StartDraft(ctx context.Context, in model.DraftInput) (*model.Draft, error)
	GetDraft(ctx context.Context, id uuid.UUID) (*model.Draft, error)
	UpdateDraft(ctx context.Context, id uuid.UUID, in model.DraftInput) (*model.Draft, error)
	Preview(ctx context.Context, id uuid.UUID) (*model.Draft, error)
	Back(ctx context.Context, id uuid.UUID) (*model.Draft, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	Receipt(ctx context.Context, id uuid.UUID, scale int) ([]byte, error)
	Commit(ctx context.Context, id uuid.UUID) (*model.SalesTransaction, error)
	StartEdit(ctx context.Context, txID uuid.UUID) (*model.Draft, error)
	ConvertOrder(ctx context.Context, orderID uuid.UUID) (*model.Draft, error)
	List(ctx context.Context, f model.SalesFilter) ([]model.SalesTransaction, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*model.SalesTransaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type SalesHandler struct {
	svc SalesService
}

func RegisterSalesRoutes(e *router.Group, h *SalesHandler) {
	e.POST("/sales/drafts", h.StartDraft)
	e.GET("/sales/drafts/{id}", h.GetDraft)
	e.PUT("/sales/drafts/{id}", h.UpdateDraft)
	e.DELETE("/sales/drafts/{id}", h.CancelDraft)
	e.POST("/sales/drafts/{id}/preview", h.draftStep(h.svc.Preview))
	e.POST("/sales/drafts/{id}/back", h.draftStep(h.svc.Back))
	e.POST("/sales/drafts/{id}/commit", h.Commit)
	e.GET("/sales/drafts/{id}/receipt.png", h.Receipt)

	e.GET("/sales", h.ListSales)
	e.GET("/sales/{id}", h.GetSale)
	e.DELETE("/sales/{id}", h.DeleteSale)
	e.POST("/sales/{id}/edit", h.draftStep(h.svc.StartEdit))

	e.POST("/orders/{id}/convert", h.draftStep(h.svc.ConvertOrder))
}

func NewSalesHandler(svc SalesService) *SalesHandler {
	return &SalesHandler{svc: svc}
}

/* --------------------------------- Drafts ----------------------------------- */

func (h *SalesHandler) StartDraft(ctx *xhttp.RequestCtx) {
	var in model.DraftInput
	if err := readJSON(ctx, &in); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, msgInvalidJSON)
		return
	}
	d, err := h.svc.StartDraft(ctx, in)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, d)
}

func (h *SalesHandler) GetDraft(ctx *xhttp.RequestCtx) {
	h.draftStep(h.svc.GetDraft)(ctx)
}

func (h *SalesHandler) UpdateDraft(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var in model.DraftInput
	if err := readJSON(ctx, &in); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, msgInvalidJSON)
		return
	}
	d, err := h.svc.UpdateDraft(ctx, id, in)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, d)
}

func (h *SalesHandler) CancelDraft(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := h.svc.Cancel(ctx, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

// draftStep serves the routes that take a path id and answer with a draft.
func (h *SalesHandler) draftStep(step func(context.Context, uuid.UUID) (*model.Draft, error)) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		id, ok := pathID(ctx)
		if !ok {
			return
		}
		d, err := step(ctx, id)
		if err != nil {
			writeServiceError(ctx, err)
			return
		}
		writeJSON(ctx, xhttp.StatusOK, d)
	}
}

func (h *SalesHandler) Commit(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	tx, err := h.svc.Commit(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, tx)
}

func (h *SalesHandler) Receipt(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	png, err := h.svc.Receipt(ctx, id, queryInt(ctx, "scale"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.Response.Header.Set("Content-Type", "image/png")
	ctx.Response.SetStatusCode(xhttp.StatusOK)
	ctx.Response.SetBodyRaw(png)
}

/* ------------------------------ Transactions -------------------------------- */

func (h *SalesHandler) ListSales(ctx *xhttp.RequestCtx) {
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

	items, total, err := h.svc.List(ctx, model.SalesFilter{
		From:            from,
		To:              to,
		PaymentMethodID: pm,
		Limit:           queryInt(ctx, "limit"),
		Offset:          queryInt(ctx, "offset"),
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[model.SalesTransaction]{Items: items, Total: total})
}

func (h *SalesHandler) GetSale(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	tx, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, tx)
}

func (h *SalesHandler) DeleteSale(ctx *xhttp.RequestCtx) {
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
