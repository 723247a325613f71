package handlers

import (
	"context"
	"strings"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/fasthttp/router"
	xhttp "github.com/dapurasri/backoffice/pkg/http"
	"github.com/google/uuid"
)

type OrderService interface {
	Create(ctx context.Context, in model.OrderInput) (*model.OrderView, error)
	Update(ctx context.Context, id uuid.UUID, in model.OrderInput) (*model.OrderView, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.OrderView, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.OrderView, error)
	List(ctx context.Context, f model.OrderFilter) (*model.OrderList, error)
	ProductSummary(ctx context.Context) ([]model.ProductQuantity, error)
	CustomerSummary(ctx context.Context, productName string) ([]model.CustomerQuantity, error)
}

type OrderHandler struct {
	svc OrderService
}

func RegisterOrderRoutes(e *router.Group, h *OrderHandler) {
	e.GET("/orders", h.ListOrders)
	e.POST("/orders", h.CreateOrder)
	e.GET("/orders/summary/products", h.ProductSummary)
	e.GET("/orders/summary/customers", h.CustomerSummary)
	e.GET("/orders/{id}", h.GetOrder)
	e.PUT("/orders/{id}", h.UpdateOrder)
	e.DELETE("/orders/{id}", h.DeleteOrder)
	e.PUT("/orders/{id}/status", h.UpdateStatus)
}

func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type statusRequest struct {
	Status model.OrderStatus `json:"status"`
}

func (h *OrderHandler) ListOrders(ctx *xhttp.RequestCtx) {
	f := model.OrderFilter{
		Search: optional(strings.TrimSpace(query(ctx, "search"))),
		Limit:  queryInt(ctx, "limit"),
		Offset: queryInt(ctx, "offset"),
	}
	if v := query(ctx, "status"); v != "" {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				f.Statuses = append(f.Statuses, model.OrderStatus(part))
			}
		}
	}

	list, err := h.svc.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, list)
}

func (h *OrderHandler) GetOrder(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	o, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, o)
}

func (h *OrderHandler) CreateOrder(ctx *xhttp.RequestCtx) {
	var in model.OrderInput
	if err := readJSON(ctx, &in); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, msgInvalidJSON)
		return
	}
	o, err := h.svc.Create(ctx, in)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, o)
}

func (h *OrderHandler) UpdateOrder(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var in model.OrderInput
	if err := readJSON(ctx, &in); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, msgInvalidJSON)
		return
	}
	o, err := h.svc.Update(ctx, id, in)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, o)
}

func (h *OrderHandler) UpdateStatus(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req statusRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, msgInvalidJSON)
		return
	}
	o, err := h.svc.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, o)
}

func (h *OrderHandler) DeleteOrder(ctx *xhttp.RequestCtx) {
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

func (h *OrderHandler) ProductSummary(ctx *xhttp.RequestCtx) {
	items, err := h.svc.ProductSummary(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[model.ProductQuantity]{Items: items, Total: int64(len(items))})
}

func (h *OrderHandler) CustomerSummary(ctx *xhttp.RequestCtx) {
	items, err := h.svc.CustomerSummary(ctx, query(ctx, "product"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[model.CustomerQuantity]{Items: items, Total: int64(len(items))})
}
