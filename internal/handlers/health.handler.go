package handlers

import (
	"github.com/fasthttp/router"
	xhttp "github.com/dapurasri/backoffice/pkg/http"
	"github.com/dapurasri/backoffice/pkg/logger"
)

type HealthService interface {
	Get() error
}

type HealthHandler struct {
	svc HealthService
}

func RegisterHealthRoutes(e *router.Group, h *HealthHandler) {
	e.GET("/health", h.GetHealth)
}

func NewHealthHandler(svc HealthService) *HealthHandler {
	return &HealthHandler{svc: svc}
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	if err := h.svc.Get(); err != nil {
		logger.Warn("health check failed", "error", err)
		writeJSON(ctx, xhttp.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]string{"status": "ok"})
}
