package handlers

import (
	"context"

	"github.com/dapurasri/backoffice/internal/appctx"
	"github.com/fasthttp/router"
	xhttp "github.com/dapurasri/backoffice/pkg/http"
)

type ThemeSetter interface {
	Set(ctx context.Context, userID string, theme appctx.Theme) error
}

type SessionHandler struct {
	themes ThemeSetter
}

func RegisterSessionRoutes(e *router.Group, h *SessionHandler) {
	e.GET("/session", h.GetSession)
	e.PUT("/session/theme", h.SetTheme)
}

func NewSessionHandler(themes ThemeSetter) *SessionHandler {
	return &SessionHandler{themes: themes}
}

func (h *SessionHandler) GetSession(ctx *xhttp.RequestCtx) {
	c, ok := appctx.From(ctx)
	if !ok {
		writeError(ctx, xhttp.StatusUnauthorized, msgUnauthorized)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, c)
}

type themeRequest struct {
	Theme appctx.Theme `json:"theme"`
}

func (h *SessionHandler) SetTheme(ctx *xhttp.RequestCtx) {
	c, ok := appctx.From(ctx)
	if !ok {
		writeError(ctx, xhttp.StatusUnauthorized, msgUnauthorized)
		return
	}
	var req themeRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, msgInvalidJSON)
		return
	}
	if !req.Theme.Valid() {
		writeJSON(ctx, xhttp.StatusBadRequest, errorResponse{Error: "Tema tidak dikenal", Field: "theme"})
		return
	}
	if err := h.themes.Set(ctx, c.Session.UserID, req.Theme); err != nil {
		writeServiceError(ctx, err)
		return
	}
	c.Theme = req.Theme
	writeJSON(ctx, xhttp.StatusOK, c)
}
