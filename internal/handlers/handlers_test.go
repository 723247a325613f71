package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/dapurasri/backoffice/internal/appctx"
	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/internal/services"
	xhttp "github.com/dapurasri/backoffice/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	if body != nil {
		req.SetBody(body)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

func decodeError(t *testing.T, ctx *xhttp.RequestCtx) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	return resp
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		message   string
		field     string
		retryable bool
	}{
		{"validation", model.Invalid("lines", "Minimal satu produk"), xhttp.StatusBadRequest, "Minimal satu produk", "lines", false},
		{"wrapped validation", fmt.Errorf("commit: %w", model.Invalid("date", "Tanggal wajib diisi")), xhttp.StatusBadRequest, "Tanggal wajib diisi", "date", false},
		{"not found", fmt.Errorf("get draft: %w", services.ErrNotFound), xhttp.StatusNotFound, msgNotFound, "", false},
		{"committed", &services.CommittedError{TransactionNo: "INV-20260305-001", Err: errors.New("redis down")}, xhttp.StatusConflict, "Transaksi INV-20260305-001 sudah tersimpan, jangan simpan ulang", "", false},
		{"in use", services.ErrInUse, xhttp.StatusConflict, msgInUse, "", false},
		{"invalid state", services.ErrInvalidState, xhttp.StatusConflict, services.ErrInvalidState.Error(), "", false},
		{"retryable", errors.Join(services.ErrRetryable, errors.New("lock busy")), xhttp.StatusServiceUnavailable, msgBusy, "", true},
		{"unauthenticated", appctx.ErrUnauthenticated, xhttp.StatusUnauthorized, msgUnauthorized, "", false},
		{"internal", errors.New("connection reset"), xhttp.StatusInternalServerError, msgInternal, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := setupTestContext("GET", "/api/v1/x", nil)
			writeServiceError(ctx, tt.err)
			assert.Equal(t, tt.status, ctx.Response.StatusCode())
			resp := decodeError(t, ctx)
			assert.Equal(t, tt.message, resp.Error)
			assert.Equal(t, tt.field, resp.Field)
			assert.Equal(t, tt.retryable, resp.Retryable)
		})
	}
}

type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) Get() error {
	return m.Called().Error(0)
}

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		svc := new(MockHealthService)
		svc.On("Get").Return(nil)
		ctx := setupTestContext("GET", "/api/v1/health", nil)
		NewHealthHandler(svc).GetHealth(ctx)
		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
		assert.JSONEq(t, `{"status":"ok"}`, string(ctx.Response.Body()))
	})

	t.Run("backend down", func(t *testing.T) {
		svc := new(MockHealthService)
		svc.On("Get").Return(errors.New("redis: connection refused"))
		ctx := setupTestContext("GET", "/api/v1/health", nil)
		NewHealthHandler(svc).GetHealth(ctx)
		assert.Equal(t, xhttp.StatusServiceUnavailable, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})
}

type MockThemeSetter struct {
	mock.Mock
}

func (m *MockThemeSetter) Set(ctx context.Context, userID string, theme appctx.Theme) error {
	return m.Called(ctx, userID, theme).Error(0)
}

func TestSessionHandler(t *testing.T) {
	signedIn := func(ctx *xhttp.RequestCtx) *xhttp.RequestCtx {
		appctx.With(ctx, &appctx.Context{Session: appctx.Session{UserID: "u-1", Email: "sari@dapurasri.id"}, Theme: appctx.ThemeLight})
		return ctx
	}

	t.Run("get session", func(t *testing.T) {
		h := NewSessionHandler(new(MockThemeSetter))
		ctx := signedIn(setupTestContext("GET", "/api/v1/session", nil))
		h.GetSession(ctx)
		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())

		var got appctx.Context
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &got))
		assert.Equal(t, "u-1", got.Session.UserID)
		assert.Equal(t, appctx.ThemeLight, got.Theme)
	})

	t.Run("no session", func(t *testing.T) {
		h := NewSessionHandler(new(MockThemeSetter))
		ctx := setupTestContext("GET", "/api/v1/session", nil)
		h.GetSession(ctx)
		assert.Equal(t, xhttp.StatusUnauthorized, ctx.Response.StatusCode())
	})

	t.Run("set theme", func(t *testing.T) {
		themes := new(MockThemeSetter)
		themes.On("Set", mock.Anything, "u-1", appctx.ThemeDark).Return(nil)
		ctx := signedIn(setupTestContext("PUT", "/api/v1/session/theme", []byte(`{"theme":"dark"}`)))
		NewSessionHandler(themes).SetTheme(ctx)
		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
		assert.Contains(t, string(ctx.Response.Body()), `"theme":"dark"`)
		themes.AssertExpectations(t)
	})

	t.Run("unknown theme", func(t *testing.T) {
		themes := new(MockThemeSetter)
		ctx := signedIn(setupTestContext("PUT", "/api/v1/session/theme", []byte(`{"theme":"sepia"}`)))
		NewSessionHandler(themes).SetTheme(ctx)
		assert.Equal(t, xhttp.StatusBadRequest, ctx.Response.StatusCode())
		themes.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	})
}
