package handlers_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dapurasri/backoffice/internal/appctx"
	"github.com/dapurasri/backoffice/internal/events"
	"github.com/dapurasri/backoffice/internal/handlers"
	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/internal/numbering"
	"github.com/dapurasri/backoffice/internal/repository"
	"github.com/dapurasri/backoffice/internal/services"
	"github.com/dapurasri/backoffice/internal/testutil"
	xhttp "github.com/dapurasri/backoffice/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

const testSecret = "routes-test-secret"

type api struct {
	handler xhttp.RequestHandler
	token   string
}

// newAPI wires the whole v1 surface against sqlite and miniredis the same way
// cmd/api does.
func newAPI(t *testing.T) *api {
	t.Helper()

	wib := time.FixedZone("WIB", 7*3600)
	clock := services.Clock{
		Now:      func() time.Time { return time.Date(2026, time.March, 5, 10, 0, 0, 0, wib) },
		Location: wib,
	}

	db := testutil.NewDB(t, repository.Entities()...)
	require.NoError(t, db.Write(context.Background()).Exec("PRAGMA foreign_keys = ON").Error)
	r, _ := testutil.NewRedis(t, "test:")

	products := repository.NewProductRepository(db)
	categories := repository.NewLookupRepository(db, model.LookupPurchaseCategory)
	methods := repository.NewLookupRepository(db, model.LookupPaymentMethod)
	customers := repository.NewCustomerRepository(db)
	orders := repository.NewOrderRepository(db)
	sales := repository.NewSalesRepository(db)
	purchases := repository.NewPurchaseRepository(db)
	numbers := numbering.NewCounterAllocator(repository.NewCounterRepository(db), map[string]numbering.Seeder{
		numbering.ScopeSales.Name: sales,
		numbering.ScopeOrder.Name: orders,
	})

	dashboard := services.NewDashboardService(sales, purchases, r, time.Hour, clock)
	publisher := events.NewPublisher(r, events.PublisherConfig{Location: wib}, dashboard)
	themes := appctx.NewRedisThemeStore(r)
	verifier := appctx.NewVerifier(testSecret)

	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Use(xhttp.RecoverMiddleware)
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(appctx.Middleware(verifier, themes, "/api/v1/health"))

	g := s.Router.Group("/api/v1")
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(services.NewHealthService(map[string]services.Pinger{
		"postgres": db,
		"redis":    r,
	})))
	handlers.RegisterSessionRoutes(g, handlers.NewSessionHandler(themes))
	handlers.RegisterMasterRoutes(g, handlers.NewMasterHandler(services.NewMasterService(products, categories, methods, customers, publisher)))
	handlers.RegisterOrderRoutes(g, handlers.NewOrderHandler(services.NewOrderService(orders, customers, products, numbers, publisher, clock)))
	handlers.RegisterSalesRoutes(g, handlers.NewSalesHandler(services.NewSalesService(
		sales, products, methods, orders, services.NewRedisDraftStore(r, 0), numbers, publisher, clock,
	)))
	handlers.RegisterPurchaseRoutes(g, handlers.NewPurchaseHandler(services.NewPurchaseService(purchases, publisher)))
	handlers.RegisterReportRoutes(g, handlers.NewReportHandler(services.NewReportService(sales, purchases, clock), dashboard))

	token, err := verifier.Sign(appctx.Session{UserID: "kasir-1", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	return &api{handler: s.Handler(), token: token}
}

func (a *api) do(method, path, body string, auth bool) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	if body != "" {
		req.Header.SetContentType("application/json")
		req.SetBodyString(body)
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	// Init attaches a server, which the request context needs to act as a
	// context.Context for redis and gorm calls.
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	a.handler(ctx)
	return ctx
}

func decodeBody(t *testing.T, ctx *fasthttp.RequestCtx, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), v), string(ctx.Response.Body()))
}

func TestRoutes_HealthIsOpen(t *testing.T) {
	a := newAPI(t)

	ctx := a.do("GET", "/api/v1/health", "", false)
	assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
	assert.NotEmpty(t, ctx.Response.Header.Peek("X-Request-ID"))
}

func TestRoutes_RequireSession(t *testing.T) {
	a := newAPI(t)

	ctx := a.do("GET", "/api/v1/products", "", false)
	assert.Equal(t, xhttp.StatusUnauthorized, ctx.Response.StatusCode())

	ctx = a.do("GET", "/api/v1/products", "", true)
	assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
}

func TestRoutes_SaleReachesDashboard(t *testing.T) {
	a := newAPI(t)

	ctx := a.do("POST", "/api/v1/products", `{"name":"Nastar","price":"85000","unit":"toples"}`, true)
	require.Equal(t, xhttp.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var nastar model.Product
	decodeBody(t, ctx, &nastar)

	ctx = a.do("POST", "/api/v1/payment-methods", `{"name":"QRIS"}`, true)
	require.Equal(t, xhttp.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var qris model.Lookup
	decodeBody(t, ctx, &qris)

	// Prime the dashboard cache so the commit has something to invalidate.
	ctx = a.do("GET", "/api/v1/dashboard", "", true)
	require.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())

	ctx = a.do("POST", "/api/v1/sales/drafts",
		`{"kind":"standard","payment_method_id":"`+qris.ID.String()+`","lines":[{"product_id":"`+nastar.ID.String()+`","quantity":"2"}]}`, true)
	require.Equal(t, xhttp.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var draft model.Draft
	decodeBody(t, ctx, &draft)

	ctx = a.do("POST", "/api/v1/sales/drafts/"+draft.ID.String()+"/commit", "", true)
	assert.Equal(t, xhttp.StatusConflict, ctx.Response.StatusCode(), "commit needs a preview first")

	ctx = a.do("POST", "/api/v1/sales/drafts/"+draft.ID.String()+"/preview", "", true)
	require.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	decodeBody(t, ctx, &draft)
	assert.Equal(t, model.DraftPreview, draft.State)
	assert.Equal(t, "170000", draft.Total.String())

	ctx = a.do("POST", "/api/v1/sales/drafts/"+draft.ID.String()+"/commit", "", true)
	require.Equal(t, xhttp.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var txn model.SalesTransaction
	decodeBody(t, ctx, &txn)
	assert.Equal(t, "INV-20260305-001", txn.TransactionNo)

	ctx = a.do("GET", "/api/v1/sales/"+txn.ID.String(), "", true)
	require.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())

	ctx = a.do("DELETE", "/api/v1/products/"+nastar.ID.String(), "", true)
	assert.Equal(t, xhttp.StatusConflict, ctx.Response.StatusCode(), "a sold product cannot be deleted")
	ctx = a.do("GET", "/api/v1/sales/"+txn.ID.String(), "", true)
	var stored model.SalesTransaction
	decodeBody(t, ctx, &stored)
	require.Len(t, stored.Details, 1)
	assert.True(t, stored.Total.Equal(stored.Details[0].Subtotal))

	ctx = a.do("GET", "/api/v1/dashboard", "", true)
	require.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
	var dash struct {
		Items []model.MonthlySummary `json:"items"`
	}
	decodeBody(t, ctx, &dash)
	require.NotEmpty(t, dash.Items)
	assert.Equal(t, "2026-03", dash.Items[0].MonthKey)
	assert.Equal(t, "170000", dash.Items[0].SalesTotal.String(), "commit invalidated the cached year")

	ctx = a.do("GET", "/api/v1/sales/"+txn.ID.String()+"x", "", true)
	assert.Equal(t, xhttp.StatusBadRequest, ctx.Response.StatusCode())
}
