package handlers

import (
	"context"
	"strconv"

	"github.com/dapurasri/backoffice/internal/export"
	"github.com/dapurasri/backoffice/internal/model"
	"github.com/fasthttp/router"
	xhttp "github.com/dapurasri/backoffice/pkg/http"
)

type ReportService interface {
	Sales(ctx context.Context, f model.ReportFilter) (*model.Report, error)
	Expenses(ctx context.Context, f model.ReportFilter) (*model.Report, error)
	Export(ctx context.Context, kind model.ReportKind, f model.ReportFilter) ([]byte, string, error)
	Ledger(ctx context.Context, from, to *model.Date) ([]model.LedgerEntry, error)
}

type DashboardService interface {
	Summaries(ctx context.Context, year int) ([]model.MonthlySummary, error)
}

type ReportHandler struct {
	reports   ReportService
	dashboard DashboardService
}

func RegisterReportRoutes(e *router.Group, h *ReportHandler) {
	e.GET("/dashboard", h.Dashboard)
	e.GET("/transactions", h.Ledger)
	e.GET("/reports/sales", h.SalesReport)
	e.GET("/reports/expenses", h.ExpensesReport)
	e.GET("/reports/sales/export", h.Export(model.ReportSales))
	e.GET("/reports/expenses/export", h.Export(model.ReportExpenses))
}

func NewReportHandler(reports ReportService, dashboard DashboardService) *ReportHandler {
	return &ReportHandler{reports: reports, dashboard: dashboard}
}

func (h *ReportHandler) Dashboard(ctx *xhttp.RequestCtx) {
	year := 0
	if v := query(ctx, "year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(ctx, xhttp.StatusBadRequest, errorResponse{Error: "Tahun tidak valid", Field: "year"})
			return
		}
		year = n
	}
	items, err := h.dashboard.Summaries(ctx, year)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[model.MonthlySummary]{Items: items, Total: int64(len(items))})
}

func (h *ReportHandler) Ledger(ctx *xhttp.RequestCtx) {
	from, ok := queryDate(ctx, "from")
	if !ok {
		return
	}
	to, ok := queryDate(ctx, "to")
	if !ok {
		return
	}
	items, err := h.reports.Ledger(ctx, from, to)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[model.LedgerEntry]{Items: items, Total: int64(len(items))})
}

// reportFilter reads from, to, product_id and payment_method_id. Missing
// dates stay zero and the service fills in the default range.
func reportFilter(ctx *xhttp.RequestCtx) (model.ReportFilter, bool) {
	var f model.ReportFilter
	from, ok := queryDate(ctx, "from")
	if !ok {
		return f, false
	}
	to, ok := queryDate(ctx, "to")
	if !ok {
		return f, false
	}
	if from != nil {
		f.From = *from
	}
	if to != nil {
		f.To = *to
	}
	if f.ProductID, ok = queryUUID(ctx, "product_id"); !ok {
		return f, false
	}
	if f.PaymentMethodID, ok = queryUUID(ctx, "payment_method_id"); !ok {
		return f, false
	}
	return f, true
}

func (h *ReportHandler) SalesReport(ctx *xhttp.RequestCtx) {
	f, ok := reportFilter(ctx)
	if !ok {
		return
	}
	r, err := h.reports.Sales(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, r)
}

func (h *ReportHandler) ExpensesReport(ctx *xhttp.RequestCtx) {
	f, ok := reportFilter(ctx)
	if !ok {
		return
	}
	r, err := h.reports.Expenses(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, r)
}

func (h *ReportHandler) Export(kind model.ReportKind) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		f, ok := reportFilter(ctx)
		if !ok {
			return
		}
		b, name, err := h.reports.Export(ctx, kind, f)
		if err != nil {
			writeServiceError(ctx, err)
			return
		}
		ctx.Response.Header.Set("Content-Type", export.ContentType)
		ctx.Response.Header.Set("Content-Disposition", `attachment; filename="`+name+`"`)
		ctx.Response.SetStatusCode(xhttp.StatusOK)
		ctx.Response.SetBodyRaw(b)
	}
}
