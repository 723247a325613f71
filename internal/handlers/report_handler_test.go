package handlers

import (
	"context"
	"testing"

	"github.com/dapurasri/backoffice/internal/export"
	"github.com/dapurasri/backoffice/internal/model"
	xhttp "github.com/dapurasri/backoffice/pkg/http"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) report(args mock.Arguments) (*model.Report, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportService) Sales(ctx context.Context, f model.ReportFilter) (*model.Report, error) {
	return m.report(m.Called(ctx, f))
}

func (m *MockReportService) Expenses(ctx context.Context, f model.ReportFilter) (*model.Report, error) {
	return m.report(m.Called(ctx, f))
}

func (m *MockReportService) Export(ctx context.Context, kind model.ReportKind, f model.ReportFilter) ([]byte, string, error) {
	args := m.Called(ctx, kind, f)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockReportService) Ledger(ctx context.Context, from, to *model.Date) ([]model.LedgerEntry, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]model.LedgerEntry), args.Error(1)
}

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Summaries(ctx context.Context, year int) ([]model.MonthlySummary, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MonthlySummary), args.Error(1)
}

func TestReportHandler_Dashboard(t *testing.T) {
	dash := new(MockDashboardService)
	dash.On("Summaries", mock.Anything, 0).Return([]model.MonthlySummary{{MonthKey: "2026-03", Label: "Maret 2026"}}, nil)
	dash.On("Summaries", mock.Anything, 2025).Return([]model.MonthlySummary{{MonthKey: "2025-12", Label: "Desember 2025"}}, nil)
	h := NewReportHandler(new(MockReportService), dash)

	ctx := setupTestContext("GET", "/api/v1/dashboard", nil)
	h.Dashboard(ctx)
	assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "Maret 2026")

	ctx = setupTestContext("GET", "/api/v1/dashboard?year=2025", nil)
	h.Dashboard(ctx)
	assert.Contains(t, string(ctx.Response.Body()), "Desember 2025")

	ctx = setupTestContext("GET", "/api/v1/dashboard?year=tahun", nil)
	h.Dashboard(ctx)
	assert.Equal(t, xhttp.StatusBadRequest, ctx.Response.StatusCode())
	dash.AssertExpectations(t)
}

func TestReportHandler_SalesReport(t *testing.T) {
	product := uuid.New()
	reports := new(MockReportService)
	reports.On("Sales", mock.Anything, mock.MatchedBy(func(f model.ReportFilter) bool {
		return f.From == model.NewDate(2026, 2, 1) && f.To.IsZero() &&
			f.ProductID != nil && *f.ProductID == product && f.PaymentMethodID == nil
	})).Return(&model.Report{Kind: model.ReportSales, Total: decimal.NewFromInt(435000)}, nil)

	ctx := setupTestContext("GET", "/api/v1/reports/sales?from=2026-02-01&product_id="+product.String(), nil)
	NewReportHandler(reports, nil).SalesReport(ctx)
	assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"total":"435000"`)
	reports.AssertExpectations(t)

	t.Run("bad product id", func(t *testing.T) {
		ctx := setupTestContext("GET", "/api/v1/reports/sales?product_id=nastar", nil)
		NewReportHandler(new(MockReportService), nil).SalesReport(ctx)
		assert.Equal(t, xhttp.StatusBadRequest, ctx.Response.StatusCode())
	})
}

func TestReportHandler_Export(t *testing.T) {
	t.Run("xlsx attachment", func(t *testing.T) {
		reports := new(MockReportService)
		reports.On("Export", mock.Anything, model.ReportExpenses, mock.Anything).
			Return([]byte("PK"), "laporan-pengeluaran-2026-02-01-2026-03-05.xlsx", nil)

		ctx := setupTestContext("GET", "/api/v1/reports/expenses/export", nil)
		NewReportHandler(reports, nil).Export(model.ReportExpenses)(ctx)

		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
		assert.Equal(t, export.ContentType, string(ctx.Response.Header.ContentType()))
		assert.Equal(t, `attachment; filename="laporan-pengeluaran-2026-02-01-2026-03-05.xlsx"`, string(ctx.Response.Header.Peek("Content-Disposition")))
		assert.Equal(t, []byte("PK"), ctx.Response.Body())
	})

	t.Run("nothing to export", func(t *testing.T) {
		reports := new(MockReportService)
		reports.On("Export", mock.Anything, model.ReportSales, mock.Anything).
			Return(nil, "", model.Invalid("rows", "Tidak ada data untuk diexport"))

		ctx := setupTestContext("GET", "/api/v1/reports/sales/export", nil)
		NewReportHandler(reports, nil).Export(model.ReportSales)(ctx)
		assert.Equal(t, xhttp.StatusBadRequest, ctx.Response.StatusCode())
		assert.Equal(t, "Tidak ada data untuk diexport", decodeError(t, ctx).Error)
	})
}

func TestReportHandler_Ledger(t *testing.T) {
	reports := new(MockReportService)
	to := model.NewDate(2026, 3, 5)
	reports.On("Ledger", mock.Anything, (*model.Date)(nil), &to).
		Return([]model.LedgerEntry{{Kind: model.LedgerSales, Amount: decimal.NewFromInt(170000)}}, nil)

	ctx := setupTestContext("GET", "/api/v1/transactions?to=2026-03-05", nil)
	NewReportHandler(reports, nil).Ledger(ctx)
	assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"kind":"sales"`)
	reports.AssertExpectations(t)
}
