package services

import (
	"context"
	"fmt"

	"github.com/dapurasri/backoffice/internal/aggregate"
	"github.com/dapurasri/backoffice/internal/export"
	"github.com/dapurasri/backoffice/internal/model"
)

type ReportService struct {
	sales     SalesReader
	purchases PurchaseReader
	clock     Clock
}

func NewReportService(sales SalesReader, purchases PurchaseReader, clock Clock) *ReportService {
	return &ReportService{sales: sales, purchases: purchases, clock: clock.normalized()}
}

// withDefaults fills a missing bound from the default range: the first day
// of last month through the last day of this month.
func (s *ReportService) withDefaults(f model.ReportFilter) model.ReportFilter {
	from, to := aggregate.DefaultRange(s.clock.Today())
	if f.From.IsZero() {
		f.From = from
	}
	if f.To.IsZero() {
		f.To = to
	}
	return f
}

func (s *ReportService) Sales(ctx context.Context, f model.ReportFilter) (*model.Report, error) {
	f = s.withDefaults(f)
	if err := f.Validate(); err != nil {
		return nil, err
	}

	filter := model.SalesFilter{From: &f.From, To: &f.To, PaymentMethodID: f.PaymentMethodID}
	if f.ProductID != nil {
		ids, err := s.sales.TransactionIDsWithProduct(ctx, *f.ProductID)
		if err != nil {
			return nil, fmt.Errorf("find transactions with product: %w", err)
		}
		if len(ids) == 0 {
			r := aggregate.PeriodReport(model.ReportSales, f.From, f.To, nil)
			return &r, nil
		}
		filter.IDs = ids
	}

	headers, err := s.sales.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	r := aggregate.PeriodReport(model.ReportSales, f.From, f.To, aggregate.SalesRows(headers))
	return &r, nil
}

// Expenses reports purchases. The product filter does not apply.
func (s *ReportService) Expenses(ctx context.Context, f model.ReportFilter) (*model.Report, error) {
	f = s.withDefaults(f)
	if err := f.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.purchases.FindAll(ctx, model.PurchaseFilter{From: &f.From, To: &f.To, PaymentMethodID: f.PaymentMethodID})
	if err != nil {
		return nil, fmt.Errorf("load purchases: %w", err)
	}
	r := aggregate.PeriodReport(model.ReportExpenses, f.From, f.To, aggregate.PurchaseRows(rows))
	return &r, nil
}

// Export builds the report of kind and renders it as a workbook. It returns
// the file content and its download name.
func (s *ReportService) Export(ctx context.Context, kind model.ReportKind, f model.ReportFilter) ([]byte, string, error) {
	var (
		r   *model.Report
		err error
	)
	switch kind {
	case model.ReportSales:
		r, err = s.Sales(ctx, f)
	case model.ReportExpenses:
		r, err = s.Expenses(ctx, f)
	default:
		return nil, "", model.Invalid("kind", "Jenis laporan tidak dikenal")
	}
	if err != nil {
		return nil, "", err
	}

	raw, err := export.Write(*r)
	if err != nil {
		return nil, "", err
	}
	return raw, export.FileName(r.Kind, r.From, r.To), nil
}

// Ledger merges sales and purchases into one list, newest first. Nil bounds
// are open.
func (s *ReportService) Ledger(ctx context.Context, from, to *model.Date) ([]model.LedgerEntry, error) {
	sales, err := s.sales.FindAll(ctx, model.SalesFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	purchases, err := s.purchases.FindAll(ctx, model.PurchaseFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("load purchases: %w", err)
	}
	return aggregate.MergeLedger(sales, purchases), nil
}
