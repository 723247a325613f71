package aggregate

import (
	"sort"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/shopspring/decimal"
)

func SalesRows(headers []model.SalesTransaction) []model.ReportRow {
	rows := make([]model.ReportRow, 0, len(headers))
	for _, h := range headers {
		rows = append(rows, model.ReportRow{Date: h.TransactionDate, Description: h.TransactionNo, Amount: h.Total})
	}
	return rows
}

func PurchaseRows(purchases []model.PurchaseTransaction) []model.ReportRow {
	rows := make([]model.ReportRow, 0, len(purchases))
	for _, p := range purchases {
		rows = append(rows, model.ReportRow{Date: p.TransactionDate, Description: p.Description, Amount: p.Amount})
	}
	return rows
}

// PeriodReport totals rows and sorts them by date. Rows on the same date are
// ordered by description, then amount.
func PeriodReport(kind model.ReportKind, from, to model.Date, rows []model.ReportRow) model.Report {
	sorted := make([]model.ReportRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		if a.Description != b.Description {
			return a.Description < b.Description
		}
		return a.Amount.LessThan(b.Amount)
	})

	total := decimal.Zero
	for _, r := range sorted {
		total = total.Add(r.Amount)
	}
	return model.Report{Kind: kind, From: from, To: to, Total: total, Rows: sorted}
}

// DefaultRange is the first day of last month through the last day of this
// month.
func DefaultRange(today model.Date) (model.Date, model.Date) {
	return today.FirstOfMonth().AddMonths(-1), today.LastOfMonth()
}
