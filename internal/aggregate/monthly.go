// Package aggregate folds already fetched rows into the shapes the dashboard,
// order screen and reports display. Everything here is pure: no I/O, and the
// output does not depend on the order of the input rows.
package aggregate

import (
	"sort"
	"time"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const unknownName = "-"

type productBucket struct {
	id    uuid.UUID
	name  string
	units decimal.Decimal
}

// MonthlySummaries buckets one calendar year of sales and purchases by month.
// Detail lines whose header is not among headers are skipped, as are rows
// without a date. Months with neither sales nor purchases are dropped; the
// rest come back in calendar order.
func MonthlySummaries(year int, headers []model.SalesTransaction, details []model.SalesDetail, purchases []model.PurchaseTransaction) []model.MonthlySummary {
	monthOf := make(map[uuid.UUID]string, len(headers))
	for _, h := range headers {
		if h.ID == uuid.Nil || h.TransactionDate.IsZero() {
			continue
		}
		monthOf[h.ID] = h.TransactionDate.MonthKey()
	}

	salesByMonth := make(map[string]decimal.Decimal)
	productsByMonth := make(map[string]map[uuid.UUID]*productBucket)
	for _, d := range details {
		key, ok := monthOf[d.SalesTransactionID]
		if !ok {
			continue
		}
		salesByMonth[key] = salesByMonth[key].Add(d.Subtotal)

		if d.ProductID == uuid.Nil {
			continue
		}
		products, ok := productsByMonth[key]
		if !ok {
			products = make(map[uuid.UUID]*productBucket)
			productsByMonth[key] = products
		}
		b, ok := products[d.ProductID]
		if !ok {
			b = &productBucket{id: d.ProductID, name: d.ProductName}
			products[d.ProductID] = b
		}
		if b.name == "" {
			b.name = d.ProductName
		}
		b.units = b.units.Add(d.Quantity)
	}

	purchasesByMonth := make(map[string]decimal.Decimal)
	for _, p := range purchases {
		if p.TransactionDate.IsZero() {
			continue
		}
		key := p.TransactionDate.MonthKey()
		purchasesByMonth[key] = purchasesByMonth[key].Add(p.Amount)
	}

	out := make([]model.MonthlySummary, 0, 12)
	for m := time.January; m <= time.December; m++ {
		key := model.NewDate(year, m, 1).MonthKey()
		sales := salesByMonth[key]
		bought := purchasesByMonth[key]
		if sales.IsZero() && bought.IsZero() {
			continue
		}
		out = append(out, model.MonthlySummary{
			MonthKey:       key,
			Label:          model.MonthLabel(year, m),
			SalesTotal:     sales,
			PurchasesTotal: bought,
			Products:       rankProducts(productsByMonth[key]),
		})
	}
	return out
}

func rankProducts(buckets map[uuid.UUID]*productBucket) []model.ProductUnits {
	out := make([]model.ProductUnits, 0, len(buckets))
	for _, b := range buckets {
		id := b.id
		name := b.name
		if name == "" {
			name = unknownName
		}
		out = append(out, model.ProductUnits{ProductID: &id, Name: name, Units: b.units})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Units.Cmp(out[j].Units); c != 0 {
			return c > 0
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out
}

// CurrentMonthFirst moves the summary of today's month to the front and keeps
// the relative order of the others. The input is not modified.
func CurrentMonthFirst(summaries []model.MonthlySummary, today model.Date) []model.MonthlySummary {
	key := today.MonthKey()
	out := make([]model.MonthlySummary, 0, len(summaries))
	for _, s := range summaries {
		if s.MonthKey == key {
			out = append(out, s)
		}
	}
	for _, s := range summaries {
		if s.MonthKey != key {
			out = append(out, s)
		}
	}
	return out
}
