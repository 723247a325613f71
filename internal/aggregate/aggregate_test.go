package aggregate

import (
	"math/rand"
	"testing"
	"time"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func header(id uuid.UUID, y int, m time.Month, d int) model.SalesTransaction {
	return model.SalesTransaction{ID: id, TransactionDate: model.NewDate(y, m, d)}
}

func TestMonthlySummaries_MarchExample(t *testing.T) {
	nastar := uuid.New()
	t1, t2 := uuid.New(), uuid.New()

	headers := []model.SalesTransaction{header(t1, 2026, time.March, 5), header(t2, 2026, time.March, 28)}
	details := []model.SalesDetail{
		{SalesTransactionID: t1, ProductID: nastar, ProductName: "Nastar", Quantity: dec(2), Subtotal: dec(10000)},
		{SalesTransactionID: t2, ProductID: nastar, ProductName: "Nastar", Quantity: dec(1), Subtotal: dec(5000)},
	}
	purchases := []model.PurchaseTransaction{{TransactionDate: model.NewDate(2026, time.March, 10), Amount: dec(3000)}}

	got := MonthlySummaries(2026, headers, details, purchases)
	require.Len(t, got, 1)

	march := got[0]
	assert.Equal(t, "2026-03", march.MonthKey)
	assert.Equal(t, "Maret 2026", march.Label)
	assert.Equal(t, "15000", march.SalesTotal.String())
	assert.Equal(t, "3000", march.PurchasesTotal.String())
	require.Len(t, march.Products, 1)
	assert.Equal(t, "Nastar", march.Products[0].Name)
	assert.Equal(t, "3", march.Products[0].Units.String())
}

func TestMonthlySummaries_SkipsAndDrops(t *testing.T) {
	known := uuid.New()
	headers := []model.SalesTransaction{
		header(known, 2026, time.January, 15),
		{ID: uuid.New()},
	}
	details := []model.SalesDetail{
		{SalesTransactionID: known, ProductID: uuid.New(), Quantity: dec(1), Subtotal: dec(7000)},
		{SalesTransactionID: uuid.New(), ProductID: uuid.New(), Quantity: dec(9), Subtotal: dec(99000)},
	}
	purchases := []model.PurchaseTransaction{
		{TransactionDate: model.NewDate(2026, time.May, 2), Amount: dec(1000)},
		{Amount: dec(5)},
	}

	got := MonthlySummaries(2026, headers, details, purchases)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-01", got[0].MonthKey)
	assert.Equal(t, "7000", got[0].SalesTotal.String())
	assert.Equal(t, "-", got[0].Products[0].Name, "missing product name falls back to a dash")
	assert.Equal(t, "2026-05", got[1].MonthKey)
	assert.True(t, got[1].SalesTotal.IsZero())
	assert.Empty(t, got[1].Products)
}

func TestMonthlySummaries_ProductsRankedByUnits(t *testing.T) {
	tx := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	details := []model.SalesDetail{
		{SalesTransactionID: tx, ProductID: a, ProductName: "Kastengel", Quantity: dec(1), Subtotal: dec(1)},
		{SalesTransactionID: tx, ProductID: b, ProductName: "Nastar", Quantity: dec(5), Subtotal: dec(1)},
		{SalesTransactionID: tx, ProductID: c, ProductName: "Putri Salju", Quantity: dec(3), Subtotal: dec(1)},
		{SalesTransactionID: tx, ProductID: a, ProductName: "Kastengel", Quantity: dec(3), Subtotal: dec(1)},
	}
	got := MonthlySummaries(2026, []model.SalesTransaction{header(tx, 2026, time.June, 1)}, details, nil)
	require.Len(t, got, 1)

	names := make([]string, 0, 3)
	for _, p := range got[0].Products {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Nastar", "Kastengel", "Putri Salju"}, names)
}

func TestMonthlySummaries_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	products := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	names := []string{"Nastar", "Kastengel", "Lidah Kucing"}

	var headers []model.SalesTransaction
	var details []model.SalesDetail
	var purchases []model.PurchaseTransaction
	for i := 0; i < 40; i++ {
		id := uuid.New()
		headers = append(headers, header(id, 2026, time.Month(1+rng.Intn(12)), 1+rng.Intn(28)))
		for j := 0; j < 1+rng.Intn(3); j++ {
			p := rng.Intn(len(products))
			details = append(details, model.SalesDetail{
				SalesTransactionID: id,
				ProductID:          products[p],
				ProductName:        names[p],
				Quantity:           dec(int64(1 + rng.Intn(5))),
				Subtotal:           dec(int64(1000 * (1 + rng.Intn(50)))),
			})
		}
		purchases = append(purchases, model.PurchaseTransaction{
			TransactionDate: model.NewDate(2026, time.Month(1+rng.Intn(12)), 1),
			Amount:          dec(int64(500 * rng.Intn(10))),
		})
	}

	want := MonthlySummaries(2026, headers, details, purchases)
	for round := 0; round < 5; round++ {
		rng.Shuffle(len(headers), func(i, j int) { headers[i], headers[j] = headers[j], headers[i] })
		rng.Shuffle(len(details), func(i, j int) { details[i], details[j] = details[j], details[i] })
		rng.Shuffle(len(purchases), func(i, j int) { purchases[i], purchases[j] = purchases[j], purchases[i] })
		assert.Equal(t, summaryStrings(want), summaryStrings(MonthlySummaries(2026, headers, details, purchases)))
	}
}

func summaryStrings(in []model.MonthlySummary) []string {
	var out []string
	for _, s := range in {
		out = append(out, s.MonthKey+"|"+s.SalesTotal.String()+"|"+s.PurchasesTotal.String())
		for _, p := range s.Products {
			out = append(out, "  "+p.Name+"="+p.Units.String())
		}
	}
	return out
}

func TestCurrentMonthFirst(t *testing.T) {
	in := []model.MonthlySummary{{MonthKey: "2026-01"}, {MonthKey: "2026-02"}, {MonthKey: "2026-03"}, {MonthKey: "2026-04"}}
	got := CurrentMonthFirst(in, model.NewDate(2026, time.March, 14))

	keys := make([]string, 0, len(got))
	for _, s := range got {
		keys = append(keys, s.MonthKey)
	}
	assert.Equal(t, []string{"2026-03", "2026-01", "2026-02", "2026-04"}, keys)
	assert.Equal(t, "2026-01", in[0].MonthKey, "input left untouched")

	assert.Len(t, CurrentMonthFirst(in, model.NewDate(2027, time.March, 1)), 4)
}

func sampleOrders() []model.Order {
	nastar, kastengel := uuid.New(), uuid.New()
	return []model.Order{
		{
			OrderNumber:  "PO-20260301-001",
			CustomerName: "Bu Rina",
			Items: []model.OrderItem{
				{ProductID: nastar, ProductName: "Nastar", Quantity: dec(2), UnitPrice: dec(85000)},
				{ProductID: kastengel, ProductName: "Kastengel", Quantity: dec(1), UnitPrice: dec(90000)},
			},
		},
		{
			OrderNumber:  "PO-20260302-001",
			CustomerName: "Pak Joko",
			Items: []model.OrderItem{
				{ProductID: nastar, ProductName: "Nastar", Quantity: dec(5), UnitPrice: dec(85000)},
			},
		},
		{
			OrderNumber:  "PO-20260303-001",
			CustomerName: "Bu Rina",
			Items: []model.OrderItem{
				{ProductID: nastar, ProductName: "Nastar", Quantity: dec(1), UnitPrice: dec(85000)},
			},
		},
		{
			OrderNumber: "PO-20260304-001",
			Items: []model.OrderItem{
				{ProductID: kastengel, ProductName: "Kastengel", Quantity: dec(4), UnitPrice: dec(90000)},
			},
		},
	}
}

func TestOrderRollups(t *testing.T) {
	orders := sampleOrders()

	t.Run("nominal", func(t *testing.T) {
		assert.Equal(t, "260000", OrderNominal(orders[0]).String())
		assert.Equal(t, "3", TotalQuantity(orders[0]).String())
		assert.Equal(t, "Nastar ×2, Kastengel ×1", ItemsLabel(orders[0]))
		assert.Equal(t, "1130000", GrandTotal(orders).String())

		v := ViewOrder(orders[0])
		assert.Equal(t, "260000", v.Nominal.String())
	})

	t.Run("product totals", func(t *testing.T) {
		got := ProductTotals(orders)
		require.Len(t, got, 2)
		assert.Equal(t, "Nastar", got[0].Name)
		assert.Equal(t, "8", got[0].Quantity.String())
		assert.Equal(t, "Kastengel", got[1].Name)
		assert.Equal(t, "5", got[1].Quantity.String())
	})

	t.Run("customers for product", func(t *testing.T) {
		got := ProductCustomers(orders, "Nastar")
		require.Len(t, got, 2)
		assert.Equal(t, "Pak Joko", got[0].CustomerName)
		assert.Equal(t, "5", got[0].Quantity.String())
		assert.Equal(t, "Bu Rina", got[1].CustomerName)
		assert.Equal(t, "3", got[1].Quantity.String())
		assert.Equal(t, []string{"PO-20260301-001", "PO-20260303-001"}, got[1].OrderNumbers)

		kastengel := ProductCustomers(orders, "Kastengel")
		require.Len(t, kastengel, 2)
		assert.Equal(t, "-", kastengel[0].CustomerName)
	})

	t.Run("order independent", func(t *testing.T) {
		reversed := make([]model.Order, len(orders))
		for i := range orders {
			reversed[len(orders)-1-i] = orders[i]
		}
		assert.Equal(t, fmtQuantities(ProductTotals(orders)), fmtQuantities(ProductTotals(reversed)))
		assert.Equal(t, ProductCustomers(orders, "Nastar")[1].OrderNumbers, ProductCustomers(reversed, "Nastar")[1].OrderNumbers)
	})
}

func fmtQuantities(in []model.ProductQuantity) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		out = append(out, p.Name+"="+p.Quantity.String())
	}
	return out
}

func TestMergeOrderItems(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	t.Run("duplicates are merged", func(t *testing.T) {
		got := MergeOrderItems([]model.OrderItem{
			{ProductID: a, ProductName: "A", Unit: "toples", Quantity: dec(2), UnitPrice: dec(1000)},
			{ProductID: b, ProductName: "B", Unit: "pcs", Quantity: dec(1), UnitPrice: dec(500)},
			{ProductID: a, ProductName: "A", Unit: "toples", Quantity: dec(3), UnitPrice: dec(1200)},
		})
		require.Len(t, got, 2)
		assert.Equal(t, a, got[0].ProductID)
		assert.Equal(t, "5", got[0].Quantity.String())
		assert.Equal(t, "1000", got[0].UnitPrice.String(), "first occurrence keeps its price")
		assert.Equal(t, "5000", got[0].Subtotal.String())
		assert.Equal(t, b, got[1].ProductID)
		assert.Equal(t, "1", got[1].Quantity.String())
		assert.Equal(t, "5500", LinesTotal(got).String())
	})

	t.Run("all zero quantities", func(t *testing.T) {
		got := MergeOrderItems([]model.OrderItem{
			{ProductID: a, Quantity: dec(0)},
			{ProductID: b, Quantity: dec(0)},
		})
		assert.Empty(t, got)
	})
}

func TestPeriodReport(t *testing.T) {
	rows := []model.ReportRow{
		{Date: model.NewDate(2026, time.March, 28), Description: "INV-20260328-001", Amount: dec(5000)},
		{Date: model.NewDate(2026, time.March, 5), Description: "INV-20260305-002", Amount: dec(2000)},
		{Date: model.NewDate(2026, time.March, 5), Description: "INV-20260305-001", Amount: dec(10000)},
	}
	from, to := model.NewDate(2026, time.March, 1), model.NewDate(2026, time.March, 31)
	r := PeriodReport(model.ReportSales, from, to, rows)

	assert.Equal(t, "17000", r.Total.String())
	require.Len(t, r.Rows, 3)
	assert.Equal(t, "INV-20260305-001", r.Rows[0].Description)
	assert.Equal(t, "INV-20260305-002", r.Rows[1].Description)
	assert.Equal(t, "INV-20260328-001", r.Rows[2].Description)
	assert.Equal(t, "INV-20260328-001", rows[0].Description, "input left untouched")

	empty := PeriodReport(model.ReportExpenses, from, to, nil)
	assert.True(t, empty.Total.IsZero())
	assert.Empty(t, empty.Rows)
}

func TestReportRows(t *testing.T) {
	sales := SalesRows([]model.SalesTransaction{{TransactionNo: "INV-1", TransactionDate: model.NewDate(2026, 1, 2), Total: dec(9)}})
	assert.Equal(t, model.ReportRow{Date: model.NewDate(2026, 1, 2), Description: "INV-1", Amount: dec(9)}, sales[0])

	purchases := PurchaseRows([]model.PurchaseTransaction{{Description: "Tepung", TransactionDate: model.NewDate(2026, 1, 3), Amount: dec(4)}})
	assert.Equal(t, "Tepung", purchases[0].Description)
}

func TestDefaultRange(t *testing.T) {
	from, to := DefaultRange(model.NewDate(2026, time.January, 20))
	assert.Equal(t, "2025-12-01", from.String())
	assert.Equal(t, "2026-01-31", to.String())
}

func TestMergeLedger(t *testing.T) {
	base := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	sales := []model.SalesTransaction{
		{ID: uuid.New(), TransactionNo: "INV-A", TransactionDate: model.NewDate(2026, 3, 5), Total: dec(100), CreatedAt: base},
		{ID: uuid.New(), TransactionNo: "INV-B", TransactionDate: model.NewDate(2026, 3, 6), Total: dec(200), CreatedAt: base},
	}
	purchases := []model.PurchaseTransaction{
		{ID: uuid.New(), Description: "Gula", TransactionDate: model.NewDate(2026, 3, 5), Amount: dec(50), CreatedAt: base.Add(time.Hour)},
	}

	got := MergeLedger(sales, purchases)
	require.Len(t, got, 3)
	assert.Equal(t, "INV-B", got[0].Description)
	assert.Equal(t, "Gula", got[1].Description)
	assert.Equal(t, model.LedgerPurchase, got[1].Kind)
	assert.Equal(t, "INV-A", got[2].Description)
}
