package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderNominal is the value of an order. Orders store no total, so this is
// recomputed from the items every time.
func OrderNominal(o model.Order) decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(model.LineSubtotal(it.Quantity, it.UnitPrice))
	}
	return total
}

func TotalQuantity(o model.Order) decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Quantity)
	}
	return total
}

func GrandTotal(orders []model.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(OrderNominal(o))
	}
	return total
}

// ItemsLabel renders "Nastar ×2, Kastengel ×1" in item order.
func ItemsLabel(o model.Order) string {
	parts := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		name := it.ProductName
		if name == "" {
			name = unknownName
		}
		parts = append(parts, fmt.Sprintf("%s ×%s", name, it.Quantity.String()))
	}
	return strings.Join(parts, ", ")
}

func ViewOrder(o model.Order) model.OrderView {
	return model.OrderView{
		Order:         o,
		StatusLabel:   o.Status.Label(),
		Nominal:       OrderNominal(o),
		TotalQuantity: TotalQuantity(o),
		ItemsLabel:    ItemsLabel(o),
	}
}

// ProductTotals sums ordered quantity per product name, largest first.
func ProductTotals(orders []model.Order) []model.ProductQuantity {
	sums := make(map[string]decimal.Decimal)
	for _, o := range orders {
		for _, it := range o.Items {
			if it.ProductName == "" {
				continue
			}
			sums[it.ProductName] = sums[it.ProductName].Add(it.Quantity)
		}
	}
	out := make([]model.ProductQuantity, 0, len(sums))
	for name, qty := range sums {
		out = append(out, model.ProductQuantity{Name: name, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Quantity.Cmp(out[j].Quantity); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ProductCustomers lists, for one product name, how much each customer
// ordered and in which orders. Order numbers are sorted so the result does
// not depend on input order.
func ProductCustomers(orders []model.Order, productName string) []model.CustomerQuantity {
	type acc struct {
		qty    decimal.Decimal
		orders map[string]struct{}
	}
	byCustomer := make(map[string]*acc)
	for _, o := range orders {
		customer := o.CustomerName
		if customer == "" {
			customer = unknownName
		}
		for _, it := range o.Items {
			if it.ProductName != productName {
				continue
			}
			a, ok := byCustomer[customer]
			if !ok {
				a = &acc{orders: make(map[string]struct{})}
				byCustomer[customer] = a
			}
			a.qty = a.qty.Add(it.Quantity)
			if o.OrderNumber != "" {
				a.orders[o.OrderNumber] = struct{}{}
			}
		}
	}

	out := make([]model.CustomerQuantity, 0, len(byCustomer))
	for name, a := range byCustomer {
		numbers := make([]string, 0, len(a.orders))
		for n := range a.orders {
			numbers = append(numbers, n)
		}
		sort.Strings(numbers)
		out = append(out, model.CustomerQuantity{CustomerName: name, Quantity: a.qty, OrderNumbers: numbers})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Quantity.Cmp(out[j].Quantity); c != 0 {
			return c > 0
		}
		return out[i].CustomerName < out[j].CustomerName
	})
	return out
}

// MergeOrderItems turns order items into sales draft lines: duplicate
// products are merged by summing their quantity, the first occurrence wins
// for name, unit and price, and lines that end up with no quantity are
// dropped. Lines keep the order in which their product first appeared.
func MergeOrderItems(items []model.OrderItem) []model.DraftLine {
	index := make(map[uuid.UUID]int)
	var merged []model.DraftLine
	for _, it := range items {
		if it.ProductID == uuid.Nil {
			continue
		}
		if i, ok := index[it.ProductID]; ok {
			merged[i].Quantity = merged[i].Quantity.Add(it.Quantity)
			continue
		}
		index[it.ProductID] = len(merged)
		merged = append(merged, model.DraftLine{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			Unit:         it.Unit,
			Quantity:     it.Quantity,
			CatalogPrice: it.UnitPrice,
			UnitPrice:    it.UnitPrice,
		})
	}

	out := make([]model.DraftLine, 0, len(merged))
	for _, l := range merged {
		if !l.Quantity.IsPositive() {
			continue
		}
		l.Subtotal = model.LineSubtotal(l.Quantity, l.UnitPrice)
		out = append(out, l)
	}
	return out
}

// LinesTotal sums the subtotal of the valid lines.
func LinesTotal(lines []model.DraftLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.Valid() {
			total = total.Add(model.LineSubtotal(l.Quantity, l.UnitPrice))
		}
	}
	return total
}
