package aggregate

import (
	"sort"

	"github.com/dapurasri/backoffice/internal/model"
)

// MergeLedger lists sales and purchases together, newest transaction date
// first and, within a date, newest entry first.
func MergeLedger(sales []model.SalesTransaction, purchases []model.PurchaseTransaction) []model.LedgerEntry {
	out := make([]model.LedgerEntry, 0, len(sales)+len(purchases))
	for _, s := range sales {
		out = append(out, model.LedgerEntry{
			Kind:            model.LedgerSales,
			ID:              s.ID,
			TransactionDate: s.TransactionDate,
			Description:     s.TransactionNo,
			Amount:          s.Total,
			CreatedAt:       s.CreatedAt,
		})
	}
	for _, p := range purchases {
		out = append(out, model.LedgerEntry{
			Kind:            model.LedgerPurchase,
			ID:              p.ID,
			TransactionDate: p.TransactionDate,
			Description:     p.Description,
			Amount:          p.Amount,
			CreatedAt:       p.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.TransactionDate.Equal(b.TransactionDate.Time) {
			return a.TransactionDate.After(b.TransactionDate.Time)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return out
}
