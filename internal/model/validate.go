package model

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ValidationError is returned before any write when user input is
// incomplete. Message is shown to the user as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func (p ProductInput) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return Invalid("name", "Nama produk wajib diisi")
	}
	if p.Price.IsNegative() {
		return Invalid("price", "Harga tidak boleh negatif")
	}
	if !FitsScale(p.Price, MoneyScale) {
		return Invalid("price", "Harga maksimal 2 angka desimal")
	}
	return nil
}

func (p LookupInput) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return Invalid("name", "Nama wajib diisi")
	}
	return nil
}

// ValidItems drops lines without a product or with a non positive quantity.
func (p OrderInput) ValidItems() []OrderItemInput {
	out := make([]OrderItemInput, 0, len(p.Items))
	for _, it := range p.Items {
		if it.ProductID != uuid.Nil && it.Quantity.IsPositive() {
			out = append(out, it)
		}
	}
	return out
}

func (p OrderInput) Validate() error {
	if strings.TrimSpace(p.CustomerName) == "" {
		return Invalid("customer_name", "Nama pelanggan wajib diisi")
	}
	if p.TargetDate.IsZero() {
		return Invalid("target_date", "Tanggal target wajib diisi")
	}
	items := p.ValidItems()
	if len(items) == 0 {
		return Invalid("items", "Tambahkan minimal satu produk")
	}
	for _, it := range items {
		if err := checkQuantity("items", it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (l PurchaseLineInput) Valid() bool {
	return l.CategoryID != uuid.Nil && strings.TrimSpace(l.Description) != "" && !l.Amount.IsNegative()
}

func (p PurchaseInput) ValidLines() []PurchaseLineInput {
	out := make([]PurchaseLineInput, 0, len(p.Lines))
	for _, l := range p.Lines {
		if l.Valid() {
			l.Description = strings.TrimSpace(l.Description)
			out = append(out, l)
		}
	}
	return out
}

func (p PurchaseInput) Validate() error {
	if p.TransactionDate.IsZero() {
		return Invalid("transaction_date", "Tanggal wajib diisi")
	}
	lines := p.ValidLines()
	if len(lines) == 0 {
		return Invalid("lines", "Lengkapi kategori, keterangan dan nominal")
	}
	for _, l := range lines {
		if err := checkMoney("lines", l.Amount); err != nil {
			return err
		}
	}
	return nil
}

func (f ReportFilter) Validate() error {
	if f.From.IsZero() || f.To.IsZero() {
		return Invalid("range", "Rentang tanggal wajib diisi")
	}
	if f.To.Before(f.From.Time) {
		return Invalid("range", "Tanggal akhir sebelum tanggal awal")
	}
	return nil
}
