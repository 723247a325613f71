package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var idPrinter = message.NewPrinter(language.Indonesian)

// MonthName returns the id-ID month name.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// MonthLabel renders e.g. "Maret 2026".
func MonthLabel(year int, m time.Month) string {
	return fmt.Sprintf("%s %d", MonthName(m), year)
}

// LongDate renders e.g. "05 Maret 2026".
func LongDate(d Date) string {
	if d.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%02d %s %d", d.Day(), MonthName(d.Month()), d.Year())
}

// FormatRupiah renders an amount with id-ID thousands grouping, e.g.
// "Rp 15.000". Fractions are rounded away since IDR has no minor unit in use.
func FormatRupiah(v decimal.Decimal) string {
	return "Rp " + FormatNumber(v)
}

func FormatNumber(v decimal.Decimal) string {
	return idPrinter.Sprintf("%d", v.Round(0).IntPart())
}
