// Package numbering builds the human readable document numbers: orders are
// PO-YYYYMMDD-NNN and sales transactions INV-YYYYMMDD-NNN, with NNN counting
// per calendar day and per scope.
package numbering

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dapurasri/backoffice/internal/model"
)

// Scope is an independent sequence.
type Scope struct {
	Name string
	Code string
}

var (
	ScopeOrder = Scope{Name: "order", Code: "PO"}
	ScopeSales = Scope{Name: "sales", Code: "INV"}
)

const minDigits = 3

// Prefix is the day scoped part shared by every number of that day,
// e.g. PO-20260305.
func (s Scope) Prefix(day model.Date) string {
	return s.Code + "-" + day.Compact()
}

// Format renders the n-th number of the prefix. Sequences wider than three
// digits are not truncated.
func Format(prefix string, n int64) string {
	return fmt.Sprintf("%s-%0*d", prefix, minDigits, n)
}

// Parse returns the trailing sequence of a number. Numbers without a numeric
// suffix parse as 0.
func Parse(number string) int64 {
	i := strings.LastIndex(number, "-")
	if i < 0 || i == len(number)-1 {
		return 0
	}
	n, err := strconv.ParseInt(number[i+1:], 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Next returns the number that follows latest within prefix. An empty latest,
// or one that belongs to another prefix, starts the sequence at 1.
func Next(latest, prefix string) string {
	if latest == "" || !strings.HasPrefix(latest, prefix+"-") {
		return Format(prefix, 1)
	}
	return Format(prefix, Parse(latest)+1)
}

// Matches reports whether number has the shape <code>-YYYYMMDD-NNN for scope.
func (s Scope) Matches(number string) bool {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != s.Code || len(parts[1]) != 8 || len(parts[2]) < minDigits {
		return false
	}
	for _, part := range parts[1:] {
		if _, err := strconv.ParseUint(part, 10, 64); err != nil {
			return false
		}
	}
	return true
}
