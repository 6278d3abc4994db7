// Package export renders transacciones and personas as PDF receipts and XLSX workbooks.
package export

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// NotAvailable fills empty optional fields in receipts
const NotAvailable = "N/A"

// FormatCOP renders an amount as Colombian pesos without decimals, e.g. "$ 1.234.567"
func FormatCOP(amount decimal.Decimal) string {
	v := amount.Round(0)
	sign := ""
	if v.IsNegative() {
		sign, v = "-", v.Neg()
	}
	return sign + "$ " + humanize.FormatFloat("#.###,", v.InexactFloat64())
}

// FormatFecha renders a stored date (YYYY-MM-DD, optionally with a time part) as dd/mm/yyyy,
// adding hh:mm when a time is present. Unparsable values are returned as is.
func FormatFecha(fecha string) string {
	fecha = strings.TrimSpace(fecha)
	layouts := []struct {
		parse, render string
	}{
		{"2006-01-02", "02/01/2006"},
		{"2006-01-02T15:04:05", "02/01/2006 15:04"},
		{"2006-01-02T15:04", "02/01/2006 15:04"},
		{time.RFC3339, "02/01/2006 15:04"},
	}
	for _, l := range layouts {
		if t, err := time.Parse(l.parse, fecha); err == nil {
			return t.Format(l.render)
		}
	}
	return fecha
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}
