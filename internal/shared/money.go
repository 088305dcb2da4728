package shared

import (
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MoneyTolerance is the rounding-unit tolerance applied when comparing amounts.
const MoneyTolerance = 0.01

// Wire and display date layouts. Dates travel as ISO and render Brazilian style.
const (
	WireDate    = "2006-01-02"
	DisplayDate = "02/01/2006"
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// Round2 rounds a monetary amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AmountsEqual compares two amounts within MoneyTolerance.
func AmountsEqual(a, b float64) bool {
	return math.Abs(a-b) <= MoneyTolerance
}

// FormatBRL renders an amount as Brazilian currency for display fields.
func FormatBRL(v float64) string {
	return brPrinter.Sprintf("R$ %.2f", v)
}

// FormatDate renders a date in DD/MM/YYYY display form.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayDate)
}
