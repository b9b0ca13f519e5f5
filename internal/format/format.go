// Package format renders amounts the way the Italian UI shows them.
package format

import (
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Missing is shown in place of an amount that was never entered.
const Missing = "-"

var printer = message.NewPrinter(language.Italian)

// Euro formats d as an Italian euro amount, e.g. "12.345,67 €".
func Euro(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return printer.Sprintf("%.2f", f) + " €"
}

// EuroOrMissing formats d, or returns Missing when the amount is absent.
func EuroOrMissing(d decimal.Decimal, present bool) string {
	if !present {
		return Missing
	}
	return Euro(d)
}

// Number formats d with Italian separators and no currency sign.
func Number(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return printer.Sprintf("%.2f", f)
}

// Progress renders a filled-slot counter such as "3 / 14".
func Progress(filled, slots int) string {
	return strconv.Itoa(filled) + " / " + strconv.Itoa(slots)
}
