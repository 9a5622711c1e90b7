package shared

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	currencyEN = message.NewPrinter(language.English)
	currencyAR = message.NewPrinter(language.Arabic)
)

// FormatCurrency renders an amount in Egyptian pounds for the requested
// language tag ("ar" uses Eastern Arabic digits). Used by audit metadata and
// ledger transaction descriptions; screens format their own values.
func FormatCurrency(amount float64, lang string) string {
	if lang == "ar" {
		return currencyAR.Sprintf("%v ج.م", number.Decimal(amount, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
	}
	return currencyEN.Sprintf("EGP %v", number.Decimal(amount, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
