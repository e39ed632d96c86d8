package core

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatCurrency renders an amount as localized currency text: localized
// digit grouping and decimal separator, the currency's symbol, and the
// currency's minor-unit precision. Stateless; an unknown currency code or
// locale fails with a FormatError.
func FormatCurrency(amount Money, code, locale string) (string, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", &FormatError{Code: code, Locale: locale, Err: err}
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "", &FormatError{Code: code, Locale: locale, Err: err}
	}

	scale, _ := currency.Cash.Rounding(unit)
	p := message.NewPrinter(tag)
	return p.Sprintf("%v%v",
		currency.Symbol(unit),
		number.Decimal(amount.Float64(), number.Scale(scale)),
	), nil
}
