package handler

import (
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TemplateFuncs returns a FuncMap with custom template functions
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"year": func() int {
			return time.Now().Year()
		},
		// formatAmount renders an amount in minor units, e.g. 1500 EUR as "15.00 EUR".
		"formatAmount": func(minor int64, currency string) string {
			return decimal.New(minor, -2).StringFixed(2) + " " + currency
		},
		"fieldLabel": FieldLabel,
		"inputMode": func(name string) string {
			if name == "cardholderName" {
				return "text"
			}
			return "numeric"
		},
		"upper": strings.ToUpper,
	}
}

var fieldLabels = map[string]string{
	"cardNumber":     "Card number",
	"expiryDate":     "Expiry date",
	"cvv":            "CVV",
	"PinCode":        "PIN code",
	"cardholderName": "Cardholder name",
}

// FieldLabel returns the display label of a card form field.
func FieldLabel(name string) string {
	if label, ok := fieldLabels[name]; ok {
		return label
	}
	return name
}
