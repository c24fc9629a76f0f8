// Package format renders money and dates for the storefront templates.
package format

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"EGP": "E£",
}

// Price formats a decimal amount with the currency's symbol, two fraction
// digits and thousands separators. Example: Price(d("1234.5"), "USD") =>
// "$1,234.50". Unknown currencies fall back to "CODE 1,234.50".
func Price(amount decimal.Decimal, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	places := int32(2)
	if currency == "JPY" {
		places = 0
	}
	body := group(amount.StringFixed(places))
	if sym, ok := symbols[currency]; ok {
		if amount.IsNegative() {
			return "-" + sym + strings.TrimPrefix(body, "-")
		}
		return sym + body
	}
	return currency + " " + body
}

// Discount renders a percentage like "25% OFF"; nil or zero yields "".
func Discount(pct *decimal.Decimal) string {
	if pct == nil || pct.IsZero() {
		return ""
	}
	return pct.Round(0).String() + "% OFF"
}

// Date formats a timestamp in the storefront's short form.
func Date(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// group inserts thousands separators into the integer part of a fixed-point
// decimal string.
func group(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i != 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if hasFrac {
		out += "." + frac
	}
	if neg {
		return "-" + out
	}
	return out
}
