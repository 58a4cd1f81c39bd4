// Package currency holds the static display-currency table. Amounts are
// computed in the base currency (INR) and converted only for display.
package currency

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Simplici0/calcoz/internal/pricing"
)

// BaseCode is the currency every amount is computed in.
const BaseCode = "INR"

// Currency is a display currency with its rate relative to the base currency.
type Currency struct {
	Code   string  `json:"code"`
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Rate   float64 `json:"rate"`

	indian bool
}

var table = []Currency{
	{Code: "INR", Symbol: "₹", Name: "Indian Rupee", Rate: 1, indian: true},
	{Code: "USD", Symbol: "$", Name: "US Dollar", Rate: 0.012},
	{Code: "EUR", Symbol: "€", Name: "Euro", Rate: 0.011},
	{Code: "GBP", Symbol: "£", Name: "British Pound", Rate: 0.0095},
	{Code: "AED", Symbol: "د.إ", Name: "UAE Dirham", Rate: 0.044},
}

// All returns the supported currencies in display order.
func All() []Currency {
	out := make([]Currency, len(table))
	copy(out, table)
	return out
}

// Codes returns the supported currency codes.
func Codes() []string {
	out := make([]string, 0, len(table))
	for _, c := range table {
		out = append(out, c.Code)
	}
	return out
}

// Lookup returns the currency for code, falling back to the base currency.
func Lookup(code string) Currency {
	c, _ := Find(code)
	return c
}

// Find is like Lookup but reports whether code was known.
func Find(code string) (Currency, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range table {
		if c.Code == code {
			return c, true
		}
	}
	return table[0], false
}

// Convert turns a base-currency amount into this currency, rounded to 2 places.
func (c Currency) Convert(amount float64) float64 {
	return pricing.Round2(amount * c.Rate)
}

// Format renders amount with the currency symbol, 2 decimals and digit
// grouping. Rupees are grouped in lakhs and crores (1,89,000.00), every other
// currency in thousands (189,000.00).
func (c Currency) Format(amount float64) string {
	return c.Symbol + c.formatNumber(c.Convert(amount))
}

// FormatPlain is Format with the ISO code in place of the symbol.
func (c Currency) FormatPlain(amount float64) string {
	return c.Code + " " + c.formatNumber(c.Convert(amount))
}

func (c Currency) formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return humanize.FormatFloat("#,###.##", v)
	}

	var s string
	if math.Abs(v) >= 1<<63 {
		// FormatFloat goes through int64; floats this large have no cents anyway.
		s = humanize.Commaf(math.Trunc(v)) + ".00"
	} else {
		s = humanize.FormatFloat("#,###.##", v)
	}
	if c.indian {
		s = regroupIndian(s)
	}
	return s
}

// regroupIndian turns a thousands-grouped number into lakh/crore grouping:
// the last three whole digits, then pairs.
func regroupIndian(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i:]
	}
	digits := strings.ReplaceAll(whole, ",", "")
	if len(digits) <= 3 {
		return sign + digits + frac
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var b strings.Builder
	b.WriteString(sign)
	lead := len(head) % 2
	b.WriteString(head[:lead])
	for i := lead; i < len(head); i += 2 {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(tail)
	b.WriteString(frac)
	return b.String()
}

