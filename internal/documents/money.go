package documents

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency is an ISO 4217 code the generator can bill in.
type Currency string

const (
	USD Currency = "USD"
	GHS Currency = "GHS"
)

// ParseCurrency accepts a code in any case. Empty means USD.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case "", USD:
		return USD, nil
	case GHS:
		return GHS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, s)
	}
}

// Symbol is the on-screen currency prefix.
func (c Currency) Symbol() string {
	if c == GHS {
		return "GH₵"
	}
	return "$"
}

// pdfSymbol avoids the cedi sign, which the core PDF fonts cannot draw.
func (c Currency) pdfSymbol() string {
	if c == GHS {
		return "GHS "
	}
	return "$"
}

// FormatAmount renders d with two decimals and thousands separators.
func FormatAmount(d decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	return p.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// FormatMoney prefixes FormatAmount with the currency symbol.
func FormatMoney(d decimal.Decimal, c Currency) string {
	return c.Symbol() + FormatAmount(d)
}

func formatMoneyPDF(d decimal.Decimal, c Currency) string {
	return c.pdfSymbol() + FormatAmount(d)
}

// Convert turns a USD amount into currency c at rate. USD ignores rate.
func Convert(usd decimal.Decimal, c Currency, rate decimal.Decimal) decimal.Decimal {
	if c == GHS {
		return usd.Mul(rate)
	}
	return usd
}

func dec(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
