package label

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const mmPerInch = 25.4

// Layout holds the physical label dimensions shared by every renderer
type Layout struct {
	WidthMM  float64
	HeightMM float64
	// DPI is the thermal printer resolution
	DPI            int
	CurrencyPrefix string
}

// DefaultLayout is a 38×38mm label on a 203 dpi printer
var DefaultLayout = Layout{
	WidthMM:        38,
	HeightMM:       38,
	DPI:            203,
	CurrencyPrefix: "Rs.",
}

func (l Layout) withDefaults() Layout {
	if l.WidthMM <= 0 {
		l.WidthMM = DefaultLayout.WidthMM
	}
	if l.HeightMM <= 0 {
		l.HeightMM = DefaultLayout.HeightMM
	}
	if l.DPI <= 0 {
		l.DPI = DefaultLayout.DPI
	}
	return l
}

// Dots converts millimetres to printer dots at the layout DPI
func (l Layout) Dots(mm float64) int {
	return int(mm / mmPerInch * float64(l.DPI))
}

var pricePrinter = message.NewPrinter(language.English)

// FormatPrice renders a price with two decimals and thousands separators
func (l Layout) FormatPrice(price decimal.Decimal) string {
	rounded := price.Round(2)

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}

	fixed := rounded.StringFixed(2)
	frac := fixed[strings.IndexByte(fixed, '.'):]
	formatted := sign + pricePrinter.Sprintf("%d", rounded.IntPart()) + frac

	if l.CurrencyPrefix == "" {
		return formatted
	}
	return l.CurrencyPrefix + " " + formatted
}
