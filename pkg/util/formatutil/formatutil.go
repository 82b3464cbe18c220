package formatutil

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Float64ToResponse returns nil for values that cannot be encoded as JSON numbers.
func Float64ToResponse(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}

	return &f
}

// dollarPrinter groups digits the way the API's users read currency.
var dollarPrinter = message.NewPrinter(language.English)

// Dollars renders a value rounded to whole dollars with thousands separators, e.g. "$650,520,000".
func Dollars(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "-"
	}

	whole := int64(math.Round(math.Abs(f)))
	if f < 0 && whole != 0 {
		return dollarPrinter.Sprintf("-$%d", whole)
	}
	return dollarPrinter.Sprintf("$%d", whole)
}

// Round2 rounds to two decimal places.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
