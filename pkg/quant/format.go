package quant

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	billion  = decimal.New(1, 9)
	million  = decimal.New(1, 6)
	thousand = decimal.New(1, 3)
	one      = decimal.New(1, 0)
	tenK     = decimal.New(1, -4) // 0.0001
)

// TokenAmountToDisplay renders base units as a short token figure:
// B/M/K suffixes with 2 decimals, 4 decimals from 1, 6 decimals from 0.0001,
// scientific notation below that. Bad input yields "0".
func TokenAmountToDisplay(baseUnits string, decimals int) string {
	total, ok := humanValue(baseUnits, decimals)
	if !ok {
		return "0"
	}

	switch {
	case total.GreaterThanOrEqual(billion):
		return total.Shift(-9).StringFixed(2) + "B"
	case total.GreaterThanOrEqual(million):
		return total.Shift(-6).StringFixed(2) + "M"
	case total.GreaterThanOrEqual(thousand):
		return total.Shift(-3).StringFixed(2) + "K"
	case total.GreaterThanOrEqual(one):
		return total.StringFixed(4)
	case total.GreaterThanOrEqual(tenK):
		return total.StringFixed(6)
	default:
		return formatScientific(total)
	}
}

// USDAmountToDisplay renders 18-decimal USD base units with a "$" prefix.
// Values under $1000 always show exactly two decimals. Bad input yields "$0.00".
func USDAmountToDisplay(baseUnits string) string {
	total, ok := humanValue(baseUnits, USDDecimals)
	if !ok {
		return "$0.00"
	}

	switch {
	case total.GreaterThanOrEqual(billion):
		return "$" + total.Shift(-9).StringFixed(2) + "B"
	case total.GreaterThanOrEqual(million):
		return "$" + total.Shift(-6).StringFixed(2) + "M"
	case total.GreaterThanOrEqual(thousand):
		return "$" + total.Shift(-3).StringFixed(2) + "K"
	default:
		return "$" + total.StringFixed(2)
	}
}

// BpsToPercentDisplay formats basis points as a percentage, e.g. 250 -> "2.50%".
// Negative values (net APY) keep their sign.
func BpsToPercentDisplay(bps int64) string {
	return decimal.New(bps, -2).StringFixed(2) + "%"
}

func humanValue(baseUnits string, decimals int) (decimal.Decimal, bool) {
	wei, err := ParseBaseUnits(baseUnits)
	if err != nil {
		return decimal.Zero, false
	}
	total, err := ToDecimal(wei, decimals)
	if err != nil {
		return decimal.Zero, false
	}
	return total, true
}

// formatScientific mirrors the 2-digit exponential notation dashboards use:
// 0.0000123 -> "1.23e-5", 0 -> "0.00e+0".
func formatScientific(d decimal.Decimal) string {
	s := strconv.FormatFloat(d.InexactFloat64(), 'e', 2, 64)
	mantissa, exp, found := strings.Cut(s, "e")
	if !found {
		return s
	}
	n, err := strconv.Atoi(exp)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%se%+d", mantissa, n)
}
