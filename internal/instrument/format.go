package instrument

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var (
	billion  = decimal.NewFromInt(1_000_000_000)
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// FormatLarge abbreviates a dollar amount: $1.23B, $4.56M, $7.89K, $0.12.
func FormatLarge(v float64) string {
	d := decimal.NewFromFloat(v)
	switch {
	case d.GreaterThanOrEqual(billion):
		return "$" + d.Div(billion).StringFixed(2) + "B"
	case d.GreaterThanOrEqual(million):
		return "$" + d.Div(million).StringFixed(2) + "M"
	case d.GreaterThanOrEqual(thousand):
		return "$" + d.Div(thousand).StringFixed(2) + "K"
	default:
		return "$" + d.StringFixed(2)
	}
}

// FormatLargeValue is FormatLarge for an optional amount.
func FormatLargeValue(v Value[float64]) string {
	return Display(v, FormatLarge)
}

// FormatDollars renders a whole dollar amount with separators: $1,234,567.
func FormatDollars(v float64) string {
	return "$" + FormatCount(v)
}

// FormatCount renders a rounded number with thousands separators.
func FormatCount(v float64) string {
	return humanize.Commaf(math.Round(v))
}

// FormatCoins renders a coin supply.
func FormatCoins(v float64) string {
	return FormatCount(v) + " coins"
}

// FormatPrice renders a price with cents: $65,432.10.
func FormatPrice(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// FormatRate renders an exchange rate to four places.
func FormatRate(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

// FormatPercent renders a percentage to two places.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// FormatChange renders a signed percentage: +3.21%, -1.05%.
func FormatChange(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// FormatDate renders a calendar date.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ColorFromChange maps a change to green, red or gray. Missing is gray.
func ColorFromChange(v Value[float64]) string {
	c, ok := v.Get()
	switch {
	case !ok:
		return "gray"
	case c > 0:
		return "green"
	case c < 0:
		return "red"
	default:
		return "gray"
	}
}
