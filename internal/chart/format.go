package chart

import (
	"math"
	"strconv"
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the English name of month 1..12, or "" when out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// FormatNumber renders v in its shortest round-tripping decimal form, the
// way the numbers appear in the source data ("-6.976", "8.66", "0").
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatCoord renders a pixel coordinate with at most three decimals.
func FormatCoord(v float64) string {
	return FormatNumber(math.Round(v*1000) / 1000)
}

// roundLabel rounds v half-up to two decimals for legend labels.
func roundLabel(v float64) float64 {
	return math.Floor((v+2.220446049250313e-16)*100+0.5) / 100
}
