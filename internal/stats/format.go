package stats

import (
	"fmt"
	"math"
	"strconv"

	"github.com/guregu/null/v5"
)

// NotAvailable is displayed for periods without data
const NotAvailable = "N/A"

// FormatPercentage renders a 0-100 value with at most one decimal:
// 0 -> "0%", 100 -> "100%", 87.0 -> "87%", 87.34 -> "87.3%".
func FormatPercentage(v float64) string {
	if v == 0 {
		return "0%"
	}
	if v == 100 {
		return "100%"
	}
	rounded := math.Round(v*10) / 10
	return strconv.FormatFloat(rounded, 'f', -1, 64) + "%"
}

// FormatRate renders a nullable rate, "N/A" when absent
func FormatRate(rate null.Float) string {
	if !rate.Valid {
		return NotAvailable
	}
	return FormatPercentage(rate.Float64)
}

// FormatAgencyWithRate renders "name (87.3%)"
func FormatAgencyWithRate(name string, rate float64) string {
	return fmt.Sprintf("%s (%s)", name, FormatPercentage(rate))
}

// round2 rounds to two decimals
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
