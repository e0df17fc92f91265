package exporter

import (
	"fmt"
	"strconv"
)

// formatCost formats a cost or price with 5 decimal places; unit costs
// differ in the third or fourth digit, so 2 would hide the ranking.
func formatCost(f float64) string {
	return fmt.Sprintf("%.5f", f)
}

// formatQuantity formats a demand or capacity quantity compactly.
func formatQuantity(f float64) string {
	return strconv.FormatFloat(f, 'g', 10, 64)
}

// formatShare formats a share, index, or correlation with 4 decimals.
func formatShare(f float64) string {
	return fmt.Sprintf("%.4f", f)
}

// formatBool formats a boolean value for CSV output.
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
