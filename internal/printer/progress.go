package printer

import (
	"math"
	"strings"
)

const progressBarWidth = 20

// ProgressBar returns a fixed width text bar for a 0-100 percentage.
// Examples: "[----------]", "[#####-----]", "[##########]".
func ProgressBar(percent float64, width int) string {
	if width <= 0 {
		return "[]"
	}

	percent = math.Max(0, math.Min(100, percent))
	filled := int(math.Round(percent / 100 * float64(width)))

	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
