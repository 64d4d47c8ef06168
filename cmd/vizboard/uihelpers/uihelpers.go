package uihelpers

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"time"
)

// ComputeChartDimensions applies the width/height clamp rules used for
// the chart preview. Input: desired raw width (e.g., canvas width).
// Returns clamped width & height.
func ComputeChartDimensions(rawW int) (int, int) {
	w := rawW
	if w < 640 {
		w = 640
	}
	h := int(float32(w) * 0.45)
	if h < 280 {
		h = 280
	}
	if h > 560 {
		h = 560
	}
	return w, h
}

// ComputeColumnWidth spreads the window width over the data table's
// columns, keeping each column readable on narrow windows.
func ComputeColumnWidth(winW float32, cols int) int {
	if cols <= 0 {
		return 120
	}
	w := int(winW-40) / cols
	if w < 80 {
		w = 80
	}
	if w > 260 {
		w = 260
	}
	return w
}

// TruncatePath shortens a file path for display in labels and menus.
func TruncatePath(p string, n int) string {
	if len(p) <= n {
		return p
	}
	base := filepath.Base(p)
	if len(base)+4 >= n {
		return "..." + base
	}
	dir := filepath.Dir(p)
	left := n - len(base) - 4
	if left <= 0 {
		return "..." + base
	}
	if len(dir) > left {
		dir = dir[:left]
	}
	return dir + "/..." + base
}

// FormatNumericCell provides a compact label for table cells.
func FormatNumericCell(v float64) string {
	av := math.Abs(v)
	switch {
	case av >= 100:
		return strconv.FormatInt(int64(math.Round(v)), 10)
	case av >= 10:
		return strconv.FormatFloat(v, 'f', 1, 64)
	case av >= 1:
		return strconv.FormatFloat(v, 'f', 2, 64)
	case av >= 0.01:
		return strconv.FormatFloat(v, 'f', 3, 64)
	case av == 0:
		return "0"
	default:
		return strconv.FormatFloat(v, 'f', 4, 64)
	}
}

// FormatDurationCell renders a duration for the performance table,
// millisecond resolution up to a second, then seconds.
func FormatDurationCell(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2f s", d.Seconds())
}

// FormatByteDelta renders a signed byte count in human units.
func FormatByteDelta(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%s%.1f GiB", sign, float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%s%.1f MiB", sign, float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%s%.1f KiB", sign, float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%s%d B", sign, n)
	}
}
