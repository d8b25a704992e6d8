package visualizer

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var barLevels = []rune(" ▁▂▃▄▅▆▇█")

// Bar colors from quiet to loud.
var barStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("30")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("36")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("184")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
}

// BarHeights reduces data to width bars and scales each to at most 80% of
// height, in eighths of a cell.
func BarHeights(data []byte, width, height int) []int {
	if width <= 0 || height <= 0 {
		return nil
	}
	out := make([]int, width)
	if len(data) == 0 {
		return out
	}
	for i := range out {
		lo := i * len(data) / width
		hi := (i + 1) * len(data) / width
		if hi <= lo {
			hi = lo + 1
		}
		if lo >= len(data) {
			lo, hi = len(data)-1, len(data)
		}
		var sum int
		for _, v := range data[lo:hi] {
			sum += int(v)
		}
		avg := float64(sum) / float64(hi-lo)
		out[i] = int(math.Round(avg / 255 * float64(height) * 0.8 * 8))
	}
	return out
}

// RenderBars draws a bottom-aligned bar meter of the given size.
func RenderBars(data []byte, width, height int) string {
	heights := BarHeights(data, width, height)
	if heights == nil {
		return ""
	}

	rows := make([]string, height)
	for r := 0; r < height; r++ {
		// r counts from the top; floor is the number of eighths below this row.
		floor := (height - 1 - r) * 8
		style := barStyles[min(len(barStyles)-1, (height-1-r)*len(barStyles)/height)]
		var sb strings.Builder
		for _, h := range heights {
			fill := min(max(h-floor, 0), 8)
			sb.WriteRune(barLevels[fill])
		}
		rows[r] = style.Render(sb.String())
	}
	return strings.Join(rows, "\n")
}
