package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight   = 8
	minPlotWidth        = 10
	axisSeparator       = " │ "
	terminalWidthBackup = 80
)

var lineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

// PlotSeries draws s as a braille line chart. Each cell holds a 2x4 dot
// grid, so the chart has twice the horizontal and four times the vertical
// resolution of the text it occupies. A non-positive width uses the
// terminal width.
func PlotSeries(w io.Writer, s Series, width, height int) error {
	if len(s.Values) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	lo, hi := minMax(s.Values)
	labels := []string{formatAxis(hi), formatAxis((lo + hi) / 2), formatAxis(lo)}
	labelWidth := 0
	for _, l := range labels {
		labelWidth = max(labelWidth, len(l))
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth(), labelWidth)
	}
	width = max(width, minPlotWidth)
	if hi-lo < 1e-9 {
		lo--
		hi++
	}

	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	values := resample(s.Values, width)
	dotRows := height * 4
	prevX, prevY := -1, -1
	for x, v := range values {
		px := x * 2
		py := int(math.Round((1 - (v-lo)/(hi-lo)) * float64(dotRows-1)))
		py = min(max(py, 0), dotRows-1)
		if prevX < 0 {
			setDot(cells, px, py)
		} else {
			drawLine(prevX, prevY, px, py, func(dx, dy int) { setDot(cells, dx, dy) })
		}
		prevX, prevY = px, py
	}

	if _, err := fmt.Fprintln(w, s.Name); err != nil {
		return err
	}
	for y, row := range cells {
		label := ""
		switch {
		case y == 0:
			label = labels[0]
		case y == height-1:
			label = labels[2]
		case y == height/2:
			label = labels[1]
		}
		var line strings.Builder
		for _, mask := range row {
			line.WriteRune(rune(0x2800 + int(mask)))
		}
		if _, err := fmt.Fprintf(w, "%*s%s%s\n", labelWidth, label, axisSeparator, lineStyle.Render(line.String())); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// PlotWidthFor computes a plot width that fits next to an axis of
// labelWidth columns within totalWidth.
func PlotWidthFor(totalWidth, labelWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(totalWidth-labelWidth-displayWidth(axisSeparator), minPlotWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func formatAxis(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// resample averages buckets when there are more values than columns and
// interpolates linearly when there are fewer.
func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	n := len(values)
	switch {
	case n == width:
		copy(out, values)
	case n > width:
		for i := range out {
			start := i * n / width
			end := max((i+1)*n/width, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := range out {
			pos := float64(i) * float64(n-1) / float64(width-1)
			idx := min(int(pos), n-2)
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

// drawLine plots the Bresenham line between two dot coordinates.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// brailleBits maps a dot at column x (0-1) and row y (0-3) of a cell to its
// bit in the Unicode braille block.
var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func setDot(cells [][]uint8, x, y int) {
	cy, cx := y/4, x/2
	if y < 0 || x < 0 || cy >= len(cells) || cx >= len(cells[cy]) {
		return
	}
	cells[cy][cx] |= brailleBits[x%2][y%4]
}
