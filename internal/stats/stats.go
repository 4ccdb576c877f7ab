package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/molishai/internal/model"
)

const (
	sparkChars = " .:-=+*#%@"
	barWidth   = 30
)

// Summary aggregates a set of generations.
type Summary struct {
	Generations    int
	Models         []string
	First, Last    time.Time
	RequestedBits  int
	Symbols        int
	Runes          int
	ZeroBitSymbols int
}

// Summarize folds generations and their bit buckets into a Summary.
func Summarize(gens []model.GenerationAggregate, buckets []model.BitBucket) Summary {
	s := Summary{Generations: len(gens)}
	models := map[string]struct{}{}
	for i, g := range gens {
		if i == 0 || g.GeneratedAt.Before(s.First) {
			s.First = g.GeneratedAt
		}
		if g.GeneratedAt.After(s.Last) {
			s.Last = g.GeneratedAt
		}
		s.RequestedBits += g.RequestedBits
		s.Symbols += g.SymbolCount
		s.Runes += g.PasswordRunes
		models[g.ModelName] = struct{}{}
	}
	for name := range models {
		s.Models = append(s.Models, name)
	}
	sort.Strings(s.Models)
	for _, b := range buckets {
		if b.Bits == 0 {
			s.ZeroBitSymbols += b.Symbols
		}
	}
	return s
}

// BitsPerRune is the average entropy carried by one password character.
func (s Summary) BitsPerRune() float64 {
	if s.Runes == 0 {
		return 0
	}
	return float64(s.RequestedBits) / float64(s.Runes)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := minMax(values)
	if math.Abs(hi-lo) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[min(max(idx, 0), len(sparkChars)-1)])
	}
	return b.String()
}

// RenderSummary prints the summary block.
func RenderSummary(w io.Writer, s Summary) error {
	if s.Generations == 0 {
		_, err := fmt.Fprintln(w, "No generations recorded.")
		return err
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Generations: %d", s.Generations),
		fmt.Sprintf("Models: %s", strings.Join(s.Models, ", ")),
		fmt.Sprintf("Period: %s .. %s", s.First.Local().Format(time.DateTime), s.Last.Local().Format(time.DateTime)),
		fmt.Sprintf("Avg bits: %.1f", float64(s.RequestedBits)/float64(s.Generations)),
		fmt.Sprintf("Avg length: %.1f", float64(s.Runes)/float64(s.Generations)),
		fmt.Sprintf("Bits per char: %.2f", s.BitsPerRune()),
	}
	if s.Symbols > 0 {
		lines = append(lines, fmt.Sprintf("Free symbols: %.2f%%", float64(s.ZeroBitSymbols)/float64(s.Symbols)*100))
	}
	for _, line := range append(lines, "") {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderHistogram prints how many symbols spent each number of bits.
func RenderHistogram(w io.Writer, title string, buckets []model.BitBucket) error {
	if len(buckets) == 0 {
		_, err := fmt.Fprintln(w, "No symbol stats found.")
		return err
	}
	total, peak := 0, 0
	for _, b := range buckets {
		total += b.Symbols
		peak = max(peak, b.Symbols)
	}
	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		bar := 0
		if peak > 0 {
			bar = int(math.Round(float64(b.Symbols) / float64(peak) * barWidth))
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", b.Bits),
			fmt.Sprintf("%d", b.Symbols),
			fmt.Sprintf("%.2f%%", float64(b.Symbols)/float64(total)*100),
			strings.Repeat("#", bar),
		})
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	lines := formatTable([]string{"Bits", "Symbols", "Share", ""}, rows, map[int]bool{0: true, 1: true, 2: true})
	for _, line := range append(lines, "") {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// BitsPerChar returns requested bits over password length for each
// generation, skipping empty passwords.
func BitsPerChar(gens []model.GenerationAggregate) []float64 {
	values := make([]float64, 0, len(gens))
	for _, g := range gens {
		if g.PasswordRunes > 0 {
			values = append(values, float64(g.RequestedBits)/float64(g.PasswordRunes))
		}
	}
	return values
}

// RenderTrend plots bits per character across generations, smoothed over
// window generations.
func RenderTrend(w io.Writer, gens []model.GenerationAggregate, window, width int) error {
	values := BitsPerChar(gens)
	if len(values) < 2 {
		return nil
	}
	return PlotSeries(w, Series{
		Name:   fmt.Sprintf("Bits per char (moving average over %d)", max(window, 1)),
		Values: MovingAverage(values, window),
	}, width, 0)
}

// Render writes the full stats report.
func Render(w io.Writer, r Report, width int) error {
	if err := RenderSummary(w, Summarize(r.Generations, r.Buckets)); err != nil {
		return err
	}
	if len(r.Generations) == 0 {
		return nil
	}
	title := "Bits per symbol"
	buckets := r.Buckets
	if r.CurveWindow > 0 && r.CurveWindow < len(r.Generations) {
		title = fmt.Sprintf("Bits per symbol (last %d)", r.CurveWindow)
		buckets = r.WindowBuckets
	}
	if err := RenderHistogram(w, title, buckets); err != nil {
		return err
	}
	return RenderTrend(w, r.Generations, r.CurveWindow, width)
}
