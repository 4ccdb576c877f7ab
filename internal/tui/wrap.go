package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/molishai/internal/markov"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// symbolStyle colors a symbol by the number of bits it consumed.
func symbolStyle(bits int) lipgloss.Style {
	switch {
	case bits == 0:
		return freeStyle
	case bits <= 2:
		return cheapStyle
	case bits <= 4:
		return normalStyle
	default:
		return costlyStyle
	}
}

// buildStyledRunes flattens a symbol sequence into individually styled
// runes. Every rune of a symbol shares its style.
func buildStyledRunes(seq []markov.Symbol) []styledRune {
	out := make([]styledRune, 0, len(seq)*2)
	for _, sym := range seq {
		style := symbolStyle(sym.Bits)
		for _, r := range sym.Text {
			out = append(out, styledRune{
				s:       style.Render(string(r)),
				width:   runewidth.RuneWidth(r),
				isSpace: r == ' ',
			})
		}
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks lines at the last space that fits, or mid-word when
// a word is wider than width.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpace := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpace >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpace]))
				line = append([]styledRune{}, line[lastSpace+1:]...)
			} else {
				out.WriteString(renderStyledRunes(line))
				line = line[:0]
			}
			out.WriteRune('\n')
			lineWidth = lineWidthOf(line)
			lastSpace = lastSpaceIndex(line)
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpace = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
