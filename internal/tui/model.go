// Package tui provides the Bubble Tea password browser.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/molishai/internal/password"
)

// BitStep is how much +/- change the requested entropy.
const BitStep = 8

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	hexStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	entropyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))

	freeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cheapStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	normalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	costlyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4DB6FF"))
)

type keyMap struct {
	Regenerate key.Binding
	More       key.Binding
	Less       key.Binding
	Quit       key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Regenerate, k.More, k.Less, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Regenerate: key.NewBinding(key.WithKeys("r", "enter"), key.WithHelp("r", "regenerate")),
		More:       key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", fmt.Sprintf("%d more bits", BitStep))),
		Less:       key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", fmt.Sprintf("%d fewer bits", BitStep))),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Model implements the Bubble Tea password table.
type Model struct {
	gen     *password.Generator
	bits    int
	maxBits int
	rows    int

	results []password.Result
	errMsg  string

	keys keyMap
	help help.Model

	width  int
	height int
}

// NewModel constructs the browser and generates the first table.
func NewModel(gen *password.Generator, bits, maxBits, rows int) *Model {
	m := &Model{
		gen:     gen,
		bits:    bits,
		maxBits: maxBits,
		rows:    rows,
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
	m.regenerate()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Wipe()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Regenerate):
			m.regenerate()
		case key.Matches(msg, m.keys.More):
			m.setBits(m.bits + BitStep)
		case key.Matches(msg, m.keys.Less):
			m.setBits(m.bits - BitStep)
		}
		return m, nil
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	lines := []string{m.renderHeader(), ""}
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
	} else {
		lines = append(lines, m.renderRows()...)
	}
	content := strings.Join(lines, "\n")
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

// Bits is the entropy currently requested per password.
func (m *Model) Bits() int {
	return m.bits
}

// Wipe clears the bits and symbols of every shown password.
func (m *Model) Wipe() {
	for i := range m.results {
		m.results[i].Wipe()
	}
	m.results = nil
}

func (m *Model) setBits(n int) {
	n = min(max(n, 0), m.maxBits)
	if n == m.bits {
		return
	}
	m.bits = n
	m.regenerate()
}

func (m *Model) regenerate() {
	m.Wipe()
	results, err := m.gen.Rows(m.bits, m.rows)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.results = results
}

func (m *Model) renderHeader() string {
	return titleStyle.Render("molis hai") + "  " + footerStyle.Render(fmt.Sprintf("%d bits · %d rows", m.bits, m.rows))
}

// renderRows lays out hex, password and entropy columns. Passwords wider
// than the remaining space wrap inside their column.
func (m *Model) renderRows() []string {
	hexWidth := (m.bits + 3) / 4
	out := make([]string, 0, len(m.results))
	for _, res := range m.results {
		entropy := entropyStyle.Render(fmt.Sprintf("(%d)", res.Entropy()))
		passWidth := 0
		if m.width > 0 {
			passWidth = max(m.width-hexWidth-lipgloss.Width(entropy)-6, 8)
		}
		hex := hexStyle.Render(fmt.Sprintf("%-*s", hexWidth, res.Hex()))
		pass := wrapStyledRunes(buildStyledRunes(res.Symbols), passWidth)
		out = append(out, lipgloss.JoinHorizontal(lipgloss.Top, hex, "  ", pass, "  ", entropy))
	}
	return out
}

func (m *Model) renderFooter() string {
	segments := []string{}
	runes, bits := 0, 0
	for _, res := range m.results {
		runes += len([]rune(res.Password))
		bits += res.Entropy()
	}
	if runes > 0 {
		segments = append(segments, fmt.Sprintf("%.2f bits/char", float64(bits)/float64(runes)))
	}
	segments = append(segments, m.help.View(m.keys))
	return footerStyle.Render(strings.Join(segments, "  "))
}
