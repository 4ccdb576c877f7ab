// Package statsui provides the Bubble Tea audit log browser.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/molishai/internal/model"
	"github.com/verte-zerg/molishai/internal/stats"
	"github.com/verte-zerg/molishai/internal/store"
)

type tab int

const (
	tabOverview tab = iota
	tabBitTable
	tabTrend
	tabCount
)

var tabTitles = [tabCount]string{"Overview", "Bit Table", "Trend"}

const noGenerations = "No generations recorded."

// Model browses the audit log: a summary, the bit histogram as a table and
// the bits-per-char trend. Filters are edited in place with "/".
type Model struct {
	store *store.Store
	cfg   model.StatsConfig

	report stats.Report
	err    error

	current  tab
	pages    [tabCount]viewport.Model
	bitTable table.Model

	km   keyMap
	help help.Model

	editing bool
	form    filterForm

	width, height int
}

// NewModel loads the first report from st using cfg.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store: st,
		cfg:   cfg,
		km:    defaultKeyMap(),
		help:  help.New(),
		form:  newFilterForm(),
		bitTable: table.New(
			table.WithColumns([]table.Column{
				{Title: "Bits", Width: 5},
				{Title: "Symbols", Width: 9},
				{Title: "Share", Width: 8},
			}),
			table.WithStyles(bitTableStyles()),
		),
	}
	for i := range m.pages {
		m.pages[i] = viewport.New(0, 0)
	}
	m.reload()
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.editing {
			return m, m.updateForm(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.km.Quit):
		return tea.Quit
	case key.Matches(msg, m.km.Prev):
		m.switchTab(-1)
		return tea.ClearScreen
	case key.Matches(msg, m.km.Next):
		m.switchTab(1)
		return tea.ClearScreen
	case key.Matches(msg, m.km.Wider):
		m.cfg.CurveWindow = stepWindow(m.cfg.CurveWindow, 1)
		m.reload()
	case key.Matches(msg, m.km.Narrower):
		m.cfg.CurveWindow = stepWindow(m.cfg.CurveWindow, -1)
		m.reload()
	case key.Matches(msg, m.km.Filter):
		m.editing = true
		return m.form.load(m.cfg)
	case key.Matches(msg, m.km.Top):
		if m.current == tabBitTable {
			m.bitTable.GotoTop()
		} else {
			m.pages[m.current].GotoTop()
		}
	case key.Matches(msg, m.km.Bottom):
		if m.current == tabBitTable {
			m.bitTable.GotoBottom()
		} else {
			m.pages[m.current].GotoBottom()
		}
	default:
		var cmd tea.Cmd
		if m.current == tabBitTable {
			m.bitTable, cmd = m.bitTable.Update(msg)
		} else {
			m.pages[m.current], cmd = m.pages[m.current].Update(msg)
		}
		return cmd
	}
	return nil
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		return nil
	case tea.KeyTab, tea.KeyDown:
		return m.form.setFocus(m.form.focus + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m.form.setFocus(m.form.focus - 1)
	case tea.KeyEnter:
		cfg, err := m.form.config()
		if err != nil {
			m.form.err = err.Error()
			return nil
		}
		m.cfg = cfg
		m.editing = false
		m.reload()
		return nil
	}
	return m.form.update(msg)
}

func (m *Model) switchTab(delta int) {
	m.current = (m.current + tab(delta) + tabCount) % tabCount
	if m.current == tabBitTable {
		m.bitTable.Focus()
	} else {
		m.bitTable.Blur()
	}
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := m.header()
	footer := m.footer()
	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		block(m.body(), m.width, bodyHeight),
		footer,
	)
}

func (m *Model) header() string {
	titles := make([]string, len(tabTitles))
	for i, title := range tabTitles {
		if tab(i) == m.current {
			titles[i] = currentTabStyle.Render(title)
		} else {
			titles[i] = tabStyle.Render(title)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, titles...) + "\n" +
		mutedStyle.Render(ellipsize(m.describeFilters(), m.width))
}

func (m *Model) describeFilters() string {
	parts := []string{"model=" + valueOr(m.cfg.ModelName, "any")}
	if m.cfg.Since != nil {
		parts = append(parts, "since="+m.cfg.Since.Format(time.DateOnly))
	}
	if m.cfg.Last > 0 {
		parts = append(parts, "last="+strconv.Itoa(m.cfg.Last))
	}
	parts = append(parts, "window="+strconv.Itoa(m.cfg.CurveWindow))
	return strings.Join(parts, "  ")
}

func (m *Model) footer() string {
	if m.editing {
		return mutedStyle.Render("tab: next field · enter: apply · esc: cancel")
	}
	out := m.help.View(m.km)
	if m.err != nil {
		out += "\n" + errorStyle.Render(ellipsize(m.err.Error(), m.width))
	}
	return out
}

func (m *Model) body() string {
	switch {
	case m.editing:
		return m.form.view()
	case m.current == tabBitTable && len(m.report.Buckets) == 0:
		return "No symbol stats found."
	case m.current == tabBitTable:
		return m.bitTable.View()
	default:
		return m.pages[m.current].View()
	}
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.help.Width = m.width
	bodyHeight := max(m.height-lipgloss.Height(m.header())-lipgloss.Height(m.footer()), 1)
	for i := range m.pages {
		m.pages[i].Width = m.width
		m.pages[i].Height = bodyHeight
	}
	m.bitTable.SetWidth(m.width)
	m.bitTable.SetHeight(bodyHeight)
	m.form.setWidth(m.width)
	m.fillPages()
}

// reload rebuilds the report for the current filters.
func (m *Model) reload() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	m.err = err
	if err != nil {
		for i := range m.pages {
			m.pages[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.report = report
	m.bitTable.SetRows(bucketRows(report.Buckets))
	m.resize()
	m.fillPages()
}

func (m *Model) fillPages() {
	if m.err != nil {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.pages[tabOverview].SetContent(overview(m.report, width))
	m.pages[tabTrend].SetContent(trend(m.report, width))
}

func overview(r stats.Report, width int) string {
	if len(r.Generations) == 0 {
		return noGenerations
	}
	s := stats.Summarize(r.Generations, r.Buckets)
	n := float64(s.Generations)
	var free float64
	if s.Symbols > 0 {
		free = float64(s.ZeroBitSymbols) / float64(s.Symbols) * 100
	}
	tiles := []string{
		tile("Generations", strconv.Itoa(s.Generations)),
		tile("Avg bits", fmt.Sprintf("%.1f", float64(s.RequestedBits)/n)),
		tile("Avg length", fmt.Sprintf("%.1f", float64(s.Runes)/n)),
		tile("Bits/char", fmt.Sprintf("%.2f", s.BitsPerRune())),
		tile("Free symbols", fmt.Sprintf("%.1f%%", free)),
	}
	perRow := max(width/lipgloss.Width(tiles[0]), 1)
	var rows []string
	for len(tiles) > 0 {
		k := min(perRow, len(tiles))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, tiles[:k]...))
		tiles = tiles[k:]
	}
	rows = append(rows, "", mutedStyle.Render("Models: "+strings.Join(s.Models, ", ")))
	if values := stats.BitsPerChar(r.Generations); len(values) > 1 {
		if len(values) > width-len("Bits/char: ") {
			values = values[len(values)-max(width-len("Bits/char: "), 1):]
		}
		rows = append(rows, mutedStyle.Render("Bits/char: ")+stats.Sparkline(values))
	}
	return strings.Join(rows, "\n")
}

func tile(label, value string) string {
	return tileStyle.Render(tileLabelStyle.Render(label) + "\n" + tileValueStyle.Render(value))
}

func trend(r stats.Report, width int) string {
	if len(r.Generations) == 0 {
		return noGenerations
	}
	var buf bytes.Buffer
	title, buckets := "Bits per symbol", r.Buckets
	if r.CurveWindow > 0 && r.CurveWindow < len(r.Generations) {
		title, buckets = fmt.Sprintf("Bits per symbol (last %d)", r.CurveWindow), r.WindowBuckets
	}
	if err := stats.RenderHistogram(&buf, title, buckets); err != nil {
		return err.Error()
	}
	if err := stats.RenderTrend(&buf, r.Generations, r.CurveWindow, width); err != nil {
		return err.Error()
	}
	return strings.TrimRight(buf.String(), "\n")
}

func bucketRows(buckets []model.BitBucket) []table.Row {
	var total int
	for _, b := range buckets {
		total += b.Symbols
	}
	rows := make([]table.Row, len(buckets))
	for i, b := range buckets {
		var share float64
		if total > 0 {
			share = float64(b.Symbols) / float64(total) * 100
		}
		rows[i] = table.Row{strconv.Itoa(b.Bits), strconv.Itoa(b.Symbols), fmt.Sprintf("%.2f%%", share)}
	}
	return rows
}

// block clips s to height lines and pads every line to width so stale
// content from the previous frame is overwritten.
func block(s string, width, height int) string {
	lines := strings.SplitN(s, "\n", height+1)
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	pad := lipgloss.NewStyle().Width(width)
	for i, line := range lines {
		if lipgloss.Width(line) < width {
			lines[i] = pad.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func ellipsize(s string, width int) string {
	r := []rune(s)
	switch {
	case width <= 0 || len(r) <= width:
		return s
	case width == 1:
		return "…"
	default:
		return string(r[:width-1]) + "…"
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
