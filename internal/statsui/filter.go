package statsui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/molishai/internal/model"
)

const (
	fieldModel = iota
	fieldSince
	fieldLast
	fieldWindow
	fieldCount
)

// filterForm edits the report filters in place of the tab body.
type filterForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
	err    string
}

func newFilterForm() filterForm {
	var f filterForm
	prompts := [fieldCount]string{"Model: ", "Since (YYYY-MM-DD): ", "Last: ", "Curve window: "}
	for i, prompt := range prompts {
		in := textinput.New()
		in.Prompt = prompt
		in.Cursor.SetMode(cursor.CursorBlink)
		f.inputs[i] = in
	}
	return f
}

// load copies cfg into the inputs and focuses the first one.
func (f *filterForm) load(cfg model.StatsConfig) tea.Cmd {
	values := [fieldCount]string{cfg.ModelName, "", "", strconv.Itoa(cfg.CurveWindow)}
	if cfg.Since != nil {
		values[fieldSince] = cfg.Since.Format(time.DateOnly)
	}
	if cfg.Last > 0 {
		values[fieldLast] = strconv.Itoa(cfg.Last)
	}
	for i := range f.inputs {
		f.inputs[i].SetValue(values[i])
	}
	f.err = ""
	return f.setFocus(0)
}

func (f *filterForm) setFocus(idx int) tea.Cmd {
	f.focus = (idx + fieldCount) % fieldCount
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.focus {
			cmd = f.inputs[i].Focus()
			continue
		}
		f.inputs[i].Blur()
	}
	return cmd
}

func (f *filterForm) setWidth(width int) {
	for i := range f.inputs {
		f.inputs[i].Width = max(10, width-lipgloss.Width(f.inputs[i].Prompt)-2)
	}
}

func (f *filterForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *filterForm) view() string {
	lines := make([]string, 0, fieldCount+2)
	lines = append(lines, "Filters")
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}

// config parses the inputs into a StatsConfig.
func (f *filterForm) config() (model.StatsConfig, error) {
	value := func(i int) string { return strings.TrimSpace(f.inputs[i].Value()) }
	cfg := model.StatsConfig{ModelName: value(fieldModel), CurveWindow: 1}
	if raw := value(fieldSince); raw != "" {
		since, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("since must look like 2006-01-02")
		}
		cfg.Since = &since
	}
	if raw := value(fieldLast); raw != "" {
		last, err := strconv.Atoi(raw)
		if err != nil || last < 0 {
			return cfg, fmt.Errorf("last must be a non-negative integer")
		}
		cfg.Last = last
	}
	if raw := value(fieldWindow); raw != "" {
		window, err := strconv.Atoi(raw)
		if err != nil || window < 1 {
			return cfg, fmt.Errorf("curve window must be a positive integer")
		}
		cfg.CurveWindow = window
	}
	return cfg, nil
}
