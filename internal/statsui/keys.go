package statsui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Prev     key.Binding
	Next     key.Binding
	Narrower key.Binding
	Wider    key.Binding
	Filter   key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Narrower, k.Wider, k.Filter, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Top, k.Bottom}}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Prev:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev tab")),
		Next:     key.NewBinding(key.WithKeys("right", "l", "tab"), key.WithHelp("→/l", "next tab")),
		Narrower: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "smaller window")),
		Wider:    key.NewBinding(key.WithKeys("=", "+"), key.WithHelp("+", "larger window")),
		Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filters")),
		Top:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// stepWindow moves a moving-average window to the next multiple of five in
// direction dir. Windows below five collapse to one.
func stepWindow(n, dir int) int {
	if dir > 0 {
		if n < 5 {
			return 5
		}
		return (n/5 + 1) * 5
	}
	switch {
	case n <= 5:
		return 1
	case n%5 == 0:
		return n - 5
	default:
		return n / 5 * 5
	}
}
