package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/molishai/internal/bits"
	"github.com/verte-zerg/molishai/internal/modelfile"
	"github.com/verte-zerg/molishai/internal/password"
)

// zeroSource always returns n false bits.
type zeroSource struct {
	asked []int
}

func (z *zeroSource) Bits(n int) (bits.Bits, error) {
	z.asked = append(z.asked, n)
	return make(bits.Bits, n), nil
}

func newTestModel(t *testing.T, src bits.Source) *Model {
	t.Helper()
	ref, err := modelfile.Reference()
	require.NoError(t, err)
	return NewModel(password.New(src, ref), 8, 16, 2)
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestRenderFooterFormats(t *testing.T) {
	m := newTestModel(t, &zeroSource{})
	out := m.renderFooter()
	for _, want := range []string{"2.67 bits/char", "regenerate", "quit"} {
		assert.Contains(t, out, want)
	}
}

func TestViewShowsRows(t *testing.T) {
	m := newTestModel(t, &zeroSource{})
	out := m.View()
	for _, want := range []string{"molis hai", "8 bits", "00", "(8)"} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, 2, strings.Count(out, "(8)"), out)
}

func TestUpdateAdjustsBits(t *testing.T) {
	src := &zeroSource{}
	m := newTestModel(t, src)

	m.Update(keyRune('+'))
	assert.Equal(t, 16, m.Bits())
	m.Update(keyRune('+'))
	assert.Equal(t, 16, m.Bits(), "clamped at the maximum")
	for i := 0; i < 3; i++ {
		m.Update(keyRune('-'))
	}
	assert.Equal(t, 0, m.Bits(), "clamped at zero")
	m.Update(keyRune('r'))

	assert.Equal(t, []int{8, 8, 16, 16, 8, 8, 0, 0, 0, 0}, src.asked)
}

func TestQuitWipesResults(t *testing.T) {
	m := newTestModel(t, &zeroSource{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.results)
}
