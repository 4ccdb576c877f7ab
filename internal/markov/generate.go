package markov

import (
	"strings"

	"github.com/verte-zerg/molishai/internal/bits"
	"github.com/verte-zerg/molishai/internal/tree"
)

// Symbol is one decoded unit with the number of input bits it used. The
// first symbol of a sequence is the whole seed state.
type Symbol struct {
	Text string
	Bits int
}

// Generate decodes in into symbols: one seed state followed by one
// character per transition until the bits run out. An empty input yields
// an empty sequence. A missing transition tree aborts with an error
// matching ErrConfigIntegrity.
func Generate(m *Model, in bits.Bits) ([]Symbol, error) {
	if len(in) == 0 {
		return nil, nil
	}
	seed, remaining := tree.Traverse(m.seed, in)
	seq := []Symbol{{Text: string(seed), Bits: len(in) - len(remaining)}}

	state := seed
	for len(remaining) > 0 {
		t, err := m.TransitionTreeFor(state)
		if err != nil {
			return nil, err
		}
		c, rest := tree.Traverse(t, remaining)
		seq = append(seq, Symbol{Text: string(c), Bits: len(remaining) - len(rest)})
		state = state.Next(c)
		remaining = rest
	}
	return seq, nil
}

// Assemble concatenates the symbol texts in order.
func Assemble(seq []Symbol) string {
	var sb strings.Builder
	for _, s := range seq {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Entropy returns the total number of bits spent across seq.
func Entropy(seq []Symbol) int {
	total := 0
	for _, s := range seq {
		total += s.Bits
	}
	return total
}
