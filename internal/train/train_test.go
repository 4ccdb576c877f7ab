package train

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/molishai/internal/bits"
	"github.com/verte-zerg/molishai/internal/corpus"
	"github.com/verte-zerg/molishai/internal/markov"
	"github.com/verte-zerg/molishai/internal/modelfile"
	"github.com/verte-zerg/molishai/internal/tree"
)

const (
	T = true
	F = false
)

func runeLess(a, b rune) bool { return a < b }

func TestHuffmanHeavierOnA(t *testing.T) {
	h, err := Huffman(map[rune]int{'a': 5, 'b': 2, 'c': 1}, runeLess)
	require.NoError(t, err)

	for _, tc := range []struct {
		in   []bool
		want rune
	}{
		{[]bool{T}, 'a'},
		{[]bool{F, T}, 'b'},
		{[]bool{F, F}, 'c'},
		{nil, 'a'},
	} {
		got, rest := tree.Traverse(h, tc.in)
		assert.Equal(t, tc.want, got)
		assert.Empty(t, rest)
	}
}

func TestHuffmanTies(t *testing.T) {
	h, err := Huffman(map[rune]int{'x': 1, 'y': 1}, runeLess)
	require.NoError(t, err)
	assert.Equal(t, []rune{'y', 'x'}, tree.Leaves(h))

	again, err := Huffman(map[rune]int{'y': 1, 'x': 1}, runeLess)
	require.NoError(t, err)
	assert.Equal(t, tree.Leaves(h), tree.Leaves(again))
}

func TestHuffmanEdgeCases(t *testing.T) {
	single, err := Huffman(map[rune]int{'q': 7}, runeLess)
	require.NoError(t, err)
	assert.True(t, single.IsLeaf())
	assert.Equal(t, 0, tree.Depth(single))

	_, err = Huffman(map[rune]int{}, runeLess)
	require.Error(t, err)

	_, err = Huffman(map[rune]int{'a': 1, 'b': 0}, runeLess)
	require.Error(t, err)
}

func TestCount(t *testing.T) {
	c, err := Count("abac", 1)
	require.NoError(t, err)
	assert.Equal(t, map[markov.State]int{"a": 2, "b": 1, "c": 1}, c.States)
	assert.Equal(t, map[rune]int{'b': 1, 'c': 1}, c.Successors["a"])
	// the ring wraps c back to a
	assert.Equal(t, map[rune]int{'a': 1}, c.Successors["c"])

	_, err = Count("ab", 2)
	require.Error(t, err)
	_, err = Count("abc", 0)
	require.Error(t, err)
}

func TestTrainTiny(t *testing.T) {
	m, err := Train("abac", 1)
	require.NoError(t, err)

	seq, err := markov.Generate(m, bits.Bits{F, T})
	require.NoError(t, err)
	assert.Equal(t, "ac", markov.Assemble(seq))

	seq, err = markov.Generate(m, bits.Bits{T, F, F})
	require.NoError(t, err)
	assert.Equal(t, []markov.Symbol{{Text: "b", Bits: 2}, {Text: "a", Bits: 0}, {Text: "b", Bits: 1}}, seq)
}

func TestTrainRejectsZeroBitLoop(t *testing.T) {
	// "abab" only ever continues one way, so generation would spin forever
	_, err := Train("abab", 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, markov.ErrConfigIntegrity))
}

func TestTrainReproducesReferenceTransitions(t *testing.T) {
	text, err := corpus.Load("testdata/corpus.txt")
	require.NoError(t, err)
	trained, err := Train(text, DefaultOrder)
	require.NoError(t, err)

	ref, err := modelfile.Reference()
	require.NoError(t, err)

	require.Equal(t, ref.States(), trained.States())
	for _, state := range ref.States() {
		want, err := ref.TransitionTreeFor(state)
		require.NoError(t, err)
		got, err := trained.TransitionTreeFor(state)
		require.NoError(t, err)
		assert.Equal(t, codes(t, want), codes(t, got), "state %q", state)
	}
	assert.Equal(t, len(ref.States()), trained.Summary().SeedLeaves)
}

func TestTrainWeighted(t *testing.T) {
	words := []corpus.Word{
		{Text: "harbor", Weight: 3},
		{Text: "tide", Weight: 2},
		{Text: "reed", Weight: 1},
		{Text: "boat", Weight: 2},
	}
	m, err := TrainWeighted(words, DefaultOrder)
	require.NoError(t, err)
	assert.True(t, m.IsKnownState("r "))
	assert.True(t, m.IsKnownState(" t"))

	seq, err := markov.Generate(m, bits.Bits{T, F, T, T, F, F, T, F, T, T, T, F})
	require.NoError(t, err)
	assert.Equal(t, 12, markov.Entropy(seq))

	_, err = TrainWeighted(nil, DefaultOrder)
	require.Error(t, err)
}

func codes(t *testing.T, tr tree.Tree[rune]) map[rune]string {
	t.Helper()
	out := make(map[rune]string)
	err := tree.Walk(tr, func(path []bool, c rune) bool {
		var b strings.Builder
		for _, bit := range path {
			if bit {
				b.WriteByte('a')
			} else {
				b.WriteByte('b')
			}
		}
		out[c] = b.String()
		return true
	})
	require.NoError(t, err)
	return out
}
