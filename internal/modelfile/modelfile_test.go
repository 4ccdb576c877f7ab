package modelfile

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/molishai/internal/bits"
	"github.com/verte-zerg/molishai/internal/markov"
	"github.com/verte-zerg/molishai/internal/tree"
)

const (
	T = true
	F = false
)

func TestReferenceModelShape(t *testing.T) {
	m, err := Reference()
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	sum := m.Summary()
	assert.Equal(t, 2, sum.Order)
	assert.Equal(t, 274, sum.States)
	assert.Equal(t, 274, sum.SeedLeaves)
	assert.Equal(t, 11, sum.SeedDepth)
	assert.Equal(t, 6, sum.MaxTransitionDepth)
	assert.Equal(t, 106, sum.ZeroBitStates)

	again, err := Reference()
	require.NoError(t, err)
	assert.Same(t, m, again)
}

func TestReferenceRegression(t *testing.T) {
	m, err := Reference()
	require.NoError(t, err)

	tests := []struct {
		name     string
		in       bits.Bits
		password string
		symbols  []markov.Symbol
	}{
		{
			name:     "seed only",
			in:       bits.Bits{T, T, F, T},
			password: "av",
			symbols:  []markov.Symbol{{Text: "av", Bits: 4}},
		},
		{
			name:     "eleven bits",
			in:       bits.Bits{T, T, F, T, T, F, T, T, F, T, F},
			password: "avell ",
			symbols: []markov.Symbol{
				{Text: "av", Bits: 4}, {Text: "e", Bits: 1}, {Text: "l", Bits: 3},
				{Text: "l", Bits: 2}, {Text: " ", Bits: 1},
			},
		},
		{
			name:     "sixteen bits",
			in:       bits.Bits{F, T, T, F, T, F, F, T, T, T, F, F, T, F, T, T},
			password: "more p",
			symbols: []markov.Symbol{
				{Text: "mo", Bits: 10}, {Text: "r", Bits: 1}, {Text: "e", Bits: 2},
				{Text: " ", Bits: 1}, {Text: "p", Bits: 2},
			},
		},
		{
			name:     "all zero",
			in:       bits.Bits{F, F, F, F, F, F, F, F},
			password: "ell",
			symbols:  []markov.Symbol{{Text: "el", Bits: 7}, {Text: "l", Bits: 1}},
		},
		{
			name:     "all one",
			in:       bits.Bits{T, T, T, T, T, T, T, T},
			password: "e p",
			symbols:  []markov.Symbol{{Text: "e ", Bits: 5}, {Text: "p", Bits: 3}},
		},
		{
			name:     "single bit",
			in:       bits.Bits{F},
			password: " b",
			symbols:  []markov.Symbol{{Text: " b", Bits: 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := markov.Generate(m, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.symbols, seq)
			assert.Equal(t, tt.password, markov.Assemble(seq))
			assert.Equal(t, len(tt.in), markov.Entropy(seq))

			again, err := markov.Generate(m, tt.in)
			require.NoError(t, err)
			assert.Equal(t, markov.Assemble(seq), markov.Assemble(again))
		})
	}
}

func TestReferenceFiftySixBits(t *testing.T) {
	m, err := Reference()
	require.NoError(t, err)
	in, err := bits.FromHex("d6fb15e976c85b", 56)
	require.NoError(t, err)
	seq, err := markov.Generate(m, in)
	require.NoError(t, err)
	assert.Equal(t, "avy me chat thatens tabody s", markov.Assemble(seq))
	assert.Equal(t, 56, markov.Entropy(seq))
	// zero-bit steps come from single-leaf states such as "vy"
	assert.Equal(t, markov.Symbol{Text: " ", Bits: 0}, seq[2])
}

func TestReferenceTrees(t *testing.T) {
	m, err := Reference()
	require.NoError(t, err)

	seed, rest := tree.Traverse(m.Seed(), nil)
	assert.Equal(t, markov.State("e "), seed)
	assert.Empty(t, rest)

	re, err := m.TransitionTreeFor("re")
	require.NoError(t, err)
	c, rest := tree.Traverse(re, []bool{T, F, T, T, F, T, F})
	assert.Equal(t, 'n', c)
	assert.Equal(t, []bool{T, F, T, F}, rest)

	assert.True(t, m.IsKnownState("av"))
	assert.False(t, m.IsKnownState("XQ"))
}

func TestDecodeSmallModel(t *testing.T) {
	doc := `
order: 1
seed: {a: "x", b: "y"}
transitions:
  x: {a: "y", b: "x"}
  "y": "x"
`
	m, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	seq, err := markov.Generate(m, bits.Bits{F, T})
	require.NoError(t, err)
	assert.Equal(t, "yxy", markov.Assemble(seq))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{name: "no order", doc: `seed: "x"`, msg: "order"},
		{name: "no seed", doc: "order: 1\ntransitions:\n  x: \"x\"\n", msg: "no seed"},
		{name: "seed width", doc: "order: 2\nseed: \"x\"\n", msg: "runes"},
		{name: "multi rune leaf", doc: "order: 1\nseed: \"x\"\ntransitions:\n  x: \"xy\"\n", msg: "single character"},
		{name: "bad key", doc: "order: 1\nseed: {a: \"x\", c: \"x\"}\n", msg: "unexpected branch key"},
		{name: "half branch", doc: "order: 1\nseed: {a: \"x\"}\n", msg: "both a and b"},
		{name: "sequence node", doc: "order: 1\nseed: [x]\n", msg: "scalar"},
		{name: "missing state", doc: "order: 1\nseed: \"x\"\ntransitions:\n  x: {a: \"x\", b: \"q\"}\n", msg: `"q"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	m, err := Reference()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, m))
	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, m.Summary(), back.Summary())
	assert.Equal(t, m.States(), back.States())

	in := bits.Bits{T, T, F, T, T, F, T, T, F, T, F, F, T, T, F, T, F, T}
	want, err := markov.Generate(m, in)
	require.NoError(t, err)
	got, err := markov.Generate(back, in)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveAndLoad(t *testing.T) {
	m, err := Reference()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "models", "copy.yaml")
	require.NoError(t, Save(path, m))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.States(), loaded.States())

	ref, err := Load("")
	require.NoError(t, err)
	assert.Same(t, m, ref)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
