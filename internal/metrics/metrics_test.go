package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/molishai/internal/bits"
	"github.com/verte-zerg/molishai/internal/markov"
	"github.com/verte-zerg/molishai/internal/password"
)

func sampleResult() password.Result {
	return password.Result{
		Password: "avell",
		Bits:     make(bits.Bits, 7),
		Symbols: []markov.Symbol{
			{Text: "av", Bits: 4},
			{Text: "e", Bits: 1},
			{Text: "l", Bits: 2},
			{Text: "l", Bits: 0},
		},
	}
}

func TestObserve(t *testing.T) {
	m := New("reference")
	observe := m.Observer()
	observe(sampleResult())
	observe(sampleResult())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("reference")))
	assert.Equal(t, 14.0, testutil.ToFloat64(m.BitsTotal.WithLabelValues("reference")))
	count, err := testutil.GatherAndCount(m.Registry())
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestWriteTextfile(t *testing.T) {
	m := New("reference")
	m.Observe(sampleResult())

	path := filepath.Join(t.TempDir(), "molishai.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `molishai_generations_total{model="reference"} 1`)
	assert.Contains(t, out, `molishai_symbol_bits_count{model="reference"} 4`)
	assert.Contains(t, out, `molishai_password_runes_sum{model="reference"} 5`)
	assert.NotContains(t, out, "avell")
}
