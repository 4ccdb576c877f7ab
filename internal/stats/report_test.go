package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/molishai/internal/model"
	"github.com/verte-zerg/molishai/internal/store"
)

func TestBuildReport(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var records []model.GenerationRecord
	for i := 0; i < 3; i++ {
		records = append(records, model.GenerationRecord{
			GeneratedAt:   time.Unix(0, 0).Add(time.Duration(i) * time.Minute),
			ModelName:     "reference",
			RequestedBits: 56,
			SymbolCount:   20,
			PasswordRunes: 21,
			BitHistogram:  map[int]int{0: 4, 2: 10, 4: 6 + i},
		})
	}
	ids, err := st.InsertGenerations(ctx, records)
	require.NoError(t, err)

	report, err := BuildReport(ctx, st, model.StatsConfig{
		ModelName:   "reference",
		Last:        2,
		CurveWindow: 1,
	})
	require.NoError(t, err)
	require.Len(t, report.Generations, 2)
	assert.Equal(t, ids[1], report.Generations[0].ID)
	assert.Equal(t, ids[2], report.Generations[1].ID)
	require.Len(t, report.Buckets, 3)
	assert.Equal(t, model.BitBucket{Bits: 4, Symbols: 7 + 8}, report.Buckets[2])
	require.Len(t, report.WindowBuckets, 3)
	assert.Equal(t, model.BitBucket{Bits: 4, Symbols: 8}, report.WindowBuckets[2])

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, report, 40))
	out := buf.String()
	for _, want := range []string{"Generations: 2", "Bits per symbol (last 1)", "Bits per char"} {
		assert.Contains(t, out, want)
	}
}

func TestWindowConfig(t *testing.T) {
	tests := []struct {
		last, window, want int
	}{
		{last: 0, window: 0, want: 0},
		{last: 0, window: 5, want: 5},
		{last: 10, window: 5, want: 5},
		{last: 3, window: 5, want: 3},
		{last: 4, window: 0, want: 4},
	}
	for _, tt := range tests {
		got := windowConfig(model.StatsConfig{ModelName: "m", Last: tt.last, CurveWindow: tt.window})
		assert.Equal(t, tt.want, got.Last, "last=%d window=%d", tt.last, tt.window)
		assert.Equal(t, "m", got.ModelName)
	}
}
