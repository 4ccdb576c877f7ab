// Package stats summarizes the generation audit log.
package stats

import (
	"context"

	"github.com/verte-zerg/molishai/internal/model"
	"github.com/verte-zerg/molishai/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Generations   []model.GenerationAggregate
	Buckets       []model.BitBucket
	WindowBuckets []model.BitBucket
	CurveWindow   int
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	gens, err := st.ListGenerations(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	buckets, err := st.ListBitBuckets(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	windowBuckets, err := st.ListBitBuckets(ctx, windowConfig(cfg))
	if err != nil {
		return Report{}, err
	}
	return Report{
		Generations:   gens,
		Buckets:       buckets,
		WindowBuckets: windowBuckets,
		CurveWindow:   cfg.CurveWindow,
	}, nil
}

// windowConfig narrows cfg to the most recent CurveWindow generations.
func windowConfig(cfg model.StatsConfig) model.StatsConfig {
	if cfg.CurveWindow > 0 && (cfg.Last == 0 || cfg.CurveWindow < cfg.Last) {
		cfg.Last = cfg.CurveWindow
	}
	return cfg
}
