package ranking

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vegaedge/internal/contracts"
	"github.com/wonny/vegaedge/pkg/logger"
)

func newTestRanker() *Ranker {
	return NewRanker(DefaultWeightConfig(), 3, logger.Nop())
}

func combo(exp string, long float64, delta, vega, eff float64) contracts.Combination {
	return contracts.Combination{
		Expiration:  exp,
		LongStrike:  long,
		ShortStrike: long - 10,
		NetDelta:    delta,
		NetVega:     vega,
		Efficiency:  eff,
	}
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	w := DefaultWeightConfig()
	assert.True(t, w.ValidateWeights())
	assert.Equal(t, 1.0, w.Delta+w.Efficiency+w.Vega)

	bad := WeightConfig{Delta: 0.5, Efficiency: 0.5, Vega: 0.2}
	assert.False(t, bad.ValidateWeights())
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		reverse bool
		want    []float64
	}{
		{"empty", nil, false, []float64{}},
		{"single", []float64{0.3}, false, []float64{0.5}},
		{"single reversed", []float64{0.3}, true, []float64{0.5}},
		{"zero variance", []float64{0.2, 0.2, 0.2}, false, []float64{0.5, 0.5, 0.5}},
		{"zero variance reversed", []float64{0.2, 0.2}, true, []float64{0.5, 0.5}},
		{"forward", []float64{1, 2, 3}, false, []float64{0, 0.5, 1}},
		{"reverse", []float64{1, 2, 3}, true, []float64{1, 0.5, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalize(tt.values, tt.reverse)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-12)
			}
		})
	}
}

func TestRankEmpty(t *testing.T) {
	ranked, err := newTestRanker().Rank(contracts.Bullish, nil)
	require.NoError(t, err)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)

	grouped, err := newTestRanker().RankAndGroup(contracts.Bearish, []contracts.Combination{})
	require.NoError(t, err)
	assert.Empty(t, grouped)
}

func TestRankSingleCombination(t *testing.T) {
	ranked, err := newTestRanker().Rank(contracts.Bullish, []contracts.Combination{combo("2025-02-21", 110, 0.28, 0.008, -0.035)})
	require.NoError(t, err)
	require.Len(t, ranked, 1)

	assert.Equal(t, contracts.ScoreDetail{Delta: 0.5, Vega: 0.5, Efficiency: 0.5}, ranked[0].Scores)
	assert.InDelta(t, 0.5, ranked[0].TotalScore, 1e-12)
	assert.Equal(t, 1, ranked[0].Rank)
}

func TestRankBullish(t *testing.T) {
	combos := []contracts.Combination{
		combo("2025-02-21", 110, 0.20, 0.010, -0.05), // worst everywhere
		combo("2025-02-21", 115, 0.40, 0.030, 0.05),  // best everywhere
		combo("2025-02-21", 120, 0.30, 0.020, 0.00),  // middle
	}

	ranked, err := newTestRanker().Rank(contracts.Bullish, combos)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, 115.0, ranked[0].LongStrike)
	assert.InDelta(t, 1.0, ranked[0].TotalScore, 1e-12)
	assert.Equal(t, 120.0, ranked[1].LongStrike)
	assert.InDelta(t, 0.5, ranked[1].TotalScore, 1e-12)
	assert.Equal(t, 110.0, ranked[2].LongStrike)
	assert.InDelta(t, 0.0, ranked[2].TotalScore, 1e-12)

	for i, rc := range ranked {
		assert.Equal(t, i+1, rc.Rank)
	}
}

func TestRankBearishReversesDeltaAndAbsVega(t *testing.T) {
	combos := []contracts.Combination{
		combo("2025-02-21", 90, -0.15, -0.030, 0.01),
		combo("2025-02-21", 85, -0.35, 0.001, 0.01),
	}

	ranked, err := newTestRanker().Rank(contracts.Bearish, combos)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	// -0.35 delta and |0.001| vega win both reversed factors; efficiency ties
	top := ranked[0]
	assert.Equal(t, 85.0, top.LongStrike)
	assert.Equal(t, 1.0, top.Scores.Delta)
	assert.Equal(t, 1.0, top.Scores.Vega)
	assert.Equal(t, 0.5, top.Scores.Efficiency)
	assert.InDelta(t, 0.40+0.20+0.20, top.TotalScore, 1e-12)

	assert.Equal(t, 0.0, ranked[1].Scores.Delta)
	assert.Equal(t, 0.0, ranked[1].Scores.Vega)
}

func TestIdenticalEfficiencyGetsNeutralScore(t *testing.T) {
	combos := []contracts.Combination{
		combo("2025-02-21", 110, 0.20, 0.010, 0.02),
		combo("2025-03-21", 115, 0.40, 0.030, 0.02),
		combo("2025-04-17", 120, 0.30, 0.020, 0.02),
	}

	ranked, err := newTestRanker().Rank(contracts.Bullish, combos)
	require.NoError(t, err)
	for _, rc := range ranked {
		assert.Equal(t, 0.5, rc.Scores.Efficiency)
	}
}

func TestStableTieBreak(t *testing.T) {
	combos := []contracts.Combination{
		combo("2025-02-21", 110, 0.3, 0.01, 0.01),
		combo("2025-02-21", 111, 0.3, 0.01, 0.01),
		combo("2025-02-21", 112, 0.3, 0.01, 0.01),
	}

	ranked, err := newTestRanker().Rank(contracts.Bullish, combos)
	require.NoError(t, err)
	assert.Equal(t, []float64{110, 111, 112}, []float64{ranked[0].LongStrike, ranked[1].LongStrike, ranked[2].LongStrike})
}

func TestRankIsIdempotent(t *testing.T) {
	combos := []contracts.Combination{
		combo("2025-02-21", 110, 0.21, 0.011, -0.02),
		combo("2025-02-21", 115, 0.33, 0.004, 0.01),
		combo("2025-03-21", 120, 0.33, 0.004, 0.01),
		combo("2025-03-21", 125, 0.45, 0.020, -0.04),
		combo("2025-04-17", 130, 0.18, 0.030, 0.03),
	}

	r := newTestRanker()
	first, err := r.Rank(contracts.Bullish, combos)
	require.NoError(t, err)

	again := make([]contracts.Combination, len(first))
	for i, rc := range first {
		again[i] = rc.Combination
	}
	second, err := r.Rank(contracts.Bullish, again)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGroupByExpiryCapsPerExpiry(t *testing.T) {
	var combos []contracts.Combination
	for i := 0; i < 6; i++ {
		combos = append(combos, combo("2025-02-21", 110+float64(i), 0.5-float64(i)*0.01, 0.02, 0.05))
	}
	combos = append(combos,
		combo("2025-03-21", 140, 0.2, 0.01, -0.05),
		combo("2025-03-21", 141, 0.21, 0.01, -0.05),
	)

	grouped, err := newTestRanker().RankAndGroup(contracts.Bullish, combos)
	require.NoError(t, err)
	require.Len(t, grouped, 5)

	perExpiry := map[string]int{}
	for i, rc := range grouped {
		perExpiry[rc.Expiration]++
		assert.Equal(t, i+1, rc.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, grouped[i-1].TotalScore, rc.TotalScore)
		}
	}
	assert.Equal(t, 3, perExpiry["2025-02-21"])
	assert.Equal(t, 2, perExpiry["2025-03-21"])

	// the three best of the crowded expiry survive
	assert.Equal(t, 110.0, grouped[0].LongStrike)
	assert.Equal(t, 111.0, grouped[1].LongStrike)
	assert.Equal(t, 112.0, grouped[2].LongStrike)
}

func TestNormalizationIsPooledNotPerExpiry(t *testing.T) {
	combos := []contracts.Combination{
		combo("2025-02-21", 110, 0.2, 0.01, 0.00),
		combo("2025-03-21", 120, 0.4, 0.01, 0.00),
	}

	ranked, err := newTestRanker().Rank(contracts.Bullish, combos)
	require.NoError(t, err)

	// per-expiry normalization would give both 0.5
	assert.Equal(t, 1.0, ranked[0].Scores.Delta)
	assert.Equal(t, 0.0, ranked[1].Scores.Delta)
}

func TestRankNonFinite(t *testing.T) {
	combos := []contracts.Combination{
		combo("2025-02-21", 110, math.NaN(), 0.01, 0.0),
		combo("2025-02-21", 115, 0.2, 0.01, 0.0),
	}

	_, err := newTestRanker().Rank(contracts.Bullish, combos)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrNonFiniteFactor))
}
