package ranking

import (
	"fmt"
	"math"
	"sort"

	"github.com/wonny/vegaedge/internal/contracts"
	"github.com/wonny/vegaedge/pkg/logger"
)

// neutralScore is assigned when a factor cannot be normalized
const neutralScore = 0.5

// Ranker scores pooled combinations and keeps a diversified top set
// ⭐ SSOT: ranking logic lives only here
type Ranker struct {
	weights      WeightConfig
	maxPerExpiry int
	logger       *logger.Logger
}

// WeightConfig defines factor weights for the composite score
type WeightConfig struct {
	Delta      float64
	Efficiency float64
	Vega       float64
}

// NewRanker creates a new ranker
func NewRanker(weights WeightConfig, maxPerExpiry int, log *logger.Logger) *Ranker {
	return &Ranker{
		weights:      weights,
		maxPerExpiry: maxPerExpiry,
		logger:       log.WithComponent("ranking"),
	}
}

// Rank normalizes every factor over the whole pooled set and orders by total score.
// Empty input returns an empty slice and nil error.
func (r *Ranker) Rank(strategy contracts.Strategy, combos []contracts.Combination) ([]contracts.RankedCombination, error) {
	ranked := make([]contracts.RankedCombination, 0, len(combos))
	if len(combos) == 0 {
		return ranked, nil
	}

	deltas := make([]float64, len(combos))
	vegas := make([]float64, len(combos))
	effs := make([]float64, len(combos))
	for i, c := range combos {
		deltas[i] = c.NetDelta
		vegas[i] = c.NetVega
		if strategy == contracts.Bearish {
			vegas[i] = math.Abs(c.NetVega)
		}
		effs[i] = c.Efficiency
	}

	for name, values := range map[string][]float64{"net_delta": deltas, "net_vega": vegas, "efficiency": effs} {
		if err := checkFinite(values); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", contracts.ErrNonFiniteFactor, name, err)
		}
	}

	// Bearish prefers more negative delta and smaller |vega|
	reverse := strategy == contracts.Bearish
	deltaScores := normalize(deltas, reverse)
	vegaScores := normalize(vegas, reverse)
	effScores := normalize(effs, false)

	for i, c := range combos {
		scores := contracts.ScoreDetail{
			Delta:      deltaScores[i],
			Vega:       vegaScores[i],
			Efficiency: effScores[i],
		}
		ranked = append(ranked, contracts.RankedCombination{
			Combination: c,
			TotalScore:  r.calculateTotalScore(scores),
			Scores:      scores,
		})
	}

	// Stable: ties keep enumeration order
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalScore > ranked[j].TotalScore
	})
	assignRanks(ranked)

	r.logger.WithFields(map[string]interface{}{
		"strategy":     strategy,
		"combinations": len(ranked),
		"top_score":    ranked[0].TotalScore,
		"top_strikes":  ranked[0].StrikesLabel(),
	}).Info("Ranking completed")

	return ranked, nil
}

// GroupByExpiry keeps at most maxPerExpiry entries per expiration from a ranked list
// and re-sorts the survivors by total score.
func (r *Ranker) GroupByExpiry(ranked []contracts.RankedCombination) []contracts.RankedCombination {
	counts := make(map[string]int)
	grouped := make([]contracts.RankedCombination, 0, len(ranked))
	for _, rc := range ranked {
		if counts[rc.Expiration] >= r.maxPerExpiry {
			continue
		}
		counts[rc.Expiration]++
		grouped = append(grouped, rc)
	}

	sort.SliceStable(grouped, func(i, j int) bool {
		return grouped[i].TotalScore > grouped[j].TotalScore
	})
	assignRanks(grouped)
	return grouped
}

// RankAndGroup runs Rank then GroupByExpiry
func (r *Ranker) RankAndGroup(strategy contracts.Strategy, combos []contracts.Combination) ([]contracts.RankedCombination, error) {
	ranked, err := r.Rank(strategy, combos)
	if err != nil {
		return nil, err
	}
	return r.GroupByExpiry(ranked), nil
}

// calculateTotalScore calculates weighted total score
func (r *Ranker) calculateTotalScore(s contracts.ScoreDetail) float64 {
	return s.Delta*r.weights.Delta +
		s.Efficiency*r.weights.Efficiency +
		s.Vega*r.weights.Vega
}

// ValidateWeights checks if weights sum to 1.0
func (w *WeightConfig) ValidateWeights() bool {
	return math.Abs(w.Delta+w.Efficiency+w.Vega-1.0) <= 1e-9
}

// DefaultWeightConfig returns the production weights
func DefaultWeightConfig() WeightConfig {
	return WeightConfig{
		Delta:      0.40,
		Efficiency: 0.40,
		Vega:       0.20,
	}
}

// normalize min-max scales values to [0,1].
// Fewer than two values or zero range gives every member neutralScore.
func normalize(values []float64, reverse bool) []float64 {
	out := make([]float64, len(values))
	if len(values) < 2 {
		for i := range out {
			out[i] = neutralScore
		}
		return out
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		for i := range out {
			out[i] = neutralScore
		}
		return out
	}

	for i, v := range values {
		n := (v - lo) / span
		if reverse {
			n = 1 - n
		}
		out[i] = n
	}
	return out
}

func checkFinite(values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("value %d is %v", i, v)
		}
	}
	return nil
}

func assignRanks(ranked []contracts.RankedCombination) {
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
}
