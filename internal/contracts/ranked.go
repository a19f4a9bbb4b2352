package contracts

// RankedCombination is a Combination with its normalized factor scores
// ⭐ SSOT: ranking → report
type RankedCombination struct {
	Combination
	Rank       int         `json:"rank"`        // 1-based ranking
	TotalScore float64     `json:"total_score"` // Composite score
	Scores     ScoreDetail `json:"scores"`      // Individual scores
}

// ScoreDetail contains the normalized factor scores in [0,1]
type ScoreDetail struct {
	Delta      float64 `json:"delta_score"`
	Vega       float64 `json:"vega_score"`
	Efficiency float64 `json:"efficiency_score"`
}

// IsTopRanked checks if the combination is in the top N ranks
func (r *RankedCombination) IsTopRanked(n int) bool {
	return r.Rank <= n && r.Rank > 0
}
