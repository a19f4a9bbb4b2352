package contracts

import "time"

// Status is the outcome of one analysis run
type Status string

const (
	StatusOK                Status = "ok"
	StatusNoData            Status = "no_data"
	StatusNoValidStrategies Status = "no_valid_strategies"
	StatusError             Status = "error"
)

// ExpiryStatus is the outcome for one analyzed expiry
type ExpiryStatus string

const (
	ExpiryOK                  ExpiryStatus = "ok"
	ExpiryFetchFailed         ExpiryStatus = "fetch_failed"
	ExpiryEmptyAfterFilter    ExpiryStatus = "empty_after_filter"
	ExpiryNoValidCombinations ExpiryStatus = "no_valid_combinations"
)

// ExpirySummary records how many valid candidates one expiry produced
type ExpirySummary struct {
	Expiration string       `json:"expiration"`
	DaysToExp  int          `json:"days_to_exp"`
	Candidates int          `json:"candidates"`
	Status     ExpiryStatus `json:"status"`
	Error      string       `json:"error,omitempty"`
}

// TableRow is one line of the top-N table
type TableRow struct {
	Rank          int     `json:"rank"`
	Expiration    string  `json:"expiration"`
	Strikes       string  `json:"strikes"`
	NetCost       float64 `json:"net_cost"`
	CostLabel     string  `json:"cost_label"` // CREDIT or DEBIT
	NetVega       float64 `json:"net_vega"`
	EfficiencyPct float64 `json:"efficiency_pct"`
	Score         float64 `json:"score"`
}

// Report is the full result of one analysis run.
// Text and JSON renderings are both derived from it.
// ⭐ SSOT: engine → boundary layer (CLI, HTTP)
type Report struct {
	Ticker      string    `json:"ticker"`
	Strategy    Strategy  `json:"strategy"`
	Status      Status    `json:"status"`
	Message     string    `json:"message,omitempty"`
	Spot        float64   `json:"spot,omitempty"`
	MinDTE      int       `json:"min_dte"`
	MaxDTE      int       `json:"max_dte"`
	GeneratedAt time.Time `json:"generated_at"`
	ConfigHash  string    `json:"config_hash,omitempty"`

	Top          *RankedCombination  `json:"top,omitempty"`
	Risk         string              `json:"risk,omitempty"`
	Summary      []ExpirySummary     `json:"summary"`
	Combinations []RankedCombination `json:"combinations"`
	Table        []TableRow          `json:"table"`
}

// OK reports whether the run produced recommendations
func (r *Report) OK() bool {
	return r.Status == StatusOK && r.Top != nil
}
