package contracts

import (
	"fmt"
	"strings"
)

// Strategy selects the risk-reversal direction
type Strategy string

const (
	// Bullish is long call + short put (synthetic long)
	Bullish Strategy = "bullish"
	// Bearish is long put + short call (synthetic short)
	Bearish Strategy = "bearish"
)

// ParseStrategy accepts "bullish" or "bearish" in any case
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case Bullish:
		return Bullish, nil
	case Bearish:
		return Bearish, nil
	}
	return "", fmt.Errorf("%w: unknown strategy %q", ErrInvalidRequest, s)
}

// Title returns "Bullish" or "Bearish"
func (s Strategy) Title() string {
	if s == Bearish {
		return "Bearish"
	}
	return "Bullish"
}

// DisplayName returns the human label used in reports
func (s Strategy) DisplayName() string {
	return s.Title() + " Risk Reversal"
}

// LongType is the option type bought by the strategy
func (s Strategy) LongType() OptionType {
	if s == Bearish {
		return Put
	}
	return Call
}

// PricingComparison shows the same position under three fill assumptions.
// It is informational only and never feeds ranking.
type PricingComparison struct {
	Current     float64 `json:"current"`    // pay ask, receive bid
	Mid         float64 `json:"mid"`        // both legs at mid
	Optimistic  float64 `json:"optimistic"` // pay bid, receive ask
	CallSpread  float64 `json:"call_spread"`
	PutSpread   float64 `json:"put_spread"`
	TotalSpread float64 `json:"total_spread"`
	CallMid     float64 `json:"call_mid"`
	PutMid      float64 `json:"put_mid"`
}

// Combination is one validated two-leg risk reversal
// ⭐ SSOT: generator → ranking
type Combination struct {
	Strategy   Strategy `json:"strategy"`
	Expiration string   `json:"expiration"`
	DaysToExp  int      `json:"days_to_exp"`

	// Bullish: long call / short put. Bearish: long put / short call.
	LongStrike  float64 `json:"long_strike"`
	ShortStrike float64 `json:"short_strike"`

	NetCost    float64 `json:"net_cost"` // negative = credit
	NetDelta   float64 `json:"net_delta"`
	NetVega    float64 `json:"net_vega"`
	Breakeven  float64 `json:"breakeven"`
	Efficiency float64 `json:"efficiency"`
	StrikeDiff float64 `json:"strike_diff"`

	// Bullish: put strike minus net premium (downside). Bearish: call strike plus net premium (upside).
	MaxLoss     float64 `json:"max_loss"`
	IVAdvantage float64 `json:"iv_advantage"`

	Call    Contract          `json:"call"`
	Put     Contract          `json:"put"`
	Pricing PricingComparison `json:"pricing"`
}

// CallStrike returns the strike of the call leg
func (c Combination) CallStrike() float64 {
	return c.Call.Strike
}

// PutStrike returns the strike of the put leg
func (c Combination) PutStrike() float64 {
	return c.Put.Strike
}

// IsCredit reports whether the position is opened for a net credit
func (c Combination) IsCredit() bool {
	return c.NetCost < 0
}

// StrikesLabel formats "$long/short" as shown in the report table
func (c Combination) StrikesLabel() string {
	return fmt.Sprintf("$%.2f/%.2f", c.LongStrike, c.ShortStrike)
}
