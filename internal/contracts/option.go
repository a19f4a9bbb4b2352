package contracts

import (
	"fmt"
	"math"
	"time"
)

// OptionType distinguishes calls from puts
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// DateLayout is the wire format for expiration dates
const DateLayout = "2006-01-02"

// RawContract is one quote row exactly as the market data source returned it.
// Any field may be absent.
// ⭐ SSOT: data source → sanitizer
type RawContract struct {
	Symbol            string   `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Strike            *float64 `json:"strike" yaml:"strike"`
	Bid               *float64 `json:"bid" yaml:"bid"`
	Ask               *float64 `json:"ask" yaml:"ask"`
	ImpliedVolatility *float64 `json:"implied_volatility" yaml:"implied_volatility"`
	Volume            *int64   `json:"volume" yaml:"volume"`
	OpenInterest      *int64   `json:"open_interest" yaml:"open_interest"`
}

// Validate reports the first missing or non-finite required field
func (r RawContract) Validate() error {
	fields := []struct {
		name  string
		value *float64
	}{
		{"strike", r.Strike},
		{"bid", r.Bid},
		{"ask", r.Ask},
		{"implied_volatility", r.ImpliedVolatility},
	}
	for _, f := range fields {
		if f.value == nil {
			return fmt.Errorf("%s is missing", f.name)
		}
		if math.IsNaN(*f.value) || math.IsInf(*f.value, 0) {
			return fmt.Errorf("%s is not finite", f.name)
		}
	}
	if r.Strike != nil && *r.Strike <= 0 {
		return fmt.Errorf("strike must be positive")
	}
	return nil
}

// RawChain is the unfiltered quote snapshot for one expiry
type RawChain struct {
	Calls []RawContract `json:"calls" yaml:"calls"`
	Puts  []RawContract `json:"puts" yaml:"puts"`
}

// Contract is a quote that survived sanitization.
// Greeks are zero until WithGreeks is applied.
type Contract struct {
	Symbol            string     `json:"symbol,omitempty"`
	Type              OptionType `json:"type"`
	Strike            float64    `json:"strike"`
	Bid               float64    `json:"bid"`
	Ask               float64    `json:"ask"`
	ImpliedVolatility float64    `json:"implied_volatility"`
	Volume            int64      `json:"volume"`
	OpenInterest      int64      `json:"open_interest"`
	Moneyness         float64    `json:"moneyness"`
	Delta             float64    `json:"delta"`
	Vega              float64    `json:"vega"`
}

// WithGreeks returns a copy annotated with delta and vega
func (c Contract) WithGreeks(delta, vega float64) Contract {
	c.Delta = delta
	c.Vega = vega
	return c
}

// Mid returns the bid/ask midpoint
func (c Contract) Mid() float64 {
	return (c.Bid + c.Ask) / 2
}

// Spread returns ask minus bid
func (c Contract) Spread() float64 {
	return c.Ask - c.Bid
}

// IsOTM reports whether the contract has no intrinsic value at spot
func (c Contract) IsOTM(spot float64) bool {
	if c.Type == Call {
		return c.Strike > spot
	}
	return c.Strike < spot
}

// Chain is the sanitized contract set for one expiry
type Chain struct {
	Calls []Contract `json:"calls"`
	Puts  []Contract `json:"puts"`
}

// IsEmpty reports whether either side has no contracts
func (c *Chain) IsEmpty() bool {
	return c == nil || len(c.Calls) == 0 || len(c.Puts) == 0
}

// Expiry is one listed expiration with its calendar distance from the analysis date
type Expiry struct {
	Date      time.Time `json:"date"`
	DaysToExp int       `json:"days_to_exp"`
}

// Label formats the expiration date for reports
func (e Expiry) Label() string {
	return e.Date.Format(DateLayout)
}
