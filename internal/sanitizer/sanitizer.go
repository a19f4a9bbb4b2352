package sanitizer

import (
	"fmt"

	"github.com/wonny/vegaedge/internal/contracts"
	"github.com/wonny/vegaedge/pkg/logger"
)

// Drop reasons reported in Stats.Dropped
const (
	ReasonMalformed  = "malformed"
	ReasonLowIV      = "low_iv"
	ReasonNoBid      = "no_bid"
	ReasonNoAsk      = "no_ask"
	ReasonNoActivity = "no_activity"
	ReasonWideSpread = "wide_spread"
)

// Sanitizer removes illiquid or unreliable quotes from a raw chain
// ⭐ SSOT: quote quality gate lives only here
type Sanitizer struct {
	config Config
	logger *logger.Logger
}

// Config defines the quality thresholds
type Config struct {
	MinImpliedVolatility float64 // keep iv > this
	MaxSpreadRatio       float64 // keep (ask-bid)/ask < this
}

// Stats summarizes one sanitization pass
type Stats struct {
	Input   int            `json:"input"`
	Kept    int            `json:"kept"`
	Dropped map[string]int `json:"dropped"` // reason -> count
}

// New creates a new sanitizer
func New(config Config, log *logger.Logger) *Sanitizer {
	return &Sanitizer{
		config: config,
		logger: log.WithComponent("sanitizer"),
	}
}

// Sanitize keeps only contracts passing every filter and annotates moneyness.
// A bad contract is dropped on its own; it never fails the chain.
func (s *Sanitizer) Sanitize(raw *contracts.RawChain, spot float64) (*contracts.Chain, Stats, error) {
	stats := Stats{Dropped: make(map[string]int)}
	if spot <= 0 {
		return nil, stats, fmt.Errorf("spot must be positive, got %v", spot)
	}

	chain := &contracts.Chain{}
	if raw == nil {
		return chain, stats, nil
	}

	chain.Calls = s.filter(raw.Calls, contracts.Call, spot, &stats)
	chain.Puts = s.filter(raw.Puts, contracts.Put, spot, &stats)

	s.logger.WithFields(map[string]interface{}{
		"total_input":  stats.Input,
		"calls":        len(chain.Calls),
		"puts":         len(chain.Puts),
		"filtered_out": stats.Input - stats.Kept,
		"filters":      stats.Dropped,
	}).Debug("Sanitization completed")

	return chain, stats, nil
}

func (s *Sanitizer) filter(raws []contracts.RawContract, typ contracts.OptionType, spot float64, stats *Stats) []contracts.Contract {
	kept := make([]contracts.Contract, 0, len(raws))
	for _, raw := range raws {
		stats.Input++
		c, reason := s.checkConditions(raw, typ)
		if reason != "" {
			stats.Dropped[reason]++
			continue
		}
		c.Moneyness = c.Strike / spot
		kept = append(kept, c)
		stats.Kept++
	}
	return kept
}

// checkConditions returns the contract and "" when it passes, or the first failed filter
func (s *Sanitizer) checkConditions(raw contracts.RawContract, typ contracts.OptionType) (contracts.Contract, string) {
	if err := raw.Validate(); err != nil {
		return contracts.Contract{}, ReasonMalformed
	}

	c := contracts.Contract{
		Symbol:            raw.Symbol,
		Type:              typ,
		Strike:            *raw.Strike,
		Bid:               *raw.Bid,
		Ask:               *raw.Ask,
		ImpliedVolatility: *raw.ImpliedVolatility,
	}
	if raw.Volume != nil {
		c.Volume = *raw.Volume
	}
	if raw.OpenInterest != nil {
		c.OpenInterest = *raw.OpenInterest
	}

	if c.ImpliedVolatility <= s.config.MinImpliedVolatility {
		return c, ReasonLowIV
	}
	if c.Bid <= 0 {
		return c, ReasonNoBid
	}
	// ask > 0 also guards the spread ratio below
	if c.Ask <= 0 {
		return c, ReasonNoAsk
	}
	if c.Volume <= 0 && c.OpenInterest <= 0 {
		return c, ReasonNoActivity
	}
	if (c.Ask-c.Bid)/c.Ask >= s.config.MaxSpreadRatio {
		return c, ReasonWideSpread
	}

	return c, ""
}
