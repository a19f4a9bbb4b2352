package combination

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/wonny/vegaedge/internal/contracts"
	"github.com/wonny/vegaedge/internal/pricing"
	"github.com/wonny/vegaedge/pkg/logger"
)

// Rejection reasons reported in Stats.Rejected
const (
	RejectStrikeOrder = "strike_order"
	RejectNetCost     = "net_cost"
	RejectNetDelta    = "net_delta"
	RejectNetVega     = "net_vega"
	RejectNonFinite   = "non_finite"
)

// Generator pairs OTM calls and puts of one expiry into risk reversals
// ⭐ SSOT: pairing economics and validity gating live only here
type Generator struct {
	config Config
	logger *logger.Logger
}

// Config holds market inputs and gate thresholds
type Config struct {
	RiskFreeRate  float64
	DividendYield float64

	MaxStrikeDistancePct float64 // legs must lie within this fraction of spot
	MaxAbsNetCost        float64

	BullishMinNetDelta float64 // reject net_delta <= this
	BullishMinNetVega  float64 // reject net_vega <= this
	BearishMaxNetDelta float64 // reject net_delta >= this
	BearishMaxNetVega  float64 // reject net_vega > this
}

// Stats summarizes one generation pass
type Stats struct {
	EligibleCalls int            `json:"eligible_calls"`
	EligiblePuts  int            `json:"eligible_puts"`
	Pairs         int            `json:"pairs"`
	Valid         int            `json:"valid"`
	Rejected      map[string]int `json:"rejected"`
	GreeksSkipped int            `json:"greeks_skipped"`
}

// Empty reports whether OTM and distance filtering left a side with no legs
func (s Stats) Empty() bool {
	return s.EligibleCalls == 0 || s.EligiblePuts == 0
}

// NewGenerator creates a new generator
func NewGenerator(config Config, log *logger.Logger) *Generator {
	return &Generator{
		config: config,
		logger: log.WithComponent("combination"),
	}
}

// Generate annotates greeks, filters legs and returns every combination that passes the gate.
// An expiry with no eligible legs yields an empty slice and no error.
func (g *Generator) Generate(strategy contracts.Strategy, chain *contracts.Chain, spot float64, expiry contracts.Expiry) ([]contracts.Combination, Stats, error) {
	stats := Stats{Rejected: make(map[string]int)}

	if spot <= 0 || math.IsNaN(spot) || math.IsInf(spot, 0) {
		return nil, stats, fmt.Errorf("spot must be positive and finite, got %v", spot)
	}
	if strategy != contracts.Bullish && strategy != contracts.Bearish {
		return nil, stats, fmt.Errorf("%w: unknown strategy %q", contracts.ErrInvalidRequest, strategy)
	}

	combos := make([]contracts.Combination, 0)
	if chain == nil {
		return combos, stats, nil
	}

	T := pricing.YearsToExpiry(expiry.DaysToExp)

	calls := g.eligible(g.annotate(chain.Calls, spot, T, &stats), spot)
	puts := g.eligible(g.annotate(chain.Puts, spot, T, &stats), spot)
	stats.EligibleCalls = len(calls)
	stats.EligiblePuts = len(puts)

	if stats.Empty() {
		return combos, stats, nil
	}

	switch strategy {
	case contracts.Bullish:
		for _, call := range calls {
			for _, put := range puts {
				combo, reason := g.bullish(call, put, expiry)
				g.collect(&combos, &stats, combo, reason)
			}
		}
	case contracts.Bearish:
		for _, put := range puts {
			for _, call := range calls {
				combo, reason := g.bearish(call, put, expiry)
				g.collect(&combos, &stats, combo, reason)
			}
		}
	}

	stats.Valid = len(combos)

	g.logger.WithFields(map[string]interface{}{
		"strategy":   strategy,
		"expiration": expiry.Label(),
		"calls":      stats.EligibleCalls,
		"puts":       stats.EligiblePuts,
		"pairs":      stats.Pairs,
		"valid":      stats.Valid,
		"rejected":   stats.Rejected,
	}).Debug("Combination generation completed")

	return combos, stats, nil
}

func (g *Generator) collect(combos *[]contracts.Combination, stats *Stats, combo contracts.Combination, reason string) {
	stats.Pairs++
	if reason != "" {
		stats.Rejected[reason]++
		return
	}
	*combos = append(*combos, combo)
}

// annotate attaches delta and vega, skipping contracts the model cannot price
func (g *Generator) annotate(legs []contracts.Contract, spot, T float64, stats *Stats) []contracts.Contract {
	out := make([]contracts.Contract, 0, len(legs))
	for _, c := range legs {
		greeks, err := pricing.Compute(pricing.Inputs{
			Spot:          spot,
			Strike:        c.Strike,
			T:             T,
			Rate:          g.config.RiskFreeRate,
			Volatility:    c.ImpliedVolatility,
			DividendYield: g.config.DividendYield,
		}, c.Type)
		if err != nil {
			stats.GreeksSkipped++
			g.logger.WithError(err).WithField("strike", c.Strike).Debug("Skipping contract without greeks")
			continue
		}
		out = append(out, c.WithGreeks(greeks.Delta, greeks.Vega))
	}
	return out
}

// eligible keeps OTM legs within the strike distance band
func (g *Generator) eligible(legs []contracts.Contract, spot float64) []contracts.Contract {
	maxDistance := spot * g.config.MaxStrikeDistancePct
	out := make([]contracts.Contract, 0, len(legs))
	for _, c := range legs {
		if !c.IsOTM(spot) {
			continue
		}
		if c.Type == contracts.Call && c.Strike >= spot+maxDistance {
			continue
		}
		if c.Type == contracts.Put && c.Strike <= spot-maxDistance {
			continue
		}
		out = append(out, c)
	}
	return out
}

// bullish evaluates long call + short put
func (g *Generator) bullish(call, put contracts.Contract, expiry contracts.Expiry) (contracts.Combination, string) {
	if call.Strike <= put.Strike {
		return contracts.Combination{}, RejectStrikeOrder
	}

	netCost := sub(call.Ask, put.Bid)
	strikeDiff := sub(call.Strike, put.Strike)
	if math.Abs(netCost) > g.config.MaxAbsNetCost {
		return contracts.Combination{}, RejectNetCost
	}

	netDelta := call.Delta - put.Delta
	netVega := call.Vega - put.Vega
	if netDelta <= g.config.BullishMinNetDelta {
		return contracts.Combination{}, RejectNetDelta
	}
	if netVega <= g.config.BullishMinNetVega {
		return contracts.Combination{}, RejectNetVega
	}

	combo := contracts.Combination{
		Strategy:    contracts.Bullish,
		Expiration:  expiry.Label(),
		DaysToExp:   expiry.DaysToExp,
		LongStrike:  call.Strike,
		ShortStrike: put.Strike,
		NetCost:     netCost,
		NetDelta:    netDelta,
		NetVega:     netVega,
		Breakeven:   add(call.Strike, netCost),
		Efficiency:  efficiency(netCost, strikeDiff),
		StrikeDiff:  strikeDiff,
		MaxLoss:     sub(put.Strike, sub(put.Bid, call.Ask)),
		IVAdvantage: put.ImpliedVolatility - call.ImpliedVolatility,
		Call:        call,
		Put:         put,
		Pricing:     comparePricing(call, put, contracts.Bullish),
	}
	return g.finish(combo)
}

// bearish evaluates long put + short call
func (g *Generator) bearish(call, put contracts.Contract, expiry contracts.Expiry) (contracts.Combination, string) {
	if put.Strike >= call.Strike {
		return contracts.Combination{}, RejectStrikeOrder
	}

	netCost := sub(put.Ask, call.Bid)
	strikeDiff := sub(call.Strike, put.Strike)
	if math.Abs(netCost) > g.config.MaxAbsNetCost {
		return contracts.Combination{}, RejectNetCost
	}

	netDelta := put.Delta - call.Delta
	netVega := put.Vega - call.Vega
	if netDelta >= g.config.BearishMaxNetDelta {
		return contracts.Combination{}, RejectNetDelta
	}
	if netVega > g.config.BearishMaxNetVega {
		return contracts.Combination{}, RejectNetVega
	}

	combo := contracts.Combination{
		Strategy:    contracts.Bearish,
		Expiration:  expiry.Label(),
		DaysToExp:   expiry.DaysToExp,
		LongStrike:  put.Strike,
		ShortStrike: call.Strike,
		NetCost:     netCost,
		NetDelta:    netDelta,
		NetVega:     netVega,
		Breakeven:   sub(put.Strike, netCost),
		Efficiency:  efficiency(netCost, strikeDiff),
		StrikeDiff:  strikeDiff,
		MaxLoss:     add(call.Strike, sub(call.Bid, put.Ask)),
		IVAdvantage: call.ImpliedVolatility - put.ImpliedVolatility,
		Call:        call,
		Put:         put,
		Pricing:     comparePricing(call, put, contracts.Bearish),
	}
	return g.finish(combo)
}

// finish drops a pairing whose derived values are not finite
func (g *Generator) finish(combo contracts.Combination) (contracts.Combination, string) {
	for _, v := range []float64{combo.NetCost, combo.NetDelta, combo.NetVega, combo.Breakeven, combo.Efficiency, combo.MaxLoss} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return contracts.Combination{}, RejectNonFinite
		}
	}

	g.logger.WithFields(map[string]interface{}{
		"expiration": combo.Expiration,
		"long":       combo.LongStrike,
		"short":      combo.ShortStrike,
		"net_cost":   combo.NetCost,
		"net_delta":  combo.NetDelta,
		"net_vega":   combo.NetVega,
		"efficiency": combo.Efficiency,
	}).Debug("Valid combination")

	return combo, ""
}

func efficiency(netCost, strikeDiff float64) float64 {
	if strikeDiff <= 0 {
		return 0
	}
	return -netCost / strikeDiff
}

// comparePricing prices the pair at worst-case, mid and best-case fills
func comparePricing(call, put contracts.Contract, strategy contracts.Strategy) contracts.PricingComparison {
	cBid, cAsk := decimal.NewFromFloat(call.Bid), decimal.NewFromFloat(call.Ask)
	pBid, pAsk := decimal.NewFromFloat(put.Bid), decimal.NewFromFloat(put.Ask)
	two := decimal.NewFromInt(2)

	callMid := cBid.Add(cAsk).Div(two)
	putMid := pBid.Add(pAsk).Div(two)
	callSpread := cAsk.Sub(cBid)
	putSpread := pAsk.Sub(pBid)

	var current, mid, optimistic decimal.Decimal
	if strategy == contracts.Bearish {
		current = pAsk.Sub(cBid)
		mid = putMid.Sub(callMid)
		optimistic = pBid.Sub(cAsk)
	} else {
		current = cAsk.Sub(pBid)
		mid = callMid.Sub(putMid)
		optimistic = cBid.Sub(pAsk)
	}

	return contracts.PricingComparison{
		Current:     current.InexactFloat64(),
		Mid:         mid.InexactFloat64(),
		Optimistic:  optimistic.InexactFloat64(),
		CallSpread:  callSpread.InexactFloat64(),
		PutSpread:   putSpread.InexactFloat64(),
		TotalSpread: callSpread.Add(putSpread).InexactFloat64(),
		CallMid:     callMid.InexactFloat64(),
		PutMid:      putMid.InexactFloat64(),
	}
}

// sub and add do premium and strike arithmetic in decimal so 2.20-1.50 is 0.70
func sub(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).InexactFloat64()
}

func add(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}
