// Package pricing computes Black-Scholes-Merton delta and vega.
package pricing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wonny/vegaedge/internal/contracts"
)

// Inputs are the Black-Scholes-Merton parameters for one option
type Inputs struct {
	Spot          float64 // S
	Strike        float64 // K
	T             float64 // years to expiry
	Rate          float64 // continuously compounded risk-free rate
	Volatility    float64 // sigma, annualized
	DividendYield float64 // q, continuous
}

// Greeks holds the sensitivities the screener uses
type Greeks struct {
	Delta float64
	Vega  float64 // per 1 vol point
}

// Validate rejects inputs the formulas cannot take
func (in Inputs) Validate() error {
	for name, v := range map[string]float64{
		"spot": in.Spot, "strike": in.Strike, "T": in.T,
		"rate": in.Rate, "volatility": in.Volatility, "dividend_yield": in.DividendYield,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s is not finite", name)
		}
	}
	if in.Spot <= 0 {
		return fmt.Errorf("spot must be positive, got %v", in.Spot)
	}
	if in.Strike <= 0 {
		return fmt.Errorf("strike must be positive, got %v", in.Strike)
	}
	return nil
}

// degenerate is the expired or zero-volatility regime
func (in Inputs) degenerate() bool {
	return in.T <= 0 || in.Volatility <= 0
}

// D1 returns d1. In the degenerate regime it saturates to ±Inf by moneyness.
func D1(in Inputs) float64 {
	if in.degenerate() {
		if in.Spot > in.Strike {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	sqrtT := math.Sqrt(in.T)
	return (math.Log(in.Spot/in.Strike) + (in.Rate-in.DividendYield+0.5*in.Volatility*in.Volatility)*in.T) /
		(in.Volatility * sqrtT)
}

// D2 returns d1 - sigma*sqrt(T)
func D2(in Inputs) float64 {
	d1 := D1(in)
	if in.degenerate() {
		return d1
	}
	return d1 - in.Volatility*math.Sqrt(in.T)
}

// Delta returns the dividend-adjusted delta for the given option type
func Delta(in Inputs, typ contracts.OptionType) float64 {
	if in.T <= 0 {
		// intrinsic only
		if typ == contracts.Call {
			if in.Spot > in.Strike {
				return 1
			}
			return 0
		}
		if in.Spot < in.Strike {
			return -1
		}
		return 0
	}

	carry := math.Exp(-in.DividendYield * in.T)
	var cdf float64
	if in.Volatility <= 0 {
		// d1 is ±Inf; avoid evaluating the CDF at infinity
		if in.Spot > in.Strike {
			cdf = 1
		}
	} else {
		cdf = distuv.UnitNormal.CDF(D1(in))
	}

	if typ == contracts.Call {
		return carry * cdf
	}
	return carry * (cdf - 1)
}

// Vega returns dPrice/dSigma per one percentage point of volatility.
// Identical for calls and puts.
func Vega(in Inputs) float64 {
	if in.degenerate() {
		return 0
	}
	sqrtT := math.Sqrt(in.T)
	return in.Spot * math.Exp(-in.DividendYield*in.T) * distuv.UnitNormal.Prob(D1(in)) * sqrtT / 100
}

// Compute validates the inputs and returns delta and vega together
func Compute(in Inputs, typ contracts.OptionType) (Greeks, error) {
	if err := in.Validate(); err != nil {
		return Greeks{}, err
	}
	return Greeks{Delta: Delta(in, typ), Vega: Vega(in)}, nil
}

// YearsToExpiry converts calendar days to years, floored at one hour
func YearsToExpiry(days int) float64 {
	return math.Max(float64(days)/365.0, 1.0/(365.0*24.0))
}
