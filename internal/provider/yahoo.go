package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/vegaedge/internal/contracts"
	"github.com/wonny/vegaedge/internal/external/yahoo"
	"github.com/wonny/vegaedge/pkg/logger"
)

// Yahoo serves market data from Yahoo Finance
type Yahoo struct {
	client *yahoo.Client
	logger *logger.Logger
}

// NewYahoo creates a Yahoo-backed provider
func NewYahoo(client *yahoo.Client, log *logger.Logger) *Yahoo {
	return &Yahoo{
		client: client,
		logger: log.WithComponent("provider.yahoo"),
	}
}

// Spot implements contracts.MarketData
func (p *Yahoo) Spot(ctx context.Context, ticker string) (float64, error) {
	spot, err := p.client.Spot(ctx, ticker)
	if err != nil {
		if errors.Is(err, yahoo.ErrNotFound) {
			return 0, fmt.Errorf("%w: %v", contracts.ErrNoData, err)
		}
		return 0, err
	}
	return spot, nil
}

// Expiries implements contracts.MarketData
func (p *Yahoo) Expiries(ctx context.Context, ticker string) ([]time.Time, error) {
	dates, err := p.client.Expiries(ctx, ticker)
	if err != nil {
		if errors.Is(err, yahoo.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", contracts.ErrNoData, err)
		}
		return nil, err
	}
	return dates, nil
}

// Chain implements contracts.MarketData. Every failure is ErrFetchFailed.
func (p *Yahoo) Chain(ctx context.Context, ticker string, expiry time.Time, _ float64) (*contracts.RawChain, error) {
	chain, err := p.client.Chain(ctx, ticker, expiry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrFetchFailed, err)
	}
	return &contracts.RawChain{
		Calls: toRawContracts(chain.Calls),
		Puts:  toRawContracts(chain.Puts),
	}, nil
}

func toRawContracts(quotes []yahoo.Quote) []contracts.RawContract {
	out := make([]contracts.RawContract, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, contracts.RawContract{
			Symbol:            q.ContractSymbol,
			Strike:            q.Strike,
			Bid:               q.Bid,
			Ask:               q.Ask,
			ImpliedVolatility: q.ImpliedVolatility,
			Volume:            q.Volume,
			OpenInterest:      q.OpenInterest,
		})
	}
	return out
}
