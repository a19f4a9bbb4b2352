package provider

import (
	"context"
	"time"

	"github.com/wonny/vegaedge/internal/contracts"
	"github.com/wonny/vegaedge/pkg/logger"
	"github.com/wonny/vegaedge/pkg/redis"
)

// Cached puts a Redis read-through cache in front of another source.
// Errors are never cached.
type Cached struct {
	next     contracts.MarketData
	cache    *redis.Cache
	chainTTL time.Duration
	logger   *logger.Logger
}

// NewCached wraps next; chainTTL <= 0 uses redis.TTLChain
func NewCached(next contracts.MarketData, cache *redis.Cache, chainTTL time.Duration, log *logger.Logger) *Cached {
	if chainTTL <= 0 {
		chainTTL = redis.TTLChain
	}
	return &Cached{
		next:     next,
		cache:    cache,
		chainTTL: chainTTL,
		logger:   log.WithComponent("provider.cache"),
	}
}

// Spot implements contracts.MarketData
func (c *Cached) Spot(ctx context.Context, ticker string) (float64, error) {
	var spot float64
	err := c.cache.GetOrSet(ctx, redis.SpotKey(ticker), &spot, redis.TTLQuote, func() (interface{}, error) {
		return c.next.Spot(ctx, ticker)
	})
	if err != nil {
		return 0, err
	}
	return spot, nil
}

// Expiries implements contracts.MarketData
func (c *Cached) Expiries(ctx context.Context, ticker string) ([]time.Time, error) {
	var dates []time.Time
	err := c.cache.GetOrSet(ctx, redis.ExpiriesKey(ticker), &dates, redis.TTLExpiries, func() (interface{}, error) {
		return c.next.Expiries(ctx, ticker)
	})
	if err != nil {
		return nil, err
	}
	return dates, nil
}

// Chain implements contracts.MarketData
func (c *Cached) Chain(ctx context.Context, ticker string, expiry time.Time, spot float64) (*contracts.RawChain, error) {
	key := redis.ChainKey(ticker, expiry.Format(contracts.DateLayout))
	var chain contracts.RawChain
	err := c.cache.GetOrSet(ctx, key, &chain, c.chainTTL, func() (interface{}, error) {
		return c.next.Chain(ctx, ticker, expiry, spot)
	})
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Debug("Chain not cached")
		return nil, err
	}
	return &chain, nil
}
