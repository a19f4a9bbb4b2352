package contracts

import (
	"context"
	"time"
)

// MarketData supplies quotes for one underlying.
// Spot and Expiries return ErrNoData when the ticker has no market; Chain returns ErrFetchFailed.
// ⭐ SSOT: the only way the engine reaches external data
type MarketData interface {
	Spot(ctx context.Context, ticker string) (float64, error)
	Expiries(ctx context.Context, ticker string) ([]time.Time, error)
	Chain(ctx context.Context, ticker string, expiry time.Time, spot float64) (*RawChain, error)
}
