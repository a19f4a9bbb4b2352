package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/vegaedge/internal/contracts"
	"github.com/wonny/vegaedge/pkg/logger"
)

// schema holds quote snapshots written by the snapshot command or an external collector.
// Nullable quote columns map to absent RawContract fields.
var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS market`,
	`CREATE TABLE IF NOT EXISTS market.underlying_quotes (
	ticker     TEXT             NOT NULL,
	quoted_at  TIMESTAMPTZ      NOT NULL,
	price      DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (ticker, quoted_at)
)`,
	`CREATE TABLE IF NOT EXISTS market.option_quotes (
	ticker             TEXT        NOT NULL,
	expiration         DATE        NOT NULL,
	option_type        TEXT        NOT NULL CHECK (option_type IN ('call', 'put')),
	contract_symbol    TEXT        NOT NULL DEFAULT '',
	strike             DOUBLE PRECISION,
	bid                DOUBLE PRECISION,
	ask                DOUBLE PRECISION,
	implied_volatility DOUBLE PRECISION,
	volume             BIGINT,
	open_interest      BIGINT,
	captured_at        TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS option_quotes_lookup
	ON market.option_quotes (ticker, expiration, captured_at DESC)`,
}

// Postgres serves market data from stored snapshots
// ⭐ SSOT: snapshot tables are read and written only here
type Postgres struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPostgres creates a snapshot-backed provider
func NewPostgres(pool *pgxpool.Pool, log *logger.Logger) *Postgres {
	return &Postgres{
		pool:   pool,
		logger: log.WithComponent("provider.postgres"),
	}
}

// EnsureSchema creates the snapshot tables if they do not exist
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create snapshot schema: %w", err)
		}
	}
	return nil
}

// Spot returns the most recent stored price
func (p *Postgres) Spot(ctx context.Context, ticker string) (float64, error) {
	query := `
		SELECT price
		FROM market.underlying_quotes
		WHERE ticker = $1
		ORDER BY quoted_at DESC
		LIMIT 1
	`

	var price float64
	err := p.pool.QueryRow(ctx, query, ticker).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: no stored price for %s", contracts.ErrNoData, ticker)
	}
	if err != nil {
		return 0, fmt.Errorf("query spot: %w", err)
	}
	return price, nil
}

// Expiries returns every stored expiration for the ticker, ascending
func (p *Postgres) Expiries(ctx context.Context, ticker string) ([]time.Time, error) {
	query := `
		SELECT DISTINCT expiration
		FROM market.option_quotes
		WHERE ticker = $1
		ORDER BY expiration ASC
	`

	rows, err := p.pool.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("query expiries: %w", err)
	}
	defer rows.Close()

	dates := make([]time.Time, 0)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan expiry: %w", err)
		}
		dates = append(dates, calendarDate(d))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expiries: %w", err)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: no stored options for %s", contracts.ErrNoData, ticker)
	}
	return dates, nil
}

// Chain returns the latest captured snapshot for one expiry
func (p *Postgres) Chain(ctx context.Context, ticker string, expiry time.Time, _ float64) (*contracts.RawChain, error) {
	query := `
		SELECT option_type, contract_symbol, strike, bid, ask, implied_volatility, volume, open_interest
		FROM market.option_quotes
		WHERE ticker = $1 AND expiration = $2
		  AND captured_at = (
			SELECT MAX(captured_at) FROM market.option_quotes
			WHERE ticker = $1 AND expiration = $2
		  )
		ORDER BY option_type, strike
	`

	day := expiry.Format(contracts.DateLayout)
	rows, err := p.pool.Query(ctx, query, ticker, calendarDate(expiry))
	if err != nil {
		return nil, fmt.Errorf("%w: query chain: %v", contracts.ErrFetchFailed, err)
	}
	defer rows.Close()

	chain := &contracts.RawChain{}
	for rows.Next() {
		var typ string
		var c contracts.RawContract
		if err := rows.Scan(&typ, &c.Symbol, &c.Strike, &c.Bid, &c.Ask, &c.ImpliedVolatility, &c.Volume, &c.OpenInterest); err != nil {
			return nil, fmt.Errorf("%w: scan quote: %v", contracts.ErrFetchFailed, err)
		}
		if contracts.OptionType(typ) == contracts.Call {
			chain.Calls = append(chain.Calls, c)
		} else {
			chain.Puts = append(chain.Puts, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate quotes: %v", contracts.ErrFetchFailed, err)
	}
	if len(chain.Calls) == 0 && len(chain.Puts) == 0 {
		return nil, fmt.Errorf("%w: no snapshot for %s %s", contracts.ErrFetchFailed, ticker, day)
	}
	return chain, nil
}

// SaveSpot stores one underlying price
func (p *Postgres) SaveSpot(ctx context.Context, ticker string, price float64, at time.Time) error {
	query := `
		INSERT INTO market.underlying_quotes (ticker, quoted_at, price)
		VALUES ($1, $2, $3)
		ON CONFLICT (ticker, quoted_at) DO UPDATE SET price = EXCLUDED.price
	`
	if _, err := p.pool.Exec(ctx, query, ticker, at, price); err != nil {
		return fmt.Errorf("save spot: %w", err)
	}
	return nil
}

// SaveChain stores one captured chain in a single batch
func (p *Postgres) SaveChain(ctx context.Context, ticker string, expiry time.Time, chain *contracts.RawChain, at time.Time) error {
	if chain == nil {
		return nil
	}

	query := `
		INSERT INTO market.option_quotes
			(ticker, expiration, option_type, contract_symbol, strike, bid, ask, implied_volatility, volume, open_interest, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	day := expiry.Format(contracts.DateLayout)
	batch := &pgx.Batch{}
	queue := func(typ contracts.OptionType, rows []contracts.RawContract) {
		for _, c := range rows {
			batch.Queue(query, ticker, calendarDate(expiry), string(typ), c.Symbol, c.Strike, c.Bid, c.Ask, c.ImpliedVolatility, c.Volume, c.OpenInterest, at)
		}
	}
	queue(contracts.Call, chain.Calls)
	queue(contracts.Put, chain.Puts)

	if batch.Len() == 0 {
		return nil
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save chain row %d: %w", i, err)
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"ticker":     ticker,
		"expiration": day,
		"rows":       batch.Len(),
	}).Debug("Chain snapshot saved")
	return nil
}

func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
