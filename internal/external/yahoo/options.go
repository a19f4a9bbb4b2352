package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/wonny/vegaedge/pkg/httputil"
)

type optionsResponse struct {
	OptionChain struct {
		Result []optionsResult `json:"result"`
		Error  *apiError       `json:"error"`
	} `json:"optionChain"`
}

type optionsResult struct {
	UnderlyingSymbol string  `json:"underlyingSymbol"`
	ExpirationDates  []int64 `json:"expirationDates"`
	Quote            struct {
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
	} `json:"quote"`
	Options []struct {
		ExpirationDate int64         `json:"expirationDate"`
		Calls          []optionQuote `json:"calls"`
		Puts           []optionQuote `json:"puts"`
	} `json:"options"`
}

type optionQuote struct {
	ContractSymbol    string   `json:"contractSymbol"`
	Strike            *float64 `json:"strike"`
	Bid               *float64 `json:"bid"`
	Ask               *float64 `json:"ask"`
	ImpliedVolatility *float64 `json:"impliedVolatility"`
	Volume            *int64   `json:"volume"`
	OpenInterest      *int64   `json:"openInterest"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("yahoo api error %s: %s", e.Code, e.Description)
}

// Expiries lists the option expiration dates for a symbol, ascending.
// A symbol without an options market yields an empty slice.
func (c *Client) Expiries(ctx context.Context, symbol string) ([]time.Time, error) {
	result, err := c.fetchOptions(ctx, symbol, nil)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 0, len(result.ExpirationDates))
	for _, sec := range result.ExpirationDates {
		dates = append(dates, dateFromUnix(sec))
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(dates),
	}).Debug("Fetched expiries")
	return dates, nil
}

// Chain fetches one expiry. When the JSON endpoint refuses the request
// the public options page is scraped instead.
func (c *Client) Chain(ctx context.Context, symbol string, expiry time.Time) (*OptionChain, error) {
	chain, err := c.chainJSON(ctx, symbol, expiry)
	if err == nil {
		return chain, nil
	}
	if ctx.Err() != nil || errors.Is(err, ErrNotFound) {
		return nil, err
	}

	c.logger.WithError(err).WithFields(map[string]interface{}{
		"symbol":     symbol,
		"expiration": expiry.Format("2006-01-02"),
	}).Warn("Options JSON unavailable, falling back to HTML")

	chain, htmlErr := c.ChainHTML(ctx, symbol, expiry)
	if htmlErr != nil {
		return nil, fmt.Errorf("options json: %v; html fallback: %w", err, htmlErr)
	}
	return chain, nil
}

func (c *Client) chainJSON(ctx context.Context, symbol string, expiry time.Time) (*OptionChain, error) {
	result, err := c.fetchOptions(ctx, symbol, url.Values{"date": {expiryParam(expiry)}})
	if err != nil {
		return nil, err
	}
	if len(result.Options) == 0 {
		return nil, fmt.Errorf("no option block for %s %s", symbol, expiry.Format("2006-01-02"))
	}

	block := result.Options[0]
	chain := &OptionChain{
		Expiration: dateFromUnix(block.ExpirationDate),
		Calls:      convertQuotes(block.Calls),
		Puts:       convertQuotes(block.Puts),
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":     symbol,
		"expiration": chain.Expiration.Format("2006-01-02"),
		"calls":      len(chain.Calls),
		"puts":       len(chain.Puts),
	}).Debug("Fetched option chain")
	return chain, nil
}

func (c *Client) fetchOptions(ctx context.Context, symbol string, params url.Values) (*optionsResult, error) {
	var resp optionsResponse
	err := c.httpClient.GetJSON(ctx, c.apiURL("/v7/finance/options/"+url.PathEscape(symbol), params), &resp)
	if err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, symbol)
		}
		return nil, fmt.Errorf("fetch options: %w", err)
	}

	if resp.OptionChain.Error != nil {
		return nil, resp.OptionChain.Error
	}
	if len(resp.OptionChain.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	return &resp.OptionChain.Result[0], nil
}

func convertQuotes(in []optionQuote) []Quote {
	out := make([]Quote, 0, len(in))
	for _, q := range in {
		out = append(out, Quote{
			ContractSymbol:    q.ContractSymbol,
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
