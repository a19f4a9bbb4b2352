package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/wonny/vegaedge/pkg/httputil"
)

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

// Spot returns the latest price: the regular market price, else the last daily close
func (c *Client) Spot(ctx context.Context, symbol string) (float64, error) {
	var resp chartResponse
	u := c.apiURL("/v8/finance/chart/"+url.PathEscape(symbol), url.Values{
		"range":    {"5d"},
		"interval": {"1d"},
	})
	if err := c.httpClient.GetJSON(ctx, u, &resp); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, symbol)
		}
		return 0, fmt.Errorf("fetch chart: %w", err)
	}

	if resp.Chart.Error != nil {
		if resp.Chart.Error.Code == "Not Found" {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, symbol)
		}
		return 0, resp.Chart.Error
	}
	if len(resp.Chart.Result) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}

	result := resp.Chart.Result[0]
	if p := result.Meta.RegularMarketPrice; p != nil && *p > 0 {
		return *p, nil
	}

	for _, q := range result.Indicators.Quote {
		for i := len(q.Close) - 1; i >= 0; i-- {
			if q.Close[i] != nil && *q.Close[i] > 0 {
				return *q.Close[i], nil
			}
		}
	}
	return 0, fmt.Errorf("%w: no price for %s", ErrNotFound, symbol)
}
