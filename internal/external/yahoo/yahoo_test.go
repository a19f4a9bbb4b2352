package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vegaedge/pkg/config"
	"github.com/wonny/vegaedge/pkg/httputil"
	"github.com/wonny/vegaedge/pkg/logger"
)

const optionsJSON = `{
  "optionChain": {
    "result": [{
      "underlyingSymbol": "AAPL",
      "expirationDates": [1742515200, 1740096000],
      "quote": {"regularMarketPrice": 101.5},
      "options": [{
        "expirationDate": 1740096000,
        "calls": [
          {"contractSymbol": "AAPL250221C00110000", "strike": 110, "bid": 2.0, "ask": 2.2, "impliedVolatility": 0.30, "volume": 12, "openInterest": 340},
          {"contractSymbol": "AAPL250221C00120000", "strike": 120, "bid": 0.5, "impliedVolatility": 0.28}
        ],
        "puts": [
          {"contractSymbol": "AAPL250221P00090000", "strike": 90, "bid": 1.5, "ask": 1.7, "impliedVolatility": 0.35, "openInterest": 55}
        ]
      }]
    }],
    "error": null
  }
}`

const chartJSON = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "AAPL", "regularMarketPrice": 101.5},
      "indicators": {"quote": [{"close": [99.0, 100.0, null]}]}
    }],
    "error": null
  }
}`

const optionsHTML = `
<html><body>
<table class="calls">
  <thead><tr><th>Contract Name</th><th>Strike</th><th>Bid</th><th>Ask</th><th>Volume</th><th>Open Interest</th><th>Implied Volatility</th></tr></thead>
  <tbody>
    <tr><td>AAPL250221C00110000</td><td>110.00</td><td>2.00</td><td>2.20</td><td>1,204</td><td>3,400</td><td>30.00%</td></tr>
    <tr><td>AAPL250221C00120000</td><td>120.00</td><td>0.50</td><td>-</td><td>-</td><td>12</td><td>28.50%</td></tr>
  </tbody>
</table>
<table class="puts">
  <thead><tr><th>Contract Name</th><th>Strike</th><th>Bid</th><th>Ask</th><th>Volume</th><th>Open Interest</th><th>Implied Volatility</th></tr></thead>
  <tbody>
    <tr><td>AAPL250221P00090000</td><td>90.00</td><td>1.50</td><td>1.70</td><td>7</td><td>55</td><td>35.00%</td></tr>
  </tbody>
</table>
</body></html>`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Yahoo: config.YahooConfig{
			BaseURL:     server.URL,
			HTMLBaseURL: server.URL,
			Timeout:     5 * time.Second,
		},
	}
	return NewClient(httputil.New(cfg, logger.Nop()), cfg.Yahoo, logger.Nop())
}

func feb21() time.Time {
	return time.Date(2025, 2, 21, 0, 0, 0, 0, time.UTC)
}

func TestExpiries(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/finance/options/AAPL", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("date"))
		_, _ = w.Write([]byte(optionsJSON))
	}))

	dates, err := client.Expiries(context.Background(), "AAPL")

	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, feb21(), dates[0])
	assert.Equal(t, time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC), dates[1])
}

func TestChainJSON(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1740096000", r.URL.Query().Get("date"))
		_, _ = w.Write([]byte(optionsJSON))
	}))

	chain, err := client.Chain(context.Background(), "AAPL", feb21())

	require.NoError(t, err)
	assert.Equal(t, feb21(), chain.Expiration)
	require.Len(t, chain.Calls, 2)
	require.Len(t, chain.Puts, 1)

	call := chain.Calls[0]
	assert.Equal(t, "AAPL250221C00110000", call.ContractSymbol)
	assert.Equal(t, 110.0, *call.Strike)
	assert.Equal(t, 2.2, *call.Ask)
	assert.Equal(t, int64(340), *call.OpenInterest)

	sparse := chain.Calls[1]
	assert.Nil(t, sparse.Ask)
	assert.Nil(t, sparse.Volume)
	assert.Nil(t, sparse.OpenInterest)
}

func TestChainFallsBackToHTML(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v7/finance/options/AAPL", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/quote/AAPL/options", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1740096000", r.URL.Query().Get("date"))
		_, _ = w.Write([]byte(optionsHTML))
	})
	client := newTestClient(t, mux)

	chain, err := client.Chain(context.Background(), "AAPL", feb21())

	require.NoError(t, err)
	require.Len(t, chain.Calls, 2)
	require.Len(t, chain.Puts, 1)

	call := chain.Calls[0]
	assert.Equal(t, 110.0, *call.Strike)
	assert.Equal(t, int64(1204), *call.Volume)
	assert.Equal(t, int64(3400), *call.OpenInterest)
	assert.InDelta(t, 0.30, *call.ImpliedVolatility, 1e-12)

	assert.Nil(t, chain.Calls[1].Ask)
	assert.Nil(t, chain.Calls[1].Volume)
	assert.InDelta(t, 0.35, *chain.Puts[0].ImpliedVolatility, 1e-12)
}

func TestChainBothSourcesFail(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.Chain(context.Background(), "AAPL", feb21())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "html fallback")
}

func TestNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := client.Expiries(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.Spot(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.Chain(context.Background(), "NOPE", feb21())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSpot(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    float64
		wantErr error
	}{
		{name: "market price", body: chartJSON, want: 101.5},
		{
			name: "last close fallback",
			body: `{"chart":{"result":[{"meta":{"symbol":"AAPL"},"indicators":{"quote":[{"close":[99.0,100.0,null]}]}}],"error":null}}`,
			want: 100.0,
		},
		{
			name:    "api not found",
			body:    `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`,
			wantErr: ErrNotFound,
		},
		{
			name:    "no prices",
			body:    `{"chart":{"result":[{"meta":{"symbol":"AAPL"},"indicators":{"quote":[{"close":[null]}]}}],"error":null}}`,
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			}))

			got, err := client.Spot(context.Background(), "AAPL")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOptionsHTMLPositionalTables(t *testing.T) {
	html := `<table><tr><th>Strike</th><th>Bid</th></tr><tr><td>105</td><td>1.1</td></tr></table>
<table><tr><th>Strike</th><th>Bid</th></tr><tr><td>95</td><td>0.9</td></tr></table>`

	calls, puts, err := parseOptionsHTML(html)

	require.NoError(t, err)
	require.Len(t, calls, 1)
	require.Len(t, puts, 1)
	assert.Equal(t, 105.0, *calls[0].Strike)
	assert.Equal(t, 0.9, *puts[0].Bid)
	assert.Nil(t, puts[0].Ask)
}

func TestParseOptionsHTMLMissingTables(t *testing.T) {
	_, _, err := parseOptionsHTML(`<html><body><p>Consent required</p></body></html>`)
	assert.Error(t, err)
}

func TestParseHelpers(t *testing.T) {
	assert.Nil(t, parseFloat("-"))
	assert.Nil(t, parseFloat(""))
	assert.Nil(t, parseFloat("n/a"))
	assert.Equal(t, 1234.5, *parseFloat("1,234.50"))
	assert.Equal(t, int64(1204), *parseInt("1,204"))
	assert.Nil(t, parseInt("--"))
	assert.InDelta(t, 0.0625, *parsePercent("6.25%"), 1e-12)
	assert.Nil(t, parsePercent("-"))
}
