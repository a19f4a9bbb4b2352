package yahoo

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/vegaedge/pkg/config"
	"github.com/wonny/vegaedge/pkg/httputil"
	"github.com/wonny/vegaedge/pkg/logger"
)

// ErrNotFound means Yahoo knows nothing about the symbol
var ErrNotFound = errors.New("yahoo: symbol not found")

// Client handles communication with Yahoo Finance
// ⭐ SSOT: Yahoo Finance calls happen only in this client
type Client struct {
	httpClient  *httputil.Client
	logger      *logger.Logger
	baseURL     string
	htmlBaseURL string
}

// NewClient creates a new Yahoo Finance client
func NewClient(httpClient *httputil.Client, cfg config.YahooConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient:  httpClient,
		logger:      log.WithComponent("yahoo"),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		htmlBaseURL: strings.TrimRight(cfg.HTMLBaseURL, "/"),
	}
}

// Quote is one option row. Nil fields were absent or unparseable in the source.
type Quote struct {
	ContractSymbol    string
	Strike            *float64
	Bid               *float64
	Ask               *float64
	ImpliedVolatility *float64
	Volume            *int64
	OpenInterest      *int64
}

// OptionChain holds both sides of one expiry
type OptionChain struct {
	Expiration time.Time
	Calls      []Quote
	Puts       []Quote
}

func (c *Client) apiURL(path string, params url.Values) string {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// expiryParam converts a calendar date to the unix timestamp Yahoo keys expiries by
func expiryParam(expiry time.Time) string {
	d := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC)
	return fmt.Sprintf("%d", d.Unix())
}

func dateFromUnix(sec int64) time.Time {
	t := time.Unix(sec, 0).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
