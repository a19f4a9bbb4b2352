package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ChainHTML scrapes the public options page for one expiry
func (c *Client) ChainHTML(ctx context.Context, symbol string, expiry time.Time) (*OptionChain, error) {
	u := fmt.Sprintf("%s/quote/%s/options?%s", c.htmlBaseURL, url.PathEscape(symbol),
		url.Values{"date": {expiryParam(expiry)}}.Encode())

	body, err := c.httpClient.GetBody(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch options page: %w", err)
	}

	calls, puts, err := parseOptionsHTML(string(body))
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"calls":  len(calls),
		"puts":   len(puts),
	}).Debug("Scraped option chain")

	return &OptionChain{
		Expiration: time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC),
		Calls:      calls,
		Puts:       puts,
	}, nil
}

// parseOptionsHTML reads the calls and puts tables.
// Tables marked "calls"/"puts" win; otherwise the first two tables are calls then puts.
func parseOptionsHTML(html string) ([]Quote, []Quote, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, fmt.Errorf("parse options page: %w", err)
	}

	callTable := doc.Find("table.calls").First()
	putTable := doc.Find("table.puts").First()
	if callTable.Length() == 0 || putTable.Length() == 0 {
		tables := doc.Find("table")
		if tables.Length() < 2 {
			return nil, nil, fmt.Errorf("options tables not found")
		}
		callTable = tables.Eq(0)
		putTable = tables.Eq(1)
	}

	return parseTable(callTable), parseTable(putTable), nil
}

func parseTable(table *goquery.Selection) []Quote {
	columns := make(map[string]int)
	table.Find("th").Each(func(i int, th *goquery.Selection) {
		name := strings.ToLower(strings.TrimSpace(th.Text()))
		if _, ok := columns[name]; !ok {
			columns[name] = i
		}
	})

	cell := func(cells *goquery.Selection, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= cells.Length() {
			return ""
		}
		return strings.TrimSpace(cells.Eq(idx).Text())
	}

	quotes := make([]Quote, 0)
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		quotes = append(quotes, Quote{
			ContractSymbol:    cell(cells, "contract name"),
			Strike:            parseFloat(cell(cells, "strike")),
			Bid:               parseFloat(cell(cells, "bid")),
			Ask:               parseFloat(cell(cells, "ask")),
			ImpliedVolatility: parsePercent(cell(cells, "implied volatility")),
			Volume:            parseInt(cell(cells, "volume")),
			OpenInterest:      parseInt(cell(cells, "open interest")),
		})
	})
	return quotes
}

func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" || s == "--" {
		return ""
	}
	return s
}

func parseFloat(s string) *float64 {
	s = cleanNumber(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(s string) *int64 {
	s = cleanNumber(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parsePercent turns "35.16%" into 0.3516
func parsePercent(s string) *float64 {
	v := parseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if v == nil {
		return nil
	}
	pct := *v / 100
	return &pct
}
