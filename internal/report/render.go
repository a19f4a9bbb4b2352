package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/vegaedge/internal/contracts"
)

const (
	lineWidth     = 80
	maxShownRows  = 5
	tableHeader   = "RANK | EXPIRATION | STRIKES | NET COST | NET VEGA | EFFICIENCY | SCORE"
	timestampForm = "2006-01-02 15:04:05"
)

var (
	doubleRule = strings.Repeat("=", lineWidth)
	singleRule = strings.Repeat("-", lineWidth)
)

// Sections is the report split into the blocks the HTTP API returns
type Sections struct {
	Summary           string     `json:"summary"`
	Risk              string     `json:"risk"`
	PricingComparison string     `json:"pricing_comparison"`
	Top5              [][]string `json:"top_5"`
	Report            string     `json:"report"`
}

// Split derives the API sections from a report.
// Failed runs carry their message in Summary and Report only.
func Split(r *contracts.Report) Sections {
	if !r.OK() {
		return Sections{
			Summary: r.Message,
			Top5:    [][]string{},
			Report:  r.Message,
		}
	}
	return Sections{
		Summary:           TopTradeText(r),
		Risk:              r.Risk,
		PricingComparison: PricingText(r.Top.Combination),
		Top5:              TopRows(r),
		Report:            RenderText(r),
	}
}

// RenderText produces the plain-text report.
// A run without recommendations renders as its message.
func RenderText(r *contracts.Report) string {
	if !r.OK() {
		return r.Message
	}

	var b strings.Builder
	b.WriteString(doubleRule + "\n")
	fmt.Fprintf(&b, "%s %s Report\n", r.Ticker, r.Strategy.DisplayName())
	b.WriteString(doubleRule + "\n\n")

	b.WriteString("TOP RECOMMENDED TRADE\n")
	b.WriteString(TopTradeText(r))
	b.WriteString("\n\n")

	b.WriteString("STRATEGY OVERVIEW & RISK\n")
	b.WriteString(r.Risk)
	b.WriteString("\n\n")

	b.WriteString("ANALYSIS SUMMARY\n")
	for _, s := range r.Summary {
		fmt.Fprintf(&b, "  %s: Found %d valid trades\n", s.Expiration, s.Candidates)
	}
	b.WriteString("\n")

	rows := r.Table
	if len(rows) > maxShownRows {
		rows = rows[:maxShownRows]
	}
	fmt.Fprintf(&b, "TOP %d COMBINATIONS (Max 3 Per Expiration)\n", len(rows))
	b.WriteString(tableHeader + "\n")
	b.WriteString(singleRule + "\n")
	for _, row := range rows {
		b.WriteString(formatRow(row) + "\n")
	}
	b.WriteString("\n")

	b.WriteString("PRICING COMPARISON\n")
	b.WriteString(PricingText(r.Top.Combination))
	b.WriteString("\n\n")

	b.WriteString(doubleRule + "\n")
	fmt.Fprintf(&b, "Report generated on %s\n", r.GeneratedAt.Format(timestampForm))
	b.WriteString(doubleRule + "\n")
	return b.String()
}

// TopTradeText describes the recommended trade
func TopTradeText(r *contracts.Report) string {
	top := r.Top
	var strikes string
	if r.Strategy == contracts.Bearish {
		strikes = fmt.Sprintf("Long Put: $%.2f, Short Call: $%.2f", top.LongStrike, top.ShortStrike)
	} else {
		strikes = fmt.Sprintf("Long Call: $%.2f, Short Put: $%.2f", top.LongStrike, top.ShortStrike)
	}

	lines := []string{
		fmt.Sprintf("Expiration: %s (%d days)", top.Expiration, top.DaysToExp),
		"Strikes: " + strikes,
		"Net Cost: " + costText(top.NetCost),
		fmt.Sprintf("Breakeven: $%.2f", top.Breakeven),
		fmt.Sprintf("Net Vega: %.3f", top.NetVega),
		fmt.Sprintf("Efficiency: %.1f%%", top.Efficiency*100),
	}
	return strings.Join(lines, "\n")
}

// PricingText compares worst-case, mid and best-case fills for one combination
func PricingText(c contracts.Combination) string {
	p := c.Pricing
	lines := []string{
		"Current Method (Worst-case): " + costText(p.Current),
		"Mid-Price Method: " + costText(p.Mid),
		"Optimistic Method (Best-case): " + costText(p.Optimistic),
		fmt.Sprintf("Bid-Ask Spreads: Call=$%.2f, Put=$%.2f, Total=$%.2f", p.CallSpread, p.PutSpread, p.TotalSpread),
	}
	return strings.Join(lines, "\n")
}

// TopRows returns the first table rows as string tuples:
// rank, expiration, strikes, net cost, net vega, efficiency, score
func TopRows(r *contracts.Report) [][]string {
	rows := make([][]string, 0, maxShownRows)
	for _, row := range r.Table {
		if len(rows) == maxShownRows {
			break
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", row.Rank),
			row.Expiration,
			row.Strikes,
			fmt.Sprintf("$%.2f %s", math.Abs(row.NetCost), ShortCostLabel(row.NetCost)),
			fmt.Sprintf("%.3f", row.NetVega),
			fmt.Sprintf("%.1f%%", row.EfficiencyPct),
			fmt.Sprintf("%.3f", row.Score),
		})
	}
	return rows
}

func formatRow(row contracts.TableRow) string {
	cost := fmt.Sprintf("$%.2f %s", math.Abs(row.NetCost), ShortCostLabel(row.NetCost))
	return fmt.Sprintf("%4d | %-10s | %-15s | %-9s | %8.3f | %8.1f%% | %.3f",
		row.Rank, row.Expiration, row.Strikes, cost, row.NetVega, row.EfficiencyPct, row.Score)
}

func costText(v float64) string {
	return fmt.Sprintf("$%.2f %s", math.Abs(v), CostLabel(v))
}
