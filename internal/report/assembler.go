package report

import (
	"fmt"
	"time"

	"github.com/wonny/vegaedge/internal/contracts"
)

// Assembler turns ranked combinations into a Report
type Assembler struct {
	topN int
}

// Input is everything one run contributes to its report
type Input struct {
	Ticker      string
	Strategy    contracts.Strategy
	Spot        float64
	MinDTE      int
	MaxDTE      int
	Ranked      []contracts.RankedCombination // grouped, best first
	Summary     []contracts.ExpirySummary
	GeneratedAt time.Time
	ConfigHash  string
}

// NewAssembler creates an assembler whose table holds at most topN rows
func NewAssembler(topN int) *Assembler {
	if topN < 1 {
		topN = 5
	}
	return &Assembler{topN: topN}
}

// Assemble builds an ok report, or no_valid_strategies when nothing was ranked
func (a *Assembler) Assemble(in Input) *contracts.Report {
	r := &contracts.Report{
		Ticker:       in.Ticker,
		Strategy:     in.Strategy,
		Spot:         in.Spot,
		MinDTE:       in.MinDTE,
		MaxDTE:       in.MaxDTE,
		GeneratedAt:  in.GeneratedAt,
		ConfigHash:   in.ConfigHash,
		Summary:      nonNilSummary(in.Summary),
		Combinations: []contracts.RankedCombination{},
		Table:        []contracts.TableRow{},
	}

	if len(in.Ranked) == 0 {
		r.Status = contracts.StatusNoValidStrategies
		r.Message = NoValidMessage(in.Strategy, in.Ticker)
		return r
	}

	top := in.Ranked[0]
	r.Status = contracts.StatusOK
	r.Top = &top
	r.Risk = RiskText(in.Strategy, top.Combination)
	r.Combinations = in.Ranked
	r.Table = a.table(in.Ranked)
	return r
}

// Failure builds a report for a run that ended before ranking
func Failure(ticker string, strategy contracts.Strategy, status contracts.Status, message string, at time.Time) *contracts.Report {
	return &contracts.Report{
		Ticker:       ticker,
		Strategy:     strategy,
		Status:       status,
		Message:      message,
		GeneratedAt:  at,
		Summary:      []contracts.ExpirySummary{},
		Combinations: []contracts.RankedCombination{},
		Table:        []contracts.TableRow{},
	}
}

func (a *Assembler) table(ranked []contracts.RankedCombination) []contracts.TableRow {
	n := len(ranked)
	if n > a.topN {
		n = a.topN
	}
	rows := make([]contracts.TableRow, 0, n)
	for i, rc := range ranked[:n] {
		rows = append(rows, contracts.TableRow{
			Rank:          i + 1,
			Expiration:    rc.Expiration,
			Strikes:       rc.StrikesLabel(),
			NetCost:       rc.NetCost,
			CostLabel:     CostLabel(rc.NetCost),
			NetVega:       rc.NetVega,
			EfficiencyPct: rc.Efficiency * 100,
			Score:         rc.TotalScore,
		})
	}
	return rows
}

func nonNilSummary(s []contracts.ExpirySummary) []contracts.ExpirySummary {
	if s == nil {
		return []contracts.ExpirySummary{}
	}
	return s
}

// CostLabel returns CREDIT for negative net cost, otherwise DEBIT
func CostLabel(netCost float64) string {
	if netCost < 0 {
		return "CREDIT"
	}
	return "DEBIT"
}

// ShortCostLabel is the table form of CostLabel
func ShortCostLabel(netCost float64) string {
	if netCost < 0 {
		return "CR"
	}
	return "DB"
}

// RiskText describes the short leg exposure of the recommended trade
func RiskText(strategy contracts.Strategy, top contracts.Combination) string {
	if strategy == contracts.Bearish {
		return fmt.Sprintf("A Bearish Risk Reversal (Long OTM Put, Short OTM Call) creates a synthetic short stock position with low or zero cost.\n"+
			"The primary risk is the short call. If the stock price rises above $%.2f, you may be assigned\n"+
			"100 shares per contract at that price. Maximum loss is unlimited if the stock continues to rise.",
			top.ShortStrike)
	}
	return fmt.Sprintf("A Bullish Risk Reversal (Long OTM Call, Short OTM Put) creates a synthetic long stock position with low or zero cost.\n"+
		"The primary risk is the short put. If the stock price falls below $%.2f, you may be assigned\n"+
		"100 shares per contract at that price. Maximum loss is up to $%.2f per share if the stock goes to zero.",
		top.ShortStrike, top.MaxLoss)
}

// User-facing messages for runs that produce no recommendation.

func NoPriceMessage(ticker string) string {
	return fmt.Sprintf("Unable to fetch price data for %s. Please check the ticker symbol and try again.", ticker)
}

func NoOptionsMessage(ticker string) string {
	return fmt.Sprintf("No options data available for %s. The ticker may not have an options market.", ticker)
}

func ExpiriesFetchMessage(ticker string) string {
	return fmt.Sprintf("Could not fetch option expiration dates for %s.", ticker)
}

func NoExpiriesInWindowMessage(ticker string) string {
	return fmt.Sprintf("No expirations found in the specified date range for %s.", ticker)
}

func NoValidMessage(strategy contracts.Strategy, ticker string) string {
	return fmt.Sprintf("No valid %s strategies found for %s.", strategy, ticker)
}

func AnalysisErrorMessage(ticker string, err interface{}) string {
	return fmt.Sprintf("An unexpected error occurred while analyzing %s.\nError: %v", ticker, err)
}
