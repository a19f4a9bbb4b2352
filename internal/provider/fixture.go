package provider

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/vegaedge/internal/contracts"
)

// FixtureFile is the on-disk layout of a recorded market snapshot
type FixtureFile struct {
	AsOf        string              `yaml:"as_of"`
	Underlyings []FixtureUnderlying `yaml:"underlyings"`
}

// FixtureUnderlying is one ticker's recorded spot and chains
type FixtureUnderlying struct {
	Ticker string         `yaml:"ticker"`
	Spot   *float64       `yaml:"spot"`
	Chains []FixtureChain `yaml:"chains"`
}

// FixtureChain is one recorded expiry. Fail replays a fetch error.
type FixtureChain struct {
	Expiration string                  `yaml:"expiration"`
	Fail       bool                    `yaml:"fail,omitempty"`
	Calls      []contracts.RawContract `yaml:"calls"`
	Puts       []contracts.RawContract `yaml:"puts"`
}

// Fixture replays a recorded snapshot as market data
type Fixture struct {
	asOf        time.Time
	underlyings map[string]fixtureEntry
}

type fixtureEntry struct {
	spot     *float64
	expiries []time.Time
	chains   map[string]FixtureChain
}

// LoadFixture reads a YAML fixture file
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes and indexes a YAML fixture
func ParseFixture(data []byte) (*Fixture, error) {
	var file FixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	f := &Fixture{underlyings: make(map[string]fixtureEntry)}
	if file.AsOf != "" {
		asOf, err := time.Parse(contracts.DateLayout, file.AsOf)
		if err != nil {
			return nil, fmt.Errorf("fixture as_of: %w", err)
		}
		f.asOf = asOf
	}

	for _, u := range file.Underlyings {
		ticker := strings.ToUpper(strings.TrimSpace(u.Ticker))
		if ticker == "" {
			return nil, fmt.Errorf("fixture underlying without ticker")
		}
		entry := fixtureEntry{
			spot:   u.Spot,
			chains: make(map[string]FixtureChain),
		}
		for _, c := range u.Chains {
			d, err := time.Parse(contracts.DateLayout, c.Expiration)
			if err != nil {
				return nil, fmt.Errorf("fixture %s expiration %q: %w", ticker, c.Expiration, err)
			}
			entry.expiries = append(entry.expiries, d)
			entry.chains[c.Expiration] = c
		}
		f.underlyings[ticker] = entry
	}
	return f, nil
}

// AsOf is the recording date, zero when the file does not say
func (f *Fixture) AsOf() time.Time {
	return f.asOf
}

// Spot implements contracts.MarketData
func (f *Fixture) Spot(_ context.Context, ticker string) (float64, error) {
	u, ok := f.underlyings[ticker]
	if !ok || u.spot == nil {
		return 0, fmt.Errorf("%w: %s not in fixture", contracts.ErrNoData, ticker)
	}
	return *u.spot, nil
}

// Expiries implements contracts.MarketData
func (f *Fixture) Expiries(_ context.Context, ticker string) ([]time.Time, error) {
	u, ok := f.underlyings[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: %s not in fixture", contracts.ErrNoData, ticker)
	}
	out := make([]time.Time, len(u.expiries))
	copy(out, u.expiries)
	return out, nil
}

// Chain implements contracts.MarketData
func (f *Fixture) Chain(_ context.Context, ticker string, expiry time.Time, _ float64) (*contracts.RawChain, error) {
	label := expiry.Format(contracts.DateLayout)
	u, ok := f.underlyings[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: %s not in fixture", contracts.ErrFetchFailed, ticker)
	}
	c, ok := u.chains[label]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s not in fixture", contracts.ErrFetchFailed, ticker, label)
	}
	if c.Fail {
		return nil, fmt.Errorf("%w: %s %s recorded as failed", contracts.ErrFetchFailed, ticker, label)
	}
	return &contracts.RawChain{Calls: c.Calls, Puts: c.Puts}, nil
}
