// Package rates supplies the currency rate table used to normalize amounts
// into the ledger's base currency. The table is always passed explicitly to
// the transformer; there is no process-wide cache.
package rates

import (
	"time"

	"github.com/finledger/ledger-engine/internal/ledger"
	"github.com/shopspring/decimal"
)

// DefaultBaseCurrency is the base currency amounts are normalized into.
const DefaultBaseCurrency = "USD"

// TargetCurrencies are the currencies fetched from the live rate source.
var TargetCurrencies = []string{"EUR", "GBP", "JPY", "CAD", "AUD"}

// Table maps currency codes to their rate-to-base as of a given moment.
type Table struct {
	Base   string
	AsOf   time.Time
	Source string // API or default
	rates  map[string]decimal.Decimal
}

// NewTable builds a table from explicit rates. The base currency always
// resolves to a rate of 1.
func NewTable(base string, asOf time.Time, source string, rates map[string]decimal.Decimal) Table {
	copied := make(map[string]decimal.Decimal, len(rates))
	for code, rate := range rates {
		copied[code] = rate
	}
	return Table{Base: base, AsOf: asOf, Source: source, rates: copied}
}

// Default returns the static fallback table used when the live rate source
// is unavailable: EUR 0.85, GBP 0.73, JPY 110.0, CAD 1.25, AUD 1.35 to USD.
func Default(asOf time.Time) Table {
	return NewTable(DefaultBaseCurrency, asOf, "default", map[string]decimal.Decimal{
		"EUR": decimal.NewFromFloat(0.85),
		"GBP": decimal.NewFromFloat(0.73),
		"JPY": decimal.NewFromFloat(110.0),
		"CAD": decimal.NewFromFloat(1.25),
		"AUD": decimal.NewFromFloat(1.35),
	})
}

// Lookup returns the rate-to-base for the given currency code. The base
// currency reports a rate of 1.
func (t Table) Lookup(code string) (decimal.Decimal, bool) {
	if code == t.Base {
		return decimal.NewFromInt(1), true
	}
	rate, ok := t.rates[code]
	return rate, ok
}

// Len returns the number of non-base currencies in the table.
func (t Table) Len() int {
	return len(t.rates)
}

// Entries converts the table into persistable exchange-rate rows dated at
// the table's as-of time.
func (t Table) Entries() []ledger.ExchangeRate {
	entries := make([]ledger.ExchangeRate, 0, len(t.rates))
	for code, rate := range t.rates {
		entries = append(entries, ledger.ExchangeRate{
			Currency:   code,
			RateToBase: rate,
			Date:       t.AsOf,
			Source:     t.Source,
		})
	}
	return entries
}
