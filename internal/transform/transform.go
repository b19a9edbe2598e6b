// Package transform normalizes raw tabular transaction batches into
// canonical records: standardized field names, cleaned values, amounts
// converted to the base currency, derived calendar fields and categories.
//
// Transformation is a pure function of its inputs (records plus the supplied
// rate table); re-running it on the same input yields identical output.
package transform

import (
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/finledger/ledger-engine/internal/ledger"
	"github.com/finledger/ledger-engine/internal/rates"
	"github.com/shopspring/decimal"
)

// Record is one raw tabular row, keyed by its source column headers.
type Record map[string]string

// Canonical column names for transaction batches.
const (
	ColTransactionID   = "transaction_id"
	ColDate            = "transaction_date"
	ColAccountCode     = "account_code"
	ColVendorCode      = "vendor_code"
	ColDescription     = "description"
	ColAmount          = "amount"
	ColCurrency        = "currency"
	ColType            = "transaction_type"
	ColCategory        = "category"
	ColReferenceNumber = "reference_number"
)

// columnSynonyms maps cleaned source headers (lowercased, spaces and dashes
// replaced with underscores) onto the canonical vocabulary.
var columnSynonyms = map[string]string{
	"transactionid": ColTransactionID,
	"trans_id":      ColTransactionID,
	"trans_date":    ColDate,
	"date":          ColDate,
	"acct_code":     ColAccountCode,
	"account":       ColAccountCode,
	"acct_name":     "account_name",
	"vend_code":     ColVendorCode,
	"vendor":        ColVendorCode,
	"vend_name":     "vendor_name",
	"trans_type":    ColType,
	"type":          ColType,
	"ref_num":       ColReferenceNumber,
	"ref_number":    ColReferenceNumber,
}

// typeSynonyms canonicalizes transaction type spellings after title-casing.
var typeSynonyms = map[string]ledger.TransactionType{
	"Db":     ledger.Debit,
	"Cr":     ledger.Credit,
	"Debit":  ledger.Debit,
	"Credit": ledger.Credit,
}

// dateLayouts are tried in order when parsing transaction dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	time.RFC3339,
}

// Normalized is one transformed transaction record, with flags describing
// coercions applied so the validator can report them.
type Normalized struct {
	TransactionID   string
	Date            time.Time
	DateRaw         string
	DateValid       bool
	AccountCode     string
	VendorCode      string
	Description     string
	Amount          decimal.Decimal
	AmountMissing   bool // raw value empty
	AmountCoerced   bool // raw value non-numeric, coerced to 0
	Currency        string
	CurrencyKnown   bool // ISO-4217 code recognized
	ExchangeRate    decimal.Decimal
	AmountBase      decimal.Decimal
	RateMissing     bool // currency absent from the rate table
	TypeRaw         string
	Type            ledger.TransactionType
	TypeValid       bool
	Category        string // explicit category from input, may be empty
	AutoCategory    string // keyword-derived
	FinalCategory   string
	ReferenceNumber string
	Year            int
	Quarter         int
	Month           string // YYYY-MM
	AmountAbs       decimal.Decimal
	AmountSigned    decimal.Decimal
}

// Batch is the transformer's output: the normalized records plus the set of
// canonical columns that were present in the input, which the validator uses
// for schema checks.
type Batch struct {
	Columns map[string]bool
	Records []Normalized
}

// HasColumn reports whether the canonical column appeared in the input.
func (b *Batch) HasColumn(name string) bool {
	return b.Columns[name]
}

// Transaction converts a normalized record into a ledger entity.
func (n Normalized) Transaction() ledger.Transaction {
	return ledger.Transaction{
		TransactionID:   n.TransactionID,
		Date:            n.Date,
		AccountCode:     n.AccountCode,
		VendorCode:      n.VendorCode,
		Description:     n.Description,
		Amount:          n.Amount,
		Currency:        n.Currency,
		ExchangeRate:    n.ExchangeRate,
		AmountBase:      n.AmountBase,
		Type:            n.Type,
		Category:        n.FinalCategory,
		ReferenceNumber: n.ReferenceNumber,
	}
}

// Transactions transforms a raw transaction batch against the supplied rate
// table. Bad values are cleaned or coerced, never dropped: the validator is
// responsible for reporting them.
func Transactions(records []Record, table rates.Table) *Batch {
	batch := &Batch{
		Columns: make(map[string]bool),
		Records: make([]Normalized, 0, len(records)),
	}

	for _, rec := range records {
		canonical := canonicalize(rec)
		for col := range canonical {
			batch.Columns[col] = true
		}

		n := Normalized{
			TransactionID:   cleanIdentifier(canonical[ColTransactionID]),
			DateRaw:         strings.TrimSpace(canonical[ColDate]),
			AccountCode:     cleanIdentifier(canonical[ColAccountCode]),
			VendorCode:      cleanIdentifier(canonical[ColVendorCode]),
			Description:     cleanIdentifier(canonical[ColDescription]),
			Category:        cleanIdentifier(canonical[ColCategory]),
			ReferenceNumber: cleanIdentifier(canonical[ColReferenceNumber]),
		}

		n.Date, n.DateValid = parseDate(n.DateRaw)
		n.Amount, n.AmountMissing, n.AmountCoerced = parseAmount(canonical[ColAmount])
		n.Currency, n.CurrencyKnown = cleanCurrency(canonical[ColCurrency], table.Base)
		n.TypeRaw = strings.TrimSpace(canonical[ColType])
		n.Type, n.TypeValid = canonicalType(n.TypeRaw)

		normalizeCurrency(&n, table)
		deriveCalendar(&n)
		deriveSigns(&n)
		categorize(&n)

		batch.Records = append(batch.Records, n)
	}
	return batch
}

// canonicalize rewrites a record's keys into the canonical vocabulary.
func canonicalize(rec Record) Record {
	out := make(Record, len(rec))
	for key, value := range rec {
		cleaned := strings.ToLower(strings.TrimSpace(key))
		cleaned = strings.ReplaceAll(cleaned, " ", "_")
		cleaned = strings.ReplaceAll(cleaned, "-", "_")
		if canonical, ok := columnSynonyms[cleaned]; ok {
			cleaned = canonical
		}
		out[cleaned] = value
	}
	return out
}

// cleanIdentifier trims and uppercases identifier-like strings.
func cleanIdentifier(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseAmount coerces the raw amount to a decimal. Empty input reports
// missing; non-numeric input is coerced to 0 and flagged, matching the
// never-drop policy.
func parseAmount(raw string) (amount decimal.Decimal, missing, coerced bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return decimal.Zero, true, false
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false, true
	}
	return d, false, false
}

// cleanCurrency uppercases the currency code, defaulting to the base
// currency when absent, and reports whether the code is a known ISO currency.
func cleanCurrency(raw, base string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		code = base
	}
	return code, money.GetCurrency(code) != nil
}

func canonicalType(raw string) (ledger.TransactionType, bool) {
	titled := titleCase(strings.TrimSpace(raw))
	if t, ok := typeSynonyms[titled]; ok {
		return t, true
	}
	return ledger.TransactionType(titled), false
}

// normalizeCurrency fills ExchangeRate and AmountBase. A currency missing
// from the rate table never blocks ingestion: the record stays unconverted
// with an exchange rate of 1.
func normalizeCurrency(n *Normalized, table rates.Table) {
	one := decimal.NewFromInt(1)
	if n.Currency == table.Base {
		n.ExchangeRate = one
		n.AmountBase = n.Amount
		return
	}
	rate, ok := table.Lookup(n.Currency)
	if !ok {
		n.ExchangeRate = one
		n.AmountBase = n.Amount
		n.RateMissing = true
		return
	}
	n.ExchangeRate = rate
	n.AmountBase = n.Amount.Mul(rate)
}

func deriveCalendar(n *Normalized) {
	if !n.DateValid {
		return
	}
	n.Year = n.Date.Year()
	n.Quarter = (int(n.Date.Month())-1)/3 + 1
	n.Month = n.Date.Format("2006-01")
}

func deriveSigns(n *Normalized) {
	n.AmountAbs = n.AmountBase.Abs()
	if n.Type == ledger.Debit {
		n.AmountSigned = n.AmountBase.Neg()
	} else {
		n.AmountSigned = n.AmountBase
	}
}

// titleCase uppercases the first letter of each word and lowercases the
// rest, the same normalization the cleaning step applies to enum-like and
// name fields.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
