// Package validate checks transformed batches against structural and
// business rules and scores batch quality. It never returns an error for bad
// data: callers inspect the structured Result and gate on IsValid.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/finledger/ledger-engine/internal/ledger"
	"github.com/finledger/ledger-engine/internal/transform"
	"github.com/shopspring/decimal"
)

// Rules parameterizes batch validation.
type Rules struct {
	RequiredColumns []string
	AmountMin       decimal.Decimal
	AmountMax       decimal.Decimal
	DatePastLimit   time.Duration // how far in the past a date may lie
	DateFutureLimit time.Duration // how far in the future a date may lie
	IDPattern       *regexp.Regexp
	Now             time.Time // zero means time.Now
}

// DefaultRules returns the standard rule set: required transaction columns,
// amounts in [0.01, 1,000,000.00], dates within [now-5y, now+30d], and
// alphanumeric/underscore/dash transaction ids.
func DefaultRules() Rules {
	return Rules{
		RequiredColumns: []string{
			transform.ColTransactionID,
			transform.ColDate,
			transform.ColAccountCode,
			transform.ColAmount,
			transform.ColType,
		},
		AmountMin:       decimal.NewFromFloat(0.01),
		AmountMax:       decimal.NewFromFloat(1_000_000.00),
		DatePastLimit:   5 * 365 * 24 * time.Hour,
		DateFutureLimit: 30 * 24 * time.Hour,
		IDPattern:       regexp.MustCompile(`^[A-Za-z0-9_-]+$`),
	}
}

// Result is the validation report for one batch. Errors are hard failures
// that invalidate the batch; warnings are advisory and only reduce the
// quality score.
type Result struct {
	IsValid        bool     `json:"is_valid"`
	TotalRecords   int      `json:"total_records"`
	ValidRecords   int      `json:"valid_records"`
	InvalidRecords int      `json:"invalid_records"`
	Errors         []string `json:"errors,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	QualityScore   float64  `json:"quality_score"`
}

// Transactions validates a transformed transaction batch.
func Transactions(batch *transform.Batch, rules Rules) *Result {
	result := &Result{IsValid: true, TotalRecords: len(batch.Records)}
	now := rules.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if len(batch.Records) == 0 {
		result.addError("Dataset is empty")
		result.QualityScore = score(result)
		return result
	}

	checkRequiredColumns(batch, rules, result)
	invalid := checkTypes(batch, result)
	checkBusinessRules(batch, rules, result, invalid)
	checkRanges(batch, rules, now, result)
	checkDuplicates(batch, result)

	result.InvalidRecords = len(invalid)
	result.ValidRecords = result.TotalRecords - result.InvalidRecords
	result.QualityScore = score(result)
	return result
}

// checkRequiredColumns fails the batch when a required canonical column is
// absent from the input schema.
func checkRequiredColumns(batch *transform.Batch, rules Rules, result *Result) {
	for _, col := range rules.RequiredColumns {
		if !batch.HasColumn(col) {
			result.addError(fmt.Sprintf("Required field '%s' is missing", col))
		}
	}
}

// checkTypes reports null amounts and unparseable dates as hard errors and
// zero-coerced amounts as warnings. Returns the set of record indexes with a
// hard per-record violation.
func checkTypes(batch *transform.Batch, result *Result) map[int]bool {
	invalid := make(map[int]bool)
	var nullAmounts, coercedAmounts, badDates int
	for i, rec := range batch.Records {
		if rec.AmountMissing {
			nullAmounts++
			invalid[i] = true
		}
		if rec.AmountCoerced {
			coercedAmounts++
		}
		if !rec.DateValid {
			badDates++
			invalid[i] = true
		}
	}
	if nullAmounts > 0 {
		result.addError(fmt.Sprintf("Field 'amount' contains null values (%d records)", nullAmounts))
	}
	if badDates > 0 {
		result.addError(fmt.Sprintf("Field 'transaction_date' contains unparseable values (%d records)", badDates))
	}
	if coercedAmounts > 0 {
		result.addWarning(fmt.Sprintf("%d non-numeric amounts were coerced to 0", coercedAmounts))
	}
	return invalid
}

// checkBusinessRules validates the type enum and transaction id format.
func checkBusinessRules(batch *transform.Batch, rules Rules, result *Result, invalid map[int]bool) {
	badTypes := make(map[string]bool)
	var badIDs, unknownCurrencies int
	for i, rec := range batch.Records {
		if !rec.TypeValid {
			badTypes[rec.TypeRaw] = true
			invalid[i] = true
		}
		if rec.TransactionID == "" || !rules.IDPattern.MatchString(rec.TransactionID) {
			badIDs++
			invalid[i] = true
		}
		if !rec.CurrencyKnown {
			unknownCurrencies++
		}
	}
	if len(badTypes) > 0 {
		values := make([]string, 0, len(badTypes))
		for v := range badTypes {
			values = append(values, v)
		}
		sort.Strings(values)
		result.addError(fmt.Sprintf("Invalid transaction types found: [%s]", strings.Join(values, " ")))
	}
	if badIDs > 0 {
		result.addError(fmt.Sprintf("Invalid transaction ID format found in %d records", badIDs))
	}
	if unknownCurrencies > 0 {
		result.addWarning(fmt.Sprintf("%d records carry an unrecognized currency code", unknownCurrencies))
	}
}

// checkRanges emits advisory warnings for out-of-range amounts and dates.
func checkRanges(batch *transform.Batch, rules Rules, now time.Time, result *Result) {
	minDate := now.Add(-rules.DatePastLimit)
	maxDate := now.Add(rules.DateFutureLimit)

	var badAmounts, badDates int
	for _, rec := range batch.Records {
		if rec.AmountMissing || rec.AmountCoerced {
			continue
		}
		if rec.Amount.LessThan(rules.AmountMin) || rec.Amount.GreaterThan(rules.AmountMax) {
			badAmounts++
		}
		if rec.DateValid && (rec.Date.Before(minDate) || rec.Date.After(maxDate)) {
			badDates++
		}
	}
	if badAmounts > 0 {
		result.addWarning(fmt.Sprintf("%d records have amounts outside normal range", badAmounts))
	}
	if badDates > 0 {
		result.addWarning(fmt.Sprintf("%d records have dates outside normal range", badDates))
	}
}

// checkDuplicates warns about duplicate transaction ids within the batch.
// The count covers every record sharing a duplicated id.
func checkDuplicates(batch *transform.Batch, result *Result) {
	counts := make(map[string]int)
	for _, rec := range batch.Records {
		if rec.TransactionID != "" {
			counts[rec.TransactionID]++
		}
	}
	duplicated := 0
	for _, c := range counts {
		if c > 1 {
			duplicated += c
		}
	}
	if duplicated > 0 {
		result.addWarning(fmt.Sprintf("Found %d duplicate transaction IDs", duplicated))
	}
}

// score computes the 0-100 quality score: start at 100, minus 10 per error
// and 2 per warning, floored at 0.
func score(result *Result) float64 {
	s := 100.0 - 10.0*float64(len(result.Errors)) - 2.0*float64(len(result.Warnings))
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func (r *Result) addError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.IsValid = false
}

func (r *Result) addWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Accounts validates account master data: duplicate codes and invalid
// account types are hard errors.
func Accounts(accounts []ledger.Account) *Result {
	result := &Result{IsValid: true, TotalRecords: len(accounts)}

	counts := make(map[string]int)
	badTypes := make(map[string]bool)
	for _, a := range accounts {
		counts[a.Code]++
		if !ledger.ValidAccountType(a.Type) {
			badTypes[string(a.Type)] = true
		}
	}
	duplicated := 0
	for _, c := range counts {
		if c > 1 {
			duplicated += c
		}
	}
	if duplicated > 0 {
		result.addError(fmt.Sprintf("Found %d duplicate account codes", duplicated))
	}
	if len(badTypes) > 0 {
		values := make([]string, 0, len(badTypes))
		for v := range badTypes {
			values = append(values, v)
		}
		sort.Strings(values)
		result.addError(fmt.Sprintf("Invalid account types: [%s]", strings.Join(values, " ")))
	}

	result.QualityScore = score(result)
	return result
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Vendors validates vendor master data: duplicate codes are hard errors,
// malformed contact emails are warnings.
func Vendors(vendors []ledger.Vendor) *Result {
	result := &Result{IsValid: true, TotalRecords: len(vendors)}

	counts := make(map[string]int)
	badEmails := 0
	for _, v := range vendors {
		counts[v.Code]++
		if v.ContactEmail != "" && !emailPattern.MatchString(v.ContactEmail) {
			badEmails++
		}
	}
	duplicated := 0
	for _, c := range counts {
		if c > 1 {
			duplicated += c
		}
	}
	if duplicated > 0 {
		result.addError(fmt.Sprintf("Found %d duplicate vendor codes", duplicated))
	}
	if badEmails > 0 {
		result.addWarning(fmt.Sprintf("Found %d invalid email formats", badEmails))
	}

	result.QualityScore = score(result)
	return result
}
