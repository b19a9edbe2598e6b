package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account for sign conventions and reporting.
type AccountType string

const (
	AccountAsset     AccountType = "Asset"
	AccountLiability AccountType = "Liability"
	AccountEquity    AccountType = "Equity"
	AccountRevenue   AccountType = "Revenue"
	AccountExpense   AccountType = "Expense"
)

// AccountTypes lists every valid account type.
var AccountTypes = []AccountType{
	AccountAsset, AccountLiability, AccountEquity, AccountRevenue, AccountExpense,
}

// ValidAccountType reports whether t is one of the five account types.
func ValidAccountType(t AccountType) bool {
	for _, v := range AccountTypes {
		if v == t {
			return true
		}
	}
	return false
}

// TransactionType is the debit/credit direction of a transaction.
type TransactionType string

const (
	Debit  TransactionType = "Debit"
	Credit TransactionType = "Credit"
)

// Account is chart-of-accounts master data, keyed by its natural key Code.
// Accounts are never deleted, only deactivated.
type Account struct {
	Code       string      `json:"account_code"`
	Name       string      `json:"account_name"`
	Type       AccountType `json:"account_type"`
	ParentCode string      `json:"parent_code,omitempty"` // weak reference, no cascade
	Active     bool        `json:"is_active"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Vendor is supplier/customer master data, keyed by its natural key Code.
type Vendor struct {
	Code         string    `json:"vendor_code"`
	Name         string    `json:"vendor_name"`
	Type         string    `json:"vendor_type"` // Supplier, Customer, Service Provider
	ContactEmail string    `json:"contact_email,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Transaction is a normalized ledger entry. TransactionID is the natural key:
// re-ingesting the same id replaces every other field, never duplicates.
// Invariant: AmountBase = Amount * ExchangeRate, and ExchangeRate = 1 when
// Currency equals the ledger's base currency.
type Transaction struct {
	TransactionID   string          `json:"transaction_id"`
	Date            time.Time       `json:"transaction_date"`
	AccountCode     string          `json:"account_code"`
	VendorCode      string          `json:"vendor_code,omitempty"` // optional reference
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`
	AmountBase      decimal.Decimal `json:"amount_base"`
	Type            TransactionType `json:"transaction_type"`
	Category        string          `json:"category,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SignedAmount returns +AmountBase for credits and -AmountBase for debits,
// the netting convention used by every aggregate.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == Debit {
		return t.AmountBase.Neg()
	}
	return t.AmountBase
}

// ExchangeRate is one observed rate-to-base for a currency on a given day.
// The (Currency, Date) pair is the composite key; a stored rate is never
// overwritten so a later fetch cannot rewrite history.
type ExchangeRate struct {
	Currency   string          `json:"currency"`
	RateToBase decimal.Decimal `json:"rate_to_base"`
	Date       time.Time       `json:"rate_date"`
	Source     string          `json:"source"` // API, default, manual
	CreatedAt  time.Time       `json:"created_at"`
}

// ReportStatus is the outcome of one report-generation attempt.
type ReportStatus string

const (
	ReportSuccess ReportStatus = "SUCCESS"
	ReportFailed  ReportStatus = "FAILED"
	ReportPartial ReportStatus = "PARTIAL"
)

// ReportLog is the audit record of a single report-generation attempt.
type ReportLog struct {
	ReportID     string       `json:"report_id"`
	ReportType   string       `json:"report_type"`   // ProfitLoss, ExpenseBreakdown, ...
	ReportPeriod string       `json:"report_period"` // e.g. 2024-01-01..2024-01-31
	GeneratedAt  time.Time    `json:"generated_at"`
	FilePath     string       `json:"file_path,omitempty"`
	Status       ReportStatus `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	RecordCount  int          `json:"record_count"`
}
