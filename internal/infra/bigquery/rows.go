package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/finledger/ledger-engine/internal/ledger"
	"github.com/shopspring/decimal"
)

// AccountRow mirrors the finance.accounts table.
type AccountRow struct {
	AccountCode string              `bigquery:"account_code"` // REQUIRED, natural key
	AccountName string              `bigquery:"account_name"` // REQUIRED
	AccountType string              `bigquery:"account_type"` // REQUIRED
	ParentCode  bigquery.NullString `bigquery:"parent_code"`  // NULLABLE
	IsActive    bool                `bigquery:"is_active"`
	CreatedAt   time.Time           `bigquery:"created_at"`
	UpdatedAt   time.Time           `bigquery:"updated_at"`
}

// VendorRow mirrors the finance.vendors table.
type VendorRow struct {
	VendorCode   string              `bigquery:"vendor_code"` // REQUIRED, natural key
	VendorName   string              `bigquery:"vendor_name"` // REQUIRED
	VendorType   string              `bigquery:"vendor_type"`
	ContactEmail bigquery.NullString `bigquery:"contact_email"` // NULLABLE
	ContactPhone bigquery.NullString `bigquery:"contact_phone"` // NULLABLE
	Address      bigquery.NullString `bigquery:"address"`       // NULLABLE
	IsActive     bool                `bigquery:"is_active"`
	CreatedAt    time.Time           `bigquery:"created_at"`
	UpdatedAt    time.Time           `bigquery:"updated_at"`
}

// TransactionRow mirrors the finance.transactions table.
type TransactionRow struct {
	TransactionID   string              `bigquery:"transaction_id"`   // REQUIRED, natural key
	TransactionDate civil.Date          `bigquery:"transaction_date"` // REQUIRED
	AccountCode     string              `bigquery:"account_code"`     // REQUIRED
	VendorCode      bigquery.NullString `bigquery:"vendor_code"`      // NULLABLE
	Description     string              `bigquery:"description"`
	Amount          *big.Rat            `bigquery:"amount"`        // REQUIRED NUMERIC
	Currency        string              `bigquery:"currency"`      // REQUIRED
	ExchangeRate    *big.Rat            `bigquery:"exchange_rate"` // REQUIRED NUMERIC
	AmountBase      *big.Rat            `bigquery:"amount_base"`   // REQUIRED NUMERIC
	TransactionType string              `bigquery:"transaction_type"`
	Category        bigquery.NullString `bigquery:"category"`         // NULLABLE
	ReferenceNumber bigquery.NullString `bigquery:"reference_number"` // NULLABLE
	CreatedAt       time.Time           `bigquery:"created_at"`
	UpdatedAt       time.Time           `bigquery:"updated_at"`
}

// ExchangeRateRow mirrors the finance.exchange_rates table; (currency,
// rate_date) is the composite key.
type ExchangeRateRow struct {
	Currency   string     `bigquery:"currency"`
	RateToBase *big.Rat   `bigquery:"rate_to_base"` // REQUIRED NUMERIC
	RateDate   civil.Date `bigquery:"rate_date"`
	Source     string     `bigquery:"source"`
	CreatedAt  time.Time  `bigquery:"created_at"`
}

// ReportLogRow mirrors the finance.report_log table.
type ReportLogRow struct {
	ReportID     string              `bigquery:"report_id"` // REQUIRED
	ReportType   string              `bigquery:"report_type"`
	ReportPeriod string              `bigquery:"report_period"`
	GeneratedAt  time.Time           `bigquery:"generated_at"`
	FilePath     bigquery.NullString `bigquery:"file_path"`     // NULLABLE
	Status       string              `bigquery:"status"`
	ErrorMessage bigquery.NullString `bigquery:"error_message"` // NULLABLE
	RecordCount  int64               `bigquery:"record_count"`
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func toRat(d decimal.Decimal) *big.Rat {
	return d.Rat()
}

func fromRat(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigRat(r, 9)
}

func accountRow(a ledger.Account) *AccountRow {
	return &AccountRow{
		AccountCode: a.Code,
		AccountName: a.Name,
		AccountType: string(a.Type),
		ParentCode:  nullString(a.ParentCode),
		IsActive:    a.Active,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func (r *AccountRow) domain() ledger.Account {
	return ledger.Account{
		Code:       r.AccountCode,
		Name:       r.AccountName,
		Type:       ledger.AccountType(r.AccountType),
		ParentCode: r.ParentCode.StringVal,
		Active:     r.IsActive,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func vendorRow(v ledger.Vendor) *VendorRow {
	return &VendorRow{
		VendorCode:   v.Code,
		VendorName:   v.Name,
		VendorType:   v.Type,
		ContactEmail: nullString(v.ContactEmail),
		ContactPhone: nullString(v.ContactPhone),
		Address:      nullString(v.Address),
		IsActive:     v.Active,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func (r *VendorRow) domain() ledger.Vendor {
	return ledger.Vendor{
		Code:         r.VendorCode,
		Name:         r.VendorName,
		Type:         r.VendorType,
		ContactEmail: r.ContactEmail.StringVal,
		ContactPhone: r.ContactPhone.StringVal,
		Address:      r.Address.StringVal,
		Active:       r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func transactionRow(t ledger.Transaction) *TransactionRow {
	return &TransactionRow{
		TransactionID:   t.TransactionID,
		TransactionDate: civil.DateOf(t.Date),
		AccountCode:     t.AccountCode,
		VendorCode:      nullString(t.VendorCode),
		Description:     t.Description,
		Amount:          toRat(t.Amount),
		Currency:        t.Currency,
		ExchangeRate:    toRat(t.ExchangeRate),
		AmountBase:      toRat(t.AmountBase),
		TransactionType: string(t.Type),
		Category:        nullString(t.Category),
		ReferenceNumber: nullString(t.ReferenceNumber),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func (r *TransactionRow) domain() ledger.Transaction {
	return ledger.Transaction{
		TransactionID:   r.TransactionID,
		Date:            r.TransactionDate.In(time.UTC),
		AccountCode:     r.AccountCode,
		VendorCode:      r.VendorCode.StringVal,
		Description:     r.Description,
		Amount:          fromRat(r.Amount),
		Currency:        r.Currency,
		ExchangeRate:    fromRat(r.ExchangeRate),
		AmountBase:      fromRat(r.AmountBase),
		Type:            ledger.TransactionType(r.TransactionType),
		Category:        r.Category.StringVal,
		ReferenceNumber: r.ReferenceNumber.StringVal,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func exchangeRateRow(e ledger.ExchangeRate) *ExchangeRateRow {
	return &ExchangeRateRow{
		Currency:   e.Currency,
		RateToBase: toRat(e.RateToBase),
		RateDate:   civil.DateOf(e.Date),
		Source:     e.Source,
		CreatedAt:  e.CreatedAt,
	}
}

func reportLogRow(l *ledger.ReportLog) *ReportLogRow {
	return &ReportLogRow{
		ReportID:     l.ReportID,
		ReportType:   l.ReportType,
		ReportPeriod: l.ReportPeriod,
		GeneratedAt:  l.GeneratedAt,
		FilePath:     nullString(l.FilePath),
		Status:       string(l.Status),
		ErrorMessage: nullString(l.ErrorMessage),
		RecordCount:  int64(l.RecordCount),
	}
}
