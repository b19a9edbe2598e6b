package ledger

import (
	"context"
	"time"
)

// MergeStats reports the outcome of one atomic batch merge.
type MergeStats struct {
	Inserted int64
	Updated  int64
}

// Summary describes the current contents of the ledger store.
type Summary struct {
	Accounts      int       `json:"accounts"`
	Vendors       int       `json:"vendors"`
	Transactions  int       `json:"transactions"`
	ExchangeRates int       `json:"exchange_rates"`
	ReportLogs    int       `json:"report_logs"`
	MinDate       time.Time `json:"min_transaction_date,omitzero"`
	MaxDate       time.Time `json:"max_transaction_date,omitzero"`
}

// Store is the persistence contract for the ledger. Each Merge* call applies
// its whole batch as one atomic conditional write keyed by the entity's
// natural key: matched rows are overwritten (timestamps bumped), unmatched
// rows are inserted. On error nothing from the batch is persisted.
//
// The engine assumes a single writer; reads may proceed concurrently.
type Store interface {
	MergeAccounts(ctx context.Context, accounts []Account) (MergeStats, error)
	MergeVendors(ctx context.Context, vendors []Vendor) (MergeStats, error)
	MergeTransactions(ctx context.Context, txs []Transaction) (MergeStats, error)

	// InsertExchangeRates inserts rates whose (currency, day) pair is not
	// already present and returns the number inserted. Existing rates are
	// left untouched (first-writer-wins).
	InsertExchangeRates(ctx context.Context, rates []ExchangeRate) (int, error)

	ListAccounts(ctx context.Context) ([]Account, error)
	ListVendors(ctx context.Context) ([]Vendor, error)

	// TransactionsBetween returns transactions with start <= date <= end.
	TransactionsBetween(ctx context.Context, start, end time.Time) ([]Transaction, error)

	LogReport(ctx context.Context, entry *ReportLog) error

	Summary(ctx context.Context) (Summary, error)

	Close() error
}
