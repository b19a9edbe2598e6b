// Package bigquery implements the ledger store on BigQuery. Every batch
// upsert runs as a single MERGE statement over an UNNEST of the batch rows,
// so a batch either lands whole or not at all.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/finledger/ledger-engine/internal/ledger"
	"google.golang.org/api/iterator"
)

const (
	accountsTable      = "accounts"
	vendorsTable       = "vendors"
	transactionsTable  = "transactions"
	exchangeRatesTable = "exchange_rates"
	reportLogTable     = "report_log"

	dateFormat = "2006-01-02"
)

// Store persists the ledger in a BigQuery dataset.
type Store struct {
	client  *bigquery.Client
	dataset string
}

// NewStore opens a client for the project and dataset. It assumes
// Application Default Credentials are configured.
func NewStore(ctx context.Context, projectID, dataset string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewStore: creating bigquery client: %w", err)
	}
	return &Store{client: client, dataset: dataset}, nil
}

// NewStoreWithClient wraps an existing client, for sharing a client across
// repositories.
func NewStoreWithClient(client *bigquery.Client, dataset string) *Store {
	return &Store{client: client, dataset: dataset}
}

// Close closes the underlying client.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// runMerge executes a DML statement carrying the batch as a single @rows
// parameter and returns insert/update counts from the job's DML statistics.
func (s *Store) runMerge(ctx context.Context, stmt string, rows any) (ledger.MergeStats, error) {
	q := s.client.Query(stmt)
	q.Parameters = []bigquery.QueryParameter{{Name: "rows", Value: rows}}

	job, err := q.Run(ctx)
	if err != nil {
		return ledger.MergeStats{}, fmt.Errorf("running merge: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return ledger.MergeStats{}, fmt.Errorf("waiting for merge: %w", err)
	}
	if err := status.Err(); err != nil {
		return ledger.MergeStats{}, fmt.Errorf("merge failed: %w", err)
	}

	var stats ledger.MergeStats
	if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok && qs.DMLStats != nil {
		stats.Inserted = qs.DMLStats.InsertedRowCount
		stats.Updated = qs.DMLStats.UpdatedRowCount
	}
	return stats, nil
}

// MergeAccounts upserts account master data keyed by account_code.
func (s *Store) MergeAccounts(ctx context.Context, accounts []ledger.Account) (ledger.MergeStats, error) {
	if len(accounts) == 0 {
		return ledger.MergeStats{}, nil
	}
	rows := make([]*AccountRow, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, accountRow(a))
	}
	stmt := fmt.Sprintf(`
		MERGE %s.%s t
		USING UNNEST(@rows) r
		ON t.account_code = r.account_code
		WHEN MATCHED THEN UPDATE SET
			account_name = r.account_name,
			account_type = r.account_type,
			parent_code = r.parent_code,
			is_active = r.is_active,
			updated_at = CURRENT_TIMESTAMP()
		WHEN NOT MATCHED THEN INSERT
			(account_code, account_name, account_type, parent_code, is_active, created_at, updated_at)
		VALUES
			(r.account_code, r.account_name, r.account_type, r.parent_code, r.is_active,
			 CURRENT_TIMESTAMP(), CURRENT_TIMESTAMP())
	`, s.dataset, accountsTable)

	stats, err := s.runMerge(ctx, stmt, rows)
	if err != nil {
		return ledger.MergeStats{}, fmt.Errorf("MergeAccounts: %w", err)
	}
	return stats, nil
}

// MergeVendors upserts vendor master data keyed by vendor_code.
func (s *Store) MergeVendors(ctx context.Context, vendors []ledger.Vendor) (ledger.MergeStats, error) {
	if len(vendors) == 0 {
		return ledger.MergeStats{}, nil
	}
	rows := make([]*VendorRow, 0, len(vendors))
	for _, v := range vendors {
		rows = append(rows, vendorRow(v))
	}
	stmt := fmt.Sprintf(`
		MERGE %s.%s t
		USING UNNEST(@rows) r
		ON t.vendor_code = r.vendor_code
		WHEN MATCHED THEN UPDATE SET
			vendor_name = r.vendor_name,
			vendor_type = r.vendor_type,
			contact_email = r.contact_email,
			contact_phone = r.contact_phone,
			address = r.address,
			is_active = r.is_active,
			updated_at = CURRENT_TIMESTAMP()
		WHEN NOT MATCHED THEN INSERT
			(vendor_code, vendor_name, vendor_type, contact_email, contact_phone, address,
			 is_active, created_at, updated_at)
		VALUES
			(r.vendor_code, r.vendor_name, r.vendor_type, r.contact_email, r.contact_phone,
			 r.address, r.is_active, CURRENT_TIMESTAMP(), CURRENT_TIMESTAMP())
	`, s.dataset, vendorsTable)

	stats, err := s.runMerge(ctx, stmt, rows)
	if err != nil {
		return ledger.MergeStats{}, fmt.Errorf("MergeVendors: %w", err)
	}
	return stats, nil
}

// MergeTransactions upserts transactions keyed by transaction_id. A matched
// row is fully overwritten except created_at.
func (s *Store) MergeTransactions(ctx context.Context, txs []ledger.Transaction) (ledger.MergeStats, error) {
	if len(txs) == 0 {
		return ledger.MergeStats{}, nil
	}
	rows := make([]*TransactionRow, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, transactionRow(t))
	}
	stmt := fmt.Sprintf(`
		MERGE %s.%s t
		USING UNNEST(@rows) r
		ON t.transaction_id = r.transaction_id
		WHEN MATCHED THEN UPDATE SET
			transaction_date = r.transaction_date,
			account_code = r.account_code,
			vendor_code = r.vendor_code,
			description = r.description,
			amount = r.amount,
			currency = r.currency,
			exchange_rate = r.exchange_rate,
			amount_base = r.amount_base,
			transaction_type = r.transaction_type,
			category = r.category,
			reference_number = r.reference_number,
			updated_at = CURRENT_TIMESTAMP()
		WHEN NOT MATCHED THEN INSERT
			(transaction_id, transaction_date, account_code, vendor_code, description,
			 amount, currency, exchange_rate, amount_base, transaction_type, category,
			 reference_number, created_at, updated_at)
		VALUES
			(r.transaction_id, r.transaction_date, r.account_code, r.vendor_code, r.description,
			 r.amount, r.currency, r.exchange_rate, r.amount_base, r.transaction_type, r.category,
			 r.reference_number, CURRENT_TIMESTAMP(), CURRENT_TIMESTAMP())
	`, s.dataset, transactionsTable)

	stats, err := s.runMerge(ctx, stmt, rows)
	if err != nil {
		return ledger.MergeStats{}, fmt.Errorf("MergeTransactions: %w", err)
	}
	return stats, nil
}

// InsertExchangeRates inserts only rates whose (currency, rate_date) pair is
// absent. The WHEN NOT MATCHED-only MERGE makes the insert conditional and
// atomic, so an existing rate is never rewritten.
func (s *Store) InsertExchangeRates(ctx context.Context, rates []ledger.ExchangeRate) (int, error) {
	if len(rates) == 0 {
		return 0, nil
	}
	rows := make([]*ExchangeRateRow, 0, len(rates))
	for _, r := range rates {
		rows = append(rows, exchangeRateRow(r))
	}
	stmt := fmt.Sprintf(`
		MERGE %s.%s t
		USING UNNEST(@rows) r
		ON t.currency = r.currency AND t.rate_date = r.rate_date
		WHEN NOT MATCHED THEN INSERT
			(currency, rate_to_base, rate_date, source, created_at)
		VALUES
			(r.currency, r.rate_to_base, r.rate_date, r.source, CURRENT_TIMESTAMP())
	`, s.dataset, exchangeRatesTable)

	stats, err := s.runMerge(ctx, stmt, rows)
	if err != nil {
		return 0, fmt.Errorf("InsertExchangeRates: %w", err)
	}
	return int(stats.Inserted), nil
}

// ListAccounts returns the full chart of accounts.
func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT account_code, account_name, account_type, parent_code, is_active,
		       created_at, updated_at
		FROM %s.%s
		ORDER BY account_code
	`, s.dataset, accountsTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: query read: %w", err)
	}
	var accounts []ledger.Account
	for {
		var row AccountRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAccounts: iterating: %w", err)
		}
		accounts = append(accounts, row.domain())
	}
	return accounts, nil
}

// ListVendors returns all vendor master data.
func (s *Store) ListVendors(ctx context.Context) ([]ledger.Vendor, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT vendor_code, vendor_name, vendor_type, contact_email, contact_phone,
		       address, is_active, created_at, updated_at
		FROM %s.%s
		ORDER BY vendor_code
	`, s.dataset, vendorsTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListVendors: query read: %w", err)
	}
	var vendors []ledger.Vendor
	for {
		var row VendorRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListVendors: iterating: %w", err)
		}
		vendors = append(vendors, row.domain())
	}
	return vendors, nil
}

// TransactionsBetween returns transactions with start <= date <= end. A zero
// start means no lower bound.
func (s *Store) TransactionsBetween(ctx context.Context, start, end time.Time) ([]ledger.Transaction, error) {
	stmt := fmt.Sprintf(`
		SELECT transaction_id, transaction_date, account_code, vendor_code, description,
		       amount, currency, exchange_rate, amount_base, transaction_type, category,
		       reference_number, created_at, updated_at
		FROM %s.%s
		WHERE transaction_date <= @end_date
	`, s.dataset, transactionsTable)
	params := []bigquery.QueryParameter{
		{Name: "end_date", Value: end.Format(dateFormat)},
	}
	if !start.IsZero() {
		stmt += " AND transaction_date >= @start_date"
		params = append(params, bigquery.QueryParameter{Name: "start_date", Value: start.Format(dateFormat)})
	}
	stmt += " ORDER BY transaction_date, transaction_id"

	q := s.client.Query(stmt)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("TransactionsBetween: query read: %w", err)
	}
	var txs []ledger.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("TransactionsBetween: iterating: %w", err)
		}
		txs = append(txs, row.domain())
	}
	return txs, nil
}

// LogReport appends one report-generation audit record.
func (s *Store) LogReport(ctx context.Context, entry *ledger.ReportLog) error {
	table := s.client.Dataset(s.dataset).Table(reportLogTable)
	if err := table.Inserter().Put(ctx, reportLogRow(entry)); err != nil {
		return fmt.Errorf("LogReport: inserting row: %w", err)
	}
	return nil
}

// Summary counts rows per table and the transaction date range in one query.
func (s *Store) Summary(ctx context.Context) (ledger.Summary, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT
			(SELECT COUNT(*) FROM %[1]s.%[2]s) AS accounts,
			(SELECT COUNT(*) FROM %[1]s.%[3]s) AS vendors,
			(SELECT COUNT(*) FROM %[1]s.%[4]s) AS transactions,
			(SELECT COUNT(*) FROM %[1]s.%[5]s) AS exchange_rates,
			(SELECT COUNT(*) FROM %[1]s.%[6]s) AS report_logs,
			(SELECT MIN(transaction_date) FROM %[1]s.%[4]s) AS min_date,
			(SELECT MAX(transaction_date) FROM %[1]s.%[4]s) AS max_date
	`, s.dataset, accountsTable, vendorsTable, transactionsTable, exchangeRatesTable, reportLogTable))

	it, err := q.Read(ctx)
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("Summary: query read: %w", err)
	}
	var row struct {
		Accounts      int64             `bigquery:"accounts"`
		Vendors       int64             `bigquery:"vendors"`
		Transactions  int64             `bigquery:"transactions"`
		ExchangeRates int64             `bigquery:"exchange_rates"`
		ReportLogs    int64             `bigquery:"report_logs"`
		MinDate       bigquery.NullDate `bigquery:"min_date"`
		MaxDate       bigquery.NullDate `bigquery:"max_date"`
	}
	if err := it.Next(&row); err != nil {
		return ledger.Summary{}, fmt.Errorf("Summary: iterating: %w", err)
	}

	summary := ledger.Summary{
		Accounts:      int(row.Accounts),
		Vendors:       int(row.Vendors),
		Transactions:  int(row.Transactions),
		ExchangeRates: int(row.ExchangeRates),
		ReportLogs:    int(row.ReportLogs),
	}
	if row.MinDate.Valid {
		summary.MinDate = row.MinDate.Date.In(time.UTC)
	}
	if row.MaxDate.Valid {
		summary.MaxDate = row.MaxDate.Date.In(time.UTC)
	}
	return summary, nil
}

var _ ledger.Store = (*Store)(nil)
