// Package report derives accounting aggregates from persisted ledger state.
// Every query is a pure function of the store contents and a date window;
// both window bounds are inclusive.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/finledger/ledger-engine/internal/ledger"
	"github.com/shopspring/decimal"
)

// Reporter computes the reporting aggregates over a ledger store.
type Reporter struct {
	store ledger.Store
}

// NewReporter creates a reporter over the given store.
func NewReporter(store ledger.Store) *Reporter {
	return &Reporter{store: store}
}

// PLRow is one profit-and-loss line: the signed net activity of a revenue or
// expense account over the window.
type PLRow struct {
	AccountType ledger.AccountType `json:"account_type"`
	AccountCode string             `json:"account_code"`
	AccountName string             `json:"account_name"`
	NetAmount   decimal.Decimal    `json:"net_amount"`
}

// ProfitLoss nets Credit minus Debit per Revenue/Expense account. Accounts
// with exactly zero net activity over the window are excluded: they add no
// informational value.
func (r *Reporter) ProfitLoss(ctx context.Context, start, end time.Time) ([]PLRow, error) {
	accounts, txs, err := r.fetch(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("ProfitLoss: %w", err)
	}

	nets := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		acct, ok := accounts[tx.AccountCode]
		if !ok || (acct.Type != ledger.AccountRevenue && acct.Type != ledger.AccountExpense) {
			continue
		}
		nets[tx.AccountCode] = nets[tx.AccountCode].Add(tx.SignedAmount())
	}

	rows := make([]PLRow, 0, len(nets))
	for code, net := range nets {
		if net.IsZero() {
			continue
		}
		acct := accounts[code]
		rows = append(rows, PLRow{
			AccountType: acct.Type,
			AccountCode: code,
			AccountName: acct.Name,
			NetAmount:   net,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AccountType != rows[j].AccountType {
			return rows[i].AccountType < rows[j].AccountType
		}
		return rows[i].AccountCode < rows[j].AccountCode
	})
	return rows, nil
}

// ExpenseRow is one expense category's aggregate over the window.
type ExpenseRow struct {
	Category string          `json:"category"`
	Count    int             `json:"transaction_count"`
	Total    decimal.Decimal `json:"total_amount"`
	Mean     decimal.Decimal `json:"avg_amount"`
	Min      decimal.Decimal `json:"min_amount"`
	Max      decimal.Decimal `json:"max_amount"`
}

// ExpenseBreakdown groups Expense-account transactions by category, sorted
// by total descending.
func (r *Reporter) ExpenseBreakdown(ctx context.Context, start, end time.Time) ([]ExpenseRow, error) {
	accounts, txs, err := r.fetch(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("ExpenseBreakdown: %w", err)
	}

	groups := make(map[string][]decimal.Decimal)
	for _, tx := range txs {
		acct, ok := accounts[tx.AccountCode]
		if !ok || acct.Type != ledger.AccountExpense {
			continue
		}
		category := tx.Category
		if category == "" {
			category = "Uncategorized"
		}
		groups[category] = append(groups[category], tx.AmountBase)
	}

	rows := make([]ExpenseRow, 0, len(groups))
	for category, amounts := range groups {
		rows = append(rows, ExpenseRow{
			Category: category,
			Count:    len(amounts),
			Total:    sum(amounts),
			Mean:     mean(amounts),
			Min:      minOf(amounts),
			Max:      maxOf(amounts),
		})
	}
	sortByTotalDesc(rows, func(row ExpenseRow) decimal.Decimal { return row.Total },
		func(row ExpenseRow) string { return row.Category })
	return rows, nil
}

// VendorRow is one vendor's aggregate spend over the window.
type VendorRow struct {
	VendorCode string          `json:"vendor_code"`
	VendorName string          `json:"vendor_name"`
	VendorType string          `json:"vendor_type"`
	Count      int             `json:"transaction_count"`
	Total      decimal.Decimal `json:"total_amount"`
	Mean       decimal.Decimal `json:"avg_amount"`
	First      time.Time       `json:"first_transaction"`
	Last       time.Time       `json:"last_transaction"`
}

// VendorAnalysis groups transactions by their vendor reference, sorted by
// total descending. Transactions without a vendor are excluded.
func (r *Reporter) VendorAnalysis(ctx context.Context, start, end time.Time) ([]VendorRow, error) {
	vendors, err := r.vendorsByCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("VendorAnalysis: %w", err)
	}
	txs, err := r.store.TransactionsBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("VendorAnalysis: %w", err)
	}

	rowsByCode := make(map[string]*VendorRow)
	amounts := make(map[string][]decimal.Decimal)
	for _, tx := range txs {
		if tx.VendorCode == "" {
			continue
		}
		row, ok := rowsByCode[tx.VendorCode]
		if !ok {
			row = &VendorRow{VendorCode: tx.VendorCode, First: tx.Date, Last: tx.Date}
			if v, found := vendors[tx.VendorCode]; found {
				row.VendorName = v.Name
				row.VendorType = v.Type
			}
			rowsByCode[tx.VendorCode] = row
		}
		row.Count++
		amounts[tx.VendorCode] = append(amounts[tx.VendorCode], tx.AmountBase)
		if tx.Date.Before(row.First) {
			row.First = tx.Date
		}
		if tx.Date.After(row.Last) {
			row.Last = tx.Date
		}
	}

	rows := make([]VendorRow, 0, len(rowsByCode))
	for code, row := range rowsByCode {
		row.Total = sum(amounts[code])
		row.Mean = mean(amounts[code])
		rows = append(rows, *row)
	}
	sortByTotalDesc(rows, func(row VendorRow) decimal.Decimal { return row.Total },
		func(row VendorRow) string { return row.VendorCode })
	return rows, nil
}

// TrendRow is the signed net activity for one (month, account type) pair.
type TrendRow struct {
	Month       string             `json:"month"` // YYYY-MM
	AccountType ledger.AccountType `json:"account_type"`
	NetAmount   decimal.Decimal    `json:"net_amount"`
}

// MonthlyTrends nets activity per calendar month and account type using the
// same Credit-minus-Debit convention as the P&L.
func (r *Reporter) MonthlyTrends(ctx context.Context, start, end time.Time) ([]TrendRow, error) {
	accounts, txs, err := r.fetch(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("MonthlyTrends: %w", err)
	}

	type key struct {
		month string
		typ   ledger.AccountType
	}
	nets := make(map[key]decimal.Decimal)
	for _, tx := range txs {
		acct, ok := accounts[tx.AccountCode]
		if !ok {
			continue
		}
		k := key{month: tx.Date.Format("2006-01"), typ: acct.Type}
		nets[k] = nets[k].Add(tx.SignedAmount())
	}

	rows := make([]TrendRow, 0, len(nets))
	for k, net := range nets {
		rows = append(rows, TrendRow{Month: k.month, AccountType: k.typ, NetAmount: net})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Month != rows[j].Month {
			return rows[i].Month < rows[j].Month
		}
		return rows[i].AccountType < rows[j].AccountType
	})
	return rows, nil
}

// ComplianceRow is one unaggregated ledger entry for audit review.
type ComplianceRow struct {
	TransactionID   string          `json:"transaction_id"`
	Date            time.Time       `json:"transaction_date"`
	AccountCode     string          `json:"account_code"`
	AccountName     string          `json:"account_name"`
	VendorName      string          `json:"vendor_name,omitempty"`
	Description     string          `json:"description"`
	AmountBase      decimal.Decimal `json:"amount_base"`
	Type            ledger.TransactionType `json:"transaction_type"`
	Category        string          `json:"category,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ComplianceLog lists every transaction in the window, newest first.
func (r *Reporter) ComplianceLog(ctx context.Context, start, end time.Time) ([]ComplianceRow, error) {
	accounts, txs, err := r.fetch(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("ComplianceLog: %w", err)
	}
	vendors, err := r.vendorsByCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("ComplianceLog: %w", err)
	}

	rows := make([]ComplianceRow, 0, len(txs))
	for _, tx := range txs {
		row := ComplianceRow{
			TransactionID:   tx.TransactionID,
			Date:            tx.Date,
			AccountCode:     tx.AccountCode,
			Description:     tx.Description,
			AmountBase:      tx.AmountBase,
			Type:            tx.Type,
			Category:        tx.Category,
			ReferenceNumber: tx.ReferenceNumber,
			CreatedAt:       tx.CreatedAt,
			UpdatedAt:       tx.UpdatedAt,
		}
		if acct, ok := accounts[tx.AccountCode]; ok {
			row.AccountName = acct.Name
		}
		if v, ok := vendors[tx.VendorCode]; ok {
			row.VendorName = v.Name
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.After(rows[j].Date)
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return rows, nil
}

// BalanceRow is one active account's cumulative signed balance.
type BalanceRow struct {
	AccountCode string             `json:"account_code"`
	AccountName string             `json:"account_name"`
	AccountType ledger.AccountType `json:"account_type"`
	Balance     decimal.Decimal    `json:"balance"`
}

// AccountBalances nets all activity up to and including asOf for every
// active account, zero-activity accounts included.
func (r *Reporter) AccountBalances(ctx context.Context, asOf time.Time) ([]BalanceRow, error) {
	accounts, err := r.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("AccountBalances: listing accounts: %w", err)
	}
	txs, err := r.store.TransactionsBetween(ctx, time.Time{}, asOf)
	if err != nil {
		return nil, fmt.Errorf("AccountBalances: %w", err)
	}

	nets := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		nets[tx.AccountCode] = nets[tx.AccountCode].Add(tx.SignedAmount())
	}

	rows := make([]BalanceRow, 0, len(accounts))
	for _, acct := range accounts {
		if !acct.Active {
			continue
		}
		rows = append(rows, BalanceRow{
			AccountCode: acct.Code,
			AccountName: acct.Name,
			AccountType: acct.Type,
			Balance:     nets[acct.Code],
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AccountType != rows[j].AccountType {
			return rows[i].AccountType < rows[j].AccountType
		}
		return rows[i].AccountCode < rows[j].AccountCode
	})
	return rows, nil
}

// fetch loads the account map and the transactions in the window.
func (r *Reporter) fetch(ctx context.Context, start, end time.Time) (map[string]ledger.Account, []ledger.Transaction, error) {
	accounts, err := r.store.ListAccounts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing accounts: %w", err)
	}
	byCode := make(map[string]ledger.Account, len(accounts))
	for _, a := range accounts {
		byCode[a.Code] = a
	}
	txs, err := r.store.TransactionsBetween(ctx, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("querying transactions: %w", err)
	}
	return byCode, txs, nil
}

func (r *Reporter) vendorsByCode(ctx context.Context) (map[string]ledger.Vendor, error) {
	vendors, err := r.store.ListVendors(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing vendors: %w", err)
	}
	byCode := make(map[string]ledger.Vendor, len(vendors))
	for _, v := range vendors {
		byCode[v.Code] = v
	}
	return byCode, nil
}

func sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return sum(values).Div(decimal.NewFromInt(int64(len(values))))
}

func minOf(values []decimal.Decimal) decimal.Decimal {
	m := values[0]
	for _, v := range values[1:] {
		if v.LessThan(m) {
			m = v
		}
	}
	return m
}

func maxOf(values []decimal.Decimal) decimal.Decimal {
	m := values[0]
	for _, v := range values[1:] {
		if v.GreaterThan(m) {
			m = v
		}
	}
	return m
}

// sortByTotalDesc orders rows by total descending, breaking ties by key for
// deterministic output.
func sortByTotalDesc[T any](rows []T, total func(T) decimal.Decimal, key func(T) string) {
	sort.Slice(rows, func(i, j int) bool {
		ti, tj := total(rows[i]), total(rows[j])
		if !ti.Equal(tj) {
			return ti.GreaterThan(tj)
		}
		return key(rows[i]) < key(rows[j])
	})
}
