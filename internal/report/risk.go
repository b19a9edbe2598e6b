package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/finledger/ledger-engine/internal/ledger"
	"github.com/shopspring/decimal"
)

// RiskIndicatorsReport summarizes concentration and profitability risk over
// the window.
type RiskIndicatorsReport struct {
	PeriodStart             time.Time       `json:"period_start"`
	PeriodEnd               time.Time       `json:"period_end"`
	TotalRevenue            decimal.Decimal `json:"total_revenue"`
	TotalExpenses           decimal.Decimal `json:"total_expenses"`
	NetIncome               decimal.Decimal `json:"net_income"`
	Profitable              bool            `json:"profitable"`
	ExpenseConcentrationPct decimal.Decimal `json:"expense_concentration_pct"`
	TopExpenseCategories    []string        `json:"top_expense_categories"`
	VendorConcentrationPct  decimal.Decimal `json:"vendor_concentration_pct"`
	TopVendors              []string        `json:"top_vendors"`
	LargeTransactionCount   int             `json:"large_transaction_count"`
	LargeTransactionTotal   decimal.Decimal `json:"large_transaction_total"`
}

// largeTransactionThreshold flags single postings big enough to warrant a
// second look during review.
var largeTransactionThreshold = decimal.NewFromInt(10_000)

// RiskIndicators computes concentration metrics: the share of total expense
// carried by the top three categories and of total vendor spend carried by
// the top three vendors, both as percentages, plus net income over the
// window.
func (r *Reporter) RiskIndicators(ctx context.Context, start, end time.Time) (*RiskIndicatorsReport, error) {
	accounts, txs, err := r.fetch(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("RiskIndicators: %w", err)
	}

	out := &RiskIndicatorsReport{PeriodStart: start, PeriodEnd: end}

	categoryTotals := make(map[string]decimal.Decimal)
	vendorTotals := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		acct, known := accounts[tx.AccountCode]
		if known {
			switch acct.Type {
			case ledger.AccountRevenue:
				out.TotalRevenue = out.TotalRevenue.Add(tx.SignedAmount())
			case ledger.AccountExpense:
				// Expenses accumulate as positive magnitudes; debits
				// grow an expense account.
				out.TotalExpenses = out.TotalExpenses.Add(tx.SignedAmount().Neg())
				category := tx.Category
				if category == "" {
					category = "Uncategorized"
				}
				categoryTotals[category] = categoryTotals[category].Add(tx.AmountBase)
			}
		}
		if tx.VendorCode != "" {
			vendorTotals[tx.VendorCode] = vendorTotals[tx.VendorCode].Add(tx.AmountBase)
		}
		if tx.AmountBase.Abs().GreaterThanOrEqual(largeTransactionThreshold) {
			out.LargeTransactionCount++
			out.LargeTransactionTotal = out.LargeTransactionTotal.Add(tx.AmountBase.Abs())
		}
	}

	out.NetIncome = out.TotalRevenue.Sub(out.TotalExpenses)
	out.Profitable = out.NetIncome.IsPositive()
	out.ExpenseConcentrationPct, out.TopExpenseCategories = concentration(categoryTotals)
	out.VendorConcentrationPct, out.TopVendors = concentration(vendorTotals)
	return out, nil
}

// concentration returns the percentage of the grand total held by the three
// largest keys, along with those keys in descending order. An empty input
// yields zero.
func concentration(totals map[string]decimal.Decimal) (decimal.Decimal, []string) {
	if len(totals) == 0 {
		return decimal.Zero, nil
	}

	type entry struct {
		key   string
		total decimal.Decimal
	}
	entries := make([]entry, 0, len(totals))
	grand := decimal.Zero
	for key, total := range totals {
		entries = append(entries, entry{key, total})
		grand = grand.Add(total)
	}
	if grand.IsZero() {
		return decimal.Zero, nil
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].total.Equal(entries[j].total) {
			return entries[i].total.GreaterThan(entries[j].total)
		}
		return entries[i].key < entries[j].key
	})

	top := entries
	if len(top) > 3 {
		top = top[:3]
	}
	topTotal := decimal.Zero
	keys := make([]string, 0, len(top))
	for _, e := range top {
		topTotal = topTotal.Add(e.total)
		keys = append(keys, e.key)
	}
	return topTotal.Div(grand).Mul(decimal.NewFromInt(100)).Round(2), keys
}
