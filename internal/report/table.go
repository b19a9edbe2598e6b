package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"
)

// Table is a report rendered into header and rows, the shape written to
// artifact storage.
type Table struct {
	Header []string
	Rows   [][]string
}

// RecordCount returns the number of data rows.
func (t *Table) RecordCount() int {
	return len(t.Rows)
}

// CSV renders the table as UTF-8 CSV with a header row.
func (t *Table) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return nil, fmt.Errorf("Table.CSV: writing header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, fmt.Errorf("Table.CSV: writing rows: %w", err)
	}
	return buf.Bytes(), nil
}

const dateLayout = "2006-01-02"

// ProfitLossTable renders P&L rows.
func ProfitLossTable(rows []PLRow) *Table {
	t := &Table{Header: []string{"account_type", "account_code", "account_name", "net_amount"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			string(r.AccountType), r.AccountCode, r.AccountName, r.NetAmount.StringFixed(2),
		})
	}
	return t
}

// ExpenseBreakdownTable renders expense category rows.
func ExpenseBreakdownTable(rows []ExpenseRow) *Table {
	t := &Table{Header: []string{"category", "transaction_count", "total_amount", "avg_amount", "min_amount", "max_amount"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.Category,
			fmt.Sprintf("%d", r.Count),
			r.Total.StringFixed(2),
			r.Mean.StringFixed(2),
			r.Min.StringFixed(2),
			r.Max.StringFixed(2),
		})
	}
	return t
}

// VendorAnalysisTable renders vendor spend rows.
func VendorAnalysisTable(rows []VendorRow) *Table {
	t := &Table{Header: []string{"vendor_code", "vendor_name", "vendor_type", "transaction_count", "total_amount", "avg_amount", "first_transaction", "last_transaction"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.VendorCode, r.VendorName, r.VendorType,
			fmt.Sprintf("%d", r.Count),
			r.Total.StringFixed(2),
			r.Mean.StringFixed(2),
			r.First.Format(dateLayout),
			r.Last.Format(dateLayout),
		})
	}
	return t
}

// MonthlyTrendsTable renders trend rows.
func MonthlyTrendsTable(rows []TrendRow) *Table {
	t := &Table{Header: []string{"month", "account_type", "net_amount"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Month, string(r.AccountType), r.NetAmount.StringFixed(2)})
	}
	return t
}

// ComplianceLogTable renders the audit listing.
func ComplianceLogTable(rows []ComplianceRow) *Table {
	t := &Table{Header: []string{"transaction_id", "transaction_date", "account_code", "account_name", "vendor_name", "description", "amount_base", "transaction_type", "category", "reference_number", "created_at", "updated_at"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.TransactionID,
			r.Date.Format(dateLayout),
			r.AccountCode,
			r.AccountName,
			r.VendorName,
			r.Description,
			r.AmountBase.StringFixed(2),
			string(r.Type),
			r.Category,
			r.ReferenceNumber,
			r.CreatedAt.Format(time.RFC3339),
			r.UpdatedAt.Format(time.RFC3339),
		})
	}
	return t
}

// AccountBalancesTable renders balance rows.
func AccountBalancesTable(rows []BalanceRow) *Table {
	t := &Table{Header: []string{"account_code", "account_name", "account_type", "balance"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.AccountCode, r.AccountName, string(r.AccountType), r.Balance.StringFixed(2)})
	}
	return t
}

// RiskIndicatorsTable renders the risk summary as a two-column listing.
func RiskIndicatorsTable(r *RiskIndicatorsReport) *Table {
	return &Table{
		Header: []string{"indicator", "value"},
		Rows: [][]string{
			{"period_start", r.PeriodStart.Format(dateLayout)},
			{"period_end", r.PeriodEnd.Format(dateLayout)},
			{"total_revenue", r.TotalRevenue.StringFixed(2)},
			{"total_expenses", r.TotalExpenses.StringFixed(2)},
			{"net_income", r.NetIncome.StringFixed(2)},
			{"profitable", fmt.Sprintf("%t", r.Profitable)},
			{"expense_concentration_pct", r.ExpenseConcentrationPct.StringFixed(2)},
			{"top_expense_categories", strings.Join(r.TopExpenseCategories, "; ")},
			{"vendor_concentration_pct", r.VendorConcentrationPct.StringFixed(2)},
			{"top_vendors", strings.Join(r.TopVendors, "; ")},
			{"large_transaction_count", fmt.Sprintf("%d", r.LargeTransactionCount)},
			{"large_transaction_total", r.LargeTransactionTotal.StringFixed(2)},
		},
	}
}

// ReportType names the supported report kinds as stored in the report log.
const (
	TypeProfitLoss       = "profit_loss"
	TypeExpenseBreakdown = "expense_breakdown"
	TypeVendorAnalysis   = "vendor_analysis"
	TypeMonthlyTrends    = "monthly_trends"
	TypeComplianceLog    = "compliance_log"
	TypeAccountBalances  = "account_balances"
	TypeRiskIndicators   = "risk_indicators"
)

// AllTypes lists every report kind in generation order.
var AllTypes = []string{
	TypeProfitLoss,
	TypeExpenseBreakdown,
	TypeVendorAnalysis,
	TypeMonthlyTrends,
	TypeComplianceLog,
	TypeAccountBalances,
	TypeRiskIndicators,
}

// Generate runs the named report over the window and renders it.
func (r *Reporter) Generate(ctx context.Context, reportType string, start, end time.Time) (*Table, error) {
	switch reportType {
	case TypeProfitLoss:
		rows, err := r.ProfitLoss(ctx, start, end)
		if err != nil {
			return nil, err
		}
		return ProfitLossTable(rows), nil
	case TypeExpenseBreakdown:
		rows, err := r.ExpenseBreakdown(ctx, start, end)
		if err != nil {
			return nil, err
		}
		return ExpenseBreakdownTable(rows), nil
	case TypeVendorAnalysis:
		rows, err := r.VendorAnalysis(ctx, start, end)
		if err != nil {
			return nil, err
		}
		return VendorAnalysisTable(rows), nil
	case TypeMonthlyTrends:
		rows, err := r.MonthlyTrends(ctx, start, end)
		if err != nil {
			return nil, err
		}
		return MonthlyTrendsTable(rows), nil
	case TypeComplianceLog:
		rows, err := r.ComplianceLog(ctx, start, end)
		if err != nil {
			return nil, err
		}
		return ComplianceLogTable(rows), nil
	case TypeAccountBalances:
		rows, err := r.AccountBalances(ctx, end)
		if err != nil {
			return nil, err
		}
		return AccountBalancesTable(rows), nil
	case TypeRiskIndicators:
		indicators, err := r.RiskIndicators(ctx, start, end)
		if err != nil {
			return nil, err
		}
		return RiskIndicatorsTable(indicators), nil
	default:
		return nil, fmt.Errorf("Generate: unknown report type %q", reportType)
	}
}
