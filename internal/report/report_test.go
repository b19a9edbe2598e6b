package report

import (
	"context"
	"testing"
	"time"

	"github.com/finledger/ledger-engine/internal/ledger"
	"github.com/finledger/ledger-engine/internal/ledger/memory"
	"github.com/shopspring/decimal"
)

func day(month, d int) time.Time {
	return time.Date(2024, time.Month(month), d, 0, 0, 0, 0, time.UTC)
}

func seedAccounts(t *testing.T, store *memory.Store) {
	t.Helper()
	_, err := store.MergeAccounts(context.Background(), []ledger.Account{
		{Code: "1001", Name: "Cash", Type: ledger.AccountAsset, Active: true},
		{Code: "4001", Name: "Sales", Type: ledger.AccountRevenue, Active: true},
		{Code: "5001", Name: "Office Costs", Type: ledger.AccountExpense, Active: true},
		{Code: "5002", Name: "Wash", Type: ledger.AccountExpense, Active: true},
		{Code: "9999", Name: "Retired", Type: ledger.AccountExpense, Active: false},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func entry(id string, date time.Time, account, vendor string, amount float64, typ ledger.TransactionType, category string) ledger.Transaction {
	d := decimal.NewFromFloat(amount)
	return ledger.Transaction{
		TransactionID: id,
		Date:          date,
		AccountCode:   account,
		VendorCode:    vendor,
		Amount:        d,
		Currency:      "USD",
		ExchangeRate:  decimal.NewFromInt(1),
		AmountBase:    d,
		Type:          typ,
		Category:      category,
	}
}

func TestProfitLoss(t *testing.T) {
	store := memory.NewStore()
	seedAccounts(t, store)
	ctx := context.Background()

	_, err := store.MergeTransactions(ctx, []ledger.Transaction{
		entry("T1", day(5, 10), "4001", "", 1000, ledger.Credit, ""),
		entry("T2", day(5, 11), "5001", "", 200, ledger.Debit, "Travel"),
		// Offsetting pair nets to zero and must drop out of the statement.
		entry("T3", day(5, 12), "5002", "", 50, ledger.Debit, ""),
		entry("T4", day(5, 13), "5002", "", 50, ledger.Credit, ""),
		// Asset activity never appears on the P&L.
		entry("T5", day(5, 14), "1001", "", 10, ledger.Debit, ""),
	})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := NewReporter(store).ProfitLoss(ctx, day(5, 1), day(5, 31))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(rows), rows)
	}
	if rows[0].AccountCode != "5001" || !rows[0].NetAmount.Equal(decimal.NewFromInt(-200)) {
		t.Errorf("row 0 = %s %s, want 5001 -200", rows[0].AccountCode, rows[0].NetAmount)
	}
	if rows[1].AccountCode != "4001" || !rows[1].NetAmount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("row 1 = %s %s, want 4001 1000", rows[1].AccountCode, rows[1].NetAmount)
	}
}

func TestProfitLossWindowIsInclusive(t *testing.T) {
	store := memory.NewStore()
	seedAccounts(t, store)
	ctx := context.Background()

	_, err := store.MergeTransactions(ctx, []ledger.Transaction{
		entry("T1", day(5, 1), "4001", "", 100, ledger.Credit, ""),
		entry("T2", day(5, 31), "4001", "", 100, ledger.Credit, ""),
		entry("T3", day(6, 1), "4001", "", 100, ledger.Credit, ""),
	})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := NewReporter(store).ProfitLoss(ctx, day(5, 1), day(5, 31))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || !rows[0].NetAmount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("rows = %+v, want single 4001 row netting 200", rows)
	}
}

func TestExpenseBreakdown(t *testing.T) {
	store := memory.NewStore()
	seedAccounts(t, store)
	ctx := context.Background()

	_, err := store.MergeTransactions(ctx, []ledger.Transaction{
		entry("T1", day(5, 10), "5001", "", 100, ledger.Debit, "Travel"),
		entry("T2", day(5, 11), "5001", "", 300, ledger.Debit, "Travel"),
		entry("T3", day(5, 12), "5001", "", 50, ledger.Debit, ""),
		// Revenue postings stay out of the expense breakdown.
		entry("T4", day(5, 13), "4001", "", 900, ledger.Credit, "Travel"),
	})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := NewReporter(store).ExpenseBreakdown(ctx, day(5, 1), day(5, 31))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(rows), rows)
	}

	travel := rows[0]
	if travel.Category != "Travel" || travel.Count != 2 {
		t.Errorf("row 0 = %s count %d, want Travel count 2", travel.Category, travel.Count)
	}
	if !travel.Total.Equal(decimal.NewFromInt(400)) || !travel.Mean.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Travel total/mean = %s/%s, want 400/200", travel.Total, travel.Mean)
	}
	if !travel.Min.Equal(decimal.NewFromInt(100)) || !travel.Max.Equal(decimal.NewFromInt(300)) {
		t.Errorf("Travel min/max = %s/%s, want 100/300", travel.Min, travel.Max)
	}
	if rows[1].Category != "Uncategorized" {
		t.Errorf("row 1 = %s, want Uncategorized", rows[1].Category)
	}
}

func TestVendorAnalysis(t *testing.T) {
	store := memory.NewStore()
	seedAccounts(t, store)
	ctx := context.Background()

	if _, err := store.MergeVendors(ctx, []ledger.Vendor{
		{Code: "V1", Name: "Acme", Type: "Supplier", Active: true},
		{Code: "V2", Name: "Globex", Type: "Supplier", Active: true},
	}); err != nil {
		t.Fatal(err)
	}
	_, err := store.MergeTransactions(ctx, []ledger.Transaction{
		entry("T1", day(5, 10), "5001", "V1", 100, ledger.Debit, ""),
		entry("T2", day(5, 20), "5001", "V1", 300, ledger.Debit, ""),
		entry("T3", day(5, 15), "5001", "V2", 50, ledger.Debit, ""),
		entry("T4", day(5, 16), "5001", "", 999, ledger.Debit, ""),
	})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := NewReporter(store).VendorAnalysis(ctx, day(5, 1), day(5, 31))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (vendorless spend excluded): %+v", len(rows), rows)
	}

	top := rows[0]
	if top.VendorCode != "V1" || top.VendorName != "Acme" {
		t.Errorf("row 0 = %s/%s, want V1/Acme", top.VendorCode, top.VendorName)
	}
	if top.Count != 2 || !top.Total.Equal(decimal.NewFromInt(400)) {
		t.Errorf("V1 count/total = %d/%s, want 2/400", top.Count, top.Total)
	}
	if !top.First.Equal(day(5, 10)) || !top.Last.Equal(day(5, 20)) {
		t.Errorf("V1 first/last = %v/%v, want May 10/May 20", top.First, top.Last)
	}
}

func TestMonthlyTrends(t *testing.T) {
	store := memory.NewStore()
	seedAccounts(t, store)
	ctx := context.Background()

	_, err := store.MergeTransactions(ctx, []ledger.Transaction{
		entry("T1", day(5, 10), "4001", "", 1000, ledger.Credit, ""),
		entry("T2", day(5, 20), "5001", "", 200, ledger.Debit, ""),
		entry("T3", day(6, 5), "4001", "", 500, ledger.Credit, ""),
	})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := NewReporter(store).MonthlyTrends(ctx, day(5, 1), day(6, 30))
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		month string
		typ   ledger.AccountType
		net   int64
	}{
		{"2024-05", ledger.AccountExpense, -200},
		{"2024-05", ledger.AccountRevenue, 1000},
		{"2024-06", ledger.AccountRevenue, 500},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d: %+v", len(rows), len(want), rows)
	}
	for i, w := range want {
		if rows[i].Month != w.month || rows[i].AccountType != w.typ ||
			!rows[i].NetAmount.Equal(decimal.NewFromInt(w.net)) {
			t.Errorf("row %d = %s %s %s, want %s %s %d",
				i, rows[i].Month, rows[i].AccountType, rows[i].NetAmount, w.month, w.typ, w.net)
		}
	}
}

func TestComplianceLogNewestFirst(t *testing.T) {
	store := memory.NewStore()
	seedAccounts(t, store)
	ctx := context.Background()

	_, err := store.MergeTransactions(ctx, []ledger.Transaction{
		entry("T1", day(5, 10), "5001", "", 10, ledger.Debit, ""),
		entry("T2", day(5, 20), "5001", "", 20, ledger.Debit, ""),
		entry("T3", day(5, 15), "5001", "", 30, ledger.Debit, ""),
	})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := NewReporter(store).ComplianceLog(ctx, day(5, 1), day(5, 31))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	order := []string{rows[0].TransactionID, rows[1].TransactionID, rows[2].TransactionID}
	if order[0] != "T2" || order[1] != "T3" || order[2] != "T1" {
		t.Errorf("order = %v, want newest first [T2 T3 T1]", order)
	}
	if rows[0].AccountName != "Office Costs" {
		t.Errorf("account name = %q, want joined Office Costs", rows[0].AccountName)
	}
}

func TestAccountBalances(t *testing.T) {
	store := memory.NewStore()
	seedAccounts(t, store)
	ctx := context.Background()

	_, err := store.MergeTransactions(ctx, []ledger.Transaction{
		entry("T1", day(5, 10), "1001", "", 100, ledger.Credit, ""),
		entry("T2", day(5, 20), "1001", "", 30, ledger.Debit, ""),
		entry("T3", day(6, 20), "1001", "", 500, ledger.Credit, ""), // after asOf
	})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := NewReporter(store).AccountBalances(ctx, day(5, 31))
	if err != nil {
		t.Fatal(err)
	}
	// Four active accounts, inactive 9999 excluded; zero-activity ones stay.
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4: %+v", len(rows), rows)
	}

	byCode := make(map[string]BalanceRow)
	for _, r := range rows {
		if r.AccountCode == "9999" {
			t.Error("inactive account must not appear")
		}
		byCode[r.AccountCode] = r
	}
	if !byCode["1001"].Balance.Equal(decimal.NewFromInt(70)) {
		t.Errorf("1001 balance = %s, want 70 (asOf excludes June)", byCode["1001"].Balance)
	}
	if !byCode["4001"].Balance.IsZero() {
		t.Errorf("4001 balance = %s, want 0", byCode["4001"].Balance)
	}
}

func TestRiskIndicators(t *testing.T) {
	store := memory.NewStore()
	seedAccounts(t, store)
	ctx := context.Background()

	_, err := store.MergeTransactions(ctx, []ledger.Transaction{
		entry("T1", day(5, 10), "4001", "", 1000, ledger.Credit, ""),
		entry("T2", day(5, 11), "5001", "", 200, ledger.Debit, "Travel"),
	})
	if err != nil {
		t.Fatal(err)
	}

	indicators, err := NewReporter(store).RiskIndicators(ctx, day(5, 1), day(5, 31))
	if err != nil {
		t.Fatal(err)
	}
	if !indicators.TotalRevenue.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("revenue = %s, want 1000", indicators.TotalRevenue)
	}
	if !indicators.TotalExpenses.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expenses = %s, want 200", indicators.TotalExpenses)
	}
	if !indicators.NetIncome.Equal(decimal.NewFromInt(800)) || !indicators.Profitable {
		t.Errorf("net income = %s profitable=%v, want 800 profitable", indicators.NetIncome, indicators.Profitable)
	}
}

func TestConcentrationTopThree(t *testing.T) {
	totals := map[string]decimal.Decimal{
		"V1": decimal.NewFromInt(500),
		"V2": decimal.NewFromInt(300),
		"V3": decimal.NewFromInt(100),
		"V4": decimal.NewFromInt(50),
		"V5": decimal.NewFromInt(50),
	}
	pct, top := concentration(totals)
	if !pct.Equal(decimal.NewFromInt(90)) {
		t.Errorf("concentration = %s, want 90", pct)
	}
	if len(top) != 3 || top[0] != "V1" || top[1] != "V2" || top[2] != "V3" {
		t.Errorf("top = %v, want [V1 V2 V3]", top)
	}
}

func TestConcentrationFewerThanThree(t *testing.T) {
	totals := map[string]decimal.Decimal{"only": decimal.NewFromInt(42)}
	pct, top := concentration(totals)
	if !pct.Equal(decimal.NewFromInt(100)) {
		t.Errorf("concentration = %s, want 100", pct)
	}
	if len(top) != 1 {
		t.Errorf("top = %v, want single key", top)
	}

	pct, top = concentration(nil)
	if !pct.IsZero() || top != nil {
		t.Errorf("empty input = %s/%v, want 0/nil", pct, top)
	}
}
