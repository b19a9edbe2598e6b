package transform

import (
	"testing"
	"time"

	"github.com/finledger/ledger-engine/internal/ledger"
	"github.com/finledger/ledger-engine/internal/rates"
	"github.com/shopspring/decimal"
)

func testTable() rates.Table {
	return rates.Default(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
}

func TestTransactionsCanonicalizesColumns(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"spaces to underscores", "Transaction ID", ColTransactionID},
		{"trans_id synonym", "Trans_ID", ColTransactionID},
		{"date synonym", "Date", ColDate},
		{"account synonym", "Account", ColAccountCode},
		{"dash separator", "trans-type", ColType},
		{"ref_num synonym", "Ref_Num", ColReferenceNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := Transactions([]Record{{tt.header: "x"}}, testTable())
			if !batch.HasColumn(tt.want) {
				t.Errorf("header %q: column %q not present, got %v", tt.header, tt.want, batch.Columns)
			}
		})
	}
}

func TestTransactionsCleansValues(t *testing.T) {
	records := []Record{{
		"Transaction ID":   "  t-001  ",
		"Transaction Date": "2024-05-15",
		"Account Code":     "acct1",
		"Vendor Code":      "v100",
		"Description":      "office chairs",
		"Amount":           "1,200.50",
		"Currency":         "usd",
		"Transaction Type": "db",
	}}
	batch := Transactions(records, testTable())
	if len(batch.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(batch.Records))
	}
	n := batch.Records[0]

	if n.TransactionID != "T-001" {
		t.Errorf("TransactionID = %q, want T-001", n.TransactionID)
	}
	if n.AccountCode != "ACCT1" {
		t.Errorf("AccountCode = %q, want ACCT1", n.AccountCode)
	}
	if !n.DateValid || n.Date.Format("2006-01-02") != "2024-05-15" {
		t.Errorf("Date = %v valid=%v, want 2024-05-15 valid", n.Date, n.DateValid)
	}
	if !n.Amount.Equal(decimal.NewFromFloat(1200.50)) {
		t.Errorf("Amount = %s, want 1200.5", n.Amount)
	}
	if n.Currency != "USD" || !n.CurrencyKnown {
		t.Errorf("Currency = %q known=%v, want USD known", n.Currency, n.CurrencyKnown)
	}
	if n.Type != ledger.Debit || !n.TypeValid {
		t.Errorf("Type = %q valid=%v, want Debit valid", n.Type, n.TypeValid)
	}
	if n.Year != 2024 || n.Quarter != 2 || n.Month != "2024-05" {
		t.Errorf("calendar = %d Q%d %s, want 2024 Q2 2024-05", n.Year, n.Quarter, n.Month)
	}
}

func TestTransactionsCurrencyNormalization(t *testing.T) {
	table := testTable()

	tests := []struct {
		name        string
		currency    string
		amount      string
		wantRate    decimal.Decimal
		wantBase    decimal.Decimal
		wantMissing bool
	}{
		{
			name:     "base currency passes through",
			currency: "USD",
			amount:   "100",
			wantRate: decimal.NewFromInt(1),
			wantBase: decimal.NewFromInt(100),
		},
		{
			name:     "empty currency defaults to base",
			currency: "",
			amount:   "50",
			wantRate: decimal.NewFromInt(1),
			wantBase: decimal.NewFromInt(50),
		},
		{
			name:     "known rate converts",
			currency: "EUR",
			amount:   "200",
			wantRate: decimal.NewFromFloat(0.85),
			wantBase: decimal.NewFromInt(170),
		},
		{
			name:        "missing rate never blocks",
			currency:    "CHF",
			amount:      "300",
			wantRate:    decimal.NewFromInt(1),
			wantBase:    decimal.NewFromInt(300),
			wantMissing: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := Transactions([]Record{{
				"transaction_id": "T1",
				"amount":         tt.amount,
				"currency":       tt.currency,
			}}, table)
			n := batch.Records[0]
			if !n.ExchangeRate.Equal(tt.wantRate) {
				t.Errorf("ExchangeRate = %s, want %s", n.ExchangeRate, tt.wantRate)
			}
			if !n.AmountBase.Equal(tt.wantBase) {
				t.Errorf("AmountBase = %s, want %s", n.AmountBase, tt.wantBase)
			}
			if n.RateMissing != tt.wantMissing {
				t.Errorf("RateMissing = %v, want %v", n.RateMissing, tt.wantMissing)
			}
		})
	}
}

func TestTransactionsAmountCoercion(t *testing.T) {
	batch := Transactions([]Record{
		{"transaction_id": "T1", "amount": ""},
		{"transaction_id": "T2", "amount": "abc"},
		{"transaction_id": "T3", "amount": "42"},
	}, testTable())

	if !batch.Records[0].AmountMissing {
		t.Error("empty amount should be flagged missing")
	}
	if !batch.Records[1].AmountCoerced || !batch.Records[1].Amount.IsZero() {
		t.Errorf("non-numeric amount should coerce to 0, got %s coerced=%v",
			batch.Records[1].Amount, batch.Records[1].AmountCoerced)
	}
	if batch.Records[2].AmountMissing || batch.Records[2].AmountCoerced {
		t.Error("numeric amount should not be flagged")
	}
}

func TestTransactionsSignedAmounts(t *testing.T) {
	batch := Transactions([]Record{
		{"transaction_id": "T1", "amount": "100", "transaction_type": "Debit"},
		{"transaction_id": "T2", "amount": "100", "transaction_type": "Credit"},
	}, testTable())

	if !batch.Records[0].AmountSigned.Equal(decimal.NewFromInt(-100)) {
		t.Errorf("debit signed = %s, want -100", batch.Records[0].AmountSigned)
	}
	if !batch.Records[1].AmountSigned.Equal(decimal.NewFromInt(100)) {
		t.Errorf("credit signed = %s, want 100", batch.Records[1].AmountSigned)
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name        string
		description string
		category    string
		want        string
	}{
		{"keyword match", "Flight to Berlin", "", "Travel"},
		{"explicit category wins", "Flight to Berlin", "marketing", "Marketing"},
		{"no match falls back", "miscellaneous payment", "", "Other"},
		{"later rule wins on overlap", "office space lease", "", "Rent"},
		{"case insensitive", "SOFTWARE LICENSE", "", "Software"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := Transactions([]Record{{
				"transaction_id": "T1",
				"description":    tt.description,
				"category":       tt.category,
			}}, testTable())
			if got := batch.Records[0].FinalCategory; got != tt.want {
				t.Errorf("FinalCategory = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTransactionsIsDeterministic(t *testing.T) {
	records := []Record{{
		"transaction_id":   "T1",
		"transaction_date": "2024-05-15",
		"account_code":     "A1",
		"amount":           "99.95",
		"currency":         "EUR",
		"transaction_type": "Credit",
		"description":      "hotel booking",
	}}
	table := testTable()

	first := Transactions(records, table)
	second := Transactions(records, table)
	a, b := first.Records[0], second.Records[0]
	if a.TransactionID != b.TransactionID || !a.AmountBase.Equal(b.AmountBase) ||
		a.FinalCategory != b.FinalCategory || !a.Date.Equal(b.Date) {
		t.Errorf("repeat transform diverged: %+v vs %+v", a, b)
	}
}

func TestAccountsMasterTransform(t *testing.T) {
	accounts := Accounts([]Record{{
		"account_code": "a100",
		"account_name": "operating expenses",
		"account_type": "EXPENSE",
		"is_active":    "",
	}})
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	a := accounts[0]
	if a.Code != "A100" {
		t.Errorf("Code = %q, want A100", a.Code)
	}
	if a.Name != "Operating Expenses" {
		t.Errorf("Name = %q, want Operating Expenses", a.Name)
	}
	if a.Type != ledger.AccountExpense {
		t.Errorf("Type = %q, want Expense", a.Type)
	}
	if !a.Active {
		t.Error("empty is_active should default to true")
	}
}

func TestVendorsMasterTransform(t *testing.T) {
	vendors := Vendors([]Record{{
		"vendor_code":   "v1",
		"vendor_name":   "acme corp",
		"contact_email": "  Billing@Acme.COM ",
		"is_active":     "N",
	}})
	v := vendors[0]
	if v.Code != "V1" || v.Name != "Acme Corp" {
		t.Errorf("got %q / %q", v.Code, v.Name)
	}
	if v.Type != "Supplier" {
		t.Errorf("Type = %q, want default Supplier", v.Type)
	}
	if v.ContactEmail != "billing@acme.com" {
		t.Errorf("ContactEmail = %q, want billing@acme.com", v.ContactEmail)
	}
	if v.Active {
		t.Error("is_active=N should deactivate the vendor")
	}
}
