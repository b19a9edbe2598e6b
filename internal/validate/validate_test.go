package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/finledger/ledger-engine/internal/ledger"
	"github.com/finledger/ledger-engine/internal/rates"
	"github.com/finledger/ledger-engine/internal/transform"
)

var testNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func testRules() Rules {
	rules := DefaultRules()
	rules.Now = testNow
	return rules
}

func buildBatch(records []transform.Record) *transform.Batch {
	return transform.Transactions(records, rates.Default(testNow))
}

func validRecord(id string) transform.Record {
	return transform.Record{
		"transaction_id":   id,
		"transaction_date": "2024-05-15",
		"account_code":     "A100",
		"amount":           "250.00",
		"currency":         "USD",
		"transaction_type": "Debit",
	}
}

func hasMessage(messages []string, substr string) bool {
	for _, m := range messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func TestTransactionsEmptyDataset(t *testing.T) {
	result := Transactions(buildBatch(nil), testRules())
	if result.IsValid {
		t.Error("empty dataset should be invalid")
	}
	if !hasMessage(result.Errors, "Dataset is empty") {
		t.Errorf("missing empty-dataset error, got %v", result.Errors)
	}
	if result.QualityScore != 90 {
		t.Errorf("QualityScore = %v, want 90", result.QualityScore)
	}
}

func TestTransactionsCleanBatch(t *testing.T) {
	result := Transactions(buildBatch([]transform.Record{
		validRecord("T1"), validRecord("T2"), validRecord("T3"),
	}), testRules())

	if !result.IsValid {
		t.Fatalf("clean batch should be valid, errors: %v", result.Errors)
	}
	if result.QualityScore != 100 {
		t.Errorf("QualityScore = %v, want 100", result.QualityScore)
	}
	if result.ValidRecords != 3 || result.InvalidRecords != 0 {
		t.Errorf("valid/invalid = %d/%d, want 3/0", result.ValidRecords, result.InvalidRecords)
	}
}

func TestTransactionsMissingRequiredColumn(t *testing.T) {
	records := []transform.Record{{
		"transaction_id":   "T1",
		"transaction_date": "2024-05-15",
		"account_code":     "A100",
		"amount":           "10.00",
		// no transaction_type column at all
	}}
	result := Transactions(buildBatch(records), testRules())
	if result.IsValid {
		t.Error("batch without transaction_type column should be invalid")
	}
	if !hasMessage(result.Errors, "Required field 'transaction_type' is missing") {
		t.Errorf("missing required-field error, got %v", result.Errors)
	}
}

func TestTransactionsThreeErrorsScoreSeventy(t *testing.T) {
	records := []transform.Record{
		validRecord("T1"),
		validRecord("T2"),
		validRecord("T3"),
		validRecord("T4"),
		validRecord("T5"),
	}
	records[1]["amount"] = ""          // null amount
	records[2]["transaction_date"] = "not-a-date" // unparseable date
	records[3]["transaction_type"] = "Transfer"   // invalid type

	result := Transactions(buildBatch(records), testRules())
	if result.IsValid {
		t.Error("batch with hard errors should be invalid")
	}
	if len(result.Errors) != 3 {
		t.Fatalf("errors = %v, want 3 entries", result.Errors)
	}
	if result.QualityScore != 70 {
		t.Errorf("QualityScore = %v, want 70", result.QualityScore)
	}
	if result.InvalidRecords != 3 || result.ValidRecords != 2 {
		t.Errorf("valid/invalid = %d/%d, want 2/3", result.ValidRecords, result.InvalidRecords)
	}
	if !hasMessage(result.Errors, "Invalid transaction types found: [Transfer]") {
		t.Errorf("missing invalid-type error, got %v", result.Errors)
	}
}

func TestTransactionsCoercedAmountWarning(t *testing.T) {
	records := []transform.Record{validRecord("T1"), validRecord("T2")}
	records[1]["amount"] = "12abc"

	result := Transactions(buildBatch(records), testRules())
	if !result.IsValid {
		t.Errorf("coerced amount is advisory, errors: %v", result.Errors)
	}
	if !hasMessage(result.Warnings, "1 non-numeric amounts were coerced to 0") {
		t.Errorf("missing coercion warning, got %v", result.Warnings)
	}
	if result.QualityScore != 98 {
		t.Errorf("QualityScore = %v, want 98", result.QualityScore)
	}
}

func TestTransactionsDuplicateIDs(t *testing.T) {
	records := []transform.Record{
		validRecord("T1"), validRecord("T1"),
		validRecord("T2"), validRecord("T2"),
		validRecord("T3"),
	}
	result := Transactions(buildBatch(records), testRules())
	if !hasMessage(result.Warnings, "Found 4 duplicate transaction IDs") {
		t.Errorf("missing duplicate warning, got %v", result.Warnings)
	}
	if !result.IsValid {
		t.Error("duplicates are advisory, batch should stay valid")
	}
}

func TestTransactionsRangeWarnings(t *testing.T) {
	records := []transform.Record{
		validRecord("T1"),
		validRecord("T2"),
		validRecord("T3"),
	}
	records[1]["amount"] = "2000000" // above the cap
	records[2]["transaction_date"] = "2010-01-01" // far past

	result := Transactions(buildBatch(records), testRules())
	if !result.IsValid {
		t.Errorf("range findings are advisory, errors: %v", result.Errors)
	}
	if !hasMessage(result.Warnings, "1 records have amounts outside normal range") {
		t.Errorf("missing amount-range warning, got %v", result.Warnings)
	}
	if !hasMessage(result.Warnings, "1 records have dates outside normal range") {
		t.Errorf("missing date-range warning, got %v", result.Warnings)
	}
}

func TestTransactionsBadIDFormat(t *testing.T) {
	records := []transform.Record{validRecord("T1"), validRecord("T 2!")}
	result := Transactions(buildBatch(records), testRules())
	if result.IsValid {
		t.Error("malformed transaction id should invalidate the batch")
	}
	if !hasMessage(result.Errors, "Invalid transaction ID format found in 1 records") {
		t.Errorf("missing id-format error, got %v", result.Errors)
	}
}

func TestScoreFloorsAtZero(t *testing.T) {
	result := &Result{IsValid: true}
	for i := 0; i < 12; i++ {
		result.addError("hard failure")
	}
	if got := score(result); got != 0 {
		t.Errorf("score = %v, want floor of 0", got)
	}
}

func TestAccountsMasterValidation(t *testing.T) {
	accounts := []ledger.Account{
		{Code: "A1", Name: "Cash", Type: ledger.AccountAsset},
		{Code: "A1", Name: "Cash Again", Type: ledger.AccountAsset},
		{Code: "A2", Name: "Mystery", Type: "Wobble"},
	}
	result := Accounts(accounts)
	if result.IsValid {
		t.Error("duplicate codes and bad types should invalidate master data")
	}
	if !hasMessage(result.Errors, "Found 2 duplicate account codes") {
		t.Errorf("missing duplicate-code error, got %v", result.Errors)
	}
	if !hasMessage(result.Errors, "Invalid account types: [Wobble]") {
		t.Errorf("missing invalid-type error, got %v", result.Errors)
	}
}

func TestVendorsMasterValidation(t *testing.T) {
	vendors := []ledger.Vendor{
		{Code: "V1", Name: "Acme", ContactEmail: "ok@acme.com"},
		{Code: "V2", Name: "Globex", ContactEmail: "not-an-email"},
	}
	result := Vendors(vendors)
	if !result.IsValid {
		t.Errorf("bad email is advisory, errors: %v", result.Errors)
	}
	if !hasMessage(result.Warnings, "Found 1 invalid email formats") {
		t.Errorf("missing email warning, got %v", result.Warnings)
	}
}
