// Package pipeline orchestrates one ingestion run: refresh exchange rates,
// transform the raw batch, validate it, and load it into the ledger. The
// run's outcome and every validation finding are captured in a RunReport.
package pipeline

import (
	"context"
	"time"

	"github.com/finledger/ledger-engine/internal/ledger"
	"github.com/finledger/ledger-engine/internal/rates"
	"github.com/finledger/ledger-engine/internal/transform"
	"github.com/finledger/ledger-engine/internal/validate"
	"github.com/finledger/ledger-engine/pkg/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Batch is one raw ingestion payload. Master data is optional; transactions
// may reference accounts loaded in the same batch because masters load first.
type Batch struct {
	Accounts     []transform.Record `json:"accounts,omitempty"`
	Vendors      []transform.Record `json:"vendors,omitempty"`
	Transactions []transform.Record `json:"transactions,omitempty"`
}

// RunStatus is the outcome of one ingestion run.
type RunStatus string

const (
	// RunSuccess: every record validated and loaded.
	RunSuccess RunStatus = "SUCCESS"
	// RunPartial: the batch loaded but some records were skipped.
	RunPartial RunStatus = "PARTIAL"
	// RunFailed: validation failed or the store rejected the batch;
	// nothing from the transaction batch was loaded.
	RunFailed RunStatus = "FAILED"
)

// RunReport captures everything observable about one ingestion run.
type RunReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     RunStatus `json:"status"`

	AccountValidation     *validate.Result `json:"account_validation,omitempty"`
	VendorValidation      *validate.Result `json:"vendor_validation,omitempty"`
	TransactionValidation *validate.Result `json:"transaction_validation,omitempty"`

	AccountsLoaded     ledger.LoadResult `json:"accounts_loaded"`
	VendorsLoaded      ledger.LoadResult `json:"vendors_loaded"`
	TransactionsLoaded ledger.LoadResult `json:"transactions_loaded"`
	RatesLoaded        ledger.LoadResult `json:"rates_loaded"`

	Error string `json:"error,omitempty"`
}

// RateSource provides the day's rate table. Implementations never fail: a
// source that cannot reach its upstream falls back to defaults.
type RateSource interface {
	Fetch(ctx context.Context, base string) rates.Table
}

// Engine wires the ingestion steps together.
type Engine struct {
	loader    *ledger.Loader
	rates     RateSource
	rules     validate.Rules
	collector *metrics.Collector
	log       zerolog.Logger
}

// NewEngine creates an ingestion engine. collector may be nil when metrics
// are not wanted.
func NewEngine(loader *ledger.Loader, rateSource RateSource, rules validate.Rules, collector *metrics.Collector, log zerolog.Logger) *Engine {
	return &Engine{
		loader:    loader,
		rates:     rateSource,
		rules:     rules,
		collector: collector,
		log:       log.With().Str("component", "pipeline").Logger(),
	}
}

// Ingest runs the full pipeline over one batch. Infrastructure faults are
// returned as errors alongside a FAILED report; data problems never produce
// an error, only a FAILED or PARTIAL report.
func (e *Engine) Ingest(ctx context.Context, batch Batch) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Status:    RunSuccess,
	}
	log := e.log.With().Str("run_id", report.RunID).Logger()
	log.Info().
		Int("accounts", len(batch.Accounts)).
		Int("vendors", len(batch.Vendors)).
		Int("transactions", len(batch.Transactions)).
		Msg("Ingestion run started")

	table := e.rates.Fetch(ctx, rates.DefaultBaseCurrency)

	if len(batch.Accounts) > 0 {
		accounts := transform.Accounts(batch.Accounts)
		report.AccountValidation = validate.Accounts(accounts)
		if !report.AccountValidation.IsValid {
			return e.fail(report, log, "account master validation failed"), nil
		}
		result, err := e.loader.UpsertAccounts(ctx, accounts)
		if err != nil {
			return e.fail(report, log, err.Error()), err
		}
		report.AccountsLoaded = result
	}

	if len(batch.Vendors) > 0 {
		vendors := transform.Vendors(batch.Vendors)
		report.VendorValidation = validate.Vendors(vendors)
		if !report.VendorValidation.IsValid {
			return e.fail(report, log, "vendor master validation failed"), nil
		}
		result, err := e.loader.UpsertVendors(ctx, vendors)
		if err != nil {
			return e.fail(report, log, err.Error()), err
		}
		report.VendorsLoaded = result
	}

	if len(batch.Transactions) > 0 {
		normalized := transform.Transactions(batch.Transactions, table)
		report.TransactionValidation = validate.Transactions(normalized, e.rules)
		if !report.TransactionValidation.IsValid {
			return e.fail(report, log, "transaction validation failed"), nil
		}

		txs := make([]ledger.Transaction, 0, len(normalized.Records))
		for _, n := range normalized.Records {
			txs = append(txs, n.Transaction())
		}
		result, err := e.loader.UpsertTransactions(ctx, txs)
		if err != nil {
			return e.fail(report, log, err.Error()), err
		}
		report.TransactionsLoaded = result
		if len(result.Errors) > 0 {
			report.Status = RunPartial
		}
	}

	ratesLoaded, err := e.loader.LoadExchangeRates(ctx, table.Entries())
	if err != nil {
		return e.fail(report, log, err.Error()), err
	}
	report.RatesLoaded = ratesLoaded

	report.FinishedAt = time.Now().UTC()
	e.observe(report)
	log.Info().
		Str("status", string(report.Status)).
		Int("created", report.TransactionsLoaded.Created).
		Int("updated", report.TransactionsLoaded.Updated).
		Int("skipped", len(report.TransactionsLoaded.Errors)).
		Msg("Ingestion run finished")
	return report, nil
}

func (e *Engine) fail(report *RunReport, log zerolog.Logger, msg string) *RunReport {
	report.Status = RunFailed
	report.Error = msg
	report.FinishedAt = time.Now().UTC()
	e.observe(report)
	log.Warn().Str("error", msg).Msg("Ingestion run failed")
	return report
}

func (e *Engine) observe(report *RunReport) {
	if e.collector == nil {
		return
	}
	ingested := report.TransactionsLoaded.Created + report.TransactionsLoaded.Updated
	var errors, warnings int
	score := 100.0
	if v := report.TransactionValidation; v != nil {
		errors = len(v.Errors)
		warnings = len(v.Warnings)
		score = v.QualityScore
	}
	e.collector.ObserveBatch(string(report.Status), ingested,
		len(report.TransactionsLoaded.Errors), errors, warnings, score)
}
