package ledger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// LoadResult reports one loader batch: how many entities were created or
// updated, plus per-record business errors for rows that were skipped.
type LoadResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors,omitempty"`
}

// Loader writes incoming batches into the ledger store. It is the sole
// mutator of the ledger: callers must not run two loader batches
// concurrently (the ingestion job queue serializes them).
//
// Per-record business errors (unresolved account references) are collected
// in the LoadResult and do not abort the batch; infrastructure faults abort
// the whole batch and are returned as errors.
type Loader struct {
	store Store
	log   zerolog.Logger
}

// NewLoader creates a loader over the given store.
func NewLoader(store Store, log zerolog.Logger) *Loader {
	return &Loader{store: store, log: log.With().Str("component", "loader").Logger()}
}

// UpsertAccounts loads account master data, matching by account code.
func (l *Loader) UpsertAccounts(ctx context.Context, accounts []Account) (LoadResult, error) {
	var result LoadResult
	if len(accounts) == 0 {
		return result, nil
	}

	stats, err := l.store.MergeAccounts(ctx, accounts)
	if err != nil {
		return result, fmt.Errorf("UpsertAccounts: merging %d accounts: %w", len(accounts), err)
	}
	result.Created = int(stats.Inserted)
	result.Updated = int(stats.Updated)

	l.log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Msg("Account loading completed")
	return result, nil
}

// UpsertVendors loads vendor master data, matching by vendor code.
func (l *Loader) UpsertVendors(ctx context.Context, vendors []Vendor) (LoadResult, error) {
	var result LoadResult
	if len(vendors) == 0 {
		return result, nil
	}

	stats, err := l.store.MergeVendors(ctx, vendors)
	if err != nil {
		return result, fmt.Errorf("UpsertVendors: merging %d vendors: %w", len(vendors), err)
	}
	result.Created = int(stats.Inserted)
	result.Updated = int(stats.Updated)

	l.log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Msg("Vendor loading completed")
	return result, nil
}

// UpsertTransactions loads transactions, matching by transaction id. Account
// references are resolved against existing accounts: records referencing an
// unknown account are skipped and reported, without failing the rest of the
// batch. An unknown vendor reference simply leaves the transaction's vendor
// unset.
func (l *Loader) UpsertTransactions(ctx context.Context, txs []Transaction) (LoadResult, error) {
	var result LoadResult
	if len(txs) == 0 {
		return result, nil
	}

	accountCodes, err := l.accountCodes(ctx)
	if err != nil {
		return result, fmt.Errorf("UpsertTransactions: %w", err)
	}
	vendorCodes, err := l.vendorCodes(ctx)
	if err != nil {
		return result, fmt.Errorf("UpsertTransactions: %w", err)
	}

	accepted := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if _, ok := accountCodes[tx.AccountCode]; !ok {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Account not found for code: %s", tx.AccountCode))
			continue
		}
		if tx.VendorCode != "" {
			if _, ok := vendorCodes[tx.VendorCode]; !ok {
				tx.VendorCode = ""
			}
		}
		accepted = append(accepted, tx)
	}

	if len(accepted) > 0 {
		stats, err := l.store.MergeTransactions(ctx, accepted)
		if err != nil {
			return LoadResult{}, fmt.Errorf("UpsertTransactions: merging %d transactions: %w", len(accepted), err)
		}
		result.Created = int(stats.Inserted)
		result.Updated = int(stats.Updated)
	}

	l.log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("errors", len(result.Errors)).
		Msg("Transaction loading completed")
	return result, nil
}

// LoadExchangeRates persists fetched rates, first-writer-wins per
// (currency, day).
func (l *Loader) LoadExchangeRates(ctx context.Context, rates []ExchangeRate) (LoadResult, error) {
	var result LoadResult
	if len(rates) == 0 {
		return result, nil
	}

	inserted, err := l.store.InsertExchangeRates(ctx, rates)
	if err != nil {
		return result, fmt.Errorf("LoadExchangeRates: inserting %d rates: %w", len(rates), err)
	}
	result.Created = inserted

	l.log.Info().
		Int("created", result.Created).
		Int("skipped", len(rates)-result.Created).
		Msg("Exchange rate loading completed")
	return result, nil
}

func (l *Loader) accountCodes(ctx context.Context) (map[string]struct{}, error) {
	accounts, err := l.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	codes := make(map[string]struct{}, len(accounts))
	for _, a := range accounts {
		codes[a.Code] = struct{}{}
	}
	return codes, nil
}

func (l *Loader) vendorCodes(ctx context.Context) (map[string]struct{}, error) {
	vendors, err := l.store.ListVendors(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing vendors: %w", err)
	}
	codes := make(map[string]struct{}, len(vendors))
	for _, v := range vendors {
		codes[v.Code] = struct{}{}
	}
	return codes, nil
}
