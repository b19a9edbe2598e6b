// Package memory provides an in-memory ledger.Store. It backs tests and
// local runs; data is lost on process exit. Safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/finledger/ledger-engine/internal/ledger"
)

// Store is an in-memory implementation of ledger.Store keyed by natural keys.
type Store struct {
	mu            sync.RWMutex
	accounts      map[string]ledger.Account
	vendors       map[string]ledger.Vendor
	transactions  map[string]ledger.Transaction
	exchangeRates map[rateKey]ledger.ExchangeRate
	reportLogs    []ledger.ReportLog
}

type rateKey struct {
	currency string
	day      string // YYYY-MM-DD
}

// NewStore creates an empty in-memory ledger store.
func NewStore() *Store {
	return &Store{
		accounts:      make(map[string]ledger.Account),
		vendors:       make(map[string]ledger.Vendor),
		transactions:  make(map[string]ledger.Transaction),
		exchangeRates: make(map[rateKey]ledger.ExchangeRate),
	}
}

// MergeAccounts implements ledger.Store. The batch is applied under a single
// lock, so readers never observe a half-applied batch.
func (s *Store) MergeAccounts(ctx context.Context, accounts []ledger.Account) (ledger.MergeStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats ledger.MergeStats
	now := time.Now().UTC()
	for _, a := range accounts {
		if existing, ok := s.accounts[a.Code]; ok {
			a.CreatedAt = existing.CreatedAt
			a.UpdatedAt = now
			stats.Updated++
		} else {
			a.CreatedAt = now
			a.UpdatedAt = now
			stats.Inserted++
		}
		s.accounts[a.Code] = a
	}
	return stats, nil
}

// MergeVendors implements ledger.Store.
func (s *Store) MergeVendors(ctx context.Context, vendors []ledger.Vendor) (ledger.MergeStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats ledger.MergeStats
	now := time.Now().UTC()
	for _, v := range vendors {
		if existing, ok := s.vendors[v.Code]; ok {
			v.CreatedAt = existing.CreatedAt
			v.UpdatedAt = now
			stats.Updated++
		} else {
			v.CreatedAt = now
			v.UpdatedAt = now
			stats.Inserted++
		}
		s.vendors[v.Code] = v
	}
	return stats, nil
}

// MergeTransactions implements ledger.Store. Matching is by transaction id;
// a matched row has every mutable field overwritten.
func (s *Store) MergeTransactions(ctx context.Context, txs []ledger.Transaction) (ledger.MergeStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats ledger.MergeStats
	now := time.Now().UTC()
	for _, tx := range txs {
		if existing, ok := s.transactions[tx.TransactionID]; ok {
			tx.CreatedAt = existing.CreatedAt
			tx.UpdatedAt = now
			stats.Updated++
		} else {
			tx.CreatedAt = now
			tx.UpdatedAt = now
			stats.Inserted++
		}
		s.transactions[tx.TransactionID] = tx
	}
	return stats, nil
}

// InsertExchangeRates implements ledger.Store: first-writer-wins per
// (currency, day).
func (s *Store) InsertExchangeRates(ctx context.Context, rates []ledger.ExchangeRate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	now := time.Now().UTC()
	for _, r := range rates {
		key := rateKey{currency: r.Currency, day: r.Date.Format("2006-01-02")}
		if _, ok := s.exchangeRates[key]; ok {
			continue
		}
		r.CreatedAt = now
		s.exchangeRates[key] = r
		inserted++
	}
	return inserted, nil
}

// ListAccounts implements ledger.Store, sorted by account code.
func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ledger.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// ListVendors implements ledger.Store, sorted by vendor code.
func (s *Store) ListVendors(ctx context.Context) ([]ledger.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ledger.Vendor, 0, len(s.vendors))
	for _, v := range s.vendors {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// TransactionsBetween implements ledger.Store; both bounds are inclusive.
func (s *Store) TransactionsBetween(ctx context.Context, start, end time.Time) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []ledger.Transaction
	for _, tx := range s.transactions {
		if tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		result = append(result, tx)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].TransactionID < result[j].TransactionID
	})
	return result, nil
}

// LogReport implements ledger.Store.
func (s *Store) LogReport(ctx context.Context, entry *ledger.ReportLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logged := *entry
	if logged.GeneratedAt.IsZero() {
		logged.GeneratedAt = time.Now().UTC()
	}
	s.reportLogs = append(s.reportLogs, logged)
	return nil
}

// ReportLogs returns a copy of all logged report attempts, newest first.
func (s *Store) ReportLogs() []ledger.ReportLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ledger.ReportLog, len(s.reportLogs))
	copy(result, s.reportLogs)
	sort.Slice(result, func(i, j int) bool {
		return result[i].GeneratedAt.After(result[j].GeneratedAt)
	})
	return result
}

// Summary implements ledger.Store.
func (s *Store) Summary(ctx context.Context) (ledger.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := ledger.Summary{
		Accounts:      len(s.accounts),
		Vendors:       len(s.vendors),
		Transactions:  len(s.transactions),
		ExchangeRates: len(s.exchangeRates),
		ReportLogs:    len(s.reportLogs),
	}
	for _, tx := range s.transactions {
		if summary.MinDate.IsZero() || tx.Date.Before(summary.MinDate) {
			summary.MinDate = tx.Date
		}
		if tx.Date.After(summary.MaxDate) {
			summary.MaxDate = tx.Date
		}
	}
	return summary, nil
}

// Close implements ledger.Store. It is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
