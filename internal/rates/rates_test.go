package rates

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func TestDefaultTable(t *testing.T) {
	table := Default(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		code string
		want float64
	}{
		{"EUR", 0.85},
		{"GBP", 0.73},
		{"JPY", 110.0},
		{"CAD", 1.25},
		{"AUD", 1.35},
	}
	for _, tt := range tests {
		rate, ok := table.Lookup(tt.code)
		if !ok {
			t.Errorf("Lookup(%s): not found", tt.code)
			continue
		}
		if !rate.Equal(decimal.NewFromFloat(tt.want)) {
			t.Errorf("Lookup(%s) = %s, want %v", tt.code, rate, tt.want)
		}
	}
	if table.Source != "default" {
		t.Errorf("Source = %q, want default", table.Source)
	}
}

func TestLookupBaseIsOne(t *testing.T) {
	table := Default(time.Now())
	rate, ok := table.Lookup("USD")
	if !ok || !rate.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Lookup(USD) = %s/%v, want 1/true", rate, ok)
	}
}

func TestFetchInvertsRates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/USD" {
			t.Errorf("path = %q, want /USD", r.URL.Path)
		}
		fmt.Fprint(w, `{"base":"USD","rates":{"EUR":1.25,"GBP":0.8,"JPY":0}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	table := client.Fetch(context.Background(), "USD")

	if table.Source != "API" {
		t.Fatalf("Source = %q, want API", table.Source)
	}
	// 1 EUR of spend maps back to 1/1.25 = 0.8 USD.
	eur, ok := table.Lookup("EUR")
	if !ok || !eur.Equal(decimal.NewFromFloat(0.8)) {
		t.Errorf("EUR = %s/%v, want 0.8", eur, ok)
	}
	gbp, ok := table.Lookup("GBP")
	if !ok || !gbp.Equal(decimal.NewFromFloat(1.25)) {
		t.Errorf("GBP = %s/%v, want 1.25", gbp, ok)
	}
	// Zero rates are unusable and must be dropped, not inverted.
	if _, ok := table.Lookup("JPY"); ok {
		t.Error("JPY rate of 0 should be dropped")
	}
}

func TestFetchFallsBackToDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	table := client.Fetch(context.Background(), "USD")

	if table.Source != "default" {
		t.Fatalf("Source = %q, want default fallback", table.Source)
	}
	eur, _ := table.Lookup("EUR")
	if !eur.Equal(decimal.NewFromFloat(0.85)) {
		t.Errorf("EUR fallback = %s, want 0.85", eur)
	}
}

func TestEntriesCarryTableMetadata(t *testing.T) {
	asOf := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	table := Default(asOf)
	entries := table.Entries()
	if len(entries) != 5 {
		t.Fatalf("got %d entries, want 5", len(entries))
	}
	for _, e := range entries {
		if !e.Date.Equal(asOf) || e.Source != "default" {
			t.Errorf("entry %s: date=%v source=%q, want asOf/default", e.Currency, e.Date, e.Source)
		}
	}
}
