package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultEndpoint is the public rate API queried for latest rates. The
// response carries base->currency rates, which are inverted into
// rate-to-base values.
const DefaultEndpoint = "https://api.exchangerate-api.com/v4/latest"

// Client fetches the latest exchange rates from an HTTP rate API. Fetch
// never fails the ingestion pipeline: on any error it falls back to the
// static default table.
type Client struct {
	httpClient *http.Client
	endpoint   string
	log        zerolog.Logger
}

// NewClient creates a rate client. An empty endpoint selects the default
// public API.
func NewClient(endpoint string, log zerolog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   endpoint,
		log:        log.With().Str("component", "rates").Logger(),
	}
}

type latestResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Fetch returns the latest rate table for the given base currency. On any
// transport, decode, or data error it logs a warning and returns the static
// default table instead.
func (c *Client) Fetch(ctx context.Context, base string) Table {
	table, err := c.fetch(ctx, base)
	if err != nil {
		c.log.Warn().Err(err).Msg("Using default exchange rates: rate API unavailable")
		return Default(time.Now().UTC())
	}
	return table
}

func (c *Client) fetch(ctx context.Context, base string) (Table, error) {
	url := fmt.Sprintf("%s/%s", c.endpoint, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Table{}, fmt.Errorf("fetch rates: building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Table{}, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Table{}, fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Table{}, fmt.Errorf("fetch rates: decoding response: %w", err)
	}

	// The API reports how much of each currency one unit of base buys; the
	// table stores the inverse, the rate back to base.
	one := decimal.NewFromInt(1)
	converted := make(map[string]decimal.Decimal, len(TargetCurrencies))
	for _, code := range TargetCurrencies {
		raw, ok := body.Rates[code]
		if !ok || raw == 0 {
			continue
		}
		converted[code] = one.Div(decimal.NewFromFloat(raw)).Round(6)
	}
	if len(converted) == 0 {
		return Table{}, fmt.Errorf("fetch rates: response had no usable rates")
	}

	c.log.Info().Int("currencies", len(converted)).Msg("Fetched live exchange rates")
	return NewTable(base, time.Now().UTC(), "API", converted), nil
}
