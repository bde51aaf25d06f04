package folio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

// EODHDAPIKeyEnv is the environment variable read when no API key is
// configured explicitly.
const EODHDAPIKeyEnv = "EODHD_API_KEY"

const eodhdBaseURL = "https://eodhd.com/api"

// EODHD is a QuoteProvider backed by the eodhd.com real-time endpoint.
// The Valuator depends only on the QuoteProvider interface; this adapter
// exists so the CLI can value a real portfolio.
type EODHD struct {
	APIKey   string
	Currency string
	BaseURL  string
	Client   *http.Client
}

// NewEODHD returns a provider using apiKey, or the EODHD_API_KEY
// environment variable when apiKey is empty.
func NewEODHD(apiKey, currency string) *EODHD {
	if apiKey == "" {
		apiKey = os.Getenv(EODHDAPIKeyEnv)
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return &EODHD{
		APIKey:   apiKey,
		Currency: currency,
		BaseURL:  eodhdBaseURL,
		Client:   &http.Client{},
	}
}

// GetQuote fetches the latest price for ticker. All failures wrap
// ErrUnavailable so the Valuator can degrade without inspecting provider
// internals.
func (p *EODHD) GetQuote(ctx context.Context, ticker string) (Quote, error) {
	if p.APIKey == "" {
		return Quote{}, fmt.Errorf("EODHD API key is not set (flag or %s environment variable): %w", EODHDAPIKeyEnv, ErrUnavailable)
	}

	u := fmt.Sprintf("%s/real-time/%s?api_token=%s&fmt=json", p.BaseURL, url.PathEscape(ticker), url.QueryEscape(p.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("could not build quote request for %s: %w", ticker, err)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("quote request for %s failed: %w", ticker, ErrUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("quote request for %s returned %s: %w", ticker, resp.Status, ErrUnavailable)
	}

	var body struct {
		Close     float64 `json:"close"`
		Timestamp int64   `json:"timestamp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Quote{}, fmt.Errorf("could not decode quote for %s: %w", ticker, ErrUnavailable)
	}
	if body.Close <= 0 {
		return Quote{}, fmt.Errorf("no price in quote for %s: %w", ticker, ErrUnavailable)
	}
	asOf := time.Unix(body.Timestamp, 0).UTC()
	if body.Timestamp == 0 {
		asOf = time.Now().UTC()
	}
	return Quote{Price: M(body.Close, p.Currency), AsOf: asOf}, nil
}
