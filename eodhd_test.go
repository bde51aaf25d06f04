package folio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEODHDGetQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/real-time/AAPL" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("api_token") != "test-key" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"code":"AAPL.US","close":182.52,"timestamp":1767196800}`))
	}))
	defer srv.Close()

	p := NewEODHD("test-key", "USD")
	p.BaseURL = srv.URL

	quote, err := p.GetQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if !quote.Price.Equal(M(182.52, "USD")) {
		t.Errorf("price = %s, want 182.52", quote.Price.Amount())
	}
	if quote.Price.Currency() != "USD" {
		t.Errorf("currency = %q", quote.Price.Currency())
	}
	if quote.AsOf.IsZero() {
		t.Error("AsOf not set from the quote timestamp")
	}
}

func TestEODHDFailuresAreUnavailable(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name:    "http error",
			handler: func(w http.ResponseWriter, r *http.Request) { http.Error(w, "nope", http.StatusNotFound) },
		},
		{
			name:    "bad body",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("not json")) },
		},
		{
			name:    "missing price",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"close":0}`)) },
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			p := NewEODHD("test-key", "USD")
			p.BaseURL = srv.URL
			_, err := p.GetQuote(context.Background(), "AAPL")
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("GetQuote = %v, want ErrUnavailable", err)
			}
		})
	}
}

func TestEODHDMissingKey(t *testing.T) {
	t.Setenv(EODHDAPIKeyEnv, "")
	p := NewEODHD("", "USD")
	_, err := p.GetQuote(context.Background(), "AAPL")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("GetQuote without key = %v, want ErrUnavailable", err)
	}
}
