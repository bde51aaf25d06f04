package folio

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeProvider serves quotes from a fixed table and records how many
// lookups run at once.
type fakeProvider struct {
	prices map[string]float64
	delay  time.Duration

	mu         sync.Mutex
	inFlight   int
	maxRunning int
	calls      atomic.Int64
}

func (f *fakeProvider) GetQuote(ctx context.Context, ticker string) (Quote, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxRunning {
		f.maxRunning = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Quote{}, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}
	price, ok := f.prices[ticker]
	if !ok {
		return Quote{}, ErrUnavailable
	}
	return Quote{Price: M(price, "USD"), AsOf: time.Now().UTC()}, nil
}

func testValuator(t *testing.T, provider QuoteProvider, buys ...Transaction) (*Valuator, *Store) {
	t.Helper()
	s := testStore(t, StoreOptions{OpeningCash: 1000000})
	p := NewPositions(s)
	for _, b := range buys {
		price, _ := b.Price.Amount().Float64()
		if _, err := p.AddPosition(b.Ticker, b.Quantity, price, time.Time{}, ""); err != nil {
			t.Fatal(err)
		}
	}
	return NewValuator(s, provider), s
}

func TestValuePortfolio(t *testing.T) {
	provider := &fakeProvider{prices: map[string]float64{"AAPL": 180, "MSFT": 410}}
	v, _ := testValuator(t, provider,
		tx(KindBuy, "AAPL", 10, 150, "2026-01-05"),
		tx(KindBuy, "MSFT", 5, 400, "2026-01-06"),
	)

	report, err := v.ValuePortfolio(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Positions) != 2 {
		t.Fatalf("positions = %d, want 2", len(report.Positions))
	}
	if len(report.FailedTickers) != 0 {
		t.Fatalf("failed tickers = %v, want none", report.FailedTickers)
	}

	aapl := report.Positions[0] // sorted by ticker
	if aapl.Ticker != "AAPL" {
		t.Fatalf("positions not sorted by ticker: %v", report.Positions)
	}
	if !aapl.MarketValue.Equal(M(1800, "USD")) {
		t.Errorf("AAPL market value = %s, want 1800", aapl.MarketValue.Amount())
	}
	if !aapl.UnrealizedGain.Equal(M(300, "USD")) {
		t.Errorf("AAPL gain = %s, want 300", aapl.UnrealizedGain.Amount())
	}
	if aapl.ReturnPercent != 20 {
		t.Errorf("AAPL return = %v%%, want 20", aapl.ReturnPercent)
	}

	if !report.TotalInvested.Equal(M(3500, "USD")) {
		t.Errorf("invested = %s, want 3500", report.TotalInvested.Amount())
	}
	if !report.TotalMarketValue.Equal(M(3850, "USD")) {
		t.Errorf("market value = %s, want 3850", report.TotalMarketValue.Amount())
	}
	if !report.TotalUnrealizedGain.Equal(M(350, "USD")) {
		t.Errorf("gain = %s, want 350", report.TotalUnrealizedGain.Amount())
	}
	// 3850 market + (1000000 - 3500) cash.
	if !report.TotalValue.Equal(M(1000350, "USD")) {
		t.Errorf("total value = %s, want 1000350", report.TotalValue.Amount())
	}
	if report.ReturnPercent != 10 {
		t.Errorf("return = %v%%, want 10", report.ReturnPercent)
	}
}

func TestValuePartialFailure(t *testing.T) {
	provider := &fakeProvider{prices: map[string]float64{"AAPL": 180}} // no MSFT quote
	v, _ := testValuator(t, provider,
		tx(KindBuy, "AAPL", 10, 150, "2026-01-05"),
		tx(KindBuy, "MSFT", 5, 400, "2026-01-06"),
	)

	report, err := v.ValuePortfolio(context.Background())
	if err != nil {
		t.Fatalf("a failed lookup must not fail the valuation: %v", err)
	}
	if !slices.Equal(report.FailedTickers, []string{"MSFT"}) {
		t.Fatalf("failed tickers = %v, want [MSFT]", report.FailedTickers)
	}

	var msft PositionValue
	for _, pv := range report.Positions {
		if pv.Ticker == "MSFT" {
			msft = pv
		}
	}
	if !msft.PriceUnavailable {
		t.Error("MSFT position not marked PriceUnavailable")
	}
	if !msft.Invested.Equal(M(2000, "USD")) {
		t.Errorf("MSFT invested = %s, want 2000 (cost data still reported)", msft.Invested.Amount())
	}

	// Totals cover only priced positions.
	if !report.TotalMarketValue.Equal(M(1800, "USD")) {
		t.Errorf("market value = %s, want 1800 (AAPL only)", report.TotalMarketValue.Amount())
	}
	if !report.TotalUnrealizedGain.Equal(M(300, "USD")) {
		t.Errorf("gain = %s, want 300 against AAPL's 1500 invested", report.TotalUnrealizedGain.Amount())
	}
	if report.ReturnPercent != 20 {
		t.Errorf("return = %v%%, want 20 (unpriced MSFT excluded)", report.ReturnPercent)
	}
}

func TestValueBoundsParallelism(t *testing.T) {
	tickers := []string{"AAPL", "MSFT", "GOOG", "AMZN", "META", "NFLX"}
	prices := make(map[string]float64, len(tickers))
	buys := make([]Transaction, 0, len(tickers))
	for _, ticker := range tickers {
		prices[ticker] = 100
		buys = append(buys, tx(KindBuy, ticker, 1, 90, "2026-01-05"))
	}
	provider := &fakeProvider{prices: prices, delay: 20 * time.Millisecond}
	v, _ := testValuator(t, provider, buys...)
	v.MaxParallel = 2

	report, err := v.ValuePortfolio(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.FailedTickers) != 0 {
		t.Fatalf("failed tickers = %v", report.FailedTickers)
	}
	if got := provider.calls.Load(); got != int64(len(tickers)) {
		t.Errorf("provider calls = %d, want %d", got, len(tickers))
	}
	provider.mu.Lock()
	maxRunning := provider.maxRunning
	provider.mu.Unlock()
	if maxRunning > 2 {
		t.Errorf("max concurrent lookups = %d, want at most 2", maxRunning)
	}
}

func TestValueBudgetExpiry(t *testing.T) {
	provider := &fakeProvider{
		prices: map[string]float64{"AAPL": 180, "MSFT": 410, "GOOG": 200},
		delay:  time.Second,
	}
	v, _ := testValuator(t, provider,
		tx(KindBuy, "AAPL", 1, 150, "2026-01-05"),
		tx(KindBuy, "MSFT", 1, 400, "2026-01-06"),
		tx(KindBuy, "GOOG", 1, 180, "2026-01-07"),
	)
	v.MaxParallel = 1
	v.Budget = 30 * time.Millisecond

	start := time.Now()
	report, err := v.ValuePortfolio(context.Background())
	if err != nil {
		t.Fatalf("budget expiry must degrade, not fail: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("valuation took %v, want prompt return once the budget expires", elapsed)
	}
	if len(report.FailedTickers) != 3 {
		t.Errorf("failed tickers = %v, want all three unpriced", report.FailedTickers)
	}
	for _, pv := range report.Positions {
		if !pv.PriceUnavailable {
			t.Errorf("%s priced despite expired budget", pv.Ticker)
		}
	}
	// Cash is still reported even when nothing could be priced.
	if !report.TotalValue.Equal(report.Cash) {
		t.Errorf("total value = %s, want cash only %s", report.TotalValue.Amount(), report.Cash.Amount())
	}
}

func TestValueEmptyPortfolio(t *testing.T) {
	provider := &fakeProvider{}
	v, _ := testValuator(t, provider)

	report, err := v.ValuePortfolio(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Positions) != 0 || len(report.FailedTickers) != 0 {
		t.Fatalf("empty portfolio report = %+v", report)
	}
	if !report.TotalValue.Equal(M(1000000, "USD")) {
		t.Errorf("total value = %s, want the cash balance", report.TotalValue.Amount())
	}
	if provider.calls.Load() != 0 {
		t.Errorf("provider called %d times for an empty portfolio", provider.calls.Load())
	}
}
