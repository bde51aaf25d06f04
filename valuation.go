package folio

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// Quote is the value returned by an external price provider for one
// ticker.
type Quote struct {
	Price Money
	AsOf  time.Time
}

// QuoteProvider is the single external capability the Valuator consumes.
// Implementations return ErrUnavailable (possibly wrapped) when no quote
// exists for the ticker; any other error is treated the same way by the
// Valuator, which never fails a valuation over one lookup.
type QuoteProvider interface {
	GetQuote(ctx context.Context, ticker string) (Quote, error)
}

// Valuation defaults.
const (
	DefaultMaxParallel   = 4
	DefaultLookupTimeout = 5 * time.Second
	DefaultBudget        = 30 * time.Second
)

// PositionValue is the valuation of a single holding.
type PositionValue struct {
	Ticker    string
	Quantity  int64
	CostBasis Money // per unit
	Invested  Money

	// Market data, meaningful only when PriceUnavailable is false.
	Price            Money
	AsOf             time.Time
	MarketValue      Money
	UnrealizedGain   Money
	ReturnPercent    float64
	PriceUnavailable bool
}

// ValuationReport combines current holdings with external prices. Totals
// cover only the positions whose lookup succeeded; failed tickers are
// listed explicitly.
type ValuationReport struct {
	When      time.Time
	Positions []PositionValue
	Cash      Money

	TotalInvested       Money
	TotalMarketValue    Money
	TotalValue          Money // market value of priced positions + cash
	TotalUnrealizedGain Money
	ReturnPercent       float64

	FailedTickers []string
}

// Valuator is the read-only aggregator combining the portfolio snapshot
// with quotes from the external provider. Lookups fan out concurrently,
// bounded by MaxParallel, each with its own timeout; Budget caps the whole
// valuation, abandoning unstarted lookups when it expires. It never
// mutates state.
type Valuator struct {
	store    *Store
	provider QuoteProvider

	MaxParallel   int
	LookupTimeout time.Duration
	Budget        time.Duration
}

// NewValuator returns a valuator with the default bounds.
func NewValuator(store *Store, provider QuoteProvider) *Valuator {
	return &Valuator{
		store:         store,
		provider:      provider,
		MaxParallel:   DefaultMaxParallel,
		LookupTimeout: DefaultLookupTimeout,
		Budget:        DefaultBudget,
	}
}

type lookupResult struct {
	quote Quote
	err   error
}

// ValuePortfolio reads the current snapshot and values every position. A
// ticker whose lookup fails (or never starts before the budget expires)
// is reported with PriceUnavailable instead of failing the valuation.
func (v *Valuator) ValuePortfolio(ctx context.Context) (*ValuationReport, error) {
	snap, err := v.store.ReadSnapshot()
	if err != nil {
		return nil, err
	}

	budget := v.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	parallel := v.MaxParallel
	if parallel <= 0 {
		parallel = DefaultMaxParallel
	}
	lookupTimeout := v.LookupTimeout
	if lookupTimeout <= 0 {
		lookupTimeout = DefaultLookupTimeout
	}

	tickers := snap.Tickers()
	results := make(map[string]lookupResult, len(tickers))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, parallel)

	for _, ticker := range tickers {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				// Budget expired before this lookup could start.
				mu.Lock()
				results[ticker] = lookupResult{err: ctx.Err()}
				mu.Unlock()
				return
			}
			// Each lookup has its own deadline; a slow one never blocks
			// or cancels the rest of the batch.
			lctx, lcancel := context.WithTimeout(ctx, lookupTimeout)
			quote, err := v.provider.GetQuote(lctx, ticker)
			lcancel()
			mu.Lock()
			results[ticker] = lookupResult{quote: quote, err: err}
			mu.Unlock()
		}(ticker)
	}
	wg.Wait()

	report := &ValuationReport{
		When:             time.Now().UTC(),
		Cash:             snap.Cash,
		Positions:        make([]PositionValue, 0, len(snap.Holdings)),
		TotalInvested:    M(0, v.store.Currency()),
		TotalMarketValue: M(0, v.store.Currency()),
	}

	holdings := slices.Clone(snap.Holdings)
	slices.SortFunc(holdings, func(a, b Holding) int {
		switch {
		case a.Ticker < b.Ticker:
			return -1
		case a.Ticker > b.Ticker:
			return 1
		default:
			return 0
		}
	})

	for _, h := range holdings {
		pv := PositionValue{
			Ticker:    h.Ticker,
			Quantity:  h.Quantity,
			CostBasis: h.CostBasis,
			Invested:  h.Invested(),
		}
		report.TotalInvested = report.TotalInvested.Add(pv.Invested)

		res := results[h.Ticker]
		if res.err != nil {
			if !errors.Is(res.err, ErrUnavailable) {
				res.err = errors.Join(ErrUnavailable, res.err)
			}
			pv.PriceUnavailable = true
			report.Positions = append(report.Positions, pv)
			if !slices.Contains(report.FailedTickers, h.Ticker) {
				report.FailedTickers = append(report.FailedTickers, h.Ticker)
			}
			continue
		}

		pv.Price = res.quote.Price
		pv.AsOf = res.quote.AsOf
		pv.MarketValue = res.quote.Price.MulInt(h.Quantity)
		pv.UnrealizedGain = pv.MarketValue.Sub(pv.Invested)
		if pv.Invested.IsPositive() {
			gain, _ := pv.UnrealizedGain.Amount().Div(pv.Invested.Amount()).Float64()
			pv.ReturnPercent = gain * 100
		}
		report.TotalMarketValue = report.TotalMarketValue.Add(pv.MarketValue)
		report.Positions = append(report.Positions, pv)
	}

	slices.Sort(report.FailedTickers)
	report.TotalUnrealizedGain = report.TotalMarketValue.Sub(pricedInvested(report))
	report.TotalValue = report.TotalMarketValue.Add(report.Cash)
	if invested := pricedInvested(report); invested.IsPositive() {
		gain, _ := report.TotalUnrealizedGain.Amount().Div(invested.Amount()).Float64()
		report.ReturnPercent = gain * 100
	}
	return report, nil
}

// pricedInvested sums the invested amount of positions that were actually
// priced, so the portfolio return is not skewed by unavailable tickers.
func pricedInvested(r *ValuationReport) Money {
	total := M(0, r.Cash.Currency())
	for _, pv := range r.Positions {
		if !pv.PriceUnavailable {
			total = total.Add(pv.Invested)
		}
	}
	return total
}
