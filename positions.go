package folio

import (
	"fmt"
	"log"
	"time"
)

// Positions is the only component permitted to mutate holdings and cash.
// Every mutation runs under the store's exclusive section: validate, then
// append the ledger entry, then commit the new snapshot. Validation
// happens before any side effect, so a validation failure leaves the
// persisted state untouched.
type Positions struct {
	store *Store
}

// NewPositions returns a position manager over the given store.
func NewPositions(store *Store) *Positions {
	return &Positions{store: store}
}

// ProceedsInfo describes the outcome of a sale.
type ProceedsInfo struct {
	Transaction  Transaction
	QuantitySold int64
	Proceeds     Money
	Removed      bool  // the holding was sold in full and removed
	Remaining    int64 // shares left in the holding, 0 when Removed
	CashBalance  Money // balance after the sale
}

// AddPosition buys quantity shares of ticker at the given unit price,
// debiting the cash balance, appending a BUY transaction and merging the
// shares into the existing holding for that ticker (quantity-weighted
// average cost basis) or creating a new one.
//
// acquiredAt zero means now. It fails with an InsufficientFundsError when
// the purchase would drive the cash balance negative.
func (p *Positions) AddPosition(ticker string, quantity int64, price float64, acquiredAt time.Time, note string) (Holding, error) {
	ticker, err := NormalizeTicker(ticker)
	if err != nil {
		return Holding{}, err
	}
	if err := validateQuantity(quantity); err != nil {
		return Holding{}, err
	}
	unit := M(price, p.store.Currency())
	if err := validatePrice(unit); err != nil {
		return Holding{}, err
	}
	note, err = validateNote(note)
	if err != nil {
		return Holding{}, err
	}
	if acquiredAt.IsZero() {
		acquiredAt = time.Now().UTC()
	}

	release, err := p.store.lock()
	if err != nil {
		return Holding{}, err
	}
	defer release()

	snap, ledger, err := p.read()
	if err != nil {
		return Holding{}, err
	}

	total := unit.MulInt(quantity)
	if snap.Cash.LessThan(total) {
		return Holding{}, &InsufficientFundsError{Needed: total, Available: snap.Cash}
	}

	tx, err := ledger.Append(Transaction{
		Kind:      KindBuy,
		Ticker:    ticker,
		Quantity:  quantity,
		Price:     unit,
		Total:     total,
		Timestamp: acquiredAt,
		Note:      note,
	})
	if err != nil {
		return Holding{}, err
	}
	if err := p.store.commitLedger(ledger); err != nil {
		return Holding{}, fmt.Errorf("could not commit BUY transaction: %w", err)
	}

	next := snap.clone()
	holding := next.applyBuy(tx, acquiredAt, note)
	next.Cash = next.Cash.Sub(total)
	next.LastTxID = tx.ID
	next.LastUpdated = time.Now().UTC()
	if err := p.store.commitSnapshot(next); err != nil {
		// The BUY is durably in the ledger but the snapshot is behind.
		log.Printf("snapshot commit failed after ledger append of transaction %d: %v", tx.ID, err)
		return Holding{}, &PartialCommitError{LedgerID: tx.ID, SnapshotID: snap.LastTxID}
	}
	return holding, nil
}

// RemovePosition sells quantity shares out of the holding (0 sells the
// whole position) at the realized unit price declared by the caller;
// price 0 falls back to the recorded cost basis. It credits the cash
// balance, appends a SELL transaction, and shrinks or removes the holding.
func (p *Positions) RemovePosition(id string, quantity int64, price float64) (ProceedsInfo, error) {
	if id == "" {
		return ProceedsInfo{}, &ValidationError{Field: "holding id", Reason: "must not be empty"}
	}
	if quantity < 0 {
		return ProceedsInfo{}, &ValidationError{Field: "quantity", Reason: fmt.Sprintf("%d must not be negative", quantity)}
	}

	release, err := p.store.lock()
	if err != nil {
		return ProceedsInfo{}, err
	}
	defer release()

	snap, ledger, err := p.read()
	if err != nil {
		return ProceedsInfo{}, err
	}

	holding, ok := snap.Holding(id)
	if !ok {
		return ProceedsInfo{}, &NotFoundError{Kind: "holding", ID: id}
	}
	if quantity == 0 {
		quantity = holding.Quantity
	}
	if quantity > holding.Quantity {
		return ProceedsInfo{}, &InsufficientQuantityError{Ticker: holding.Ticker, Requested: quantity, Held: holding.Quantity}
	}
	unit := holding.CostBasis
	if price != 0 {
		unit = M(price, p.store.Currency())
		if err := validatePrice(unit); err != nil {
			return ProceedsInfo{}, err
		}
	}
	proceeds := unit.MulInt(quantity)

	tx, err := ledger.Append(Transaction{
		Kind:      KindSell,
		Ticker:    holding.Ticker,
		Quantity:  quantity,
		Price:     unit,
		Total:     proceeds,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return ProceedsInfo{}, err
	}
	if err := p.store.commitLedger(ledger); err != nil {
		return ProceedsInfo{}, fmt.Errorf("could not commit SELL transaction: %w", err)
	}

	next := snap.clone()
	next.applySell(id, quantity)
	next.Cash = next.Cash.Add(proceeds)
	next.LastTxID = tx.ID
	next.LastUpdated = time.Now().UTC()
	if err := p.store.commitSnapshot(next); err != nil {
		log.Printf("snapshot commit failed after ledger append of transaction %d: %v", tx.ID, err)
		return ProceedsInfo{}, &PartialCommitError{LedgerID: tx.ID, SnapshotID: snap.LastTxID}
	}

	remaining := holding.Quantity - quantity
	return ProceedsInfo{
		Transaction:  tx,
		QuantitySold: quantity,
		Proceeds:     proceeds,
		Removed:      remaining == 0,
		Remaining:    remaining,
		CashBalance:  next.Cash,
	}, nil
}

// UpdatePosition changes a holding's note. It is a metadata-only mutation:
// no ledger entry is written since the portfolio's value is unaffected.
func (p *Positions) UpdatePosition(id string, note string) (Holding, error) {
	if id == "" {
		return Holding{}, &ValidationError{Field: "holding id", Reason: "must not be empty"}
	}
	note, err := validateNote(note)
	if err != nil {
		return Holding{}, err
	}

	release, err := p.store.lock()
	if err != nil {
		return Holding{}, err
	}
	defer release()

	snap, _, err := p.read()
	if err != nil {
		return Holding{}, err
	}
	next := snap.clone()
	holding, ok := next.Holding(id)
	if !ok {
		return Holding{}, &NotFoundError{Kind: "holding", ID: id}
	}
	holding.Note = note
	next.LastUpdated = time.Now().UTC()
	if err := p.store.commitSnapshot(next); err != nil {
		return Holding{}, fmt.Errorf("could not commit holding update: %w", err)
	}
	return *holding, nil
}

// GetHoldings returns the current holdings, optionally filtered to one
// ticker and optionally with portfolio totals. It is read-only and never
// blocks behind a writer longer than the commit's rename.
func (p *Positions) GetHoldings(filterTicker string, includeTotals bool) (HoldingsView, error) {
	var ticker string
	if filterTicker != "" {
		var err error
		ticker, err = NormalizeTicker(filterTicker)
		if err != nil {
			return HoldingsView{}, err
		}
	}

	snap, err := p.store.ReadSnapshot()
	if err != nil {
		return HoldingsView{}, err
	}

	holdings := make([]Holding, 0, len(snap.Holdings))
	for _, h := range snap.Holdings {
		if ticker != "" && h.Ticker != ticker {
			continue
		}
		holdings = append(holdings, h)
	}
	view := HoldingsView{Holdings: holdings, Count: len(holdings)}

	if includeTotals {
		invested := M(0, p.store.Currency())
		byTicker := make(map[string]TickerTotal, len(holdings))
		for _, h := range holdings {
			invested = invested.Add(h.Invested())
			agg := byTicker[h.Ticker]
			agg.Quantity += h.Quantity
			agg.Invested = agg.Invested.Add(h.Invested())
			byTicker[h.Ticker] = agg
		}
		view.Totals = &HoldingsTotals{
			Invested:   invested,
			Cash:       snap.Cash,
			TotalValue: invested.Add(snap.Cash),
			ByTicker:   byTicker,
		}
	}
	return view, nil
}

// History returns the transaction history newest-first, filtered and
// bounded by limit (0 for the default).
func (p *Positions) History(limit int, filters ...TxFilter) ([]Transaction, error) {
	ledger, err := p.store.ReadLedger()
	if err != nil {
		return nil, err
	}
	return ledger.History(limit, filters...), nil
}

// CashBalance returns the current cash balance.
func (p *Positions) CashBalance() (Money, error) {
	snap, err := p.store.ReadSnapshot()
	if err != nil {
		return Money{}, err
	}
	return snap.Cash, nil
}

// Deposit adds external cash to the portfolio and returns the new
// balance. Deposits and withdrawals are external cash flows, not trades:
// they adjust the opening balance rather than the ledger, so the ledger
// keeps recording security transactions only.
func (p *Positions) Deposit(amount float64) (Money, error) {
	return p.adjustCash(amount, false)
}

// Withdraw removes cash from the portfolio and returns the new balance.
// It fails with an InsufficientFundsError when more is withdrawn than
// held.
func (p *Positions) Withdraw(amount float64) (Money, error) {
	return p.adjustCash(amount, true)
}

func (p *Positions) adjustCash(amount float64, withdraw bool) (Money, error) {
	delta := M(amount, p.store.Currency())
	if !delta.IsPositive() {
		return Money{}, &ValidationError{Field: "amount", Reason: fmt.Sprintf("%s must be greater than zero", delta.Amount())}
	}

	release, err := p.store.lock()
	if err != nil {
		return Money{}, err
	}
	defer release()

	snap, _, err := p.read()
	if err != nil {
		return Money{}, err
	}
	if withdraw {
		if snap.Cash.LessThan(delta) {
			return Money{}, &InsufficientFundsError{Needed: delta, Available: snap.Cash}
		}
		delta = delta.Neg()
	}

	next := snap.clone()
	next.Cash = next.Cash.Add(delta)
	next.OpeningCash = next.OpeningCash.Add(delta)
	next.LastUpdated = time.Now().UTC()
	if err := p.store.commitSnapshot(next); err != nil {
		return Money{}, fmt.Errorf("could not commit cash adjustment: %w", err)
	}
	return next.Cash, nil
}

// read loads snapshot and ledger together for a mutation and verifies
// they agree. A divergence (a transaction durably in the ledger that the
// snapshot never folded in) must stop every mutation on a live handle,
// not just the next Open: appending on top of it would mask it for good.
func (p *Positions) read() (Snapshot, *Ledger, error) {
	snap, err := p.store.ReadSnapshot()
	if err != nil {
		return Snapshot{}, nil, err
	}
	ledger, err := p.store.ReadLedger()
	if err != nil {
		return Snapshot{}, nil, err
	}
	if ledger.LastID() != snap.LastTxID {
		return Snapshot{}, nil, &PartialCommitError{LedgerID: ledger.LastID(), SnapshotID: snap.LastTxID}
	}
	return snap, ledger, nil
}
