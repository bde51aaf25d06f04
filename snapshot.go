package folio

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Snapshot is the aggregate root persisted atomically as one unit: the
// full set of holdings plus the cash balance. OpeningCash records the
// bootstrap balance so the ledger can always be reconciled against the
// current balance; LastTxID is the id of the last transaction folded in,
// the handle for partial-commit detection.
type Snapshot struct {
	Holdings    []Holding
	Cash        Money
	OpeningCash Money
	LastTxID    int64
	LastUpdated time.Time
}

// Holding looks up a holding by id.
func (s *Snapshot) Holding(id string) (*Holding, bool) {
	for i := range s.Holdings {
		if s.Holdings[i].ID == id {
			return &s.Holdings[i], true
		}
	}
	return nil, false
}

// HoldingByTicker looks up a holding by ticker. The portfolio keeps a
// single weighted-average lot per ticker, so at most one holding matches.
func (s *Snapshot) HoldingByTicker(ticker string) (*Holding, bool) {
	for i := range s.Holdings {
		if s.Holdings[i].Ticker == ticker {
			return &s.Holdings[i], true
		}
	}
	return nil, false
}

// Tickers returns the distinct held tickers, sorted.
func (s *Snapshot) Tickers() []string {
	tickers := make([]string, 0, len(s.Holdings))
	for _, h := range s.Holdings {
		tickers = append(tickers, h.Ticker)
	}
	slices.Sort(tickers)
	return slices.Compact(tickers)
}

// clone returns a deep copy. Mutations are applied to a copy and swapped
// in only after the commit succeeds, so a failed commit leaves the caller
// with the previous state untouched.
func (s *Snapshot) clone() Snapshot {
	next := *s
	next.Holdings = slices.Clone(s.Holdings)
	return next
}

// applyBuy merges a purchase into the existing holding for the ticker
// (recomputing the quantity-weighted average cost basis) or creates a new
// holding with a fresh id. It returns the resulting holding.
func (s *Snapshot) applyBuy(tx Transaction, acquiredAt time.Time, note string) Holding {
	if h, ok := s.HoldingByTicker(tx.Ticker); ok {
		merged := h.CostBasis.MulInt(h.Quantity).Add(tx.Total).DivInt(h.Quantity + tx.Quantity)
		h.Quantity += tx.Quantity
		h.CostBasis = merged
		if note != "" {
			h.Note = note
		}
		return *h
	}
	holding := Holding{
		ID:         uuid.NewString(),
		Ticker:     tx.Ticker,
		Quantity:   tx.Quantity,
		CostBasis:  tx.Price,
		AcquiredAt: acquiredAt,
		Note:       note,
	}
	s.Holdings = append(s.Holdings, holding)
	return holding
}

// applySell shrinks the holding by the sold quantity; a holding reaching
// zero is removed, never persisted at zero.
func (s *Snapshot) applySell(id string, quantity int64) {
	for i := range s.Holdings {
		if s.Holdings[i].ID != id {
			continue
		}
		s.Holdings[i].Quantity -= quantity
		if s.Holdings[i].Quantity <= 0 {
			s.Holdings = slices.Delete(s.Holdings, i, i+1)
		}
		return
	}
}

// check verifies the structural invariants every committed snapshot must
// satisfy. The store runs it on every read and before every commit.
func (s *Snapshot) check() error {
	if s.Cash.IsNegative() {
		return fmt.Errorf("cash balance %s is negative", s.Cash.Amount())
	}
	seen := make(map[string]struct{}, len(s.Holdings))
	for _, h := range s.Holdings {
		if h.Quantity <= 0 {
			return fmt.Errorf("holding %s has non-positive quantity %d", h.Ticker, h.Quantity)
		}
		if h.CostBasis.IsNegative() {
			return fmt.Errorf("holding %s has negative cost basis", h.Ticker)
		}
		if !tickerPattern.MatchString(h.Ticker) {
			return fmt.Errorf("holding %s has a malformed ticker", h.Ticker)
		}
		if _, dup := seen[strings.ToUpper(h.Ticker)]; dup {
			return fmt.Errorf("duplicate holding for ticker %s", h.Ticker)
		}
		seen[strings.ToUpper(h.Ticker)] = struct{}{}
	}
	return nil
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("holdings", s.Holdings)
	w.Append("cash_balance", s.Cash)
	w.Append("opening_cash", s.OpeningCash)
	w.Append("last_tx_id", s.LastTxID)
	w.Append("last_updated", s.LastUpdated.UTC().Format(time.RFC3339))
	return w.MarshalJSON()
}

func (s *Snapshot) UnmarshalJSON(b []byte) error {
	var rec struct {
		Holdings    []Holding       `json:"holdings"`
		Cash        decimal.Decimal `json:"cash_balance"`
		OpeningCash decimal.Decimal `json:"opening_cash"`
		LastTxID    int64           `json:"last_tx_id"`
		LastUpdated time.Time       `json:"last_updated"`
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	s.Holdings = rec.Holdings
	if s.Holdings == nil {
		s.Holdings = make([]Holding, 0)
	}
	s.Cash = M(rec.Cash, "")
	s.OpeningCash = M(rec.OpeningCash, "")
	s.LastTxID = rec.LastTxID
	s.LastUpdated = rec.LastUpdated
	return nil
}
