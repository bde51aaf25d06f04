package folio

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Holding is a current position in one ticker: a share count and its
// weighted-average unit cost basis. Holdings are owned by the Positions
// manager and mutated only through ledger-replayed operations.
type Holding struct {
	ID         string
	Ticker     string
	Quantity   int64
	CostBasis  Money // per unit, weighted average across buys
	AcquiredAt time.Time
	Note       string
}

// Invested returns the total cost of the position (quantity x cost basis).
func (h Holding) Invested() Money {
	return h.CostBasis.MulInt(h.Quantity)
}

func (h Holding) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", h.ID)
	w.Append("ticker", h.Ticker)
	w.Append("quantity", h.Quantity)
	w.Append("cost_basis", h.CostBasis)
	w.Append("acquired_at", h.AcquiredAt.UTC().Format(time.RFC3339))
	w.Optional("note", h.Note)
	return w.MarshalJSON()
}

func (h *Holding) UnmarshalJSON(b []byte) error {
	var rec struct {
		ID         string          `json:"id"`
		Ticker     string          `json:"ticker"`
		Quantity   int64           `json:"quantity"`
		CostBasis  decimal.Decimal `json:"cost_basis"`
		AcquiredAt time.Time       `json:"acquired_at"`
		Note       string          `json:"note"`
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	h.ID = rec.ID
	h.Ticker = rec.Ticker
	h.Quantity = rec.Quantity
	h.CostBasis = M(rec.CostBasis, "")
	h.AcquiredAt = rec.AcquiredAt
	h.Note = rec.Note
	return nil
}

// TickerTotal aggregates quantity and invested amount for one ticker.
type TickerTotal struct {
	Quantity int64
	Invested Money
}

// HoldingsTotals summarizes the whole portfolio for a holdings query.
type HoldingsTotals struct {
	Invested   Money // sum of cost basis x quantity
	Cash       Money
	TotalValue Money // Invested + Cash
	ByTicker   map[string]TickerTotal
}

// HoldingsView is the read-only result of a holdings query.
type HoldingsView struct {
	Holdings []Holding
	Count    int
	Totals   *HoldingsTotals // nil unless totals were requested
}
