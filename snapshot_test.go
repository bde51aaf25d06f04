package folio

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSnapshotRoundTrip(t *testing.T) {
	when, _ := time.Parse(time.RFC3339, "2026-02-01T09:30:00Z")
	snap := Snapshot{
		Holdings: []Holding{
			{ID: "a", Ticker: "AAPL", Quantity: 10, CostBasis: M(150, "USD"), AcquiredAt: when, Note: "core"},
			{ID: "b", Ticker: "BRK.B", Quantity: 3, CostBasis: M(412.5, "USD"), AcquiredAt: when},
		},
		Cash:        M(8500, "USD"),
		OpeningCash: M(10000, "USD"),
		LastTxID:    2,
		LastUpdated: when,
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	// Amounts are persisted as bare decimals, no currency per value.
	if !strings.Contains(string(data), `"cash_balance":8500`) {
		t.Errorf("snapshot JSON does not carry a bare decimal balance: %s", data)
	}
	if strings.Contains(string(data), "USD") {
		t.Errorf("snapshot JSON repeats the currency: %s", data)
	}

	var got Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Holdings) != 2 || got.LastTxID != 2 {
		t.Fatalf("round trip: %+v", got)
	}
	if !got.Cash.Equal(M(8500, "")) || !got.OpeningCash.Equal(M(10000, "")) {
		t.Errorf("balances: cash=%s opening=%s", got.Cash.Amount(), got.OpeningCash.Amount())
	}
	brk := got.Holdings[1]
	if brk.Ticker != "BRK.B" || !brk.CostBasis.Equal(M(412.5, "")) || !brk.AcquiredAt.Equal(when) {
		t.Errorf("holding lost data: %+v", brk)
	}
	if got.Holdings[0].Note != "core" {
		t.Errorf("note = %q", got.Holdings[0].Note)
	}
}

func TestSnapshotCloneIsolation(t *testing.T) {
	snap := Snapshot{
		Holdings: []Holding{{ID: "a", Ticker: "AAPL", Quantity: 10, CostBasis: M(150, "USD")}},
		Cash:     M(100, "USD"),
	}
	next := snap.clone()
	next.Holdings[0].Quantity = 99
	next.Cash = M(0, "USD")
	if snap.Holdings[0].Quantity != 10 || !snap.Cash.Equal(M(100, "USD")) {
		t.Errorf("mutating the clone changed the original: %+v", snap)
	}
}

func TestSnapshotApplySellRemovesEmptiedHolding(t *testing.T) {
	snap := Snapshot{
		Holdings: []Holding{
			{ID: "a", Ticker: "AAPL", Quantity: 4, CostBasis: M(150, "USD")},
			{ID: "b", Ticker: "MSFT", Quantity: 2, CostBasis: M(400, "USD")},
		},
	}
	snap.applySell("a", 3)
	if h, ok := snap.Holding("a"); !ok || h.Quantity != 1 {
		t.Fatalf("partial sell: %+v", snap.Holdings)
	}
	snap.applySell("a", 1)
	if _, ok := snap.Holding("a"); ok {
		t.Error("holding still present at quantity zero")
	}
	if _, ok := snap.Holding("b"); !ok {
		t.Error("unrelated holding removed")
	}
}

func TestSnapshotTickers(t *testing.T) {
	snap := Snapshot{
		Holdings: []Holding{
			{ID: "b", Ticker: "MSFT", Quantity: 1, CostBasis: M(1, "USD")},
			{ID: "a", Ticker: "AAPL", Quantity: 1, CostBasis: M(1, "USD")},
		},
	}
	got := snap.Tickers()
	if len(got) != 2 || got[0] != "AAPL" || got[1] != "MSFT" {
		t.Errorf("Tickers = %v, want sorted [AAPL MSFT]", got)
	}
}
