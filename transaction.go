package folio

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TxKind is a typed string identifying the kind of a ledger transaction.
type TxKind string

const (
	KindBuy  TxKind = "BUY"
	KindSell TxKind = "SELL"
)

// ParseTxKind parses a string into a TxKind.
func ParseTxKind(s string) (TxKind, error) {
	switch TxKind(s) {
	case KindBuy:
		return KindBuy, nil
	case KindSell:
		return KindSell, nil
	default:
		return "", &ValidationError{Field: "kind", Reason: fmt.Sprintf("%q must be BUY or SELL", s)}
	}
}

// Transaction is one immutable entry of the ledger. Identifiers are
// assigned by the ledger in commit order and strictly increase.
type Transaction struct {
	ID        int64
	Kind      TxKind
	Ticker    string
	Quantity  int64
	Price     Money // unit price
	Total     Money // Quantity x Price
	Timestamp time.Time
	Note      string
}

// SignedTotal is the transaction's effect on the cash balance: negative
// for a BUY, positive for a SELL.
func (t Transaction) SignedTotal() Money {
	if t.Kind == KindBuy {
		return t.Total.Neg()
	}
	return t.Total
}

// MarshalJSON writes the transaction as one stable-ordered JSON object,
// suitable for a JSONL ledger line.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", t.ID)
	w.Append("kind", t.Kind)
	w.Append("ticker", t.Ticker)
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price)
	w.Append("total", t.Total)
	w.Append("timestamp", t.Timestamp.UTC().Format(time.RFC3339))
	w.Optional("note", t.Note)
	return w.MarshalJSON()
}

func (t *Transaction) UnmarshalJSON(b []byte) error {
	var rec struct {
		ID        int64           `json:"id"`
		Kind      TxKind          `json:"kind"`
		Ticker    string          `json:"ticker"`
		Quantity  int64           `json:"quantity"`
		Price     decimal.Decimal `json:"price"`
		Total     decimal.Decimal `json:"total"`
		Timestamp time.Time       `json:"timestamp"`
		Note      string          `json:"note"`
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	t.ID = rec.ID
	t.Kind = rec.Kind
	t.Ticker = rec.Ticker
	t.Quantity = rec.Quantity
	t.Price = M(rec.Price, "")
	t.Total = M(rec.Total, "")
	t.Timestamp = rec.Timestamp
	t.Note = rec.Note
	return nil
}

// TxFilter is a predicate over transactions; a query keeps a transaction
// only when every filter accepts it.
type TxFilter func(Transaction) bool

// ByTicker filters transactions by security ticker.
func ByTicker(ticker string) TxFilter {
	return func(t Transaction) bool { return t.Ticker == ticker }
}

// ByKind filters transactions by kind.
func ByKind(kind TxKind) TxFilter {
	return func(t Transaction) bool { return t.Kind == kind }
}

// Between filters transactions to a closed timestamp range. A zero bound
// leaves that side open.
func Between(from, to time.Time) TxFilter {
	return func(t Transaction) bool {
		if !from.IsZero() && t.Timestamp.Before(from) {
			return false
		}
		if !to.IsZero() && t.Timestamp.After(to) {
			return false
		}
		return true
	}
}
