package folio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
)

// History query limits, matching the operation contract: a zero limit
// falls back to the default, anything above the cap is clamped.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Ledger is the append-only, ordered record of all BUY/SELL transactions.
// It is the source of truth for every cash and position change; entries
// are never reordered or edited in place.
type Ledger struct {
	transactions []Transaction
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{transactions: make([]Transaction, 0)}
}

// Len returns the number of transactions in the ledger.
func (l *Ledger) Len() int { return len(l.transactions) }

// LastID returns the id of the most recent transaction, or 0 for an empty
// ledger.
func (l *Ledger) LastID() int64 {
	if len(l.transactions) == 0 {
		return 0
	}
	return l.transactions[len(l.transactions)-1].ID
}

// Append assigns the next identifier to tx and appends it. Identifiers are
// strictly increasing in commit order; callers serialize appends through
// the store's exclusive section.
func (l *Ledger) Append(tx Transaction) (Transaction, error) {
	if tx.ID != 0 && tx.ID <= l.LastID() {
		return Transaction{}, fmt.Errorf("transaction id %d is not after ledger head %d", tx.ID, l.LastID())
	}
	if tx.ID == 0 {
		tx.ID = l.LastID() + 1
	}
	l.transactions = append(l.transactions, tx)
	return tx, nil
}

// Transactions returns an iterator over the ledger in commit order,
// keeping only transactions accepted by every filter.
func (l *Ledger) Transactions(filters ...TxFilter) iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		for _, tx := range l.transactions {
			accept := true
			for _, filter := range filters {
				if !filter(tx) {
					accept = false
					break
				}
			}
			if !accept {
				continue
			}
			if !yield(tx) {
				return
			}
		}
	}
}

// History returns filtered transactions newest-first. limit <= 0 uses the
// default; larger requests are clamped to the cap.
func (l *Ledger) History(limit int, filters ...TxFilter) []Transaction {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	matched := make([]Transaction, 0, limit)
	for tx := range l.Transactions(filters...) {
		matched = append(matched, tx)
	}
	// reverse to newest-first
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// SignedTotal sums the signed totals of all transactions (BUY negative,
// SELL positive). Opening cash plus this sum must equal the snapshot's
// cash balance; that is the reconciliation invariant.
func (l *Ledger) SignedTotal() Money {
	var total Money
	for _, tx := range l.transactions {
		total = total.Add(tx.SignedTotal())
	}
	return total
}

// DecodeLedger reads a JSONL stream, one transaction per line, and returns
// the ledger. Ids must be strictly increasing; anything else is a decode
// error reported to the caller (the store turns it into a CorruptionError).
func DecodeLedger(r io.Reader) (*Ledger, error) {
	ledger := NewLedger()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var tx Transaction
		if err := tx.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("line %d: could not decode transaction: %w", line, err)
		}
		if tx.ID <= ledger.LastID() {
			return nil, fmt.Errorf("line %d: transaction id %d is not after %d", line, tx.ID, ledger.LastID())
		}
		ledger.transactions = append(ledger.transactions, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read ledger: %w", err)
	}
	return ledger, nil
}

// EncodeLedger writes the ledger as JSONL in commit order.
func EncodeLedger(w io.Writer, l *Ledger) error {
	for _, tx := range l.transactions {
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
	}
	return nil
}

// EncodeTransaction writes a single transaction as one JSONL line.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	b, err := tx.MarshalJSON()
	if err != nil {
		return fmt.Errorf("could not encode transaction %d: %w", tx.ID, err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("could not write transaction %d: %w", tx.ID, err)
	}
	return nil
}
