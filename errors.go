package folio

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable is returned by a QuoteProvider when no quote can be
// obtained for a ticker. The Valuator degrades gracefully on it: the
// position is reported with PriceUnavailable set instead of failing the
// whole valuation.
var ErrUnavailable = errors.New("quote unavailable")

// ValidationError reports a malformed input (ticker, quantity, price,
// date, note). It is always raised before any side effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown holding or watchlist id.
type NotFoundError struct {
	Kind string // "holding" or "watchlist"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// InsufficientFundsError reports a purchase that would drive the cash
// balance negative.
type InsufficientFundsError struct {
	Needed    Money
	Available Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: purchase costs %s but only %s available", e.Needed, e.Available)
}

// InsufficientQuantityError reports a sale of more shares than held.
type InsufficientQuantityError struct {
	Ticker    string
	Requested int64
	Held      int64
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("cannot sell %d shares of %s: only %d held", e.Requested, e.Ticker, e.Held)
}

// DuplicateError reports a watchlist slug collision.
type DuplicateError struct {
	Kind string
	ID   string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.ID)
}

// ConcurrencyTimeoutError reports that the store's exclusive section could
// not be acquired in time. The operation had no effect and may be retried.
type ConcurrencyTimeoutError struct {
	Timeout time.Duration
}

func (e *ConcurrencyTimeoutError) Error() string {
	return fmt.Sprintf("could not acquire store lock within %s", e.Timeout)
}

// CorruptionError reports a persisted document that exists but cannot be
// decoded or violates a structural invariant. It is fatal: recovery is an
// operator decision, the store never discards data on its own.
type CorruptionError struct {
	Path string
	Err  error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("corrupted document %q: %v", e.Path, e.Err)
}

func (e *CorruptionError) Unwrap() error { return e.Err }

// PartialCommitError reports a divergence between the ledger and the
// snapshot: a transaction was durably appended but the matching snapshot
// commit never landed (or the snapshot claims transactions the ledger does
// not have). It is fatal and surfaced loudly, never auto-repaired.
type PartialCommitError struct {
	LedgerID   int64 // highest transaction id in the ledger
	SnapshotID int64 // last transaction id folded into the snapshot
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("ledger and snapshot diverge: ledger at transaction %d, snapshot at %d", e.LedgerID, e.SnapshotID)
}
