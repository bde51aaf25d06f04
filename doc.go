// Package folio implements the persistence and consistency core of a
// single-user investment tracker: holdings, cash balance and the
// append-only transaction ledger that ties them together.
//
// All state lives in three documents inside one directory, each committed
// atomically (write to a temporary file, then rename). The Store owns the
// directory and the process-wide exclusive section; the Positions and
// Watchlists managers are the only writers; the Valuator is a read-only
// aggregator that merges holdings with externally supplied quotes.
package folio
