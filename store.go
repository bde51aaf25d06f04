package folio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Document names inside the store directory. Each is independently and
// atomically committed.
const (
	snapshotFile   = "portfolio.json"
	ledgerFile     = "transactions.jsonl"
	watchlistsFile = "watchlists.json"
)

// DefaultLockTimeout bounds how long a mutation waits for the exclusive
// section before failing with a ConcurrencyTimeoutError.
const DefaultLockTimeout = 5 * time.Second

// DefaultCurrency is the reporting currency used when none is configured.
const DefaultCurrency = "USD"

// StoreOptions configures a Store. The zero value uses the defaults.
type StoreOptions struct {
	// Currency is the single currency of all monetary amounts.
	Currency string
	// OpeningCash seeds the cash balance on bootstrap (first open of an
	// empty directory). Ignored once the snapshot document exists.
	OpeningCash float64
	// LockTimeout bounds acquisition of the exclusive section.
	LockTimeout time.Duration
}

// Store owns the three persisted documents and the process-wide exclusive
// section. Reads always return the last committed content; commits write a
// temporary file in the same directory and atomically rename it into
// place, so a reader never observes a partially written document and a
// crash mid-write leaves the previous one intact.
//
// A Store handle is passed explicitly to every component; there is no
// process-wide singleton.
type Store struct {
	dir         string
	currency    string
	opening     Money
	lockTimeout time.Duration

	mu chan struct{} // 1-slot semaphore, the exclusive section
}

// Open creates the directory if needed and verifies that the ledger and
// the snapshot agree. A transaction durably appended to the ledger whose
// snapshot commit never landed is reported as a PartialCommitError: fatal,
// requiring operator intervention, never auto-repaired.
func Open(dir string, opts StoreOptions) (*Store, error) {
	if opts.Currency == "" {
		opts.Currency = DefaultCurrency
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create store directory %q: %w", dir, err)
	}
	s := &Store{
		dir:         dir,
		currency:    opts.Currency,
		opening:     M(opts.OpeningCash, opts.Currency),
		lockTimeout: opts.LockTimeout,
		mu:          make(chan struct{}, 1),
	}
	if err := s.verifyConsistency(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Init materializes the bootstrap snapshot on disk so the opening cash
// balance survives later opens. Initializing an existing store is a no-op
// that returns the current snapshot.
func (s *Store) Init() (Snapshot, error) {
	release, err := s.lock()
	if err != nil {
		return Snapshot{}, err
	}
	defer release()

	if _, err := os.Stat(filepath.Join(s.dir, snapshotFile)); err == nil {
		return s.ReadSnapshot()
	}
	snap, err := s.ReadSnapshot()
	if err != nil {
		return Snapshot{}, err
	}
	snap.LastUpdated = time.Now().UTC()
	if err := s.commitSnapshot(snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Currency returns the store's single reporting currency.
func (s *Store) Currency() string { return s.currency }

// verifyConsistency cross-checks the ledger head against the snapshot's
// last folded transaction id.
func (s *Store) verifyConsistency() error {
	ledger, err := s.ReadLedger()
	if err != nil {
		return err
	}
	snap, err := s.ReadSnapshot()
	if err != nil {
		return err
	}
	if ledger.LastID() != snap.LastTxID {
		return &PartialCommitError{LedgerID: ledger.LastID(), SnapshotID: snap.LastTxID}
	}
	return nil
}

// lock acquires the exclusive section, returning the release function, or
// fails with a ConcurrencyTimeoutError once the configured timeout
// elapses. The section is scoped to one logical mutation and is held for
// the duration of its disk I/O.
func (s *Store) lock() (release func(), err error) {
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case s.mu <- struct{}{}:
		return func() { <-s.mu }, nil
	case <-timer.C:
		return nil, &ConcurrencyTimeoutError{Timeout: s.lockTimeout}
	}
}

// ReadSnapshot returns the last committed portfolio snapshot. A missing
// document is the bootstrap case and yields the default snapshot seeded
// with the opening cash; a document that exists but cannot be decoded or
// violates an invariant fails with a CorruptionError.
func (s *Store) ReadSnapshot() (Snapshot, error) {
	path := filepath.Join(s.dir, snapshotFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{
			Holdings:    make([]Holding, 0),
			Cash:        s.opening,
			OpeningCash: s.opening,
		}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("could not read snapshot %q: %w", path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, &CorruptionError{Path: path, Err: err}
	}
	s.rehydrateSnapshot(&snap)
	if err := snap.check(); err != nil {
		return Snapshot{}, &CorruptionError{Path: path, Err: err}
	}
	return snap, nil
}

// commitSnapshot atomically replaces the snapshot document.
func (s *Store) commitSnapshot(snap Snapshot) error {
	if err := snap.check(); err != nil {
		return fmt.Errorf("refusing to commit invalid snapshot: %w", err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("could not encode snapshot: %w", err)
	}
	return s.writeAtomic(snapshotFile, append(data, '\n'))
}

// ReadLedger returns the last committed transaction log. Missing means an
// empty ledger (bootstrap); unreadable content is a CorruptionError.
func (s *Store) ReadLedger() (*Ledger, error) {
	path := filepath.Join(s.dir, ledgerFile)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not open ledger %q: %w", path, err)
	}
	defer f.Close()
	ledger, err := DecodeLedger(f)
	if err != nil {
		return nil, &CorruptionError{Path: path, Err: err}
	}
	for i := range ledger.transactions {
		ledger.transactions[i].Price = ledger.transactions[i].Price.withCurrency(s.currency)
		ledger.transactions[i].Total = ledger.transactions[i].Total.withCurrency(s.currency)
	}
	return ledger, nil
}

// commitLedger atomically replaces the ledger document. The ledger is
// rewritten in full so the rename discipline applies to it exactly as to
// the snapshot.
func (s *Store) commitLedger(l *Ledger) error {
	var buf []byte
	for _, tx := range l.transactions {
		b, err := tx.MarshalJSON()
		if err != nil {
			return fmt.Errorf("could not encode transaction %d: %w", tx.ID, err)
		}
		buf = append(buf, b...)
		buf = append(buf, '\n')
	}
	return s.writeAtomic(ledgerFile, buf)
}

// ReadWatchlists returns the watchlists document as a map of id to
// watchlist, ids filled in from the keys.
func (s *Store) ReadWatchlists() (map[string]Watchlist, error) {
	path := filepath.Join(s.dir, watchlistsFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]Watchlist), nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read watchlists %q: %w", path, err)
	}
	var doc map[string]Watchlist
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &CorruptionError{Path: path, Err: err}
	}
	for id, wl := range doc {
		wl.ID = id
		doc[id] = wl
	}
	return doc, nil
}

// commitWatchlists atomically replaces the watchlists document.
func (s *Store) commitWatchlists(doc map[string]Watchlist) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode watchlists: %w", err)
	}
	return s.writeAtomic(watchlistsFile, append(data, '\n'))
}

// rehydrateSnapshot fills in the store currency on amounts decoded from
// disk, where they are persisted as bare decimals.
func (s *Store) rehydrateSnapshot(snap *Snapshot) {
	snap.Cash = snap.Cash.withCurrency(s.currency)
	snap.OpeningCash = snap.OpeningCash.withCurrency(s.currency)
	for i := range snap.Holdings {
		snap.Holdings[i].CostBasis = snap.Holdings[i].CostBasis.withCurrency(s.currency)
	}
}

// writeAtomic writes data to a temporary file in the store directory,
// syncs it, and renames it over the canonical name. The rename is the
// commit point.
func (s *Store) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("could not create temporary file for %q: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("could not write %q: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("could not sync %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("could not close %q: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("could not commit %q: %w", name, err)
	}
	return nil
}
