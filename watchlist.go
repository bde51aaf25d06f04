package folio

import (
	"encoding/json"
	"slices"
	"time"
)

// Watchlist is an independent, user-named collection of tickers to
// monitor. It shares no invariant with holdings; its id is the slug of
// its display name.
type Watchlist struct {
	ID        string
	Name      string
	Tickers   []string // ordered, no duplicates, validated
	CreatedAt time.Time
	Note      string
}

// Has reports whether the watchlist already contains ticker.
func (w Watchlist) Has(ticker string) bool {
	return slices.Contains(w.Tickers, ticker)
}

// The id is the document map key, so it is not repeated in the value.
func (w Watchlist) MarshalJSON() ([]byte, error) {
	var jw jsonObjectWriter
	jw.Append("name", w.Name)
	jw.Append("tickers", w.Tickers)
	jw.Append("created_at", w.CreatedAt.UTC().Format(time.RFC3339))
	jw.Optional("note", w.Note)
	return jw.MarshalJSON()
}

func (w *Watchlist) UnmarshalJSON(b []byte) error {
	var rec struct {
		Name      string    `json:"name"`
		Tickers   []string  `json:"tickers"`
		CreatedAt time.Time `json:"created_at"`
		Note      string    `json:"note"`
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	w.Name = rec.Name
	w.Tickers = rec.Tickers
	if w.Tickers == nil {
		w.Tickers = make([]string, 0)
	}
	w.CreatedAt = rec.CreatedAt
	w.Note = rec.Note
	return nil
}

// Watchlists manages the watchlists document with the same exclusive
// section and atomic-commit discipline as the portfolio.
type Watchlists struct {
	store *Store
}

// NewWatchlists returns a watchlist manager over the given store.
func NewWatchlists(store *Store) *Watchlists {
	return &Watchlists{store: store}
}

// Create makes a new watchlist named name with an optional initial ticker
// set (normalized, deduplicated, order preserved). It fails with a
// DuplicateError when the slug of name is already taken.
func (m *Watchlists) Create(name string, tickers []string, note string) (Watchlist, error) {
	if name == "" {
		return Watchlist{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	id := Slugify(name)
	if id == "" {
		return Watchlist{}, &ValidationError{Field: "name", Reason: "must contain at least one letter or digit"}
	}
	note, err := validateNote(note)
	if err != nil {
		return Watchlist{}, err
	}
	normalized := make([]string, 0, len(tickers))
	for _, raw := range tickers {
		ticker, err := NormalizeTicker(raw)
		if err != nil {
			return Watchlist{}, err
		}
		if !slices.Contains(normalized, ticker) {
			normalized = append(normalized, ticker)
		}
	}

	release, err := m.store.lock()
	if err != nil {
		return Watchlist{}, err
	}
	defer release()

	doc, err := m.store.ReadWatchlists()
	if err != nil {
		return Watchlist{}, err
	}
	if _, exists := doc[id]; exists {
		return Watchlist{}, &DuplicateError{Kind: "watchlist", ID: id}
	}
	wl := Watchlist{
		ID:        id,
		Name:      name,
		Tickers:   normalized,
		CreatedAt: time.Now().UTC(),
		Note:      note,
	}
	doc[id] = wl
	if err := m.store.commitWatchlists(doc); err != nil {
		return Watchlist{}, err
	}
	return wl, nil
}

// AddTicker adds a ticker to the watchlist. Adding a ticker that is
// already present is a no-op, not an error.
func (m *Watchlists) AddTicker(id, rawTicker string) (Watchlist, error) {
	ticker, err := NormalizeTicker(rawTicker)
	if err != nil {
		return Watchlist{}, err
	}

	release, err := m.store.lock()
	if err != nil {
		return Watchlist{}, err
	}
	defer release()

	doc, err := m.store.ReadWatchlists()
	if err != nil {
		return Watchlist{}, err
	}
	wl, ok := doc[id]
	if !ok {
		return Watchlist{}, &NotFoundError{Kind: "watchlist", ID: id}
	}
	if wl.Has(ticker) {
		return wl, nil
	}
	wl.Tickers = append(wl.Tickers, ticker)
	doc[id] = wl
	if err := m.store.commitWatchlists(doc); err != nil {
		return Watchlist{}, err
	}
	return wl, nil
}

// RemoveTicker removes a ticker from the watchlist; removing an absent
// ticker is a no-op.
func (m *Watchlists) RemoveTicker(id, rawTicker string) (Watchlist, error) {
	ticker, err := NormalizeTicker(rawTicker)
	if err != nil {
		return Watchlist{}, err
	}

	release, err := m.store.lock()
	if err != nil {
		return Watchlist{}, err
	}
	defer release()

	doc, err := m.store.ReadWatchlists()
	if err != nil {
		return Watchlist{}, err
	}
	wl, ok := doc[id]
	if !ok {
		return Watchlist{}, &NotFoundError{Kind: "watchlist", ID: id}
	}
	i := slices.Index(wl.Tickers, ticker)
	if i < 0 {
		return wl, nil
	}
	wl.Tickers = slices.Delete(slices.Clone(wl.Tickers), i, i+1)
	doc[id] = wl
	if err := m.store.commitWatchlists(doc); err != nil {
		return Watchlist{}, err
	}
	return wl, nil
}

// Get returns the watchlist with the given id.
func (m *Watchlists) Get(id string) (Watchlist, error) {
	doc, err := m.store.ReadWatchlists()
	if err != nil {
		return Watchlist{}, err
	}
	wl, ok := doc[id]
	if !ok {
		return Watchlist{}, &NotFoundError{Kind: "watchlist", ID: id}
	}
	return wl, nil
}

// All returns every watchlist, sorted by id.
func (m *Watchlists) All() ([]Watchlist, error) {
	doc, err := m.store.ReadWatchlists()
	if err != nil {
		return nil, err
	}
	all := make([]Watchlist, 0, len(doc))
	for _, wl := range doc {
		all = append(all, wl)
	}
	slices.SortFunc(all, func(a, b Watchlist) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return all, nil
}
