package folio

import (
	"errors"
	"slices"
	"testing"
)

func testWatchlists(t *testing.T) (*Watchlists, *Store) {
	t.Helper()
	s := testStore(t, StoreOptions{})
	return NewWatchlists(s), s
}

func TestWatchlistCreate(t *testing.T) {
	m, _ := testWatchlists(t)

	wl, err := m.Create("Tech Ideas", []string{"aapl", "MSFT", "AAPL"}, "earnings season")
	if err != nil {
		t.Fatal(err)
	}
	if wl.ID != "tech-ideas" {
		t.Errorf("id = %q, want slug tech-ideas", wl.ID)
	}
	if !slices.Equal(wl.Tickers, []string{"AAPL", "MSFT"}) {
		t.Errorf("tickers = %v, want normalized and deduplicated [AAPL MSFT]", wl.Tickers)
	}
	if wl.Note != "earnings season" {
		t.Errorf("note = %q", wl.Note)
	}

	got, err := m.Get("tech-ideas")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Tech Ideas" {
		t.Errorf("persisted name = %q", got.Name)
	}
}

func TestWatchlistCreateDuplicateSlug(t *testing.T) {
	m, _ := testWatchlists(t)
	if _, err := m.Create("Tech Ideas", nil, ""); err != nil {
		t.Fatal(err)
	}

	// A different display name with the same slug still collides.
	_, err := m.Create("tech ideas!", nil, "")
	var derr *DuplicateError
	if !errors.As(err, &derr) {
		t.Fatalf("Create = %v, want DuplicateError", err)
	}
	if derr.ID != "tech-ideas" {
		t.Errorf("duplicate id = %q, want tech-ideas", derr.ID)
	}
}

func TestWatchlistCreateValidation(t *testing.T) {
	m, _ := testWatchlists(t)
	testCases := []struct {
		name    string
		wlName  string
		tickers []string
	}{
		{name: "empty name", wlName: ""},
		{name: "name with no slug", wlName: "!!!"},
		{name: "bad ticker", wlName: "Ideas", tickers: []string{"123"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Create(tc.wlName, tc.tickers, "")
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("Create = %v, want ValidationError", err)
			}
		})
	}
}

func TestWatchlistAddTicker(t *testing.T) {
	m, _ := testWatchlists(t)
	if _, err := m.Create("Ideas", []string{"AAPL"}, ""); err != nil {
		t.Fatal(err)
	}

	wl, err := m.AddTicker("ideas", "msft")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(wl.Tickers, []string{"AAPL", "MSFT"}) {
		t.Errorf("tickers = %v", wl.Tickers)
	}

	// Idempotent: adding an existing ticker is a no-op, not an error.
	wl, err = m.AddTicker("ideas", "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if len(wl.Tickers) != 2 {
		t.Errorf("tickers after duplicate add = %v", wl.Tickers)
	}

	_, err = m.AddTicker("no-such-list", "AAPL")
	var nerr *NotFoundError
	if !errors.As(err, &nerr) {
		t.Errorf("AddTicker on unknown list = %v, want NotFoundError", err)
	}
}

func TestWatchlistRemoveTicker(t *testing.T) {
	m, _ := testWatchlists(t)
	if _, err := m.Create("Ideas", []string{"AAPL", "MSFT", "GOOG"}, ""); err != nil {
		t.Fatal(err)
	}

	wl, err := m.RemoveTicker("ideas", "msft")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(wl.Tickers, []string{"AAPL", "GOOG"}) {
		t.Errorf("tickers = %v, want order preserved minus MSFT", wl.Tickers)
	}

	// Removing an absent ticker is a no-op.
	wl, err = m.RemoveTicker("ideas", "NFLX")
	if err != nil {
		t.Fatal(err)
	}
	if len(wl.Tickers) != 2 {
		t.Errorf("tickers after no-op remove = %v", wl.Tickers)
	}

	_, err = m.RemoveTicker("no-such-list", "AAPL")
	var nerr *NotFoundError
	if !errors.As(err, &nerr) {
		t.Errorf("RemoveTicker on unknown list = %v, want NotFoundError", err)
	}
}

func TestWatchlistAllSorted(t *testing.T) {
	m, _ := testWatchlists(t)
	for _, name := range []string{"Zeta", "Alpha", "Mid Caps"} {
		if _, err := m.Create(name, nil, ""); err != nil {
			t.Fatal(err)
		}
	}
	all, err := m.All()
	if err != nil {
		t.Fatal(err)
	}
	ids := make([]string, 0, len(all))
	for _, wl := range all {
		ids = append(ids, wl.ID)
	}
	if !slices.Equal(ids, []string{"alpha", "mid-caps", "zeta"}) {
		t.Errorf("ids = %v, want sorted", ids)
	}
}

func TestWatchlistsSurviveReopen(t *testing.T) {
	m, s := testWatchlists(t)
	if _, err := m.Create("Ideas", []string{"AAPL"}, ""); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(s.Dir(), StoreOptions{})
	if err != nil {
		t.Fatal(err)
	}
	wl, err := NewWatchlists(s2).Get("ideas")
	if err != nil {
		t.Fatal(err)
	}
	if wl.ID != "ideas" || !slices.Equal(wl.Tickers, []string{"AAPL"}) {
		t.Errorf("reopened watchlist = %+v", wl)
	}
}
