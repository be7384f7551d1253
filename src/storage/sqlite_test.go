package storage

import (
	"errors"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
	"time"

	"stock-stream/src/helpers"
	"stock-stream/src/logger"
	"stock-stream/src/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	cfg := &models.MConfig{
		Storage: models.MStorageConfig{
			DBType: "sqlite",
			DBPath: filepath.Join(t.TempDir(), "test.db"),
		},
	}

	store, err := NewSQLiteStore(cfg, logger.NewLogger("ERROR", "storage-test"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := store.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// -----------------------------------------------------------------------------

func TestUpsertQuoteReplacesRow(t *testing.T) {
	store := newTestStore(t)

	first := models.MQuote{Symbol: "AAPL", Price: 190, Timestamp: 1756400400, FetchedAt: time.Now().UTC()}
	if err := store.UpsertQuote(first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := first
	second.Price = 191.5
	second.Timestamp = 1756400430
	if err := store.UpsertQuote(second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int
	var price float64
	row := store.DB.QueryRow(`SELECT COUNT(*), MAX(price) FROM quotes WHERE symbol = ?`, "AAPL")
	if err := row.Scan(&count, &price); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 1 {
		t.Errorf("row count = %d, want 1", count)
	}
	if price != 191.5 {
		t.Errorf("price = %f, want 191.5", price)
	}
}

// -----------------------------------------------------------------------------

func TestWatchlistRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveWatchlist("user-42", []string{"aapl", "MSFT", "aapl"}); err != nil {
		t.Fatalf("SaveWatchlist: %v", err)
	}

	symbols, err := store.DefaultWatchlistSymbols("user-42")
	if err != nil {
		t.Fatalf("DefaultWatchlistSymbols: %v", err)
	}
	sort.Strings(symbols)
	if !reflect.DeepEqual(symbols, []string{"AAPL", "MSFT"}) {
		t.Errorf("symbols = %v, want canonical deduped [AAPL MSFT]", symbols)
	}
}

func TestSaveWatchlistReplacesExisting(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveWatchlist("user-42", []string{"AAPL", "MSFT"}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.SaveWatchlist("user-42", []string{"TSLA"}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	symbols, err := store.DefaultWatchlistSymbols("user-42")
	if err != nil {
		t.Fatalf("DefaultWatchlistSymbols: %v", err)
	}
	if !reflect.DeepEqual(symbols, []string{"TSLA"}) {
		t.Errorf("symbols = %v, want [TSLA]", symbols)
	}
}

func TestWatchlistsIsolatedPerUser(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveWatchlist("user-a", []string{"AAPL"}); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := store.SaveWatchlist("user-b", []string{"MSFT"}); err != nil {
		t.Fatalf("save b: %v", err)
	}

	a, _ := store.DefaultWatchlistSymbols("user-a")
	b, _ := store.DefaultWatchlistSymbols("user-b")
	if !reflect.DeepEqual(a, []string{"AAPL"}) || !reflect.DeepEqual(b, []string{"MSFT"}) {
		t.Errorf("a = %v, b = %v", a, b)
	}
}

func TestClosedStoreReportsDatabaseError(t *testing.T) {
	store := newTestStore(t)
	store.DB.Close()

	err := store.UpsertQuote(models.MQuote{Symbol: "AAPL", Price: 190})
	var dbErr *helpers.DatabaseError
	if !errors.As(err, &dbErr) {
		t.Fatalf("UpsertQuote err = %T (%v), want DatabaseError", err, err)
	}

	_, err = store.DefaultWatchlistSymbols("user-42")
	if !errors.As(err, &dbErr) {
		t.Fatalf("DefaultWatchlistSymbols err = %T (%v), want DatabaseError", err, err)
	}
}

func TestUnknownUserEmptyWatchlist(t *testing.T) {
	store := newTestStore(t)

	symbols, err := store.DefaultWatchlistSymbols("nobody")
	if err != nil {
		t.Fatalf("DefaultWatchlistSymbols: %v", err)
	}
	if len(symbols) != 0 {
		t.Errorf("symbols = %v, want empty", symbols)
	}
}
