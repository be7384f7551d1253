package quotes

import (
	"errors"
	"testing"

	"stock-stream/src/logger"
	"stock-stream/src/models"
)

// -----------------------------------------------------------------------------
// fakes
// -----------------------------------------------------------------------------

type fakeProvider struct {
	name       string
	quotes     map[string]models.MQuote
	batchErr   error
	oneErr     error
	batchCalls [][]string
	oneCalls   []string
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) FetchBatch(symbols []string) (map[string]models.MQuote, error) {
	p.batchCalls = append(p.batchCalls, append([]string(nil), symbols...))
	if p.batchErr != nil {
		return nil, p.batchErr
	}
	out := make(map[string]models.MQuote)
	for _, sym := range symbols {
		if q, ok := p.quotes[sym]; ok {
			out[sym] = q
		}
	}
	return out, nil
}

func (p *fakeProvider) FetchOne(symbol string) (models.MQuote, error) {
	p.oneCalls = append(p.oneCalls, symbol)
	if p.oneErr != nil {
		return models.MQuote{}, p.oneErr
	}
	if q, ok := p.quotes[symbol]; ok {
		return q, nil
	}
	return models.MQuote{}, errors.New("no data")
}

func newTestFetcher(primary, secondary *fakeProvider, batchSize int) *Fetcher {
	f := &Fetcher{
		Primary:   primary,
		BatchSize: batchSize,
		Logger:    logger.NewLogger("ERROR", "fetcher-test"),
	}
	if secondary != nil {
		f.Secondary = secondary
	}
	return f
}

func quoteFor(sym string, price float64) models.MQuote {
	return models.MQuote{Symbol: sym, Price: price}
}

// -----------------------------------------------------------------------------
// partition
// -----------------------------------------------------------------------------

func TestPartition(t *testing.T) {
	tests := []struct {
		name  string
		count int
		size  int
		want  []int // expected batch lengths
	}{
		{"empty", 0, 100, nil},
		{"exactly one batch", 100, 100, []int{100}},
		{"one over", 101, 100, []int{100, 1}},
		{"several", 250, 100, []int{100, 100, 50}},
		{"degenerate size", 3, 0, []int{1, 1, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			symbols := make([]string, tc.count)
			for i := range symbols {
				symbols[i] = "S"
			}
			batches := partition(symbols, tc.size)
			if len(batches) != len(tc.want) {
				t.Fatalf("got %d batches, want %d", len(batches), len(tc.want))
			}
			for i, b := range batches {
				if len(b) != tc.want[i] {
					t.Errorf("batch %d has %d symbols, want %d", i, len(b), tc.want[i])
				}
			}
		})
	}
}

// -----------------------------------------------------------------------------
// FetchMany
// -----------------------------------------------------------------------------

func TestFetchManyCanonicalizesAndBatches(t *testing.T) {
	primary := &fakeProvider{
		name: "primary",
		quotes: map[string]models.MQuote{
			"AAPL": quoteFor("AAPL", 190),
			"MSFT": quoteFor("MSFT", 410),
			"GOOG": quoteFor("GOOG", 170),
		},
	}
	f := newTestFetcher(primary, nil, 2)

	results, failures := f.FetchMany([]string{" aapl", "msft", "GOOG", "aapl"})
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	// Duplicate collapsed before batching: 3 symbols -> batches of 2 and 1.
	if len(primary.batchCalls) != 2 {
		t.Fatalf("got %d upstream calls, want 2: %v", len(primary.batchCalls), primary.batchCalls)
	}
}

func TestFetchManyBatchFailureIsolated(t *testing.T) {
	calls := 0
	primary := &failOnceProvider{
		quotes: map[string]models.MQuote{"MSFT": quoteFor("MSFT", 410)},
		calls:  &calls,
	}
	f := &Fetcher{Primary: primary, BatchSize: 1, Logger: logger.NewLogger("ERROR", "fetcher-test")}

	results, failures := f.FetchMany([]string{"AAPL", "MSFT"})

	if len(results) != 1 || results[0].Symbol != "MSFT" {
		t.Fatalf("results = %v, want MSFT only", results)
	}
	if len(failures) != 1 || failures[0].Symbol != "AAPL" {
		t.Fatalf("failures = %v, want AAPL only", failures)
	}
	if failures[0].Reason != "upstream down" {
		t.Errorf("failure reason = %q", failures[0].Reason)
	}
}

func TestFetchManyMissingSymbolReportsNoData(t *testing.T) {
	primary := &fakeProvider{
		name:   "primary",
		quotes: map[string]models.MQuote{"AAPL": quoteFor("AAPL", 190)},
	}
	f := newTestFetcher(primary, nil, 100)

	results, failures := f.FetchMany([]string{"AAPL", "ZZZZ"})

	if len(results) != 1 {
		t.Fatalf("results = %v", results)
	}
	if len(failures) != 1 || failures[0].Symbol != "ZZZZ" || failures[0].Reason != "no data" {
		t.Fatalf("failures = %v, want ZZZZ/no data", failures)
	}
}

func TestFetchManyNeverConsultsSecondary(t *testing.T) {
	primary := &fakeProvider{name: "primary", batchErr: errors.New("down")}
	secondary := &fakeProvider{
		name:   "secondary",
		quotes: map[string]models.MQuote{"AAPL": quoteFor("AAPL", 190)},
	}
	f := newTestFetcher(primary, secondary, 100)

	_, failures := f.FetchMany([]string{"AAPL"})

	if len(failures) != 1 {
		t.Fatalf("failures = %v", failures)
	}
	if len(secondary.batchCalls) != 0 || len(secondary.oneCalls) != 0 {
		t.Fatal("secondary provider consulted during batch fetch")
	}
}

func TestFetchManyEmptyInput(t *testing.T) {
	primary := &fakeProvider{name: "primary"}
	f := newTestFetcher(primary, nil, 100)

	results, failures := f.FetchMany([]string{"", "   "})
	if results != nil || failures != nil {
		t.Fatalf("got %v / %v, want nil / nil", results, failures)
	}
	if len(primary.batchCalls) != 0 {
		t.Fatal("upstream called for empty input")
	}
}

// -----------------------------------------------------------------------------
// FetchOne
// -----------------------------------------------------------------------------

func TestFetchOneFallsBackToSecondary(t *testing.T) {
	primary := &fakeProvider{name: "primary", oneErr: errors.New("down")}
	secondary := &fakeProvider{
		name:   "secondary",
		quotes: map[string]models.MQuote{"AAPL": quoteFor("AAPL", 190)},
	}
	f := newTestFetcher(primary, secondary, 100)

	quote, err := f.FetchOne("aapl")
	if err != nil {
		t.Fatalf("FetchOne: %v", err)
	}
	if quote.Symbol != "AAPL" || quote.Price != 190 {
		t.Fatalf("quote = %+v", quote)
	}
	if len(primary.oneCalls) != 1 || primary.oneCalls[0] != "AAPL" {
		t.Fatalf("primary calls = %v", primary.oneCalls)
	}
}

func TestFetchOneAllProvidersFail(t *testing.T) {
	primary := &fakeProvider{name: "primary", oneErr: errors.New("down")}
	secondary := &fakeProvider{name: "secondary", oneErr: errors.New("also down")}
	f := newTestFetcher(primary, secondary, 100)

	if _, err := f.FetchOne("AAPL"); err == nil {
		t.Fatal("expected error when every provider fails")
	}
}

func TestFetchOneEmptySymbol(t *testing.T) {
	primary := &fakeProvider{name: "primary"}
	f := newTestFetcher(primary, nil, 100)

	if _, err := f.FetchOne("  "); err == nil {
		t.Fatal("expected validation error for blank symbol")
	}
	if len(primary.oneCalls) != 0 {
		t.Fatal("upstream called for blank symbol")
	}
}

// -----------------------------------------------------------------------------

// failOnceProvider fails the first batch call and serves the rest.
type failOnceProvider struct {
	quotes map[string]models.MQuote
	calls  *int
}

func (p *failOnceProvider) Name() string { return "flaky" }

func (p *failOnceProvider) FetchBatch(symbols []string) (map[string]models.MQuote, error) {
	*p.calls++
	if *p.calls == 1 {
		return nil, errors.New("upstream down")
	}
	out := make(map[string]models.MQuote)
	for _, sym := range symbols {
		if q, ok := p.quotes[sym]; ok {
			out[sym] = q
		}
	}
	return out, nil
}

func (p *failOnceProvider) FetchOne(symbol string) (models.MQuote, error) {
	q, ok := p.quotes[symbol]
	if !ok {
		return models.MQuote{}, errors.New("no data")
	}
	return q, nil
}
