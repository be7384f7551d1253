package quotes

import (
	"errors"
	"strings"
	"testing"

	"stock-stream/src/logger"
	"stock-stream/src/models"
)

// fakeNetwork serves canned bodies keyed by URL and records the params of
// the last request.
type fakeNetwork struct {
	body       []byte
	err        error
	lastURL    string
	lastParams map[string]string
}

func (n *fakeNetwork) Get(url string, params map[string]string) ([]byte, error) {
	n.lastURL = url
	n.lastParams = params
	if n.err != nil {
		return nil, n.err
	}
	return n.body, nil
}

// -----------------------------------------------------------------------------
// yahoo
// -----------------------------------------------------------------------------

const yahooBody = `{
	"quoteResponse": {
		"result": [
			{
				"symbol": "AAPL",
				"regularMarketPrice": 189.5,
				"regularMarketChange": 1.25,
				"regularMarketChangePercent": 0.66,
				"regularMarketVolume": 52000000,
				"regularMarketTime": 1756400400
			},
			{
				"symbol": "HALTED",
				"regularMarketPrice": 0,
				"regularMarketTime": 1756400400
			}
		],
		"error": null
	}
}`

func TestYahooFetchBatch(t *testing.T) {
	net := &fakeNetwork{body: []byte(yahooBody)}
	p := NewYahooProvider(models.MProviderConfig{Name: "yahoo"}, net, logger.NewLogger("ERROR", "yahoo-test"))

	quotes, err := p.FetchBatch([]string{"AAPL", "HALTED"})
	if err != nil {
		t.Fatalf("FetchBatch: %v", err)
	}

	if net.lastParams["symbols"] != "AAPL,HALTED" {
		t.Errorf("symbols param = %q", net.lastParams["symbols"])
	}
	if !strings.Contains(net.lastURL, "query1.finance.yahoo.com") {
		t.Errorf("url = %q", net.lastURL)
	}

	q, ok := quotes["AAPL"]
	if !ok {
		t.Fatalf("AAPL missing from %v", quotes)
	}
	if q.Price != 189.5 || q.Change != 1.25 || q.Volume != 52000000 || q.Timestamp != 1756400400 {
		t.Errorf("quote = %+v", q)
	}
	if q.FetchedAt.IsZero() {
		t.Error("FetchedAt not stamped")
	}

	// Zero-price rows are dropped, not broadcast.
	if _, ok := quotes["HALTED"]; ok {
		t.Error("halted instrument with zero price was not filtered out")
	}
}

func TestYahooAPIError(t *testing.T) {
	body := `{"quoteResponse": {"result": [], "error": {"code": "Bad Request", "description": "no symbol"}}}`
	p := NewYahooProvider(models.MProviderConfig{Name: "yahoo"},
		&fakeNetwork{body: []byte(body)}, logger.NewLogger("ERROR", "yahoo-test"))

	if _, err := p.FetchBatch([]string{"AAPL"}); err == nil {
		t.Fatal("expected error from api error payload")
	}
}

func TestYahooNetworkError(t *testing.T) {
	p := NewYahooProvider(models.MProviderConfig{Name: "yahoo"},
		&fakeNetwork{err: errors.New("timeout")}, logger.NewLogger("ERROR", "yahoo-test"))

	if _, err := p.FetchBatch([]string{"AAPL"}); err == nil {
		t.Fatal("expected network error to propagate")
	}
}

func TestYahooEmptyBatchSkipsNetwork(t *testing.T) {
	net := &fakeNetwork{err: errors.New("should not be called")}
	p := NewYahooProvider(models.MProviderConfig{Name: "yahoo"}, net, logger.NewLogger("ERROR", "yahoo-test"))

	quotes, err := p.FetchBatch(nil)
	if err != nil || len(quotes) != 0 {
		t.Fatalf("got %v / %v", quotes, err)
	}
	if net.lastURL != "" {
		t.Error("network hit for empty batch")
	}
}

func TestYahooFetchOneMissingSymbol(t *testing.T) {
	body := `{"quoteResponse": {"result": [], "error": null}}`
	p := NewYahooProvider(models.MProviderConfig{Name: "yahoo"},
		&fakeNetwork{body: []byte(body)}, logger.NewLogger("ERROR", "yahoo-test"))

	if _, err := p.FetchOne("ZZZZ"); err == nil {
		t.Fatal("expected no-data error")
	}
}

// -----------------------------------------------------------------------------
// finnhub
// -----------------------------------------------------------------------------

func TestFinnhubFetchOne(t *testing.T) {
	body := `{"c": 189.5, "d": 1.25, "dp": 0.66, "h": 190, "l": 187, "o": 188, "pc": 188.25, "t": 1756400400}`
	net := &fakeNetwork{body: []byte(body)}
	p := NewFinnhubProvider(models.MProviderConfig{Name: "finnhub", APIKey: "k123"},
		net, logger.NewLogger("ERROR", "finnhub-test"))

	q, err := p.FetchOne("AAPL")
	if err != nil {
		t.Fatalf("FetchOne: %v", err)
	}
	if net.lastParams["symbol"] != "AAPL" || net.lastParams["token"] != "k123" {
		t.Errorf("params = %v", net.lastParams)
	}
	if q.Symbol != "AAPL" || q.Price != 189.5 || q.ChangePercent != 0.66 {
		t.Errorf("quote = %+v", q)
	}
}

func TestFinnhubZeroPriceMeansNoData(t *testing.T) {
	body := `{"c": 0, "d": 0, "dp": 0, "t": 0}`
	p := NewFinnhubProvider(models.MProviderConfig{Name: "finnhub"},
		&fakeNetwork{body: []byte(body)}, logger.NewLogger("ERROR", "finnhub-test"))

	if _, err := p.FetchOne("UNKNOWN"); err == nil {
		t.Fatal("expected no-data error for zero payload")
	}
}
