package quotes

import (
	"encoding/json"
	"fmt"
	"time"

	"stock-stream/src/interfaces"
	"stock-stream/src/logger"
	"stock-stream/src/models"
)

// FinnhubProvider fetches quotes from the Finnhub REST API. The quote
// endpoint is single-symbol only, so it serves as the fallback for
// FetchOne rather than a batch source.
type FinnhubProvider struct {
	SourceConfig models.MProviderConfig
	Network      interfaces.INetworkManager
	Logger       *logger.Logger
}

// -----------------------------------------------------------------------------

func NewFinnhubProvider(sourceCfg models.MProviderConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *FinnhubProvider {
	return &FinnhubProvider{
		SourceConfig: sourceCfg,
		Network:      netMgr,
		Logger:       log,
	}
}

// -----------------------------------------------------------------------------

func (p *FinnhubProvider) Name() string {
	return p.SourceConfig.Name
}

// -----------------------------------------------------------------------------

type finnhubQuoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// -----------------------------------------------------------------------------

func (p *FinnhubProvider) FetchOne(symbol string) (models.MQuote, error) {
	params := map[string]string{
		"symbol": symbol,
		"token":  p.SourceConfig.APIKey,
	}

	respBytes, err := p.Network.Get("https://finnhub.io/api/v1/quote", params)
	if err != nil {
		return models.MQuote{}, fmt.Errorf("network error for %s: %w", symbol, err)
	}

	var resp finnhubQuoteResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return models.MQuote{}, fmt.Errorf("json unmarshal failed: %w", err)
	}

	// Finnhub returns zeros for unknown symbols instead of an error.
	if resp.Current <= 0 {
		return models.MQuote{}, fmt.Errorf("no data for %s", symbol)
	}

	return models.MQuote{
		Symbol:        models.CanonicalSymbol(symbol),
		Price:         resp.Current,
		Change:        resp.Change,
		ChangePercent: resp.ChangePercent,
		Volume:        0, // quote endpoint carries no volume
		Timestamp:     resp.Timestamp,
		FetchedAt:     time.Now().UTC(),
	}, nil
}

// -----------------------------------------------------------------------------

// FetchBatch loops single-symbol lookups. Only used if Finnhub is ever
// configured as the primary; the fetcher keeps batches small in that case.
func (p *FinnhubProvider) FetchBatch(symbols []string) (map[string]models.MQuote, error) {
	quotes := make(map[string]models.MQuote, len(symbols))
	var lastErr error

	for _, sym := range symbols {
		q, err := p.FetchOne(sym)
		if err != nil {
			p.Logger.Debug("Finnhub: %v", err)
			lastErr = err
			continue
		}
		quotes[q.Symbol] = q
	}

	if len(quotes) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return quotes, nil
}
