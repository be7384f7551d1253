package quotes

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stock-stream/src/interfaces"
	"stock-stream/src/logger"
	"stock-stream/src/models"
)

// YahooProvider fetches current quotes from the Yahoo Finance quote API.
// It is the primary provider: the quote endpoint accepts many symbols per
// call, which is what makes batched refresh cycles cheap.
type YahooProvider struct {
	SourceConfig models.MProviderConfig
	Network      interfaces.INetworkManager
	Logger       *logger.Logger
}

// -----------------------------------------------------------------------------

func NewYahooProvider(sourceCfg models.MProviderConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *YahooProvider {
	return &YahooProvider{
		SourceConfig: sourceCfg,
		Network:      netMgr,
		Logger:       log,
	}
}

// -----------------------------------------------------------------------------

func (p *YahooProvider) Name() string {
	return p.SourceConfig.Name
}

// -----------------------------------------------------------------------------

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string  `json:"symbol"`
			RegularMarketPrice         float64 `json:"regularMarketPrice"`
			RegularMarketChange        float64 `json:"regularMarketChange"`
			RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
			RegularMarketVolume        float64 `json:"regularMarketVolume"`
			RegularMarketTime          int64   `json:"regularMarketTime"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

// -----------------------------------------------------------------------------

// FetchBatch issues one upstream call for the whole batch. Symbols the API
// does not echo back are simply absent from the returned map.
func (p *YahooProvider) FetchBatch(symbols []string) (map[string]models.MQuote, error) {
	if len(symbols) == 0 {
		return map[string]models.MQuote{}, nil
	}

	params := map[string]string{
		"symbols": strings.Join(symbols, ","),
	}

	respBytes, err := p.Network.Get("https://query1.finance.yahoo.com/v7/finance/quote", params)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}

	return p.parseQuoteResponse(respBytes)
}

// -----------------------------------------------------------------------------

func (p *YahooProvider) FetchOne(symbol string) (models.MQuote, error) {
	batch, err := p.FetchBatch([]string{symbol})
	if err != nil {
		return models.MQuote{}, err
	}

	quote, ok := batch[symbol]
	if !ok {
		return models.MQuote{}, fmt.Errorf("no data for %s", symbol)
	}
	return quote, nil
}

// -----------------------------------------------------------------------------

func (p *YahooProvider) parseQuoteResponse(data []byte) (map[string]models.MQuote, error) {
	var resp yahooQuoteResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if resp.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s - %s",
			resp.QuoteResponse.Error.Code, resp.QuoteResponse.Error.Description)
	}

	quotes := make(map[string]models.MQuote, len(resp.QuoteResponse.Result))
	for _, r := range resp.QuoteResponse.Result {
		// Data cleaning: a zero price means a halted or unknown instrument,
		// not a quote we want to broadcast.
		if r.RegularMarketPrice <= 0 {
			p.Logger.Debug("Skipping invalid quote for %s: price=%f", r.Symbol, r.RegularMarketPrice)
			continue
		}

		symbol := models.CanonicalSymbol(r.Symbol)
		quotes[symbol] = models.MQuote{
			Symbol:        symbol,
			Price:         r.RegularMarketPrice,
			Change:        r.RegularMarketChange,
			ChangePercent: r.RegularMarketChangePercent,
			Volume:        r.RegularMarketVolume,
			Timestamp:     r.RegularMarketTime,
			FetchedAt:     time.Now().UTC(),
		}
	}

	return quotes, nil
}
