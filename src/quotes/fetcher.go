package quotes

import (
	"time"

	"stock-stream/src/helpers"
	"stock-stream/src/interfaces"
	"stock-stream/src/logger"
	"stock-stream/src/models"
)

// -----------------------------------------------------------------------------
// Fetcher
// -----------------------------------------------------------------------------

// Fetcher wraps the upstream providers behind a single fetch capability.
// Batch results are accumulated and handed back once per call; the
// inter-batch pacing delay therefore never holds up symbols that already
// resolved in an earlier cycle.
type Fetcher struct {
	Primary    interfaces.IQuoteProvider
	Secondary  interfaces.IQuoteProvider // may be nil
	BatchSize  int
	BatchDelay time.Duration
	Logger     *logger.Logger
}

// -----------------------------------------------------------------------------

func NewFetcher(primary, secondary interfaces.IQuoteProvider, cfg models.MQuotesConfig, log *logger.Logger) *Fetcher {
	return &Fetcher{
		Primary:    primary,
		Secondary:  secondary,
		BatchSize:  cfg.BatchSize,
		BatchDelay: time.Duration(cfg.BatchDelayMillis) * time.Millisecond,
		Logger:     log,
	}
}

// -----------------------------------------------------------------------------

// FetchOne resolves a single symbol against the primary provider and
// retries against the secondary before giving up.
func (f *Fetcher) FetchOne(symbol string) (models.MQuote, error) {
	sym := models.CanonicalSymbol(symbol)
	if sym == "" {
		return models.MQuote{}, helpers.NewValidationError("empty symbol")
	}

	quote, err := f.Primary.FetchOne(sym)
	if err == nil {
		return quote, nil
	}

	if f.Secondary == nil {
		return models.MQuote{}, helpers.NewUpstreamError("primary provider failed for "+sym, err)
	}

	f.Logger.Warning("Primary provider %s failed for %s, trying %s: %v",
		f.Primary.Name(), sym, f.Secondary.Name(), err)

	quote, err2 := f.Secondary.FetchOne(sym)
	if err2 != nil {
		return models.MQuote{}, helpers.NewUpstreamError("all providers failed for "+sym, err2)
	}
	return quote, nil
}

// -----------------------------------------------------------------------------

// FetchMany resolves a set of symbols in batches no larger than BatchSize,
// one upstream call per batch. A failed batch produces a failure entry for
// every symbol in it; the remaining batches still run. Batch lookups do
// not retry against the secondary provider - failed symbols are reported
// for this cycle and picked up again on the next tick.
func (f *Fetcher) FetchMany(symbols []string) ([]models.MQuote, []models.MQuoteFailure) {
	canonical := models.CanonicalSymbols(symbols)
	if len(canonical) == 0 {
		return nil, nil
	}

	var results []models.MQuote
	var failures []models.MQuoteFailure

	for i, batch := range partition(canonical, f.BatchSize) {
		if i > 0 && f.BatchDelay > 0 {
			// Pace successive upstream calls to respect rate limits.
			time.Sleep(f.BatchDelay)
		}

		quotes, err := f.Primary.FetchBatch(batch)
		if err != nil {
			f.Logger.Warning("Batch of %d symbols failed: %v", len(batch), err)
			for _, sym := range batch {
				failures = append(failures, models.MQuoteFailure{Symbol: sym, Reason: err.Error()})
			}
			continue
		}

		for _, sym := range batch {
			if quote, ok := quotes[sym]; ok {
				results = append(results, quote)
			} else {
				failures = append(failures, models.MQuoteFailure{Symbol: sym, Reason: "no data"})
			}
		}
	}

	return results, failures
}

// -----------------------------------------------------------------------------

// partition splits symbols into chunks of at most size elements.
func partition(symbols []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}

	var batches [][]string
	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}
		batches = append(batches, symbols[start:end])
	}
	return batches
}
