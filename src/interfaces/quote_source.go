package interfaces

import "stock-stream/src/models"

// -----------------------------------------------------------------------------
// IQuoteProvider is one upstream market-data API.
// -----------------------------------------------------------------------------

type IQuoteProvider interface {

	// Name returns the unique identifier of the provider
	Name() string

	// -----------------------------------------------------------------------------

	// FetchBatch retrieves current quotes for up to one batch of symbols in
	// a single upstream call. Symbols absent from the response are simply
	// missing from the returned map.
	FetchBatch(symbols []string) (map[string]models.MQuote, error)

	// -----------------------------------------------------------------------------

	// FetchOne retrieves the current quote for a single symbol.
	FetchOne(symbol string) (models.MQuote, error)
}

// -----------------------------------------------------------------------------
// IQuoteFetcher is the adapter the scheduler and the lifecycle manager use.
// It hides batching, provider fallback and rate-limit pacing.
// -----------------------------------------------------------------------------

type IQuoteFetcher interface {

	// FetchOne resolves one symbol, falling back to the secondary provider
	// when the primary fails.
	FetchOne(symbol string) (models.MQuote, error)

	// -----------------------------------------------------------------------------

	// FetchMany resolves a set of symbols in bounded batches. A failed batch
	// yields a failure entry per symbol instead of aborting the whole call.
	FetchMany(symbols []string) ([]models.MQuote, []models.MQuoteFailure)
}
