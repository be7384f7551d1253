package interfaces

import "stock-stream/src/models"

// -----------------------------------------------------------------------------
// IQuoteStore defines the contract for quote and watchlist persistence.
// -----------------------------------------------------------------------------

type IQuoteStore interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// UpsertQuote stores the latest snapshot for a symbol, replacing any
	// previous row. Called after each successful fetch; failures are logged
	// by the caller, never surfaced to clients.
	UpsertQuote(quote models.MQuote) error

	// -----------------------------------------------------------------------------

	// DefaultWatchlistSymbols returns the symbols on a user's default watchlist.
	DefaultWatchlistSymbols(userID string) ([]string, error)

	// -----------------------------------------------------------------------------

	// SaveWatchlist replaces a user's default watchlist.
	SaveWatchlist(userID string, symbols []string) error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
