package interfaces

import "stock-stream/src/models"

// -----------------------------------------------------------------------------
// IBroadcaster fans one refresh cycle's results out to the connections
// subscribed to each symbol.
// -----------------------------------------------------------------------------

type IBroadcaster interface {

	// Deliver pushes a price-update message per successful quote and a
	// symbol-scoped error message per failure to every interested
	// connection. A connection that disappeared mid-cycle is a no-op.
	Deliver(results []models.MQuote, failures []models.MQuoteFailure)
}
