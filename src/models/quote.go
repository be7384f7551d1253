package models

import (
	"strings"
	"time"
)

// MQuote represents one symbol's latest price snapshot. Immutable once
// produced by the quote source.
type MQuote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        float64   `json:"volume"`
	Timestamp     int64     `json:"timestamp"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// -----------------------------------------------------------------------------

// MQuoteFailure reports a per-symbol fetch failure for one refresh cycle.
type MQuoteFailure struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// -----------------------------------------------------------------------------

// CanonicalSymbol normalizes a ticker to its canonical form (trimmed, uppercased).
// Every entry point (subscribe, fetch, storage) goes through this.
func CanonicalSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// CanonicalSymbols normalizes a list, dropping entries that are empty after
// trimming and collapsing duplicates while preserving first-seen order.
func CanonicalSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		c := CanonicalSymbol(s)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
