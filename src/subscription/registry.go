package subscription

import (
	"sync"

	"stock-stream/src/logger"
	"stock-stream/src/models"
)

// ReasonLimitExceeded is the rejection reason reported when accepting a
// symbol would push a connection past its subscription cap.
const ReasonLimitExceeded = "limit exceeded"

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// Registry is the bidirectional in-memory index between live connection
// identifiers and ticker symbols: the single source of truth for "who
// wants what". Every compound mutation runs under one critical section so
// a concurrent scheduler tick never observes a half-updated state, and
// the two maps stay mutually consistent:
//
//	symbol ∈ connSymbols[conn]  ⟺  conn ∈ symbolConns[symbol]
//
// A symbol key exists in symbolConns if and only if at least one
// connection is subscribed to it; empty sets are pruned immediately.
type Registry struct {
	mu          sync.RWMutex
	maxPerConn  int
	symbolConns map[string]map[string]struct{} // symbol -> connection id set
	connSymbols map[string]map[string]struct{} // connection id -> symbol set
	onOccupancy func(occupied bool)            // invoked under the lock on transitions
	logger      *logger.Logger
}

// -----------------------------------------------------------------------------

func NewRegistry(maxPerConn int, log *logger.Logger) *Registry {
	return &Registry{
		maxPerConn:  maxPerConn,
		symbolConns: make(map[string]map[string]struct{}),
		connSymbols: make(map[string]map[string]struct{}),
		logger:      log,
	}
}

// -----------------------------------------------------------------------------

// SetOccupancyListener registers the callback fired whenever the registry
// transitions between empty and non-empty. The scheduler uses this as its
// only start/stop trigger. The callback runs while the registry lock is
// held so transitions are delivered in the order they happened; it must
// not call back into the registry. Must be set before any subscribers
// arrive.
func (r *Registry) SetOccupancyListener(fn func(occupied bool)) {
	r.mu.Lock()
	r.onOccupancy = fn
	r.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Subscribe adds the connection's interest in the given symbols. Symbols
// are canonicalized first. Re-subscribing an already-held symbol is
// idempotent and counts as accepted. If accepting the full set would
// exceed the per-connection cap, only the subset that fits is accepted
// and the remainder is rejected with ReasonLimitExceeded.
func (r *Registry) Subscribe(connID string, symbols []string) (accepted []string, rejected []models.MQuoteFailure) {
	canonical := models.CanonicalSymbols(symbols)

	r.mu.Lock()
	wasEmpty := len(r.symbolConns) == 0

	held := r.connSymbols[connID]
	if held == nil {
		held = make(map[string]struct{})
		r.connSymbols[connID] = held
	}

	for _, sym := range canonical {
		if _, already := held[sym]; already {
			accepted = append(accepted, sym)
			continue
		}

		if len(held) >= r.maxPerConn {
			rejected = append(rejected, models.MQuoteFailure{Symbol: sym, Reason: ReasonLimitExceeded})
			continue
		}

		held[sym] = struct{}{}
		conns := r.symbolConns[sym]
		if conns == nil {
			conns = make(map[string]struct{})
			r.symbolConns[sym] = conns
		}
		conns[connID] = struct{}{}
		accepted = append(accepted, sym)
	}

	if len(held) == 0 {
		delete(r.connSymbols, connID)
	}

	if r.onOccupancy != nil && wasEmpty && len(r.symbolConns) > 0 {
		r.onOccupancy(true)
	}
	r.mu.Unlock()

	return accepted, rejected
}

// -----------------------------------------------------------------------------

// Unsubscribe removes the connection's interest in the given symbols and
// returns the ones that were actually held.
func (r *Registry) Unsubscribe(connID string, symbols []string) []string {
	canonical := models.CanonicalSymbols(symbols)

	r.mu.Lock()
	wasEmpty := len(r.symbolConns) == 0

	var confirmed []string
	held := r.connSymbols[connID]

	for _, sym := range canonical {
		if held == nil {
			break
		}
		if _, ok := held[sym]; !ok {
			continue
		}

		delete(held, sym)
		r.dropConnFromSymbol(sym, connID)
		confirmed = append(confirmed, sym)
	}

	if held != nil && len(held) == 0 {
		delete(r.connSymbols, connID)
	}

	if r.onOccupancy != nil && !wasEmpty && len(r.symbolConns) == 0 {
		r.onOccupancy(false)
	}
	r.mu.Unlock()

	return confirmed
}

// -----------------------------------------------------------------------------

// UnsubscribeAll purges every subscription the connection holds in one
// atomic step. This is the only cleanup path invoked on disconnect.
func (r *Registry) UnsubscribeAll(connID string) {
	r.mu.Lock()
	wasEmpty := len(r.symbolConns) == 0

	for sym := range r.connSymbols[connID] {
		r.dropConnFromSymbol(sym, connID)
	}
	delete(r.connSymbols, connID)

	if r.onOccupancy != nil && !wasEmpty && len(r.symbolConns) == 0 {
		r.onOccupancy(false)
	}
	r.mu.Unlock()
}

// -----------------------------------------------------------------------------

// dropConnFromSymbol removes one edge of the reverse index and prunes the
// symbol when its set becomes empty. Caller must hold the write lock.
func (r *Registry) dropConnFromSymbol(sym, connID string) {
	conns := r.symbolConns[sym]
	if conns == nil {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.symbolConns, sym)
	}
}

// -----------------------------------------------------------------------------

// SymbolsFor returns a copy of the symbols the connection is subscribed to.
func (r *Registry) SymbolsFor(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.connSymbols[connID]))
	for sym := range r.connSymbols[connID] {
		out = append(out, sym)
	}
	return out
}

// -----------------------------------------------------------------------------

// ConnectionsFor returns a copy of the connection ids subscribed to a symbol.
func (r *Registry) ConnectionsFor(symbol string) []string {
	sym := models.CanonicalSymbol(symbol)

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.symbolConns[sym]))
	for id := range r.symbolConns[sym] {
		out = append(out, id)
	}
	return out
}

// -----------------------------------------------------------------------------

// AllSubscribedSymbols returns a snapshot of every symbol with at least
// one subscriber. The scheduler reads this at the top of each tick.
func (r *Registry) AllSubscribedSymbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.symbolConns))
	for sym := range r.symbolConns {
		out = append(out, sym)
	}
	return out
}

// -----------------------------------------------------------------------------

// Counts returns the total number of (connection, symbol) subscription
// pairs and the number of unique symbols, for the stats surface.
func (r *Registry) Counts() (totalSubscriptions, uniqueSymbols int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, held := range r.connSymbols {
		totalSubscriptions += len(held)
	}
	return totalSubscriptions, len(r.symbolConns)
}
