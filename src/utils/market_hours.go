package utils

import (
	"sync"
	"time"

	"stock-stream/src/logger"
)

// MarketHours answers "is any market for these symbols open right now".
// It caches one TradingCalendar per exchange MIC since calendar
// construction is not free and the subscribed set changes far less often
// than it is read.
type MarketHours struct {
	calendars map[string]*TradingCalendar // MIC -> calendar
	mu        sync.Mutex
	logger    *logger.Logger
}

// -----------------------------------------------------------------------------

func NewMarketHours(l *logger.Logger) *MarketHours {
	return &MarketHours{
		calendars: make(map[string]*TradingCalendar),
		logger:    l,
	}
}

// -----------------------------------------------------------------------------

// AnyOpen reports whether at least one of the given symbols trades on a
// market that is open at this minute. An empty set reports closed.
func (mh *MarketHours) AnyOpen(symbols []string) bool {
	now := time.Now().UTC()

	mh.mu.Lock()
	defer mh.mu.Unlock()

	// Dedupe by MIC: symbols on the same exchange share one check.
	checked := make(map[string]bool)
	for _, symbol := range symbols {
		mic := MICForSymbol(symbol)
		if checked[mic] {
			continue
		}
		checked[mic] = true

		cal := mh.calendars[mic]
		if cal == nil {
			cal = GetCalendar(symbol)
			mh.calendars[mic] = cal
		}

		if cal.IsOpenOnMinute(now) {
			return true
		}
	}

	return false
}
