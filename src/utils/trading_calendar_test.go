package utils

import (
	"testing"
	"time"

	"stock-stream/src/logger"
)

func TestGetCalendarSuffixMapping(t *testing.T) {
	tests := []struct {
		symbol string
	}{
		{"AAPL"},    // unsuffixed -> NYSE
		{"VOD.L"},   // London
		{"AIR.PA"},  // Paris
		{"7203.T"},  // Tokyo
		{"0700.HK"}, // Hong Kong
	}

	for _, tc := range tests {
		cal := GetCalendar(tc.symbol)
		if cal == nil {
			t.Fatalf("GetCalendar(%q) = nil", tc.symbol)
		}
		if cal.Timezone == nil {
			t.Errorf("GetCalendar(%q) has no timezone", tc.symbol)
		}
	}
}

func TestSameSuffixSharesExchange(t *testing.T) {
	a := GetCalendar("AAPL")
	b := GetCalendar("MSFT")

	// Both trade on NYSE; their open/closed answers must always agree.
	for _, when := range []time.Time{
		time.Date(2026, time.August, 24, 15, 0, 0, 0, time.UTC), // Monday
		time.Date(2026, time.August, 29, 15, 0, 0, 0, time.UTC), // Saturday
	} {
		if a.IsOpenOnMinute(when) != b.IsOpenOnMinute(when) {
			t.Errorf("NYSE symbols disagree at %v", when)
		}
	}
}

func TestIsTradingDayWeekend(t *testing.T) {
	cal := GetCalendar("AAPL")

	saturday := time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)

	if cal.IsTradingDay(saturday) {
		t.Error("Saturday counted as trading day")
	}
	if cal.IsTradingDay(sunday) {
		t.Error("Sunday counted as trading day")
	}
}

func TestIsOpenOnMinuteWeekend(t *testing.T) {
	cal := GetCalendar("AAPL")

	// Saturday noon NY time: closed no matter the calendar source.
	saturday := time.Date(2026, time.August, 29, 16, 0, 0, 0, time.UTC)
	if cal.IsOpenOnMinute(saturday) {
		t.Error("market open on Saturday")
	}
}

// -----------------------------------------------------------------------------

func TestMarketHoursAnyOpenEmptySet(t *testing.T) {
	mh := NewMarketHours(logger.NewLogger("ERROR", "utils-test"))
	if mh.AnyOpen(nil) {
		t.Error("AnyOpen(nil) = true, want false")
	}
}

func TestMarketHoursCachesPerExchange(t *testing.T) {
	mh := NewMarketHours(logger.NewLogger("ERROR", "utils-test"))

	// AAPL and MSFT both resolve to NYSE and must share one cache entry;
	// VOD.L adds a second exchange.
	mh.AnyOpen([]string{"AAPL", "MSFT", "AAPL", "VOD.L"})
	mh.mu.Lock()
	cached := len(mh.calendars)
	mh.mu.Unlock()

	if cached != 2 {
		t.Errorf("cached calendars = %d, want 2 (one per exchange)", cached)
	}
}

func TestMICForSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"AAPL", "xnys"},
		{"MSFT", "xnys"},
		{"BRK.B", "xnys"}, // unknown suffix falls back to NYSE
		{"VOD.L", "xlon"},
		{"7203.T", "xtks"},
	}
	for _, tc := range tests {
		if got := MICForSymbol(tc.symbol); got != tc.want {
			t.Errorf("MICForSymbol(%q) = %q, want %q", tc.symbol, got, tc.want)
		}
	}
}
