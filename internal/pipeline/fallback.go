package pipeline

import (
	"time"

	"plannercal/internal/config"
	"plannercal/internal/ics"
)

// Fallback datasets: fixed, hand-curated minimal event sets substituted when
// a feed cannot be retrieved, so downstream consumers always have something
// to display. These are not caches of previous fetches; callers detect
// degraded mode via SourceSummary.FallbackUsed.

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

var fallbackEvents = map[string][]ics.RawEvent{
	"JLS": {
		{Summary: "First Day of School", Start: date(2025, time.August, 14), AllDay: true},
		{Summary: "Back to School Night", Start: at(2025, time.August, 27, 18, 0), End: at(2025, time.August, 27, 19, 30)},
		{Summary: "Labor Day - No School", Start: date(2025, time.September, 1), AllDay: true},
		{Summary: "Staff Development Day - No School", Start: date(2025, time.October, 13), AllDay: true},
		{Summary: "Thanksgiving Break", Start: date(2025, time.November, 24), AllDay: true},
		{Summary: "Winter Break Begins", Start: date(2025, time.December, 22), AllDay: true},
		{Summary: "Last Day of School", Start: date(2026, time.June, 4), AllDay: true},
	},
	"Ohlone": {
		{Summary: "First Day of School", Start: date(2025, time.August, 14), AllDay: true},
		{Summary: "Back to School Night", Start: at(2025, time.September, 4, 18, 30), End: at(2025, time.September, 4, 20, 0)},
		{Summary: "Minimum Day - Parent Conferences", Start: date(2025, time.October, 20), AllDay: true},
		{Summary: "Thanksgiving Break", Start: date(2025, time.November, 24), AllDay: true},
		{Summary: "Winter Break Begins", Start: date(2025, time.December, 22), AllDay: true},
		{Summary: "Last Day of School", Start: date(2026, time.June, 4), AllDay: true},
	},
	"Jewish": {
		{Summary: "Rosh Hashana 5786", Start: date(2025, time.September, 23), AllDay: true},
		{Summary: "Yom Kippur", Start: date(2025, time.October, 2), AllDay: true},
		{Summary: "Sukkot I", Start: date(2025, time.October, 7), AllDay: true},
		{Summary: "Chanukah: 1 Candle", Start: date(2025, time.December, 14), AllDay: true},
		{Summary: "Purim", Start: date(2026, time.March, 3), AllDay: true},
		{Summary: "Pesach I", Start: date(2026, time.April, 2), AllDay: true},
		{Summary: "Shavuot I", Start: date(2026, time.May, 22), AllDay: true},
	},
}

// fallbackFor returns the hand-curated dataset for a source. Sources without
// a curated set get an empty slice, which keeps them in degraded-but-running
// state rather than failing the run.
func fallbackFor(src config.SourceConfig) []ics.RawEvent {
	if evs, ok := fallbackEvents[src.Code]; ok {
		out := make([]ics.RawEvent, len(evs))
		copy(out, evs)
		return out
	}
	return nil
}
