// Package normalize converts classified calendar events into canonical
// planner rows: activity label construction, date filtering, duration
// computation, and address resolution.
package normalize

import (
	"fmt"
	"math"
	"strings"
	"time"

	"plannercal/internal/classify"
	"plannercal/internal/config"
	"plannercal/internal/model"
)

// Normalizer derives planner rows for one source. Now anchors the date
// filter so a run is reproducible against a fixed reference time; Horizon
// bounds observance lookahead (zero means unbounded).
type Normalizer struct {
	Source  config.SourceConfig
	Now     time.Time
	Horizon time.Time
}

// New builds a Normalizer for a source. Observance sources get a lookahead
// horizon of horizonMonths from now; school feeds are naturally bounded by
// the school year and get none.
func New(src config.SourceConfig, now time.Time, horizonMonths int) Normalizer {
	n := Normalizer{Source: src, Now: now}
	if src.Kind == config.KindObservance && horizonMonths > 0 {
		n.Horizon = now.AddDate(0, horizonMonths, 0)
	}
	return n
}

// Row converts one classified event into a planner row. The second return
// value is false when the event is filtered out: its date is before today,
// or past the lookahead horizon.
func (n Normalizer) Row(ev classify.Event) (model.PlannerRow, bool) {
	day := dateOnly(ev.Start)
	today := dateOnly(n.Now)

	// Only current and future events materialize; the filter is re-evaluated
	// every run, so rows vanish from output once their date has passed.
	if day.Before(today) {
		return model.PlannerRow{}, false
	}
	if !n.Horizon.IsZero() && day.After(dateOnly(n.Horizon)) {
		return model.PlannerRow{}, false
	}

	row := model.PlannerRow{
		KidName:      model.KidAll,
		Activity:     ActivityLabel(n.Source.Code, ev.Summary),
		Time:         model.AllDayTime,
		Duration:     Duration(ev.Start, ev.End, ev.AllDay),
		Frequency:    model.FrequencyOnce,
		DaysOfWeek:   model.DaysOfWeekFor(ev.Start),
		StartDate:    day.Format(model.DateLayout),
		EndDate:      day.Format(model.DateLayout),
		Address:      n.address(ev),
		PickupDriver: model.DriverNone,
		ReturnDriver: model.DriverNone,
	}
	if !ev.AllDay {
		row.Time = ev.Start.Format(model.TimeLayout)
	}

	return row, true
}

// address resolves the row address: observance events carry the place label
// derived from their category; school events use an event-specific location
// when the feed supplies one, else the school's street address.
func (n Normalizer) address(ev classify.Event) string {
	if n.Source.Kind == config.KindObservance {
		if ev.Place != "" {
			return ev.Place
		}
		return n.Source.Address
	}
	if loc := strings.TrimSpace(ev.Location); loc != "" {
		return loc
	}
	return n.Source.Address
}

// ActivityLabel builds "<code>: <title>" with any run of whitespace
// (spaces, newlines, tabs) in the title collapsed to a single space.
func ActivityLabel(code, title string) string {
	collapsed := strings.Join(strings.Fields(title), " ")
	if code == "" {
		return collapsed
	}
	return fmt.Sprintf("%s: %s", code, collapsed)
}

// Duration computes the event duration in fractional hours, rounded to two
// decimals. All-day events get the full-day sentinel; a timed event with no
// end gets the default. Overnight events (end before start) wrap by a day.
func Duration(start, end time.Time, allDay bool) float64 {
	if allDay {
		return model.AllDayDuration
	}
	if end.IsZero() {
		return model.DefaultDuration
	}
	if end.Before(start) {
		end = end.Add(24 * time.Hour)
	}
	hours := end.Sub(start).Hours()
	return math.Round(hours*100) / 100
}

// dateOnly reduces a timestamp to its wall-clock calendar date, anchored in
// UTC so dates compare consistently across feed timezones.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
