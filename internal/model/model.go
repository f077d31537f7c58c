package model

import (
	"fmt"
	"strings"
	"time"
)

// Category is the label assigned to a calendar event by the classifier.
// School sources and the observance source draw from disjoint subsets.
type Category string

const (
	CategoryHoliday          Category = "Holiday"
	CategoryMinimumDay       Category = "Minimum Day"
	CategoryStaffDevelopment Category = "Staff Development"
	CategorySchoolEvent      Category = "School Event"
	CategoryParentEvent      Category = "Parent Event"
	CategorySchoolYear       Category = "School Year"

	CategoryMajorHoliday     Category = "Major Holiday"
	CategoryMinorHoliday     Category = "Minor Holiday"
	CategoryFastDay          Category = "Fast Day"
	CategoryWeeklyObservance Category = "Weekly Observance"
	CategoryOther            Category = "Other"
)

// Planner row sentinels. Institutional events affect the whole household,
// so they carry no per-kid assignment and no pickup/return driver.
const (
	KidAll        = "All"
	DriverNone    = "N/A"
	FrequencyOnce = "one-time"

	// AllDayTime is the time-of-day value for all-day events.
	AllDayTime = ""
	// AllDayDuration is the duration sentinel for all-day events, in hours.
	AllDayDuration = 24.0
	// DefaultDuration is used for timed events with no DTEND, in hours.
	DefaultDuration = 1.0

	// DateLayout is the wire format of the start_date / end_date columns.
	DateLayout = "2006-01-02"
	// TimeLayout is the 24-hour wire format of the time column.
	TimeLayout = "15:04"
)

// PlannerRow is the canonical schedule record consumed by the display layer.
// CSV tags match the planner table header exactly.
type PlannerRow struct {
	KidName      string  `csv:"kid_name"`
	Activity     string  `csv:"activity"`
	Time         string  `csv:"time"`
	Duration     float64 `csv:"duration"`
	Frequency    string  `csv:"frequency"`
	DaysOfWeek   string  `csv:"days_of_week"`
	StartDate    string  `csv:"start_date"`
	EndDate      string  `csv:"end_date"`
	Address      string  `csv:"address"`
	PickupDriver string  `csv:"pickup_driver"`
	ReturnDriver string  `csv:"return_driver"`
}

// RowKey identifies a row for dedup purposes. Two rows are duplicates iff
// their keys are equal; matching is exact and case-sensitive.
type RowKey struct {
	Activity  string
	StartDate string
	Time      string
}

// Key returns the dedup key of the row.
func (r PlannerRow) Key() RowKey {
	return RowKey{Activity: r.Activity, StartDate: r.StartDate, Time: r.Time}
}

// DaysOfWeekFor renders the days_of_week column for a one-time event on the
// given date, e.g. `["monday"]`.
func DaysOfWeekFor(t time.Time) string {
	return fmt.Sprintf(`[%q]`, strings.ToLower(t.Weekday().String()))
}
