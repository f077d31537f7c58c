package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "plannercal/internal/log"
)

// RawEvent is the normalized representation of a single VEVENT as produced
// by the parser. It is transient; normalization turns it into a planner row.
type RawEvent struct {
	Summary     string
	Description string
	Location    string

	Start  time.Time
	End    time.Time // zero when the feed omits DTEND
	AllDay bool

	// RawRRule carries an unexpanded recurrence rule, if the feed has one.
	// Materialization into concrete instances happens in expand.go.
	RawRRule string
	ExDates  []time.Time
}

// ParseError reports a feed whose top-level ICS structure could not be
// parsed. The feed is skipped for the run; sibling sources are unaffected.
type ParseError struct {
	Code string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Code, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// ParseICS parses one ICS payload into RawEvents.
//
// Malformed VEVENT blocks (missing SUMMARY, unparseable DTSTART) are skipped
// and counted in the second return value; a single bad event never aborts the
// rest of the feed. Only a top-level grammar failure returns an error.
func ParseICS(src Source, body []byte) ([]RawEvent, int, error) {
	if len(body) == 0 {
		return nil, 0, &ParseError{Code: src.Code, Err: errors.New("empty ICS body")}
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, 0, &ParseError{Code: src.Code, Err: err}
	}

	events := make([]RawEvent, 0, len(cal.Events()))
	skipped := 0

	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp)
		if perr != nil {
			appLog.Debug("ics vevent skipped", "code", src.Code, "reason", perr)
			skipped++
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "code", src.Code, "event_count", len(events), "skipped", skipped)
	return events, skipped, nil
}

func parseVEvent(ve *ical.VEvent) (RawEvent, error) {
	var out RawEvent

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if out.Summary == "" {
		return out, errors.New("missing SUMMARY")
	}

	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	// Detect all-day: VALUE=DATE parameter or a date-only DTSTART value.
	dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStartProp == nil || dtStartProp.Value == "" {
		return out, errors.New("missing DTSTART")
	}
	if params := dtStartProp.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			out.AllDay = true
		}
	}
	if !strings.Contains(dtStartProp.Value, "T") {
		out.AllDay = true
	}

	// DTSTART / DTEND via the library's timezone-aware helpers. The all-day
	// variants parse date-only values.
	var start time.Time
	var err error
	if out.AllDay {
		start, err = ve.GetAllDayStartAt()
	} else {
		start, err = ve.GetStartAt()
	}
	if err != nil {
		return out, fmt.Errorf("unparseable DTSTART: %w", err)
	}
	out.Start = start

	// DTEND is optional; a zero End means default-duration downstream.
	if ve.GetProperty(ical.ComponentPropertyDtEnd) != nil {
		var end time.Time
		if out.AllDay {
			end, err = ve.GetAllDayEndAt()
		} else {
			end, err = ve.GetEndAt()
		}
		if err == nil {
			out.End = end
		}
	}

	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.RawRRule = rruleProp.Value
	}

	// EXDATE can appear multiple times, each with a comma-separated list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, perr := parseICSTime(part); perr == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	return out, nil
}

// parseICSTime parses a basic ICS date/date-time string. Used for EXDATE
// values where full parameter context is not needed.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g. 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}

	// Local date-time, e.g. 20250101T090000
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}

	// Date-only, e.g. 20250101
	return time.ParseInLocation("20060102", v, time.Local)
}
