package ics

import (
	"time"

	"github.com/teambition/rrule-go"

	appLog "plannercal/internal/log"
)

const defaultMaxOccurrencesPerEvent = 500

// Materialize turns events that carry an RRULE into concrete one-time
// instances within [rangeStart, rangeEnd]. Events without an RRULE pass
// through untouched. The consumed feeds mostly ship pre-materialized
// instances, so this is a safety net for the occasional recurring VEVENT,
// not a full recurrence engine; RECURRENCE-ID overrides are not applied.
func Materialize(src Source, events []RawEvent, rangeStart, rangeEnd time.Time) []RawEvent {
	out := make([]RawEvent, 0, len(events))

	for _, ev := range events {
		if ev.RawRRule == "" {
			out = append(out, ev)
			continue
		}
		out = append(out, expandEvent(src, ev, rangeStart, rangeEnd)...)
	}

	return out
}

func expandEvent(src Source, ev RawEvent, rangeStart, rangeEnd time.Time) []RawEvent {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		// Keep the base instance rather than losing the event entirely.
		appLog.Warn("ics rrule unparseable, keeping base instance", "code", src.Code, "summary", ev.Summary, "rrule", ev.RawRRule)
		ev.RawRRule = ""
		return []RawEvent{ev}
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	start := rangeStart.In(ev.Start.Location())
	end := rangeEnd.In(ev.Start.Location())

	occTimes := set.Between(start, end, true)
	if len(occTimes) > defaultMaxOccurrencesPerEvent {
		appLog.Warn("ics rrule expansion truncated", "code", src.Code, "summary", ev.Summary, "cap", defaultMaxOccurrencesPerEvent)
		occTimes = occTimes[:defaultMaxOccurrencesPerEvent]
	}

	dur := time.Duration(0)
	if !ev.End.IsZero() {
		dur = ev.End.Sub(ev.Start)
	}

	out := make([]RawEvent, 0, len(occTimes))
	for _, occStart := range occTimes {
		inst := ev
		inst.RawRRule = ""
		inst.ExDates = nil
		if ev.AllDay {
			inst.Start = time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			if dur > 0 {
				inst.End = inst.Start.Add(dur)
			} else {
				inst.End = time.Time{}
			}
		} else {
			inst.Start = occStart
			if dur > 0 {
				inst.End = occStart.Add(dur)
			} else {
				inst.End = time.Time{}
			}
		}
		out = append(out, inst)
	}

	return out
}
