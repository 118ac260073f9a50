package calendar

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"hireflow/scheduling-service/internal/schedule"
)

// Safety cap on recurrence expansion per event.
const maxOccurrencesPerEvent = 1000

// parseBusy converts an ICS payload into the busy intervals intersecting
// [from, to). Recurring events are expanded via their RRULE with EXDATE
// exceptions removed; all-day events block the whole day. Events that
// cannot be parsed are skipped, never fatal to the rest of the feed.
func parseBusy(body []byte, from, to time.Time) ([]schedule.BusyInterval, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	intervals := make([]schedule.BusyInterval, 0)
	for _, ve := range cal.Events() {
		intervals = append(intervals, eventIntervals(ve, from, to)...)
	}
	return intervals, nil
}

func eventIntervals(ve *ical.VEvent, from, to time.Time) []schedule.BusyInterval {
	start, err := ve.GetStartAt()
	if err != nil {
		return nil
	}
	end, endErr := ve.GetEndAt()

	if allDay(ve) {
		// DTEND on all-day events is an exclusive date, so a multi-day
		// vacation keeps its full span; a missing or degenerate DTEND means
		// the event blocks its single day.
		start = floorDay(start)
		if endErr == nil && end.After(start) {
			end = floorDay(end)
		}
		if endErr != nil || !end.After(start) {
			end = start.Add(24 * time.Hour)
		}
	} else if endErr != nil || !end.After(start) {
		// Timed events without a usable DTEND are treated as instantaneous;
		// they cannot block a slot.
		return nil
	}

	rawRRule := ""
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		rawRRule = p.Value
	}
	if rawRRule == "" {
		if start.Before(to) && end.After(from) {
			return []schedule.BusyInterval{{Start: start, End: end}}
		}
		return nil
	}

	return expandRecurring(ve, start, end, rawRRule, from, to)
}

func expandRecurring(ve *ical.VEvent, start, end time.Time, rawRRule string, from, to time.Time) []schedule.BusyInterval {
	r, err := rrule.StrToRRule(rawRRule)
	if err != nil {
		return nil
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exDates(ve) {
		set.ExDate(ex.In(start.Location()))
	}

	duration := end.Sub(start)
	// Widen the window backwards so occurrences that started before `from`
	// but are still running inside it are not missed.
	occs := set.Between(from.Add(-duration).In(start.Location()), to.In(start.Location()), true)
	if len(occs) > maxOccurrencesPerEvent {
		occs = occs[:maxOccurrencesPerEvent]
	}

	intervals := make([]schedule.BusyInterval, 0, len(occs))
	for _, occStart := range occs {
		occEnd := occStart.Add(duration)
		if occStart.Before(to) && occEnd.After(from) {
			intervals = append(intervals, schedule.BusyInterval{Start: occStart, End: occEnd})
		}
	}
	return intervals
}

func floorDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func allDay(ve *ical.VEvent) bool {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}

func exDates(ve *ical.VEvent) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

// parseICSTime handles the basic DATE / DATE-TIME / UTC forms used in
// EXDATE values.
func parseICSTime(v string) (time.Time, error) {
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.Local)
	default:
		return time.ParseInLocation("20060102", v, time.Local)
	}
}
