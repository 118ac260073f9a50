package schedule

import "time"

// stepGranularity is the spacing between candidate slot start times.
const stepGranularity = 30 * time.Minute

// ComputeSlots derives every interview slot of s.Duration that fits inside
// the daily working window over the configured date range and collides
// with none of the busy intervals. The busy set is expected to be the
// union across all required participants; one participant being busy is
// enough to block a slot.
//
// The function is pure and deterministic: identical inputs always produce
// the same, chronologically ordered result. Days are enumerated inclusive
// of both range ends, and the daily window is constructed as wall-clock
// time in loc before being compared against the absolute busy intervals.
func ComputeSlots(busy []BusyInterval, s Settings, loc *time.Location) []Slot {
	if loc == nil {
		loc = time.UTC
	}

	slots := make([]Slot, 0)

	from := dateOnly(s.DateFrom, loc)
	to := dateOnly(s.DateTo, loc)

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		windowStart := day.Add(time.Duration(s.WindowStart) * time.Minute)
		windowEnd := day.Add(time.Duration(s.WindowEnd) * time.Minute)

		for t := windowStart; ; t = t.Add(stepGranularity) {
			end := t.Add(s.Duration)
			if end.After(windowEnd) {
				break
			}
			if !overlapsAny(busy, t, end) {
				slots = append(slots, Slot{Start: t, End: end})
			}
		}
	}

	return slots
}

func overlapsAny(busy []BusyInterval, start, end time.Time) bool {
	for _, b := range busy {
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// dateOnly keeps the literal calendar day of t and anchors it at midnight
// in loc. The recruiter supplies dates, not instants, so the date fields
// are taken as written rather than converted across zones.
func dateOnly(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
