// Package schedule implements the interview-availability engine: the data
// types shared by the calendar integration, the pure slot calculator, and
// the Postgres-backed slot store.
package schedule

import (
	"fmt"
	"time"
)

// BusyInterval is one calendar's reported unavailability as a half-open
// range [Start, End) in absolute time.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether the half-open ranges [b.Start, b.End) and
// [start, end) intersect.
func (b BusyInterval) Overlaps(start, end time.Time) bool {
	return start.Before(b.End) && end.After(b.Start)
}

// Slot is a candidate interview time window [Start, Start+duration).
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MinutesOfDay is a wall-clock time of day expressed as minutes since
// midnight, e.g. 10:30 → 630.
type MinutesOfDay int

// Settings is the recruiter-supplied configuration for one scheduling
// round. Dates are calendar days interpreted in Location; WindowStart and
// WindowEnd bound the working hours of each day.
type Settings struct {
	DateFrom    time.Time     `json:"dateFrom"` // first candidate day (date part only)
	DateTo      time.Time     `json:"dateTo"`   // last candidate day, inclusive
	WindowStart MinutesOfDay  `json:"windowStart"`
	WindowEnd   MinutesOfDay  `json:"windowEnd"`
	Duration    time.Duration `json:"duration"`
	Department  string        `json:"department"`
}

// Validate checks the structural invariants of a scheduling round.
func (s Settings) Validate() error {
	if s.DateTo.Before(s.DateFrom) {
		return fmt.Errorf("dateTo %s is before dateFrom %s",
			s.DateTo.Format("2006-01-02"), s.DateFrom.Format("2006-01-02"))
	}
	if s.WindowEnd < s.WindowStart {
		return fmt.Errorf("daily window end %d is before start %d", s.WindowEnd, s.WindowStart)
	}
	if s.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %s", s.Duration)
	}
	if s.Department == "" {
		return fmt.Errorf("department is required")
	}
	return nil
}
