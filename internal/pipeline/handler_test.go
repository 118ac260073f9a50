package pipeline

import (
	"testing"
	"time"

	"hireflow/scheduling-service/internal/schedule"
)

func TestParseMinutes(t *testing.T) {
	cases := []struct {
		in      string
		want    schedule.MinutesOfDay
		wantErr bool
	}{
		{"00:00", 0, false},
		{"10:30", 630, false},
		{"23:59", 1439, false},
		{"24:00", 1440, false}, // window runs to end of day
		{"24:30", 0, true},
		{"25:00", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		got, err := parseMinutes(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("parseMinutes(%q) error = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if !c.wantErr && got != c.want {
			t.Errorf("parseMinutes(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestSettingsPayload_EndOfDayWindow(t *testing.T) {
	p := settingsPayload{
		DateFrom:        "2025-08-04",
		DateTo:          "2025-08-05",
		WindowStart:     "18:00",
		WindowEnd:       "24:00",
		DurationMinutes: 60,
		Department:      "engineering",
	}
	s, err := p.toSettings()
	if err != nil {
		t.Fatalf("toSettings: %v", err)
	}
	if s.WindowEnd != 1440 {
		t.Errorf("WindowEnd = %d, want 1440", s.WindowEnd)
	}
	if s.Duration != time.Hour {
		t.Errorf("Duration = %s, want 1h", s.Duration)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
