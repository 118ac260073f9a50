// Package calendar integrates with participants' calendars: it reads
// busy time from published ICS feeds and renders the confirmed interview
// as an ICS invite.
package calendar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"hireflow/scheduling-service/internal/schedule"
)

const (
	httpTimeout  = 15 * time.Second
	maxFeedBytes = 4 << 20
)

// BusyProvider reports one calendar's busy intervals over a range.
type BusyProvider interface {
	// BusyIntervals returns the calendar's reported unavailability in
	// [from, to). Implementations must be read-only and safe to call once
	// per participant per scheduling round.
	BusyIntervals(ctx context.Context, calendarURL string, from, to time.Time) []schedule.BusyInterval
}

// ICSProvider fetches a participant's published ICS feed over HTTP and
// converts its events — including recurring ones — into busy intervals.
//
// Degrade-to-available policy: if the feed is unreachable, not shared, or
// unparseable, BusyIntervals returns an empty list instead of failing the
// scheduling round. The system prefers offering slots that may need a
// manual double-check over refusing to schedule at all. Each degradation
// is logged with a dedicated message so operators can reconcile.
type ICSProvider struct {
	client *http.Client
}

// NewICSProvider returns a provider with a shared HTTP client.
func NewICSProvider() *ICSProvider {
	return &ICSProvider{client: &http.Client{Timeout: httpTimeout}}
}

// BusyIntervals implements BusyProvider.
func (p *ICSProvider) BusyIntervals(ctx context.Context, calendarURL string, from, to time.Time) []schedule.BusyInterval {
	body, err := p.fetch(ctx, calendarURL)
	if err != nil {
		slog.Warn("calendar feed unreachable, treating participant as free — slots may need manual double-checking",
			"url", calendarURL, "err", err)
		return nil
	}

	intervals, err := parseBusy(body, from, to)
	if err != nil {
		slog.Warn("calendar feed unparseable, treating participant as free — slots may need manual double-checking",
			"url", calendarURL, "err", err)
		return nil
	}
	return intervals
}

func (p *ICSProvider) fetch(ctx context.Context, calendarURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, calendarURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
}
