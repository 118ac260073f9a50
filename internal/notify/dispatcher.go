// Package notify dispatches candidate- and recruiter-facing notifications.
// The concrete mail/chat delivery lives outside this service: events are
// published to Redis channels where the gateway's mailer and chat bridge
// subscribe. Dispatch is best-effort — a failed publish is logged and
// never propagated into the state change that triggered it.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis channels, one per event kind.
const (
	ChannelStageChanged         = "EVENT_STAGE_CHANGED"
	ChannelSlotConfirmed        = "EVENT_SLOT_CONFIRMED"
	ChannelFinalStatusRequested = "EVENT_FINAL_STATUS_REQUESTED"
)

// StageChanged is emitted after any committed status transition. When the
// new stage is INTERVIEW, ScheduleURL carries the candidate's tokened
// scheduling link and SlotCount the size of the offered set (zero means
// the page shows "no slots yet, contact organizer").
type StageChanged struct {
	ApplicationID  string `json:"applicationId"`
	CandidateEmail string `json:"candidateEmail"`
	From           string `json:"from"`
	To             string `json:"to"`
	ScheduleURL    string `json:"scheduleUrl,omitempty"`
	SlotCount      int    `json:"slotCount,omitempty"`
	At             string `json:"at"`
}

// SlotConfirmed is emitted after a candidate locks in an interview time.
// InviteICS is the rendered calendar invite for the mailer to attach.
type SlotConfirmed struct {
	ApplicationID  string    `json:"applicationId"`
	CandidateEmail string    `json:"candidateEmail"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Attendees      []string  `json:"attendees"`
	InviteICS      string    `json:"inviteIcs"`
}

// FinalStatusRequested is emitted on entering ACCEPTED, carrying both
// action links for the candidate.
type FinalStatusRequested struct {
	ApplicationID  string `json:"applicationId"`
	CandidateEmail string `json:"candidateEmail"`
	AcceptURL      string `json:"acceptUrl"`
	DeclineURL     string `json:"declineUrl"`
}

// Dispatcher is the outbound notification contract.
type Dispatcher interface {
	StageChanged(ctx context.Context, ev StageChanged)
	SlotConfirmed(ctx context.Context, ev SlotConfirmed)
	FinalStatusRequested(ctx context.Context, ev FinalStatusRequested)
}

// RedisDispatcher publishes events as JSON to the per-kind channels.
type RedisDispatcher struct {
	rdb *redis.Client
}

// NewRedisDispatcher returns a Dispatcher backed by rdb.
func NewRedisDispatcher(rdb *redis.Client) *RedisDispatcher {
	return &RedisDispatcher{rdb: rdb}
}

// StageChanged implements Dispatcher.
func (d *RedisDispatcher) StageChanged(ctx context.Context, ev StageChanged) {
	d.publish(ctx, ChannelStageChanged, ev)
}

// SlotConfirmed implements Dispatcher.
func (d *RedisDispatcher) SlotConfirmed(ctx context.Context, ev SlotConfirmed) {
	d.publish(ctx, ChannelSlotConfirmed, ev)
}

// FinalStatusRequested implements Dispatcher.
func (d *RedisDispatcher) FinalStatusRequested(ctx context.Context, ev FinalStatusRequested) {
	d.publish(ctx, ChannelFinalStatusRequested, ev)
}

func (d *RedisDispatcher) publish(ctx context.Context, channel string, ev any) {
	body, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("notification marshal failed", "channel", channel, "err", err)
		return
	}
	if err := d.rdb.Publish(ctx, channel, body).Err(); err != nil {
		slog.Warn("notification publish failed", "channel", channel, "err", err)
	}
}
