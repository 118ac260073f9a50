package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"hireflow/scheduling-service/internal/calendar"
	"hireflow/scheduling-service/internal/notify"
	"hireflow/scheduling-service/internal/participants"
	"hireflow/scheduling-service/internal/schedule"
	"hireflow/scheduling-service/internal/securelink"
)

// ─── Domain model ────────────────────────────────────────────────────────────

// Application is one candidate's submission to one job opening.
type Application struct {
	ID             string             `json:"id"`
	CandidateName  string             `json:"candidateName"`
	CandidateEmail string             `json:"candidateEmail"`
	JobTitle       string             `json:"jobTitle"`
	Department     string             `json:"department"`
	Status         Status             `json:"status"`
	FinalStatus    FinalStatus        `json:"finalStatus"`
	ConfirmedAt    *time.Time         `json:"confirmedInterviewAt"`
	Settings       *schedule.Settings `json:"-"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// ─── Collaborator contracts ──────────────────────────────────────────────────

// ApplicationStore persists applications. Conditional updates carry the
// expected current state so concurrent writers cannot interleave.
type ApplicationStore interface {
	Create(ctx context.Context, app Application) (*Application, error)
	Get(ctx context.Context, id string) (*Application, error)
	// UpdateStatus moves id from → to, persisting settings when non-nil.
	// It must fail with ErrInvalidTransition if the stored status is no
	// longer `from` (a concurrent transition won).
	UpdateStatus(ctx context.Context, id string, from, to Status, settings *schedule.Settings) (*Application, error)
	// SetConfirmedTime records the candidate's confirmed interview time.
	SetConfirmedTime(ctx context.Context, id string, at time.Time) error
	// FinalizeOutcome atomically writes the terminal stage and the
	// write-once final status. It must fail with ErrFinalStatusSet if the
	// stored status is not `from` or final_status already left PENDING.
	FinalizeOutcome(ctx context.Context, id string, from, to Status, outcome FinalStatus) (*Application, error)
	// ListAwaitingSlotChoice returns applications in INTERVIEW with no
	// confirmed time, for availability refresh.
	ListAwaitingSlotChoice(ctx context.Context) ([]Application, error)
}

// SlotStore persists the computed availability per application.
// *schedule.Store is the Postgres implementation.
type SlotStore interface {
	Replace(ctx context.Context, applicationID string, slots []schedule.Slot) error
	ListAvailable(ctx context.Context, applicationID string) ([]schedule.Slot, error)
	Confirm(ctx context.Context, applicationID string, start time.Time) (schedule.Slot, error)
	// Release re-opens a confirmed slot, compensating a Confirm whose
	// follow-up write failed.
	Release(ctx context.Context, applicationID string, start time.Time) error
}

// ─── Service ─────────────────────────────────────────────────────────────────

// Service encapsulates the recruiting-pipeline business logic. It is
// transport-agnostic and drives every state mutation; handlers only map
// requests and errors.
type Service struct {
	apps      ApplicationStore
	slots     SlotStore
	busy      calendar.BusyProvider
	resolver  *participants.Resolver
	links     *securelink.Issuer
	notifier  notify.Dispatcher
	loc       *time.Location
	baseURL   string // public base for candidate-facing links
	organizer string // organizer address on calendar invites
	now       func() time.Time
}

// NewService wires a Service from its collaborators.
func NewService(
	apps ApplicationStore,
	slots SlotStore,
	busy calendar.BusyProvider,
	resolver *participants.Resolver,
	links *securelink.Issuer,
	notifier notify.Dispatcher,
	loc *time.Location,
	baseURL, organizer string,
) *Service {
	return &Service{
		apps:      apps,
		slots:     slots,
		busy:      busy,
		resolver:  resolver,
		links:     links,
		notifier:  notifier,
		loc:       loc,
		baseURL:   baseURL,
		organizer: organizer,
		now:       time.Now,
	}
}

// CreateInput is the minimal submission payload.
type CreateInput struct {
	CandidateName  string `json:"candidateName"`
	CandidateEmail string `json:"candidateEmail"`
	JobTitle       string `json:"jobTitle"`
	Department     string `json:"department"`
}

// CreateApplication records a new submission at SUBMITTED / PENDING.
func (s *Service) CreateApplication(ctx context.Context, in CreateInput) (*Application, error) {
	if in.CandidateEmail == "" {
		return nil, &ValidationError{Msg: "candidateEmail is required"}
	}
	if in.JobTitle == "" {
		return nil, &ValidationError{Msg: "jobTitle is required"}
	}
	department := in.Department
	if department == "" {
		// No explicit department: derive it from the job title via the
		// alias table. Unresolved titles are stored as-is; the interview
		// transition will surface the unresolved warning.
		if dept, err := s.resolver.DepartmentForTitle(in.JobTitle); err == nil {
			department = dept
		} else {
			department = in.JobTitle
		}
	}
	return s.apps.Create(ctx, Application{
		ID:             uuid.New().String(),
		CandidateName:  in.CandidateName,
		CandidateEmail: in.CandidateEmail,
		JobTitle:       in.JobTitle,
		Department:     department,
		Status:         StatusSubmitted,
		FinalStatus:    FinalPending,
	})
}

// RequestTransition moves an application to targetStatus on behalf of a
// recruiter. Entering INTERVIEW requires settings and triggers the
// scheduling side effects; entering ACCEPTED issues the finalize link.
// HIRED and OFFER_DECLINED are not valid targets here — they are written
// exclusively by the candidate's Finalize action.
func (s *Service) RequestTransition(ctx context.Context, id string, target Status, settings *schedule.Settings) (*Application, error) {
	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if target == StatusHired || target == StatusOfferDeclined {
		return nil, &ValidationError{Msg: fmt.Sprintf("%s is set by the candidate's finalize action, not a recruiter transition", target)}
	}
	if !IsTransitionAllowed(app.Status, target) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, app.Status, target)
	}

	switch target {
	case StatusInterview:
		return s.enterInterview(ctx, app, settings)
	case StatusRejected:
		return s.reject(ctx, app)
	default:
		updated, err := s.apps.UpdateStatus(ctx, id, app.Status, target, nil)
		if err != nil {
			return nil, err
		}
		if target == StatusAccepted {
			s.sendFinalizeLinks(ctx, updated)
		}
		s.notifier.StageChanged(ctx, notify.StageChanged{
			ApplicationID:  updated.ID,
			CandidateEmail: updated.CandidateEmail,
			From:           string(app.Status),
			To:             string(updated.Status),
			At:             s.now().UTC().Format(time.RFC3339),
		})
		return updated, nil
	}
}

// enterInterview is the distinguished transition: it computes and stores
// availability, issues the scheduling link and notifies the candidate.
// Integration failures degrade — the stage change itself always commits
// once the transition is legal.
func (s *Service) enterInterview(ctx context.Context, app *Application, settings *schedule.Settings) (*Application, error) {
	if settings == nil {
		return nil, &ValidationError{Msg: "entering INTERVIEW requires scheduling settings"}
	}
	if settings.Department == "" {
		settings.Department = app.Department
	}
	if err := settings.Validate(); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	slots := s.computeAvailability(ctx, app.ID, *settings)

	updated, err := s.apps.UpdateStatus(ctx, app.ID, app.Status, StatusInterview, settings)
	if err != nil {
		return nil, err
	}

	// Past this point the transition is committed; storage or dispatch
	// trouble degrades to an empty offer, never a rollback.
	if err := s.slots.Replace(ctx, app.ID, slots); err != nil {
		slog.Error("slot replace failed after committed transition, candidate will see no slots",
			"applicationId", app.ID, "err", err)
		slots = nil
	}

	token, err := s.links.Issue(app.ID, securelink.PurposeSchedule, s.now())
	scheduleURL := ""
	if err != nil {
		slog.Error("scheduling link issuance failed", "applicationId", app.ID, "err", err)
	} else {
		scheduleURL = fmt.Sprintf("%s/schedule/%s?token=%s", s.baseURL, app.ID, token)
	}

	s.notifier.StageChanged(ctx, notify.StageChanged{
		ApplicationID:  app.ID,
		CandidateEmail: app.CandidateEmail,
		From:           string(app.Status),
		To:             string(StatusInterview),
		ScheduleURL:    scheduleURL,
		SlotCount:      len(slots),
		At:             s.now().UTC().Format(time.RFC3339),
	})
	return updated, nil
}

// computeAvailability resolves the interviewer group, gathers everyone's
// busy time concurrently and derives the open slots. Every failure mode
// here degrades to fewer (or zero) slots by policy.
func (s *Service) computeAvailability(ctx context.Context, applicationID string, settings schedule.Settings) []schedule.Slot {
	group, err := s.resolver.Resolve(settings.Department)
	if err != nil {
		slog.Warn("no interviewers resolved, offering empty availability",
			"applicationId", applicationID, "department", settings.Department, "err", err)
		return nil
	}

	from := time.Date(settings.DateFrom.Year(), settings.DateFrom.Month(), settings.DateFrom.Day(), 0, 0, 0, 0, s.loc)
	to := time.Date(settings.DateTo.Year(), settings.DateTo.Month(), settings.DateTo.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, 1)

	// Per-participant fetches are independent reads merged commutatively,
	// so they run concurrently; the WaitGroup is the barrier before the
	// slot computation.
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		busy []schedule.BusyInterval
	)
	for _, iv := range group {
		wg.Add(1)
		go func(iv participants.Interviewer) {
			defer wg.Done()
			intervals := s.busy.BusyIntervals(ctx, iv.CalendarURL, from, to)
			mu.Lock()
			busy = append(busy, intervals...)
			mu.Unlock()
		}(iv)
	}
	wg.Wait()

	return schedule.ComputeSlots(busy, settings, s.loc)
}

// reject is exempt from the forward-only rule (checked by the caller via
// IsTransitionAllowed) and writes both axes in one statement.
func (s *Service) reject(ctx context.Context, app *Application) (*Application, error) {
	updated, err := s.apps.FinalizeOutcome(ctx, app.ID, app.Status, StatusRejected, FinalRejected)
	if err != nil {
		return nil, err
	}
	s.notifier.StageChanged(ctx, notify.StageChanged{
		ApplicationID:  updated.ID,
		CandidateEmail: updated.CandidateEmail,
		From:           string(app.Status),
		To:             string(StatusRejected),
		At:             s.now().UTC().Format(time.RFC3339),
	})
	return updated, nil
}

func (s *Service) sendFinalizeLinks(ctx context.Context, app *Application) {
	token, err := s.links.Issue(app.ID, securelink.PurposeFinalize, s.now())
	if err != nil {
		slog.Error("finalize link issuance failed", "applicationId", app.ID, "err", err)
		return
	}
	s.notifier.FinalStatusRequested(ctx, notify.FinalStatusRequested{
		ApplicationID:  app.ID,
		CandidateEmail: app.CandidateEmail,
		AcceptURL:      fmt.Sprintf("%s/finalize/%s?outcome=HIRED&token=%s", s.baseURL, app.ID, token),
		DeclineURL:     fmt.Sprintf("%s/finalize/%s?outcome=OFFER_DECLINED&token=%s", s.baseURL, app.ID, token),
	})
}

// ListSlots returns the still-open slots for the candidate's scheduling
// page. An empty result is a valid answer — the page shows "no slots yet,
// contact organizer".
func (s *Service) ListSlots(ctx context.Context, id, token string) ([]schedule.Slot, error) {
	if err := s.links.Validate(token, id, securelink.PurposeSchedule, s.now()); err != nil {
		return nil, err
	}
	if _, err := s.apps.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.slots.ListAvailable(ctx, id)
}

// ConfirmSlot locks in the candidate's chosen interview time. The slot
// store's conditional mark is the race guard: of two concurrent
// confirmations exactly one succeeds and the loser gets
// schedule.ErrSlotUnavailable with no auto-substitution. The confirmed
// time is persisted on the application; the stage itself does not change.
func (s *Service) ConfirmSlot(ctx context.Context, id, token string, start time.Time) (*schedule.Slot, error) {
	if err := s.links.Validate(token, id, securelink.PurposeSchedule, s.now()); err != nil {
		return nil, err
	}
	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status != StatusInterview {
		return nil, fmt.Errorf("%w: application is in %s, not %s", ErrInvalidTransition, app.Status, StatusInterview)
	}

	slot, err := s.slots.Confirm(ctx, id, start)
	if err != nil {
		return nil, err
	}
	if err := s.apps.SetConfirmedTime(ctx, id, slot.Start); err != nil {
		// Hand the slot back so the candidate's retry is not refused on a
		// slot nobody holds.
		if relErr := s.slots.Release(ctx, id, slot.Start); relErr != nil {
			slog.Error("slot release after failed confirm persist",
				"applicationId", id, "err", relErr)
		}
		return nil, fmt.Errorf("persist confirmed time: %w", err)
	}

	s.dispatchInvite(ctx, app, slot)
	return &slot, nil
}

func (s *Service) dispatchInvite(ctx context.Context, app *Application, slot schedule.Slot) {
	department := app.Department
	if app.Settings != nil && app.Settings.Department != "" {
		department = app.Settings.Department
	}
	group, err := s.resolver.Resolve(department)
	if err != nil {
		slog.Warn("no interviewers resolved for invite, sending candidate-only confirmation",
			"applicationId", app.ID, "department", department)
	}

	invite := calendar.Invite{
		UID:            fmt.Sprintf("%s@hireflow", app.ID),
		Summary:        fmt.Sprintf("Interview — %s", app.JobTitle),
		Description:    fmt.Sprintf("Interview with %s", app.CandidateName),
		Slot:           slot,
		CandidateName:  app.CandidateName,
		CandidateEmail: app.CandidateEmail,
		Organizer:      s.organizer,
		Interviewers:   group,
	}

	attendees := make([]string, 0, len(group)+1)
	attendees = append(attendees, app.CandidateEmail)
	for _, iv := range group {
		attendees = append(attendees, iv.Email)
	}

	s.notifier.SlotConfirmed(ctx, notify.SlotConfirmed{
		ApplicationID:  app.ID,
		CandidateEmail: app.CandidateEmail,
		Start:          slot.Start,
		End:            slot.End,
		Attendees:      attendees,
		InviteICS:      calendar.RenderInvite(invite, s.now()),
	})
}

// Finalize writes the candidate's terminal outcome. It is gated by the
// finalize token, accepts only the two candidate-reachable outcomes, and
// enforces the write-once rule: once FinalStatus left PENDING, a second
// attempt with a different value is refused. Repeating the same outcome
// (a re-clicked link) is answered idempotently.
func (s *Service) Finalize(ctx context.Context, id, token string, outcome FinalStatus) (*Application, error) {
	if err := s.links.Validate(token, id, securelink.PurposeFinalize, s.now()); err != nil {
		return nil, err
	}
	if outcome != FinalHired && outcome != FinalOfferDeclined {
		return nil, &ValidationError{Msg: fmt.Sprintf("outcome must be %s or %s", FinalHired, FinalOfferDeclined)}
	}

	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.FinalStatus != FinalPending {
		if app.FinalStatus == outcome {
			return app, nil
		}
		return nil, fmt.Errorf("%w: already %s", ErrFinalStatusSet, app.FinalStatus)
	}

	target := StatusHired
	if outcome == FinalOfferDeclined {
		target = StatusOfferDeclined
	}
	if !IsTransitionAllowed(app.Status, target) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, app.Status, target)
	}

	updated, err := s.apps.FinalizeOutcome(ctx, id, app.Status, target, outcome)
	if err != nil {
		return nil, err
	}

	s.notifier.StageChanged(ctx, notify.StageChanged{
		ApplicationID:  updated.ID,
		CandidateEmail: updated.CandidateEmail,
		From:           string(app.Status),
		To:             string(updated.Status),
		At:             s.now().UTC().Format(time.RFC3339),
	})
	return updated, nil
}

// RefreshAvailability recomputes and atomically replaces the slot set for
// every application still waiting on a slot choice, using the settings
// persisted when the interview stage was entered. Called by the cron
// refresher so offered slots do not go stale.
func (s *Service) RefreshAvailability(ctx context.Context) error {
	apps, err := s.apps.ListAwaitingSlotChoice(ctx)
	if err != nil {
		return fmt.Errorf("list awaiting applications: %w", err)
	}
	for _, app := range apps {
		if app.Settings == nil {
			slog.Warn("application awaiting slot choice has no stored settings, skipping refresh", "applicationId", app.ID)
			continue
		}
		slots := s.computeAvailability(ctx, app.ID, *app.Settings)
		if err := s.slots.Replace(ctx, app.ID, slots); err != nil {
			slog.Error("availability refresh failed", "applicationId", app.ID, "err", err)
		}
	}
	return nil
}

// ─── Sentinel errors ─────────────────────────────────────────────────────────

// ErrNotFound is returned when the application does not exist.
var ErrNotFound = errors.New("application not found")

// ErrInvalidTransition is returned for any illegal status move.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrFinalStatusSet is returned when a finalize attempt races or repeats
// against an already-written terminal outcome.
var ErrFinalStatusSet = errors.New("final status already set")

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
