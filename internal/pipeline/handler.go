// HTTP transport for the pipeline service.
//
// Routes:
//
//	POST /applications                      → record a submission
//	POST /applications/{id}/transition      → recruiter-requested status move
//	GET  /applications/{id}/slots?token=…   → candidate's open slots (token-gated)
//	POST /applications/{id}/confirm         → candidate picks a slot (token-gated)
//	POST /applications/{id}/finalize        → candidate accepts/declines offer (token-gated)
package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"hireflow/scheduling-service/internal/schedule"
	"hireflow/scheduling-service/internal/securelink"
)

// Handler adapts HTTP requests onto the Service.
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts all routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/applications", h.handleApplications)
	mux.HandleFunc("/applications/", h.handleApplicationAction)
}

// ─── Route dispatch ───────────────────────────────────────────────────────────

func (h *Handler) handleApplications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.createApplication(w, r)
}

// handleApplicationAction handles /applications/{id}/{action}
func (h *Handler) handleApplicationAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	appID := parts[1]
	action := parts[2]

	switch {
	case action == "slots" && r.Method == http.MethodGet:
		h.listSlots(w, r, appID)
	case action == "transition" && r.Method == http.MethodPost:
		h.requestTransition(w, r, appID)
	case action == "confirm" && r.Method == http.MethodPost:
		h.confirmSlot(w, r, appID)
	case action == "finalize" && r.Method == http.MethodPost:
		h.finalize(w, r, appID)
	default:
		jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
	}
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) createApplication(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	app, err := h.svc.CreateApplication(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	jsonWith(w, http.StatusCreated, app)
}

// transitionRequest is the recruiter payload. Settings are required when
// targetStatus is INTERVIEW and ignored otherwise.
type transitionRequest struct {
	TargetStatus string           `json:"targetStatus"`
	Settings     *settingsPayload `json:"settings,omitempty"`
}

// settingsPayload is the wire shape of schedule.Settings: dates as
// YYYY-MM-DD, the daily window as HH:MM (24:00 means end of day), the
// duration in minutes.
type settingsPayload struct {
	DateFrom        string `json:"dateFrom"`
	DateTo          string `json:"dateTo"`
	WindowStart     string `json:"windowStart"`
	WindowEnd       string `json:"windowEnd"`
	DurationMinutes int    `json:"durationMinutes"`
	Department      string `json:"department,omitempty"`
}

func (p *settingsPayload) toSettings() (*schedule.Settings, error) {
	dateFrom, err := time.Parse("2006-01-02", p.DateFrom)
	if err != nil {
		return nil, fmt.Errorf("dateFrom: %w", err)
	}
	dateTo, err := time.Parse("2006-01-02", p.DateTo)
	if err != nil {
		return nil, fmt.Errorf("dateTo: %w", err)
	}
	windowStart, err := parseMinutes(p.WindowStart)
	if err != nil {
		return nil, fmt.Errorf("windowStart: %w", err)
	}
	windowEnd, err := parseMinutes(p.WindowEnd)
	if err != nil {
		return nil, fmt.Errorf("windowEnd: %w", err)
	}
	return &schedule.Settings{
		DateFrom:    dateFrom,
		DateTo:      dateTo,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Duration:    time.Duration(p.DurationMinutes) * time.Minute,
		Department:  p.Department,
	}, nil
}

func parseMinutes(hhmm string) (schedule.MinutesOfDay, error) {
	// time.Parse rejects 24:00, the natural way to say the window runs to
	// the end of the day.
	if hhmm == "24:00" {
		return schedule.MinutesOfDay(24 * 60), nil
	}
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return schedule.MinutesOfDay(t.Hour()*60 + t.Minute()), nil
}

func (h *Handler) requestTransition(w http.ResponseWriter, r *http.Request, appID string) {
	var body transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TargetStatus == "" {
		jsonError(w, "body must contain targetStatus", http.StatusBadRequest)
		return
	}
	target, err := ParseStatus(body.TargetStatus)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var settings *schedule.Settings
	if body.Settings != nil {
		if settings, err = body.Settings.toSettings(); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	app, err := h.svc.RequestTransition(r.Context(), appID, target, settings)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	jsonOK(w, app)
}

func (h *Handler) listSlots(w http.ResponseWriter, r *http.Request, appID string) {
	token := r.URL.Query().Get("token")
	slots, err := h.svc.ListSlots(r.Context(), appID, token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	jsonOK(w, map[string]any{"slots": slots})
}

func (h *Handler) confirmSlot(w http.ResponseWriter, r *http.Request, appID string) {
	var body struct {
		Token     string    `json:"token"`
		SlotStart time.Time `json:"slotStart"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SlotStart.IsZero() {
		jsonError(w, "body must contain token and slotStart (RFC 3339)", http.StatusBadRequest)
		return
	}
	slot, err := h.svc.ConfirmSlot(r.Context(), appID, body.Token, body.SlotStart)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	jsonOK(w, slot)
}

func (h *Handler) finalize(w http.ResponseWriter, r *http.Request, appID string) {
	var body struct {
		Token   string `json:"token"`
		Outcome string `json:"outcome"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Outcome == "" {
		jsonError(w, "body must contain token and outcome", http.StatusBadRequest)
		return
	}
	outcome, err := ParseFinalStatus(body.Outcome)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	app, err := h.svc.Finalize(r.Context(), appID, body.Token, outcome)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	jsonOK(w, app)
}

// ─── Error mapping and helpers ────────────────────────────────────────────────

// writeServiceError maps domain errors to HTTP statuses with a
// machine-readable kind.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		jsonKindError(w, "NOT_FOUND", err.Error(), http.StatusNotFound)
	case errors.Is(err, securelink.ErrTokenInvalid):
		jsonKindError(w, "TOKEN_INVALID", "link is not usable", http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidTransition):
		jsonKindError(w, "INVALID_TRANSITION", err.Error(), http.StatusBadRequest)
	case errors.Is(err, schedule.ErrSlotUnavailable):
		jsonKindError(w, "SLOT_UNAVAILABLE", err.Error(), http.StatusConflict)
	case errors.Is(err, ErrFinalStatusSet):
		jsonKindError(w, "FINAL_STATUS_SET", err.Error(), http.StatusConflict)
	case errors.As(err, &ve):
		jsonKindError(w, "VALIDATION", ve.Msg, http.StatusBadRequest)
	default:
		log.Printf("[pipeline] internal error: %v", err)
		jsonKindError(w, "INTERNAL", "internal server error", http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, v any) {
	jsonWith(w, http.StatusOK, v)
}

func jsonWith(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	jsonWith(w, code, map[string]string{"error": msg})
}

func jsonKindError(w http.ResponseWriter, kind, msg string, code int) {
	jsonWith(w, code, map[string]string{"error": msg, "kind": kind})
}
