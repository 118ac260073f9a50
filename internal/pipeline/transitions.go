// Package pipeline is the authoritative state machine for an application's
// recruiting lifecycle, and the service that drives scheduling, secure
// links and notifications off its transitions.
//
// Pipeline stage graph:
//
//	SUBMITTED ──► INTERVIEW ──► ACCEPTED ──► HIRED
//	    │             │             │
//	    │             │             └──────► OFFER_DECLINED
//	    └─────────────┴──► REJECTED
//
// HIRED, OFFER_DECLINED and REJECTED are terminal. Rejection is reachable
// from SUBMITTED and INTERVIEW only — an accepted candidate can decline
// the offer but can no longer be rejected.
//
// The terminal outcome lives on a second axis, FinalStatus: it starts
// PENDING and is written exactly once, either by the rejection transition
// or by the candidate's finalize action.
package pipeline

import "fmt"

// Status values mirror the application_status enum in PostgreSQL.
type Status string

const (
	StatusSubmitted     Status = "SUBMITTED"
	StatusInterview     Status = "INTERVIEW"
	StatusAccepted      Status = "ACCEPTED"
	StatusHired         Status = "HIRED"
	StatusOfferDeclined Status = "OFFER_DECLINED"
	StatusRejected      Status = "REJECTED"
)

// FinalStatus values mirror the final_status enum in PostgreSQL.
type FinalStatus string

const (
	FinalPending       FinalStatus = "PENDING"
	FinalHired         FinalStatus = "HIRED"
	FinalOfferDeclined FinalStatus = "OFFER_DECLINED"
	FinalRejected      FinalStatus = "REJECTED"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Status][]Status{
	StatusSubmitted: {StatusInterview, StatusRejected},
	StatusInterview: {StatusAccepted, StatusRejected},
	StatusAccepted:  {StatusHired, StatusOfferDeclined},
	// HIRED, OFFER_DECLINED and REJECTED are terminal — no outgoing transitions
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusSubmitted, StatusInterview, StatusAccepted, StatusHired, StatusOfferDeclined, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// ParseFinalStatus converts a raw string to a FinalStatus.
func ParseFinalStatus(s string) (FinalStatus, error) {
	fs := FinalStatus(s)
	switch fs {
	case FinalPending, FinalHired, FinalOfferDeclined, FinalRejected:
		return fs, nil
	}
	return "", fmt.Errorf("unknown final status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by
// the state machine.
func IsTransitionAllowed(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false // terminal state — no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the stage has no outgoing transitions.
func IsTerminal(s Status) bool {
	_, ok := validTransitions[s]
	return !ok
}

// FinalOutcomeFor maps a terminal pipeline stage to the final status it
// writes. Non-terminal stages have no outcome.
func FinalOutcomeFor(s Status) (FinalStatus, bool) {
	switch s {
	case StatusHired:
		return FinalHired, true
	case StatusOfferDeclined:
		return FinalOfferDeclined, true
	case StatusRejected:
		return FinalRejected, true
	}
	return "", false
}
