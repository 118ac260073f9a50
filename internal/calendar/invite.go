package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"hireflow/scheduling-service/internal/participants"
	"hireflow/scheduling-service/internal/schedule"
)

// Invite describes the confirmed interview to be placed on everyone's
// calendar.
type Invite struct {
	UID            string
	Summary        string
	Description    string
	Slot           schedule.Slot
	CandidateName  string
	CandidateEmail string
	Organizer      string
	Interviewers   []participants.Interviewer
}

// RenderInvite serializes the interview as an ICS VEVENT with
// METHOD:REQUEST and all participants as attendees. The resulting payload
// rides on the slot-confirmed notification; the mail gateway delivers it
// so each attendee's calendar client creates the event.
func RenderInvite(inv Invite, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodRequest)
	cal.SetProductId("-//hireflow//scheduling-service//EN")

	ev := cal.AddEvent(inv.UID)
	ev.SetDtStampTime(now.UTC())
	ev.SetCreatedTime(now.UTC())
	ev.SetStartAt(inv.Slot.Start)
	ev.SetEndAt(inv.Slot.End)
	ev.SetSummary(inv.Summary)
	if inv.Description != "" {
		ev.SetDescription(inv.Description)
	}
	if inv.Organizer != "" {
		ev.SetOrganizer(fmt.Sprintf("mailto:%s", inv.Organizer))
	}

	ev.AddAttendee(inv.CandidateEmail,
		ical.CalendarUserTypeIndividual,
		ical.ParticipationStatusNeedsAction,
		ical.ParticipationRoleReqParticipant,
		ical.WithRSVP(true),
		ical.WithCN(inv.CandidateName),
	)
	for _, iv := range inv.Interviewers {
		role := ical.ParticipationRoleReqParticipant
		if iv.Role == participants.RoleSecondary {
			role = ical.ParticipationRoleOptParticipant
		}
		ev.AddAttendee(iv.Email,
			ical.CalendarUserTypeIndividual,
			ical.ParticipationStatusNeedsAction,
			role,
			ical.WithRSVP(true),
			ical.WithCN(iv.Name),
		)
	}

	return cal.Serialize()
}
