package main

import (
	"fmt"
	"time"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/pkg/events"
)

// Notification is one alert addressed either to a single user or, when
// UserID is empty, to everyone holding Audience.
type Notification struct {
	ID        string                   `json:"id"`
	UserID    string                   `json:"user_id,omitempty"`
	Audience  catalog.UserRole         `json:"audience,omitempty"`
	Type      catalog.NotificationType `json:"type"`
	Title     string                   `json:"title"`
	Message   string                   `json:"message"`
	CaseID    string                   `json:"case_id"`
	Category  catalog.CrimeCategory    `json:"category,omitempty"`
	Priority  catalog.Priority         `json:"priority,omitempty"`
	Urgent    bool                     `json:"urgent"`
	CreatedAt time.Time                `json:"created_at"`
}

type recipients struct {
	ev  events.CaseEvent
	out []Notification
}

// to addresses a user, skipping the actor who caused the event.
func (r *recipients) to(userID string, typ catalog.NotificationType, title, msg string) {
	if userID == "" || userID == r.ev.ActorID {
		return
	}
	r.out = append(r.out, r.build(typ, title, msg, func(n *Notification) { n.UserID = userID }))
}

func (r *recipients) toRole(role catalog.UserRole, typ catalog.NotificationType, title, msg string) {
	r.out = append(r.out, r.build(typ, title, msg, func(n *Notification) { n.Audience = role }))
}

func (r *recipients) build(typ catalog.NotificationType, title, msg string, address func(*Notification)) Notification {
	n := Notification{
		ID:        fmt.Sprintf("%s-%d", r.ev.ID, len(r.out)),
		Type:      typ,
		Title:     title,
		Message:   msg,
		CaseID:    r.ev.CaseID,
		Category:  r.ev.Category,
		Priority:  r.ev.Priority,
		Urgent:    r.ev.Priority == catalog.PriorityUrgent,
		CreatedAt: r.ev.OccurredAt,
	}
	address(&n)
	return n
}

// FromEvent turns a case event into the notifications it causes. Unknown
// event types produce none.
func FromEvent(ev events.CaseEvent) []Notification {
	r := &recipients{ev: ev}
	title := ev.Title

	switch ev.Type {
	case events.CaseCreated:
		r.to(ev.ReporterID, catalog.NotificationCaseUpdate, "Case received",
			fmt.Sprintf("Your report %q was submitted and is awaiting review.", title))
		r.toRole(catalog.RoleLawEnforcement, catalog.NotificationCaseUpdate, "New case reported",
			fmt.Sprintf("%s case %q reported with %s severity.", ev.Category, title, ev.Severity))

	case events.CaseStatusChanged:
		label := ev.Status.Info().Label
		r.to(ev.ReporterID, catalog.NotificationCaseUpdate, "Case status updated",
			fmt.Sprintf("Your case %q is now %s.", title, label))
		r.to(ev.AssignedOfficerID, catalog.NotificationCaseUpdate, "Case status updated",
			fmt.Sprintf("Case %q moved from %s to %s.", title, ev.PreviousStatus.Info().Label, label))

	case events.CaseAssigned:
		r.to(ev.AssignedOfficerID, catalog.NotificationAssignment, "New case assignment",
			fmt.Sprintf("You have been assigned case %q.", title))
		r.to(ev.ReporterID, catalog.NotificationCaseUpdate, "Investigator assigned",
			fmt.Sprintf("An investigator has been assigned to your case %q.", title))

	case events.CasePriorityChanged:
		msg := fmt.Sprintf("Case %q priority changed from %s to %s.", title, ev.PreviousPriority, ev.Priority)
		if ev.AssignedOfficerID != "" {
			r.to(ev.AssignedOfficerID, catalog.NotificationPriorityChange, "Priority changed", msg)
		} else {
			r.toRole(catalog.RoleLawEnforcement, catalog.NotificationPriorityChange, "Priority changed", msg)
		}

	case events.EvidenceAdded:
		msg := fmt.Sprintf("New %s evidence was added to case %q.", ev.EvidenceType.Info().Label, title)
		r.to(ev.AssignedOfficerID, catalog.NotificationEvidenceUploaded, "Evidence uploaded", msg)
		r.to(ev.ReporterID, catalog.NotificationEvidenceUploaded, "Evidence uploaded", msg)

	case events.EvidenceVerified:
		r.to(ev.ReporterID, catalog.NotificationCaseUpdate, "Evidence verified",
			fmt.Sprintf("Evidence on your case %q has been verified by an investigator.", title))

	case events.CommunicationSent:
		r.to(ev.RecipientID, catalog.NotificationMessageReceived, "New message",
			fmt.Sprintf("You have a new message about case %q.", title))
	}
	return r.out
}
