package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/pkg/events"
)

func baseEvent(typ string) events.CaseEvent {
	return events.CaseEvent{
		ID:                "ev-1",
		Type:              typ,
		CaseID:            "case-1",
		Title:             "Bank login page clone",
		Category:          catalog.CategoryPhishing,
		Severity:          catalog.SeverityHigh,
		Priority:          catalog.PriorityHigh,
		Status:            catalog.StatusSubmitted,
		ReporterID:        "citizen-1",
		AssignedOfficerID: "officer-1",
		ActorID:           "admin-1",
		OccurredAt:        time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

type addressed struct {
	user     string
	audience catalog.UserRole
	typ      catalog.NotificationType
}

func addresses(ns []Notification) []addressed {
	out := make([]addressed, 0, len(ns))
	for _, n := range ns {
		out = append(out, addressed{n.UserID, n.Audience, n.Type})
	}
	return out
}

func TestFromEvent(t *testing.T) {
	tests := []struct {
		name   string
		event  func() events.CaseEvent
		expect []addressed
	}{
		{
			name: "CaseCreated",
			event: func() events.CaseEvent {
				ev := baseEvent(events.CaseCreated)
				ev.ActorID, ev.AssignedOfficerID = "citizen-1", ""
				return ev
			},
			expect: []addressed{{"", catalog.RoleLawEnforcement, catalog.NotificationCaseUpdate}},
		},
		{
			name: "StatusChangedByAdmin",
			event: func() events.CaseEvent {
				ev := baseEvent(events.CaseStatusChanged)
				ev.PreviousStatus, ev.Status = catalog.StatusSubmitted, catalog.StatusUnderReview
				return ev
			},
			expect: []addressed{
				{"citizen-1", "", catalog.NotificationCaseUpdate},
				{"officer-1", "", catalog.NotificationCaseUpdate},
			},
		},
		{
			name:  "Assigned",
			event: func() events.CaseEvent { return baseEvent(events.CaseAssigned) },
			expect: []addressed{
				{"officer-1", "", catalog.NotificationAssignment},
				{"citizen-1", "", catalog.NotificationCaseUpdate},
			},
		},
		{
			name: "PriorityChangedUnassigned",
			event: func() events.CaseEvent {
				ev := baseEvent(events.CasePriorityChanged)
				ev.AssignedOfficerID = ""
				return ev
			},
			expect: []addressed{{"", catalog.RoleLawEnforcement, catalog.NotificationPriorityChange}},
		},
		{
			name: "EvidenceByReporter",
			event: func() events.CaseEvent {
				ev := baseEvent(events.EvidenceAdded)
				ev.ActorID, ev.EvidenceType = "citizen-1", catalog.EvidenceScreenshot
				return ev
			},
			expect: []addressed{{"officer-1", "", catalog.NotificationEvidenceUploaded}},
		},
		{
			name: "MessageToReporter",
			event: func() events.CaseEvent {
				ev := baseEvent(events.CommunicationSent)
				ev.ActorID, ev.RecipientID = "officer-1", "citizen-1"
				return ev
			},
			expect: []addressed{{"citizen-1", "", catalog.NotificationMessageReceived}},
		},
		{
			name:   "UnknownType",
			event:  func() events.CaseEvent { return baseEvent("case.archived") },
			expect: []addressed{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, addresses(FromEvent(tt.event())))
		})
	}
}

func TestFromEvent_Fields(t *testing.T) {
	ev := baseEvent(events.CaseStatusChanged)
	ev.Priority = catalog.PriorityUrgent
	ev.PreviousStatus, ev.Status = catalog.StatusInvestigating, catalog.StatusResolved

	ns := FromEvent(ev)
	require.Len(t, ns, 2)
	assert.Equal(t, "ev-1-0", ns[0].ID)
	assert.Equal(t, "ev-1-1", ns[1].ID)
	assert.True(t, ns[0].Urgent)
	assert.Equal(t, "case-1", ns[0].CaseID)
	assert.Equal(t, ev.OccurredAt, ns[0].CreatedAt)
	assert.Contains(t, ns[0].Message, "Resolved")
	assert.Contains(t, ns[1].Message, "Investigating")
}
