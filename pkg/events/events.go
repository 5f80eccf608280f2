package events

import (
	"time"

	"cybercrime-portal/pkg/catalog"
)

// Exchange is the topic exchange every case event is published on.
const Exchange = "cases"

// Routing keys. Consumers bind with patterns such as "case.*" or "#".
const (
	CaseCreated         = "case.created"
	CaseStatusChanged   = "case.status_changed"
	CaseAssigned        = "case.assigned"
	CasePriorityChanged = "case.priority_changed"
	EvidenceAdded       = "evidence.added"
	EvidenceVerified    = "evidence.verified"
	CommunicationSent   = "communication.sent"
)

// CaseEvent is the message body published for every lifecycle change.
// Type doubles as the routing key.
type CaseEvent struct {
	ID                string                `json:"id"`
	Type              string                `json:"type"`
	CaseID            string                `json:"case_id"`
	Title             string                `json:"title,omitempty"`
	Category          catalog.CrimeCategory `json:"category,omitempty"`
	Severity          catalog.Severity      `json:"severity,omitempty"`
	Priority          catalog.Priority      `json:"priority,omitempty"`
	Status            catalog.CaseStatus    `json:"status,omitempty"`
	PreviousStatus    catalog.CaseStatus    `json:"previous_status,omitempty"`
	PreviousPriority  catalog.Priority      `json:"previous_priority,omitempty"`
	ReporterID        string                `json:"reporter_id"`
	AssignedOfficerID string                `json:"assigned_officer_id,omitempty"`
	ActorID           string                `json:"actor_id"`
	EvidenceID        string                `json:"evidence_id,omitempty"`
	EvidenceType      catalog.EvidenceType  `json:"evidence_type,omitempty"`
	CommunicationID   string                `json:"communication_id,omitempty"`
	RecipientID       string                `json:"recipient_id,omitempty"`
	OccurredAt        time.Time             `json:"occurred_at"`
}
