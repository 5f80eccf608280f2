package catalog

// CommunicationType classifies a message attached to a case.
type CommunicationType string

const (
	CommunicationMessage            CommunicationType = "message"
	CommunicationStatusUpdate       CommunicationType = "status_update"
	CommunicationEvidenceUpdate     CommunicationType = "evidence_update"
	CommunicationSystemNotification CommunicationType = "system_notification"
)

func (t CommunicationType) Valid() bool {
	switch t {
	case CommunicationMessage, CommunicationStatusUpdate, CommunicationEvidenceUpdate, CommunicationSystemNotification:
		return true
	}
	return false
}

// NotificationType classifies a user-facing alert.
type NotificationType string

const (
	NotificationCaseUpdate       NotificationType = "case_update"
	NotificationEvidenceUploaded NotificationType = "evidence_uploaded"
	NotificationMessageReceived  NotificationType = "message_received"
	NotificationAssignment       NotificationType = "assignment"
	NotificationPriorityChange   NotificationType = "priority_change"
	NotificationSystemAlert      NotificationType = "system_alert"
)

// EmailSettings are the per-user e-mail notification toggles.
type EmailSettings struct {
	CaseUpdates     bool `json:"case_updates"`
	EvidenceUploads bool `json:"evidence_uploads"`
	Assignments     bool `json:"assignments"`
	Messages        bool `json:"messages"`
}

// PushSettings are the per-user live (push) notification toggles.
type PushSettings struct {
	UrgentCases bool `json:"urgent_cases"`
	CaseUpdates bool `json:"case_updates"`
	Messages    bool `json:"messages"`
}

// NotificationSettings groups a user's delivery preferences.
type NotificationSettings struct {
	Email EmailSettings `json:"email"`
	Push  PushSettings  `json:"push"`
}

// DefaultNotificationSettings enables every channel.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Email: EmailSettings{CaseUpdates: true, EvidenceUploads: true, Assignments: true, Messages: true},
		Push:  PushSettings{UrgentCases: true, CaseUpdates: true, Messages: true},
	}
}

// AllowsPush reports whether a live notification of type t should reach a
// user with these settings. urgent marks notifications about urgent cases.
func (s NotificationSettings) AllowsPush(t NotificationType, urgent bool) bool {
	switch t {
	case NotificationMessageReceived:
		return s.Push.Messages
	case NotificationSystemAlert:
		return true
	}
	if urgent && s.Push.UrgentCases {
		return true
	}
	return s.Push.CaseUpdates
}
