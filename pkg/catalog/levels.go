package catalog

// Severity is the impact magnitude of an incident.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Priority is the triage urgency of a case. It is independent of Severity.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// CaseStatus is the lifecycle state of a case.
type CaseStatus string

const (
	StatusSubmitted     CaseStatus = "submitted"
	StatusUnderReview   CaseStatus = "under_review"
	StatusInvestigating CaseStatus = "investigating"
	StatusResolved      CaseStatus = "resolved"
	StatusClosed        CaseStatus = "closed"
	StatusRejected      CaseStatus = "rejected"
)

// LevelInfo is the display metadata shared by severities, priorities and statuses.
type LevelInfo struct {
	Label       string
	Description string
	Rank        int
}

var severities = map[Severity]LevelInfo{
	SeverityLow:      {Label: "Low", Description: "Minor impact, routine investigation", Rank: 1},
	SeverityMedium:   {Label: "Medium", Description: "Moderate impact, standard investigation", Rank: 2},
	SeverityHigh:     {Label: "High", Description: "Significant impact, priority investigation", Rank: 3},
	SeverityCritical: {Label: "Critical", Description: "Severe impact, immediate investigation required", Rank: 4},
}

var priorities = map[Priority]LevelInfo{
	PriorityLow:    {Label: "Low", Rank: 1},
	PriorityMedium: {Label: "Medium", Rank: 2},
	PriorityHigh:   {Label: "High", Rank: 3},
	PriorityUrgent: {Label: "Urgent", Rank: 4},
}

var statusOrder = []CaseStatus{
	StatusSubmitted,
	StatusUnderReview,
	StatusInvestigating,
	StatusResolved,
	StatusClosed,
	StatusRejected,
}

var statuses = map[CaseStatus]LevelInfo{
	StatusSubmitted:     {Label: "Submitted", Description: "Case has been submitted and awaiting review", Rank: 1},
	StatusUnderReview:   {Label: "Under Review", Description: "Case is being reviewed by law enforcement", Rank: 2},
	StatusInvestigating: {Label: "Investigating", Description: "Active investigation is in progress", Rank: 3},
	StatusResolved:      {Label: "Resolved", Description: "Case has been successfully resolved", Rank: 4},
	StatusClosed:        {Label: "Closed", Description: "Case has been closed", Rank: 5},
	StatusRejected:      {Label: "Rejected", Description: "Case has been rejected due to insufficient information", Rank: 6},
}

// severity -> default triage priority
var defaultPriority = map[Severity]Priority{
	SeverityLow:      PriorityLow,
	SeverityMedium:   PriorityMedium,
	SeverityHigh:     PriorityHigh,
	SeverityCritical: PriorityUrgent,
}

func (s Severity) Valid() bool {
	_, ok := severities[s]
	return ok
}

func (s Severity) Info() LevelInfo { return severities[s] }

// Rank orders severities from 1 (low) to 4 (critical); unknown values rank 0.
func (s Severity) Rank() int { return severities[s].Rank }

func (p Priority) Valid() bool {
	_, ok := priorities[p]
	return ok
}

func (p Priority) Info() LevelInfo { return priorities[p] }

func (p Priority) Rank() int { return priorities[p].Rank }

func (s CaseStatus) Valid() bool {
	_, ok := statuses[s]
	return ok
}

func (s CaseStatus) Info() LevelInfo { return statuses[s] }

// DefaultPriority maps a severity to the triage priority a case gets when
// the reporter does not request one explicitly.
func DefaultPriority(s Severity) Priority {
	if p, ok := defaultPriority[s]; ok {
		return p
	}
	return PriorityMedium
}

// Severities returns every severity from lowest to highest.
func Severities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// Priorities returns every priority from lowest to highest.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

// Statuses returns every case status in lifecycle order.
func Statuses() []CaseStatus {
	out := make([]CaseStatus, len(statusOrder))
	copy(out, statusOrder)
	return out
}
