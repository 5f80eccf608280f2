package lifecycle

import "cybercrime-portal/pkg/catalog"

// Backward edges do not exist: a reopened dispute is filed as a new case.
// Closure always goes through resolved.
var transitions = map[catalog.CaseStatus][]catalog.CaseStatus{
	catalog.StatusSubmitted:     {catalog.StatusUnderReview, catalog.StatusRejected},
	catalog.StatusUnderReview:   {catalog.StatusInvestigating},
	catalog.StatusInvestigating: {catalog.StatusResolved, catalog.StatusRejected},
	catalog.StatusResolved:      {catalog.StatusClosed},
}

// CanTransition reports whether from -> to is a permitted edge.
func CanTransition(from, to catalog.CaseStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s catalog.CaseStatus) []catalog.CaseStatus {
	return append([]catalog.CaseStatus{}, transitions[s]...)
}

// IsTerminal reports whether work on a case in status s has ended.
// A resolved case can still be closed administratively.
func IsTerminal(s catalog.CaseStatus) bool {
	switch s {
	case catalog.StatusResolved, catalog.StatusClosed, catalog.StatusRejected:
		return true
	}
	return false
}
