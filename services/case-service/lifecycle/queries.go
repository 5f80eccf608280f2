package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/services/case-service/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is one slice of a triage-ordered case listing.
type Page struct {
	Items []*models.CrimeCase `json:"items"`
	Total int                 `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

// Summary holds aggregate case counts.
type Summary struct {
	Total       int                           `json:"total"`
	Active      int                           `json:"active"`
	Resolved    int                           `json:"resolved"`
	ByStatus    map[catalog.CaseStatus]int    `json:"by_status"`
	ByCategory  map[catalog.CrimeCategory]int `json:"by_category"`
	BySeverity  map[catalog.Severity]int      `json:"by_severity"`
	ByPriority  map[catalog.Priority]int      `json:"by_priority"`
	GeneratedAt time.Time                     `json:"generated_at"`
}

func canViewCase(c *models.CrimeCase, actor Actor) bool {
	if actor.can(catalog.PermViewAllCases) || c.IsPublic {
		return true
	}
	return actor.ID != "" && c.ReporterID == actor.ID
}

// GetCase returns a case visible to actor. Redacting public views is left to
// the presentation layer.
func (m *Manager) GetCase(ctx context.Context, caseID string, actor Actor) (*models.CrimeCase, error) {
	c, err := m.store.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !canViewCase(c, actor) {
		return nil, &AuthorizationError{Permission: catalog.PermViewAllCases}
	}
	return c, nil
}

func (opts *FilterOptions) check() error {
	verr := &ValidationError{}
	for _, s := range opts.Statuses {
		if !s.Valid() {
			verr.Add("status", "status", fmt.Sprintf("%q is not a known case status", s))
		}
	}
	for _, c := range opts.Categories {
		if !c.Valid() {
			verr.Add("category", "crime_category", fmt.Sprintf("%q is not a known crime category", c))
		}
	}
	for _, s := range opts.Severities {
		if !s.Valid() {
			verr.Add("severity", "severity", fmt.Sprintf("%q is not a known severity", s))
		}
	}
	for _, p := range opts.Priorities {
		if !p.Valid() {
			verr.Add("priority", "priority", fmt.Sprintf("%q is not a known priority", p))
		}
	}
	if opts.ReportedFrom != nil && opts.ReportedTo != nil && opts.ReportedTo.Before(*opts.ReportedFrom) {
		verr.Add("reported_to", "gtefield", "must not be before reported_from")
	}

	if opts.Page < 1 {
		opts.Page = 1
	}
	switch {
	case opts.Limit <= 0:
		opts.Limit = DefaultPageSize
	case opts.Limit > MaxPageSize:
		opts.Limit = MaxPageSize
	}
	return verr.OrNil()
}

// sortTriage orders cases most urgent first: priority, then severity, then
// oldest report, then id for a stable order.
func sortTriage(cases []*models.CrimeCase) {
	sort.SliceStable(cases, func(i, j int) bool {
		a, b := cases[i], cases[j]
		if pa, pb := a.Priority.Rank(), b.Priority.Rank(); pa != pb {
			return pa > pb
		}
		if sa, sb := a.Severity.Rank(), b.Severity.Rank(); sa != sb {
			return sa > sb
		}
		if !a.ReportedDate.Equal(b.ReportedDate) {
			return a.ReportedDate.Before(b.ReportedDate)
		}
		return a.ID < b.ID
	})
}

// ListCases returns the cases matching opts in triage order. Actors without
// view_all_cases only see their own and public cases.
func (m *Manager) ListCases(ctx context.Context, opts FilterOptions, actor Actor) (Page, error) {
	if err := opts.check(); err != nil {
		return Page{}, err
	}

	f := Filter{FilterOptions: opts}
	if !actor.can(catalog.PermViewAllCases) {
		if actor.ID == "" {
			return Page{}, &AuthorizationError{Permission: catalog.PermViewOwnCases}
		}
		f.VisibleTo = actor.ID
	}

	cases, err := m.store.List(ctx, f)
	if err != nil {
		return Page{}, fmt.Errorf("list cases: %w", err)
	}
	sortTriage(cases)

	page := Page{Items: []*models.CrimeCase{}, Total: len(cases), Page: opts.Page, Limit: opts.Limit}
	// Compare page counts first: Page comes from the query string and
	// (Page-1)*Limit can overflow.
	if skip := opts.Page - 1; skip <= len(cases)/opts.Limit {
		start := skip * opts.Limit
		end := start + opts.Limit
		if end > len(cases) {
			end = len(cases)
		}
		page.Items = cases[start:end]
	}
	return page, nil
}

// Summarize counts cases by status, category, severity and priority.
func (m *Manager) Summarize(ctx context.Context, actor Actor) (Summary, error) {
	if err := actor.require(catalog.PermViewAnalytics); err != nil {
		return Summary{}, err
	}

	cases, err := m.store.List(ctx, Filter{})
	if err != nil {
		return Summary{}, fmt.Errorf("summarize cases: %w", err)
	}

	s := Summary{
		Total:       len(cases),
		ByStatus:    make(map[catalog.CaseStatus]int),
		ByCategory:  make(map[catalog.CrimeCategory]int),
		BySeverity:  make(map[catalog.Severity]int),
		ByPriority:  make(map[catalog.Priority]int),
		GeneratedAt: m.now(),
	}
	for _, c := range cases {
		s.ByStatus[c.Status]++
		s.ByCategory[c.Category]++
		s.BySeverity[c.Severity]++
		s.ByPriority[c.Priority]++
		switch c.Status {
		case catalog.StatusSubmitted, catalog.StatusUnderReview, catalog.StatusInvestigating:
			s.Active++
		case catalog.StatusResolved, catalog.StatusClosed:
			s.Resolved++
		}
	}
	return s, nil
}
