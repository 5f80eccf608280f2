package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/services/case-service/models"
)

// Store persists whole case records. Implementations must return copies the
// caller may mutate freely and replace records atomically on Update.
type Store interface {
	Create(ctx context.Context, c *models.CrimeCase) error
	Get(ctx context.Context, id string) (*models.CrimeCase, error)
	Update(ctx context.Context, c *models.CrimeCase) error
	CaseIDForEvidence(ctx context.Context, evidenceID string) (string, error)
	List(ctx context.Context, f Filter) ([]*models.CrimeCase, error)
}

var errDuplicateCase = errors.New("case already exists")

// FilterOptions are the caller-controlled list criteria. Empty sets match
// everything.
type FilterOptions struct {
	Statuses          []catalog.CaseStatus
	Categories        []catalog.CrimeCategory
	Severities        []catalog.Severity
	Priorities        []catalog.Priority
	ReportedFrom      *time.Time
	ReportedTo        *time.Time
	AssignedOfficerID string
	Search            string
	Page              int
	Limit             int
}

// Filter is FilterOptions plus the visibility restriction the manager adds.
// When VisibleTo is set only that user's cases and public cases match.
type Filter struct {
	FilterOptions
	VisibleTo string
}

// Matches applies the filter to one case.
func (f Filter) Matches(c *models.CrimeCase) bool {
	if f.VisibleTo != "" && c.ReporterID != f.VisibleTo && !c.IsPublic {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, c.Status) {
		return false
	}
	if len(f.Categories) > 0 && !contains(f.Categories, c.Category) {
		return false
	}
	if len(f.Severities) > 0 && !contains(f.Severities, c.Severity) {
		return false
	}
	if len(f.Priorities) > 0 && !contains(f.Priorities, c.Priority) {
		return false
	}
	if f.ReportedFrom != nil && c.ReportedDate.Before(*f.ReportedFrom) {
		return false
	}
	if f.ReportedTo != nil && c.ReportedDate.After(*f.ReportedTo) {
		return false
	}
	if f.AssignedOfficerID != "" && c.AssignedOfficerID != f.AssignedOfficerID {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		if !strings.Contains(strings.ToLower(c.Title), term) &&
			!strings.Contains(strings.ToLower(c.Description), term) &&
			!contains(c.Tags, term) {
			return false
		}
	}
	return true
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// MemStore keeps cases in process memory.
type MemStore struct {
	mu       sync.RWMutex
	cases    map[string]*models.CrimeCase
	evidence map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		cases:    make(map[string]*models.CrimeCase),
		evidence: make(map[string]string),
	}
}

func (s *MemStore) Create(_ context.Context, c *models.CrimeCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cases[c.ID]; ok {
		return fmt.Errorf("%w: %s", errDuplicateCase, c.ID)
	}
	s.put(c)
	return nil
}

func (s *MemStore) Get(_ context.Context, id string) (*models.CrimeCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cases[id]
	if !ok {
		return nil, ErrCaseNotFound
	}
	return c.Clone(), nil
}

func (s *MemStore) Update(_ context.Context, c *models.CrimeCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cases[c.ID]; !ok {
		return ErrCaseNotFound
	}
	s.put(c)
	return nil
}

func (s *MemStore) CaseIDForEvidence(_ context.Context, evidenceID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.evidence[evidenceID]
	if !ok {
		return "", ErrEvidenceNotFound
	}
	return id, nil
}

func (s *MemStore) List(_ context.Context, f Filter) ([]*models.CrimeCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.CrimeCase, 0, len(s.cases))
	for _, c := range s.cases {
		if f.Matches(c) {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

// put stores a copy of c and indexes its evidence. Evidence never moves
// between cases, so the index only grows.
func (s *MemStore) put(c *models.CrimeCase) {
	stored := c.Clone()
	s.cases[c.ID] = stored
	for _, e := range stored.Evidence {
		s.evidence[e.ID] = stored.ID
	}
}
