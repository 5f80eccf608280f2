package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/pkg/events"
	"cybercrime-portal/pkg/logger"
	"cybercrime-portal/services/case-service/models"
)

// OfficerDirectory resolves whether a user may be assigned to cases.
// *directory.Store satisfies it.
type OfficerDirectory interface {
	IsActiveOfficer(ctx context.Context, id string) (bool, error)
}

// errUnchanged lets a mutation report success without writing.
var errUnchanged = errors.New("unchanged")

// Manager owns case records: it validates input, enforces the status state
// machine and permissions, and keeps evidence custody chains append-only.
// Mutations on one case are serialized; different cases run in parallel.
type Manager struct {
	store     Store
	events    EventPublisher
	officers  OfficerDirectory
	validator *FormValidator
	locks     *caseLocks
	log       *logger.Logger
	clock     func() time.Time
	newID     func() string
}

type Option func(*Manager)

func WithPublisher(p EventPublisher) Option {
	return func(m *Manager) { m.events = p }
}

func WithOfficerDirectory(d OfficerDirectory) Option {
	return func(m *Manager) { m.officers = d }
}

func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.clock = now }
}

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		events:    nopPublisher{},
		validator: NewFormValidator(),
		locks:     newCaseLocks(),
		clock:     time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.New("case-service", "info")
	}
	return m
}

// now is UTC with millisecond precision so timestamps survive storage
// round trips unchanged.
func (m *Manager) now() time.Time {
	return m.clock().UTC().Truncate(time.Millisecond)
}

// touch bumps LastUpdated without ever moving it backwards.
func touch(c *models.CrimeCase, now time.Time) time.Time {
	if now.Before(c.LastUpdated) {
		now = c.LastUpdated
	}
	c.LastUpdated = now
	return now
}

// mutate loads caseID under its lock, applies fn and writes the result back.
// The lock is released before mutate returns, so callers publish events
// outside it.
func (m *Manager) mutate(ctx context.Context, caseID string, fn func(c *models.CrimeCase, now time.Time) error) (*models.CrimeCase, error) {
	unlock := m.locks.lock(caseID)
	defer unlock()

	c, err := m.store.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if err := fn(c, m.now()); err != nil {
		if errors.Is(err, errUnchanged) {
			return c, errUnchanged
		}
		return nil, err
	}

	if err := m.store.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("save case %s: %w", caseID, err)
	}
	return c, nil
}

func (m *Manager) publish(ctx context.Context, ev events.CaseEvent) {
	ev.ID = m.newID()
	if err := m.events.PublishEvent(ctx, ev.Type, ev); err != nil {
		m.log.WithCase(ev.CaseID).WithError(err).WithField("event", ev.Type).
			Warn("Case saved but failed to publish event")
		return
	}
	m.log.WithCase(ev.CaseID).WithField("event", ev.Type).Debug("Event published")
}

func caseEvent(typ string, c *models.CrimeCase, actor Actor, at time.Time) events.CaseEvent {
	return events.CaseEvent{
		Type:              typ,
		CaseID:            c.ID,
		Title:             c.Title,
		Category:          c.Category,
		Severity:          c.Severity,
		Priority:          c.Priority,
		Status:            c.Status,
		ReporterID:        c.ReporterID,
		AssignedOfficerID: c.AssignedOfficerID,
		ActorID:           actor.ID,
		OccurredAt:        at,
	}
}

// CreateCase validates form and files a new case owned by actor.
func (m *Manager) CreateCase(ctx context.Context, form models.CaseFormData, actor Actor) (*models.CrimeCase, error) {
	if err := actor.require(catalog.PermCreateCase); err != nil {
		return nil, err
	}

	now := m.now()
	if err := m.validator.Validate(&form, now); err != nil {
		return nil, err
	}

	priority := form.Priority
	if priority == "" {
		priority = catalog.DefaultPriority(form.Severity)
	}

	c := &models.CrimeCase{
		ID:             m.newID(),
		ReporterID:     actor.ID,
		Title:          form.Title,
		Description:    form.Description,
		Category:       form.Category,
		SubCategory:    form.SubCategory,
		Severity:       form.Severity,
		Priority:       priority,
		Status:         catalog.StatusSubmitted,
		Location:       form.Location,
		IncidentDate:   form.IncidentDate.UTC().Truncate(time.Millisecond),
		ReportedDate:   now,
		LastUpdated:    now,
		Evidence:       []models.Evidence{},
		Communications: []models.Communication{},
		Tags:           normalizeTags(form.Tags),
		EstimatedLoss:  form.EstimatedLoss,
		IPAddress:      form.IPAddress,
		Websites:       form.Websites,
		IsPublic:       form.IsPublic,
		StatusHistory:  []models.StatusChange{},
	}

	if err := m.store.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}

	casesCreated.WithLabelValues(string(c.Category), string(c.Severity)).Inc()
	m.log.WithCase(c.ID).WithFields(logrus.Fields{
		"category": c.Category,
		"severity": c.Severity,
		"priority": c.Priority,
	}).Info("Case created")

	m.publish(ctx, caseEvent(events.CaseCreated, c, actor, now))
	return c.Clone(), nil
}

// TransitionStatus moves a case along the status state machine.
func (m *Manager) TransitionStatus(ctx context.Context, caseID string, to catalog.CaseStatus, actor Actor, note string) (*models.CrimeCase, error) {
	if err := actor.require(catalog.PermUpdateCaseStatus); err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, InvalidField("status", "oneof", "is not a known case status")
	}

	var from catalog.CaseStatus
	c, err := m.mutate(ctx, caseID, func(c *models.CrimeCase, now time.Time) error {
		if !CanTransition(c.Status, to) {
			return &InvalidTransitionError{From: c.Status, To: to, Allowed: NextStatuses(c.Status)}
		}
		from = c.Status
		at := touch(c, now)
		c.StatusHistory = append(c.StatusHistory, models.StatusChange{
			From:      from,
			To:        to,
			ChangedBy: actor.ID,
			ChangedAt: at,
			Note:      strings.TrimSpace(note),
		})
		c.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}

	statusTransitions.WithLabelValues(string(from), string(to)).Inc()
	m.log.WithCase(caseID).WithFields(logrus.Fields{"from": from, "to": to, "actor": actor.ID}).Info("Case status changed")

	ev := caseEvent(events.CaseStatusChanged, c, actor, c.LastUpdated)
	ev.PreviousStatus = from
	m.publish(ctx, ev)
	return c, nil
}

// AssignOfficer sets the investigating officer of an open case.
func (m *Manager) AssignOfficer(ctx context.Context, caseID, officerID string, actor Actor) (*models.CrimeCase, error) {
	if err := actor.require(catalog.PermAssignCases); err != nil {
		return nil, err
	}
	officerID = strings.TrimSpace(officerID)
	if officerID == "" {
		return nil, InvalidField("officer_id", "required", "is required")
	}
	if m.officers != nil {
		ok, err := m.officers.IsActiveOfficer(ctx, officerID)
		if err != nil {
			return nil, fmt.Errorf("look up officer %s: %w", officerID, err)
		}
		if !ok {
			return nil, InvalidField("officer_id", "officer", "is not an active law enforcement officer")
		}
	}

	c, err := m.mutate(ctx, caseID, func(c *models.CrimeCase, now time.Time) error {
		if IsTerminal(c.Status) {
			return &InvalidStateError{Status: c.Status, Operation: "assign an officer to"}
		}
		c.AssignedOfficerID = officerID
		touch(c, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.WithCase(caseID).WithField("officer_id", officerID).Info("Officer assigned")
	m.publish(ctx, caseEvent(events.CaseAssigned, c, actor, c.LastUpdated))
	return c, nil
}

// UpdatePriority changes triage urgency. Priority never affects which status
// transitions are legal.
func (m *Manager) UpdatePriority(ctx context.Context, caseID string, p catalog.Priority, actor Actor) (*models.CrimeCase, error) {
	if err := actor.require(catalog.PermUpdateCaseStatus); err != nil {
		return nil, err
	}
	if !p.Valid() {
		return nil, InvalidField("priority", "priority", "must be one of low, medium, high, urgent")
	}

	var prev catalog.Priority
	c, err := m.mutate(ctx, caseID, func(c *models.CrimeCase, now time.Time) error {
		if IsTerminal(c.Status) {
			return &InvalidStateError{Status: c.Status, Operation: "reprioritize"}
		}
		if c.Priority == p {
			return errUnchanged
		}
		prev = c.Priority
		c.Priority = p
		touch(c, now)
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}

	ev := caseEvent(events.CasePriorityChanged, c, actor, c.LastUpdated)
	ev.PreviousPriority = prev
	m.publish(ctx, ev)
	return c, nil
}
