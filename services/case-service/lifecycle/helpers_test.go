package lifecycle

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/pkg/events"
	"cybercrime-portal/pkg/logger"
	"cybercrime-portal/services/case-service/models"
)

var (
	citizen = NewActor("citizen-1", catalog.RoleCitizen, "203.0.113.7")
	officer = NewActor("officer-1", catalog.RoleLawEnforcement, "10.0.0.5")
	admin   = NewActor("admin-1", catalog.RoleAdmin, "10.0.0.9")
)

// stepClock advances by one second on every reading.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.CaseEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, key string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev := payload.(events.CaseEvent)
	ev.Type = key
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeDirectory map[string]bool

func (d fakeDirectory) IsActiveOfficer(_ context.Context, id string) (bool, error) {
	return d[id], nil
}

type harness struct {
	m      *Manager
	store  *MemStore
	events *recordingPublisher
	clock  *stepClock
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		store:  NewMemStore(),
		events: &recordingPublisher{},
		clock:  &stepClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	opts = append([]Option{
		WithPublisher(h.events),
		WithClock(h.clock.Now),
		WithLogger(logger.NewWithWriter("case-service", "error", io.Discard)),
	}, opts...)
	h.m = NewManager(h.store, opts...)
	return h
}

func validForm() models.CaseFormData {
	loss := 1250.50
	return models.CaseFormData{
		Title:       "Bank login page clone harvesting passwords",
		Description: strings.Repeat("A cloned bank page asked for my credentials. ", 2),
		Category:    catalog.CategoryPhishing,
		SubCategory: "Website Phishing",
		Severity:    catalog.SeverityHigh,
		Location: models.Location{
			Country: "Indonesia",
			State:   "Jawa Barat",
			City:    "Bandung",
		},
		IncidentDate:  time.Date(2024, 2, 27, 18, 30, 0, 0, time.UTC),
		EstimatedLoss: &loss,
		IPAddress:     "198.51.100.23",
		Websites:      []string{"https://secure-bank-login.example.com", "secure-bank.example.net"},
		Tags:          []string{"Bank", " phishing ", "bank"},
	}
}

func (h *harness) createCase(t *testing.T) *models.CrimeCase {
	t.Helper()
	c, err := h.m.CreateCase(context.Background(), validForm(), citizen)
	require.NoError(t, err)
	return c
}

// advance walks c through the given statuses with the officer actor.
func (h *harness) advance(t *testing.T, caseID string, path ...catalog.CaseStatus) {
	t.Helper()
	for _, s := range path {
		_, err := h.m.TransitionStatus(context.Background(), caseID, s, officer, "")
		require.NoError(t, err, "transition to %s", s)
	}
}

func screenshotMeta(size int64) EvidenceMeta {
	return EvidenceMeta{
		Type:     catalog.EvidenceScreenshot,
		FileName: "login-page.png",
		FileSize: size,
		Hash:     strings.Repeat("ab", 32),
	}
}
