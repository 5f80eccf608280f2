package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/pkg/events"
	"cybercrime-portal/services/case-service/models"
)

const maxMessageLength = 5000

// CommunicationInput is a message to post on a case. ToUserID defaults to
// the other party: the assigned officer for the reporter, the reporter for
// everyone else. An explicit recipient must be the reporter or the assigned
// officer; staff may also address any active officer when an officer
// directory is configured.
type CommunicationInput struct {
	ToUserID    string                    `json:"to_user_id"`
	Message     string                    `json:"message"`
	Type        catalog.CommunicationType `json:"type"`
	Attachments []string                  `json:"attachments"`
}

// AddCommunication appends a message to a case's communication log.
func (m *Manager) AddCommunication(ctx context.Context, caseID string, in CommunicationInput, actor Actor) (models.Communication, error) {
	in.Message = strings.TrimSpace(in.Message)
	if in.Type == "" {
		in.Type = catalog.CommunicationMessage
	}

	verr := &ValidationError{}
	switch {
	case in.Message == "":
		verr.Add("message", "required", "is required")
	case utf8.RuneCountInString(in.Message) > maxMessageLength:
		verr.Add("message", "max", "must be at most 5000 characters")
	}
	if !in.Type.Valid() {
		verr.Add("type", "communication_type", "is not a known communication type")
	}
	if err := verr.OrNil(); err != nil {
		return models.Communication{}, err
	}

	to := strings.TrimSpace(in.ToUserID)
	toOfficer := false
	if to != "" && m.officers != nil && actor.can(catalog.PermCommunicateWithReporter) {
		ok, err := m.officers.IsActiveOfficer(ctx, to)
		if err != nil {
			return models.Communication{}, fmt.Errorf("look up recipient %s: %w", to, err)
		}
		toOfficer = ok
	}

	var msg models.Communication
	c, err := m.mutate(ctx, caseID, func(c *models.CrimeCase, now time.Time) error {
		isReporter := actor.ID != "" && c.ReporterID == actor.ID
		if !isReporter && !actor.can(catalog.PermCommunicateWithReporter) {
			return &AuthorizationError{Permission: catalog.PermCommunicateWithReporter}
		}

		recipient := to
		switch {
		case recipient == "":
			if isReporter {
				recipient = c.AssignedOfficerID
			} else {
				recipient = c.ReporterID
			}
			if recipient == "" {
				return InvalidField("to_user_id", "required", "no officer is assigned to this case yet")
			}
		case recipient == c.ReporterID, recipient == c.AssignedOfficerID, toOfficer:
		default:
			return InvalidField("to_user_id", "case_party", "must be the reporter or the assigned officer")
		}

		msg = models.Communication{
			ID:          m.newID(),
			CaseID:      c.ID,
			FromUserID:  actor.ID,
			ToUserID:    recipient,
			Message:     in.Message,
			Timestamp:   touch(c, now),
			Type:        in.Type,
			Attachments: append([]string(nil), in.Attachments...),
		}
		c.Communications = append(c.Communications, msg)
		return nil
	})
	if err != nil {
		return models.Communication{}, err
	}

	ev := caseEvent(events.CommunicationSent, c, actor, msg.Timestamp)
	ev.CommunicationID = msg.ID
	ev.RecipientID = msg.ToUserID
	m.publish(ctx, ev)
	return msg, nil
}

// MarkCommunicationRead flags a message read. Only its recipient may do so.
func (m *Manager) MarkCommunicationRead(ctx context.Context, caseID, communicationID string, actor Actor) (models.Communication, error) {
	var msg models.Communication
	_, err := m.mutate(ctx, caseID, func(c *models.CrimeCase, now time.Time) error {
		for i := range c.Communications {
			cm := &c.Communications[i]
			if cm.ID != communicationID {
				continue
			}
			if actor.ID == "" || cm.ToUserID != actor.ID {
				return &AuthorizationError{Reason: "only the recipient can mark a message read"}
			}
			if cm.IsRead {
				msg = *cm
				return errUnchanged
			}
			cm.IsRead = true
			touch(c, now)
			msg = *cm
			return nil
		}
		return ErrCommunicationNotFound
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return models.Communication{}, err
	}
	return msg, nil
}

// AddSuspect records unverified suspect details on a case.
func (m *Manager) AddSuspect(ctx context.Context, caseID string, s models.Suspect, actor Actor) (models.Suspect, error) {
	s.Name = strings.TrimSpace(s.Name)
	s.Alias = strings.TrimSpace(s.Alias)
	s.Email = strings.TrimSpace(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Description = strings.TrimSpace(s.Description)
	if s.Name == "" && s.Alias == "" && s.Email == "" && s.Phone == "" && len(s.SocialMedia) == 0 {
		return models.Suspect{}, InvalidField("suspect", "identifier", "at least one of name, alias, email, phone or social media is required")
	}

	_, err := m.mutate(ctx, caseID, func(c *models.CrimeCase, now time.Time) error {
		isReporter := actor.ID != "" && c.ReporterID == actor.ID
		if !isReporter && !actor.can(catalog.PermCreateInvestigationNotes) {
			return &AuthorizationError{Permission: catalog.PermCreateInvestigationNotes}
		}
		if IsTerminal(c.Status) {
			return &InvalidStateError{Status: c.Status, Operation: "add a suspect to"}
		}

		s.ID = m.newID()
		s.IsVerified = false
		s.SocialMedia = append([]string(nil), s.SocialMedia...)
		s.KnownAddresses = append([]string(nil), s.KnownAddresses...)
		c.Suspects = append(c.Suspects, s)
		touch(c, now)
		return nil
	})
	if err != nil {
		return models.Suspect{}, err
	}
	return s, nil
}
