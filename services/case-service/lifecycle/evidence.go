package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/pkg/events"
	"cybercrime-portal/pkg/integrity"
	"cybercrime-portal/services/case-service/models"
)

// EvidenceMeta describes an upload. When Content is set the hash and size
// are computed from it; otherwise Hash and FileSize are trusted as declared.
type EvidenceMeta struct {
	Type        catalog.EvidenceType
	FileName    string
	FileSize    int64
	ContentType string
	Description string
	Hash        string
	StorageKey  string
	Content     []byte
}

// Validate checks meta in place, filling Hash and FileSize from Content,
// then applies the size bound of the declared type.
func (meta *EvidenceMeta) Validate() error {
	if err := meta.validateFields(); err != nil {
		return err
	}
	if !meta.Type.WithinLimit(meta.FileSize) {
		return &SizeLimitExceededError{Type: meta.Type, Size: meta.FileSize, Limit: meta.Type.MaxSize()}
	}
	return nil
}

func (meta *EvidenceMeta) validateFields() error {
	verr := &ValidationError{}

	if !meta.Type.Valid() {
		verr.Add("type", "evidence_type", "is not a known evidence type")
	}
	meta.FileName = strings.TrimSpace(meta.FileName)
	if meta.FileName == "" {
		verr.Add("file_name", "required", "is required")
	}

	meta.Hash = strings.ToLower(strings.TrimSpace(meta.Hash))
	if meta.Content != nil {
		size := int64(len(meta.Content))
		if meta.FileSize == 0 {
			meta.FileSize = size
		} else if meta.FileSize != size {
			verr.Add("file_size", "mismatch", "does not match the uploaded content")
		}
		sum := integrity.Bytes(meta.Content)
		if meta.Hash != "" && meta.Hash != sum {
			verr.Add("hash", "mismatch", "does not match the uploaded content")
		}
		meta.Hash = sum
	} else if !integrity.IsDigest(meta.Hash) {
		verr.Add("hash", "sha256", "must be a hex SHA-256 digest")
	}

	if meta.FileSize <= 0 {
		verr.Add("file_size", "gt", "must be greater than 0")
	}
	return verr.OrNil()
}

func (m *Manager) canHandleEvidence(c *models.CrimeCase, actor Actor) bool {
	if actor.can(catalog.PermManageEvidence) {
		return true
	}
	if actor.ID == "" {
		return false
	}
	if c.ReporterID == actor.ID && actor.can(catalog.PermUploadEvidence) {
		return true
	}
	return c.AssignedOfficerID == actor.ID
}

func (m *Manager) checkUpload(c *models.CrimeCase, actor Actor) error {
	if !m.canHandleEvidence(c, actor) {
		return &AuthorizationError{Permission: catalog.PermUploadEvidence}
	}
	if IsTerminal(c.Status) {
		return &InvalidStateError{Status: c.Status, Operation: "attach evidence to"}
	}
	return nil
}

// AuthorizeUpload reports whether actor could attach evidence to caseID
// right now. Transports call it before storing file bytes.
func (m *Manager) AuthorizeUpload(ctx context.Context, caseID string, actor Actor) error {
	c, err := m.store.Get(ctx, caseID)
	if err != nil {
		return err
	}
	return m.checkUpload(c, actor)
}

// AttachEvidence appends an evidence item to a case, opening its chain of
// custody with the upload record. Identical hashes are flagged through
// DuplicateOf, never rejected.
func (m *Manager) AttachEvidence(ctx context.Context, caseID string, meta EvidenceMeta, actor Actor) (*models.Evidence, error) {
	if err := meta.Validate(); err != nil {
		var serr *SizeLimitExceededError
		if errors.As(err, &serr) {
			evidenceRejected.WithLabelValues(string(meta.Type), "size_limit").Inc()
		}
		return nil, err
	}

	var added models.Evidence
	c, err := m.mutate(ctx, caseID, func(c *models.CrimeCase, now time.Time) error {
		if err := m.checkUpload(c, actor); err != nil {
			return err
		}

		at := touch(c, now)
		ev := models.Evidence{
			ID:          m.newID(),
			CaseID:      c.ID,
			Type:        meta.Type,
			FileName:    meta.FileName,
			FileSize:    meta.FileSize,
			ContentType: meta.ContentType,
			StorageKey:  meta.StorageKey,
			UploadedBy:  actor.ID,
			UploadedAt:  at,
			Description: strings.TrimSpace(meta.Description),
			Hash:        meta.Hash,
		}
		for _, prior := range c.Evidence {
			if prior.Hash == ev.Hash {
				ev.DuplicateOf = prior.ID
				break
			}
		}
		appendCustody(&ev, models.ChainOfCustodyEntry{
			ID:        m.newID(),
			UserID:    actor.ID,
			Action:    catalog.CustodyUploaded,
			Timestamp: at,
			IPAddress: actor.IPAddress,
			Notes:     "initial upload",
		})

		c.Evidence = append(c.Evidence, ev)
		added = ev.Clone()
		return nil
	})
	if err != nil {
		var authErr *AuthorizationError
		var stateErr *InvalidStateError
		if errors.As(err, &authErr) || errors.As(err, &stateErr) {
			evidenceRejected.WithLabelValues(string(meta.Type), "refused").Inc()
		}
		return nil, err
	}

	evidenceAttached.WithLabelValues(string(added.Type)).Inc()
	custodyEvents.WithLabelValues(string(catalog.CustodyUploaded)).Inc()
	entry := m.log.WithCase(caseID).WithFields(logrus.Fields{
		"evidence_id": added.ID,
		"type":        added.Type,
		"size":        added.FileSize,
	})
	if added.DuplicateOf != "" {
		entry = entry.WithField("duplicate_of", added.DuplicateOf)
	}
	entry.Info("Evidence attached")

	ev := caseEvent(events.EvidenceAdded, c, actor, added.UploadedAt)
	ev.EvidenceID = added.ID
	ev.EvidenceType = added.Type
	m.publish(ctx, ev)
	return &added, nil
}

// RecordCustodyEvent appends one entry to an evidence item's chain of
// custody. Prior entries are never touched. The upload action is reserved
// for the entry AttachEvidence writes.
func (m *Manager) RecordCustodyEvent(ctx context.Context, evidenceID string, action catalog.CustodyAction, notes string, actor Actor) (models.ChainOfCustodyEntry, error) {
	if !actor.can(catalog.PermViewEvidence, catalog.PermManageEvidence) {
		return models.ChainOfCustodyEntry{}, &AuthorizationError{Permission: catalog.PermViewEvidence}
	}
	switch {
	case !action.Valid():
		return models.ChainOfCustodyEntry{}, InvalidField("action", "custody_action", "is not a known custody action")
	case action == catalog.CustodyUploaded:
		return models.ChainOfCustodyEntry{}, InvalidField("action", "reserved", "uploaded is recorded only when evidence is attached")
	}

	caseID, err := m.store.CaseIDForEvidence(ctx, evidenceID)
	if err != nil {
		return models.ChainOfCustodyEntry{}, err
	}

	var recorded models.ChainOfCustodyEntry
	_, err = m.mutate(ctx, caseID, func(c *models.CrimeCase, now time.Time) error {
		ev := c.EvidenceByID(evidenceID)
		if ev == nil {
			return ErrEvidenceNotFound
		}
		at := touch(c, now)
		// Entries stay in call order even if the wall clock steps back.
		if n := len(ev.ChainOfCustody); n > 0 && at.Before(ev.ChainOfCustody[n-1].Timestamp) {
			at = ev.ChainOfCustody[n-1].Timestamp
		}
		recorded = appendCustody(ev, models.ChainOfCustodyEntry{
			ID:        m.newID(),
			UserID:    actor.ID,
			Action:    action,
			Timestamp: at,
			IPAddress: actor.IPAddress,
			Notes:     strings.TrimSpace(notes),
		})
		return nil
	})
	if err != nil {
		return models.ChainOfCustodyEntry{}, err
	}

	custodyEvents.WithLabelValues(string(action)).Inc()
	m.log.WithCase(caseID).WithFields(logrus.Fields{
		"evidence_id": evidenceID,
		"action":      action,
		"actor":       actor.ID,
	}).Info("Custody event recorded")
	return recorded, nil
}

// VerifyEvidence marks evidence verified. Verifying twice is a no-op.
func (m *Manager) VerifyEvidence(ctx context.Context, evidenceID string, actor Actor) (*models.Evidence, error) {
	if !actor.can(catalog.PermViewEvidence, catalog.PermManageEvidence) {
		return nil, &AuthorizationError{Permission: catalog.PermViewEvidence}
	}

	caseID, err := m.store.CaseIDForEvidence(ctx, evidenceID)
	if err != nil {
		return nil, err
	}

	var verified models.Evidence
	c, err := m.mutate(ctx, caseID, func(c *models.CrimeCase, now time.Time) error {
		ev := c.EvidenceByID(evidenceID)
		if ev == nil {
			return ErrEvidenceNotFound
		}
		if ev.IsVerified {
			verified = ev.Clone()
			return errUnchanged
		}
		at := touch(c, now)
		ev.IsVerified = true
		ev.VerifiedBy = actor.ID
		ev.VerifiedAt = &at
		verified = ev.Clone()
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return &verified, nil
	}
	if err != nil {
		return nil, err
	}

	m.log.WithCase(caseID).WithField("evidence_id", evidenceID).Info("Evidence verified")
	ev := caseEvent(events.EvidenceVerified, c, actor, *verified.VerifiedAt)
	ev.EvidenceID = verified.ID
	ev.EvidenceType = verified.Type
	m.publish(ctx, ev)
	return &verified, nil
}

// GetEvidence returns one evidence item. Evidence is visible to the reporter,
// the assigned officer and evidence-handling roles, even on public cases.
func (m *Manager) GetEvidence(ctx context.Context, evidenceID string, actor Actor) (*models.Evidence, error) {
	caseID, err := m.store.CaseIDForEvidence(ctx, evidenceID)
	if err != nil {
		return nil, err
	}
	c, err := m.store.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}

	allowed := actor.can(catalog.PermViewEvidence, catalog.PermManageEvidence) ||
		(actor.ID != "" && (c.ReporterID == actor.ID || c.AssignedOfficerID == actor.ID))
	if !allowed {
		return nil, &AuthorizationError{Permission: catalog.PermViewEvidence}
	}

	ev := c.EvidenceByID(evidenceID)
	if ev == nil {
		return nil, ErrEvidenceNotFound
	}
	out := ev.Clone()
	return &out, nil
}
