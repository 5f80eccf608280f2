package lifecycle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dustin/go-humanize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/pkg/events"
	"cybercrime-portal/pkg/integrity"
)

func TestAttachEvidence(t *testing.T) {
	h := newHarness(t)
	c := h.createCase(t)

	content := []byte("PNG screenshot bytes")
	ev, err := h.m.AttachEvidence(context.Background(), c.ID, EvidenceMeta{
		Type:        catalog.EvidenceScreenshot,
		FileName:    "  login-page.png ",
		ContentType: "image/png",
		Content:     content,
	}, citizen)
	require.NoError(t, err)

	assert.Equal(t, c.ID, ev.CaseID)
	assert.Equal(t, "login-page.png", ev.FileName)
	assert.Equal(t, int64(len(content)), ev.FileSize)
	assert.Equal(t, integrity.Bytes(content), ev.Hash)
	assert.False(t, ev.IsVerified)
	assert.Empty(t, ev.DuplicateOf)

	require.Len(t, ev.ChainOfCustody, 1)
	first := ev.ChainOfCustody[0]
	assert.Equal(t, catalog.CustodyUploaded, first.Action)
	assert.Equal(t, citizen.ID, first.UserID)
	assert.Equal(t, citizen.IPAddress, first.IPAddress)
	assert.Empty(t, first.PrevHash)
	assert.True(t, integrity.IsDigest(first.Hash))

	stored, err := h.store.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, stored.Evidence, 1)
	assert.Equal(t, *ev, stored.Evidence[0])
	assert.True(t, stored.LastUpdated.After(c.LastUpdated))

	assert.Equal(t, []string{events.CaseCreated, events.EvidenceAdded}, h.events.types())
	assert.Equal(t, ev.ID, h.events.events[1].EvidenceID)
}

func TestAttachEvidence_SizeLimits(t *testing.T) {
	h := newHarness(t)
	c := h.createCase(t)
	ctx := context.Background()
	twelveMB := int64(12 * humanize.MByte)

	_, err := h.m.AttachEvidence(ctx, c.ID, screenshotMeta(twelveMB), citizen)
	var serr *SizeLimitExceededError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, catalog.EvidenceScreenshot, serr.Type)
	assert.Equal(t, twelveMB, serr.Size)
	assert.Equal(t, uint64(10*humanize.MByte), serr.Limit)
	assert.Contains(t, serr.Error(), "10 MB")

	doc := screenshotMeta(twelveMB)
	doc.Type = catalog.EvidenceDocument
	doc.FileName = "statement.pdf"
	_, err = h.m.AttachEvidence(ctx, c.ID, doc, citizen)
	require.NoError(t, err)

	for _, typ := range []catalog.EvidenceType{
		catalog.EvidenceScreenshot, catalog.EvidenceVideo, catalog.EvidenceEmail, catalog.EvidenceOther,
	} {
		meta := screenshotMeta(int64(typ.MaxSize()))
		meta.Type = typ
		_, err := h.m.AttachEvidence(ctx, c.ID, meta, citizen)
		assert.NoError(t, err, "%s exactly at bound", typ)

		meta.FileSize++
		_, err = h.m.AttachEvidence(ctx, c.ID, meta, citizen)
		assert.ErrorAs(t, err, &serr, "%s one byte over", typ)
	}

	stored, err := h.store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Evidence, 5)
}

func TestAttachEvidence_InvalidMeta(t *testing.T) {
	h := newHarness(t)
	c := h.createCase(t)

	_, err := h.m.AttachEvidence(context.Background(), c.ID, EvidenceMeta{
		Type:     "hologram",
		FileName: " ",
		Hash:     "not-a-digest",
	}, citizen)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	for _, f := range []string{"type", "file_name", "hash", "file_size"} {
		assert.True(t, verr.Has(f), f)
	}

	meta := screenshotMeta(0)
	meta.Content = []byte("abc")
	meta.Hash = strings.Repeat("0", 64)
	_, err = h.m.AttachEvidence(context.Background(), c.ID, meta, citizen)
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("hash"))

	meta = screenshotMeta(10)
	meta.Content = []byte("abc")
	meta.Hash = ""
	_, err = h.m.AttachEvidence(context.Background(), c.ID, meta, citizen)
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("file_size"))

	upper := screenshotMeta(10)
	upper.Hash = strings.ToUpper(upper.Hash)
	ev, err := h.m.AttachEvidence(context.Background(), c.ID, upper, citizen)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ab", 32), ev.Hash)
}

func TestAttachEvidence_Authorization(t *testing.T) {
	h := newHarness(t)
	c := h.createCase(t)
	ctx := context.Background()
	stranger := NewActor("citizen-2", catalog.RoleCitizen, "")

	_, err := h.m.AttachEvidence(ctx, c.ID, screenshotMeta(10), stranger)
	var aerr *AuthorizationError
	require.ErrorAs(t, err, &aerr)

	// An unassigned officer holds no evidence capability on this case.
	_, err = h.m.AttachEvidence(ctx, c.ID, screenshotMeta(10), officer)
	require.ErrorAs(t, err, &aerr)

	_, err = h.m.AssignOfficer(ctx, c.ID, officer.ID, admin)
	require.NoError(t, err)
	_, err = h.m.AttachEvidence(ctx, c.ID, screenshotMeta(10), officer)
	assert.NoError(t, err)

	_, err = h.m.AttachEvidence(ctx, c.ID, screenshotMeta(10), admin)
	assert.NoError(t, err)
}

func TestAttachEvidence_TerminalCase(t *testing.T) {
	h := newHarness(t)
	c := h.createCase(t)
	h.advance(t, c.ID, catalog.StatusRejected)

	_, err := h.m.AttachEvidence(context.Background(), c.ID, screenshotMeta(10), citizen)
	var serr *InvalidStateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, catalog.StatusRejected, serr.Status)
}

func TestAttachEvidence_DuplicateIsAdvisory(t *testing.T) {
	h := newHarness(t)
	c := h.createCase(t)
	ctx := context.Background()

	first, err := h.m.AttachEvidence(ctx, c.ID, screenshotMeta(10), citizen)
	require.NoError(t, err)
	second, err := h.m.AttachEvidence(ctx, c.ID, screenshotMeta(10), citizen)
	require.NoError(t, err)
	third, err := h.m.AttachEvidence(ctx, c.ID, screenshotMeta(10), citizen)
	require.NoError(t, err)

	assert.Empty(t, first.DuplicateOf)
	assert.Equal(t, first.ID, second.DuplicateOf)
	assert.Equal(t, first.ID, third.DuplicateOf)

	stored, err := h.store.Get(ctx, c.ID)
	require.NoError(t, err)
	ids := []string{stored.Evidence[0].ID, stored.Evidence[1].ID, stored.Evidence[2].ID}
	assert.Equal(t, []string{first.ID, second.ID, third.ID}, ids)
}

func TestRecordCustodyEvent_AppendOnly(t *testing.T) {
	h := newHarness(t)
	c := h.createCase(t)
	ctx := context.Background()

	ev, err := h.m.AttachEvidence(ctx, c.ID, screenshotMeta(10), citizen)
	require.NoError(t, err)
	original := ev.ChainOfCustody[0]

	actions := []catalog.CustodyAction{
		catalog.CustodyAccessed,
		catalog.CustodyAnalyzed,
		catalog.CustodyTransferred,
		catalog.CustodyModified,
		catalog.CustodyAccessed,
	}
	var recorded []string
	for i, a := range actions {
		actor := officer
		if i%2 == 1 {
			actor = admin
		}
		entry, err := h.m.RecordCustodyEvent(ctx, ev.ID, a, "step", actor)
		require.NoError(t, err)
		recorded = append(recorded, entry.ID)

		got, err := h.m.GetEvidence(ctx, ev.ID, officer)
		require.NoError(t, err)
		require.Len(t, got.ChainOfCustody, i+2)
		assert.Equal(t, original, got.ChainOfCustody[0])
	}

	got, err := h.m.GetEvidence(ctx, ev.ID, officer)
	require.NoError(t, err)
	require.Len(t, got.ChainOfCustody, len(actions)+1)
	for i, a := range actions {
		entry := got.ChainOfCustody[i+1]
		assert.Equal(t, a, entry.Action)
		assert.Equal(t, recorded[i], entry.ID)
		assert.Equal(t, got.ChainOfCustody[i].Hash, entry.PrevHash)
		assert.False(t, entry.Timestamp.Before(got.ChainOfCustody[i].Timestamp))
	}

	res := VerifyCustodyChain(got)
	assert.True(t, res.Valid, res.Reason)
	assert.Equal(t, -1, res.BrokenAt)
	assert.Equal(t, len(actions)+1, res.Entries)
}

func TestRecordCustodyEvent_Errors(t *testing.T) {
	h := newHarness(t)
	c := h.createCase(t)
	ctx := context.Background()
	ev, err := h.m.AttachEvidence(ctx, c.ID, screenshotMeta(10), citizen)
	require.NoError(t, err)

	_, err = h.m.RecordCustodyEvent(ctx, ev.ID, catalog.CustodyAccessed, "", citizen)
	var aerr *AuthorizationError
	assert.ErrorAs(t, err, &aerr)

	_, err = h.m.RecordCustodyEvent(ctx, ev.ID, catalog.CustodyUploaded, "", officer)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "reserved", verr.Fields[0].Rule)

	_, err = h.m.RecordCustodyEvent(ctx, ev.ID, catalog.CustodyAction("shredded"), "", officer)
	assert.ErrorAs(t, err, &verr)

	_, err = h.m.RecordCustodyEvent(ctx, "missing", catalog.CustodyAccessed, "", officer)
	assert.True(t, errors.Is(err, ErrEvidenceNotFound))

	got, err := h.m.GetEvidence(ctx, ev.ID, officer)
	require.NoError(t, err)
	assert.Len(t, got.ChainOfCustody, 1)
}

func TestVerifyEvidence_Idempotent(t *testing.T) {
	h := newHarness(t)
	c := h.createCase(t)
	ctx := context.Background()
	ev, err := h.m.AttachEvidence(ctx, c.ID, screenshotMeta(10), citizen)
	require.NoError(t, err)

	_, err = h.m.VerifyEvidence(ctx, ev.ID, citizen)
	var aerr *AuthorizationError
	require.ErrorAs(t, err, &aerr)

	first, err := h.m.VerifyEvidence(ctx, ev.ID, officer)
	require.NoError(t, err)
	assert.True(t, first.IsVerified)
	assert.Equal(t, officer.ID, first.VerifiedBy)
	require.NotNil(t, first.VerifiedAt)

	again, err := h.m.VerifyEvidence(ctx, ev.ID, admin)
	require.NoError(t, err)
	assert.True(t, again.IsVerified)
	assert.Equal(t, officer.ID, again.VerifiedBy)
	assert.Equal(t, *first.VerifiedAt, *again.VerifiedAt)
	assert.Len(t, again.ChainOfCustody, 1)

	assert.Equal(t, []string{events.CaseCreated, events.EvidenceAdded, events.EvidenceVerified}, h.events.types())
}

func TestGetEvidence_Visibility(t *testing.T) {
	h := newHarness(t)
	form := validForm()
	form.IsPublic = true
	c, err := h.m.CreateCase(context.Background(), form, citizen)
	require.NoError(t, err)
	ev, err := h.m.AttachEvidence(context.Background(), c.ID, screenshotMeta(10), citizen)
	require.NoError(t, err)

	_, err = h.m.GetEvidence(context.Background(), ev.ID, citizen)
	assert.NoError(t, err)

	stranger := NewActor("citizen-2", catalog.RoleCitizen, "")
	_, err = h.m.GetEvidence(context.Background(), ev.ID, stranger)
	var aerr *AuthorizationError
	assert.ErrorAs(t, err, &aerr)

	got, err := h.m.GetEvidence(context.Background(), ev.ID, admin)
	require.NoError(t, err)
	got.ChainOfCustody[0].Notes = "tampered"

	again, err := h.m.GetEvidence(context.Background(), ev.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, "initial upload", again.ChainOfCustody[0].Notes)
}

func TestEvidenceMeta_Validate(t *testing.T) {
	meta := screenshotMeta(int64(10 * humanize.MByte))
	require.NoError(t, meta.Validate())

	meta = screenshotMeta(int64(10*humanize.MByte) + 1)
	var sizeErr *SizeLimitExceededError
	require.ErrorAs(t, meta.Validate(), &sizeErr)
	assert.Equal(t, uint64(10*humanize.MByte), sizeErr.Limit)

	meta = screenshotMeta(0)
	meta.Type = "hologram"
	var verr *ValidationError
	require.ErrorAs(t, meta.Validate(), &verr)
	assert.True(t, verr.Has("type"))
	assert.True(t, verr.Has("file_size"))
}

func TestAuthorizeUpload(t *testing.T) {
	h := newHarness(t)
	c := h.createCase(t)
	ctx := context.Background()
	stranger := NewActor("citizen-2", catalog.RoleCitizen, "")

	assert.NoError(t, h.m.AuthorizeUpload(ctx, c.ID, citizen))
	assert.NoError(t, h.m.AuthorizeUpload(ctx, c.ID, admin))

	var authErr *AuthorizationError
	assert.ErrorAs(t, h.m.AuthorizeUpload(ctx, c.ID, stranger), &authErr)
	assert.ErrorIs(t, h.m.AuthorizeUpload(ctx, "missing", citizen), ErrCaseNotFound)

	h.advance(t, c.ID, catalog.StatusRejected)
	var stateErr *InvalidStateError
	assert.ErrorAs(t, h.m.AuthorizeUpload(ctx, c.ID, citizen), &stateErr)
}
