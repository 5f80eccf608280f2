package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/services/case-service/models"
)

func TestGetCase_Visibility(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	private := h.createCase(t)

	form := validForm()
	form.IsPublic = true
	public, err := h.m.CreateCase(ctx, form, citizen)
	require.NoError(t, err)

	stranger := NewActor("citizen-2", catalog.RoleCitizen, "")

	_, err = h.m.GetCase(ctx, private.ID, citizen)
	assert.NoError(t, err)
	_, err = h.m.GetCase(ctx, private.ID, officer)
	assert.NoError(t, err)
	_, err = h.m.GetCase(ctx, private.ID, stranger)
	var aerr *AuthorizationError
	assert.ErrorAs(t, err, &aerr)
	_, err = h.m.GetCase(ctx, public.ID, stranger)
	assert.NoError(t, err)

	_, err = h.m.GetCase(ctx, "missing", officer)
	assert.True(t, errors.Is(err, ErrCaseNotFound))
}

func TestListCases_TriageOrderAndPaging(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	mk := func(sev catalog.Severity, p catalog.Priority) *models.CrimeCase {
		form := validForm()
		form.Severity = sev
		form.Priority = p
		c, err := h.m.CreateCase(ctx, form, citizen)
		require.NoError(t, err)
		return c
	}

	lowOld := mk(catalog.SeverityLow, catalog.PriorityLow)
	urgentMedium := mk(catalog.SeverityMedium, catalog.PriorityUrgent)
	highHigh := mk(catalog.SeverityHigh, catalog.PriorityHigh)
	urgentCritical := mk(catalog.SeverityCritical, catalog.PriorityUrgent)
	lowNew := mk(catalog.SeverityLow, catalog.PriorityLow)

	page, err := h.m.ListCases(ctx, FilterOptions{}, officer)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.Limit)

	var got []string
	for _, c := range page.Items {
		got = append(got, c.ID)
	}
	assert.Equal(t, []string{urgentCritical.ID, urgentMedium.ID, highHigh.ID, lowOld.ID, lowNew.ID}, got)

	page, err = h.m.ListCases(ctx, FilterOptions{Page: 2, Limit: 2}, officer)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, highHigh.ID, page.Items[0].ID)
	assert.Equal(t, lowOld.ID, page.Items[1].ID)

	page, err = h.m.ListCases(ctx, FilterOptions{Page: 9, Limit: 1000}, officer)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Limit)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
}

func TestListCases_HugePageIsEmpty(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		h.createCase(t)
	}

	for _, p := range []int{1 << 62, math.MaxInt} {
		page, err := h.m.ListCases(ctx, FilterOptions{Page: p, Limit: 20}, officer)
		require.NoError(t, err, "page %d", p)
		assert.Equal(t, 3, page.Total)
		assert.Empty(t, page.Items)
	}

	page, err := h.m.ListCases(ctx, FilterOptions{Page: 2, Limit: 3}, officer)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestListCases_Filters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.createCase(t)
	form := validForm()
	form.Category = catalog.CategoryRansomware
	form.SubCategory = "File Encryption"
	form.Title = "Files encrypted by ransomware overnight"
	b, err := h.m.CreateCase(ctx, form, citizen)
	require.NoError(t, err)
	h.advance(t, b.ID, catalog.StatusUnderReview)
	_, err = h.m.AssignOfficer(ctx, b.ID, officer.ID, admin)
	require.NoError(t, err)

	ids := func(opts FilterOptions) []string {
		page, err := h.m.ListCases(ctx, opts, officer)
		require.NoError(t, err)
		out := []string{}
		for _, c := range page.Items {
			out = append(out, c.ID)
		}
		return out
	}

	assert.Equal(t, []string{a.ID}, ids(FilterOptions{Statuses: []catalog.CaseStatus{catalog.StatusSubmitted}}))
	assert.Equal(t, []string{b.ID}, ids(FilterOptions{Categories: []catalog.CrimeCategory{catalog.CategoryRansomware}}))
	assert.Equal(t, []string{b.ID}, ids(FilterOptions{AssignedOfficerID: officer.ID}))
	assert.Equal(t, []string{b.ID}, ids(FilterOptions{Search: "ENCRYPTED"}))
	assert.Equal(t, []string{a.ID}, ids(FilterOptions{Search: "bank", Categories: []catalog.CrimeCategory{catalog.CategoryPhishing}}))

	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, ids(FilterOptions{ReportedFrom: &future}))

	_, err = h.m.ListCases(ctx, FilterOptions{Statuses: []catalog.CaseStatus{"archived"}}, officer)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = h.m.ListCases(ctx, FilterOptions{ReportedFrom: &future, ReportedTo: &past}, officer)
	assert.ErrorAs(t, err, &verr)
}

func TestListCases_CitizenSeesOwnAndPublic(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	other := NewActor("citizen-2", catalog.RoleCitizen, "")

	mine := h.createCase(t)
	theirs, err := h.m.CreateCase(ctx, validForm(), other)
	require.NoError(t, err)
	form := validForm()
	form.IsPublic = true
	theirsPublic, err := h.m.CreateCase(ctx, form, other)
	require.NoError(t, err)

	page, err := h.m.ListCases(ctx, FilterOptions{}, citizen)
	require.NoError(t, err)
	var got []string
	for _, c := range page.Items {
		got = append(got, c.ID)
	}
	assert.ElementsMatch(t, []string{mine.ID, theirsPublic.ID}, got)
	assert.NotContains(t, got, theirs.ID)

	_, err = h.m.ListCases(ctx, FilterOptions{}, Actor{Role: catalog.RoleCitizen, Permissions: catalog.RoleCitizen.Permissions()})
	var aerr *AuthorizationError
	assert.ErrorAs(t, err, &aerr)
}

func TestSummarize(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		h.createCase(t)
	}
	c := h.createCase(t)
	h.advance(t, c.ID, pathTo[catalog.StatusResolved]...)
	r := h.createCase(t)
	h.advance(t, r.ID, catalog.StatusRejected)

	_, err := h.m.Summarize(ctx, citizen)
	var aerr *AuthorizationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, catalog.PermViewAnalytics, aerr.Permission)

	s, err := h.m.Summarize(ctx, officer)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 3, s.Active)
	assert.Equal(t, 1, s.Resolved)
	assert.Equal(t, 3, s.ByStatus[catalog.StatusSubmitted])
	assert.Equal(t, 1, s.ByStatus[catalog.StatusRejected])
	assert.Equal(t, 5, s.ByCategory[catalog.CategoryPhishing])
	assert.Equal(t, 5, s.BySeverity[catalog.SeverityHigh])
	assert.Equal(t, 5, s.ByPriority[catalog.PriorityHigh], fmt.Sprint(s.ByPriority))
}
