package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/services/case-service/lifecycle"
	"cybercrime-portal/services/case-service/models"
)

func TestBuildFilter_Empty(t *testing.T) {
	assert.Equal(t, bson.M{}, buildFilter(lifecycle.Filter{}))
}

func TestBuildFilter_AllCriteria(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	got := buildFilter(lifecycle.Filter{
		FilterOptions: lifecycle.FilterOptions{
			Statuses:          []catalog.CaseStatus{catalog.StatusSubmitted, catalog.StatusUnderReview},
			Categories:        []catalog.CrimeCategory{catalog.CategoryPhishing},
			Severities:        []catalog.Severity{catalog.SeverityCritical},
			Priorities:        []catalog.Priority{catalog.PriorityUrgent},
			ReportedFrom:      &from,
			ReportedTo:        &to,
			AssignedOfficerID: "officer-1",
			Search:            " Bank.com ",
		},
		VisibleTo: "citizen-1",
	})

	assert.Equal(t, bson.M{"$in": []catalog.CaseStatus{catalog.StatusSubmitted, catalog.StatusUnderReview}}, got["status"])
	assert.Equal(t, bson.M{"$in": []catalog.CrimeCategory{catalog.CategoryPhishing}}, got["category"])
	assert.Equal(t, bson.M{"$in": []catalog.Severity{catalog.SeverityCritical}}, got["severity"])
	assert.Equal(t, bson.M{"$in": []catalog.Priority{catalog.PriorityUrgent}}, got["priority"])
	assert.Equal(t, bson.M{"$gte": from, "$lte": to}, got["reported_date"])
	assert.Equal(t, "officer-1", got["assigned_officer_id"])

	and, ok := got["$and"].([]bson.M)
	require.True(t, ok)
	require.Len(t, and, 2)
	assert.Equal(t, bson.M{"$or": bson.A{
		bson.M{"reporter_id": "citizen-1"},
		bson.M{"is_public": true},
	}}, and[0])
	assert.Equal(t, bson.M{"$or": bson.A{
		bson.M{"title": primitive.Regex{Pattern: `bank\.com`, Options: "i"}},
		bson.M{"description": primitive.Regex{Pattern: `bank\.com`, Options: "i"}},
		bson.M{"tags": "bank.com"},
	}}, and[1])
}

func TestBuildFilter_OpenEndedRange(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	got := buildFilter(lifecycle.Filter{FilterOptions: lifecycle.FilterOptions{ReportedFrom: &from}})
	assert.Equal(t, bson.M{"reported_date": bson.M{"$gte": from}}, got)
}

func TestCaseDocument_RoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 15, 123000000, time.UTC)
	loss := 99.5
	verified := now.Add(time.Minute)
	c := &models.CrimeCase{
		ID:           "8c6f8a0e-2a51-4c1b-9d41-5b1c1f1d0e10",
		ReporterID:   "citizen-1",
		Title:        "Bank login page clone",
		Category:     catalog.CategoryPhishing,
		Severity:     catalog.SeverityHigh,
		Priority:     catalog.PriorityHigh,
		Status:       catalog.StatusInvestigating,
		Location:     models.Location{Country: "ID", State: "JB", City: "Bandung", Coordinates: &models.Coordinates{Lat: -6.9, Lng: 107.6}},
		IncidentDate: now.Add(-48 * time.Hour),
		ReportedDate: now,
		LastUpdated:  now,
		Evidence: []models.Evidence{{
			ID:         "ev-1",
			CaseID:     "8c6f8a0e-2a51-4c1b-9d41-5b1c1f1d0e10",
			Type:       catalog.EvidenceScreenshot,
			Hash:       "ab",
			IsVerified: true,
			VerifiedAt: &verified,
			ChainOfCustody: []models.ChainOfCustodyEntry{
				{ID: "cc-1", Action: catalog.CustodyUploaded, Timestamp: now, Hash: "h1"},
			},
		}},
		Communications: []models.Communication{},
		Tags:           []string{"bank"},
		EstimatedLoss:  &loss,
		StatusHistory:  []models.StatusChange{{From: catalog.StatusSubmitted, To: catalog.StatusUnderReview, ChangedAt: now}},
	}

	raw, err := bson.Marshal(c)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, c.ID, doc["_id"])
	assert.NotContains(t, doc, "chain_of_custody")
	assert.Contains(t, doc, "evidence")

	var back models.CrimeCase
	require.NoError(t, bson.Unmarshal(raw, &back))
	assert.Equal(t, c.ID, back.ID)
	assert.True(t, c.ReportedDate.Equal(back.ReportedDate))
	require.Len(t, back.Evidence, 1)
	assert.Equal(t, c.Evidence[0].ChainOfCustody[0].Hash, back.Evidence[0].ChainOfCustody[0].Hash)
	assert.True(t, c.Evidence[0].ChainOfCustody[0].Timestamp.Equal(back.Evidence[0].ChainOfCustody[0].Timestamp))
	assert.Equal(t, loss, *back.EstimatedLoss)
}
