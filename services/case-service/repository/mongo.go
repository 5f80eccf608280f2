package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cybercrime-portal/services/case-service/lifecycle"
	"cybercrime-portal/services/case-service/models"
)

const casesCollection = "cases"

// MongoStore keeps one document per case; evidence, custody entries and
// communications are embedded so a case is always replaced as a whole.
type MongoStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(casesCollection), timeout: 5 * time.Second}
}

// EnsureIndexes creates the lookup indexes the store relies on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "evidence.id", Value: 1}}},
		{Keys: bson.D{{Key: "reporter_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "priority", Value: 1}}},
		{Keys: bson.D{{Key: "reported_date", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create case indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, c *models.CrimeCase) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.coll.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("insert case %s: %w", c.ID, err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*models.CrimeCase, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var c models.CrimeCase
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, lifecycle.ErrCaseNotFound
		}
		return nil, fmt.Errorf("find case %s: %w", id, err)
	}
	return &c, nil
}

func (s *MongoStore) Update(ctx context.Context, c *models.CrimeCase) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return fmt.Errorf("replace case %s: %w", c.ID, err)
	}
	if result.MatchedCount == 0 {
		return lifecycle.ErrCaseNotFound
	}
	return nil
}

func (s *MongoStore) CaseIDForEvidence(ctx context.Context, evidenceID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc struct {
		ID string `bson:"_id"`
	}
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	err := s.coll.FindOne(ctx, bson.M{"evidence.id": evidenceID}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", lifecycle.ErrEvidenceNotFound
		}
		return "", fmt.Errorf("find evidence %s: %w", evidenceID, err)
	}
	return doc.ID, nil
}

// List returns every matching case; ordering and paging are applied by the
// manager.
func (s *MongoStore) List(ctx context.Context, f lifecycle.Filter) ([]*models.CrimeCase, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := s.coll.Find(ctx, buildFilter(f))
	if err != nil {
		return nil, fmt.Errorf("find cases: %w", err)
	}
	defer cursor.Close(ctx)

	var cases []*models.CrimeCase
	if err := cursor.All(ctx, &cases); err != nil {
		return nil, fmt.Errorf("decode cases: %w", err)
	}
	return cases, nil
}

// buildFilter translates a list filter into a MongoDB query document.
func buildFilter(f lifecycle.Filter) bson.M {
	filter := bson.M{}
	var and []bson.M

	if f.VisibleTo != "" {
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"reporter_id": f.VisibleTo},
			bson.M{"is_public": true},
		}})
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if len(f.Categories) > 0 {
		filter["category"] = bson.M{"$in": f.Categories}
	}
	if len(f.Severities) > 0 {
		filter["severity"] = bson.M{"$in": f.Severities}
	}
	if len(f.Priorities) > 0 {
		filter["priority"] = bson.M{"$in": f.Priorities}
	}
	if f.ReportedFrom != nil || f.ReportedTo != nil {
		rng := bson.M{}
		if f.ReportedFrom != nil {
			rng["$gte"] = *f.ReportedFrom
		}
		if f.ReportedTo != nil {
			rng["$lte"] = *f.ReportedTo
		}
		filter["reported_date"] = rng
	}
	if f.AssignedOfficerID != "" {
		filter["assigned_officer_id"] = f.AssignedOfficerID
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
			bson.M{"tags": term},
		}})
	}

	if len(and) > 0 {
		filter["$and"] = and
	}
	return filter
}
