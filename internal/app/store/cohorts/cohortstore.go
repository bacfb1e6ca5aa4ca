// internal/app/store/cohorts/cohortstore.go
package cohortstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/academyhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateSlug = errors.New("a cohort with this name and batch already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("cohorts")}
}

// Create inserts c. A zero ID is assigned; zero timestamps are set to now.
func (s *Store) Create(ctx context.Context, c models.Cohort) (models.Cohort, error) {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Cohort{}, ErrDuplicateSlug
		}
		return models.Cohort{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Cohort, error) {
	var c models.Cohort
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Cohort{}, err
	}
	return c, nil
}

// List returns all cohorts, newest start date first.
func (s *Store) List(ctx context.Context) ([]models.Cohort, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Cohort{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExtendEnd moves the cohort's end date. Returns mongo.ErrNoDocuments if
// the cohort does not exist.
func (s *Store) ExtendEnd(ctx context.Context, id primitive.ObjectID, end, now time.Time) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"end_date":   end,
		"updated_at": now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
