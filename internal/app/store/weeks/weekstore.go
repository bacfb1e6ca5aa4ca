// internal/app/store/weeks/weekstore.go
package weekstore

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

var ErrDuplicateWeek = errors.New("this week number already exists for the cohort")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("academic_weeks")}
}

// InsertMany stores weeks in one ordered batch. A repeated
// (cohort_id, week_number) yields ErrDuplicateWeek.
func (s *Store) InsertMany(ctx context.Context, weeks []models.AcademicWeek) ([]models.AcademicWeek, error) {
	if len(weeks) == 0 {
		return weeks, nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, len(weeks))
	for i := range weeks {
		if weeks[i].ID.IsZero() {
			weeks[i].ID = primitive.NewObjectID()
		}
		if weeks[i].CreatedAt.IsZero() {
			weeks[i].CreatedAt = now
		}
		docs[i] = weeks[i]
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateWeek
		}
		return nil, err
	}
	return weeks, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.AcademicWeek, error) {
	var w models.AcademicWeek
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&w); err != nil {
		return models.AcademicWeek{}, err
	}
	return w, nil
}

// ListByCohort returns the cohort's weeks ordered by week number.
func (s *Store) ListByCohort(ctx context.Context, cohortID primitive.ObjectID) ([]models.AcademicWeek, error) {
	opts := options.Find().SetSort(bson.D{{Key: "week_number", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"cohort_id": cohortID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.AcademicWeek{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByCohort returns how many weeks the cohort has.
func (s *Store) CountByCohort(ctx context.Context, cohortID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"cohort_id": cohortID})
}

// Last returns the highest-numbered week. Returns mongo.ErrNoDocuments
// when the cohort has none.
func (s *Store) Last(ctx context.Context, cohortID primitive.ObjectID) (models.AcademicWeek, error) {
	var w models.AcademicWeek
	opts := options.FindOne().SetSort(bson.D{{Key: "week_number", Value: -1}})
	if err := s.c.FindOne(ctx, bson.M{"cohort_id": cohortID}, opts).Decode(&w); err != nil {
		return models.AcademicWeek{}, err
	}
	return w, nil
}

// Containing returns the week whose range includes t.
func (s *Store) Containing(ctx context.Context, cohortID primitive.ObjectID, t time.Time) (models.AcademicWeek, error) {
	var w models.AcademicWeek
	filter := bson.M{
		"cohort_id":  cohortID,
		"start_date": bson.M{"$lte": t},
		"end_date":   bson.M{"$gte": t},
	}
	if err := s.c.FindOne(ctx, filter).Decode(&w); err != nil {
		return models.AcademicWeek{}, err
	}
	return w, nil
}
