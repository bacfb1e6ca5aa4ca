// internal/app/store/tasktypes/tasktypestore.go
package tasktypestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/academyhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateSlug = errors.New("a task type with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("task_types")}
}

func (s *Store) Create(ctx context.Context, tt models.TaskType) (models.TaskType, error) {
	if tt.ID.IsZero() {
		tt.ID = primitive.NewObjectID()
	}
	tt.NameCI = text.Fold(tt.Name)
	if tt.CreatedAt.IsZero() {
		tt.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, tt); err != nil {
		if wafflemongo.IsDup(err) {
			return models.TaskType{}, ErrDuplicateSlug
		}
		return models.TaskType{}, err
	}
	return tt, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.TaskType, error) {
	var tt models.TaskType
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&tt); err != nil {
		return models.TaskType{}, err
	}
	return tt, nil
}

// ListByCohort returns the cohort's task types in creation order.
func (s *Store) ListByCohort(ctx context.Context, cohortID primitive.ObjectID) ([]models.TaskType, error) {
	return s.find(ctx, bson.M{"cohort_id": cohortID})
}

// ListAll returns every task type in creation order. Report columns
// follow this order.
func (s *Store) ListAll(ctx context.Context) ([]models.TaskType, error) {
	return s.find(ctx, bson.M{})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.TaskType, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.TaskType{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
