// internal/app/store/dailytasks/taskstore.go
package taskstore

import (
	"context"
	"time"

	"github.com/dalemusser/academyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("daily_tasks")}
}

func (s *Store) Create(ctx context.Context, t models.DailyTask) (models.DailyTask, error) {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.DailyTask{}, err
	}
	return t, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.DailyTask, error) {
	var t models.DailyTask
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.DailyTask{}, err
	}
	return t, nil
}

// SetActivated flips the task's visibility to students. Returns
// mongo.ErrNoDocuments if the task does not exist.
func (s *Store) SetActivated(ctx context.Context, id primitive.ObjectID, activated bool, now time.Time) (models.DailyTask, error) {
	var t models.DailyTask
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"activated":  activated,
		"updated_at": now,
	}}, opts).Decode(&t)
	if err != nil {
		return models.DailyTask{}, err
	}
	return t, nil
}

// ListByWeek returns the week's tasks ordered by day, then start time.
func (s *Store) ListByWeek(ctx context.Context, weekID primitive.ObjectID, activatedOnly bool) ([]models.DailyTask, error) {
	filter := bson.M{"week_id": weekID}
	if activatedOnly {
		filter["activated"] = true
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "day_of_week", Value: 1},
		{Key: "start_time", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.DailyTask{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
