// internal/app/store/submissions/submissionstore.go
package submissionstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/academyhub/internal/app/system/paging"
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

var ErrDuplicateSubmission = errors.New("a submission for this task already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("task_submissions")}
}

// Create inserts sub. A second submission by the same user for the same
// task yields ErrDuplicateSubmission.
func (s *Store) Create(ctx context.Context, sub models.TaskSubmission) (models.TaskSubmission, error) {
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	if sub.UpdatedAt.IsZero() {
		sub.UpdatedAt = sub.SubmittedAt
	}
	if _, err := s.c.InsertOne(ctx, sub); err != nil {
		if wafflemongo.IsDup(err) {
			return models.TaskSubmission{}, ErrDuplicateSubmission
		}
		return models.TaskSubmission{}, err
	}
	return sub, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.TaskSubmission, error) {
	var sub models.TaskSubmission
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sub); err != nil {
		return models.TaskSubmission{}, err
	}
	return sub, nil
}

// GetByUserTask returns the user's submission for the task, or
// mongo.ErrNoDocuments.
func (s *Store) GetByUserTask(ctx context.Context, userID, taskID primitive.ObjectID) (models.TaskSubmission, error) {
	var sub models.TaskSubmission
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID, "task_id": taskID}).Decode(&sub); err != nil {
		return models.TaskSubmission{}, err
	}
	return sub, nil
}

// ToggleApproval atomically negates is_approved and returns the updated
// submission. approved_at is set when the result is approved and removed
// otherwise.
func (s *Store) ToggleApproval(ctx context.Context, id primitive.ObjectID, now time.Time) (models.TaskSubmission, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "is_approved", Value: bson.D{{Key: "$not", Value: bson.A{"$is_approved"}}}},
			{Key: "updated_at", Value: now},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "approved_at", Value: bson.D{{Key: "$cond", Value: bson.A{"$is_approved", now, "$$REMOVE"}}}},
		}}},
	}
	var sub models.TaskSubmission
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&sub); err != nil {
		return models.TaskSubmission{}, err
	}
	return sub, nil
}

// SetScore records the reviewer's score.
func (s *Store) SetScore(ctx context.Context, id primitive.ObjectID, score float64, now time.Time) (models.TaskSubmission, error) {
	var sub models.TaskSubmission
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"score":      score,
		"updated_at": now,
	}}, opts).Decode(&sub)
	if err != nil {
		return models.TaskSubmission{}, err
	}
	return sub, nil
}

// ListByTask returns one page of the task's submissions, oldest first,
// and the total count.
func (s *Store) ListByTask(ctx context.Context, taskID primitive.ObjectID, p paging.Params) ([]models.TaskSubmission, int64, error) {
	filter := bson.M{"task_id": taskID}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	find := options.Find()
	p.ApplyToFind(find, "submitted_at", 1)
	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	out := []models.TaskSubmission{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListApprovedByTasks returns the approved submissions for the given tasks.
func (s *Store) ListApprovedByTasks(ctx context.Context, taskIDs []primitive.ObjectID) ([]models.TaskSubmission, error) {
	if len(taskIDs) == 0 {
		return []models.TaskSubmission{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{
		"task_id":     bson.M{"$in": taskIDs},
		"is_approved": true,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.TaskSubmission{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
