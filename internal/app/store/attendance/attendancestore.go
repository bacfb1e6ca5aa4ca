// internal/app/store/attendance/attendancestore.go
package attendancestore

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

var ErrDuplicateAttendance = errors.New("attendance already marked for this task today")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("attendances")}
}

// Create inserts a. A second record for the same (user, task, date)
// yields ErrDuplicateAttendance.
func (s *Store) Create(ctx context.Context, a models.Attendance) (models.Attendance, error) {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Attendance{}, ErrDuplicateAttendance
		}
		return models.Attendance{}, err
	}
	return a, nil
}

// ExistsForDay reports whether the user already has a record for the
// task on day (start of day).
func (s *Store) ExistsForDay(ctx context.Context, userID, taskID primitive.ObjectID, day time.Time) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"user_id": userID,
		"task_id": taskID,
		"date":    day,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Exists reports whether the user has any attendance for the task.
func (s *Store) Exists(ctx context.Context, userID, taskID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"user_id": userID,
		"task_id": taskID,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByTask returns one page of the task's records, oldest first, and
// the total count.
func (s *Store) ListByTask(ctx context.Context, taskID primitive.ObjectID, p paging.Params) ([]models.Attendance, int64, error) {
	filter := bson.M{"task_id": taskID}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	find := options.Find()
	p.ApplyToFind(find, "created_at", 1)
	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	out := []models.Attendance{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListByTasks returns every record for the given tasks.
func (s *Store) ListByTasks(ctx context.Context, taskIDs []primitive.ObjectID) ([]models.Attendance, error) {
	if len(taskIDs) == 0 {
		return []models.Attendance{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"task_id": bson.M{"$in": taskIDs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Attendance{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
