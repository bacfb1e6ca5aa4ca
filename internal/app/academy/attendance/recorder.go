// Package attendance records at most one attendance per user, task and
// calendar day.
package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/academyhub/internal/app/academy"
	"github.com/dalemusser/academyhub/internal/app/academy/schedule"
	attendancestore "github.com/dalemusser/academyhub/internal/app/store/attendance"
	taskstore "github.com/dalemusser/academyhub/internal/app/store/dailytasks"
	"github.com/dalemusser/academyhub/internal/app/system/outcome"
	"github.com/dalemusser/academyhub/internal/app/system/paging"
	"github.com/dalemusser/academyhub/internal/app/system/txn"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Recorder struct {
	client  *mongo.Client
	tasks   *taskstore.Store
	records *attendancestore.Store
	set     academy.Settings
}

func New(db *mongo.Database, set academy.Settings) *Recorder {
	return &Recorder{
		client:  db.Client(),
		tasks:   taskstore.New(db),
		records: attendancestore.New(db),
		set:     set.WithDefaults(),
	}
}

// MarkAttendance records that userID attended taskID today.
//
// Lateness is always judged against the task's start day: marking on that
// day is on time, marking on a later day is late, and marking before it is
// rejected. A non-zero referenceDate must name the task's start day.
// Deactivated tasks are not found. A second mark for the same task on the
// same day is a conflict.
func (r *Recorder) MarkAttendance(ctx context.Context, userID, taskID primitive.ObjectID, referenceDate time.Time) (models.Attendance, error) {
	a, err := r.mark(ctx, userID, taskID, referenceDate)
	r.set.Metrics.Attendance(err)
	return a, err
}

func (r *Recorder) mark(ctx context.Context, userID, taskID primitive.ObjectID, referenceDate time.Time) (models.Attendance, error) {
	task, err := r.tasks.GetByID(ctx, taskID)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && !task.Activated) {
		return models.Attendance{}, outcome.NotFoundf("task not found")
	}
	if err != nil {
		return models.Attendance{}, outcome.Wrap(err, "load task")
	}

	if !referenceDate.IsZero() && !schedule.SameDay(referenceDate, task.StartTime, r.set.Location) {
		return models.Attendance{}, outcome.BadRequestf("reference date must be the task day")
	}
	now := r.set.Now()
	late, err := schedule.Lateness(task.StartTime, now, r.set.Location)
	if errors.Is(err, schedule.ErrBeforeWindow) {
		return models.Attendance{}, outcome.BadRequestf("attendance cannot be marked before the task day")
	}
	if err != nil {
		return models.Attendance{}, outcome.Wrap(err, "classify attendance")
	}
	today := schedule.StartOfDay(now, r.set.Location)

	score := r.set.Scores.OnTime
	if late {
		score = r.set.Scores.Late
	}
	rec := models.Attendance{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		TaskID:    task.ID,
		WeekID:    task.WeekID,
		Date:      today,
		Marked:    !late,
		IsLate:    late,
		Score:     score,
		CreatedAt: now,
	}

	err = txn.Run(ctx, r.client, func(ctx context.Context) error {
		exists, err := r.records.ExistsForDay(ctx, userID, task.ID, today)
		if err != nil {
			return err
		}
		if exists {
			return attendancestore.ErrDuplicateAttendance
		}
		_, err = r.records.Create(ctx, rec)
		return err
	})
	if errors.Is(err, attendancestore.ErrDuplicateAttendance) {
		return models.Attendance{}, outcome.Conflictf("attendance already marked for this task today")
	}
	if err != nil {
		return models.Attendance{}, outcome.Wrap(err, "mark attendance")
	}

	r.set.Logger.Debug("attendance marked",
		zap.String("user_id", userID.Hex()),
		zap.String("task_id", task.ID.Hex()),
		zap.Bool("late", late))
	return rec, nil
}

// ListAttendance returns one page of a task's attendance, oldest first.
func (r *Recorder) ListAttendance(ctx context.Context, taskID primitive.ObjectID, page, pageSize int) (paging.Page[models.Attendance], error) {
	if _, err := r.tasks.GetByID(ctx, taskID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return paging.Page[models.Attendance]{}, outcome.NotFoundf("task not found")
		}
		return paging.Page[models.Attendance]{}, outcome.Wrap(err, "load task")
	}

	p := paging.Normalize(page, pageSize)
	items, total, err := r.records.ListByTask(ctx, taskID, p)
	if err != nil {
		return paging.Page[models.Attendance]{}, outcome.Wrap(err, "list attendance")
	}
	return paging.Page[models.Attendance]{Items: items, Meta: paging.NewMeta(total, p)}, nil
}

// HasMarked reports whether the user has any attendance for the task.
func (r *Recorder) HasMarked(ctx context.Context, userID, taskID primitive.ObjectID) (bool, error) {
	ok, err := r.records.Exists(ctx, userID, taskID)
	if err != nil {
		return false, outcome.Wrap(err, "check attendance")
	}
	return ok, nil
}
