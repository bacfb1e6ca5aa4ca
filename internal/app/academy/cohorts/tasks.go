package cohorts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/academyhub/internal/app/academy/schedule"
	tasktypestore "github.com/dalemusser/academyhub/internal/app/store/tasktypes"
	"github.com/dalemusser/academyhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/academyhub/internal/app/system/normalize"
	"github.com/dalemusser/academyhub/internal/app/system/outcome"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// reservedTypeSlugs are the fixed columns of the weekly report.
var reservedTypeSlugs = map[string]bool{
	"user-id":       true,
	"name":          true,
	"matric-number": true,
	"total":         true,
}

// CreateTaskType adds a task type to the cohort. Task type names are
// unique system-wide (by slug) and may not shadow a report column.
func (s *Service) CreateTaskType(ctx context.Context, cohortID primitive.ObjectID, name string, requiresAttendance, requiresSubmissions bool) (models.TaskType, error) {
	name = normalize.Name(name)
	slug := normalize.Slug(name)
	if slug == "" {
		return models.TaskType{}, outcome.Invalidf("name must contain letters or digits")
	}
	if reservedTypeSlugs[slug] {
		return models.TaskType{}, outcome.Invalidf("%q is reserved for a report column", name)
	}
	if _, err := s.GetCohort(ctx, cohortID); err != nil {
		return models.TaskType{}, err
	}

	tt, err := s.types.Create(ctx, models.TaskType{
		ID:                  primitive.NewObjectID(),
		CohortID:            cohortID,
		Name:                name,
		Slug:                slug,
		RequiresAttendance:  requiresAttendance,
		RequiresSubmissions: requiresSubmissions,
		CreatedAt:           s.set.Now(),
	})
	if errors.Is(err, tasktypestore.ErrDuplicateSlug) {
		return models.TaskType{}, outcome.Conflictf("task type %q already exists", name)
	}
	if err != nil {
		return models.TaskType{}, outcome.Wrap(err, "create task type")
	}
	return tt, nil
}

// ListTaskTypes returns the cohort's task types in creation order.
func (s *Service) ListTaskTypes(ctx context.Context, cohortID primitive.ObjectID) ([]models.TaskType, error) {
	if _, err := s.GetCohort(ctx, cohortID); err != nil {
		return nil, err
	}
	list, err := s.types.ListByCohort(ctx, cohortID)
	if err != nil {
		return nil, outcome.Wrap(err, "list task types")
	}
	return list, nil
}

// CreateTaskInput describes a daily task.
type CreateTaskInput struct {
	WeekID         primitive.ObjectID
	TaskTypeID     primitive.ObjectID
	Title          string
	Description    string
	TaskLink       *string
	TaskScriptures *string
	DayOfWeek      int
	StartTime      time.Time
	EndTime        time.Time
	Activated      bool
}

// CreateDailyTask stores a task whose window lies inside its week:
// week.start <= start <= end <= week.end.
func (s *Service) CreateDailyTask(ctx context.Context, in CreateTaskInput) (models.DailyTask, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.DailyTask{}, outcome.Invalidf("title is required")
	}
	if in.DayOfWeek < 1 || in.DayOfWeek > schedule.DaysPerWeek {
		return models.DailyTask{}, outcome.Invalidf("day_of_week must be between 1 and 7")
	}

	week, err := s.GetWeek(ctx, in.WeekID)
	if err != nil {
		return models.DailyTask{}, err
	}
	tt, err := s.types.GetByID(ctx, in.TaskTypeID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DailyTask{}, outcome.NotFoundf("task type not found")
	}
	if err != nil {
		return models.DailyTask{}, outcome.Wrap(err, "load task type")
	}
	if tt.CohortID != week.CohortID {
		return models.DailyTask{}, outcome.BadRequestf("task type belongs to another cohort")
	}

	switch {
	case in.EndTime.Before(in.StartTime):
		return models.DailyTask{}, outcome.BadRequestf("start time must not be after end time")
	case in.StartTime.Before(week.StartDate), in.EndTime.After(week.EndDate):
		return models.DailyTask{}, outcome.BadRequestf("task window must lie within week %d", week.WeekNumber)
	}

	now := s.set.Now()
	task, err := s.tasks.Create(ctx, models.DailyTask{
		ID:             primitive.NewObjectID(),
		CohortID:       week.CohortID,
		WeekID:         week.ID,
		TaskTypeID:     tt.ID,
		Title:          title,
		Description:    htmlsanitize.Sanitize(in.Description),
		TaskLink:       trimPtr(in.TaskLink),
		TaskScriptures: trimPtr(in.TaskScriptures),
		DayOfWeek:      in.DayOfWeek,
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		Activated:      in.Activated,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return models.DailyTask{}, outcome.Wrap(err, "create task")
	}
	s.set.Logger.Info("task created",
		zap.String("task_id", task.ID.Hex()),
		zap.String("week_id", week.ID.Hex()),
		zap.Bool("activated", task.Activated))
	return task, nil
}

// SetTaskActivation shows or hides a task from students.
func (s *Service) SetTaskActivation(ctx context.Context, taskID primitive.ObjectID, activated bool) (models.DailyTask, error) {
	task, err := s.tasks.SetActivated(ctx, taskID, activated, s.set.Now())
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DailyTask{}, outcome.NotFoundf("task not found")
	}
	if err != nil {
		return models.DailyTask{}, outcome.Wrap(err, "set activation")
	}
	return task, nil
}

func (s *Service) GetTask(ctx context.Context, taskID primitive.ObjectID) (models.DailyTask, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DailyTask{}, outcome.NotFoundf("task not found")
	}
	if err != nil {
		return models.DailyTask{}, outcome.Wrap(err, "load task")
	}
	return task, nil
}

// ListWeekTasks returns the week's tasks by day and start time.
func (s *Service) ListWeekTasks(ctx context.Context, weekID primitive.ObjectID, activatedOnly bool) ([]models.DailyTask, error) {
	if _, err := s.GetWeek(ctx, weekID); err != nil {
		return nil, err
	}
	list, err := s.tasks.ListByWeek(ctx, weekID, activatedOnly)
	if err != nil {
		return nil, outcome.Wrap(err, "list tasks")
	}
	return list, nil
}

// TaskWindow is a task's window state at a given instant.
type TaskWindow struct {
	TaskID    primitive.ObjectID `json:"task_id"`
	State     schedule.Window    `json:"state"`
	StartTime time.Time          `json:"start_time"`
	EndTime   time.Time          `json:"end_time"`
	At        time.Time          `json:"at"`
}

// EvaluateTaskWindow classifies the clock's now against the task window.
func (s *Service) EvaluateTaskWindow(ctx context.Context, taskID primitive.ObjectID) (TaskWindow, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return TaskWindow{}, err
	}
	now := s.set.Now()
	return TaskWindow{
		TaskID:    task.ID,
		State:     schedule.EvaluateWindow(task.StartTime, task.EndTime, now),
		StartTime: task.StartTime,
		EndTime:   task.EndTime,
		At:        now,
	}, nil
}
