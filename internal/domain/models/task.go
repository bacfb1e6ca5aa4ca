// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskType is a category of recurring task (e.g. "Devotional").
// The two Requires* flags tell callers which recorder applies; the
// recorders themselves accept both kinds of activity for any type.
type TaskType struct {
	ID                  primitive.ObjectID `bson:"_id" json:"id"`
	CohortID            primitive.ObjectID `bson:"cohort_id" json:"cohort_id"`
	Name                string             `bson:"name" json:"name"`
	NameCI              string             `bson:"name_ci" json:"-"`
	Slug                string             `bson:"slug" json:"slug"`
	RequiresAttendance  bool               `bson:"requires_attendance" json:"requires_attendance"`
	RequiresSubmissions bool               `bson:"requires_submissions" json:"requires_submissions"`
	CreatedAt           time.Time          `bson:"created_at" json:"created_at"`
}

// DailyTask is a time-windowed assignment inside one academic week.
// StartTime and EndTime are absolute instants that lie within the week.
type DailyTask struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	CohortID       primitive.ObjectID `bson:"cohort_id" json:"cohort_id"`
	WeekID         primitive.ObjectID `bson:"week_id" json:"week_id"`
	TaskTypeID     primitive.ObjectID `bson:"task_type_id" json:"task_type_id"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description" json:"description"`
	TaskLink       *string            `bson:"task_link,omitempty" json:"task_link,omitempty"`
	TaskScriptures *string            `bson:"task_scriptures,omitempty" json:"task_scriptures,omitempty"`
	DayOfWeek      int                `bson:"day_of_week" json:"day_of_week"` // 1..7
	StartTime      time.Time          `bson:"start_time" json:"start_time"`
	EndTime        time.Time          `bson:"end_time" json:"end_time"`
	Activated      bool               `bson:"activated" json:"activated"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
