// internal/domain/models/attendance.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attendance records one user attending one task on one calendar day.
// Exactly one document per (user_id, task_id, date); immutable once written.
type Attendance struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	TaskID    primitive.ObjectID `bson:"task_id" json:"task_id"`
	WeekID    primitive.ObjectID `bson:"week_id" json:"week_id"`
	Date      time.Time          `bson:"date" json:"date"` // start of the calendar day
	Marked    bool               `bson:"marked" json:"marked"`
	IsLate    bool               `bson:"is_late" json:"is_late"`
	Score     float64            `bson:"score" json:"score"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
