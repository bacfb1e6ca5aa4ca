// internal/domain/models/submission.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskSubmission is a student's single submission for a task.
// Exactly one document per (user_id, task_id).
//
// Screenshots hold opaque evidence references (storage keys); the core
// never reads the underlying bytes.
type TaskSubmission struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	TaskID      primitive.ObjectID `bson:"task_id" json:"task_id"`
	WeekID      primitive.ObjectID `bson:"week_id" json:"week_id"`
	Submission  string             `bson:"submission,omitempty" json:"submission,omitempty"`
	Screenshots []string           `bson:"screenshots,omitempty" json:"screenshots,omitempty"`
	SubmittedAt time.Time          `bson:"submitted_at" json:"submitted_at"`
	IsSubmitted bool               `bson:"is_submitted" json:"is_submitted"`
	IsLate      bool               `bson:"is_late" json:"is_late"`
	IsApproved  bool               `bson:"is_approved" json:"is_approved"`
	Score       float64            `bson:"score" json:"score"`
	ApprovedAt  *time.Time         `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
