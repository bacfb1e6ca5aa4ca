// internal/domain/models/cohort.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cohort is one training cycle.
//
// NOTE:
//   - StartDate is stored at 00:00:00.000 and EndDate at 23:59:59.000 of
//     their days in the academy timezone.
//   - Weeks and task types are separate collections keyed by cohort_id.
type Cohort struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Batch     string             `bson:"batch" json:"batch"`
	Slug      string             `bson:"slug" json:"slug"`
	StartDate time.Time          `bson:"start_date" json:"start_date"`
	EndDate   time.Time          `bson:"end_date" json:"end_date"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// AcademicWeek is a ≤7-day slice of a cohort's date range.
// Exactly one document per (cohort_id, week_number).
type AcademicWeek struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	CohortID   primitive.ObjectID `bson:"cohort_id" json:"cohort_id"`
	WeekNumber int                `bson:"week_number" json:"week_number"`
	StartDate  time.Time          `bson:"start_date" json:"start_date"`
	EndDate    time.Time          `bson:"end_date" json:"end_date"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
