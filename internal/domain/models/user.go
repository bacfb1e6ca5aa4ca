// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles understood by the role gates.
const (
	RoleSuperAdmin = "superadmin"
	RoleStudent    = "student"
)

// Account states. Disabled users cannot sign in.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// User represents superadmins and students.
//
// NOTE:
//   - MatricNumber is only meaningful for students; reports print it next
//     to the student's name.
//   - PasswordHash is never serialized to JSON.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName     string              `bson:"full_name" json:"full_name"`
	FullNameCI   string              `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string              `bson:"email" json:"email"`
	MatricNumber string              `bson:"matric_number,omitempty" json:"matric_number,omitempty"`
	Role         string              `bson:"role" json:"role"` // superadmin | student
	Status       string              `bson:"status,omitempty" json:"status,omitempty"`
	CohortID     *primitive.ObjectID `bson:"cohort_id,omitempty" json:"cohort_id,omitempty"`
	PasswordHash string              `bson:"password_hash,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
