package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures inserts records directly, bypassing the services.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc interface{}) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert test %s: %v", coll, err)
	}
}

// Day returns midnight UTC of the given date.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// At returns the given UTC instant.
func At(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

// CreateCohort inserts a cohort spanning [start, end].
func (f *Fixtures) CreateCohort(ctx context.Context, name string, start, end time.Time) models.Cohort {
	f.t.Helper()
	now := time.Now().UTC()
	c := models.Cohort{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Batch:     "A",
		Slug:      primitive.NewObjectID().Hex(),
		StartDate: start,
		EndDate:   end,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "cohorts", c)
	return c
}

// CreateWeek inserts an academic week. end is moved to 23:59:59 of its day.
func (f *Fixtures) CreateWeek(ctx context.Context, cohortID primitive.ObjectID, n int, start, end time.Time) models.AcademicWeek {
	f.t.Helper()
	y, m, d := end.UTC().Date()
	w := models.AcademicWeek{
		ID:         primitive.NewObjectID(),
		CohortID:   cohortID,
		WeekNumber: n,
		StartDate:  start,
		EndDate:    time.Date(y, m, d, 23, 59, 59, 0, time.UTC),
		CreatedAt:  time.Now().UTC(),
	}
	f.insert(ctx, "academic_weeks", w)
	return w
}

// CreateTaskType inserts a task type.
func (f *Fixtures) CreateTaskType(ctx context.Context, cohortID primitive.ObjectID, name string) models.TaskType {
	f.t.Helper()
	tt := models.TaskType{
		ID:                  primitive.NewObjectID(),
		CohortID:            cohortID,
		Name:                name,
		NameCI:              text.Fold(name),
		Slug:                primitive.NewObjectID().Hex(),
		RequiresAttendance:  true,
		RequiresSubmissions: true,
		CreatedAt:           time.Now().UTC(),
	}
	f.insert(ctx, "task_types", tt)
	return tt
}

// CreateTask inserts an activated daily task in week with the given window.
func (f *Fixtures) CreateTask(ctx context.Context, week models.AcademicWeek, taskType models.TaskType, title string, start, end time.Time) models.DailyTask {
	f.t.Helper()
	now := time.Now().UTC()
	dow := int(start.Weekday())
	if dow == 0 {
		dow = 7
	}
	task := models.DailyTask{
		ID:          primitive.NewObjectID(),
		CohortID:    week.CohortID,
		WeekID:      week.ID,
		TaskTypeID:  taskType.ID,
		Title:       title,
		Description: "Test task",
		DayOfWeek:   dow,
		StartTime:   start,
		EndTime:     end,
		Activated:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "daily_tasks", task)
	return task
}

// CreateUser inserts a user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateStudent inserts a student with a matric number.
func (f *Fixtures) CreateStudent(ctx context.Context, fullName, email, matric string) models.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        email,
		MatricNumber: matric,
		Role:         models.RoleStudent,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateSuperAdmin inserts a superadmin.
func (f *Fixtures) CreateSuperAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleSuperAdmin)
}
