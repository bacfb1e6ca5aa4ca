package tasks_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/academyhub/internal/app/academy"
	"github.com/dalemusser/academyhub/internal/app/features/tasks"
	"github.com/dalemusser/academyhub/internal/app/system/clock"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/dalemusser/academyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	db   *mongo.Database
	h    *tasks.Handler
	week models.AcademicWeek
	tt   models.TaskType
}

func setup(t *testing.T, now time.Time) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateCohort(ctx, "Cohort", testutil.Day(2025, 1, 1), testutil.Day(2025, 1, 14))
	week := fx.CreateWeek(ctx, c.ID, 1, testutil.Day(2025, 1, 1), testutil.Day(2025, 1, 7))
	tt := fx.CreateTaskType(ctx, c.ID, "Devotional")

	h := tasks.NewHandler(db, academy.Settings{Clock: clock.Fixed(now), Location: time.UTC}, zap.NewNop())
	return env{db: db, h: h, week: week, tt: tt}
}

func TestHandleCreate(t *testing.T) {
	e := setup(t, testutil.At(2025, 1, 2, 9, 0))

	base := func() map[string]any {
		return map[string]any{
			"week_id":      e.week.ID.Hex(),
			"task_type_id": e.tt.ID.Hex(),
			"title":        "Morning devotion",
			"description":  "<p>Read</p><script>x()</script>",
			"day_of_week":  3,
			"start_time":   "2025-01-03T06:00:00Z",
			"end_time":     "2025-01-03T08:00:00Z",
			"activated":    true,
		}
	}

	tests := []struct {
		name     string
		mutate   func(m map[string]any)
		wantCode int
	}{
		{"valid", func(m map[string]any) {}, http.StatusCreated},
		{"missing title", func(m map[string]any) { delete(m, "title") }, http.StatusUnprocessableEntity},
		{"day out of range", func(m map[string]any) { m["day_of_week"] = 8 }, http.StatusUnprocessableEntity},
		{"bad link", func(m map[string]any) { m["task_link"] = "ftp://x" }, http.StatusUnprocessableEntity},
		{"bad week id", func(m map[string]any) { m["week_id"] = "xyz" }, http.StatusUnprocessableEntity},
		{"unknown week", func(m map[string]any) { m["week_id"] = "507f1f77bcf86cd799439011" }, http.StatusNotFound},
		{"end before start", func(m map[string]any) { m["end_time"] = "2025-01-03T05:00:00Z" }, http.StatusBadRequest},
		{"outside week", func(m map[string]any) {
			m["start_time"] = "2025-01-09T06:00:00Z"
			m["end_time"] = "2025-01-09T08:00:00Z"
		}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := base()
			tt.mutate(body)
			req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/tasks", body), testutil.SuperAdminUser())
			rec := testutil.NewRecorder()
			e.h.HandleCreate(rec, req)
			rec.AssertStatus(t, tt.wantCode)
		})
	}
}

func TestHandleCreate_SanitizesDescription(t *testing.T) {
	e := setup(t, testutil.At(2025, 1, 2, 9, 0))
	req := testutil.NewJSONRequest(http.MethodPost, "/tasks", map[string]any{
		"week_id":      e.week.ID.Hex(),
		"task_type_id": e.tt.ID.Hex(),
		"title":        "Journal",
		"description":  "<p>Write</p><script>alert(1)</script>",
		"day_of_week":  3,
		"start_time":   "2025-01-03T06:00:00Z",
		"end_time":     "2025-01-03T08:00:00Z",
	})
	rec := testutil.NewRecorder()
	e.h.HandleCreate(rec, testutil.WithUser(req, testutil.SuperAdminUser()))
	rec.AssertStatus(t, http.StatusCreated)

	var got struct {
		Data models.DailyTask `json:"data"`
	}
	rec.DecodeJSON(t, &got)
	if got.Data.Description != "<p>Write</p>" {
		t.Errorf("description = %q", got.Data.Description)
	}
	if got.Data.Activated {
		t.Error("task should start deactivated")
	}
}

func TestActivationAndVisibility(t *testing.T) {
	e := setup(t, testutil.At(2025, 1, 2, 9, 0))
	fx := testutil.NewFixtures(t, e.db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	task := fx.CreateTask(ctx, e.week, e.tt, "Devotion", testutil.At(2025, 1, 3, 6, 0), testutil.At(2025, 1, 3, 8, 0))
	student := testutil.StudentUser(fx.CreateStudent(ctx, "Ada", "ada@example.com", "M1"))
	admin := testutil.SuperAdminUser()

	setActive := func(active bool) {
		req := testutil.NewJSONRequest(http.MethodPatch, "/", map[string]bool{"activated": active})
		req = testutil.WithChiURLParam(testutil.WithUser(req, admin), "id", task.ID.Hex())
		rec := testutil.NewRecorder()
		e.h.HandleActivation(rec, req)
		rec.AssertStatus(t, http.StatusOK)
	}
	weekTasks := func(u testutil.TestUser) int {
		req := testutil.WithChiURLParam(testutil.NewAuthenticatedRequest(http.MethodGet, "/", u), "id", e.week.ID.Hex())
		rec := testutil.NewRecorder()
		e.h.ServeWeekTasks(rec, req)
		rec.AssertStatus(t, http.StatusOK)
		var got struct {
			Data []models.DailyTask `json:"data"`
		}
		rec.DecodeJSON(t, &got)
		return len(got.Data)
	}
	getTask := func(u testutil.TestUser) int {
		req := testutil.WithChiURLParam(testutil.NewAuthenticatedRequest(http.MethodGet, "/", u), "id", task.ID.Hex())
		rec := testutil.NewRecorder()
		e.h.ServeTask(rec, req)
		return rec.Code
	}

	if n := weekTasks(student); n != 1 {
		t.Errorf("student sees %d tasks, want 1", n)
	}

	setActive(false)
	if n := weekTasks(student); n != 0 {
		t.Errorf("student sees %d tasks after deactivation, want 0", n)
	}
	if n := weekTasks(admin); n != 1 {
		t.Errorf("admin sees %d tasks, want 1", n)
	}
	if code := getTask(student); code != http.StatusNotFound {
		t.Errorf("student GET deactivated task = %d, want 404", code)
	}
	if code := getTask(admin); code != http.StatusOK {
		t.Errorf("admin GET deactivated task = %d, want 200", code)
	}

	setActive(true)
	if code := getTask(student); code != http.StatusOK {
		t.Errorf("student GET activated task = %d, want 200", code)
	}
}

func TestHandleActivation_MissingField(t *testing.T) {
	e := setup(t, testutil.At(2025, 1, 2, 9, 0))
	req := testutil.NewJSONRequest(http.MethodPatch, "/", map[string]any{})
	req = testutil.WithChiURLParam(testutil.WithUser(req, testutil.SuperAdminUser()), "id", e.week.ID.Hex())
	rec := testutil.NewRecorder()
	e.h.HandleActivation(rec, req)
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
}

func TestServeWindow(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"before", testutil.At(2025, 1, 3, 5, 0), `"state":"not-yet-open"`},
		{"during", testutil.At(2025, 1, 3, 7, 0), `"state":"open"`},
		{"at end", testutil.At(2025, 1, 3, 8, 0), `"state":"open"`},
		{"after", testutil.At(2025, 1, 3, 9, 0), `"state":"closed"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setup(t, tt.now)
			fx := testutil.NewFixtures(t, e.db)
			ctx, cancel := testutil.TestContext()
			defer cancel()
			task := fx.CreateTask(ctx, e.week, e.tt, "Devotion", testutil.At(2025, 1, 3, 6, 0), testutil.At(2025, 1, 3, 8, 0))

			req := testutil.WithChiURLParam(testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.SuperAdminUser()), "id", task.ID.Hex())
			rec := testutil.NewRecorder()
			e.h.ServeWindow(rec, req)
			rec.AssertStatus(t, http.StatusOK)
			rec.AssertContains(t, tt.want)
		})
	}
}
