package submissions_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/academyhub/internal/app/academy"
	"github.com/dalemusser/academyhub/internal/app/features/submissions"
	"github.com/dalemusser/academyhub/internal/app/system/clock"
	"github.com/dalemusser/academyhub/internal/app/system/evidence"
	"github.com/dalemusser/academyhub/internal/app/system/paging"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/dalemusser/academyhub/internal/testutil"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	db      *mongo.Database
	store   *storage.Memory
	week    models.AcademicWeek
	task    models.DailyTask
	student testutil.TestUser
}

// setup creates a task on 2025-01-03 09:00-17:00 and one student.
func setup(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateCohort(ctx, "C", testutil.Day(2025, 1, 1), testutil.Day(2025, 1, 20))
	week := fx.CreateWeek(ctx, c.ID, 1, testutil.Day(2025, 1, 1), testutil.Day(2025, 1, 7))
	tt := fx.CreateTaskType(ctx, c.ID, "Journal")
	task := fx.CreateTask(ctx, week, tt, "Journal", testutil.At(2025, 1, 3, 9, 0), testutil.At(2025, 1, 3, 17, 0))
	student := fx.CreateStudent(ctx, "Ada", "ada@example.com", "M1")
	return env{db: db, store: storage.NewMemory(storage.MemoryConfig{}), week: week, task: task, student: testutil.StudentUser(student)}
}

func (e env) handlerAt(now time.Time) *submissions.Handler {
	return submissions.NewHandler(e.db, academy.Settings{Clock: clock.Fixed(now), Location: time.UTC}, evidence.NewUploader(e.store), zap.NewNop())
}

func (e env) submitJSON(h *submissions.Handler, body any) *testutil.ResponseRecorder {
	req := testutil.NewJSONRequest(http.MethodPost, "/", body)
	req = testutil.WithChiURLParam(testutil.WithUser(req, e.student), "id", e.task.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleSubmit(rec, req)
	return rec
}

type upload struct {
	name, contentType, body string
}

func (e env) submitMultipart(h *submissions.Handler, fields map[string]string, files []upload) *testutil.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="screenshots"; filename="`+f.name+`"`)
		hdr.Set("Content-Type", f.contentType)
		part, _ := mw.CreatePart(hdr)
		_, _ = part.Write([]byte(f.body))
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = testutil.WithChiURLParam(testutil.WithUser(req, e.student), "id", e.task.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleSubmit(rec, req)
	return rec
}

func TestHandleSubmit_JSON(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		body     func(e env) map[string]any
		wantCode int
		want     string
	}{
		{
			name: "on time",
			now:  testutil.At(2025, 1, 3, 10, 0),
			body: func(e env) map[string]any {
				return map[string]any{"week_id": e.week.ID.Hex(), "submission": "<p>Done</p>"}
			},
			wantCode: http.StatusCreated,
			want:     `"is_late":false`,
		},
		{
			name: "late",
			now:  testutil.At(2025, 1, 5, 10, 0),
			body: func(e env) map[string]any {
				return map[string]any{"week_id": e.week.ID.Hex(), "submission": "<p>Done</p>"}
			},
			wantCode: http.StatusCreated,
			want:     `"is_late":true`,
		},
		{
			name: "empty editor",
			now:  testutil.At(2025, 1, 3, 10, 0),
			body: func(e env) map[string]any {
				return map[string]any{"week_id": e.week.ID.Hex(), "submission": "<p><br></p>"}
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing week",
			now:      testutil.At(2025, 1, 3, 10, 0),
			body:     func(e env) map[string]any { return map[string]any{"submission": "x"} },
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "wrong week",
			now:      testutil.At(2025, 1, 3, 10, 0),
			body:     func(e env) map[string]any { return map[string]any{"week_id": e.task.ID.Hex(), "submission": "x"} },
			wantCode: http.StatusBadRequest,
		},
		{
			name: "uploaded screenshot ref",
			now:  testutil.At(2025, 1, 3, 10, 0),
			body: func(e env) map[string]any {
				return map[string]any{"week_id": e.week.ID.Hex(), "screenshots": []string{"evidence/2025/01/0a1b2c3d-shot.png"}}
			},
			wantCode: http.StatusCreated,
			want:     `"evidence/2025/01/0a1b2c3d-shot.png"`,
		},
		{
			name: "external screenshot url",
			now:  testutil.At(2025, 1, 3, 10, 0),
			body: func(e env) map[string]any {
				return map[string]any{"week_id": e.week.ID.Hex(), "screenshots": []string{"https://example.com/x.png"}}
			},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name: "escaping screenshot ref",
			now:  testutil.At(2025, 1, 3, 10, 0),
			body: func(e env) map[string]any {
				return map[string]any{"week_id": e.week.ID.Hex(), "submission": "x", "screenshots": []string{"../config.toml"}}
			},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "before the day",
			now:      testutil.At(2025, 1, 2, 10, 0),
			body:     func(e env) map[string]any { return map[string]any{"week_id": e.week.ID.Hex(), "submission": "x"} },
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setup(t)
			rec := e.submitJSON(e.handlerAt(tt.now), tt.body(e))
			rec.AssertStatus(t, tt.wantCode)
			if tt.want != "" {
				rec.AssertContains(t, tt.want)
			}
		})
	}
}

func TestHandleSubmit_Once(t *testing.T) {
	e := setup(t)
	h := e.handlerAt(testutil.At(2025, 1, 3, 10, 0))
	body := map[string]any{"week_id": e.week.ID.Hex(), "submission": "first"}

	e.submitJSON(h, body).AssertStatus(t, http.StatusCreated)
	e.submitJSON(h, body).AssertStatus(t, http.StatusConflict)
}

func TestHandleSubmit_DeactivatedTask(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := e.db.Collection("daily_tasks").UpdateByID(ctx, e.task.ID, bson.M{"$set": bson.M{"activated": false}}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	h := e.handlerAt(testutil.At(2025, 1, 3, 10, 0))
	e.submitJSON(h, map[string]any{"week_id": e.week.ID.Hex(), "submission": "x"}).AssertStatus(t, http.StatusNotFound)

	rec := e.submitMultipart(h,
		map[string]string{"week_id": e.week.ID.Hex()},
		[]upload{{"proof.png", "image/png", "png-bytes"}})
	rec.AssertStatus(t, http.StatusNotFound)
	if n := e.store.Count(); n != 0 {
		t.Errorf("files left behind: %d", n)
	}
}

func TestHandleSubmit_Multipart(t *testing.T) {
	e := setup(t)
	h := e.handlerAt(testutil.At(2025, 1, 3, 10, 0))

	rec := e.submitMultipart(h,
		map[string]string{"week_id": e.week.ID.Hex()},
		[]upload{{"proof.png", "image/png", "png-bytes"}})
	rec.AssertStatus(t, http.StatusCreated)

	var got struct {
		Data models.TaskSubmission `json:"data"`
	}
	rec.DecodeJSON(t, &got)
	if len(got.Data.Screenshots) != 1 {
		t.Fatalf("screenshots = %v", got.Data.Screenshots)
	}
	ref := got.Data.Screenshots[0]
	if !evidence.IsKey(ref) || !strings.HasSuffix(ref, "-proof.png") {
		t.Errorf("ref = %q", ref)
	}
	b, err := e.store.GetBytes(context.Background(), ref)
	if err != nil || string(b) != "png-bytes" {
		t.Errorf("stored = %q, %v", b, err)
	}
}

func TestHandleSubmit_Multipart_CleansUpOnRefusal(t *testing.T) {
	e := setup(t)
	h := e.handlerAt(testutil.At(2025, 1, 3, 10, 0))
	fields := map[string]string{"week_id": e.week.ID.Hex()}

	e.submitMultipart(h, fields, []upload{{"a.png", "image/png", "a"}}).AssertStatus(t, http.StatusCreated)

	// Second submission is a conflict; its file must not linger.
	e.submitMultipart(h, fields, []upload{{"b.png", "image/png", "b"}}).AssertStatus(t, http.StatusConflict)
	if n := e.store.Count(); n != 1 {
		t.Errorf("stored files = %d, want only the accepted one", n)
	}
}

func TestHandleSubmit_Multipart_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		files []upload
	}{
		{"not an image", []upload{{"notes.txt", "text/plain", "x"}}},
		{"too many files", []upload{
			{"1.png", "image/png", "1"}, {"2.png", "image/png", "2"}, {"3.png", "image/png", "3"},
			{"4.png", "image/png", "4"}, {"5.png", "image/png", "5"}, {"6.png", "image/png", "6"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setup(t)
			h := e.handlerAt(testutil.At(2025, 1, 3, 10, 0))
			rec := e.submitMultipart(h, map[string]string{"week_id": e.week.ID.Hex()}, tt.files)
			rec.AssertStatus(t, http.StatusUnprocessableEntity)
			if n := e.store.Count(); n != 0 {
				t.Errorf("files left behind: %d", n)
			}
		})
	}
}

func TestApproveScoreAndList(t *testing.T) {
	e := setup(t)
	h := e.handlerAt(testutil.At(2025, 1, 3, 10, 0))
	admin := testutil.SuperAdminUser()

	rec := e.submitJSON(h, map[string]any{"week_id": e.week.ID.Hex(), "submission": "work"})
	rec.AssertStatus(t, http.StatusCreated)
	var created struct {
		Data models.TaskSubmission `json:"data"`
	}
	rec.DecodeJSON(t, &created)
	subID := created.Data.ID.Hex()

	approve := func() *testutil.ResponseRecorder {
		req := testutil.WithChiURLParam(testutil.NewAuthenticatedRequest(http.MethodPost, "/", admin), "id", subID)
		rec := testutil.NewRecorder()
		h.HandleApprove(rec, req)
		return rec
	}
	score := func(body any) *testutil.ResponseRecorder {
		req := testutil.WithChiURLParam(testutil.WithUser(testutil.NewJSONRequest(http.MethodPut, "/", body), admin), "id", subID)
		rec := testutil.NewRecorder()
		h.HandleScore(rec, req)
		return rec
	}

	rec = approve()
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"is_approved":true`)
	rec = approve()
	rec.AssertContains(t, `"is_approved":false`)

	score(map[string]float64{"score": 4.5}).AssertStatus(t, http.StatusOK)
	score(map[string]float64{"score": -1}).AssertStatus(t, http.StatusUnprocessableEntity)
	score(map[string]any{}).AssertStatus(t, http.StatusUnprocessableEntity)

	req := testutil.WithChiURLParam(testutil.NewAuthenticatedRequest(http.MethodGet, "/", admin), "id", e.task.ID.Hex())
	rec = testutil.NewRecorder()
	h.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	var page struct {
		Data paging.Page[models.TaskSubmission] `json:"data"`
	}
	rec.DecodeJSON(t, &page)
	if len(page.Data.Items) != 1 || page.Data.Items[0].Score != 4.5 {
		t.Errorf("page = %+v", page.Data)
	}

	req = testutil.WithChiURLParam(testutil.NewAuthenticatedRequest(http.MethodGet, "/", e.student), "id", e.task.ID.Hex())
	rec = testutil.NewRecorder()
	h.ServeMine(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, subID)
}

func TestHandleApprove_Unknown(t *testing.T) {
	e := setup(t)
	h := e.handlerAt(testutil.At(2025, 1, 3, 10, 0))
	req := testutil.WithChiURLParam(testutil.NewAuthenticatedRequest(http.MethodPost, "/", testutil.SuperAdminUser()), "id", "507f1f77bcf86cd799439011")
	rec := testutil.NewRecorder()
	h.HandleApprove(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}
