package login_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/academyhub/internal/app/features/login"
	"github.com/dalemusser/academyhub/internal/app/store/audit"
	userstore "github.com/dalemusser/academyhub/internal/app/store/users"
	"github.com/dalemusser/academyhub/internal/app/system/auditlog"
	"github.com/dalemusser/academyhub/internal/app/system/auth"
	"github.com/dalemusser/academyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/dalemusser/academyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

func newTestHandler(t *testing.T) (*login.Handler, *testutil.Fixtures, *auth.Manager) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	mgr, err := auth.NewManager(testSecret, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return login.NewHandler(db, mgr, nil, zap.NewNop()), testutil.NewFixtures(t, db), mgr
}

func withPassword(t *testing.T, f *testutil.Fixtures, u models.User, password string) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := userstore.New(f.DB()).SetPasswordHash(ctx, u.ID, string(hash)); err != nil {
		t.Fatalf("SetPasswordHash: %v", err)
	}
}

func TestHandleLogin_Success(t *testing.T) {
	h, f, mgr := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	student := f.CreateStudent(ctx, "Ada Obi", "ada@example.com", "M1")
	withPassword(t, f, student, "s3cret-pass")

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, testutil.NewJSONRequest(http.MethodPost, "/login", map[string]string{
		"email":    "ADA@example.com",
		"password": "s3cret-pass",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.User.ID != student.ID {
		t.Errorf("user = %s, want %s", resp.Data.User.ID.Hex(), student.ID.Hex())
	}

	// The issued token authenticates a follow-up request.
	var seen *auth.SessionUser
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.CurrentUser(r)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Data.Token)
	mgr.LoadUser(next).ServeHTTP(httptest.NewRecorder(), req)
	if seen == nil || seen.ID != student.ID.Hex() || seen.Role != models.RoleStudent {
		t.Errorf("token user = %+v", seen)
	}

	n, err := f.DB().Collection("login_records").CountDocuments(ctx, bson.M{"user_id": student.ID})
	if err != nil || n != 1 {
		t.Errorf("login records = %d, %v; want 1", n, err)
	}
}

func TestHandleLogin_Throttled(t *testing.T) {
	h, f, _ := newTestHandler(t)
	h.Limiter = ratelimit.NewLoginLimiter(100, time.Minute, 2, 5*time.Minute, nil)
	h.Audit = auditlog.New(audit.New(f.DB()), zap.NewNop(), auditlog.Config{Auth: auditlog.ModeDB})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	student := f.CreateStudent(ctx, "Ada Obi", "ada@example.com", "M1")
	withPassword(t, f, student, "right")

	attempt := func(password string) int {
		rec := httptest.NewRecorder()
		h.HandleLogin(rec, testutil.NewJSONRequest(http.MethodPost, "/login", map[string]string{
			"email":    "ada@example.com",
			"password": password,
		}))
		return rec.Code
	}

	if got := attempt("wrong"); got != http.StatusUnauthorized {
		t.Fatalf("first = %d", got)
	}
	// Success clears the account's count.
	if got := attempt("right"); got != http.StatusOK {
		t.Fatalf("second = %d", got)
	}
	attempt("wrong")
	attempt("wrong")
	if got := attempt("right"); got != http.StatusTooManyRequests {
		t.Errorf("after two failures = %d, want 429", got)
	}

	for event, want := range map[string]int64{
		audit.EventLoginFailedWrongPassword: 3,
		audit.EventLoginSuccess:             1,
		audit.EventLoginFailedRateLimit:     1,
	} {
		n, err := f.DB().Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": event})
		if err != nil || n != want {
			t.Errorf("%s events = %d, %v; want %d", event, n, err, want)
		}
	}
}

func TestHandleLogin_Failures(t *testing.T) {
	h, f, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	student := f.CreateStudent(ctx, "Ada Obi", "ada@example.com", "M1")
	withPassword(t, f, student, "right")
	disabled := f.CreateStudent(ctx, "Bo", "bo@example.com", "M2")
	withPassword(t, f, disabled, "right")
	if _, err := f.DB().Collection("users").UpdateByID(ctx, disabled.ID, bson.M{"$set": bson.M{"status": models.StatusDisabled}}); err != nil {
		t.Fatalf("disable: %v", err)
	}
	f.CreateStudent(ctx, "No Password", "nopass@example.com", "M3")

	tests := []struct {
		name string
		body any
		want int
	}{
		{"wrong password", map[string]string{"email": "ada@example.com", "password": "wrong"}, http.StatusUnauthorized},
		{"unknown email", map[string]string{"email": "who@example.com", "password": "right"}, http.StatusUnauthorized},
		{"no password set", map[string]string{"email": "nopass@example.com", "password": "x"}, http.StatusUnauthorized},
		{"disabled", map[string]string{"email": "bo@example.com", "password": "right"}, http.StatusForbidden},
		{"missing password", map[string]string{"email": "ada@example.com"}, http.StatusUnprocessableEntity},
		{"bad email", map[string]string{"email": "nope", "password": "x"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleLogin(rec, testutil.NewJSONRequest(http.MethodPost, "/login", tt.body))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
