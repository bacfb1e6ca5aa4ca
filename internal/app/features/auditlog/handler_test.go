package auditlog_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/academyhub/internal/app/features/auditlog"
	"github.com/dalemusser/academyhub/internal/app/store/audit"
	"github.com/dalemusser/academyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func seed(t *testing.T, h *auditlog.Handler, events ...audit.Event) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	for _, ev := range events {
		if err := h.Store.Log(ctx, ev); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
}

type listResponse struct {
	Data struct {
		Items []audit.Event `json:"items"`
		Meta  struct {
			TotalItems int64 `json:"total_items"`
		} `json:"meta"`
	} `json:"data"`
}

func TestServeList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := auditlog.NewHandler(db, time.UTC, zap.NewNop())

	task := primitive.NewObjectID()
	seed(t, h,
		audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true, Timestamp: time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)},
		audit.Event{Category: audit.CategoryAdmin, EventType: audit.EventTaskActivationChanged, SubjectID: &task, Success: true, Timestamp: time.Date(2025, 1, 7, 23, 0, 0, 0, time.UTC)},
		audit.Event{Category: audit.CategoryAdmin, EventType: audit.EventTaskCreated, SubjectID: &task, Success: true, Timestamp: time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC)},
	)
	admin := testutil.SuperAdminUser()

	tests := []struct {
		name      string
		target    string
		wantTotal int64
	}{
		{"all", "/audit", 3},
		{"category", "/audit?category=admin", 2},
		{"subject", "/audit?subject_id=" + task.Hex(), 2},
		{"event type", "/audit?event_type=login_success", 1},
		{"inclusive end day", "/audit?start_date=2025-01-07&end_date=2025-01-07", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, tt.target, admin))
			rec.AssertStatus(t, http.StatusOK)
			var got listResponse
			rec.DecodeJSON(t, &got)
			if got.Data.Meta.TotalItems != tt.wantTotal {
				t.Errorf("total = %d, want %d", got.Data.Meta.TotalItems, tt.wantTotal)
			}
		})
	}
}

func TestServeList_BadFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := auditlog.NewHandler(db, time.UTC, zap.NewNop())
	admin := testutil.SuperAdminUser()

	tests := []struct {
		name     string
		target   string
		wantCode int
	}{
		{"unknown category", "/audit?category=security", http.StatusUnprocessableEntity},
		{"bad user id", "/audit?user_id=nope", http.StatusUnprocessableEntity},
		{"bad date", "/audit?start_date=07/01/2025", http.StatusUnprocessableEntity},
		{"reversed range", "/audit?start_date=2025-01-08&end_date=2025-01-07", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, tt.target, admin))
			rec.AssertStatus(t, tt.wantCode)
		})
	}
}

func TestServeFailedLogins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := auditlog.NewHandler(db, time.UTC, zap.NewNop())

	now := time.Now().UTC()
	seed(t, h,
		audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword, Timestamp: now.Add(-time.Hour)},
		audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginFailedUnknownEmail, Timestamp: now.Add(-48 * time.Hour)},
	)

	rec := testutil.NewRecorder()
	h.ServeFailedLogins(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/audit/failed-logins", testutil.SuperAdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	var got struct {
		Data []audit.Event `json:"data"`
	}
	rec.DecodeJSON(t, &got)
	if len(got.Data) != 1 || got.Data[0].EventType != audit.EventLoginFailedWrongPassword {
		t.Errorf("failed logins = %+v", got.Data)
	}
}
