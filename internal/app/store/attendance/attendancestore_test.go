package attendancestore_test

import (
	"errors"
	"testing"

	attendancestore "github.com/dalemusser/academyhub/internal/app/store/attendance"
	"github.com/dalemusser/academyhub/internal/app/system/paging"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/dalemusser/academyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_DuplicateSameDay(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID, taskID := primitive.NewObjectID(), primitive.NewObjectID()
	day := testutil.Day(2025, 1, 3)

	a := models.Attendance{UserID: userID, TaskID: taskID, Date: day, Marked: true, Score: 1}
	if _, err := store.Create(ctx, a); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := store.Create(ctx, a); !errors.Is(err, attendancestore.ErrDuplicateAttendance) {
		t.Errorf("expected ErrDuplicateAttendance, got %v", err)
	}

	// A different day is a different record.
	a.Date = testutil.Day(2025, 1, 4)
	if _, err := store.Create(ctx, a); err != nil {
		t.Errorf("Create on another day failed: %v", err)
	}
}

func TestStore_Exists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID, taskID := primitive.NewObjectID(), primitive.NewObjectID()
	day := testutil.Day(2025, 1, 3)
	if _, err := store.Create(ctx, models.Attendance{UserID: userID, TaskID: taskID, Date: day}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tests := []struct {
		name string
		fn   func() (bool, error)
		want bool
	}{
		{"same day", func() (bool, error) { return store.ExistsForDay(ctx, userID, taskID, day) }, true},
		{"other day", func() (bool, error) { return store.ExistsForDay(ctx, userID, taskID, testutil.Day(2025, 1, 4)) }, false},
		{"any day", func() (bool, error) { return store.Exists(ctx, userID, taskID) }, true},
		{"other user", func() (bool, error) { return store.Exists(ctx, primitive.NewObjectID(), taskID) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_ListByTask_Paged(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	taskID := primitive.NewObjectID()
	for i := 0; i < 5; i++ {
		if _, err := store.Create(ctx, models.Attendance{
			UserID:    primitive.NewObjectID(),
			TaskID:    taskID,
			Date:      testutil.Day(2025, 1, 3),
			CreatedAt: testutil.At(2025, 1, 3, 8, i),
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	// Noise on another task.
	if _, err := store.Create(ctx, models.Attendance{UserID: primitive.NewObjectID(), TaskID: primitive.NewObjectID(), Date: testutil.Day(2025, 1, 3)}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	page, total, err := store.ListByTask(ctx, taskID, paging.Normalize(2, 2))
	if err != nil {
		t.Fatalf("ListByTask failed: %v", err)
	}
	if total != 5 {
		t.Errorf("total: got %d, want 5", total)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(page))
	}
	if !page[0].CreatedAt.Equal(testutil.At(2025, 1, 3, 8, 2)) {
		t.Errorf("page 2 should start at the third record, got %v", page[0].CreatedAt)
	}

	all, err := store.ListByTasks(ctx, []primitive.ObjectID{taskID})
	if err != nil {
		t.Fatalf("ListByTasks failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("ListByTasks: got %d rows", len(all))
	}
	none, err := store.ListByTasks(ctx, nil)
	if err != nil || len(none) != 0 {
		t.Errorf("ListByTasks(nil): got %d, %v", len(none), err)
	}
}
