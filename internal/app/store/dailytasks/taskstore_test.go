package taskstore_test

import (
	"testing"
	"time"

	taskstore "github.com/dalemusser/academyhub/internal/app/store/dailytasks"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/dalemusser/academyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	link := "https://example.com/reading"
	created, err := store.Create(ctx, models.DailyTask{
		WeekID:     primitive.NewObjectID(),
		TaskTypeID: primitive.NewObjectID(),
		Title:      "Morning prayer",
		TaskLink:   &link,
		DayOfWeek:  3,
		StartTime:  testutil.At(2025, 1, 3, 6, 0),
		EndTime:    testutil.At(2025, 1, 3, 7, 0),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Activated {
		t.Error("expected new task to be inactive")
	}
	if got.TaskLink == nil || *got.TaskLink != link {
		t.Errorf("TaskLink: got %v", got.TaskLink)
	}
	if got.TaskScriptures != nil {
		t.Errorf("TaskScriptures: expected nil, got %v", *got.TaskScriptures)
	}
}

func TestStore_SetActivated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.DailyTask{WeekID: primitive.NewObjectID(), Title: "T"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	updated, err := store.SetActivated(ctx, created.ID, true, time.Now().UTC())
	if err != nil {
		t.Fatalf("SetActivated failed: %v", err)
	}
	if !updated.Activated {
		t.Error("expected task to be activated")
	}

	if _, err := store.SetActivated(ctx, primitive.NewObjectID(), true, time.Now()); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_ListByWeek(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cohort := fixtures.CreateCohort(ctx, "C", testutil.Day(2025, 1, 1), testutil.Day(2025, 1, 20))
	week := fixtures.CreateWeek(ctx, cohort.ID, 1, testutil.Day(2025, 1, 1), testutil.Day(2025, 1, 7))
	other := fixtures.CreateWeek(ctx, cohort.ID, 2, testutil.Day(2025, 1, 8), testutil.Day(2025, 1, 14))
	tt := fixtures.CreateTaskType(ctx, cohort.ID, "Prayer")

	late := fixtures.CreateTask(ctx, week, tt, "Thursday", testutil.At(2025, 1, 2, 9, 0), testutil.At(2025, 1, 2, 10, 0))
	early := fixtures.CreateTask(ctx, week, tt, "Wednesday", testutil.At(2025, 1, 1, 9, 0), testutil.At(2025, 1, 1, 10, 0))
	fixtures.CreateTask(ctx, other, tt, "Other week", testutil.At(2025, 1, 8, 9, 0), testutil.At(2025, 1, 8, 10, 0))
	if _, err := store.SetActivated(ctx, late.ID, false, time.Now()); err != nil {
		t.Fatalf("SetActivated failed: %v", err)
	}

	all, err := store.ListByWeek(ctx, week.ID, false)
	if err != nil {
		t.Fatalf("ListByWeek failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != early.ID || all[1].ID != late.ID {
		t.Errorf("unexpected tasks: %+v", all)
	}

	active, err := store.ListByWeek(ctx, week.ID, true)
	if err != nil {
		t.Fatalf("ListByWeek(activatedOnly) failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != early.ID {
		t.Errorf("expected only the activated task, got %+v", active)
	}
}
