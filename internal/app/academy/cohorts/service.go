// Package cohorts administers cohorts, their academic weeks, task types and
// daily tasks.
package cohorts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/academyhub/internal/app/academy"
	"github.com/dalemusser/academyhub/internal/app/academy/schedule"
	cohortstore "github.com/dalemusser/academyhub/internal/app/store/cohorts"
	taskstore "github.com/dalemusser/academyhub/internal/app/store/dailytasks"
	tasktypestore "github.com/dalemusser/academyhub/internal/app/store/tasktypes"
	weekstore "github.com/dalemusser/academyhub/internal/app/store/weeks"
	"github.com/dalemusser/academyhub/internal/app/system/normalize"
	"github.com/dalemusser/academyhub/internal/app/system/outcome"
	"github.com/dalemusser/academyhub/internal/app/system/txn"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Service struct {
	client  *mongo.Client
	cohorts *cohortstore.Store
	weeks   *weekstore.Store
	types   *tasktypestore.Store
	tasks   *taskstore.Store
	set     academy.Settings
}

func New(db *mongo.Database, set academy.Settings) *Service {
	return &Service{
		client:  db.Client(),
		cohorts: cohortstore.New(db),
		weeks:   weekstore.New(db),
		types:   tasktypestore.New(db),
		tasks:   taskstore.New(db),
		set:     set.WithDefaults(),
	}
}

// CreateCohortInput describes a new cohort. Dates are taken as calendar
// days in the academy timezone.
type CreateCohortInput struct {
	Name      string
	Batch     string
	StartDate time.Time
	EndDate   time.Time
}

// CohortWithWeeks is a cohort and its generated weeks.
type CohortWithWeeks struct {
	Cohort models.Cohort         `json:"cohort"`
	Weeks  []models.AcademicWeek `json:"weeks"`
}

// CreateCohort stores the cohort and all of its weeks as one unit.
// The slug is derived from name and batch; a taken slug is a conflict.
func (s *Service) CreateCohort(ctx context.Context, in CreateCohortInput) (CohortWithWeeks, error) {
	name := normalize.Name(in.Name)
	batch := normalize.Name(in.Batch)
	if name == "" {
		return CohortWithWeeks{}, outcome.Invalidf("name is required")
	}
	slug := normalize.Slug(name, batch)
	if slug == "" {
		return CohortWithWeeks{}, outcome.Invalidf("name must contain letters or digits")
	}

	generated, err := schedule.GenerateWeeks(in.StartDate, in.EndDate, s.set.Location)
	if err != nil {
		return CohortWithWeeks{}, outcome.BadRequestf("start date must not be after end date")
	}

	now := s.set.Now()
	cohort := models.Cohort{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Batch:     batch,
		Slug:      slug,
		StartDate: generated[0].Start,
		EndDate:   generated[len(generated)-1].End,
		CreatedAt: now,
		UpdatedAt: now,
	}
	weeks := toModels(cohort.ID, generated, now)

	err = txn.Run(ctx, s.client, func(ctx context.Context) error {
		if _, err := s.cohorts.Create(ctx, cohort); err != nil {
			return err
		}
		_, err := s.weeks.InsertMany(ctx, weeks)
		return err
	})
	if errors.Is(err, cohortstore.ErrDuplicateSlug) {
		return CohortWithWeeks{}, outcome.Conflictf("a cohort named %q in batch %q already exists", name, batch)
	}
	if err != nil {
		return CohortWithWeeks{}, outcome.Wrap(err, "create cohort")
	}

	s.set.Logger.Info("cohort created",
		zap.String("cohort_id", cohort.ID.Hex()),
		zap.String("slug", slug),
		zap.Int("weeks", len(weeks)))
	return CohortWithWeeks{Cohort: cohort, Weeks: weeks}, nil
}

// GenerateAcademicWeeks persists weeks for a cohort that has none. Zero
// start or end fall back to the cohort's own dates.
func (s *Service) GenerateAcademicWeeks(ctx context.Context, cohortID primitive.ObjectID, start, end time.Time) ([]models.AcademicWeek, error) {
	cohort, err := s.GetCohort(ctx, cohortID)
	if err != nil {
		return nil, err
	}
	if start.IsZero() {
		start = cohort.StartDate
	}
	if end.IsZero() {
		end = cohort.EndDate
	}

	n, err := s.weeks.CountByCohort(ctx, cohortID)
	if err != nil {
		return nil, outcome.Wrap(err, "count weeks")
	}
	if n > 0 {
		return nil, outcome.Conflictf("cohort already has %d weeks", n)
	}

	generated, err := schedule.GenerateWeeks(start, end, s.set.Location)
	if err != nil {
		return nil, outcome.BadRequestf("start date must not be after end date")
	}
	weeks, err := s.weeks.InsertMany(ctx, toModels(cohortID, generated, s.set.Now()))
	if errors.Is(err, weekstore.ErrDuplicateWeek) {
		return nil, outcome.Conflictf("weeks were generated concurrently")
	}
	if err != nil {
		return nil, outcome.Wrap(err, "insert weeks")
	}
	return weeks, nil
}

// AppendWeek adds the week after the cohort's last one, days long (1..7),
// and moves the cohort's end date to cover it.
func (s *Service) AppendWeek(ctx context.Context, cohortID primitive.ObjectID, days int) (models.AcademicWeek, error) {
	if days < 1 || days > schedule.DaysPerWeek {
		return models.AcademicWeek{}, outcome.Invalidf("days must be between 1 and %d", schedule.DaysPerWeek)
	}
	cohort, err := s.GetCohort(ctx, cohortID)
	if err != nil {
		return models.AcademicWeek{}, err
	}
	last, err := s.weeks.Last(ctx, cohortID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.AcademicWeek{}, outcome.BadRequestf("cohort has no weeks to extend")
	}
	if err != nil {
		return models.AcademicWeek{}, outcome.Wrap(err, "load last week")
	}

	next := schedule.NextWeek(schedule.Week{
		Number: last.WeekNumber,
		Start:  last.StartDate,
		End:    last.EndDate,
	}, days, s.set.Location)
	now := s.set.Now()
	week := toModels(cohortID, []schedule.Week{next}, now)[0]

	err = txn.Run(ctx, s.client, func(ctx context.Context) error {
		if _, err := s.weeks.InsertMany(ctx, []models.AcademicWeek{week}); err != nil {
			return err
		}
		if next.End.After(cohort.EndDate) {
			return s.cohorts.ExtendEnd(ctx, cohortID, next.End, now)
		}
		return nil
	})
	if errors.Is(err, weekstore.ErrDuplicateWeek) {
		return models.AcademicWeek{}, outcome.Conflictf("week %d already exists", next.Number)
	}
	if err != nil {
		return models.AcademicWeek{}, outcome.Wrap(err, "append week")
	}
	return week, nil
}

func (s *Service) GetCohort(ctx context.Context, id primitive.ObjectID) (models.Cohort, error) {
	c, err := s.cohorts.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Cohort{}, outcome.NotFoundf("cohort not found")
	}
	if err != nil {
		return models.Cohort{}, outcome.Wrap(err, "load cohort")
	}
	return c, nil
}

func (s *Service) ListCohorts(ctx context.Context) ([]models.Cohort, error) {
	list, err := s.cohorts.List(ctx)
	if err != nil {
		return nil, outcome.Wrap(err, "list cohorts")
	}
	return list, nil
}

// ListWeeks returns the cohort's weeks in order.
func (s *Service) ListWeeks(ctx context.Context, cohortID primitive.ObjectID) ([]models.AcademicWeek, error) {
	if _, err := s.GetCohort(ctx, cohortID); err != nil {
		return nil, err
	}
	weeks, err := s.weeks.ListByCohort(ctx, cohortID)
	if err != nil {
		return nil, outcome.Wrap(err, "list weeks")
	}
	return weeks, nil
}

func (s *Service) GetWeek(ctx context.Context, id primitive.ObjectID) (models.AcademicWeek, error) {
	w, err := s.weeks.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.AcademicWeek{}, outcome.NotFoundf("week not found")
	}
	if err != nil {
		return models.AcademicWeek{}, outcome.Wrap(err, "load week")
	}
	return w, nil
}

// CurrentWeek returns the cohort's week that contains the clock's now.
func (s *Service) CurrentWeek(ctx context.Context, cohortID primitive.ObjectID) (models.AcademicWeek, error) {
	if _, err := s.GetCohort(ctx, cohortID); err != nil {
		return models.AcademicWeek{}, err
	}
	w, err := s.weeks.Containing(ctx, cohortID, s.set.Now())
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.AcademicWeek{}, outcome.NotFoundf("no week is in progress")
	}
	if err != nil {
		return models.AcademicWeek{}, outcome.Wrap(err, "find current week")
	}
	return w, nil
}

func toModels(cohortID primitive.ObjectID, weeks []schedule.Week, now time.Time) []models.AcademicWeek {
	out := make([]models.AcademicWeek, len(weeks))
	for i, w := range weeks {
		out[i] = models.AcademicWeek{
			ID:         primitive.NewObjectID(),
			CohortID:   cohortID,
			WeekNumber: w.Number,
			StartDate:  w.Start,
			EndDate:    w.End,
			CreatedAt:  now,
		}
	}
	return out
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
