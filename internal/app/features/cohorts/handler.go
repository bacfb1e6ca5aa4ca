// internal/app/features/cohorts/handler.go
package cohorts

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/academyhub/internal/app/academy"
	cohortsvc "github.com/dalemusser/academyhub/internal/app/academy/cohorts"
	"github.com/dalemusser/academyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/academyhub/internal/app/store/audit"
	"github.com/dalemusser/academyhub/internal/app/system/auditlog"
	"github.com/dalemusser/academyhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves cohort, week and task type administration.
type Handler struct {
	Svc   *cohortsvc.Service
	Loc   *time.Location
	Log   *zap.Logger
	Audit *auditlog.Logger
}

func NewHandler(db *mongo.Database, set academy.Settings, logger *zap.Logger) *Handler {
	set = set.WithDefaults()
	return &Handler{
		Svc: cohortsvc.New(db, set),
		Loc: set.Location,
		Log: logger,
	}
}

type createCohortRequest struct {
	Name      string `json:"name" validate:"required,max=200" label:"Name"`
	Batch     string `json:"batch" validate:"max=100" label:"Batch"`
	StartDate string `json:"start_date" validate:"required" label:"Start date"`
	EndDate   string `json:"end_date" validate:"required" label:"End date"`
}

// HandleCreate handles POST /cohorts.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createCohortRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	start, err := respond.ParseTime(req.StartDate, h.Loc, "start_date")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	end, err := respond.ParseTime(req.EndDate, h.Loc, "end_date")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Svc.CreateCohort(ctx, cohortsvc.CreateCohortInput{
		Name:      req.Name,
		Batch:     req.Batch,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("cohort", req.Name))
		return
	}
	h.Audit.Admin(ctx, r, audit.EventCohortCreated, &out.Cohort.ID, nil, map[string]string{
		"slug":  out.Cohort.Slug,
		"weeks": strconv.Itoa(len(out.Weeks)),
	})
	respond.Created(w, out)
}

// ServeList handles GET /cohorts.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Svc.ListCohorts(ctx)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, list)
}

// ServeCohort handles GET /cohorts/{id}.
func (h *Handler) ServeCohort(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Svc.GetCohort(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("cohort_id", id.Hex()))
		return
	}
	respond.OK(w, c)
}

// ServeWeeks handles GET /cohorts/{id}/weeks.
func (h *Handler) ServeWeeks(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	weeks, err := h.Svc.ListWeeks(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("cohort_id", id.Hex()))
		return
	}
	respond.OK(w, weeks)
}

// ServeCurrentWeek handles GET /cohorts/{id}/weeks/current.
func (h *Handler) ServeCurrentWeek(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	week, err := h.Svc.CurrentWeek(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("cohort_id", id.Hex()))
		return
	}
	respond.OK(w, week)
}

type appendWeekRequest struct {
	Days int `json:"days" validate:"min=1,max=7" label:"Days"`
}

// HandleAppendWeek handles POST /cohorts/{id}/weeks.
func (h *Handler) HandleAppendWeek(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var req appendWeekRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	week, err := h.Svc.AppendWeek(ctx, id, req.Days)
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("cohort_id", id.Hex()))
		return
	}
	h.Audit.Admin(ctx, r, audit.EventWeekAppended, &id, nil, map[string]string{
		"week_number": strconv.Itoa(week.WeekNumber),
	})
	respond.Created(w, week)
}

type generateWeeksRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// HandleGenerateWeeks handles POST /cohorts/{id}/weeks/generate. Omitted
// dates default to the cohort's own range.
func (h *Handler) HandleGenerateWeeks(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var req generateWeeksRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	start, err := respond.ParseTime(req.StartDate, h.Loc, "start_date")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	end, err := respond.ParseTime(req.EndDate, h.Loc, "end_date")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	weeks, err := h.Svc.GenerateAcademicWeeks(ctx, id, start, end)
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("cohort_id", id.Hex()))
		return
	}
	h.Audit.Admin(ctx, r, audit.EventWeeksGenerated, &id, nil, map[string]string{
		"weeks": strconv.Itoa(len(weeks)),
	})
	respond.Created(w, weeks)
}

type createTaskTypeRequest struct {
	Name                string `json:"name" validate:"required,max=100" label:"Name"`
	RequiresAttendance  bool   `json:"requires_attendance"`
	RequiresSubmissions bool   `json:"requires_submissions"`
}

// HandleCreateTaskType handles POST /cohorts/{id}/task-types.
func (h *Handler) HandleCreateTaskType(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var req createTaskTypeRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	tt, err := h.Svc.CreateTaskType(ctx, id, req.Name, req.RequiresAttendance, req.RequiresSubmissions)
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("cohort_id", id.Hex()))
		return
	}
	h.Audit.Admin(ctx, r, audit.EventTaskTypeCreated, &tt.ID, nil, map[string]string{
		"cohort_id": id.Hex(),
		"name":      tt.Name,
	})
	respond.Created(w, tt)
}

// ServeTaskTypes handles GET /cohorts/{id}/task-types.
func (h *Handler) ServeTaskTypes(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Svc.ListTaskTypes(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("cohort_id", id.Hex()))
		return
	}
	respond.OK(w, list)
}
