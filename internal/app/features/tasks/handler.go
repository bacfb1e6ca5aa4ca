// internal/app/features/tasks/handler.go
package tasks

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/academyhub/internal/app/academy"
	cohortsvc "github.com/dalemusser/academyhub/internal/app/academy/cohorts"
	"github.com/dalemusser/academyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/academyhub/internal/app/store/audit"
	"github.com/dalemusser/academyhub/internal/app/system/auditlog"
	"github.com/dalemusser/academyhub/internal/app/system/authz"
	"github.com/dalemusser/academyhub/internal/app/system/outcome"
	"github.com/dalemusser/academyhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves daily tasks. Students only ever see activated tasks.
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

type createTaskRequest struct {
	WeekID         string  `json:"week_id" validate:"required,objectid" label:"Week"`
	TaskTypeID     string  `json:"task_type_id" validate:"required,objectid" label:"Task type"`
	Title          string  `json:"title" validate:"required,max=200" label:"Title"`
	Description    string  `json:"description" validate:"max=20000" label:"Description"`
	TaskLink       *string `json:"task_link" validate:"omitempty,httpurl" label:"Task link"`
	TaskScriptures *string `json:"task_scriptures" validate:"omitempty,max=500" label:"Task scriptures"`
	DayOfWeek      int     `json:"day_of_week" validate:"required,min=1,max=7" label:"Day of week"`
	StartTime      string  `json:"start_time" validate:"required" label:"Start time"`
	EndTime        string  `json:"end_time" validate:"required" label:"End time"`
	Activated      bool    `json:"activated"`
}

// HandleCreate handles POST /tasks.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	weekID, err := respond.ParseID(req.WeekID, "week_id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	typeID, err := respond.ParseID(req.TaskTypeID, "task_type_id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	start, err := respond.ParseTime(req.StartTime, h.Loc, "start_time")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	end, err := respond.ParseTime(req.EndTime, h.Loc, "end_time")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	task, err := h.Svc.CreateDailyTask(ctx, cohortsvc.CreateTaskInput{
		WeekID:         weekID,
		TaskTypeID:     typeID,
		Title:          req.Title,
		Description:    req.Description,
		TaskLink:       req.TaskLink,
		TaskScriptures: req.TaskScriptures,
		DayOfWeek:      req.DayOfWeek,
		StartTime:      start,
		EndTime:        end,
		Activated:      req.Activated,
	})
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("week_id", req.WeekID))
		return
	}
	h.Audit.Admin(ctx, r, audit.EventTaskCreated, &task.ID, nil, map[string]string{
		"week_id": req.WeekID,
		"title":   task.Title,
	})
	respond.Created(w, task)
}

// ServeTask handles GET /tasks/{id}.
func (h *Handler) ServeTask(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	task, err := h.Svc.GetTask(ctx, id)
	if err == nil && !task.Activated && !authz.IsSuperAdmin(r) {
		err = outcome.NotFoundf("task not found")
	}
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("task_id", id.Hex()))
		return
	}
	respond.OK(w, task)
}

type activationRequest struct {
	Activated *bool `json:"activated" validate:"required" label:"Activated"`
}

// HandleActivation handles PATCH /tasks/{id}/activation.
func (h *Handler) HandleActivation(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var req activationRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	task, err := h.Svc.SetTaskActivation(ctx, id, *req.Activated)
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("task_id", id.Hex()))
		return
	}
	h.Audit.TaskActivationChanged(ctx, r, id, task.Activated)
	respond.OK(w, task)
}

// ServeWindow handles GET /tasks/{id}/window.
func (h *Handler) ServeWindow(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	win, err := h.Svc.EvaluateTaskWindow(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("task_id", id.Hex()))
		return
	}
	respond.OK(w, win)
}

// ServeWeekTasks handles GET /weeks/{id}/tasks.
func (h *Handler) ServeWeekTasks(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Svc.ListWeekTasks(ctx, id, !authz.IsSuperAdmin(r))
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("week_id", id.Hex()))
		return
	}
	respond.OK(w, list)
}
