// internal/app/features/attendance/handler.go
package attendance

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/academyhub/internal/app/academy"
	attendancesvc "github.com/dalemusser/academyhub/internal/app/academy/attendance"
	"github.com/dalemusser/academyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/academyhub/internal/app/system/paging"
	"github.com/dalemusser/academyhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Rec *attendancesvc.Recorder
	Loc *time.Location
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, set academy.Settings, logger *zap.Logger) *Handler {
	set = set.WithDefaults()
	return &Handler{
		Rec: attendancesvc.New(db, set),
		Loc: set.Location,
		Log: logger,
	}
}

type markRequest struct {
	ReferenceDate string `json:"reference_date"`
}

// HandleMark handles POST /tasks/{id}/attendance. The body is optional;
// a reference_date other than the task's day is refused.
func (h *Handler) HandleMark(w http.ResponseWriter, r *http.Request) {
	taskID, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	userID, err := respond.CurrentUserID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	var req markRequest
	if r.ContentLength != 0 {
		if err := respond.Decode(w, r, &req); err != nil {
			respond.Error(w, h.Log, err)
			return
		}
	}
	ref, err := respond.ParseTime(req.ReferenceDate, h.Loc, "reference_date")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rec, err := h.Rec.MarkAttendance(ctx, userID, taskID, ref)
	if err != nil {
		respond.Error(w, h.Log, err,
			zap.String("task_id", taskID.Hex()),
			zap.String("user_id", userID.Hex()))
		return
	}
	respond.Created(w, rec)
}

// ServeList handles GET /tasks/{id}/attendance?page=&page_size=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	taskID, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	p := paging.ParsePage(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.Rec.ListAttendance(ctx, taskID, p.Page, p.PageSize)
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("task_id", taskID.Hex()))
		return
	}
	respond.OK(w, page)
}

type markedResponse struct {
	Marked bool `json:"marked"`
}

// ServeMine handles GET /tasks/{id}/attendance/me.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	taskID, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	userID, err := respond.CurrentUserID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ok, err := h.Rec.HasMarked(ctx, userID, taskID)
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("task_id", taskID.Hex()))
		return
	}
	respond.OK(w, markedResponse{Marked: ok})
}
