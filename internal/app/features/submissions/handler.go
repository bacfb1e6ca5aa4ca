// internal/app/features/submissions/handler.go
package submissions

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/academyhub/internal/app/academy"
	submissionsvc "github.com/dalemusser/academyhub/internal/app/academy/submissions"
	"github.com/dalemusser/academyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/academyhub/internal/app/system/auditlog"
	"github.com/dalemusser/academyhub/internal/app/system/evidence"
	"github.com/dalemusser/academyhub/internal/app/system/outcome"
	"github.com/dalemusser/academyhub/internal/app/system/paging"
	"github.com/dalemusser/academyhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves submission, approval and scoring endpoints. Evidence may
// be nil, in which case multipart uploads are refused. JSON bodies may only
// name screenshots by the references an upload returned.
type Handler struct {
	Rec      *submissionsvc.Recorder
	Evidence evidence.Store
	Log      *zap.Logger
	Audit    *auditlog.Logger
}

func NewHandler(db *mongo.Database, set academy.Settings, store evidence.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Rec:      submissionsvc.New(db, set),
		Evidence: store,
		Log:      logger,
	}
}

type submitRequest struct {
	WeekID      string   `json:"week_id" validate:"required,objectid" label:"Week"`
	Submission  string   `json:"submission" validate:"max=50000" label:"Submission"`
	Screenshots []string `json:"screenshots" validate:"max=5,dive,max=300" label:"Screenshots"`
}

// HandleSubmit handles POST /tasks/{id}/submissions. Multipart bodies
// carry the text in "submission" and files in "screenshots"; the files are
// stored first and removed again when the submission is refused.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var (
		req    submitRequest
		stored []string
	)
	if isMultipart(r) {
		req, stored, err = h.readUpload(ctx, w, r)
	} else if err = respond.Decode(w, r, &req); err == nil {
		err = checkRefs(req.Screenshots)
	}
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("task_id", taskID.Hex()))
		return
	}

	weekID, err := respond.ParseID(req.WeekID, "week_id")
	if err != nil {
		h.discard(stored)
		respond.Error(w, h.Log, err)
		return
	}

	sub, err := h.Rec.SubmitTask(ctx, submissionsvc.SubmitInput{
		UserID:      userID,
		TaskID:      taskID,
		WeekID:      weekID,
		Text:        req.Submission,
		Screenshots: req.Screenshots,
	})
	if err != nil {
		h.discard(stored)
		respond.Error(w, h.Log, err,
			zap.String("task_id", taskID.Hex()),
			zap.String("user_id", userID.Hex()))
		return
	}
	respond.Created(w, sub)
}

// checkRefs accepts only references issued by an earlier upload.
func checkRefs(refs []string) error {
	for _, ref := range refs {
		if ref = strings.TrimSpace(ref); ref != "" && !evidence.IsKey(ref) {
			return outcome.Invalidf("screenshots must reference uploaded files")
		}
	}
	return nil
}

// discard removes uploaded evidence that no submission refers to.
func (h *Handler) discard(refs []string) {
	if len(refs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()
	for _, ref := range refs {
		if err := h.Evidence.Delete(ctx, ref); err != nil {
			h.Log.Warn("evidence cleanup failed", zap.String("ref", ref), zap.Error(err))
		}
	}
}

// ServeList handles GET /tasks/{id}/submissions?page=&page_size=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	taskID, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	p := paging.ParsePage(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.Rec.ListSubmissions(ctx, taskID, p.Page, p.PageSize)
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("task_id", taskID.Hex()))
		return
	}
	respond.OK(w, page)
}

// ServeMine handles GET /tasks/{id}/submissions/me.
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

	sub, err := h.Rec.GetUserSubmission(ctx, userID, taskID)
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("task_id", taskID.Hex()))
		return
	}
	respond.OK(w, sub)
}

// HandleApprove handles POST /submissions/{id}/approve. Each call flips
// the approval.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sub, err := h.Rec.ApproveSubmission(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("submission_id", id.Hex()))
		return
	}
	h.Audit.SubmissionApprovalChanged(ctx, r, id, sub.UserID, sub.IsApproved)
	respond.OK(w, sub)
}

type scoreRequest struct {
	Score *float64 `json:"score" validate:"required,gte=0" label:"Score"`
}

// HandleScore handles PUT /submissions/{id}/score.
func (h *Handler) HandleScore(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var req scoreRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sub, err := h.Rec.ScoreSubmission(ctx, id, *req.Score)
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("submission_id", id.Hex()))
		return
	}
	h.Audit.SubmissionScored(ctx, r, id, sub.UserID, sub.Score)
	respond.OK(w, sub)
}
