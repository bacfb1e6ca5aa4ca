// Package submissions records at most one submission per user and task,
// and carries the reviewer's approval and score.
package submissions

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/academyhub/internal/app/academy"
	"github.com/dalemusser/academyhub/internal/app/academy/schedule"
	taskstore "github.com/dalemusser/academyhub/internal/app/store/dailytasks"
	submissionstore "github.com/dalemusser/academyhub/internal/app/store/submissions"
	"github.com/dalemusser/academyhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/academyhub/internal/app/system/outcome"
	"github.com/dalemusser/academyhub/internal/app/system/paging"
	"github.com/dalemusser/academyhub/internal/app/system/txn"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Recorder struct {
	client      *mongo.Client
	tasks       *taskstore.Store
	submissions *submissionstore.Store
	set         academy.Settings
}

func New(db *mongo.Database, set academy.Settings) *Recorder {
	return &Recorder{
		client:      db.Client(),
		tasks:       taskstore.New(db),
		submissions: submissionstore.New(db),
		set:         set.WithDefaults(),
	}
}

// SubmitInput is one student's submission. Screenshots are opaque
// evidence references produced by the upload layer.
type SubmitInput struct {
	UserID      primitive.ObjectID
	TaskID      primitive.ObjectID
	WeekID      primitive.ObjectID
	Text        string
	Screenshots []string
}

// SubmitTask stores the user's only submission for the task. Text is
// sanitized; an empty editor ("<p><br></p>") counts as no text.
func (r *Recorder) SubmitTask(ctx context.Context, in SubmitInput) (models.TaskSubmission, error) {
	sub, err := r.submit(ctx, in)
	r.set.Metrics.Submission(err)
	return sub, err
}

func (r *Recorder) submit(ctx context.Context, in SubmitInput) (models.TaskSubmission, error) {
	text := ""
	if !htmlsanitize.IsBlank(in.Text) {
		text = htmlsanitize.Sanitize(in.Text)
	}
	shots := cleanRefs(in.Screenshots)
	if text == "" && len(shots) == 0 {
		return models.TaskSubmission{}, outcome.BadRequestf("a submission needs text or at least one screenshot")
	}

	task, err := r.tasks.GetByID(ctx, in.TaskID)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && !task.Activated) {
		return models.TaskSubmission{}, outcome.NotFoundf("task not found")
	}
	if err != nil {
		return models.TaskSubmission{}, outcome.Wrap(err, "load task")
	}
	if !in.WeekID.IsZero() && in.WeekID != task.WeekID {
		return models.TaskSubmission{}, outcome.BadRequestf("task does not belong to this week")
	}

	now := r.set.Now()
	late, err := schedule.Lateness(task.StartTime, now, r.set.Location)
	if errors.Is(err, schedule.ErrBeforeWindow) {
		return models.TaskSubmission{}, outcome.BadRequestf("task window has not begun")
	}

	sub := models.TaskSubmission{
		ID:          primitive.NewObjectID(),
		UserID:      in.UserID,
		TaskID:      task.ID,
		WeekID:      task.WeekID,
		Submission:  text,
		Screenshots: shots,
		SubmittedAt: now,
		IsSubmitted: true,
		IsLate:      late,
		IsApproved:  false,
		Score:       0,
		UpdatedAt:   now,
	}

	err = txn.Run(ctx, r.client, func(ctx context.Context) error {
		_, err := r.submissions.GetByUserTask(ctx, in.UserID, task.ID)
		if err == nil {
			return submissionstore.ErrDuplicateSubmission
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}
		_, err = r.submissions.Create(ctx, sub)
		return err
	})
	if errors.Is(err, submissionstore.ErrDuplicateSubmission) {
		return models.TaskSubmission{}, outcome.Conflictf("task already submitted")
	}
	if err != nil {
		return models.TaskSubmission{}, outcome.Wrap(err, "submit task")
	}

	r.set.Logger.Debug("task submitted",
		zap.String("user_id", in.UserID.Hex()),
		zap.String("task_id", task.ID.Hex()),
		zap.Int("screenshots", len(shots)),
		zap.Bool("late", late))
	return sub, nil
}

// ApproveSubmission flips the submission's approval. The score is left
// untouched.
func (r *Recorder) ApproveSubmission(ctx context.Context, submissionID primitive.ObjectID) (models.TaskSubmission, error) {
	sub, err := r.submissions.ToggleApproval(ctx, submissionID, r.set.Now())
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.TaskSubmission{}, outcome.NotFoundf("submission not found")
	}
	if err != nil {
		return models.TaskSubmission{}, outcome.Wrap(err, "toggle approval")
	}
	r.set.Metrics.Approval(sub.IsApproved)
	return sub, nil
}

// ScoreSubmission sets the reviewer's score. Negative scores are rejected.
func (r *Recorder) ScoreSubmission(ctx context.Context, submissionID primitive.ObjectID, score float64) (models.TaskSubmission, error) {
	if score < 0 {
		return models.TaskSubmission{}, outcome.BadRequestf("score must not be negative")
	}
	sub, err := r.submissions.SetScore(ctx, submissionID, score, r.set.Now())
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.TaskSubmission{}, outcome.NotFoundf("submission not found")
	}
	if err != nil {
		return models.TaskSubmission{}, outcome.Wrap(err, "score submission")
	}
	return sub, nil
}

// ListSubmissions returns one page of a task's submissions, oldest first.
func (r *Recorder) ListSubmissions(ctx context.Context, taskID primitive.ObjectID, page, pageSize int) (paging.Page[models.TaskSubmission], error) {
	if _, err := r.tasks.GetByID(ctx, taskID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return paging.Page[models.TaskSubmission]{}, outcome.NotFoundf("task not found")
		}
		return paging.Page[models.TaskSubmission]{}, outcome.Wrap(err, "load task")
	}

	p := paging.Normalize(page, pageSize)
	items, total, err := r.submissions.ListByTask(ctx, taskID, p)
	if err != nil {
		return paging.Page[models.TaskSubmission]{}, outcome.Wrap(err, "list submissions")
	}
	return paging.Page[models.TaskSubmission]{Items: items, Meta: paging.NewMeta(total, p)}, nil
}

// GetUserSubmission returns the user's submission for the task.
func (r *Recorder) GetUserSubmission(ctx context.Context, userID, taskID primitive.ObjectID) (models.TaskSubmission, error) {
	sub, err := r.submissions.GetByUserTask(ctx, userID, taskID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.TaskSubmission{}, outcome.NotFoundf("no submission for this task")
	}
	if err != nil {
		return models.TaskSubmission{}, outcome.Wrap(err, "load submission")
	}
	return sub, nil
}

func cleanRefs(refs []string) []string {
	var out []string
	for _, r := range refs {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
