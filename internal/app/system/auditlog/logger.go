// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/academyhub/internal/app/store/audit"
	"github.com/dalemusser/academyhub/internal/app/system/authz"
	"github.com/dalemusser/academyhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category of events.
const (
	ModeAll = "all" // MongoDB and zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// ValidMode reports whether m is one of the Mode constants.
func ValidMode(m string) bool {
	switch m {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// Config picks a destination per category.
type Config struct {
	Auth  string
	Admin string
}

// Logger writes audit events to MongoDB and to zap. A nil *Logger is a
// no-op, so handlers built without one still work.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.SubjectID != nil {
		fields = append(fields, zap.String("subject_id", event.SubjectID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to its category's mode. Storage failures
// are logged and otherwise ignored.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var mode string
	switch event.Category {
	case audit.CategoryAuth:
		mode = l.config.Auth
	case audit.CategoryAdmin:
		mode = l.config.Admin
	}
	if mode == "" {
		mode = ModeAll
	}
	if mode == ModeOff {
		return
	}

	if mode == ModeAll || mode == ModeLog {
		l.logToZap(event)
	}
	if mode == ModeAll || mode == ModeDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func fromRequest(r *http.Request, category, eventType string) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, role string) {
	ev := fromRequest(r, audit.CategoryAuth, audit.EventLoginSuccess)
	ev.UserID = &userID
	ev.Success = true
	ev.Details = map[string]string{"role": role}
	l.Log(ctx, ev)
}

// LoginFailed logs a refused sign-in. userID is nil when the email matched
// no account.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType string, userID *primitive.ObjectID, email, reason string) {
	ev := fromRequest(r, audit.CategoryAuth, eventType)
	ev.UserID = userID
	ev.FailureReason = reason
	ev.Details = map[string]string{"email": email}
	l.Log(ctx, ev)
}

// --- Admin Events ---

// Admin logs an administrative change by the signed-in user. subjectID
// names what changed; userID is the affected account, if any.
func (l *Logger) Admin(ctx context.Context, r *http.Request, eventType string, subjectID, userID *primitive.ObjectID, details map[string]string) {
	ev := fromRequest(r, audit.CategoryAdmin, eventType)
	if _, _, actor, ok := authz.UserCtx(r); ok {
		ev.ActorID = &actor
	}
	ev.SubjectID = subjectID
	ev.UserID = userID
	ev.Success = true
	ev.Details = details
	l.Log(ctx, ev)
}

// TaskActivationChanged logs a task being shown to or hidden from students.
func (l *Logger) TaskActivationChanged(ctx context.Context, r *http.Request, taskID primitive.ObjectID, activated bool) {
	l.Admin(ctx, r, audit.EventTaskActivationChanged, &taskID, nil, map[string]string{
		"activated": strconv.FormatBool(activated),
	})
}

// SubmissionApprovalChanged logs an approval toggle.
func (l *Logger) SubmissionApprovalChanged(ctx context.Context, r *http.Request, submissionID, studentID primitive.ObjectID, approved bool) {
	l.Admin(ctx, r, audit.EventSubmissionApprovalChanged, &submissionID, &studentID, map[string]string{
		"approved": strconv.FormatBool(approved),
	})
}

// SubmissionScored logs a score being set.
func (l *Logger) SubmissionScored(ctx context.Context, r *http.Request, submissionID, studentID primitive.ObjectID, score float64) {
	l.Admin(ctx, r, audit.EventSubmissionScored, &submissionID, &studentID, map[string]string{
		"score": strconv.FormatFloat(score, 'f', -1, 64),
	})
}

// StudentsImported logs a roster import.
func (l *Logger) StudentsImported(ctx context.Context, r *http.Request, cohortID *primitive.ObjectID, created, skipped int) {
	l.Admin(ctx, r, audit.EventStudentsImported, cohortID, nil, map[string]string{
		"created": strconv.Itoa(created),
		"skipped": strconv.Itoa(skipped),
	})
}
