// internal/app/features/auditlog/handler.go
package auditlog

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/academyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/academyhub/internal/app/store/audit"
	"github.com/dalemusser/academyhub/internal/app/system/outcome"
	"github.com/dalemusser/academyhub/internal/app/system/paging"
	"github.com/dalemusser/academyhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// failedLoginLimit caps the failed sign-in listing.
const failedLoginLimit = 200

type Handler struct {
	Store *audit.Store
	Loc   *time.Location
	Log   *zap.Logger
}

// NewHandler binds the audit trail reader. Date filters are read as
// calendar days in loc.
func NewHandler(db *mongo.Database, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{Store: audit.New(db), Loc: loc, Log: logger}
}

// ServeList handles GET /audit.
//
// Query: category, event_type, user_id, actor_id, subject_id,
// start_date, end_date (inclusive days), page, page_size.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	p := paging.ParsePage(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, total, err := h.Store.Query(ctx, filter, p)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, paging.Page[audit.Event]{Items: events, Meta: paging.NewMeta(total, p)})
}

// ServeFailedLogins handles GET /audit/failed-logins?since=. since
// defaults to 24 hours ago.
func (h *Handler) ServeFailedLogins(w http.ResponseWriter, r *http.Request) {
	since, err := respond.ParseTime(query.Get(r, "since"), h.Loc, "since")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if since.IsZero() {
		since = time.Now().Add(-24 * time.Hour)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "failed logins")
	defer cancel()

	events, err := h.Store.GetFailedLogins(ctx, since, failedLoginLimit)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, events)
}

func (h *Handler) parseFilter(r *http.Request) (audit.QueryFilter, error) {
	f := audit.QueryFilter{
		Category:  strings.TrimSpace(query.Get(r, "category")),
		EventType: strings.TrimSpace(query.Get(r, "event_type")),
	}
	if f.Category != "" && f.Category != audit.CategoryAuth && f.Category != audit.CategoryAdmin {
		return f, outcome.Invalidf("category must be %q or %q", audit.CategoryAuth, audit.CategoryAdmin)
	}

	for _, ref := range []struct {
		key string
		dst **primitive.ObjectID
	}{
		{"user_id", &f.UserID},
		{"actor_id", &f.ActorID},
		{"subject_id", &f.SubjectID},
	} {
		if v := query.Get(r, ref.key); v != "" {
			id, err := respond.ParseID(v, ref.key)
			if err != nil {
				return f, err
			}
			*ref.dst = &id
		}
	}

	start, err := respond.ParseTime(query.Get(r, "start_date"), h.Loc, "start_date")
	if err != nil {
		return f, err
	}
	if !start.IsZero() {
		f.StartTime = &start
	}
	end, err := respond.ParseTime(query.Get(r, "end_date"), h.Loc, "end_date")
	if err != nil {
		return f, err
	}
	if !end.IsZero() {
		// Whole end day.
		end = end.AddDate(0, 0, 1).Add(-time.Millisecond)
		f.EndTime = &end
	}
	if f.StartTime != nil && f.EndTime != nil && f.EndTime.Before(*f.StartTime) {
		return f, outcome.BadRequestf("end_date is before start_date")
	}
	return f, nil
}
