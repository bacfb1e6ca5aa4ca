// internal/app/features/reports/handler.go
package reports

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/academyhub/internal/app/academy"
	"github.com/dalemusser/academyhub/internal/app/academy/weeklyreport"
	"github.com/dalemusser/academyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/academyhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the weekly score report as JSON or CSV.
type Handler struct {
	Svc *weeklyreport.Service
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, set academy.Settings, logger *zap.Logger) *Handler {
	return &Handler{
		Svc: weeklyreport.New(db, set),
		Log: logger,
	}
}

// ServeWeek handles GET /reports/weeks/{week}. A ".csv" suffix on the
// week id selects the CSV download.
func (h *Handler) ServeWeek(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "week")
	asCSV := strings.HasSuffix(strings.ToLower(raw), ".csv")
	if asCSV {
		raw = raw[:len(raw)-len(".csv")]
	}
	weekID, err := respond.ParseID(raw, "week")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Report())
	defer cancel()

	rep, err := h.Svc.GenerateWeeklyReport(ctx, weekID)
	if err != nil {
		respond.Error(w, h.Log, err, zap.String("week_id", weekID.Hex()))
		return
	}

	if !asCSV {
		respond.OK(w, rep)
		return
	}

	filename := csvFilename(r, raw)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename)))

	// UTF-8 BOM so Excel treats it as Unicode
	_, _ = w.Write([]byte{0xEF, 0xBB, 0xBF})
	if err := weeklyreport.WriteCSV(w, rep); err != nil {
		// Headers are already sent; all we can do is log.
		h.Log.Warn("weekly report csv write failed", zap.String("week_id", weekID.Hex()), zap.Error(err))
	}
}

// csvFilename returns the "filename" query param or week_<id>.csv.
func csvFilename(r *http.Request, weekHex string) string {
	filename := strings.TrimSpace(r.URL.Query().Get("filename"))
	if filename == "" {
		filename = "week_" + weekHex + ".csv"
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		filename += ".csv"
	}
	return filename
}
