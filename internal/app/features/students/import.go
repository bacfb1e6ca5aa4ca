// internal/app/features/students/import.go
package students

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/dalemusser/academyhub/internal/app/features/shared/respond"
	userstore "github.com/dalemusser/academyhub/internal/app/store/users"
	"github.com/dalemusser/academyhub/internal/app/system/csvutil"
	"github.com/dalemusser/academyhub/internal/app/system/outcome"
	"github.com/dalemusser/academyhub/internal/app/system/timeouts"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// maxReportedErrors caps how many bad lines the rejection message lists.
const maxReportedErrors = 5

type importResult struct {
	Created int      `json:"created"`
	Skipped []string `json:"skipped"` // emails already registered
}

// HandleImport handles POST /students/import?cohort_id=.
//
// The roster arrives either as a multipart "file" field or as a raw
// text/csv body. Any bad line rejects the whole file before anything is
// written; emails that already exist are skipped.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)

	src, closeSrc, err := rosterSource(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	defer closeSrc()

	res, err := csvutil.ParseRoster(src, csvutil.DefaultParseOptions())
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			err = outcome.Invalidf("roster exceeds %d bytes", csvutil.MaxUploadSize)
		case errors.Is(err, csvutil.ErrTooManyRows):
			err = outcome.Invalidf("roster has more than %d rows", csvutil.MaxRows)
		default:
			err = outcome.Invalidf("roster is not valid CSV: %v", err)
		}
		respond.Error(w, h.Log, err)
		return
	}
	if res.HasErrors() {
		respond.Error(w, h.Log, outcome.Invalidf("roster rejected: %s", res.Summary(maxReportedErrors)))
		return
	}
	if len(res.Rows) == 0 {
		respond.Error(w, h.Log, outcome.Invalidf("roster has no students"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "student import")
	defer cancel()

	cohortID, err := h.cohortRef(ctx, query.Get(r, "cohort_id"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	out := importResult{Skipped: []string{}}
	for _, row := range res.Rows {
		_, err := h.Users.Create(ctx, models.User{
			FullName:     row.FullName,
			Email:        row.Email,
			MatricNumber: row.MatricNumber,
			Role:         models.RoleStudent,
			CohortID:     cohortID,
		})
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			out.Skipped = append(out.Skipped, row.Email)
			continue
		}
		if err != nil {
			respond.Error(w, h.Log, err, zap.Int("line", row.Line), zap.Int("created", out.Created))
			return
		}
		out.Created++
	}

	h.Audit.StudentsImported(ctx, r, cohortID, out.Created, len(out.Skipped))
	respond.OK(w, out)
}

// rosterSource picks the CSV stream out of the request.
func rosterSource(r *http.Request) (io.Reader, func(), error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		return r.Body, func() {}, nil
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, nil, outcome.Invalidf("roster exceeds %d bytes", csvutil.MaxUploadSize)
		}
		return nil, nil, outcome.Invalidf("multipart field \"file\" is required")
	}
	return f, func() { _ = f.Close() }, nil
}
