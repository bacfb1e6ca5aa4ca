// internal/app/features/submissions/evidence.go
package submissions

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/academyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/academyhub/internal/app/system/auth"
	"github.com/dalemusser/academyhub/internal/app/system/evidence"
	"github.com/dalemusser/academyhub/internal/app/system/outcome"
	"github.com/dalemusser/academyhub/internal/app/system/timeouts"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// EvidenceRoutes lets reviewers fetch screenshots by reference. Files on
// local disk are served directly; other backends redirect to a short-lived
// signed URL.
func EvidenceRoutes(store storage.Store, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(models.RoleSuperAdmin))
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		ref := chi.URLParam(r, "*")
		if !evidence.IsKey(ref) {
			respond.Error(w, logger, outcome.NotFoundf("file not found"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()

		ok, err := store.Exists(ctx, ref)
		if err != nil {
			respond.Error(w, logger, err, zap.String("ref", ref))
			return
		}
		if !ok {
			respond.Error(w, logger, outcome.NotFoundf("file not found"))
			return
		}

		w.Header().Set("Cache-Control", "private, max-age=3600")
		if local, ok := store.(*storage.Local); ok {
			fullPath, err := local.GetFullPath(ref)
			if err != nil {
				respond.Error(w, logger, err, zap.String("ref", ref))
				return
			}
			http.ServeFile(w, r, fullPath)
			return
		}

		signedURL, err := store.PresignedURL(ctx, ref, &storage.PresignOptions{Expires: 15 * time.Minute})
		if err != nil {
			respond.Error(w, logger, err, zap.String("ref", ref))
			return
		}
		http.Redirect(w, r, signedURL, http.StatusTemporaryRedirect)
	})
	return r
}
