// internal/app/features/submissions/routes.go
package submissions

import (
	"github.com/dalemusser/academyhub/internal/app/system/auth"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Mount registers the per-task submission routes on the /tasks router.
func Mount(r chi.Router, h *Handler) {
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleStudent))
		pr.Post("/{id}/submissions", h.HandleSubmit)
		pr.Get("/{id}/submissions/me", h.ServeMine)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleSuperAdmin))
		pr.Get("/{id}/submissions", h.ServeList)
	})
}

// Routes is mounted under /submissions.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(models.RoleSuperAdmin))
	r.Post("/{id}/approve", h.HandleApprove)
	r.Put("/{id}/score", h.HandleScore)
	return r
}
