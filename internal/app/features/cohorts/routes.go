// internal/app/features/cohorts/routes.go
package cohorts

import (
	"github.com/dalemusser/academyhub/internal/app/system/auth"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /cohorts. Reads need a signed-in user; writes
// are superadmin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeCohort)
		pr.Get("/{id}/weeks", h.ServeWeeks)
		pr.Get("/{id}/weeks/current", h.ServeCurrentWeek)
		pr.Get("/{id}/task-types", h.ServeTaskTypes)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleSuperAdmin))
		pr.Post("/", h.HandleCreate)
		pr.Post("/{id}/weeks", h.HandleAppendWeek)
		pr.Post("/{id}/weeks/generate", h.HandleGenerateWeeks)
		pr.Post("/{id}/task-types", h.HandleCreateTaskType)
	})

	return r
}
