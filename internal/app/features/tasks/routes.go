// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/dalemusser/academyhub/internal/app/system/auth"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Mount registers the task routes on r, which is mounted at /tasks and is
// shared with the attendance and submission features.
func Mount(r chi.Router, h *Handler) {
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/{id}", h.ServeTask)
		pr.Get("/{id}/window", h.ServeWindow)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleSuperAdmin))
		pr.Post("/", h.HandleCreate)
		pr.Patch("/{id}/activation", h.HandleActivation)
	})
}

// WeekRoutes is mounted under /weeks.
func WeekRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/{id}/tasks", h.ServeWeekTasks)
	return r
}
