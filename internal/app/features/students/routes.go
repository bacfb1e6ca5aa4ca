// internal/app/features/students/routes.go
package students

import (
	"github.com/dalemusser/academyhub/internal/app/system/auth"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /students. Superadmin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(models.RoleSuperAdmin))
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Post("/import", h.HandleImport)
	return r
}
