// internal/app/features/attendance/routes.go
package attendance

import (
	"github.com/dalemusser/academyhub/internal/app/system/auth"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Mount registers the attendance routes on the /tasks router.
func Mount(r chi.Router, h *Handler) {
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleStudent))
		pr.Post("/{id}/attendance", h.HandleMark)
		pr.Get("/{id}/attendance/me", h.ServeMine)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleSuperAdmin))
		pr.Get("/{id}/attendance", h.ServeList)
	})
}
