// internal/app/features/reports/routes.go
package reports

import (
	"github.com/dalemusser/academyhub/internal/app/system/auth"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(rr chi.Router) {
		rr.Use(auth.RequireRole(models.RoleSuperAdmin))
		// {week} may carry a .csv suffix; the handler picks the format.
		rr.Get("/weeks/{week}", h.ServeWeek)
	})

	return r
}
