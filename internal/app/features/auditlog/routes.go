// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/academyhub/internal/app/system/auth"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /audit. Superadmin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(models.RoleSuperAdmin))
	r.Get("/", h.ServeList)
	r.Get("/failed-logins", h.ServeFailedLogins)
	return r
}
