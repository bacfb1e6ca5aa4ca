// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/academyhub/internal/app/academy"
	attendancefeature "github.com/dalemusser/academyhub/internal/app/features/attendance"
	auditfeature "github.com/dalemusser/academyhub/internal/app/features/auditlog"
	cohortsfeature "github.com/dalemusser/academyhub/internal/app/features/cohorts"
	healthfeature "github.com/dalemusser/academyhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/academyhub/internal/app/features/login"
	reportsfeature "github.com/dalemusser/academyhub/internal/app/features/reports"
	studentsfeature "github.com/dalemusser/academyhub/internal/app/features/students"
	submissionsfeature "github.com/dalemusser/academyhub/internal/app/features/submissions"
	tasksfeature "github.com/dalemusser/academyhub/internal/app/features/tasks"
	"github.com/dalemusser/academyhub/internal/app/store/audit"
	"github.com/dalemusser/academyhub/internal/app/system/auditlog"
	"github.com/dalemusser/academyhub/internal/app/system/auth"
	"github.com/dalemusser/academyhub/internal/app/system/evidence"
	"github.com/dalemusser/academyhub/internal/app/system/metrics"
	"github.com/dalemusser/academyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Every feature shares one academy.Settings
// so they agree on the timezone, the scores and the metrics sink.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	tokens, err := auth.NewManager(appCfg.JWTSecret, appCfg.JWTTTL, logger)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}

	m := metrics.New()
	set := academy.Settings{
		Location: appCfg.Location,
		Scores:   &academy.Scores{OnTime: appCfg.OnTimeScore, Late: appCfg.LateScore},
		Metrics:  m,
		Logger:   logger,
	}
	db := deps.MongoDatabase
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditAuth,
		Admin: appCfg.AuditAdmin,
	})
	limiter := ratelimit.NewLoginLimiter(
		appCfg.LoginIPLimit, appCfg.LoginIPWindow,
		appCfg.LoginEmailLimit, appCfg.LoginEmailWindow, nil)

	r := chi.NewRouter()

	// Global auth middleware: verifies the bearer token, if any, and puts
	// the user in the request context for auth.CurrentUser(r).
	r.Use(tokens.LoadUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, appCfg.StorageType, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", m.Handler())

	// Authentication
	loginHandler := loginfeature.NewHandler(db, tokens, limiter, logger)
	loginHandler.Audit = audits
	r.Mount("/login", loginfeature.Routes(loginHandler))

	// Student directory and roster import
	studentsHandler := studentsfeature.NewHandler(db, logger)
	studentsHandler.Audit = audits
	r.Mount("/students", studentsfeature.Routes(studentsHandler))

	// Cohorts, weeks and task types
	cohortsHandler := cohortsfeature.NewHandler(db, set, logger)
	cohortsHandler.Audit = audits
	r.Mount("/cohorts", cohortsfeature.Routes(cohortsHandler))

	// Daily tasks and the per-task attendance and submission endpoints
	tasksHandler := tasksfeature.NewHandler(db, set, logger)
	attendanceHandler := attendancefeature.NewHandler(db, set, logger)
	submissionsHandler := submissionsfeature.NewHandler(db, set, evidence.NewUploader(deps.Storage), logger)
	tasksHandler.Audit = audits
	submissionsHandler.Audit = audits
	r.Route("/tasks", func(tr chi.Router) {
		tasksfeature.Mount(tr, tasksHandler)
		attendancefeature.Mount(tr, attendanceHandler)
		submissionsfeature.Mount(tr, submissionsHandler)
	})
	r.Mount("/weeks", tasksfeature.WeekRoutes(tasksHandler))
	r.Mount("/submissions", submissionsfeature.Routes(submissionsHandler))

	r.Mount(appCfg.StorageLocalURL, submissionsfeature.EvidenceRoutes(deps.Storage, logger))

	// Reports
	reportsHandler := reportsfeature.NewHandler(db, set, logger)
	r.Mount("/reports", reportsfeature.Routes(reportsHandler))

	// Audit trail
	auditHandler := auditfeature.NewHandler(db, appCfg.Location, logger)
	r.Mount("/audit", auditfeature.Routes(auditHandler))

	return r, nil
}
