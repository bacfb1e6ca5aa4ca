// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/academyhub/internal/app/academy"
	"github.com/dalemusser/academyhub/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// Storage backends.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// devJWTSecret is only acceptable outside production.
const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for AcademyHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: ACADEMYHUB_MONGO_URI, ACADEMYHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "academy_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Token authentication
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "JWT signing secret (must be strong in production)"},
	{Name: "jwt_ttl", Default: "24h", Desc: "JWT lifetime as a Go duration (e.g., 12h, 168h)"},

	// Academy calendar and scoring
	{Name: "academy_timezone", Default: "UTC", Desc: "IANA timezone used to decide calendar days"},
	{Name: "attendance_score_on_time", Default: "1", Desc: "Attendance score when marked on the task's day"},
	{Name: "attendance_score_late", Default: "0.5", Desc: "Attendance score when marked on a later day"},

	// Evidence storage configuration
	{Name: "storage_type", Default: StorageLocal, Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads/evidence", Desc: "Local storage path for screenshots"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving screenshots to reviewers"},

	// S3 configuration
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "academyhub/", Desc: "S3 key prefix"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of the superadmin user (promotes/creates on startup)"},
	{Name: "superadmin_password", Default: "", Desc: "Initial superadmin password (only set when the account has none)"},

	// Audit logging
	{Name: "audit_log_auth", Default: auditlog.ModeAll, Desc: "Sign-in events: 'all', 'db', 'log' or 'off'"},
	{Name: "audit_log_admin", Default: auditlog.ModeAll, Desc: "Admin actions: 'all', 'db', 'log' or 'off'"},

	// Login throttling
	{Name: "login_ip_limit", Default: 10, Desc: "Login attempts allowed per client address per login_ip_window"},
	{Name: "login_ip_window", Default: "1m", Desc: "Window for login_ip_limit"},
	{Name: "login_email_limit", Default: 5, Desc: "Login attempts allowed per account per login_email_window"},
	{Name: "login_email_window", Default: "5m", Desc: "Window for login_email_limit"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, ACADEMYHUB_* for app) and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ACADEMYHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTTTL:    appValues.Duration("jwt_ttl", 24*time.Hour),

		AcademyTimezone: strings.TrimSpace(appValues.String("academy_timezone")),

		StorageType:      strings.ToLower(strings.TrimSpace(appValues.String("storage_type"))),
		StorageLocalPath: appValues.String("storage_local_path"),
		StorageLocalURL:  appValues.String("storage_local_url"),

		StorageS3Region: appValues.String("storage_s3_region"),
		StorageS3Bucket: appValues.String("storage_s3_bucket"),
		StorageS3Prefix: appValues.String("storage_s3_prefix"),

		SuperAdminEmail:    appValues.String("superadmin_email"),
		SuperAdminPassword: appValues.String("superadmin_password"),

		AuditAuth:  strings.ToLower(strings.TrimSpace(appValues.String("audit_log_auth"))),
		AuditAdmin: strings.ToLower(strings.TrimSpace(appValues.String("audit_log_admin"))),

		LoginIPLimit:     appValues.Int("login_ip_limit"),
		LoginIPWindow:    appValues.Duration("login_ip_window", time.Minute),
		LoginEmailLimit:  appValues.Int("login_email_limit"),
		LoginEmailWindow: appValues.Duration("login_email_window", 5*time.Minute),
	}

	if appCfg.AcademyTimezone == "" {
		appCfg.AcademyTimezone = "UTC"
	}
	if loc, err := time.LoadLocation(appCfg.AcademyTimezone); err == nil {
		appCfg.Location = loc
	}

	appCfg.OnTimeScore, err = parseScore(appValues.String("attendance_score_on_time"), academy.DefaultOnTimeScore)
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("attendance_score_on_time: %w", err)
	}
	appCfg.LateScore, err = parseScore(appValues.String("attendance_score_late"), academy.DefaultLateScore)
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("attendance_score_late: %w", err)
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// AcademyHub validates the MongoDB URI format, the timezone, the token
// secret and the storage settings before anything connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.Location == nil {
		return fmt.Errorf("academy_timezone %q is not a known IANA timezone", appCfg.AcademyTimezone)
	}

	switch {
	case strings.TrimSpace(appCfg.JWTSecret) == "":
		return errors.New("jwt_secret must be set")
	case appCfg.JWTSecret == devJWTSecret && coreCfg != nil && coreCfg.Env == "prod":
		return errors.New("jwt_secret must be changed from the development default in prod")
	case len(appCfg.JWTSecret) < 32:
		logger.Warn("jwt_secret is shorter than 32 characters")
	}
	if appCfg.JWTTTL <= 0 {
		return errors.New("jwt_ttl must be positive")
	}

	for key, mode := range map[string]string{"audit_log_auth": appCfg.AuditAuth, "audit_log_admin": appCfg.AuditAdmin} {
		if !auditlog.ValidMode(mode) {
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", key, mode)
		}
	}
	if appCfg.LoginIPLimit < 1 || appCfg.LoginEmailLimit < 1 {
		return errors.New("login_ip_limit and login_email_limit must be at least 1")
	}
	if appCfg.LoginIPWindow <= 0 || appCfg.LoginEmailWindow <= 0 {
		return errors.New("login_ip_window and login_email_window must be positive")
	}

	if !strings.HasPrefix(appCfg.StorageLocalURL, "/") || appCfg.StorageLocalURL == "/" {
		return errors.New("storage_local_url must be a path below '/' (e.g., /files)")
	}
	switch appCfg.StorageType {
	case StorageLocal:
		if strings.TrimSpace(appCfg.StorageLocalPath) == "" {
			return errors.New("storage_local_path must be set for local storage")
		}
	case StorageS3:
		if appCfg.StorageS3Bucket == "" || appCfg.StorageS3Region == "" {
			return errors.New("s3 storage requires storage_s3_bucket and storage_s3_region")
		}
	default:
		return fmt.Errorf("storage_type must be %q or %q, got %q", StorageLocal, StorageS3, appCfg.StorageType)
	}

	return nil
}

// parseScore reads a non-negative score; blank means def.
func parseScore(s string, def float64) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%q must not be negative", s)
	}
	return v, nil
}
