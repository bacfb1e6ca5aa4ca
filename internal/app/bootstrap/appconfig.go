// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS, body limits); this
// struct covers the academy itself.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Token authentication
	JWTSecret string        // HS256 signing secret (must be strong in production)
	JWTTTL    time.Duration // Token lifetime

	// Academy calendar and scoring
	AcademyTimezone string         // IANA zone that decides calendar days (e.g., Africa/Lagos)
	Location        *time.Location // AcademyTimezone, loaded; nil when the name is invalid
	OnTimeScore     float64        // Attendance score for marking on the task's day
	LateScore       float64        // Attendance score for marking on a later day

	// Evidence (screenshot) storage
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads/evidence")
	StorageLocalURL  string // URL prefix reviewers fetch screenshots from (e.g., "/files")

	// S3 configuration (only used if StorageType is "s3")
	StorageS3Region string // AWS region
	StorageS3Bucket string // S3 bucket name
	StorageS3Prefix string // Key prefix (e.g., "academyhub/")

	// SuperAdmin bootstrap
	SuperAdminEmail    string
	SuperAdminPassword string

	// Audit logging: "all", "db", "log" or "off" per category
	AuditAuth  string
	AuditAdmin string

	// Login throttling
	LoginIPLimit     int // attempts per address per LoginIPWindow
	LoginIPWindow    time.Duration
	LoginEmailLimit  int // attempts per account per LoginEmailWindow
	LoginEmailWindow time.Duration
}
