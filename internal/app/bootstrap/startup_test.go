package bootstrap

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/dalemusser/academyhub/internal/testutil"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureSuperAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}

	err := ensureSuperAdmin(ctx, deps, "SuperAdmin@Test.com", "s3cret-pass", testLogger())
	if err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	var user models.User
	err = db.Collection("users").FindOne(ctx, bson.M{"email": "superadmin@test.com"}).Decode(&user)
	if err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}
	if user.Role != models.RoleSuperAdmin {
		t.Errorf("expected role 'superadmin', got %q", user.Role)
	}
	if user.Status != models.StatusActive {
		t.Errorf("expected status 'active', got %q", user.Status)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")) != nil {
		t.Error("password hash does not match")
	}
}

func TestEnsureSuperAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing := testutil.NewFixtures(t, db).CreateStudent(ctx, "Existing User", "existing@test.com", "M9")
	deps := DBDeps{MongoDatabase: db}

	if err := ensureSuperAdmin(ctx, deps, "existing@test.com", "pw-123456", testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": existing.ID}).Decode(&user); err != nil {
		t.Fatalf("failed to find user: %v", err)
	}
	if user.Role != models.RoleSuperAdmin {
		t.Errorf("expected role 'superadmin', got %q", user.Role)
	}
	if user.PasswordHash == "" {
		t.Error("expected password to be set on an account without one")
	}
}

func TestEnsureSuperAdmin_KeepsExistingPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := ensureSuperAdmin(ctx, deps, "root@test.com", "first", testLogger()); err != nil {
		t.Fatalf("first ensureSuperAdmin failed: %v", err)
	}
	if err := ensureSuperAdmin(ctx, deps, "root@test.com", "second", testLogger()); err != nil {
		t.Fatalf("second ensureSuperAdmin failed: %v", err)
	}

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": "root@test.com"})
	if err != nil || n != 1 {
		t.Fatalf("users = %d, err = %v", n, err)
	}
	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"email": "root@test.com"}).Decode(&user); err != nil {
		t.Fatalf("failed to find user: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("first")) != nil {
		t.Error("existing password was replaced")
	}
}

func TestEnsureSuperAdmin_NoEmail(t *testing.T) {
	// No database access happens without an email.
	if err := ensureSuperAdmin(t.Context(), DBDeps{}, "  ", "pw", testLogger()); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:         "mongodb://localhost:27017",
		MongoDatabase:    "academy_hub",
		JWTSecret:        "0123456789abcdef0123456789abcdef",
		JWTTTL:           time.Hour,
		AcademyTimezone:  "UTC",
		Location:         time.UTC,
		StorageType:      StorageLocal,
		StorageLocalPath: "./uploads",
		StorageLocalURL:  "/files",
		AuditAuth:        "all",
		AuditAdmin:       "db",
		LoginIPLimit:     10,
		LoginIPWindow:    time.Minute,
		LoginEmailLimit:  5,
		LoginEmailWindow: 5 * time.Minute,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr bool
	}{
		{"valid", func(c *AppConfig) {}, false},
		{"bad mongo uri", func(c *AppConfig) { c.MongoURI = "http://nope" }, true},
		{"unknown timezone", func(c *AppConfig) { c.AcademyTimezone = "Mars/Base"; c.Location = nil }, true},
		{"empty secret", func(c *AppConfig) { c.JWTSecret = " " }, true},
		{"short secret warns only", func(c *AppConfig) { c.JWTSecret = "short" }, false},
		{"zero ttl", func(c *AppConfig) { c.JWTTTL = 0 }, true},
		{"unknown storage", func(c *AppConfig) { c.StorageType = "ftp" }, true},
		{"root url", func(c *AppConfig) { c.StorageLocalURL = "/" }, true},
		{"s3 with root url", func(c *AppConfig) {
			c.StorageType = StorageS3
			c.StorageS3Region = "eu-west-1"
			c.StorageS3Bucket = "evidence"
			c.StorageLocalURL = "/"
		}, true},
		{"s3 without bucket", func(c *AppConfig) { c.StorageType = StorageS3; c.StorageS3Region = "eu-west-1" }, true},
		{"unknown audit mode", func(c *AppConfig) { c.AuditAdmin = "sometimes" }, true},
		{"audit off", func(c *AppConfig) { c.AuditAuth = "off" }, false},
		{"zero login limit", func(c *AppConfig) { c.LoginEmailLimit = 0 }, true},
		{"zero login window", func(c *AppConfig) { c.LoginIPWindow = 0 }, true},
		{"s3 complete", func(c *AppConfig) {
			c.StorageType = StorageS3
			c.StorageS3Region = "eu-west-1"
			c.StorageS3Bucket = "evidence"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(nil, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewStorage_Local(t *testing.T) {
	cfg := validConfig()
	cfg.StorageLocalPath = t.TempDir()

	store, err := newStorage(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("newStorage: %v", err)
	}
	if _, ok := store.(*storage.Local); !ok {
		t.Fatalf("store = %T, want *storage.Local", store)
	}
	if err := store.Put(context.Background(), "evidence/2025/01/0a1b2c3d-x.png", strings.NewReader("x"), nil); err != nil {
		t.Errorf("Put: %v", err)
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"", 1, false},
		{"0.75", 0.75, false},
		{" 2 ", 2, false},
		{"-1", 0, true},
		{"1abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseScore(tt.in, 1)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
