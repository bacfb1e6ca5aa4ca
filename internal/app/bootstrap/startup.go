// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	userstore "github.com/dalemusser/academyhub/internal/app/store/users"
	"github.com/dalemusser/academyhub/internal/app/system/timeouts"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n))
	}
	return ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, appCfg.SuperAdminPassword, logger)
}

// ensureSuperAdmin makes sure the configured account exists with the
// superadmin role. An existing user is promoted; a password is only set
// when the account has none.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	users := userstore.New(deps.MongoDatabase)

	hash := ""
	if password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash superadmin password: %w", err)
		}
		hash = string(b)
	}

	u, err := users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		created, err := users.Create(ctx, models.User{
			FullName:     "Super Admin",
			Email:        email,
			Role:         models.RoleSuperAdmin,
			Status:       models.StatusActive,
			PasswordHash: hash,
		})
		if err != nil {
			return fmt.Errorf("create superadmin: %w", err)
		}
		logger.Info("superadmin created", zap.String("user_id", created.ID.Hex()))
		if hash == "" {
			logger.Warn("superadmin has no password; set superadmin_password to allow sign-in")
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up superadmin: %w", err)
	}

	if u.Role != models.RoleSuperAdmin {
		if err := users.SetRole(ctx, u.ID, models.RoleSuperAdmin); err != nil {
			return fmt.Errorf("promote superadmin: %w", err)
		}
		logger.Info("user promoted to superadmin", zap.String("user_id", u.ID.Hex()))
	}
	if u.PasswordHash == "" && hash != "" {
		if err := users.SetPasswordHash(ctx, u.ID, hash); err != nil {
			return fmt.Errorf("set superadmin password: %w", err)
		}
	}
	return nil
}
