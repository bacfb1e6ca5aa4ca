// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/academyhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown runs after the HTTP server has drained. In-flight submissions
// have either committed or been aborted by then, so only the Mongo client
// remains to close. Evidence backends hold no open handles.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoClient == nil {
		return nil
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), logger, "mongo disconnect")
	defer cancel()

	logger.Info("disconnecting MongoDB client",
		zap.String("database", appCfg.MongoDatabase),
		zap.String("storage", appCfg.StorageType))
	if err := deps.MongoClient.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongo disconnect: %w", err)
	}
	return nil
}
