package bootstrap

import (
	"github.com/code-100-precent/IntakeDesk/pkg/config"
	"github.com/code-100-precent/IntakeDesk/pkg/logger"
	"go.uber.org/zap"
)

// LogConfigInfo prints the effective configuration at startup, with secrets
// reduced to presence flags.
func LogConfigInfo() {
	cfg := config.GlobalConfig
	logger.Info("configuration loaded",
		zap.String("serverName", cfg.ServerName),
		zap.String("serverUrl", cfg.ServerURL),
		zap.String("addr", cfg.Addr),
		zap.String("mode", cfg.Mode),
		zap.String("apiPrefix", cfg.APIPrefix),
		zap.String("dbDriver", cfg.DBDriver),
		zap.Bool("openMicConfigured", cfg.OpenMicAPIKey != ""),
		zap.String("openMicBaseUrl", cfg.OpenMicBaseURL),
	)
}
