package handlers

import (
	"net/http"
	"time"

	"github.com/code-100-precent/IntakeDesk/internal/models"
	"github.com/code-100-precent/IntakeDesk/pkg/config"
	"github.com/code-100-precent/IntakeDesk/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const version = "1.0.0"

// HealthCheck reports liveness for load balancers and the dashboard's status
// widget. Unlike the rest of the API it answers with a bare status document,
// not the success envelope: 200 when the database is reachable and migrated,
// 503 otherwise.
func (h *Handlers) HealthCheck(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		logger.Error("health check database ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services": gin.H{
				"database": "disconnected",
				"api":      "operational",
				"schema":   "unknown",
			},
			"error": "Database connection failed",
		})
		return
	}

	schema := models.CheckSchema(h.db)
	status := "healthy"
	schemaState := "ready"
	httpStatus := http.StatusOK
	body := gin.H{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services": gin.H{
			"database": "connected",
			"api":      "operational",
		},
		"version": version,
	}
	if !schema.Exists {
		status = "unhealthy"
		schemaState = "missing"
		httpStatus = http.StatusServiceUnavailable
		body["error"] = "Database tables not found. Please run the initialization script."
	}
	body["status"] = status
	body["services"].(gin.H)["schema"] = schemaState

	c.JSON(httpStatus, body)
}

// DebugOpenMic exercises the OpenMic credentials end to end and reports what
// the platform answered. Diagnostic only; never mutates anything.
func (h *Handlers) DebugOpenMic(c *gin.Context) {
	apiKey := config.GlobalConfig.OpenMicAPIKey
	logger.Info("debug openmic connectivity check",
		zap.Bool("apiKeyConfigured", apiKey != ""),
		zap.Int("apiKeyLength", len(apiKey)),
	)

	result := h.openmic.FetchBots(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"apiKeyConfigured": apiKey != "",
			"apiKeyLength":     len(apiKey),
			"fetchResult": gin.H{
				"success": result.Success,
				"data":    result.Data,
				"error":   result.Error,
			},
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}
