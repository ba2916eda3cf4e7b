package config

import (
	"errors"
	"log"
	"strings"

	"github.com/code-100-precent/IntakeDesk/pkg/logger"
	"github.com/code-100-precent/IntakeDesk/pkg/utils"
)

// Config holds the process-wide configuration, loaded once at startup.
type Config struct {
	ServerName string `env:"SERVER_NAME"`
	// ServerURL is the public base URL of this deployment. OpenMic calls back
	// into it during live calls, so function manifests embed it.
	ServerURL string `env:"SERVER_URL"`
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"`
	APIPrefix string `env:"API_PREFIX"`

	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`

	// OpenMicAPIKey is optional. Without it every OpenMic operation degrades to
	// an explicit error string instead of an API call; nothing crashes.
	OpenMicAPIKey  string `env:"OPENMIC_API_KEY"`
	OpenMicBaseURL string `env:"OPENMIC_BASE_URL"`

	Log logger.LogConfig
}

var GlobalConfig *Config

// Load reads the environment (plus an optional .env file) into GlobalConfig.
// The DSN is mandatory for the postgres driver; everything else has a default.
func Load() error {
	env := utils.GetEnv("APP_ENV")
	if err := utils.LoadEnv(env); err != nil {
		log.Printf("Note: .env file not found or failed to load: %v (using default values)", err)
	}

	cfg := &Config{
		ServerName:     getStringOrDefault("SERVER_NAME", "IntakeDesk"),
		ServerURL:      getStringOrDefault("SERVER_URL", "http://localhost:7080"),
		Addr:           getStringOrDefault("ADDR", ":7080"),
		Mode:           getStringOrDefault("MODE", "development"),
		APIPrefix:      getStringOrDefault("API_PREFIX", "/api"),
		DBDriver:       getStringOrDefault("DB_DRIVER", "sqlite"),
		DSN:            getStringOrDefault("DSN", "./intakedesk.db"),
		OpenMicAPIKey:  utils.GetEnv("OPENMIC_API_KEY"),
		OpenMicBaseURL: getStringOrDefault("OPENMIC_BASE_URL", "https://api.openmic.ai/v1"),
		Log: logger.LogConfig{
			Level:      getStringOrDefault("LOG_LEVEL", "info"),
			Filename:   getStringOrDefault("LOG_FILENAME", "./logs/app.log"),
			MaxSize:    getIntOrDefault("LOG_MAX_SIZE", 100),
			MaxAge:     getIntOrDefault("LOG_MAX_AGE", 30),
			MaxBackups: getIntOrDefault("LOG_MAX_BACKUPS", 5),
		},
	}

	if strings.HasPrefix(cfg.DBDriver, "postgres") && utils.GetEnv("DSN") == "" {
		return errors.New("DSN environment variable is not set")
	}

	GlobalConfig = cfg
	return nil
}

func getStringOrDefault(key, defaultValue string) string {
	value := utils.GetEnv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := utils.GetIntEnv(key)
	if value == 0 {
		return defaultValue
	}
	return int(value)
}
