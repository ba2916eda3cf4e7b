package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/code-100-precent/IntakeDesk/cmd/bootstrap"
	handlers "github.com/code-100-precent/IntakeDesk/internal/handler"
	"github.com/code-100-precent/IntakeDesk/pkg/config"
	"github.com/code-100-precent/IntakeDesk/pkg/logger"
	"github.com/code-100-precent/IntakeDesk/pkg/middleware"
	"github.com/code-100-precent/IntakeDesk/pkg/openmic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type IntakeDeskApp struct {
	db       *gorm.DB
	handlers *handlers.Handlers
}

func NewIntakeDeskApp(db *gorm.DB, client *openmic.Client) *IntakeDeskApp {
	return &IntakeDeskApp{
		db:       db,
		handlers: handlers.NewHandlers(db, client),
	}
}

func (app *IntakeDeskApp) RegisterRoutes(r *gin.Engine) {
	// Register API routes (with /api prefix)
	app.handlers.Register(r)
}

func main() {
	// 1. Parse Command Line Parameters
	mode := flag.String("mode", "", "running environment (development, test, production)")
	initSQL := flag.String("init-sql", "", "path to database init .sql script (optional)")
	flag.Parse()

	// 2. Set Environment Variables
	if *mode != "" {
		os.Setenv("APP_ENV", *mode)
	}

	// 3. Load Global Configuration
	if err := config.Load(); err != nil {
		panic("config load failed: " + err.Error())
	}

	// 4. Load Log Configuration
	err := logger.Init(&config.GlobalConfig.Log, config.GlobalConfig.Mode)
	if err != nil {
		panic(err)
	}

	// 5. Print Configuration
	bootstrap.LogConfigInfo()

	// 6. Load Data Source
	db, err := bootstrap.SetupDatabase(os.Stdout, &bootstrap.Options{
		InitSQLPath: *initSQL,                             // Can be specified via --init-sql
		AutoMigrate: true,                                 // Whether to migrate entities
		SeedNonProd: os.Getenv("APP_ENV") != "production", // Non-production demo bots
	})
	if err != nil {
		logger.Error("database setup failed", zap.Error(err))
		return
	}

	// 7. Load Base Configs
	var addr = config.GlobalConfig.Addr
	if addr == "" {
		addr = ":7080"
	}

	logger.Info("checked config -- addr: ", zap.String("addr", addr))
	logger.Info("checked config -- db-driver: ", zap.String("db-driver", config.GlobalConfig.DBDriver))
	logger.Info("checked config -- mode: ", zap.String("mode", config.GlobalConfig.Mode))

	// 8. Build OpenMic Client
	client := openmic.NewClient(
		config.GlobalConfig.OpenMicAPIKey,
		config.GlobalConfig.OpenMicBaseURL,
		config.GlobalConfig.ServerURL,
	)
	if !client.Configured() {
		logger.Warn("OPENMIC_API_KEY not set; platform operations will degrade to local-only")
	}

	// 9. New App
	app := NewIntakeDeskApp(db, client)

	// 10. Initialize Gin Routing
	if config.GlobalConfig.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()        // Use gin.New() instead of gin.Default() to avoid automatic redirects
	r.Use(gin.Recovery()) // Manually add Recovery middleware

	// Disable automatic redirects to avoid CORS issues caused by 307 redirects
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	// 11. use middleware
	// Cors Handle Middleware
	r.Use(middleware.CorsMiddleware())

	// Logger Handle Middleware
	r.Use(middleware.LoggerMiddleware(zap.L()))

	// 12. Register Routes
	app.RegisterRoutes(r)

	// 13. Start HTTP Server
	httpServer := &http.Server{
		Addr:           addr,
		Handler:        r,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("HTTP server run failed", zap.Error(err))
	}
}
