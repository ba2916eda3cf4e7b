package handlers

import (
	"time"

	"github.com/code-100-precent/IntakeDesk/pkg/config"
	"github.com/code-100-precent/IntakeDesk/pkg/openmic"
	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

// Handlers owns the request handlers and their dependencies. The database
// handle and OpenMic client are constructed once at startup and injected here;
// nothing reaches for an ambient global.
type Handlers struct {
	db      *gorm.DB
	openmic *openmic.Client

	// preCallData keeps the snapshot generated for a call id so the post-call
	// handler can attach it to the stored log. Entries expire on their own.
	preCallData *gocache.Cache
}

func NewHandlers(db *gorm.DB, client *openmic.Client) *Handlers {
	return &Handlers{
		db:          db,
		openmic:     client,
		preCallData: gocache.New(15*time.Minute, 30*time.Minute),
	}
}

func (h *Handlers) Register(engine *gin.Engine) {
	r := engine.Group(config.GlobalConfig.APIPrefix)

	h.registerBotRoutes(r)
	h.registerCallLogRoutes(r)
	h.registerWebhookRoutes(r)
	h.registerFunctionRoutes(r)
	h.registerSystemRoutes(r)
}

// registerBotRoutes Bot Module
func (h *Handlers) registerBotRoutes(r *gin.RouterGroup) {
	bots := r.Group("bots")
	{
		bots.GET("", h.ListBots)
		bots.POST("", h.CreateBot)

		// Sync must be registered before /:id
		bots.POST("/sync", h.SyncBots)

		bots.GET("/:id", h.GetBot)
		bots.PATCH("/:id", h.UpdateBot)
		bots.DELETE("/:id", h.DeleteBot)
	}
}

// registerCallLogRoutes CallLog Module
func (h *Handlers) registerCallLogRoutes(r *gin.RouterGroup) {
	r.GET("/call-logs", h.ListCallLogs)
}

// registerWebhookRoutes Webhook Module (no auth; OpenMic delivers these)
func (h *Handlers) registerWebhookRoutes(r *gin.RouterGroup) {
	r.POST("/pre-call", h.PreCallWebhook)
	r.POST("/post-call", h.PostCallWebhook)
	r.POST("/test-call", h.CreateTestCall)
}

// registerFunctionRoutes in-call function callbacks invoked by OpenMic
func (h *Handlers) registerFunctionRoutes(r *gin.RouterGroup) {
	functions := r.Group("functions")
	{
		functions.POST("/fetch_patient_details", h.FetchPatientDetails)
		functions.POST("/fetch_case_details", h.FetchCaseDetails)
		functions.POST("/fetch_visitor_details", h.FetchVisitorDetails)
	}
}

// registerSystemRoutes System Module
func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	r.GET("/health", h.HealthCheck)
	r.GET("/debug/openmic", h.DebugOpenMic)
}
