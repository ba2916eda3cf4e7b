package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/code-100-precent/IntakeDesk/internal/models"
	"github.com/code-100-precent/IntakeDesk/internal/syncer"
	"github.com/code-100-precent/IntakeDesk/pkg/logger"
	"github.com/code-100-precent/IntakeDesk/pkg/openmic"
	"github.com/code-100-precent/IntakeDesk/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	msgSchemaMissing = "Database tables not found. Please run the database migration script first."
	msgDBConnection  = "Database connection failed. Please check your DSN."
)

// failForError maps a storage error onto the coarse status scheme: anything
// mentioning "connect" is a connectivity problem (503), the rest keeps the
// route's own fallback.
func failForError(c *gin.Context, err error, fallbackStatus int, fallbackMsg string) {
	if strings.Contains(err.Error(), "connect") {
		response.Fail(c, http.StatusServiceUnavailable, msgDBConnection)
		return
	}
	response.Fail(c, fallbackStatus, fallbackMsg)
}

type createBotRequest struct {
	Name   string `json:"name" binding:"required"`
	Domain string `json:"domain" binding:"required"`
	UID    string `json:"uid"`
}

type updateBotRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
	UID    string `json:"uid"`
}

// ListBots returns all local bots. With ?sync=true the OpenMic account is
// reconciled into the local store first.
func (h *Handlers) ListBots(c *gin.Context) {
	schema := models.CheckSchema(h.db)
	if !schema.Exists {
		response.Fail(c, http.StatusServiceUnavailable, msgSchemaMissing)
		return
	}

	if c.Query("sync") == "true" {
		logger.Info("syncing bots from openmic before listing")
		remote := h.openmic.FetchBots(c.Request.Context())
		if remote.Success && len(remote.Data) > 0 {
			syncer.Reconcile(h.db, remote.Data)
		} else {
			logger.Info("no bots found in openmic or sync failed")
		}
	}

	bots, err := models.ListBots(h.db)
	if err != nil {
		logger.Error("listing bots failed", zap.Error(err))
		failForError(c, err, http.StatusInternalServerError, "Failed to fetch bots")
		return
	}
	response.Success(c, bots)
}

// CreateBot registers the bot with OpenMic best-effort and always creates the
// local record. When the platform is unreachable the response still carries
// the bot, with advisory fields describing what is left to do by hand.
func (h *Handlers) CreateBot(c *gin.Context) {
	var req createBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Failed to create bot")
		return
	}
	if !models.ValidDomain(req.Domain) {
		response.Fail(c, http.StatusBadRequest, "Failed to create bot")
		return
	}

	remote := h.openmic.CreateBot(c.Request.Context(), openmic.CreateBotInput{
		Name:   req.Name,
		Domain: req.Domain,
	})

	uid := remote.BotID
	if uid == "" {
		uid = req.UID
	}
	if uid == "" {
		uid = fmt.Sprintf("%s_%d", req.Domain, time.Now().UnixMilli())
	}

	bot := models.Bot{Name: req.Name, Domain: req.Domain, UID: uid}
	if err := h.db.Create(&bot).Error; err != nil {
		logger.Error("creating bot failed", zap.Error(err))
		response.Fail(c, http.StatusBadRequest, "Failed to create bot")
		return
	}

	logger.Info("bot created",
		zap.String("id", bot.ID),
		zap.String("uid", uid),
		zap.Bool("openMicSync", remote.Success),
	)

	message := "Bot created successfully in both systems"
	if !remote.Success {
		message = fmt.Sprintf("Bot created locally. To complete integration: 1) Go to OpenMic dashboard, 2) Create a new bot, 3) Use UID: %s, 4) Configure webhooks with your public URL", uid)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":             true,
		"data":                bot,
		"openMicSync":         remote.Success,
		"openMicInstructions": remote.Error,
		"message":             message,
	})
}

// GetBot returns one bot by local id.
func (h *Handlers) GetBot(c *gin.Context) {
	bot, err := models.GetBotByID(h.db, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Fail(c, http.StatusNotFound, "Bot not found")
			return
		}
		response.Fail(c, http.StatusInternalServerError, "Failed to fetch bot")
		return
	}
	response.Success(c, bot)
}

// UpdateBot patches a bot locally and mirrors the name change to OpenMic
// best-effort; a platform failure never fails the request.
func (h *Handlers) UpdateBot(c *gin.Context) {
	var req updateBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Failed to update bot")
		return
	}
	if req.Domain != "" && !models.ValidDomain(req.Domain) {
		response.Fail(c, http.StatusBadRequest, "Failed to update bot")
		return
	}

	id := c.Param("id")
	current, err := models.GetBotByID(h.db, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Fail(c, http.StatusNotFound, "Bot not found")
			return
		}
		response.Fail(c, http.StatusBadRequest, "Failed to update bot")
		return
	}

	if current.UID != "" && req.Name != "" {
		result := h.openmic.UpdateBot(c.Request.Context(), current.UID, openmic.UpdateBotInput{Name: req.Name})
		if !result.Success {
			logger.Warn("openmic update did not apply", zap.String("uid", current.UID), zap.String("error", result.Error))
		}
	}

	bot, err := models.UpdateBot(h.db, id, req.Name, req.Domain, req.UID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "Failed to update bot")
		return
	}
	response.Success(c, bot)
}

// DeleteBot removes the bot from OpenMic best-effort, then locally (cascading
// its call logs).
func (h *Handlers) DeleteBot(c *gin.Context) {
	id := c.Param("id")
	current, err := models.GetBotByID(h.db, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Fail(c, http.StatusNotFound, "Bot not found")
			return
		}
		response.Fail(c, http.StatusBadRequest, "Failed to delete bot")
		return
	}

	if current.UID != "" {
		result := h.openmic.DeleteBot(c.Request.Context(), current.UID)
		if !result.Success {
			logger.Warn("openmic delete did not apply", zap.String("uid", current.UID), zap.String("error", result.Error))
		}
	}

	if err := models.DeleteBot(h.db, id); err != nil {
		response.Fail(c, http.StatusBadRequest, "Failed to delete bot")
		return
	}
	response.Success(c, nil)
}

// SyncBots pulls the OpenMic account into the local store.
func (h *Handlers) SyncBots(c *gin.Context) {
	logger.Info("starting bot sync from openmic")

	remote := h.openmic.FetchBots(c.Request.Context())
	if !remote.Success {
		response.Fail(c, http.StatusBadRequest, remote.Error)
		return
	}

	result := syncer.Reconcile(h.db, remote.Data)
	logger.Info("bot sync completed",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
	)

	response.Success(c, gin.H{
		"totalFetched": result.TotalFetched,
		"created":      result.Created,
		"updated":      result.Updated,
		"skipped":      result.Skipped,
		"errors":       result.Errors,
		"message":      fmt.Sprintf("Successfully synced bots from OpenMic: %d created, %d updated", result.Created, result.Updated),
	})
}
