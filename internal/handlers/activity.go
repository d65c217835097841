package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"inactivity-service/internal/inactivity"
	"inactivity-service/internal/models"
	"inactivity-service/internal/rabbitmq"
	"inactivity-service/internal/telemetry"
	"inactivity-service/internal/ws"
)

type tracker interface {
	RunScan(ctx context.Context, chatID int64) (models.ScanResult, error)
	SetInactiveDays(ctx context.Context, chatID int64, daysText string) (int, error)
	SetNewUserDays(ctx context.Context, chatID int64, daysText string) (int, error)
	GetConfig(ctx context.Context, chatID int64) (models.ChatConfig, error)
	ListActivity(ctx context.Context, chatID int64) ([]models.ActivityRecord, error)
}

// ActivityHandler manages the moderator REST endpoints.
type ActivityHandler struct {
	tracker   tracker
	hub       *ws.Hub
	publisher rabbitmq.Publisher
	audit     *telemetry.AuditEmitter
}

// NewActivityHandler constructs an ActivityHandler.
func NewActivityHandler(tracker tracker, hub *ws.Hub, publisher rabbitmq.Publisher, audit *telemetry.AuditEmitter) *ActivityHandler {
	return &ActivityHandler{
		tracker:   tracker,
		hub:       hub,
		publisher: publisher,
		audit:     audit,
	}
}

// GetConfig handles GET /chats/:chat_id/config.
func (h *ActivityHandler) GetConfig(c *gin.Context) {
	chatID, ok := chatIDFromParam(c)
	if !ok {
		return
	}

	cfg, err := h.tracker.GetConfig(c.Request.Context(), chatID)
	if err != nil {
		h.emitAudit(c, chatID, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load config"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// SetInactiveDays handles PUT /chats/:chat_id/config/inactive-days.
func (h *ActivityHandler) SetInactiveDays(c *gin.Context) {
	h.setThreshold(c, h.tracker.SetInactiveDays)
}

// SetNewUserDays handles PUT /chats/:chat_id/config/new-user-days.
func (h *ActivityHandler) SetNewUserDays(c *gin.Context) {
	h.setThreshold(c, h.tracker.SetNewUserDays)
}

func (h *ActivityHandler) setThreshold(c *gin.Context, set func(ctx context.Context, chatID int64, daysText string) (int, error)) {
	chatID, ok := chatIDFromParam(c)
	if !ok {
		return
	}

	var req struct {
		Days *int `json:"days" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, chatID, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	days, err := set(c.Request.Context(), chatID, strconv.Itoa(*req.Days))
	if err != nil {
		if errors.Is(err, inactivity.ErrInvalidDays) {
			h.emitAudit(c, chatID, "ERROR", "invalid days value")
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.emitAudit(c, chatID, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update config"})
		return
	}

	h.emitAudit(c, chatID, "INFO", "Config updated")
	c.JSON(http.StatusOK, gin.H{"chat_id": chatID, "days": days})
}

// RunScan handles POST /chats/:chat_id/scan.
func (h *ActivityHandler) RunScan(c *gin.Context) {
	chatID, ok := chatIDFromParam(c)
	if !ok {
		return
	}

	result, err := h.tracker.RunScan(c.Request.Context(), chatID)
	if err != nil {
		if errors.Is(err, inactivity.ErrRosterUnavailable) {
			h.emitAudit(c, chatID, "ERROR", "scan aborted: roster unavailable")
			c.JSON(http.StatusBadGateway, gin.H{"error": "administrator roster unavailable"})
			return
		}
		h.emitAudit(c, chatID, "ERROR", "scan failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
		return
	}

	h.emitAudit(c, chatID, "INFO", "Scan completed")
	if h.publisher != nil {
		if err := h.publisher.Publish(c.Request.Context(), "scans.completed", result); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("scan report publish failed")
		}
	}
	if h.hub != nil {
		h.hub.BroadcastScanResult(chatID, result)
	}
	c.JSON(http.StatusOK, result)
}

// ListActivity handles GET /chats/:chat_id/activity.
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	chatID, ok := chatIDFromParam(c)
	if !ok {
		return
	}

	records, err := h.tracker.ListActivity(c.Request.Context(), chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load activity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *ActivityHandler) emitAudit(c *gin.Context, chatID int64, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), &chatID)
}
