package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"group-chat-service/internal/chat"
	"group-chat-service/internal/models"
	"group-chat-service/internal/telemetry"
)

// GroupHandler serves the read-only group discovery endpoints.
type GroupHandler struct {
	service *chat.Service
	logger  *zap.SugaredLogger
	audit   *telemetry.AuditEmitter
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(service *chat.Service, logger *zap.SugaredLogger, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{
		service: service,
		logger:  logger,
		audit:   audit,
	}
}

// ListGroups handles GET /api/groups.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.service.ListGroups(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// GetGroup handles GET /api/groups/:name.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	info, err := h.service.GetGroupInfo(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *GroupHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, models.ErrGroupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	h.logger.Errorw("group lookup failed", "path", c.FullPath(), "error", err)
	h.emitAudit(c, "ERROR", "internal error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": models.ClientMessage(err)})
}

func (h *GroupHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), displayNameFromContext(c))
}
