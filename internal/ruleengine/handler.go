package ruleengine

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freshdesk/jaya-lib/internal/logger"
	"github.com/freshdesk/jaya-lib/internal/scheduler"
	"github.com/freshdesk/jaya-lib/pkg/errors"
	"github.com/freshdesk/jaya-lib/pkg/models"
)

// Handler exposes the engine over HTTP: the scheduler callback webhook,
// a direct event ingestion endpoint, and minimal rule CRUD.
type Handler struct {
	service *Service
	logger  logger.Logger
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		v1.POST("/hooks/timer-callback", h.TimerCallback)
		v1.POST("/events", h.IngestEvent)

		rules := v1.Group("/apps/:app_id/rules")
		{
			rules.GET("", h.ListRules)
			rules.POST("", h.CreateRule)
		}
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
}

// TimerCallback services a fired schedule delivered by the external
// scheduler. A 2xx acknowledges the callback; the scheduler retries
// anything else.
func (h *Handler) TimerCallback(c *gin.Context) {
	var callback scheduler.CallbackPayload
	if err := c.ShouldBindJSON(&callback); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	if err := h.service.HandleTimerCallback(c.Request.Context(), &callback); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

// IngestEvent accepts a product event directly, bypassing the broker.
// Used by webhook-style producers and manual replays.
func (h *Handler) IngestEvent(c *gin.Context) {
	var payload models.ProductEventPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	if err := h.service.ProcessEvent(c.Request.Context(), &payload); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.service.ListRules(c.Request.Context(), c.Param("app_id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (h *Handler) CreateRule(c *gin.Context) {
	var rule Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}
	rule.AppID = c.Param("app_id")

	if err := h.service.CreateRule(c.Request.Context(), &rule); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rule)
}
