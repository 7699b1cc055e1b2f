package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tinylink/internal/domain"
	"tinylink/internal/service"
	"tinylink/pkg/logger"
)

const apiVersion = "1.0"

// HealthChecker reports store connectivity for the health endpoint
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// LinkHandler handles HTTP requests for link operations
type LinkHandler struct {
	service   service.LinkService
	health    HealthChecker
	logger    *logger.Logger
	startedAt time.Time
}

// NewLinkHandler creates a new link handler with dependencies
func NewLinkHandler(service service.LinkService, health HealthChecker, logger *logger.Logger) *LinkHandler {
	return &LinkHandler{
		service:   service,
		health:    health,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// ListLinks handles GET /links
// Returns all links, newest first, for the dashboard
func (h *LinkHandler) ListLinks(c *gin.Context) {
	links, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Data retrived successfully", links)
}

// AddURL handles POST /addUrl
// Allocates a new link with a caller-supplied or generated code
func (h *LinkHandler) AddURL(c *gin.Context) {
	var req domain.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, domain.APIResponse{
			Message:    "Invalid request body",
			StatusCode: http.StatusBadRequest,
			ErrorMsg:   err.Error(),
		})
		return
	}

	link, err := h.service.Allocate(c.Request.Context(), &req, requestScheme(c), c.Request.Host)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusCreated, "Link added successfully", link)
}

// Redirect handles GET /redirect/:code
// Resolves the code, records the visit, and issues a 302 to the target
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	originalURL, err := h.service.Resolve(c.Request.Context(), code)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// 302 so every visit reaches the counter; a 301 would let browsers
	// cache the hop and skip the server entirely
	c.Redirect(http.StatusFound, originalURL)
}

// GetByCode handles GET /code/:code
// Returns the stored link with its click statistics
func (h *LinkHandler) GetByCode(c *gin.Context) {
	code := c.Param("code")

	link, err := h.service.GetByCode(c.Request.Context(), code)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Data retrived successfully", link)
}

// RemoveURL handles GET /remove_url/:code
// Hard-deletes the link. A missing code is reported as 400 to stay
// wire-compatible with existing clients.
func (h *LinkHandler) RemoveURL(c *gin.Context) {
	code := c.Param("code")

	if err := h.service.Remove(c.Request.Context(), code); err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			h.respondFailure(c, http.StatusBadRequest, "Failed to delete the details", "")
			return
		}
		h.respondError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "URL data removed successfully", nil)
}

// Healthz handles GET /healthz
// Probes store connectivity and reports process uptime
func (h *LinkHandler) Healthz(c *gin.Context) {
	if err := h.health.Ping(c.Request.Context()); err != nil {
		h.logger.Error("Health check failed", "error", err)
		c.JSON(http.StatusInternalServerError, domain.HealthResponse{
			Status:   "error",
			Database: "disconnected",
			Message:  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, domain.HealthResponse{
		Status:     "ok",
		Version:    apiVersion,
		Database:   "connected",
		ServerTime: time.Now().UTC(),
		Uptime:     time.Since(h.startedAt).Seconds(),
	})
}

// VerifyAPI handles GET /verifyAPI, a plain liveness echo
func (h *LinkHandler) VerifyAPI(c *gin.Context) {
	c.JSON(http.StatusOK, "API is working")
}

// respond writes a success envelope
func (h *LinkHandler) respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, domain.APIResponse{
		Message:    message,
		StatusCode: status,
		Data:       data,
	})
}

// respondFailure writes a failure envelope
func (h *LinkHandler) respondFailure(c *gin.Context, status int, message, errorMsg string) {
	c.JSON(status, domain.APIResponse{
		Message:    message,
		StatusCode: status,
		ErrorMsg:   errorMsg,
	})
}

// respondError maps domain errors onto the failure envelope
func (h *LinkHandler) respondError(c *gin.Context, err error) {
	var appErr *domain.AppError

	switch {
	case errors.As(err, &appErr):
		if appErr.Internal {
			h.logger.Error("Internal server error", "error", appErr.Err)
			h.respondFailure(c, appErr.StatusCode, "Something went wrong!", appErr.Err.Error())
		} else {
			h.respondFailure(c, appErr.StatusCode, appErr.Message, "")
		}

	case errors.Is(err, domain.ErrLinkNotFound):
		h.respondFailure(c, http.StatusNotFound, "Short code not found in DB", "")

	case errors.Is(err, domain.ErrCodeTaken):
		h.respondFailure(c, http.StatusConflict, "Code already exists. Try another.", "")

	case errors.Is(err, domain.ErrUpdateRaceLost):
		h.respondFailure(c, http.StatusBadRequest, "Failed to update click count", "")

	case errors.Is(err, domain.ErrGenerationExhausted):
		h.logger.Error("Allocation failed", "error", err)
		h.respondFailure(c, http.StatusInternalServerError, "Something went wrong!", err.Error())

	default:
		h.logger.Error("Unexpected error", "error", err)
		h.respondFailure(c, http.StatusInternalServerError, "Something went wrong!", err.Error())
	}
}

// requestScheme derives the scheme the client used, honoring proxies
func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
