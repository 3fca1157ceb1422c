package migration

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schemaflow/schemaflow/internal/apperror"
	"github.com/schemaflow/schemaflow/internal/broadcast"
	"github.com/schemaflow/schemaflow/internal/httpapi"
	"github.com/schemaflow/schemaflow/internal/logger"
)

// Handler handles HTTP requests for migration operations
type Handler struct {
	service    *Service
	subscriber broadcast.Subscriber
	responses  httpapi.ResponseHandler
	logger     logger.Logger
}

// NewHandler creates a new migration handler
func NewHandler(service *Service, subscriber broadcast.Subscriber, responses httpapi.ResponseHandler, log logger.Logger) *Handler {
	return &Handler{
		service:    service,
		subscriber: subscriber,
		responses:  responses,
		logger:     log,
	}
}

// RegisterRoutes wires the migration routes onto the router
func (h *Handler) RegisterRoutes(router *gin.Engine, identity gin.HandlerFunc) {
	group := router.Group("/migration", identity)
	group.POST("/migrate", h.handleMigrate)
	group.GET("/status/:id", h.handleStatus)
	group.POST("/rollback/:id", h.handleRollback)
	group.POST("/cancel/:id", h.handleCancel)
	group.GET("/progress", h.handleProgress)
}

type migrateRequest struct {
	UserID   string `json:"userId"`
	SourceDB string `json:"sourceDB"`
	TargetDB string `json:"targetDB"`
}

type migrateResponse struct {
	MigrationID string `json:"migrationId"`
}

func (h *Handler) handleMigrate(c *gin.Context) {
	var req migrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responses.ValidationErrorResponse(c, "body", "Invalid request body")
		return
	}
	if req.UserID == "" {
		req.UserID = httpapi.UserID(c)
	}

	id, err := h.service.StartMigration(c.Request.Context(), req.UserID, req.SourceDB, req.TargetDB)
	if err != nil {
		var validation *apperror.ValidationError
		if errors.As(err, &validation) {
			h.responses.ValidationErrorResponse(c, validation.Field, validation.Message)
			return
		}
		h.responses.InternalErrorResponse(c, "Migration failed to start", err)
		return
	}

	h.responses.CreatedResponse(c, migrateResponse{MigrationID: id}, "Migration started")
}

func (h *Handler) handleStatus(c *gin.Context) {
	current, err := h.service.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			h.responses.NotFoundResponse(c, "Migration not found")
			return
		}
		h.responses.InternalErrorResponse(c, "Failed to read migration status", err)
		return
	}

	h.responses.SuccessResponse(c, gin.H{"status": current}, "")
}

func (h *Handler) handleRollback(c *gin.Context) {
	message, err := h.service.Rollback(c.Request.Context(), c.Param("id"))
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			h.responses.NotFoundResponse(c, "Migration not found")
			return
		}
		var rollbackErr *apperror.RollbackError
		if errors.As(err, &rollbackErr) {
			status := http.StatusBadRequest
			if rollbackErr.Cause != nil {
				status = http.StatusInternalServerError
			}
			h.responses.ErrorResponse(c, status, "ROLLBACK_FAILED", rollbackErr.Message, rollbackErr.Cause)
			return
		}
		h.responses.InternalErrorResponse(c, "Rollback failed", err)
		return
	}

	h.responses.SuccessResponse(c, gin.H{"success": true, "message": message}, message)
}

func (h *Handler) handleCancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			h.responses.NotFoundResponse(c, "Migration not found")
			return
		}
		h.responses.InternalErrorResponse(c, "Failed to cancel migration", err)
		return
	}

	h.responses.SuccessResponse(c, nil, "Cancellation requested")
}
