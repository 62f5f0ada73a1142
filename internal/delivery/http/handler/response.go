package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	svcErr "github.com/grapeapp/grape-backend/internal/errors"
	"github.com/grapeapp/grape-backend/internal/logger"
)

// ContextUserID is the gin context key holding the authenticated user's id.
const ContextUserID = "user_id"

// SuccessResponse represents success response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// redactErrors hides upstream failure details from clients. Set once at startup.
var redactErrors bool

func SetRedactErrors(redact bool) {
	redactErrors = redact
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, SuccessResponse{Success: true, Message: message, Data: data})
}

// RespondError writes the error envelope for err and aborts the chain.
// Internal and upstream failures are logged with their cause.
func RespondError(c *gin.Context, err error) {
	status := svcErr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"kind", svcErr.KindOf(err).String(),
			"error", err,
		)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Message: svcErr.PublicMessage(err, redactErrors),
	})
}

func badRequest(c *gin.Context, message string) {
	RespondError(c, svcErr.Validation(message))
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// requireUser returns the caller id or answers 401.
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := currentUserID(c)
	if !ok {
		RespondError(c, svcErr.Unauthorized("unauthorized"))
	}
	return id, ok
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
