// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by all endpoints. Every
// failure is written as an ErrorResponse with a stable code; 5xx responses
// are logged with the request-scoped logger before the generic body is sent.
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "validation_failed",
//	  "error": "Missing required fields: phone",
//	  "fields": ["phone"]
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-employee-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message, safe to show to users
	Error string `json:"error" example:"Employee not found"`
	// Missing required fields, in declaration order (validation errors only)
	Fields []string `json:"fields,omitempty" example:"name,phone"`
}

// MessageResponse is returned by delete and the liveness check.
type MessageResponse struct {
	Message string `json:"message" example:"Employee with ID 1 deleted successfully"`
	Status  string `json:"status,omitempty" example:"ok"`
}

// fail aborts the request with a structured error. Server errors (>=500) are
// logged with the request-scoped logger; cause is logged but never sent.
func fail(c *gin.Context, status int, code, msg string, cause error) {
	if status >= http.StatusInternalServerError {
		ev := middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code)
		if cause != nil {
			ev = ev.Err(cause)
		}
		ev.Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Error:     msg,
	})
}

// failFields is fail for validation errors that name the offending fields.
func failFields(c *gin.Context, fields []string, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      ErrCodeValidation,
		Error:     msg,
		Fields:    fields,
	})
}

// Fail is the exported variant of fail, used by the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg, nil) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
