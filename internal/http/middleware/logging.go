// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request correlation ID, the request-scoped logger
// and panic recovery:
//
//   - RequestID() reuses or generates X-Request-ID and echoes it back.
//   - RequestLogger() builds a zerolog.Logger carrying the request ID, method
//     and route (plus trace_id under an active span), and stores it on both the Gin context and the request's
//     context.Context so services can log with zerolog.Ctx(ctx).
//   - Recovery() converts panics into the standard JSON 500 body.
//
// Access logs are written by RedactingLogger, since employee payloads and
// query strings may carry emails and phone numbers.
//
// Recommended order: RequestID, RequestLogger, RedactingLogger, Recovery.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// loggerKey is the Gin context key for the request-scoped logger.
	loggerKey = "logger"
	// maxRequestIDLength caps client-supplied IDs; longer ones are replaced.
	maxRequestIDLength = 128
)

// RequestID attaches (or propagates) a correlation identifier per request.
// A client-supplied X-Request-ID is reused when it is at most 128 bytes;
// otherwise a new UUIDv4 is generated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" || len(rid) > maxRequestIDLength {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// RequestIDFrom returns the correlation ID set by RequestID, or "".
func RequestIDFrom(c *gin.Context) string {
	v, _ := c.Get(requestIDKey)
	return asString(v)
}

// RequestLogger attaches a request-scoped logger. The logger is derived from
// the global zerolog logger, so LOG_LEVEL applies to it.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		lc := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("route", route)
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
			lc = lc.Str("trace_id", sc.TraceID().String())
		}
		l := lc.Logger()

		c.Set(loggerKey, &l)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
		c.Next()
	}
}

// Recovery intercepts panics, logs the stack and, if nothing has been
// written yet, responds with:
//
//	{"request_id": "...", "code": "internal_error", "error": "Internal server error"}
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				LoggerFrom(c).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				if c.Writer.Written() {
					c.AbortWithStatus(http.StatusInternalServerError)
					return
				}
				abortJSON(c, http.StatusInternalServerError, "internal_error", "Internal server error")
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or the global logger when
// RequestLogger did not run. The result is never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Str("request_id", RequestIDFrom(c)).Logger()
	return &l
}

// abortJSON writes the error envelope shared with the handlers package.
func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"error":      msg,
	})
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
