// Package errorx turns domain errors into localized JSON API errors.
package errorx

import (
	"fmt"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amoylab/taskflow/internal/i18n"
	apperr "github.com/amoylab/taskflow/pkg/errors"
)

// ErrorHandler provides unified error handling capabilities
type ErrorHandler struct {
	logger *zap.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger.Named("errorx"),
	}
}

// HandleError writes err as a localized APIError and aborts the request
func (h *ErrorHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	apiErr := FromError(err)
	apiErr = Localize(apiErr, i18n.FromContext(c), i18n.Lang(c))
	apiErr.TraceID = ExtractTraceID(c)
	apiErr.Timestamp = time.Now().UTC().Format(time.RFC3339)

	h.logError(c, apiErr, err)
	c.AbortWithStatusJSON(apiErr.HTTPStatus, gin.H{
		"error": apiErr,
	})
}

// logError logs with a level derived from severity. Critical errors carry
// a stack trace.
func (h *ErrorHandler) logError(c *gin.Context, apiErr *APIError, originalErr error) {
	fields := []zap.Field{
		zap.String("trace_id", apiErr.TraceID),
		zap.String("error_code", apiErr.Code),
		zap.String("kind", string(apiErr.Kind)),
		zap.Int("http_status", apiErr.HTTPStatus),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.String("client_ip", c.ClientIP()),
		zap.Error(originalErr),
	}
	if len(apiErr.Details) > 0 {
		fields = append(fields, zap.Any("details", apiErr.Details))
	}

	switch apiErr.Severity {
	case SeverityInfo:
		h.logger.Info("request rejected", fields...)
	case SeverityWarning:
		h.logger.Warn("request denied", fields...)
	case SeverityCritical:
		buf := make([]byte, 4096)
		n := runtime.Stack(buf, false)
		fields = append(fields, zap.String("stack_trace", string(buf[:n])))
		h.logger.Error("request failed", fields...)
	default:
		h.logger.Error("request failed", fields...)
	}
}

// ErrorMiddleware renders the last error attached with c.Error
func (h *ErrorHandler) ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			h.HandleError(c, c.Errors.Last().Err)
		}
	}
}

// RecoveryMiddleware turns panics into a critical internal error
func (h *ErrorHandler) RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		panicErr := errPanic.build(apperr.KindInternal, "", nil)
		h.logger.Error("panic recovered", zap.String("panic", fmt.Sprint(recovered)))
		h.HandleError(c, panicErr)
	})
}

// ExtractTraceID returns the request trace id, reusing X-Trace-Id when the
// client sent one
func ExtractTraceID(c *gin.Context) string {
	if traceID := c.GetString("trace_id"); traceID != "" {
		return traceID
	}
	traceID := c.GetHeader("X-Trace-Id")
	if traceID == "" {
		traceID = uuid.New().String()
	}
	c.Set("trace_id", traceID)
	return traceID
}
