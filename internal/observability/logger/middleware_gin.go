package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/mandarons/wapar/internal/observability/context"
	"github.com/mandarons/wapar/pkg/telemetry/correlation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const requestIDHeader = "X-Request-Id"

// RequestLogLevel picks the level of the access log line for a finished request.
type RequestLogLevel func(route string, status int, errorType string) zapcore.Level

// MiddlewareConfig controls request logging behavior.
type MiddlewareConfig struct {
	Debug           bool
	ErrorClassifier func(err error) (string, string)
	// Level defaults to error for 5xx and info otherwise.
	Level RequestLogLevel
}

// DefaultRequestLogLevel logs server errors at error and everything else at info.
func DefaultRequestLogLevel(_ string, status int, _ string) zapcore.Level {
	if status >= http.StatusInternalServerError {
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// GinMiddleware assigns request and correlation ids, then writes one access
// log line per request. Middlewares further down the chain may enrich the
// request context; the line is built from the context as it is after c.Next.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	level := cfg.Level
	if level == nil {
		level = DefaultRequestLogLevel
	}

	return func(c *gin.Context) {
		start := time.Now()
		requestID := requestIDFor(c)
		c.Header(requestIDHeader, requestID)

		ctx := obscontext.WithRequestID(c.Request.Context(), requestID)
		ctx = obscontext.WithActor(ctx, "client", c.ClientIP())
		ctx, correlationID := correlation.FromRequest(ctx, c.Request)
		c.Header(correlation.Header, correlationID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Int64("bytes_in", max(c.Request.ContentLength, 0)),
			zap.Int("bytes_out", max(c.Writer.Size(), 0)),
		}
		if appName := strings.TrimSpace(c.GetString("app_name")); appName != "" {
			fields = append(fields, zap.String("app_name", appName))
		}

		var errorType string
		if lastErr := c.Errors.Last(); lastErr != nil && cfg.ErrorClassifier != nil {
			var errorCode string
			errorType, errorCode = cfg.ErrorClassifier(lastErr.Err)
			fields = append(fields,
				zap.String("error_type", errorType),
				zap.String("error_code", errorCode),
			)
			if cfg.Debug {
				fields = append(fields, zap.Stack("stack"))
			}
		}

		if ce := FromContext(c.Request.Context()).Check(level(route, status, errorType), "http_request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

// requestIDFor reuses the caller's request id when it sent one.
func requestIDFor(c *gin.Context) string {
	id := strings.TrimSpace(c.GetHeader(requestIDHeader))
	if id == "" {
		id = strings.TrimSpace(c.GetString("request_id"))
	}
	if id == "" {
		id = uuid.NewString()
	}
	c.Set("request_id", id)
	return id
}
