package tracing

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/mandarons/wapar/internal/observability/context"
	"github.com/mandarons/wapar/pkg/telemetry/correlation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// routeOperations names the unit of work behind each API route.
var routeOperations = map[string]string{
	"POST /api/installation":     "installation.create",
	"POST /api/heartbeat":        "heartbeat.record",
	"GET /api/usage":             "analytics.summary",
	"GET /api/usage/versions":    "analytics.version_distribution",
	"GET /api/installations":     "installation.list",
	"GET /api/installations/:id": "installation.get",
	"POST /api/test/cleanup":     "installation.cleanup",
}

// OperationForRoute returns the operation name for a gin route, or "" when
// the route is not part of the API.
func OperationForRoute(method, route string) string {
	return routeOperations[strings.ToUpper(method)+" "+route]
}

// GinMiddleware starts a server span per request. It runs after the request
// logger so request and correlation ids are already on the context.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("wapar/http")
	return func(c *gin.Context) {
		method := strings.ToUpper(c.Request.Method)
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}

		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		operation := OperationForRoute(method, route)
		if operation != "" {
			ctx = obscontext.WithOperation(ctx, operation)
		}

		ctx, span := tracer.Start(ctx, "HTTP "+method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		attrs := []attribute.KeyValue{
			attribute.String("http.method", method),
			attribute.String("http.route", route),
		}
		if operation != "" {
			attrs = append(attrs, attribute.String("wapar.operation", operation))
		}
		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			attrs = append(attrs, attribute.String("request_id", requestID))
		}
		if cid := correlation.ExtractCorrelationID(ctx); cid != "" {
			attrs = append(attrs, attribute.String("correlation_id", cid))
		}
		span.SetAttributes(SafeAttributes(attrs...)...)

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if appName := strings.TrimSpace(c.GetString("app_name")); appName != "" {
			span.SetAttributes(attribute.String("wapar.app_name", appName))
		}

		if status >= http.StatusInternalServerError {
			if lastErr := c.Errors.Last(); lastErr != nil {
				if safeErr := SafeError(lastErr.Err); safeErr != nil {
					span.RecordError(safeErr)
				}
			}
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
