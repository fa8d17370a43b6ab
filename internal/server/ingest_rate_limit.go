package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mandarons/wapar/internal/observability/logger"
	"github.com/mandarons/wapar/internal/ratelimit"
	"go.uber.org/zap"
)

const rateLimitReasonIPRate = "ip-rate"

// IngestRateLimit throttles ingestion per client IP. Limiter failures let the
// request through so a redis outage never blocks telemetry.
func (s *Server) IngestRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.ingestLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)

		res, err := s.ingestLimiter.AllowIP(ctx, s.clientIP(c))
		if err != nil {
			logger.FromContext(ctx).Warn("ingest rate limit check failed", zap.String("endpoint", endpoint), zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			s.denyIngest(c, endpoint, res)
			return
		}

		s.obsMetrics.RecordRateLimitAllowed(ctx, endpoint)
		c.Next()
	}
}

func (s *Server) denyIngest(c *gin.Context, endpoint string, res ratelimit.Decision) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("ingest rate limit exceeded",
		zap.String("reason", rateLimitReasonIPRate),
		zap.String("endpoint", endpoint),
	)
	s.obsMetrics.RecordRateLimitDenied(ctx, endpoint, rateLimitReasonIPRate)

	retryAfter := int(res.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-Rate-Limited-Reason", rateLimitReasonIPRate)
	AbortWithError(c, ratelimit.ErrRateLimited)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
