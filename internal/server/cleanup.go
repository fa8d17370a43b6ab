package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	obslogger "github.com/mandarons/wapar/internal/observability/logger"
	"go.uber.org/zap"
)

// TestCleanup wipes all telemetry. Heartbeats go first so the foreign key
// to installations never dangles.
func (s *Server) TestCleanup(c *gin.Context) {
	if s.cfg.IsProduction() {
		AbortWithError(c, ErrNotFound)
		return
	}

	ctx := c.Request.Context()
	if err := s.heartbeatSvc.DeleteAll(ctx); err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.installationSvc.DeleteAll(ctx); err != nil {
		AbortWithError(c, err)
		return
	}

	obslogger.WithContext(ctx, s.log).Warn("test cleanup purged all telemetry", zap.String("environment", s.cfg.Environment))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
