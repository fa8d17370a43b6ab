package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/mandarons/wapar/internal/analytics/domain"
)

func (s *Server) UsageSummary(c *gin.Context) {
	summary, err := s.analyticsSvc.Summary(c.Request.Context(), analyticsdomain.SummaryRequest{
		Apps: queryList(c.QueryArray("app")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) VersionDistribution(c *gin.Context) {
	dist, err := s.analyticsSvc.VersionDistribution(c.Request.Context(), analyticsdomain.VersionDistributionRequest{
		AppName: c.Query("app"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dist)
}
