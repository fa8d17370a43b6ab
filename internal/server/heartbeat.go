package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	heartbeatdomain "github.com/mandarons/wapar/internal/heartbeat/domain"
)

// RecordHeartbeat answers 201 whether or not today's heartbeat already existed.
func (s *Server) RecordHeartbeat(c *gin.Context) {
	var req heartbeatdomain.CreateHeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.heartbeatSvc.Record(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
