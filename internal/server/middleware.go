package server

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// clientIP prefers the configured proxy header and falls back to the peer address.
func (s *Server) clientIP(c *gin.Context) string {
	if header := strings.TrimSpace(s.cfg.ProxyIPHeader); header != "" {
		if value := strings.TrimSpace(c.GetHeader(header)); value != "" {
			// X-Forwarded-For style headers list the original client first
			first := strings.TrimSpace(strings.Split(value, ",")[0])
			if net.ParseIP(first) != nil {
				return first
			}
		}
	}
	return c.ClientIP()
}
