package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	installationdomain "github.com/mandarons/wapar/internal/installation/domain"
)

func (s *Server) CreateInstallation(c *gin.Context) {
	var req installationdomain.CreateInstallationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	if appName := strings.TrimSpace(req.AppName); appName != "" {
		c.Set("app_name", appName)
	}
	req.ProxyIP = s.clientIP(c)

	resp, err := s.installationSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) GetInstallation(c *gin.Context) {
	installation, err := s.installationSvc.GetByID(c.Request.Context(), installationdomain.GetInstallationRequest{
		ID: c.Param("id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, installation)
}

func (s *Server) ListInstallations(c *gin.Context) {
	pageSize, err := parseOptionalInt32(c.Query("page_size"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.installationSvc.List(c.Request.Context(), installationdomain.ListInstallationRequest{
		AppName:     c.Query("app_name"),
		CountryCode: c.Query("country_code"),
		PageToken:   c.Query("page_token"),
		PageSize:    pageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
