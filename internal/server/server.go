package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	analyticsdomain "github.com/mandarons/wapar/internal/analytics/domain"
	"github.com/mandarons/wapar/internal/config"
	heartbeatdomain "github.com/mandarons/wapar/internal/heartbeat/domain"
	installationdomain "github.com/mandarons/wapar/internal/installation/domain"
	"github.com/mandarons/wapar/internal/observability"
	obsmiddleware "github.com/mandarons/wapar/internal/observability/logger"
	obsmetrics "github.com/mandarons/wapar/internal/observability/metrics"
	obstracing "github.com/mandarons/wapar/internal/observability/tracing"
	"github.com/mandarons/wapar/internal/ratelimit"
	"github.com/mandarons/wapar/pkg/apperr"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
		Level:           requestLogLevel,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type routeKind int

const (
	routeAPI routeKind = iota
	routeScrape
	routeIngest
)

// routeKinds classifies routes for access logging. Unlisted routes are API routes.
var routeKinds = map[string]routeKind{
	"/health":           routeScrape,
	"/metrics":          routeScrape,
	"/api/installation": routeIngest,
	"/api/heartbeat":    routeIngest,
}

// requestLogLevel logs scrapes and ingest validation failures at debug.
func requestLogLevel(route string, status int, errorType string) zapcore.Level {
	switch routeKinds[route] {
	case routeScrape:
		if status < http.StatusInternalServerError {
			return zapcore.DebugLevel
		}
	case routeIngest:
		if errorType == string(apperr.KindValidation) {
			return zapcore.DebugLevel
		}
	}
	return obsmiddleware.DefaultRequestLogLevel(route, status, errorType)
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	installationSvc installationdomain.Service
	heartbeatSvc    heartbeatdomain.Service
	analyticsSvc    analyticsdomain.Service
	obsMetrics      *obsmetrics.Metrics
	ingestLimiter   *ratelimit.IngestLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	InstallationSvc installationdomain.Service
	HeartbeatSvc    heartbeatdomain.Service
	AnalyticsSvc    analyticsdomain.Service
	ObsMetrics      *obsmetrics.Metrics      `optional:"true"`
	IngestLimiter   *ratelimit.IngestLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		installationSvc: p.InstallationSvc,
		heartbeatSvc:    p.HeartbeatSvc,
		analyticsSvc:    p.AnalyticsSvc,
		obsMetrics:      p.ObsMetrics,
		ingestLimiter:   p.IngestLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerTestRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	ingest := api.Group("", s.IngestRateLimit())
	ingest.POST("/installation", s.CreateInstallation)
	ingest.POST("/heartbeat", s.RecordHeartbeat)

	api.GET("/usage", s.UsageSummary)
	api.GET("/usage/versions", s.VersionDistribution)

	api.GET("/installations", s.ListInstallations)
	api.GET("/installations/:id", s.GetInstallation)
}

// registerTestRoutes exposes destructive helpers for integration suites.
// They are never mounted in production.
func (s *Server) registerTestRoutes() {
	if s.cfg.IsProduction() {
		return
	}
	s.engine.POST("/api/test/cleanup", s.TestCleanup)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
