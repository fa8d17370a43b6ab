package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLoggedEngine(t *testing.T, cfg MiddlewareConfig) (*gin.Engine, func() []zapcore.Level) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	base, logs := observed(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(base)
	t.Cleanup(restore)

	r := gin.New()
	r.Use(GinMiddleware(cfg))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Status(http.StatusInternalServerError)
	})
	levels := func() []zapcore.Level {
		var out []zapcore.Level
		for _, e := range logs.FilterMessage("http_request").All() {
			out = append(out, e.Level)
		}
		return out
	}
	return r, levels
}

func TestGinMiddlewareDefaultLevels(t *testing.T) {
	r, levels := newLoggedEngine(t, MiddlewareConfig{})

	for _, path := range []string{"/ok", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	assert.Equal(t, []zapcore.Level{zapcore.InfoLevel, zapcore.ErrorLevel}, levels())
}

func TestGinMiddlewareUsesLevelHook(t *testing.T) {
	var gotRoute, gotType string
	r, levels := newLoggedEngine(t, MiddlewareConfig{
		ErrorClassifier: func(error) (string, string) { return "internal_error", "boom" },
		Level: func(route string, status int, errorType string) zapcore.Level {
			gotRoute, gotType = route, errorType
			return zapcore.DebugLevel
		},
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, []zapcore.Level{zapcore.DebugLevel}, levels())
	assert.Equal(t, "/boom", gotRoute)
	assert.Equal(t, "internal_error", gotType)
}

func TestGinMiddlewareEchoesRequestID(t *testing.T) {
	r, _ := newLoggedEngine(t, MiddlewareConfig{})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(requestIDHeader))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NotEmpty(t, rec.Header().Get(requestIDHeader))
}
