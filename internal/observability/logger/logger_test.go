package logger

import (
	"context"
	"testing"

	obscontext "github.com/mandarons/wapar/internal/observability/context"
	"github.com/mandarons/wapar/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestWithContextOmitsAbsentFields(t *testing.T) {
	base, logs := observed(zapcore.InfoLevel)

	WithContext(context.Background(), base).Info("tick")

	require.Equal(t, 1, logs.Len())
	assert.Empty(t, logs.All()[0].Context)
}

func TestWithContextCarriesIdentifiers(t *testing.T) {
	base, logs := observed(zapcore.InfoLevel)
	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithOperation(ctx, "heartbeat.record")
	ctx = obscontext.WithActor(ctx, "system", "scheduler")
	ctx = correlation.ContextWithCorrelationID(ctx, "corr-1")

	WithContext(ctx, base).Info("recorded")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "corr-1", fields["correlation_id"])
	assert.Equal(t, "heartbeat.record", fields["operation"])
	assert.Equal(t, "system", fields["actor_type"])
	assert.Equal(t, "scheduler", fields["actor_id"])
	_, hasTrace := fields["trace_id"]
	assert.False(t, hasTrace)
}

func TestConfigDefaults(t *testing.T) {
	initial, thereafter, window := Config{}.sampling()
	assert.Equal(t, 100, initial)
	assert.Equal(t, 100, thereafter)
	assert.Equal(t, "1s", window.String())
	assert.Equal(t, "wapar", Config{ServiceName: "  "}.service())
	assert.Equal(t, "console", normalizeFormat(" Console "))
	assert.Equal(t, "json", normalizeFormat("yaml"))
}
