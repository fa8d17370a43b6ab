package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("app_name", "icloud-docker"),
		attribute.String("installation_id", "456"),
		attribute.String("ip_address", "1.2.3.4"),
		attribute.String("outcome", HeartbeatOutcomeCreated),
	)
	require.Len(t, attrs, 2)

	keys := []attribute.Key{attrs[0].Key, attrs[1].Key}
	assert.Contains(t, keys, attribute.Key("app_name"))
	assert.Contains(t, keys, attribute.Key("outcome"))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordInstallation(context.Background(), "app")
		m.RecordHeartbeat(context.Background(), HeartbeatOutcomeDeduplicated)
		m.RecordIPFallback(context.Background())
		m.RecordGeoEnrichment(context.Background(), "updated", 3)
		m.RecordRateLimitDenied(context.Background(), "/api/heartbeat", "rate_limited")
	})
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{}, noop.NewMeterProvider())
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.RecordInstallation(context.Background(), "app")
		m.RecordRateLimitAllowed(context.Background(), "/api/installation")
	})
}
