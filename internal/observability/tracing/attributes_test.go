package tracing

import (
	"errors"
	"testing"

	"github.com/mandarons/wapar/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsClientAddress(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/installation"),
		attribute.String("ip_address", "203.0.113.9"),
		attribute.Int("http.status_code", 201),
	)

	assert.Len(t, attrs, 2)
	for _, attr := range attrs {
		assert.NotEqual(t, attribute.Key("ip_address"), attr.Key)
	}
}

func TestSafeErrorKeepsOnlyKindAndCode(t *testing.T) {
	err := apperr.TransientStorage(errors.New("pq: password authentication failed for user wapar"))

	safe := SafeError(err)

	assert.EqualError(t, safe, "transient_storage: transient_storage")
	assert.Nil(t, SafeError(nil))
	assert.EqualError(t, SafeError(errors.New("raw")), "internal_error")
}
