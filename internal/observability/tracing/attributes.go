package tracing

import (
	"context"
	"errors"
	"strings"

	"github.com/mandarons/wapar/pkg/apperr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

// Client addresses and free-form payloads never leave the process as span attributes.
var blockedAttributeKeys = map[attribute.Key]struct{}{
	"ip_address":     {},
	"client.address": {},
	"http.client_ip": {},
	"data":           {},
	"query":          {},
}

// ExtractContext restores the remote span context carried by the inbound headers.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// SafeAttributes drops attributes that could leak client identity.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, blocked := blockedAttributeKeys[attr.Key]; blocked {
			continue
		}
		out = append(out, attr)
	}
	return out
}

// SafeError reduces err to its kind and code so raw driver messages stay out of traces.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	if e, ok := apperr.As(err); ok {
		msg := string(e.Kind)
		if code := strings.TrimSpace(e.Code); code != "" {
			msg += ": " + code
		}
		return errors.New(msg)
	}
	return errors.New(string(apperr.KindInternal))
}
