package tracing

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPClient returns a client whose outbound requests open client spans.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return WrapHTTPClient(&http.Client{Timeout: timeout})
}

// WrapHTTPClient instruments the client's transport in place.
func WrapHTTPClient(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{}
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	client.Transport = otelhttp.NewTransport(base)
	return client
}
