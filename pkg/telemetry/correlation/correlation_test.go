package correlation

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequestReusesHeader(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/heartbeat", nil)
	req.Header.Set(Header, "01HZX")

	ctx, cid := FromRequest(context.Background(), req)

	assert.Equal(t, "01HZX", cid)
	assert.Equal(t, "01HZX", ExtractCorrelationID(ctx))
}

func TestEnsureCorrelationIDGeneratesOnce(t *testing.T) {
	ctx, first := EnsureCorrelationID(context.Background())
	_, second := EnsureCorrelationID(ctx)

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestInject(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "abc")
	req := httptest.NewRequest("POST", "http://ip-api.com/batch", nil)

	Inject(ctx, req)

	assert.Equal(t, "abc", req.Header.Get(Header))
}
