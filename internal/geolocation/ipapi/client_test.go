package ipapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mandarons/wapar/internal/geolocation/domain"
	"github.com/mandarons/wapar/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLookupBatchKeepsSuccessfulEntries(t *testing.T) {
	var gotQuery []string
	var gotFields, gotCorrelation string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotFields = r.URL.Query().Get("fields")
		gotCorrelation = r.Header.Get(correlation.Header)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotQuery))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"status":"success","query":"1.1.1.1","countryCode":"AU","region":"NSW"},
			{"status":"fail","message":"private range","query":"10.0.0.1"},
			{"status":"success","query":"8.8.8.8","countryCode":"US","region":"CA"}
		]`))
	}))
	defer srv.Close()

	client := New(Config{Endpoint: srv.URL}, zap.NewNop())
	ctx := correlation.ContextWithCorrelationID(context.Background(), "corr-1")

	results, err := client.LookupBatch(ctx, []string{"1.1.1.1", "10.0.0.1", "8.8.8.8"})
	require.NoError(t, err)

	assert.Equal(t, []string{"1.1.1.1", "10.0.0.1", "8.8.8.8"}, gotQuery)
	assert.Equal(t, fields, gotFields)
	assert.Equal(t, "corr-1", gotCorrelation)
	assert.Equal(t, []domain.Result{
		{Query: "1.1.1.1", CountryCode: "AU", Region: "NSW"},
		{Query: "8.8.8.8", CountryCode: "US", Region: "CA"},
	}, results)
}

func TestLookupBatchNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := New(Config{Endpoint: srv.URL}, zap.NewNop())

	_, err := client.LookupBatch(context.Background(), []string{"1.1.1.1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestLookupBatchSplitsLargeBatches(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var ips []string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&ips))
		assert.LessOrEqual(t, len(ips), MaxBatchSize)
		out := make([]batchEntry, 0, len(ips))
		for _, ip := range ips {
			out = append(out, batchEntry{Status: "success", Query: ip, CountryCode: "NZ", Region: "AUK"})
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	ips := make([]string, 0, 150)
	for i := 0; i < 150; i++ {
		ips = append(ips, fmt.Sprintf("10.0.%d.%d", i/250, i%250))
	}

	results, err := New(Config{Endpoint: srv.URL}, zap.NewNop()).LookupBatch(context.Background(), ips)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, results, 150)
}

func TestLookupBatchEmptyInputSkipsRequest(t *testing.T) {
	client := New(Config{Endpoint: "http://127.0.0.1:0"}, zap.NewNop())
	results, err := client.LookupBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
