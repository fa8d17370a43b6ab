// Package ipapi resolves addresses with the ip-api.com batch endpoint.
package ipapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mandarons/wapar/internal/geolocation/domain"
	"github.com/mandarons/wapar/internal/observability/tracing"
	"github.com/mandarons/wapar/pkg/telemetry/correlation"
	"go.uber.org/zap"
)

const (
	DefaultEndpoint = "http://ip-api.com/batch"
	// The free tier accepts at most 100 queries per batch request.
	MaxBatchSize = 100

	fields = "status,message,query,countryCode,region"
)

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

type Client struct {
	endpoint string
	http     *http.Client
	log      *zap.Logger
}

type batchEntry struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Query       string `json:"query"`
	CountryCode string `json:"countryCode"`
	Region      string `json:"region"`
}

func New(cfg Config, log *zap.Logger) *Client {
	return NewWithHTTPClient(cfg, tracing.NewHTTPClient(timeoutOrDefault(cfg.Timeout)), log)
}

func NewWithHTTPClient(cfg Config, httpClient *http.Client, log *zap.Logger) *Client {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = tracing.NewHTTPClient(timeoutOrDefault(cfg.Timeout))
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		endpoint: endpoint,
		http:     httpClient,
		log:      log.Named("geolocation.ipapi"),
	}
}

// LookupBatch posts the addresses in chunks of MaxBatchSize and keeps only
// the entries ip-api reports as successful.
func (c *Client) LookupBatch(ctx context.Context, ips []string) ([]domain.Result, error) {
	if len(ips) == 0 {
		return nil, nil
	}
	results := make([]domain.Result, 0, len(ips))
	for start := 0; start < len(ips); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(ips) {
			end = len(ips)
		}
		chunk, err := c.lookupChunk(ctx, ips[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, chunk...)
	}
	return results, nil
}

func (c *Client) lookupChunk(ctx context.Context, ips []string) ([]domain.Result, error) {
	body, err := json.Marshal(ips)
	if err != nil {
		return nil, fmt.Errorf("encode ip-api batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?fields="+fields, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ip-api request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	correlation.Inject(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ip-api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ip-api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var entries []batchEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode ip-api response: %w", err)
	}

	results := make([]domain.Result, 0, len(entries))
	for _, entry := range entries {
		if entry.Status != "success" {
			c.log.Debug("ip-api could not resolve address",
				zap.String("status", entry.Status),
				zap.String("message", entry.Message),
			)
			continue
		}
		results = append(results, domain.Result{
			Query:       entry.Query,
			CountryCode: entry.CountryCode,
			Region:      entry.Region,
		})
	}
	return results, nil
}

func timeoutOrDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 10 * time.Second
	}
	return timeout
}

var _ domain.Lookup = (*Client)(nil)
