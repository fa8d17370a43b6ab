package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mandarons/wapar/internal/config"
	"github.com/mandarons/wapar/pkg/apperr"
	redis "github.com/redis/go-redis/v9"
)

const keyIngestIP = "wapar:ingest:ip:%s"

var ErrRateLimited = apperr.RateLimited("rate_limited")

// IngestLimiter throttles installation and heartbeat submissions per client IP.
type IngestLimiter struct {
	bucket *tokenBucket
}

// NewIngestLimiter returns nil when rate limiting is disabled.
func NewIngestLimiter(cfg config.Config, client *redis.Client) (*IngestLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if client == nil {
		return nil, errors.New("rate limiting requires REDIS_ADDR")
	}
	bucket, err := newTokenBucket(client, limitCfg.IngestRate, limitCfg.IngestBurst)
	if err != nil {
		return nil, fmt.Errorf("ingest rate limit: %w", err)
	}
	return &IngestLimiter{bucket: bucket}, nil
}

func (l *IngestLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// AllowIP consumes one token from the bucket of ip. A disabled limiter allows everything.
func (l *IngestLimiter) AllowIP(ctx context.Context, ip string) (Decision, error) {
	if !l.Enabled() {
		return Decision{Allowed: true}, nil
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = "unknown"
	}
	return l.bucket.take(ctx, fmt.Sprintf(keyIngestIP, ip))
}
