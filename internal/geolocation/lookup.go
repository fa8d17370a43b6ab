package geolocation

import (
	"context"
	"net/http"
	"sync"

	"github.com/mandarons/wapar/internal/config"
	"github.com/mandarons/wapar/internal/geolocation/domain"
	"github.com/mandarons/wapar/internal/geolocation/ipapi"
	"github.com/mandarons/wapar/internal/geolocation/static"
	"github.com/mandarons/wapar/internal/observability/tracing"
	"go.uber.org/zap"
)

// configuredLookup picks the provider from the current enrichment config on
// every call, so a reloaded enrichment.yml takes effect on the next tick.
type configuredLookup struct {
	holder *config.EnrichmentConfigHolder
	log    *zap.Logger

	mu       sync.Mutex
	ipapi    *ipapi.Client
	ipapiCfg ipapi.Config
}

func NewLookup(holder *config.EnrichmentConfigHolder, log *zap.Logger) domain.Lookup {
	return &configuredLookup{
		holder: holder,
		log:    log.Named("geolocation"),
	}
}

func (l *configuredLookup) LookupBatch(ctx context.Context, ips []string) ([]domain.Result, error) {
	cfg := l.holder.Get()
	if cfg.Provider == config.GeoProviderStatic {
		return static.New(StaticRecords(cfg.Static)).LookupBatch(ctx, ips)
	}
	return l.ipapiClient(cfg).LookupBatch(ctx, ips)
}

func (l *configuredLookup) ipapiClient(cfg config.EnrichmentConfig) *ipapi.Client {
	want := ipapi.Config{Endpoint: cfg.Endpoint, Timeout: cfg.RequestTimeout}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ipapi == nil || l.ipapiCfg != want {
		l.ipapi = ipapi.NewWithHTTPClient(want, tracing.WrapHTTPClient(&http.Client{Timeout: want.Timeout}), l.log)
		l.ipapiCfg = want
	}
	return l.ipapi
}

// StaticRecords converts the configured dataset into lookup results.
func StaticRecords(records []config.StaticGeoRecord) []domain.Result {
	out := make([]domain.Result, 0, len(records))
	for _, r := range records {
		out = append(out, domain.Result{
			Query:       r.Query,
			CountryCode: r.CountryCode,
			Region:      r.Region,
		})
	}
	return out
}
