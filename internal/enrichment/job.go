// Package enrichment attaches country and region to installations that do not have them yet.
package enrichment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/mandarons/wapar/internal/clock"
	"github.com/mandarons/wapar/internal/config"
	geodomain "github.com/mandarons/wapar/internal/geolocation/domain"
	installationdomain "github.com/mandarons/wapar/internal/installation/domain"
	obscontext "github.com/mandarons/wapar/internal/observability/context"
	obslogger "github.com/mandarons/wapar/internal/observability/logger"
	obsmetrics "github.com/mandarons/wapar/internal/observability/metrics"
	"github.com/mandarons/wapar/pkg/apperr"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const JobName = "geo_enrichment"

type Status string

const (
	// StatusNoop means every installation already has geo data.
	StatusNoop Status = "noop"
	// StatusNothingToEnrich means the page only held blank addresses.
	StatusNothingToEnrich Status = "nothing_to_enrich"
	StatusPartial         Status = "partial"
	StatusSuccess         Status = "success"
)

type Result struct {
	Status    Status
	Scanned   int
	Addresses int
	Updated   int
	Failed    int
	// SuccessRate is Updated/Scanned as a percentage with two decimals.
	SuccessRate float64
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    installationdomain.Repository
	Lookup  geodomain.Lookup
	Clock   clock.Clock
	Config  *config.EnrichmentConfigHolder
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Job struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    installationdomain.Repository
	lookup  geodomain.Lookup
	clock   clock.Clock
	cfg     *config.EnrichmentConfigHolder
	metrics *obsmetrics.Metrics
}

func New(p Params) *Job {
	return &Job{
		db:      p.DB,
		log:     p.Log.Named("enrichment.job"),
		repo:    p.Repo,
		lookup:  p.Lookup,
		clock:   p.Clock,
		cfg:     p.Config,
		metrics: p.Metrics,
	}
}

// Run performs one enrichment pass over the oldest page of installations
// without geo data. A failed batch lookup or page read aborts the pass; a
// failed row update only counts against the result.
func (j *Job) Run(ctx context.Context) (Result, error) {
	ctx = obscontext.WithOperation(ctx, JobName)
	log := obslogger.WithContext(ctx, j.log)

	rows, err := j.repo.FindMissingGeo(ctx, j.db, j.batchSize())
	if err != nil {
		return Result{}, fmt.Errorf("load installations without geo: %w", err)
	}
	if len(rows) == 0 {
		log.Debug("no installations need geo enrichment")
		return Result{Status: StatusNoop}, nil
	}

	ips := distinctAddresses(rows)
	result := Result{Scanned: len(rows), Addresses: len(ips)}
	if len(ips) == 0 {
		result.Status = StatusNothingToEnrich
		log.Warn("installations without geo have no usable ip address", zap.Int("scanned", len(rows)))
		return result, nil
	}

	resolved, err := j.lookup.LookupBatch(ctx, ips)
	if err != nil {
		return result, apperr.ExternalLookup(fmt.Errorf("batch geo lookup of %d addresses: %w", len(ips), err))
	}

	byAddress := make(map[string]geodomain.Result, len(resolved))
	for _, r := range resolved {
		query := strings.TrimSpace(r.Query)
		if query == "" || strings.TrimSpace(r.CountryCode) == "" {
			continue
		}
		byAddress[query] = r
	}

	for _, row := range rows {
		geo, ok := byAddress[strings.TrimSpace(row.IPAddress)]
		if !ok {
			result.Failed++
			continue
		}
		err := j.repo.UpdateGeo(ctx, j.db, installationdomain.GeoUpdate{
			ID:          row.ID,
			CountryCode: strings.ToUpper(strings.TrimSpace(geo.CountryCode)),
			Region:      strings.TrimSpace(geo.Region),
			UpdatedAt:   j.clock.Now().UTC(),
		})
		if err != nil {
			result.Failed++
			log.Warn("geo update failed",
				zap.String("installation_id", row.ID.String()),
				zap.String("error_kind", string(apperr.KindOf(err))),
				zap.Error(err),
			)
			continue
		}
		result.Updated++
	}

	result.SuccessRate = successRate(result.Updated, result.Scanned)
	j.metrics.RecordGeoEnrichment(ctx, "updated", result.Updated)
	j.metrics.RecordGeoEnrichment(ctx, "failed", result.Failed)

	fields := []zap.Field{
		zap.Int("scanned", result.Scanned),
		zap.Int("addresses", result.Addresses),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
		zap.Float64("success_rate", result.SuccessRate),
	}
	if result.Failed > 0 {
		result.Status = StatusPartial
		log.Warn("geo enrichment partially succeeded", fields...)
		return result, nil
	}
	result.Status = StatusSuccess
	log.Info("geo enrichment succeeded", fields...)
	return result, nil
}

func (j *Job) batchSize() int {
	if j.cfg == nil {
		return installationdomain.DefaultMissingGeoLimit
	}
	size := j.cfg.Get().BatchSize
	if size <= 0 || size > installationdomain.DefaultMissingGeoLimit {
		return installationdomain.DefaultMissingGeoLimit
	}
	return size
}

// distinctAddresses keeps first-seen order so lookups are deterministic.
func distinctAddresses(rows []*installationdomain.Installation) []string {
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		ip := strings.TrimSpace(row.IPAddress)
		if ip == "" {
			continue
		}
		if _, ok := seen[ip]; ok {
			continue
		}
		seen[ip] = struct{}{}
		out = append(out, ip)
	}
	return out
}

func successRate(updated, scanned int) float64 {
	if scanned == 0 {
		return 0
	}
	return math.Round(float64(updated)/float64(scanned)*10000) / 100
}
