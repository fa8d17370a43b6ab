package service

import (
	"context"
	"math"
	"strings"

	"github.com/mandarons/wapar/internal/analytics/domain"
	"github.com/mandarons/wapar/internal/clock"
	"github.com/mandarons/wapar/internal/config"
	obslogger "github.com/mandarons/wapar/internal/observability/logger"
	"github.com/mandarons/wapar/pkg/version"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Repo   domain.Repository
	Clock  clock.Clock
	Config config.Config
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	clock clock.Clock
	apps  []string
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("analytics.service"),
		repo:  p.Repo,
		clock: p.Clock,
		apps:  p.Config.AnalyticsApps,
	}
}

func (s *Service) Summary(ctx context.Context, req domain.SummaryRequest) (domain.UsageSummary, error) {
	total, err := s.TotalInstallations(ctx)
	if err != nil {
		return domain.UsageSummary{}, err
	}
	active, err := s.MonthlyActive(ctx)
	if err != nil {
		return domain.UsageSummary{}, err
	}
	countries, err := s.CountryDistribution(ctx)
	if err != nil {
		return domain.UsageSummary{}, err
	}

	apps := normalizeApps(req.Apps)
	if len(apps) == 0 {
		apps = normalizeApps(s.apps)
	}
	appCounts := make([]domain.AppCount, 0, len(apps))
	for _, app := range apps {
		count, err := s.AppTotal(ctx, app)
		if err != nil {
			return domain.UsageSummary{}, err
		}
		appCounts = append(appCounts, domain.AppCount{AppName: app, Count: count})
	}

	obslogger.WithContext(ctx, s.log).Debug("usage summary computed",
		zap.Int64("total", total),
		zap.Int64("monthly_active", active),
		zap.Int("countries", len(countries)),
	)

	return domain.UsageSummary{
		TotalInstallations: total,
		MonthlyActive:      active,
		Countries:          countries,
		Apps:               appCounts,
		GeneratedAt:        s.clock.Now().UTC(),
	}, nil
}

// VersionDistribution groups installations by reported version. The latest
// version is chosen among the distinct versions; outdated counts everything else.
func (s *Service) VersionDistribution(ctx context.Context, req domain.VersionDistributionRequest) (domain.VersionDistribution, error) {
	appName := strings.TrimSpace(req.AppName)
	rows, err := s.repo.CountByVersion(ctx, s.db, appName)
	if err != nil {
		return domain.VersionDistribution{}, err
	}

	counts := make(map[string]int64, len(rows))
	distinct := make([]string, 0, len(rows))
	var total int64
	for _, row := range rows {
		if _, ok := counts[row.Version]; !ok {
			distinct = append(distinct, row.Version)
		}
		counts[row.Version] += row.Count
		total += row.Count
	}

	versions := make([]domain.VersionCount, 0, len(distinct))
	for _, v := range version.SortDescending(distinct) {
		versions = append(versions, domain.VersionCount{
			Version:    v,
			Count:      counts[v],
			Percentage: percentage(counts[v], total),
		})
	}

	latest, _ := version.FindLatest(distinct)
	outdated := total - counts[latest]

	return domain.VersionDistribution{
		AppName:               appName,
		Versions:              versions,
		Total:                 total,
		LatestVersion:         latest,
		OutdatedInstallations: outdated,
		GeneratedAt:           s.clock.Now().UTC(),
	}, nil
}

func (s *Service) TotalInstallations(ctx context.Context) (int64, error) {
	return s.repo.CountInstallations(ctx, s.db)
}

// MonthlyActive counts installations with at least one heartbeat in the last 30 days.
func (s *Service) MonthlyActive(ctx context.Context) (int64, error) {
	since := s.clock.Now().UTC().Add(-domain.MonthlyActiveWindow)
	return s.repo.CountActiveSince(ctx, s.db, since)
}

func (s *Service) CountryDistribution(ctx context.Context) ([]domain.CountryCount, error) {
	rows, err := s.repo.CountByCountry(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.CountryCount{}
	}
	return rows, nil
}

func (s *Service) AppTotal(ctx context.Context, appName string) (int64, error) {
	return s.repo.CountByApp(ctx, s.db, appName)
}

func normalizeApps(apps []string) []string {
	seen := make(map[string]struct{}, len(apps))
	out := make([]string, 0, len(apps))
	for _, app := range apps {
		app = strings.TrimSpace(app)
		if app == "" {
			continue
		}
		if _, ok := seen[app]; ok {
			continue
		}
		seen[app] = struct{}{}
		out = append(out, app)
	}
	return out
}

func percentage(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*10000) / 100
}
