package domain

import "context"

type SummaryRequest struct {
	// Apps overrides the configured applications of interest.
	Apps []string
}

type VersionDistributionRequest struct {
	AppName string
}

// Service computes every report fresh from storage.
type Service interface {
	Summary(context.Context, SummaryRequest) (UsageSummary, error)
	VersionDistribution(context.Context, VersionDistributionRequest) (VersionDistribution, error)
	TotalInstallations(context.Context) (int64, error)
	MonthlyActive(context.Context) (int64, error)
	CountryDistribution(context.Context) ([]CountryCount, error)
	AppTotal(ctx context.Context, appName string) (int64, error)
}
