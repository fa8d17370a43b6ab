package config

import "go.uber.org/fx"

var Module = fx.Module("config",
	fx.Provide(Load),
)

// EnrichmentModule provides the hot-reloaded enrichment settings.
var EnrichmentModule = fx.Module("config.enrichment",
	fx.Provide(NewEnrichmentConfigHolder),
)
