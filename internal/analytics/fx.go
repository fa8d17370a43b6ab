package analytics

import (
	"github.com/mandarons/wapar/internal/analytics/repository"
	"github.com/mandarons/wapar/internal/analytics/service"
	"go.uber.org/fx"
)

var Module = fx.Module("analytics.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
