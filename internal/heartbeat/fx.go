package heartbeat

import (
	"github.com/mandarons/wapar/internal/heartbeat/repository"
	"github.com/mandarons/wapar/internal/heartbeat/service"
	"go.uber.org/fx"
)

var Module = fx.Module("heartbeat.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
