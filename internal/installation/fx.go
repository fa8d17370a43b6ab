package installation

import (
	"github.com/mandarons/wapar/internal/installation/repository"
	"github.com/mandarons/wapar/internal/installation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("installation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
