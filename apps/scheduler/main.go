package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/mandarons/wapar/internal/clock"
	"github.com/mandarons/wapar/internal/config"
	"github.com/mandarons/wapar/internal/enrichment"
	"github.com/mandarons/wapar/internal/geolocation"
	"github.com/mandarons/wapar/internal/installation"
	"github.com/mandarons/wapar/internal/observability"
	"github.com/mandarons/wapar/internal/ratelimit"
	"github.com/mandarons/wapar/internal/scheduler"
	"github.com/mandarons/wapar/pkg/db"
	"go.uber.org/fx"
)

// scheduler runs geo enrichment only. Several replicas may run with
// SCHEDULER_LOCK_ENABLED so each tick executes once.
func main() {
	app := fx.New(
		config.Module,
		config.EnrichmentModule,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		installation.Module,
		geolocation.Module,
		enrichment.Module,

		ratelimit.RedisModule,
		ratelimit.SchedulerLockModule,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
