package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/mandarons/wapar/internal/analytics"
	"github.com/mandarons/wapar/internal/clock"
	"github.com/mandarons/wapar/internal/config"
	"github.com/mandarons/wapar/internal/heartbeat"
	"github.com/mandarons/wapar/internal/installation"
	"github.com/mandarons/wapar/internal/migration"
	"github.com/mandarons/wapar/internal/observability"
	"github.com/mandarons/wapar/internal/ratelimit"
	"github.com/mandarons/wapar/internal/server"
	"github.com/mandarons/wapar/pkg/db"
	"go.uber.org/fx"
)

// api serves ingestion and analytics without the enrichment scheduler.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		installation.Module,
		heartbeat.Module,
		analytics.Module,

		ratelimit.RedisModule,
		ratelimit.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
