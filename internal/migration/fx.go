package migration

import (
	"context"
	"fmt"

	heartbeatdomain "github.com/mandarons/wapar/internal/heartbeat/domain"
	installationdomain "github.com/mandarons/wapar/internal/installation/domain"
	"github.com/mandarons/wapar/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, retry db.RetryPolicy, log *zap.Logger) error {
		return Apply(context.Background(), conn, retry, log)
	}),
)

// Apply brings the schema up to date. Postgres uses the versioned SQL
// migrations; other dialects are migrated from the models.
func Apply(ctx context.Context, conn *gorm.DB, retry db.RetryPolicy, log *zap.Logger) error {
	dialect := conn.Dialector.Name()
	var version uint
	err := retry.Do(ctx, func(ctx context.Context) error {
		if dialect == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			version, err = RunMigrations(sqlDB)
			return err
		}
		return conn.WithContext(ctx).AutoMigrate(
			&installationdomain.Installation{},
			&heartbeatdomain.Heartbeat{},
		)
	})
	if err != nil {
		return fmt.Errorf("migrate %s schema: %w", dialect, err)
	}

	fields := []zap.Field{zap.String("dialect", dialect)}
	if version > 0 {
		fields = append(fields, zap.Uint("version", version))
	}
	log.Named("migration").Info("schema up to date", fields...)
	return nil
}
