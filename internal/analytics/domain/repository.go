package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	CountInstallations(ctx context.Context, db *gorm.DB) (int64, error)
	CountActiveSince(ctx context.Context, db *gorm.DB, since time.Time) (int64, error)
	CountByCountry(ctx context.Context, db *gorm.DB) ([]CountryCount, error)
	CountByApp(ctx context.Context, db *gorm.DB, appName string) (int64, error)
	CountByVersion(ctx context.Context, db *gorm.DB, appName string) ([]VersionCount, error)
}
