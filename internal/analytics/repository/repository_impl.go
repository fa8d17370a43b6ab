package repository

import (
	"context"
	"strings"
	"time"

	"github.com/mandarons/wapar/internal/analytics/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CountInstallations(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM installations`).Scan(&total).Error
	return total, err
}

func (r *repo) CountActiveSince(ctx context.Context, db *gorm.DB, since time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(DISTINCT installation_id) FROM heartbeats WHERE created_at >= ?`,
		since.UTC(),
	).Scan(&total).Error
	return total, err
}

func (r *repo) CountByCountry(ctx context.Context, db *gorm.DB) ([]domain.CountryCount, error) {
	var rows []domain.CountryCount
	err := db.WithContext(ctx).Raw(
		`SELECT country_code, COUNT(*) AS count
		 FROM installations
		 WHERE country_code IS NOT NULL
		 GROUP BY country_code
		 ORDER BY count DESC, country_code ASC`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) CountByApp(ctx context.Context, db *gorm.DB, appName string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM installations WHERE app_name = ?`,
		appName,
	).Scan(&total).Error
	return total, err
}

func (r *repo) CountByVersion(ctx context.Context, db *gorm.DB, appName string) ([]domain.VersionCount, error) {
	stmt := db.WithContext(ctx).
		Table("installations").
		Select("app_version AS version, COUNT(*) AS count")
	if name := strings.TrimSpace(appName); name != "" {
		stmt = stmt.Where("app_name = ?", name)
	}

	var rows []domain.VersionCount
	if err := stmt.Group("app_version").Order("app_version ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
