package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/mandarons/wapar/internal/installation/domain"
	"github.com/mandarons/wapar/pkg/db"
	"github.com/mandarons/wapar/pkg/db/option"
	"github.com/mandarons/wapar/pkg/db/pagination"
	"gorm.io/gorm"
)

const columns = `id, app_name, app_version, ip_address, previous_id, data, country_code, region, created_at, updated_at`

type repo struct {
	retry db.RetryPolicy
}

func Provide(retry db.RetryPolicy) domain.Repository {
	return &repo{retry: retry}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, installation *domain.Installation) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		return conn.WithContext(ctx).Exec(
			`INSERT INTO installations (`+columns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			installation.ID,
			installation.AppName,
			installation.AppVersion,
			installation.IPAddress,
			installation.PreviousID,
			installation.Data,
			installation.CountryCode,
			installation.Region,
			installation.CreatedAt,
			installation.UpdatedAt,
		).Error
	})
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Installation, error) {
	var installation domain.Installation
	err := conn.WithContext(ctx).Raw(
		`SELECT `+columns+` FROM installations WHERE id = ?`,
		id,
	).Scan(&installation).Error
	if err != nil {
		return nil, err
	}
	if installation.ID == 0 {
		return nil, nil
	}
	return &installation, nil
}

func (r *repo) FindMissingGeo(ctx context.Context, conn *gorm.DB, limit int) ([]*domain.Installation, error) {
	if limit <= 0 {
		limit = domain.DefaultMissingGeoLimit
	}
	var installations []*domain.Installation
	err := conn.WithContext(ctx).Raw(
		`SELECT `+columns+` FROM installations
		 WHERE country_code IS NULL
		 ORDER BY created_at ASC, id ASC
		 LIMIT ?`,
		limit,
	).Scan(&installations).Error
	if err != nil {
		return nil, err
	}
	return installations, nil
}

func (r *repo) UpdateGeo(ctx context.Context, conn *gorm.DB, update domain.GeoUpdate) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		result := conn.WithContext(ctx).Exec(
			`UPDATE installations SET country_code = ?, region = ?, updated_at = ? WHERE id = ?`,
			update.CountryCode,
			update.Region,
			update.UpdatedAt,
			update.ID,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Installation, error) {
	var installations []*domain.Installation
	stmt := conn.WithContext(ctx).Model(&domain.Installation{})
	if name := strings.TrimSpace(filter.AppName); name != "" {
		stmt = stmt.Where("app_name = ?", name)
	}
	if code := strings.TrimSpace(filter.CountryCode); code != "" {
		stmt = stmt.Where("country_code = ?", strings.ToUpper(code))
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&installations).Error
	if err != nil {
		return nil, err
	}
	return installations, nil
}

func (r *repo) DeleteAll(ctx context.Context, conn *gorm.DB) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		return conn.WithContext(ctx).Exec(`DELETE FROM installations`).Error
	})
}
