package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/mandarons/wapar/internal/heartbeat/domain"
	"github.com/mandarons/wapar/pkg/db"
	"gorm.io/gorm"
)

type repo struct {
	retry db.RetryPolicy
}

func Provide(retry db.RetryPolicy) domain.Repository {
	return &repo{retry: retry}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, heartbeat *domain.Heartbeat) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		return conn.WithContext(ctx).Exec(
			`INSERT INTO heartbeats (id, installation_id, data, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			heartbeat.ID,
			heartbeat.InstallationID,
			heartbeat.Data,
			heartbeat.CreatedAt,
			heartbeat.UpdatedAt,
		).Error
	})
}

func (r *repo) FindInWindow(ctx context.Context, conn *gorm.DB, installationID snowflake.ID, from, to time.Time) ([]*domain.Heartbeat, error) {
	var heartbeats []*domain.Heartbeat
	err := conn.WithContext(ctx).Raw(
		`SELECT id, installation_id, data, created_at, updated_at
		 FROM heartbeats
		 WHERE installation_id = ? AND created_at >= ? AND created_at < ?
		 ORDER BY created_at ASC`,
		installationID,
		from.UTC(),
		to.UTC(),
	).Scan(&heartbeats).Error
	if err != nil {
		return nil, err
	}
	return heartbeats, nil
}

func (r *repo) DeleteAll(ctx context.Context, conn *gorm.DB) error {
	return r.retry.Do(ctx, func(ctx context.Context) error {
		return conn.WithContext(ctx).Exec(`DELETE FROM heartbeats`).Error
	})
}
